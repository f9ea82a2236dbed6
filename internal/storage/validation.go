package storage

import (
	"context"
	"fmt"
)

func validateContext(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("context cannot be nil")
	}
	return ctx.Err()
}

func validateString(value, name string) error {
	if value == "" {
		return fmt.Errorf("%s cannot be empty", name)
	}
	return nil
}

func validateHeaders(headers []string) error {
	if len(headers) == 0 {
		return fmt.Errorf("headers cannot be empty")
	}
	for i, h := range headers {
		if h == "" {
			return fmt.Errorf("header %d cannot be empty", i)
		}
	}
	return nil
}
