// Package normalize provides the pure canonicalization helpers used for
// duplicate detection. All functions are total: any input produces a string.
package normalize

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	amountStrip = regexp.MustCompile(`[^0-9+\-.]`)
	whitespace  = regexp.MustCompile(`\s+`)
)

// Amount strips everything except digits, sign and decimal point so that
// "HKD 5.90" and "5.9 0" compare by value regardless of formatting.
func Amount(v any) string {
	return amountStrip.ReplaceAllString(strings.TrimSpace(stringify(v)), "")
}

// PaymentMethod lowercases and trims for case-insensitive comparison.
func PaymentMethod(v any) string {
	return strings.ToLower(strings.TrimSpace(stringify(v)))
}

// Text lowercases, trims, and collapses runs of whitespace to one space.
func Text(v any) string {
	s := strings.ToLower(strings.TrimSpace(stringify(v)))
	return whitespace.ReplaceAllString(s, " ")
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
