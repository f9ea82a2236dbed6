// Package llm classifies financial notifications with a language model.
package llm

import (
	"context"
	"time"
)

// Client is a minimal chat-completion client. Implementations send one
// system/user prompt pair and return the raw text of the first completion.
type Client interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Config holds provider settings for LLM clients.
type Config struct {
	Provider          string
	APIKey            string
	BaseURL           string
	Model             string
	Temperature       float64
	MaxTokens         int
	RequestsPerMinute int
	Timeout           time.Duration
}
