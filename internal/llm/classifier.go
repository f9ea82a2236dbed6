package llm

import (
	"context"
	"log/slog"
	"time"

	"github.com/johnchik/llm-expense-tracker/internal/common"
	"github.com/johnchik/llm-expense-tracker/internal/model"
	"github.com/johnchik/llm-expense-tracker/internal/service"
)

const defaultCallTimeout = 30 * time.Second

// Classifier turns notifications into normalized classifications. It never
// fails a batch: when the model call or the response parse fails, the
// notification is preserved as a zero-amount transaction marked as failed,
// so nothing is silently dropped.
type Classifier struct {
	client  Client
	limiter *rateLimiter
	timeout time.Duration
	retry   service.RetryOptions
}

// NewClassifier creates a classifier on top of a raw client.
func NewClassifier(client Client, cfg Config) *Classifier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}

	return &Classifier{
		client:  client,
		limiter: newRateLimiter(cfg.RequestsPerMinute),
		timeout: timeout,
		retry: service.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: time.Second,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
		},
	}
}

// Classify classifies one notification.
func (c *Classifier) Classify(ctx context.Context, n model.Notification) model.Classification {
	userPrompt := BuildUserPrompt(n)

	var raw string
	err := common.WithRetry(ctx, func() error {
		if err := c.limiter.wait(ctx); err != nil {
			return err
		}

		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		var callErr error
		raw, callErr = c.client.Complete(callCtx, systemPrompt, userPrompt)
		return callErr
	}, c.retry)
	if err != nil {
		slog.Error("classification call failed, falling back",
			"notification_id", n.ID,
			"app", n.App,
			"error", err)
		return c.fallback(n)
	}

	parsed, err := model.DecodePayload(cleanMarkdownWrapper(raw))
	if err != nil {
		slog.Error("classification response unparseable, falling back",
			"notification_id", n.ID,
			"app", n.App,
			"error", err)
		return c.fallback(n)
	}

	return c.normalize(parsed, n)
}

// normalize fills gaps in a parsed classification from the notification
// itself.
func (c *Classifier) normalize(parsed model.Classification, n model.Notification) model.Classification {
	switch parsed.Type {
	case model.TypeTransaction:
		t := parsed.Transaction
		if t.Datetime.IsZero() {
			t.Datetime = n.Time()
		}
		if !model.KnownCategory(t.Category) {
			t.Category = model.CategoryOther
		}
		if t.Description == "" {
			t.Description = n.Title
		}
		if t.Currency == "" {
			t.Currency = "HKD"
		}
		if t.PaymentMethod == "" {
			t.PaymentMethod = n.App
		}
		t.RawText = n.Text
	case model.TypeStockTrade:
		s := parsed.StockTrade
		if s.Datetime.IsZero() {
			s.Datetime = n.Time()
		}
		s.RawText = n.Text
	case model.TypeOther:
		if parsed.Other == nil {
			parsed.Other = &model.NonFinancial{Subtype: "other"}
		}
		if parsed.Other.Message == "" {
			parsed.Other.Message = "Non-transaction notification"
		}
	}
	return parsed
}

// fallback builds the synthetic transaction recorded when classification
// fails. Amount stays zero and Failed is set, so a later pass can tell a
// failed call apart from a genuine zero-amount transaction.
func (c *Classifier) fallback(n model.Notification) model.Classification {
	return model.Classification{
		Type:   model.TypeTransaction,
		Failed: true,
		Transaction: &model.Transaction{
			Datetime:      n.Time(),
			Category:      model.CategoryOther,
			Description:   n.Title,
			Currency:      "HKD",
			PaymentMethod: n.App,
			RawText:       n.Text,
		},
	}
}
