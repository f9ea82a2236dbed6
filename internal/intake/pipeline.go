// Package intake implements batch ingestion of forwarded notifications.
package intake

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/johnchik/llm-expense-tracker/internal/dupindex"
	"github.com/johnchik/llm-expense-tracker/internal/model"
	"github.com/johnchik/llm-expense-tracker/internal/service"
)

// Classifier classifies one notification.
type Classifier interface {
	Classify(ctx context.Context, n model.Notification) (model.Classification, error)
}

// ClassifierFunc adapts a function to the Classifier interface.
type ClassifierFunc func(ctx context.Context, n model.Notification) (model.Classification, error)

// Classify implements Classifier.
func (f ClassifierFunc) Classify(ctx context.Context, n model.Notification) (model.Classification, error) {
	return f(ctx, n)
}

// Syncer routes staged records to their destinations after a batch lands.
type Syncer interface {
	Sync(ctx context.Context) (int, error)
}

// Options tunes the pipeline.
type Options struct {
	// GroupedAllowlist names source apps whose grouped notifications carry
	// real content and must not be skipped.
	GroupedAllowlist []string
	Now              func() time.Time
}

// Pipeline is the batch ingestion path: dedup, classify, stage, index, then
// trigger reconciliation. Items fail individually; one bad notification
// never poisons the rest of its batch.
type Pipeline struct {
	log        service.Table
	index      *dupindex.Index
	classifier Classifier
	syncer     Syncer
	grouped    map[string]bool
	now        func() time.Time
}

// New creates a pipeline.
func New(logTable service.Table, index *dupindex.Index, classifier Classifier, syncer Syncer, opts Options) *Pipeline {
	grouped := make(map[string]bool, len(opts.GroupedAllowlist))
	for _, app := range opts.GroupedAllowlist {
		grouped[app] = true
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Pipeline{
		log:        logTable,
		index:      index,
		classifier: classifier,
		syncer:     syncer,
		grouped:    grouped,
		now:        now,
	}
}

// ProcessBatch ingests one batch of notifications. Duplicate lookups run
// against the index as it stood before the batch; new fingerprints and log
// records are buffered and written once at the end.
func (p *Pipeline) ProcessBatch(ctx context.Context, notifications []model.Notification) (model.BatchResult, error) {
	result := model.BatchResult{}

	var logRows [][]string
	var indexEntries []dupindex.Entry

	slog.Info("Processing notification batch", "count", len(notifications))

	for _, n := range notifications {
		if !n.Valid() {
			result.Errors++
			result.Results = append(result.Results, model.ItemResult{
				ID:      n.ID,
				Status:  model.StatusError,
				Message: "missing required fields",
			})
			continue
		}

		// Grouped placeholders carry no content of their own, except for
		// apps known to reuse the sentinel ID for real notifications.
		if n.IsGrouped() && !p.grouped[n.App] {
			result.Results = append(result.Results, model.ItemResult{
				ID:     n.ID,
				Status: model.StatusSkipped,
			})
			continue
		}

		key := n.Fingerprint()
		dup, err := p.index.Exists(ctx, key)
		if err != nil {
			result.Errors++
			result.Results = append(result.Results, model.ItemResult{
				ID:      n.ID,
				Status:  model.StatusError,
				Message: err.Error(),
			})
			continue
		}
		if dup {
			slog.Debug("Duplicate notification skipped", "notification_id", n.ID, "app", n.App)
			result.Duplicates++
			result.Results = append(result.Results, model.ItemResult{
				ID:     n.ID,
				Status: model.StatusDuplicate,
			})
			continue
		}

		c, err := p.classifier.Classify(ctx, n)
		if err != nil {
			result.Errors++
			result.Results = append(result.Results, model.ItemResult{
				ID:      n.ID,
				Status:  model.StatusError,
				Message: err.Error(),
			})
			continue
		}

		payload, err := c.EncodePayload()
		if err != nil {
			result.Errors++
			result.Results = append(result.Results, model.ItemResult{
				ID:      n.ID,
				Status:  model.StatusError,
				Message: err.Error(),
			})
			continue
		}

		rec := model.LogRecord{
			Datetime:       n.Time(),
			Title:          n.Title,
			RawText:        n.Text,
			SourceApp:      n.App,
			NotificationID: n.ID,
			Type:           c.LogType(),
			Payload:        payload,
		}
		logRows = append(logRows, rec.Cells())
		// Fail-open placeholders are logged but not fingerprinted, so a
		// corrected redelivery is not suppressed as a duplicate.
		if !c.Failed {
			indexEntries = append(indexEntries, dupindex.Entry{
				Key:            key,
				NotificationID: n.ID,
				SourceApp:      n.App,
				ProcessedAt:    p.now(),
			})
		}

		result.New++
		result.Results = append(result.Results, model.ItemResult{
			ID:     n.ID,
			Type:   c.LogType(),
			Status: model.StatusLogged,
		})
	}

	if len(logRows) > 0 {
		if err := p.log.AppendRows(ctx, logRows); err != nil {
			return model.BatchResult{}, fmt.Errorf("failed to append log records: %w", err)
		}
		if err := p.index.AppendBatch(ctx, indexEntries); err != nil {
			return model.BatchResult{}, fmt.Errorf("failed to append duplicate index entries: %w", err)
		}
	}

	if result.New > 0 {
		if _, err := p.index.Trim(ctx); err != nil {
			slog.Error("Duplicate index trim failed", "error", err)
		}
		if p.syncer != nil {
			if _, err := p.syncer.Sync(ctx); err != nil {
				slog.Error("Post-batch sync failed", "error", err)
			}
		}
	}

	if err := p.log.SortByColumn(ctx, model.LogColDatetime, true); err != nil {
		slog.Error("Log sort failed", "error", err)
	}

	slog.Info("Batch processed",
		"new", result.New,
		"duplicates", result.Duplicates,
		"errors", result.Errors)

	return result, nil
}
