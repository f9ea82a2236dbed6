// Package dupindex maintains the rolling duplicate detection index.
package dupindex

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/johnchik/llm-expense-tracker/internal/model"
	"github.com/johnchik/llm-expense-tracker/internal/service"
)

// Defaults for the index window and retention cap.
const (
	DefaultCheckLimit = 1000
	DefaultMaxEntries = 1000
)

// Options tunes the index.
type Options struct {
	// CheckLimit is how many recent entries Exists scans. Entries older than
	// the window are invisible to dedup, which trades perfect suppression
	// for a bounded lookup.
	CheckLimit int
	// MaxEntries is the retention cap enforced by Trim.
	MaxEntries int
}

// Entry is one recorded fingerprint.
type Entry struct {
	Key            string
	NotificationID string
	SourceApp      string
	ProcessedAt    time.Time
}

// Index wraps the duplicate index table.
type Index struct {
	table      service.Table
	checkLimit int
	maxEntries int
}

// New creates an index over the given table.
func New(table service.Table, opts Options) *Index {
	checkLimit := opts.CheckLimit
	if checkLimit <= 0 {
		checkLimit = DefaultCheckLimit
	}
	maxEntries := opts.MaxEntries
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Index{
		table:      table,
		checkLimit: checkLimit,
		maxEntries: maxEntries,
	}
}

// Exists reports whether the fingerprint appears in the recent window of the
// index.
func (i *Index) Exists(ctx context.Context, key string) (bool, error) {
	rows, err := i.table.ReadTail(ctx, i.checkLimit)
	if err != nil {
		return false, fmt.Errorf("failed to read duplicate index: %w", err)
	}
	for _, row := range rows {
		if len(row.Cells) > 0 && row.Cells[0] == key {
			return true, nil
		}
	}
	return false, nil
}

// AppendBatch records the given fingerprints in one write.
func (i *Index) AppendBatch(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.Key,
			e.NotificationID,
			e.SourceApp,
			e.ProcessedAt.Format(model.DatetimeLayout),
		})
	}

	if err := i.table.AppendRows(ctx, rows); err != nil {
		return fmt.Errorf("failed to append duplicate index entries: %w", err)
	}
	return nil
}

// Trim enforces the retention cap, deleting the oldest entries beyond it.
// It returns how many entries were removed.
func (i *Index) Trim(ctx context.Context) (int, error) {
	count, err := i.table.RowCount(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count duplicate index entries: %w", err)
	}
	if count <= i.maxEntries {
		return 0, nil
	}

	removed, err := i.table.DeleteOldest(ctx, count-i.maxEntries)
	if err != nil {
		return 0, fmt.Errorf("failed to trim duplicate index: %w", err)
	}

	slog.Info("Trimmed duplicate index",
		"removed", removed,
		"retained", i.maxEntries)
	return removed, nil
}
