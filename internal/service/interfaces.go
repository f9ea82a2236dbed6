// Package service defines the interfaces shared across application components.
package service

import (
	"context"
	"time"
)

// Row is a single stored row together with its stable identifier.
// IDs are assigned by the store on append and never reused; they are the
// only way components address existing rows (never by position).
type Row struct {
	Cells []string
	ID    int64
}

// Table is a handle to one named table in a TableStore.
type Table interface {
	// Name returns the table's name.
	Name() string
	// Headers returns the column headers the table was created with.
	Headers() []string
	// AppendRows appends rows at the end of the table in one write.
	AppendRows(ctx context.Context, rows [][]string) error
	// ReadAll returns every row in display order.
	ReadAll(ctx context.Context) ([]Row, error)
	// ReadTail returns up to n of the most recently inserted rows,
	// oldest first.
	ReadTail(ctx context.Context, n int) ([]Row, error)
	// UpdateRows overwrites the cells of existing rows, addressed by ID,
	// in one write.
	UpdateRows(ctx context.Context, rows []Row) error
	// SetColumn writes value into one column of each addressed row in a
	// single bulk update.
	SetColumn(ctx context.Context, rowIDs []int64, column int, value string) error
	// DeleteOldest removes the n oldest rows (by insertion order) as one
	// contiguous block and reports how many were removed.
	DeleteOldest(ctx context.Context, n int) (int, error)
	// SortByColumn re-orders the table by the given column.
	SortByColumn(ctx context.Context, column int, ascending bool) error
	// RowCount returns the number of data rows.
	RowCount(ctx context.Context) (int, error)
}

// TableStore is the generic tabular storage collaborator. Implementations
// exist for SQLite (default) and Google Sheets.
type TableStore interface {
	// GetOrCreate opens the named table, creating it with the given
	// headers when absent.
	GetOrCreate(ctx context.Context, name string, headers []string) (Table, error)
	Close() error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
