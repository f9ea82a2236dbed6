// Package reconcile routes staged log records into their destination tables.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/johnchik/llm-expense-tracker/internal/model"
	"github.com/johnchik/llm-expense-tracker/internal/service"
)

// Reconciler moves unsynced financial log records into monthly transaction
// partitions and the stock holding table. Sync is idempotent: a record is
// routed at most once, and rows that fail stay unsynced for the next run.
type Reconciler struct {
	store service.TableStore
	log   service.Table
}

// New creates a reconciler over the given store and staging log.
func New(store service.TableStore, logTable service.Table) *Reconciler {
	return &Reconciler{
		store: store,
		log:   logTable,
	}
}

// pending is one routed record waiting for its destination append.
type pending struct {
	cells []string
	rowID int64
}

// Sync routes every unsynced financial record and returns how many were
// synced.
func (r *Reconciler) Sync(ctx context.Context) (int, error) {
	rows, err := r.log.ReadAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read log: %w", err)
	}

	// Buffer destination rows per table so each target gets one append.
	buffers := make(map[string][]pending)
	monthly := make(map[string]bool)

	for _, row := range rows {
		rec, err := model.LogRecordFromCells(row.ID, row.Cells)
		if err != nil {
			slog.Error("Skipping malformed log row", "row_id", row.ID, "error", err)
			continue
		}
		if rec.Synced {
			continue
		}
		if !financialType(rec.Type) {
			continue
		}

		c, err := model.DecodePayload(rec.Payload)
		if err != nil {
			// Left unsynced so a fixed payload is picked up later.
			slog.Error("Skipping log row with undecodable payload", "row_id", row.ID, "error", err)
			continue
		}

		switch c.Type {
		case model.TypeTransaction:
			t := c.Transaction
			t.Datetime = effectiveTime(t.Datetime, rec.Datetime)
			name := model.MonthlyTableName(t.Datetime)
			buffers[name] = append(buffers[name], pending{rowID: row.ID, cells: t.MonthlyCells()})
			monthly[name] = true
		case model.TypeStockTrade:
			s := c.StockTrade
			s.Datetime = effectiveTime(s.Datetime, rec.Datetime)
			if s.Action.Executed() {
				buffers[model.StockTableName] = append(buffers[model.StockTableName],
					pending{rowID: row.ID, cells: s.HoldingCells()})
			} else {
				// Cancelled and unexecuted orders change nothing but are
				// still consumed.
				buffers[model.StockTableName] = append(buffers[model.StockTableName],
					pending{rowID: row.ID})
			}
		default:
			continue
		}
	}

	var syncedIDs []int64
	var sortTargets []string

	// Deterministic table order keeps runs reproducible.
	names := make([]string, 0, len(buffers))
	for name := range buffers {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		batch := buffers[name]

		headers := model.MonthlyHeaders
		if name == model.StockTableName {
			headers = model.StockHeaders
		}

		table, err := r.store.GetOrCreate(ctx, name, headers)
		if err != nil {
			slog.Error("Failed to open destination table", "table", name, "error", err)
			continue
		}

		var cells [][]string
		for _, p := range batch {
			if p.cells != nil {
				cells = append(cells, p.cells)
			}
		}
		if len(cells) > 0 {
			if err := table.AppendRows(ctx, cells); err != nil {
				slog.Error("Failed to append destination rows", "table", name, "error", err)
				continue
			}
			if monthly[name] {
				sortTargets = append(sortTargets, name)
			}
		}

		for _, p := range batch {
			syncedIDs = append(syncedIDs, p.rowID)
		}
	}

	if len(syncedIDs) > 0 {
		if err := r.log.SetColumn(ctx, syncedIDs, model.LogColSynced, model.SyncedYes); err != nil {
			return 0, fmt.Errorf("failed to mark log rows synced: %w", err)
		}
	}

	for _, name := range sortTargets {
		table, err := r.store.GetOrCreate(ctx, name, model.MonthlyHeaders)
		if err != nil {
			slog.Error("Failed to reopen table for sort", "table", name, "error", err)
			continue
		}
		if err := table.SortByColumn(ctx, model.MonthlyColDatetime, true); err != nil {
			slog.Error("Failed to sort monthly table", "table", name, "error", err)
		}
	}

	if len(syncedIDs) > 0 {
		slog.Info("Sync completed", "synced", len(syncedIDs))
	}
	return len(syncedIDs), nil
}

// financialType reports whether a log type column value routes to a
// destination table. The legacy stock tag is accepted for old rows.
func financialType(t string) bool {
	switch t {
	case string(model.TypeTransaction), string(model.TypeStockTrade), "stock_trading":
		return true
	}
	return false
}

// effectiveTime returns t when set, falling back to the record time, then to
// now.
func effectiveTime(t, rec time.Time) time.Time {
	if !t.IsZero() {
		return t
	}
	if !rec.IsZero() {
		return rec
	}
	return time.Now()
}
