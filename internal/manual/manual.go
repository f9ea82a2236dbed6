// Package manual handles transaction entries typed in by hand. They bypass
// classification and dedup entirely.
package manual

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/johnchik/llm-expense-tracker/internal/model"
	"github.com/johnchik/llm-expense-tracker/internal/normalize"
	"github.com/johnchik/llm-expense-tracker/internal/service"
)

// rawTextMarker fills the Raw Text column of rows that came from manual
// entry instead of a notification.
const rawTextMarker = "Manual Record"

// Entry is one manual transaction.
type Entry struct {
	Timestamp     time.Time
	Category      string
	Description   string
	Currency      string
	PaymentMethod string
	Amount        decimal.Decimal
}

// Adapter stages manual entries and routes them into monthly partitions.
type Adapter struct {
	store  service.TableStore
	manual service.Table
}

// New creates an adapter over the manual staging table.
func New(store service.TableStore, manualTable service.Table) *Adapter {
	return &Adapter{
		store:  store,
		manual: manualTable,
	}
}

// Record stages one entry, routes it to its monthly partition, then marks
// the staged row synced. A failed route leaves the row unsynced so SyncAll
// picks it up on a later run.
func (a *Adapter) Record(ctx context.Context, e Entry) error {
	if e.Timestamp.IsZero() {
		return fmt.Errorf("manual entry requires a timestamp")
	}
	if e.Currency == "" {
		e.Currency = "HKD"
	}

	cells := []string{
		e.Timestamp.Format(model.DatetimeLayout),
		e.Category,
		e.Description,
		e.Currency,
		e.Amount.StringFixed(2),
		e.PaymentMethod,
		model.SyncedNo,
	}
	if err := a.manual.AppendRows(ctx, [][]string{cells}); err != nil {
		return fmt.Errorf("failed to stage manual entry: %w", err)
	}

	if err := a.route(ctx, e); err != nil {
		return err
	}

	tail, err := a.manual.ReadTail(ctx, 1)
	if err != nil {
		return fmt.Errorf("failed to read staged entry back: %w", err)
	}
	if len(tail) == 1 {
		if err := a.manual.SetColumn(ctx, []int64{tail[0].ID}, model.ManualColSynced, model.SyncedYes); err != nil {
			return fmt.Errorf("failed to mark manual entry synced: %w", err)
		}
	}

	slog.Info("Recorded manual entry",
		"category", e.Category,
		"amount", e.Amount.StringFixed(2),
		"partition", model.MonthlyTableName(e.Timestamp))
	return nil
}

// SyncAll routes every staged entry not yet marked synced. Rows fail
// individually and stay unsynced for the next run.
func (a *Adapter) SyncAll(ctx context.Context) (int, error) {
	rows, err := a.manual.ReadAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read manual entries: %w", err)
	}

	var syncedIDs []int64
	for _, row := range rows {
		if len(row.Cells) < len(model.ManualHeaders) {
			continue
		}
		if row.Cells[model.ManualColSynced] == model.SyncedYes {
			continue
		}
		if row.Cells[model.ManualColTimestamp] == "" {
			continue
		}

		e, err := entryFromCells(row.Cells)
		if err != nil {
			slog.Error("Skipping malformed manual entry", "row_id", row.ID, "error", err)
			continue
		}
		if err := a.route(ctx, e); err != nil {
			slog.Error("Failed to route manual entry", "row_id", row.ID, "error", err)
			continue
		}
		syncedIDs = append(syncedIDs, row.ID)
	}

	if len(syncedIDs) > 0 {
		if err := a.manual.SetColumn(ctx, syncedIDs, model.ManualColSynced, model.SyncedYes); err != nil {
			return 0, fmt.Errorf("failed to mark manual entries synced: %w", err)
		}
	}

	slog.Info("Manual sync completed", "synced", len(syncedIDs))
	return len(syncedIDs), nil
}

// route appends the entry to its monthly partition and keeps the partition
// sorted.
func (a *Adapter) route(ctx context.Context, e Entry) error {
	t := model.Transaction{
		Datetime:      e.Timestamp,
		Category:      model.Category(e.Category),
		Description:   e.Description,
		Currency:      e.Currency,
		Amount:        e.Amount,
		PaymentMethod: e.PaymentMethod,
		RawText:       rawTextMarker,
	}

	name := model.MonthlyTableName(e.Timestamp)
	table, err := a.store.GetOrCreate(ctx, name, model.MonthlyHeaders)
	if err != nil {
		return fmt.Errorf("failed to open partition %q: %w", name, err)
	}
	if err := table.AppendRows(ctx, [][]string{t.MonthlyCells()}); err != nil {
		return fmt.Errorf("failed to append to partition %q: %w", name, err)
	}
	if err := table.SortByColumn(ctx, model.MonthlyColDatetime, true); err != nil {
		return fmt.Errorf("failed to sort partition %q: %w", name, err)
	}
	return nil
}

func entryFromCells(cells []string) (Entry, error) {
	ts, err := time.ParseInLocation(model.DatetimeLayout, cells[model.ManualColTimestamp], time.Local)
	if err != nil {
		return Entry{}, fmt.Errorf("bad timestamp %q: %w", cells[model.ManualColTimestamp], err)
	}

	amount := decimal.Zero
	if raw := normalize.Amount(cells[model.ManualColAmount]); raw != "" {
		amount, err = decimal.NewFromString(raw)
		if err != nil {
			return Entry{}, fmt.Errorf("bad amount %q: %w", cells[model.ManualColAmount], err)
		}
	}

	currency := cells[model.ManualColCurrency]
	if currency == "" {
		currency = "HKD"
	}

	return Entry{
		Timestamp:     ts,
		Category:      cells[model.ManualColCategory],
		Description:   cells[model.ManualColDescription],
		Currency:      currency,
		Amount:        amount,
		PaymentMethod: cells[model.ManualColPaymentMethod],
	}, nil
}
