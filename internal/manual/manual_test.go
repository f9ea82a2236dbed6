package manual

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnchik/llm-expense-tracker/internal/model"
	"github.com/johnchik/llm-expense-tracker/internal/service"
	"github.com/johnchik/llm-expense-tracker/internal/testutil"
)

func setupAdapter(t *testing.T) (*Adapter, service.TableStore, service.Table) {
	t.Helper()

	store := testutil.SetupStore(t)
	manualTable, err := store.GetOrCreate(context.Background(), model.ManualTableName, model.ManualHeaders)
	require.NoError(t, err)
	return New(store, manualTable), store, manualTable
}

func TestRecord(t *testing.T) {
	ctx := context.Background()
	a, store, manualTable := setupAdapter(t)

	e := Entry{
		Timestamp:     time.Date(2026, 5, 20, 19, 0, 0, 0, time.Local),
		Category:      "Food",
		Description:   "dinner",
		Currency:      "HKD",
		Amount:        decimal.RequireFromString("-128.50"),
		PaymentMethod: "Octopus",
	}
	require.NoError(t, a.Record(ctx, e))

	// Staged row ends up marked synced.
	staged, err := manualTable.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, staged, 1)
	assert.Equal(t, model.SyncedYes, staged[0].Cells[model.ManualColSynced])

	// Partition row carries the manual marker instead of raw text.
	monthly, err := store.GetOrCreate(ctx, "202605", model.MonthlyHeaders)
	require.NoError(t, err)
	rows, err := monthly.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "2026-05-20 19:00", rows[0].Cells[model.MonthlyColDatetime])
	assert.Equal(t, "-128.50", rows[0].Cells[model.MonthlyColAmount])
	assert.Equal(t, "Manual Record", rows[0].Cells[model.MonthlyColRawText])
}

func TestRecordDefaultsCurrency(t *testing.T) {
	ctx := context.Background()
	a, store, _ := setupAdapter(t)

	e := Entry{
		Timestamp: time.Date(2026, 5, 20, 19, 0, 0, 0, time.Local),
		Category:  "Income",
		Amount:    decimal.RequireFromString("500"),
	}
	require.NoError(t, a.Record(ctx, e))

	monthly, err := store.GetOrCreate(ctx, "202605", model.MonthlyHeaders)
	require.NoError(t, err)
	rows, err := monthly.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "HKD", rows[0].Cells[model.MonthlyColCurrency])
	assert.Equal(t, "+500.00", rows[0].Cells[model.MonthlyColAmount])
}

func TestRecordRequiresTimestamp(t *testing.T) {
	a, _, _ := setupAdapter(t)
	assert.Error(t, a.Record(context.Background(), Entry{Category: "Food"}))
}

// partitionFailStore serves the manual staging table but fails to open any
// other table.
type partitionFailStore struct {
	service.TableStore
}

func (s partitionFailStore) GetOrCreate(ctx context.Context, name string, headers []string) (service.Table, error) {
	if name != model.ManualTableName {
		return nil, errors.New("store unavailable")
	}
	return s.TableStore.GetOrCreate(ctx, name, headers)
}

func TestRecordFailedRouteStaysUnsynced(t *testing.T) {
	ctx := context.Background()

	store := testutil.SetupStore(t)
	manualTable, err := store.GetOrCreate(ctx, model.ManualTableName, model.ManualHeaders)
	require.NoError(t, err)

	e := Entry{
		Timestamp: time.Date(2026, 5, 20, 19, 0, 0, 0, time.Local),
		Category:  "Food",
		Amount:    decimal.RequireFromString("-42.00"),
	}
	require.Error(t, New(partitionFailStore{store}, manualTable).Record(ctx, e))

	// The staged row survives unsynced instead of claiming a partition row
	// that was never written.
	staged, err := manualTable.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, staged, 1)
	assert.Equal(t, model.SyncedNo, staged[0].Cells[model.ManualColSynced])

	// The next SyncAll against a healthy store picks it up.
	synced, err := New(store, manualTable).SyncAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, synced)

	monthly, err := store.GetOrCreate(ctx, "202605", model.MonthlyHeaders)
	require.NoError(t, err)
	n, err := monthly.RowCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	staged, err = manualTable.ReadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.SyncedYes, staged[0].Cells[model.ManualColSynced])
}

func TestSyncAll(t *testing.T) {
	ctx := context.Background()
	a, store, manualTable := setupAdapter(t)

	require.NoError(t, manualTable.AppendRows(ctx, [][]string{
		{"2026-05-20 19:00", "Food", "dinner", "HKD", "-128.50", "Octopus", model.SyncedNo},
		{"2026-06-01 09:00", "Transport", "mtr", "", "-5.90", "Octopus", model.SyncedNo},
		{"2026-05-01 08:00", "Food", "already done", "HKD", "-10.00", "Octopus", model.SyncedYes},
		{"", "", "", "", "", "", model.SyncedNo},
	}))

	synced, err := a.SyncAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, synced)

	may, err := store.GetOrCreate(ctx, "202605", model.MonthlyHeaders)
	require.NoError(t, err)
	n, err := may.RowCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	june, err := store.GetOrCreate(ctx, "202606", model.MonthlyHeaders)
	require.NoError(t, err)
	rows, err := june.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "HKD", rows[0].Cells[model.MonthlyColCurrency])

	staged, err := manualTable.ReadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.SyncedYes, staged[0].Cells[model.ManualColSynced])
	assert.Equal(t, model.SyncedYes, staged[1].Cells[model.ManualColSynced])

	// Empty rows are left alone.
	assert.Equal(t, model.SyncedNo, staged[3].Cells[model.ManualColSynced])
}

func TestSyncAllIsIdempotent(t *testing.T) {
	ctx := context.Background()
	a, store, manualTable := setupAdapter(t)

	require.NoError(t, manualTable.AppendRows(ctx, [][]string{
		{"2026-05-20 19:00", "Food", "dinner", "HKD", "-128.50", "Octopus", model.SyncedNo},
	}))

	synced, err := a.SyncAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, synced)

	synced, err = a.SyncAll(ctx)
	require.NoError(t, err)
	assert.Zero(t, synced)

	may, err := store.GetOrCreate(ctx, "202605", model.MonthlyHeaders)
	require.NoError(t, err)
	n, err := may.RowCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSyncAllSkipsMalformedRows(t *testing.T) {
	ctx := context.Background()
	a, _, manualTable := setupAdapter(t)

	require.NoError(t, manualTable.AppendRows(ctx, [][]string{
		{"not a date", "Food", "x", "HKD", "-1.00", "Octopus", model.SyncedNo},
		{"2026-05-20 19:00", "Food", "ok", "HKD", "-2.00", "Octopus", model.SyncedNo},
	}))

	synced, err := a.SyncAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, synced)

	staged, err := manualTable.ReadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.SyncedNo, staged[0].Cells[model.ManualColSynced])
	assert.Equal(t, model.SyncedYes, staged[1].Cells[model.ManualColSynced])
}
