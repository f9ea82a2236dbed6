package storage

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnchik/llm-expense-tracker/internal/service"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background()))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestGetOrCreate(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	table, err := store.GetOrCreate(ctx, "202601", []string{"Datetime", "Amount"})
	require.NoError(t, err)
	assert.Equal(t, "202601", table.Name())
	assert.Equal(t, []string{"Datetime", "Amount"}, table.Headers())

	// Reopening returns the stored schema.
	again, err := store.GetOrCreate(ctx, "202601", []string{"Datetime", "Amount"})
	require.NoError(t, err)
	assert.Equal(t, table.Headers(), again.Headers())
}

func TestGetOrCreateWidensSchema(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	narrow, err := store.GetOrCreate(ctx, "holdings", []string{"Ticker", "Shares"})
	require.NoError(t, err)
	require.NoError(t, narrow.AppendRows(ctx, [][]string{{"AAPL", "10"}}))

	wide, err := store.GetOrCreate(ctx, "holdings", []string{"Ticker", "Shares", "Current Price"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Ticker", "Shares", "Current Price"}, wide.Headers())

	rows, err := wide.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"AAPL", "10", ""}, rows[0].Cells)
}

func TestGetOrCreateValidation(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	tests := []struct {
		name    string
		table   string
		headers []string
	}{
		{name: "empty name", table: "", headers: []string{"A"}},
		{name: "no headers", table: "t", headers: nil},
		{name: "blank header", table: "t", headers: []string{"A", ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.GetOrCreate(ctx, tt.table, tt.headers)
			assert.Error(t, err)
		})
	}
}

func TestAppendAndReadAll(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	table, err := store.GetOrCreate(ctx, "log", []string{"Datetime", "Text"})
	require.NoError(t, err)

	require.NoError(t, table.AppendRows(ctx, [][]string{
		{"2026-01-02 10:00", "first"},
		{"2026-01-02 11:00", "second"},
	}))
	require.NoError(t, table.AppendRows(ctx, [][]string{
		{"2026-01-02 12:00", "third"},
	}))

	rows, err := table.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "first", rows[0].Cells[1])
	assert.Equal(t, "second", rows[1].Cells[1])
	assert.Equal(t, "third", rows[2].Cells[1])

	// Row IDs are stable and distinct.
	assert.NotEqual(t, rows[0].ID, rows[1].ID)
	assert.NotEqual(t, rows[1].ID, rows[2].ID)
}

func TestReadTail(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	table, err := store.GetOrCreate(ctx, "index", []string{"Key"})
	require.NoError(t, err)

	var batch [][]string
	for i := 0; i < 10; i++ {
		batch = append(batch, []string{fmt.Sprintf("key-%d", i)})
	}
	require.NoError(t, table.AppendRows(ctx, batch))

	tail, err := table.ReadTail(ctx, 3)
	require.NoError(t, err)
	require.Len(t, tail, 3)

	// Most recent three, oldest first.
	assert.Equal(t, "key-7", tail[0].Cells[0])
	assert.Equal(t, "key-8", tail[1].Cells[0])
	assert.Equal(t, "key-9", tail[2].Cells[0])

	// A window larger than the table returns everything.
	all, err := table.ReadTail(ctx, 100)
	require.NoError(t, err)
	assert.Len(t, all, 10)

	none, err := table.ReadTail(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestUpdateRows(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	table, err := store.GetOrCreate(ctx, "holdings", []string{"Ticker", "Price"})
	require.NoError(t, err)
	require.NoError(t, table.AppendRows(ctx, [][]string{
		{"AAPL", ""},
		{"MSFT", ""},
	}))

	rows, err := table.ReadAll(ctx)
	require.NoError(t, err)
	rows[0].Cells[1] = "190.55"
	rows[1].Cells[1] = "410.20"
	require.NoError(t, table.UpdateRows(ctx, rows))

	got, err := table.ReadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, "190.55", got[0].Cells[1])
	assert.Equal(t, "410.20", got[1].Cells[1])
}

func TestUpdateRowsUnknownID(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	table, err := store.GetOrCreate(ctx, "t", []string{"A"})
	require.NoError(t, err)

	err = table.UpdateRows(ctx, []service.Row{{ID: 999, Cells: []string{"x"}}})
	assert.Error(t, err)
}

func TestSetColumn(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	table, err := store.GetOrCreate(ctx, "log", []string{"Text", "Synced"})
	require.NoError(t, err)
	require.NoError(t, table.AppendRows(ctx, [][]string{
		{"a", "No"},
		{"b", "No"},
		{"c", "No"},
	}))

	rows, err := table.ReadAll(ctx)
	require.NoError(t, err)

	require.NoError(t, table.SetColumn(ctx, []int64{rows[0].ID, rows[2].ID}, 1, "Yes"))

	got, err := table.ReadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Yes", got[0].Cells[1])
	assert.Equal(t, "No", got[1].Cells[1])
	assert.Equal(t, "Yes", got[2].Cells[1])

	assert.Error(t, table.SetColumn(ctx, []int64{rows[0].ID}, 5, "Yes"))
}

func TestDeleteOldest(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	table, err := store.GetOrCreate(ctx, "index", []string{"Key"})
	require.NoError(t, err)

	var batch [][]string
	for i := 0; i < 5; i++ {
		batch = append(batch, []string{fmt.Sprintf("key-%d", i)})
	}
	require.NoError(t, table.AppendRows(ctx, batch))

	removed, err := table.DeleteOldest(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	rows, err := table.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "key-2", rows[0].Cells[0])

	// Deleting more than remain removes what is there.
	removed, err = table.DeleteOldest(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 3, removed)

	n, err := table.RowCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSortByColumn(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	table, err := store.GetOrCreate(ctx, "202601", []string{"Datetime", "Text"})
	require.NoError(t, err)
	require.NoError(t, table.AppendRows(ctx, [][]string{
		{"2026-01-15 09:30", "mid"},
		{"2026-01-02 10:00", "early"},
		{"2026-01-28 23:59", "late"},
	}))

	require.NoError(t, table.SortByColumn(ctx, 0, true))

	rows, err := table.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "early", rows[0].Cells[1])
	assert.Equal(t, "mid", rows[1].Cells[1])
	assert.Equal(t, "late", rows[2].Cells[1])
}

func TestSortByColumnNumeric(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	table, err := store.GetOrCreate(ctx, "amounts", []string{"Amount"})
	require.NoError(t, err)
	require.NoError(t, table.AppendRows(ctx, [][]string{
		{"+100.00"}, {"-45.50"}, {"+9.90"},
	}))

	require.NoError(t, table.SortByColumn(ctx, 0, true))

	rows, err := table.ReadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, "-45.50", rows[0].Cells[0])
	assert.Equal(t, "+9.90", rows[1].Cells[0])
	assert.Equal(t, "+100.00", rows[2].Cells[0])
}

func TestRowCount(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	table, err := store.GetOrCreate(ctx, "t", []string{"A"})
	require.NoError(t, err)

	n, err := table.RowCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, table.AppendRows(ctx, [][]string{{"1"}, {"2"}}))

	n, err = table.RowCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestTablesAreIsolated(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	a, err := store.GetOrCreate(ctx, "202601", []string{"Datetime"})
	require.NoError(t, err)
	b, err := store.GetOrCreate(ctx, "202602", []string{"Datetime"})
	require.NoError(t, err)

	require.NoError(t, a.AppendRows(ctx, [][]string{{"2026-01-01 00:00"}}))
	require.NoError(t, b.AppendRows(ctx, [][]string{{"2026-02-01 00:00"}, {"2026-02-02 00:00"}}))

	na, err := a.RowCount(ctx)
	require.NoError(t, err)
	nb, err := b.RowCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, na)
	assert.Equal(t, 2, nb)
}
