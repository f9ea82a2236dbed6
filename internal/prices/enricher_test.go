package prices

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnchik/llm-expense-tracker/internal/model"
	"github.com/johnchik/llm-expense-tracker/internal/service"
	"github.com/johnchik/llm-expense-tracker/internal/testutil"
)

type stubQuoter struct {
	quotes  map[string]decimal.Decimal
	err     error
	tickers []string
}

func (s *stubQuoter) FetchQuotes(_ context.Context, tickers []string) (map[string]decimal.Decimal, error) {
	s.tickers = tickers
	if s.err != nil {
		return nil, s.err
	}
	return s.quotes, nil
}

func holdingRow(date, action, ticker, shares, price string) []string {
	return []string{date, action, ticker, shares, price, "", "", "", "raw"}
}

func setupHoldings(t *testing.T, rows [][]string) (service.TableStore, service.Table) {
	t.Helper()

	store := testutil.SetupStore(t)
	table, err := store.GetOrCreate(context.Background(), model.StockTableName, model.StockHeaders)
	require.NoError(t, err)
	if len(rows) > 0 {
		require.NoError(t, table.AppendRows(context.Background(), rows))
	}
	return store, table
}

func TestRefreshHoldings(t *testing.T) {
	ctx := context.Background()
	store, table := setupHoldings(t, [][]string{
		holdingRow("2026-07-11 02:00", "Purchase", "TSM", "4", "229.60"),
		holdingRow("2026-07-12 02:00", "Purchase", "NVDA", "2", "1200"),
		holdingRow("2026-07-13 02:00", "Sell", "TSM", "2", "240"),
	})

	quoter := &stubQuoter{quotes: map[string]decimal.Decimal{
		"TSM":  decimal.RequireFromString("250"),
		"NVDA": decimal.RequireFromString("1300"),
	}}
	e := NewEnricher(store, quoter)

	updated, err := e.RefreshHoldings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, updated)

	// Each ticker is requested once even with multiple rows.
	assert.ElementsMatch(t, []string{"TSM", "NVDA"}, quoter.tickers)

	rows, err := table.ReadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, "250", rows[0].Cells[model.StockColCurrentPrice])
	assert.Equal(t, "1000", rows[0].Cells[model.StockColCurrentValue])
	assert.Equal(t, "2600", rows[1].Cells[model.StockColCurrentValue])
}

func TestRefreshHoldingsPartialQuotes(t *testing.T) {
	ctx := context.Background()
	store, table := setupHoldings(t, [][]string{
		holdingRow("2026-07-11 02:00", "Purchase", "TSM", "4", "229.60"),
		holdingRow("2026-07-12 02:00", "Purchase", "DELISTED", "1", "10"),
	})

	quoter := &stubQuoter{quotes: map[string]decimal.Decimal{
		"TSM": decimal.RequireFromString("250"),
	}}
	e := NewEnricher(store, quoter)

	updated, err := e.RefreshHoldings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, updated)

	rows, err := table.ReadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows[1].Cells[model.StockColCurrentPrice])
}

func TestRefreshHoldingsEmptyTable(t *testing.T) {
	store, _ := setupHoldings(t, nil)
	quoter := &stubQuoter{}
	e := NewEnricher(store, quoter)

	updated, err := e.RefreshHoldings(context.Background())
	require.NoError(t, err)
	assert.Zero(t, updated)
	assert.Nil(t, quoter.tickers)
}

func TestRefreshHoldingsQuoteFailure(t *testing.T) {
	store, _ := setupHoldings(t, [][]string{
		holdingRow("2026-07-11 02:00", "Purchase", "TSM", "4", "229.60"),
	})
	e := NewEnricher(store, &stubQuoter{err: errors.New("api down")})

	_, err := e.RefreshHoldings(context.Background())
	assert.Error(t, err)
}

func TestUpdateSummaryAverageCost(t *testing.T) {
	ctx := context.Background()
	store, _ := setupHoldings(t, [][]string{
		holdingRow("2026-07-01 10:00", "Purchase", "TSM", "10", "100"),
		holdingRow("2026-07-02 10:00", "Purchase", "TSM", "10", "120"),
		holdingRow("2026-07-03 10:00", "Sell", "TSM", "5", "130"),
	})

	quoter := &stubQuoter{quotes: map[string]decimal.Decimal{
		"TSM": decimal.RequireFromString("121"),
	}}
	e := NewEnricher(store, quoter)
	require.NoError(t, e.RefreshAll(ctx))

	table, err := store.GetOrCreate(ctx, model.SummaryTableName, model.SummaryHeaders)
	require.NoError(t, err)
	rows, err := table.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	// 20 shares at avg 110; selling 5 at avg cost leaves 15 shares still at
	// avg 110.
	assert.Equal(t, "TSM", rows[0].Cells[0])
	assert.Equal(t, "15", rows[0].Cells[1])
	assert.Equal(t, "110.00", rows[0].Cells[2])
	assert.Equal(t, "121", rows[0].Cells[3])
	assert.Equal(t, "10.00%", rows[0].Cells[4])
}

func TestUpdateSummaryOmitsClosedPositions(t *testing.T) {
	ctx := context.Background()
	store, _ := setupHoldings(t, [][]string{
		holdingRow("2026-07-01 10:00", "Purchase", "TSM", "4", "100"),
		holdingRow("2026-07-02 10:00", "Sell", "TSM", "4", "110"),
		holdingRow("2026-07-03 10:00", "Purchase", "NVDA", "2", "1200"),
	})

	e := NewEnricher(store, &stubQuoter{quotes: map[string]decimal.Decimal{}})

	n, err := e.UpdateSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	table, err := store.GetOrCreate(ctx, model.SummaryTableName, model.SummaryHeaders)
	require.NoError(t, err)
	rows, err := table.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "NVDA", rows[0].Cells[0])
}

func TestUpdateSummaryRebuildReplacesOldRows(t *testing.T) {
	ctx := context.Background()
	store, holdings := setupHoldings(t, [][]string{
		holdingRow("2026-07-01 10:00", "Purchase", "TSM", "4", "100"),
	})

	e := NewEnricher(store, &stubQuoter{quotes: map[string]decimal.Decimal{}})

	_, err := e.UpdateSummary(ctx)
	require.NoError(t, err)

	// Close the position, rebuild, and the summary empties out.
	require.NoError(t, holdings.AppendRows(ctx, [][]string{
		holdingRow("2026-07-02 10:00", "Sell", "TSM", "4", "120"),
	}))
	n, err := e.UpdateSummary(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	table, err := store.GetOrCreate(ctx, model.SummaryTableName, model.SummaryHeaders)
	require.NoError(t, err)
	count, err := table.RowCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestUpdateSummaryNoCurrentPrice(t *testing.T) {
	ctx := context.Background()
	store, _ := setupHoldings(t, [][]string{
		holdingRow("2026-07-01 10:00", "Purchase", "TSM", "4", "100"),
	})

	e := NewEnricher(store, &stubQuoter{quotes: map[string]decimal.Decimal{}})

	_, err := e.UpdateSummary(ctx)
	require.NoError(t, err)

	table, err := store.GetOrCreate(ctx, model.SummaryTableName, model.SummaryHeaders)
	require.NoError(t, err)
	rows, err := table.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	// Without a quote the P/L collapses to zero rather than a bogus loss.
	assert.Equal(t, "0.00%", rows[0].Cells[4])
}
