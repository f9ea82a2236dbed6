package prices

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/johnchik/llm-expense-tracker/internal/model"
	"github.com/johnchik/llm-expense-tracker/internal/service"
)

// Quoter fetches current prices for a set of tickers.
type Quoter interface {
	FetchQuotes(ctx context.Context, tickers []string) (map[string]decimal.Decimal, error)
}

// Enricher fills the current price columns of the stock holding table and
// rebuilds the holdings summary.
type Enricher struct {
	store  service.TableStore
	quoter Quoter
}

// NewEnricher creates an enricher.
func NewEnricher(store service.TableStore, quoter Quoter) *Enricher {
	return &Enricher{
		store:  store,
		quoter: quoter,
	}
}

// RefreshAll refreshes holding prices, then rebuilds the summary from the
// refreshed rows.
func (e *Enricher) RefreshAll(ctx context.Context) error {
	if _, err := e.RefreshHoldings(ctx); err != nil {
		return err
	}
	_, err := e.UpdateSummary(ctx)
	return err
}

// RefreshHoldings updates Current Price and Current Value on every holding
// row whose ticker has a quote. It returns how many rows were updated.
func (e *Enricher) RefreshHoldings(ctx context.Context) (int, error) {
	table, err := e.store.GetOrCreate(ctx, model.StockTableName, model.StockHeaders)
	if err != nil {
		return 0, fmt.Errorf("failed to open holding table: %w", err)
	}

	rows, err := table.ReadAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read holdings: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}

	var tickers []string
	seen := make(map[string]bool)
	for _, row := range rows {
		ticker := row.Cells[model.StockColTicker]
		if ticker != "" && !seen[ticker] {
			seen[ticker] = true
			tickers = append(tickers, ticker)
		}
	}
	if len(tickers) == 0 {
		return 0, nil
	}

	quotes, err := e.quoter.FetchQuotes(ctx, tickers)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch quotes: %w", err)
	}

	var updated []service.Row
	for _, row := range rows {
		price, ok := quotes[row.Cells[model.StockColTicker]]
		if !ok {
			continue
		}

		shares, err := decimal.NewFromString(row.Cells[model.StockColShares])
		if err != nil {
			slog.Warn("Holding row has unparseable shares",
				"row_id", row.ID,
				"shares", row.Cells[model.StockColShares])
			continue
		}

		row.Cells[model.StockColCurrentPrice] = price.String()
		row.Cells[model.StockColCurrentValue] = shares.Mul(price).String()
		updated = append(updated, row)
	}

	if len(updated) > 0 {
		if err := table.UpdateRows(ctx, updated); err != nil {
			return 0, fmt.Errorf("failed to update holding prices: %w", err)
		}
	}

	slog.Info("Refreshed holding prices", "rows", len(updated), "tickers", len(tickers))
	return len(updated), nil
}

// position accumulates one ticker's trades at average cost.
type position struct {
	shares       decimal.Decimal
	cost         decimal.Decimal
	currentPrice decimal.Decimal
}

// UpdateSummary rebuilds the holdings summary table from the holding rows.
// Positions are valued at average buy cost: a sell reduces cost at the
// average price of the shares held. Tickers with nothing left are omitted.
func (e *Enricher) UpdateSummary(ctx context.Context) (int, error) {
	holdings, err := e.store.GetOrCreate(ctx, model.StockTableName, model.StockHeaders)
	if err != nil {
		return 0, fmt.Errorf("failed to open holding table: %w", err)
	}

	rows, err := holdings.ReadAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read holdings: %w", err)
	}

	var order []string
	positions := make(map[string]*position)

	for _, row := range rows {
		ticker := row.Cells[model.StockColTicker]
		if ticker == "" {
			continue
		}

		p, ok := positions[ticker]
		if !ok {
			p = &position{}
			positions[ticker] = p
			order = append(order, ticker)
		}

		if cp := row.Cells[model.StockColCurrentPrice]; cp != "" {
			if price, err := decimal.NewFromString(cp); err == nil {
				p.currentPrice = price
			}
		}

		shares, err := decimal.NewFromString(row.Cells[model.StockColShares])
		if err != nil {
			continue
		}
		price, err := decimal.NewFromString(row.Cells[model.StockColPrice])
		if err != nil {
			price = decimal.Zero
		}

		switch model.TradeAction(row.Cells[model.StockColAction]) {
		case model.ActionPurchase:
			p.shares = p.shares.Add(shares)
			p.cost = p.cost.Add(shares.Mul(price))
		case model.ActionSell:
			if p.shares.IsPositive() {
				avg := p.cost.Div(p.shares)
				p.cost = p.cost.Sub(shares.Mul(avg))
			}
			p.shares = p.shares.Sub(shares)
		}
	}

	var summary [][]string
	for _, ticker := range order {
		p := positions[ticker]
		if !p.shares.IsPositive() {
			continue
		}

		avg := p.cost.Div(p.shares)

		plPercent := decimal.Zero
		if !p.currentPrice.IsZero() && !avg.IsZero() {
			plPercent = p.currentPrice.Sub(avg).Div(avg).Mul(decimal.NewFromInt(100))
		}

		summary = append(summary, []string{
			ticker,
			p.shares.String(),
			avg.StringFixed(2),
			p.currentPrice.String(),
			plPercent.StringFixed(2) + "%",
		})
	}

	table, err := e.store.GetOrCreate(ctx, model.SummaryTableName, model.SummaryHeaders)
	if err != nil {
		return 0, fmt.Errorf("failed to open summary table: %w", err)
	}

	// Full rebuild: drop everything, then write the fresh snapshot.
	count, err := table.RowCount(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count summary rows: %w", err)
	}
	if count > 0 {
		if _, err := table.DeleteOldest(ctx, count); err != nil {
			return 0, fmt.Errorf("failed to clear summary table: %w", err)
		}
	}
	if len(summary) > 0 {
		if err := table.AppendRows(ctx, summary); err != nil {
			return 0, fmt.Errorf("failed to write summary rows: %w", err)
		}
	}

	slog.Info("Rebuilt holdings summary", "positions", len(summary))
	return len(summary), nil
}
