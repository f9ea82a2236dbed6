package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Well-known table names.
const (
	LogTableName            = "Logs"
	DuplicateIndexTableName = "DuplicateIndex"
	StockTableName          = "StockHolding"
	ManualTableName         = "Manual Record"
	SummaryTableName        = "Holdings Summary"
)

// MonthlyTableName returns the partition name for a transaction's effective
// datetime. Partition identity follows the transaction's own month, not the
// month it was ingested.
func MonthlyTableName(t time.Time) string {
	return t.Format("200601")
}

// MonthlyHeaders is the column schema of a monthly transaction partition.
var MonthlyHeaders = []string{
	"Datetime", "Category", "Description", "Currency", "Amount", "Payment Method", "Raw Text",
}

// Monthly partition column indexes.
const (
	MonthlyColDatetime = iota
	MonthlyColCategory
	MonthlyColDescription
	MonthlyColCurrency
	MonthlyColAmount
	MonthlyColPaymentMethod
	MonthlyColRawText
)

// StockHeaders is the column schema of the stock holding table. Current
// Price and Current Value stay blank until the price enrichment pass fills
// them.
var StockHeaders = []string{
	"Date", "Action", "Ticker", "Shares", "Price", "Total Value", "Current Price", "Current Value", "Raw Text",
}

// Stock holding column indexes.
const (
	StockColDate = iota
	StockColAction
	StockColTicker
	StockColShares
	StockColPrice
	StockColTotalValue
	StockColCurrentPrice
	StockColCurrentValue
	StockColRawText
)

// DuplicateIndexHeaders is the column schema of the duplicate index.
var DuplicateIndexHeaders = []string{
	"Duplicate Key", "Notification ID", "Source App", "Processed At",
}

// ManualHeaders is the column schema of the manual entry staging table.
var ManualHeaders = []string{
	"Timestamp", "Category", "Description", "Currency", "Amount", "Payment Method", "Synced",
}

// Manual entry column indexes.
const (
	ManualColTimestamp = iota
	ManualColCategory
	ManualColDescription
	ManualColCurrency
	ManualColAmount
	ManualColPaymentMethod
	ManualColSynced
)

// SummaryHeaders is the column schema of the holdings summary table.
var SummaryHeaders = []string{
	"Ticker", "Shares Held", "Avg. Buy Price", "Current Price", "P/L %",
}

// FormatSignedAmount renders an amount with an explicit sign for positive
// values, the display convention of the monthly partitions.
func FormatSignedAmount(d decimal.Decimal) string {
	s := d.StringFixed(2)
	if d.IsPositive() {
		return "+" + s
	}
	return s
}

// MonthlyCells renders the transaction as a monthly partition row.
func (t *Transaction) MonthlyCells() []string {
	return []string{
		t.Datetime.Format(DatetimeLayout),
		string(t.Category),
		t.Description,
		t.Currency,
		FormatSignedAmount(t.Amount),
		t.PaymentMethod,
		t.RawText,
	}
}

// HoldingCells renders the trade as a stock holding row. Total value is
// derived here; the current price columns are left for enrichment.
func (s *StockTrade) HoldingCells() []string {
	total := s.Shares.Mul(s.Price)
	return []string{
		s.Datetime.Format(DatetimeLayout),
		string(s.Action),
		s.Ticker,
		s.Shares.String(),
		s.Price.String(),
		total.String(),
		"", // Current Price
		"", // Current Value
		s.RawText,
	}
}
