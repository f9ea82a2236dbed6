package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DatetimeLayout is the canonical display format for datetimes in every
// table.
const DatetimeLayout = "2006-01-02 15:04"

// ResultType tags the classification union.
type ResultType string

// Classification result types.
const (
	TypeTransaction ResultType = "transaction"
	TypeStockTrade  ResultType = "stock_trade"
	TypeOther       ResultType = "other"
)

// Category is a spending category for classified transactions.
type Category string

// Transaction categories.
const (
	CategoryFood          Category = "Food"
	CategoryShopping      Category = "Shopping"
	CategoryTransport     Category = "Transport"
	CategoryEntertainment Category = "Entertainment"
	CategoryBills         Category = "Bills"
	CategoryOther         Category = "Other"
	CategoryIncome        Category = "Income"
)

// KnownCategory reports whether c is one of the fixed taxonomy categories.
func KnownCategory(c Category) bool {
	switch c {
	case CategoryFood, CategoryShopping, CategoryTransport,
		CategoryEntertainment, CategoryBills, CategoryOther, CategoryIncome:
		return true
	}
	return false
}

// TradeAction describes what happened to a stock order.
type TradeAction string

// Stock trade actions. Only Purchase and Sell produce holding rows.
const (
	ActionPurchase   TradeAction = "Purchase"
	ActionSell       TradeAction = "Sell"
	ActionCancel     TradeAction = "Cancel"
	ActionUnexecuted TradeAction = "Unexecuted"
)

// Executed reports whether the action results in a holding change.
func (a TradeAction) Executed() bool {
	return a == ActionPurchase || a == ActionSell
}

// Transaction is a classified money movement. Amount is signed: positive for
// income, negative for expenses.
type Transaction struct {
	Datetime      time.Time
	Category      Category
	Description   string
	Currency      string
	PaymentMethod string
	RawText       string
	Amount        decimal.Decimal
}

// StockTrade is a classified brokerage notification.
type StockTrade struct {
	Datetime time.Time
	Action   TradeAction
	Ticker   string
	RawText  string
	Shares   decimal.Decimal
	Price    decimal.Decimal
}

// NonFinancial is everything that is neither a transaction nor a trade:
// promotions, security alerts, balance inquiries.
type NonFinancial struct {
	Subtype string
	Message string
}

// Classification is the normalized result of classifying one notification.
// Exactly one of Transaction, StockTrade, Other is set, matching Type.
// Failed marks the fail-open synthetic transaction produced when the model
// call failed; it distinguishes "model failed" from "model said zero".
type Classification struct {
	Transaction *Transaction
	StockTrade  *StockTrade
	Other       *NonFinancial
	Type        ResultType
	Failed      bool
}

// LogType returns the value stored in the log's Type column. Non-financial
// results record their subtype, so the log stays informative without a
// downstream destination.
func (c Classification) LogType() string {
	if c.Type == TypeOther && c.Other != nil && c.Other.Subtype != "" {
		return c.Other.Subtype
	}
	return string(c.Type)
}

// payloadEnvelope is the serialized form of a Classification, stored in the
// log and parsed back during sync. It is also the shape the language model
// is asked to produce, so decoding is deliberately lenient.
type payloadEnvelope struct {
	Type                 string      `json:"type"`
	Datetime             string      `json:"datetime,omitempty"`
	Category             string      `json:"category,omitempty"`
	Description          string      `json:"description,omitempty"`
	Currency             string      `json:"currency,omitempty"`
	Amount               *flexNumber `json:"amount,omitempty"`
	PaymentMethod        string      `json:"paymentMethod,omitempty"`
	Action               string      `json:"action,omitempty"`
	Ticker               string      `json:"ticker,omitempty"`
	Shares               *flexNumber `json:"shares,omitempty"`
	Price                *flexNumber `json:"price,omitempty"`
	Message              string      `json:"message,omitempty"`
	RawText              string      `json:"rawText,omitempty"`
	ClassificationFailed bool        `json:"classificationFailed,omitempty"`
}

// flexNumber decodes a decimal that the model may emit as a JSON number, a
// quoted number, an empty string, or null.
type flexNumber struct {
	decimal.Decimal
}

func (f *flexNumber) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "" || s == "null" || s == `""` {
		f.Decimal = decimal.Zero
		return nil
	}
	return f.Decimal.UnmarshalJSON(data)
}

func flexOf(d decimal.Decimal) *flexNumber {
	return &flexNumber{d}
}

// EncodePayload serializes the classification for storage in the log.
func (c Classification) EncodePayload() (string, error) {
	env := payloadEnvelope{
		Type:                 string(c.Type),
		ClassificationFailed: c.Failed,
	}

	switch c.Type {
	case TypeTransaction:
		if c.Transaction == nil {
			return "", fmt.Errorf("transaction classification without details")
		}
		t := c.Transaction
		env.Datetime = t.Datetime.Format(DatetimeLayout)
		env.Category = string(t.Category)
		env.Description = t.Description
		env.Currency = t.Currency
		env.Amount = flexOf(t.Amount)
		env.PaymentMethod = t.PaymentMethod
		env.RawText = t.RawText
	case TypeStockTrade:
		if c.StockTrade == nil {
			return "", fmt.Errorf("stock trade classification without details")
		}
		s := c.StockTrade
		env.Datetime = s.Datetime.Format(DatetimeLayout)
		env.Action = string(s.Action)
		env.Ticker = s.Ticker
		env.Shares = flexOf(s.Shares)
		env.Price = flexOf(s.Price)
		env.RawText = s.RawText
	case TypeOther:
		if c.Other != nil {
			env.Type = c.LogType()
			env.Message = c.Other.Message
		}
	default:
		return "", fmt.Errorf("unknown classification type %q", c.Type)
	}

	data, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("failed to encode classification payload: %w", err)
	}
	return string(data), nil
}

// DecodePayload parses a serialized classification. Unknown type tags are
// treated as non-financial subtypes; the legacy "stock_trading" tag is
// accepted for old log rows.
func DecodePayload(payload string) (Classification, error) {
	var env payloadEnvelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		return Classification{}, fmt.Errorf("failed to decode classification payload: %w", err)
	}
	return classificationFromEnvelope(env)
}

func classificationFromEnvelope(env payloadEnvelope) (Classification, error) {
	c := Classification{Failed: env.ClassificationFailed}

	switch env.Type {
	case string(TypeTransaction):
		c.Type = TypeTransaction
		c.Transaction = &Transaction{
			Datetime:      parseDatetime(env.Datetime),
			Category:      Category(env.Category),
			Description:   env.Description,
			Currency:      env.Currency,
			PaymentMethod: env.PaymentMethod,
			RawText:       env.RawText,
		}
		if env.Amount != nil {
			c.Transaction.Amount = env.Amount.Decimal
		}
	case string(TypeStockTrade), "stock_trading":
		c.Type = TypeStockTrade
		c.StockTrade = &StockTrade{
			Datetime: parseDatetime(env.Datetime),
			Action:   TradeAction(env.Action),
			Ticker:   env.Ticker,
			RawText:  env.RawText,
		}
		if env.Shares != nil {
			c.StockTrade.Shares = env.Shares.Decimal
		}
		if env.Price != nil {
			c.StockTrade.Price = env.Price.Decimal
		}
	case "":
		return Classification{}, fmt.Errorf("classification payload missing type")
	default:
		c.Type = TypeOther
		c.Other = &NonFinancial{
			Subtype: env.Type,
			Message: env.Message,
		}
	}

	return c, nil
}

var datetimeLayouts = []string{
	DatetimeLayout,
	"2006-01-02 15:04:05",
	"2006/01/02 15:04",
	time.RFC3339,
	"2006-01-02",
}

// parseDatetime tries the formats the model has been observed to emit.
// A zero time means "unparseable"; callers substitute their own effective
// datetime.
func parseDatetime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range datetimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t
		}
	}
	return time.Time{}
}
