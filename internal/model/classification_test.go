package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayloadRoundTripTransaction(t *testing.T) {
	c := Classification{
		Type: TypeTransaction,
		Transaction: &Transaction{
			Datetime:      time.Date(2026, 7, 1, 6, 0, 0, 0, time.Local),
			Category:      CategoryTransport,
			Description:   "港鐵",
			Currency:      "HKD",
			Amount:        decimal.RequireFromString("-5.9"),
			PaymentMethod: "Octopus",
			RawText:       "八達通: 在 港鐵 支付HKD5.9",
		},
	}

	payload, err := c.EncodePayload()
	require.NoError(t, err)

	back, err := DecodePayload(payload)
	require.NoError(t, err)
	require.Equal(t, TypeTransaction, back.Type)
	require.NotNil(t, back.Transaction)
	assert.Equal(t, c.Transaction.Datetime, back.Transaction.Datetime)
	assert.Equal(t, CategoryTransport, back.Transaction.Category)
	assert.True(t, back.Transaction.Amount.Equal(c.Transaction.Amount))
	assert.Equal(t, "Octopus", back.Transaction.PaymentMethod)
	assert.False(t, back.Failed)
}

func TestPayloadRoundTripFailedMarker(t *testing.T) {
	c := Classification{
		Type:   TypeTransaction,
		Failed: true,
		Transaction: &Transaction{
			Datetime: time.Date(2026, 7, 1, 6, 0, 0, 0, time.Local),
			Category: CategoryOther,
			Currency: "HKD",
		},
	}

	payload, err := c.EncodePayload()
	require.NoError(t, err)
	assert.Contains(t, payload, "classificationFailed")

	back, err := DecodePayload(payload)
	require.NoError(t, err)
	assert.True(t, back.Failed)
	assert.True(t, back.Transaction.Amount.IsZero())
}

func TestPayloadRoundTripNonFinancial(t *testing.T) {
	c := Classification{
		Type:  TypeOther,
		Other: &NonFinancial{Subtype: "security_alert", Message: "verify your card"},
	}

	payload, err := c.EncodePayload()
	require.NoError(t, err)

	back, err := DecodePayload(payload)
	require.NoError(t, err)
	assert.Equal(t, TypeOther, back.Type)
	assert.Equal(t, "security_alert", back.Other.Subtype)
	assert.Equal(t, "security_alert", back.LogType())
}

func TestDecodePayloadLenient(t *testing.T) {
	// Quoted numbers, the legacy stock tag, and missing optionals all parse.
	payload := `{"type":"stock_trading","action":"Purchase","ticker":"TSM","shares":"4","price":229.60}`

	c, err := DecodePayload(payload)
	require.NoError(t, err)
	require.Equal(t, TypeStockTrade, c.Type)
	assert.True(t, c.StockTrade.Shares.Equal(decimal.NewFromInt(4)))
	assert.True(t, c.StockTrade.Price.Equal(decimal.RequireFromString("229.60")))
	assert.True(t, c.StockTrade.Datetime.IsZero())
}

func TestDecodePayloadEmptyNumbers(t *testing.T) {
	payload := `{"type":"stock_trade","action":"Cancel","ticker":"GOOGL","shares":"","price":null}`

	c, err := DecodePayload(payload)
	require.NoError(t, err)
	assert.True(t, c.StockTrade.Shares.IsZero())
	assert.True(t, c.StockTrade.Price.IsZero())
	assert.False(t, c.StockTrade.Action.Executed())
}

func TestDecodePayloadUnknownType(t *testing.T) {
	c, err := DecodePayload(`{"type":"promotion","message":"50% off"}`)
	require.NoError(t, err)
	assert.Equal(t, TypeOther, c.Type)
	assert.Equal(t, "promotion", c.Other.Subtype)
}

func TestDecodePayloadErrors(t *testing.T) {
	_, err := DecodePayload("{not json")
	assert.Error(t, err)

	_, err = DecodePayload(`{"message":"no type"}`)
	assert.Error(t, err)
}

func TestTradeActionExecuted(t *testing.T) {
	assert.True(t, ActionPurchase.Executed())
	assert.True(t, ActionSell.Executed())
	assert.False(t, ActionCancel.Executed())
	assert.False(t, ActionUnexecuted.Executed())
	assert.False(t, TradeAction("").Executed())
}

func TestKnownCategory(t *testing.T) {
	assert.True(t, KnownCategory(CategoryFood))
	assert.True(t, KnownCategory(CategoryIncome))
	assert.False(t, KnownCategory(Category("Groceries")))
	assert.False(t, KnownCategory(Category("")))
}
