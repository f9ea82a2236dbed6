package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAmount(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  string
	}{
		{name: "currency prefix", input: "HKD 5.90", want: "5.90"},
		{name: "explicit sign", input: "+1,234.50", want: "+1234.50"},
		{name: "negative", input: "-5.9", want: "-5.9"},
		{name: "embedded spaces", input: " 5.9 0 ", want: "5.90"},
		{name: "number input", input: 42, want: "42"},
		{name: "empty", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Amount(tt.input))
		})
	}
}

func TestPaymentMethod(t *testing.T) {
	assert.Equal(t, "octopus", PaymentMethod(" Octopus "))
	assert.Equal(t, "za bank", PaymentMethod("ZA Bank"))
	assert.Equal(t, "", PaymentMethod(""))
}

func TestText(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  string
	}{
		{name: "lowercases", input: "Paid HKD 5.9", want: "paid hkd 5.9"},
		{name: "collapses whitespace", input: "paid \t hkd\n5.9", want: "paid hkd 5.9"},
		{name: "trims", input: "  paid  ", want: "paid"},
		{name: "unicode preserved", input: "在 港鐵 支付HKD5.9", want: "在 港鐵 支付hkd5.9"},
		{name: "empty", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Text(tt.input))
		})
	}
}
