package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRoundCurrency(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"3.333", "3.33"},
		{"3.335", "3.34"}, // half-up
		{"3.334999", "3.33"},
		{"10", "10"},
		{"0.005", "0.01"},
	}
	for _, tt := range tests {
		d := decimal.RequireFromString(tt.in)
		assert.Equal(t, tt.want, RoundCurrency(d).String(), "round %s", tt.in)
	}
}

func TestMinorMajorRoundTrip(t *testing.T) {
	assert.Equal(t, int64(3598), ToMinorUnits(decimal.RequireFromString("35.98")))
	assert.Equal(t, int64(0), ToMinorUnits(decimal.Zero))
	assert.Equal(t, "35.98", ToMajorUnits(3598).StringFixed(2))
	assert.Equal(t, "0.05", ToMajorUnits(5).StringFixed(2))
}

func TestFormatMajor(t *testing.T) {
	assert.Equal(t, "12.34", FormatMajor(1234))
	assert.Equal(t, "0.00", FormatMajor(0))
	assert.Equal(t, "7.00", FormatMajor(700))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "€12.34", Format("EUR", 1234))
	assert.Equal(t, "$5.00", Format("USD", 500))
	assert.Equal(t, "9.99 SEK", Format("SEK", 999))
}
