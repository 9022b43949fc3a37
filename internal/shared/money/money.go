package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Para tutarları DB'de minor unit (cent) olarak saklanır; hesaplar
// fixed-point decimal ile yapılır. Stored total asla binary float'tan gelmez.

// RoundCurrency rounds to 2 fractional digits, half-up.
func RoundCurrency(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ToMinorUnits converts a major-unit amount to integer cents,
// rounding half-up on the 3rd decimal digit.
func ToMinorUnits(major decimal.Decimal) int64 {
	return major.Shift(2).Round(0).IntPart()
}

// ToMajorUnits converts integer cents back to a 2-digit decimal.
func ToMajorUnits(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}

// FormatMajor renders cents as a plain "12.34" string (wallet-style
// providers want major units with exactly two places).
func FormatMajor(minor int64) string {
	return ToMajorUnits(minor).StringFixed(2)
}

// Format para miktarını biçimlendirir; cents alır, para birimi sembolü ekler.
func Format(currency string, minor int64) string {
	major := ToMajorUnits(minor).StringFixed(2)
	switch currency {
	case "EUR":
		return "€" + major
	case "USD":
		return "$" + major
	case "GBP":
		return "£" + major
	default:
		return fmt.Sprintf("%s %s", major, currency)
	}
}
