package pricing

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"veloria.shop/app/internal/shared/money"
)

var ErrInvalidShippingRate = errors.New("invalid shipping rate")

type ShippingRate struct {
	ID         string
	Name       string
	ETA        string
	PriceCents int64
}

// Sabit kargo kataloğu. Fiyatlar minor unit.
var shippingRates = []ShippingRate{
	{ID: "standard", Name: "Standard", ETA: "2-4 business days", PriceCents: 599},
	{ID: "express", Name: "Express", ETA: "1-2 business days", PriceCents: 1499},
}

type LineItem struct {
	UnitPriceCents int64
	Quantity       int
}

type Engine struct {
	freeShippingCents int64
	taxRate           decimal.Decimal
}

// NewEngine: taxRate "0.08" veya "8" notasyonunu kabul eder;
// parse edilemeyen değer sıfıra düşer.
func NewEngine(freeShippingCents int64, taxRate string) *Engine {
	return &Engine{
		freeShippingCents: freeShippingCents,
		taxRate:           ParseTaxRate(taxRate),
	}
}

func ParseTaxRate(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	// whole-percentage notation: "8" => 0.08
	if d.GreaterThan(decimal.NewFromInt(1)) {
		return d.Div(decimal.NewFromInt(100))
	}
	return d
}

func (e *Engine) TaxRate() decimal.Decimal { return e.taxRate }

func ShippingRates() []ShippingRate {
	out := make([]ShippingRate, len(shippingRates))
	copy(out, shippingRates)
	return out
}

func FindShippingRate(rateID string) (ShippingRate, bool) {
	for _, r := range shippingRates {
		if r.ID == rateID {
			return r, true
		}
	}
	return ShippingRate{}, false
}

func (e *Engine) ComputeSubtotal(items []LineItem) int64 {
	var sum int64
	for _, it := range items {
		sum += it.UnitPriceCents * int64(it.Quantity)
	}
	return sum
}

// ComputeShipping: standard + subtotal >= threshold => free (inclusive).
func (e *Engine) ComputeShipping(subtotalCents int64, rateID string) (int64, error) {
	rate, ok := FindShippingRate(rateID)
	if !ok {
		return 0, ErrInvalidShippingRate
	}
	if rate.ID == "standard" && subtotalCents >= e.freeShippingCents {
		return 0, nil
	}
	return rate.PriceCents, nil
}

// ComputeTax: round(taxable * rate, 2), tek sefer yuvarlanır, compound edilmez.
func (e *Engine) ComputeTax(taxableCents int64) int64 {
	tax := money.ToMajorUnits(taxableCents).Mul(e.taxRate)
	return money.ToMinorUnits(money.RoundCurrency(tax))
}

func (e *Engine) ComputeTotal(subtotalCents, shippingCents, taxCents int64) int64 {
	return subtotalCents + shippingCents + taxCents
}
