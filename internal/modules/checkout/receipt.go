package checkout

import (
	"fmt"
	"strings"

	"veloria.shop/app/internal/mailer"
	"veloria.shop/app/internal/modules/orders"
	"veloria.shop/app/internal/shared/money"
)

// receiptEmail: sipariş makbuzu. Satırlar checkout snapshot'ından gelir,
// katalogdan değil.
func (s *Service) receiptEmail(c Checkout, o orders.Order) mailer.Email {
	var b strings.Builder
	fmt.Fprintf(&b, "Thank you for your order!\n\n")
	fmt.Fprintf(&b, "Order #%d\n\n", o.OrderNumber)
	for _, it := range c.Items {
		fmt.Fprintf(&b, "%d x %s (%s): %s\n",
			it.Quantity, it.ProductName, it.SKU, money.Format(it.Currency, it.LineTotalCents))
	}
	fmt.Fprintf(&b, "\nSubtotal: %s\n", money.Format(o.Currency, o.SubtotalCents))
	fmt.Fprintf(&b, "Shipping: %s\n", money.Format(o.Currency, o.ShippingCents))
	fmt.Fprintf(&b, "Tax:      %s\n", money.Format(o.Currency, o.TaxCents))
	fmt.Fprintf(&b, "Total:    %s\n", money.Format(o.Currency, o.TotalCents))

	return mailer.Email{
		FromName: s.mailFromName,
		From:     s.mailFrom,
		To:       []string{o.Email},
		Subject:  fmt.Sprintf("Your order #%d is confirmed", o.OrderNumber),
		TextBody: b.String(),
	}
}
