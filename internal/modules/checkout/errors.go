package checkout

import (
	"errors"
	"fmt"
)

var (
	ErrCheckoutNotFound = errors.New("checkout not found")
	ErrEmptyCart        = errors.New("checkout requires at least one item")
	ErrInvalidQuantity  = errors.New("item quantity must be positive")
	ErrExpired          = errors.New("checkout has expired")
	ErrCompleted        = errors.New("checkout already completed")

	ErrEmailRequired          = errors.New("customer email is required")
	ErrAddressRequired        = errors.New("shipping address is required")
	ErrShippingMethodRequired = errors.New("shipping method is required")
	ErrPaymentNotInitiated    = errors.New("payment has not been initiated")
)

// MissingFieldError: adres doğrulamasında ilk eksik alan. Field JSON
// alan adıdır, handler bunu doğrudan kullanıcıya gösterir.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field: %s", e.Field)
}
