package orders

import "errors"

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrAlreadyCancelled   = errors.New("order already cancelled")
	ErrInvalidStatusField = errors.New("invalid status field")
	ErrInvalidStatusValue = errors.New("invalid status value")
	ErrNoStatusChange     = errors.New("status unchanged")

	// ErrManualPaymentReasonRequired: payment reference olmadan paid'e
	// geçiş manual confirmation sayılır; reason zorunludur. Caller bunu
	// confirmation-required sinyali olarak sunmalıdır.
	ErrManualPaymentReasonRequired = errors.New("manual payment confirmation requires a reason")
)
