package orders

const (
	FieldStatus            = "status"
	FieldPaymentStatus     = "payment_status"
	FieldFulfillmentStatus = "fulfillment_status"
)

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusShipped    = "shipped"
	StatusDelivered  = "delivered"
	StatusCancelled  = "cancelled"
)

const (
	PaymentPending  = "pending"
	PaymentPaid     = "paid"
	PaymentFailed   = "failed"
	PaymentRefunded = "refunded"
)

const (
	FulfillmentUnfulfilled = "unfulfilled"
	FulfillmentPartial     = "partial"
	FulfillmentFulfilled   = "fulfilled"
)

// System pseudo-actors for audit entries not triggered by a human.
const (
	ActorWebhook  = "system:webhook"
	ActorCheckout = "system:checkout"
)

var allowedValues = map[string]map[string]bool{
	FieldStatus: {
		StatusPending: true, StatusProcessing: true, StatusShipped: true,
		StatusDelivered: true, StatusCancelled: true,
	},
	FieldPaymentStatus: {
		PaymentPending: true, PaymentPaid: true, PaymentFailed: true, PaymentRefunded: true,
	},
	FieldFulfillmentStatus: {
		FulfillmentUnfulfilled: true, FulfillmentPartial: true, FulfillmentFulfilled: true,
	},
}

func ValidStatusValue(field, value string) bool {
	vals, ok := allowedValues[field]
	return ok && vals[value]
}
