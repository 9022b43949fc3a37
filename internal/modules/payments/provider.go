package payments

import (
	"context"
	"net/http"
)

// Normalize edilmiş webhook event tipleri. Provider adaptörleri kendi
// vendor tiplerini bunlara çevirir; tanınmayan tipler raw geçer ve
// processor tarafından loglanıp yok sayılır.
const (
	EventPaymentSucceeded = "payment.succeeded"
	EventPaymentFailed    = "payment.failed"
	EventPaymentRefunded  = "payment.refunded"
)

type Intent struct {
	ClientToken string // client tarafının provider SDK'sına vereceği token
	ProviderRef string // bizim sakladığımız referans
}

type Verification struct {
	Status   string
	Verified bool
}

type RefundResult struct {
	RefundRef string
}

type WebhookEvent struct {
	EventID    string
	Type       string // normalize edilmiş tip veya raw vendor tipi
	PaymentRef string

	AmountCents int64
	Currency    string
}

// Provider: tek kontrat, iki varyant. Kart tarzı provider tutarları
// minor unit'te, wallet tarzı provider major unit string'inde konuşur;
// bu fark adaptörlerin içinde kalır.
type Provider interface {
	Name() string

	CreateIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (Intent, error)

	// VerifyCompletion: success literal'i dışındaki status
	// NotCompletedError üretir (amount'tan önce kontrol edilir).
	VerifyCompletion(ctx context.Context, ref string, expectedCents int64) (Verification, error)

	Refund(ctx context.Context, ref string) (RefundResult, error)

	// Webhook: signature doğrula + event parse et
	VerifyAndParseWebhook(headers http.Header, body []byte) (WebhookEvent, error)
}
