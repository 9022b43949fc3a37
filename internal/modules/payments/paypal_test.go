package payments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veloria.shop/app/internal/config"
)

func paypalOrderWithCapture(status, amount string) paypalOrder {
	var ord paypalOrder
	ord.ID = "ORD-1"
	ord.Status = status
	ord.PurchaseUnits = []struct {
		Payments struct {
			Captures []paypalCapture `json:"captures"`
		} `json:"payments"`
	}{{}}
	if amount != "" {
		ord.PurchaseUnits[0].Payments.Captures = []paypalCapture{{
			ID:     "CAP-1",
			Status: "COMPLETED",
			Amount: &paypalAmount{CurrencyCode: "EUR", Value: amount},
		}}
	}
	return ord
}

func TestValidatePayPalPayment(t *testing.T) {
	// COMPLETED + eşleşen tutar
	assert.NoError(t, validatePayPalPayment(paypalOrderWithCapture("COMPLETED", "60.99"), 6099))

	// status başarısızsa tutara bakılmaz
	var nc *NotCompletedError
	err := validatePayPalPayment(paypalOrderWithCapture("CREATED", "60.99"), 6099)
	require.ErrorAs(t, err, &nc)
	assert.Equal(t, "CREATED", nc.Status)

	// tutar uyuşmazlığı
	var am *AmountMismatchError
	err = validatePayPalPayment(paypalOrderWithCapture("COMPLETED", "1.00"), 6099)
	require.ErrorAs(t, err, &am)
	assert.Equal(t, "60.99", am.Expected)
	assert.Equal(t, "1.00", am.Actual)

	// captured amount cevapta yoksa kontrol atlanır
	assert.NoError(t, validatePayPalPayment(paypalOrderWithCapture("COMPLETED", ""), 6099))

	// "60.990" gibi eşdeğer gösterim de kabul edilir
	assert.NoError(t, validatePayPalPayment(paypalOrderWithCapture("COMPLETED", "60.990"), 6099))
}

func TestPayPalRefund(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/oauth2/token":
			user, pass, ok := r.BasicAuth()
			require.True(t, ok)
			assert.Equal(t, "cid", user)
			assert.Equal(t, "csecret", pass)
			_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "tok", "expires_in": 3600})
		case "/v2/checkout/orders/ORD-1":
			assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
			_ = json.NewEncoder(w).Encode(map[string]any{
				"id": "ORD-1", "status": "COMPLETED",
				"purchase_units": []map[string]any{{
					"payments": map[string]any{"captures": []map[string]any{{
						"id": "CAP-1", "status": "COMPLETED",
					}}},
				}},
			})
		case "/v2/payments/captures/CAP-1/refund":
			require.Equal(t, http.MethodPost, r.Method)
			_ = json.NewEncoder(w).Encode(map[string]any{"id": "REF-1", "status": "COMPLETED"})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	p := NewPayPalProvider(config.PayPalConfig{ClientID: "cid", ClientSecret: "csecret", APIBase: srv.URL})
	res, err := p.Refund(context.Background(), "ORD-1")
	require.NoError(t, err)
	assert.Equal(t, "REF-1", res.RefundRef)
}

func TestPayPalVerifyAndParseWebhook(t *testing.T) {
	secret := "paypal_secret"
	p := NewPayPalProvider(config.PayPalConfig{WebhookSecret: secret})

	body, _ := json.Marshal(map[string]any{
		"id":         "WH-1",
		"event_type": "PAYMENT.CAPTURE.COMPLETED",
		"resource": map[string]any{
			"id":     "CAP-1",
			"status": "COMPLETED",
			"amount": map[string]any{"currency_code": "EUR", "value": "60.99"},
			"supplementary_data": map[string]any{
				"related_ids": map[string]any{"order_id": "ORD-1"},
			},
		},
	})

	h := http.Header{}
	h.Set("Paypal-Transmission-Sig", BodyHMAC([]byte(secret), body))

	ev, err := p.VerifyAndParseWebhook(h, body)
	require.NoError(t, err)
	assert.Equal(t, "WH-1", ev.EventID)
	assert.Equal(t, EventPaymentSucceeded, ev.Type)
	// capture değil order referansı kullanılır
	assert.Equal(t, "ORD-1", ev.PaymentRef)
	assert.Equal(t, int64(6099), ev.AmountCents)
	assert.Equal(t, "EUR", ev.Currency)

	_, err = p.VerifyAndParseWebhook(http.Header{}, body)
	assert.ErrorIs(t, err, ErrBadSignature)
}

func TestPayPalWebhookUnknownTypePassedThrough(t *testing.T) {
	secret := "paypal_secret"
	p := NewPayPalProvider(config.PayPalConfig{WebhookSecret: secret})

	body, _ := json.Marshal(map[string]any{
		"id":         "WH-2",
		"event_type": "CHECKOUT.ORDER.APPROVED",
		"resource":   map[string]any{"id": "ORD-2"},
	})
	h := http.Header{}
	h.Set("Paypal-Transmission-Sig", BodyHMAC([]byte(secret), body))

	ev, err := p.VerifyAndParseWebhook(h, body)
	require.NoError(t, err)
	assert.Equal(t, "CHECKOUT.ORDER.APPROVED", ev.Type)
	assert.Equal(t, "ORD-2", ev.PaymentRef)
}
