package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"veloria.shop/app/internal/config"
	"veloria.shop/app/internal/shared/money"
)

const paypalSignatureHeader = "Paypal-Transmission-Sig"

// Wallet tarzı provider: tutarlar major unit string'i ("35.98"),
// success literal'i "COMPLETED". Captured amount alanı cevapta yoksa
// amount kontrolü atlanır, mismatch sayılmaz (bilinçli asimetri).
type PayPalProvider struct {
	cfg   config.PayPalConfig
	httpc *http.Client

	mu       sync.Mutex
	token    string
	tokenExp time.Time
}

func NewPayPalProvider(cfg config.PayPalConfig) *PayPalProvider {
	return &PayPalProvider{
		cfg:   cfg,
		httpc: &http.Client{Timeout: 15 * time.Second},
	}
}

func (p *PayPalProvider) Name() string { return "paypal" }

type paypalAmount struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type paypalCapture struct {
	ID     string        `json:"id"`
	Status string        `json:"status"`
	Amount *paypalAmount `json:"amount"`
}

type paypalOrder struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	PurchaseUnits []struct {
		Payments struct {
			Captures []paypalCapture `json:"captures"`
		} `json:"payments"`
	} `json:"purchase_units"`
}

func (p *PayPalProvider) CreateIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (Intent, error) {
	body := map[string]any{
		"intent": "CAPTURE",
		"purchase_units": []map[string]any{{
			"amount": paypalAmount{
				CurrencyCode: strings.ToUpper(currency),
				Value:        money.FormatMajor(amountCents),
			},
			"custom_id": metadata["checkout_id"],
		}},
	}

	var ord paypalOrder
	if err := p.do(ctx, http.MethodPost, "/v2/checkout/orders", body, &ord); err != nil {
		return Intent{}, err
	}
	return Intent{ClientToken: ord.ID, ProviderRef: ord.ID}, nil
}

func (p *PayPalProvider) VerifyCompletion(ctx context.Context, ref string, expectedCents int64) (Verification, error) {
	var ord paypalOrder
	if err := p.do(ctx, http.MethodGet, "/v2/checkout/orders/"+url.PathEscape(ref), nil, &ord); err != nil {
		return Verification{}, err
	}
	if err := validatePayPalPayment(ord, expectedCents); err != nil {
		return Verification{Status: ord.Status}, err
	}
	return Verification{Status: ord.Status, Verified: true}, nil
}

// validatePayPalPayment: status önce; captured amount varsa decimal
// eşitliğiyle karşılaştırılır, yoksa kontrol atlanır.
func validatePayPalPayment(ord paypalOrder, expectedCents int64) error {
	if ord.Status != "COMPLETED" {
		return &NotCompletedError{Status: ord.Status}
	}

	captured := firstCapture(ord)
	if captured == nil || captured.Amount == nil || captured.Amount.Value == "" {
		return nil
	}

	got, err := decimal.NewFromString(captured.Amount.Value)
	if err != nil {
		return &AmountMismatchError{
			Expected: money.FormatMajor(expectedCents),
			Actual:   captured.Amount.Value,
		}
	}
	if !got.Equal(money.ToMajorUnits(expectedCents)) {
		return &AmountMismatchError{
			Expected: money.FormatMajor(expectedCents),
			Actual:   captured.Amount.Value,
		}
	}
	return nil
}

func firstCapture(ord paypalOrder) *paypalCapture {
	for _, pu := range ord.PurchaseUnits {
		for i := range pu.Payments.Captures {
			return &pu.Payments.Captures[i]
		}
	}
	return nil
}

func (p *PayPalProvider) Refund(ctx context.Context, ref string) (RefundResult, error) {
	// refund capture üzerinden yapılır; önce order'dan capture id bul
	var ord paypalOrder
	if err := p.do(ctx, http.MethodGet, "/v2/checkout/orders/"+url.PathEscape(ref), nil, &ord); err != nil {
		return RefundResult{}, err
	}
	capture := firstCapture(ord)
	if capture == nil {
		return RefundResult{}, fmt.Errorf("paypal order %s has no capture to refund", ref)
	}

	var rf struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := p.do(ctx, http.MethodPost, "/v2/payments/captures/"+url.PathEscape(capture.ID)+"/refund", map[string]any{}, &rf); err != nil {
		return RefundResult{}, err
	}
	return RefundResult{RefundRef: rf.ID}, nil
}

type paypalEvent struct {
	ID        string `json:"id"`
	EventType string `json:"event_type"`
	Resource  struct {
		ID                string        `json:"id"`
		Status            string        `json:"status"`
		Amount            *paypalAmount `json:"amount"`
		SupplementaryData struct {
			RelatedIDs struct {
				OrderID string `json:"order_id"`
			} `json:"related_ids"`
		} `json:"supplementary_data"`
	} `json:"resource"`
}

func (p *PayPalProvider) VerifyAndParseWebhook(headers http.Header, body []byte) (WebhookEvent, error) {
	if err := VerifyBodyHMAC([]byte(p.cfg.WebhookSecret), headers.Get(paypalSignatureHeader), body); err != nil {
		return WebhookEvent{}, err
	}

	var ev paypalEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return WebhookEvent{}, fmt.Errorf("parse paypal event: %w", err)
	}
	if ev.ID == "" {
		return WebhookEvent{}, fmt.Errorf("paypal event missing id")
	}

	// capture event'leri order id'yi supplementary_data'da taşır
	ref := ev.Resource.SupplementaryData.RelatedIDs.OrderID
	if ref == "" {
		ref = ev.Resource.ID
	}

	out := WebhookEvent{
		EventID:    ev.ID,
		Type:       ev.EventType,
		PaymentRef: ref,
	}
	if ev.Resource.Amount != nil {
		if d, err := decimal.NewFromString(ev.Resource.Amount.Value); err == nil {
			out.AmountCents = money.ToMinorUnits(d)
		}
		out.Currency = strings.ToUpper(ev.Resource.Amount.CurrencyCode)
	}

	switch ev.EventType {
	case "PAYMENT.CAPTURE.COMPLETED":
		out.Type = EventPaymentSucceeded
	case "PAYMENT.CAPTURE.DENIED":
		out.Type = EventPaymentFailed
	case "PAYMENT.CAPTURE.REFUNDED":
		out.Type = EventPaymentRefunded
	}
	return out, nil
}

func (p *PayPalProvider) accessToken(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.token != "" && time.Now().Before(p.tokenExp) {
		return p.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.APIBase+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(p.cfg.ClientID, p.cfg.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("paypal token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("paypal: token status %d", resp.StatusCode)
	}

	var tok struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", err
	}

	p.token = tok.AccessToken
	// expiry'den biraz önce yenile
	p.tokenExp = time.Now().Add(time.Duration(tok.ExpiresIn)*time.Second - time.Minute)
	return p.token, nil
}

func (p *PayPalProvider) do(ctx context.Context, method, path string, body any, out any) error {
	token, err := p.accessToken(ctx)
	if err != nil {
		return err
	}

	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.cfg.APIBase+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("paypal request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("paypal: unexpected status %d", resp.StatusCode)
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}
