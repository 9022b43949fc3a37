package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"veloria.shop/app/internal/config"
)

const stripeSignatureHeader = "Stripe-Signature"

// Kart tarzı provider: tutarlar minor unit (integer cent), success
// literal'i "succeeded".
type StripeProvider struct {
	cfg   config.StripeConfig
	httpc *http.Client
}

func NewStripeProvider(cfg config.StripeConfig) *StripeProvider {
	return &StripeProvider{
		cfg:   cfg,
		httpc: &http.Client{Timeout: 15 * time.Second},
	}
}

func (p *StripeProvider) Name() string { return "stripe" }

type stripeIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
}

type stripeRefund struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type stripeError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func (p *StripeProvider) CreateIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (Intent, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amountCents, 10))
	form.Set("currency", strings.ToLower(currency))
	form.Set("automatic_payment_methods[enabled]", "true")
	for k, v := range metadata {
		form.Set("metadata["+k+"]", v)
	}

	var in stripeIntent
	if err := p.do(ctx, http.MethodPost, "/v1/payment_intents", form, &in); err != nil {
		return Intent{}, err
	}
	return Intent{ClientToken: in.ClientSecret, ProviderRef: in.ID}, nil
}

func (p *StripeProvider) VerifyCompletion(ctx context.Context, ref string, expectedCents int64) (Verification, error) {
	var in stripeIntent
	if err := p.do(ctx, http.MethodGet, "/v1/payment_intents/"+url.PathEscape(ref), nil, &in); err != nil {
		return Verification{}, err
	}
	if err := validateStripePayment(in, expectedCents); err != nil {
		return Verification{Status: in.Status}, err
	}
	return Verification{Status: in.Status, Verified: true}, nil
}

// validateStripePayment: status success literal'i önce, amount sonra.
// Amount karşılaştırması minor unit'te birebir eşitliktir.
func validateStripePayment(in stripeIntent, expectedCents int64) error {
	if in.Status != "succeeded" {
		return &NotCompletedError{Status: in.Status}
	}
	if in.Amount != expectedCents {
		return &AmountMismatchError{
			Expected: strconv.FormatInt(expectedCents, 10),
			Actual:   strconv.FormatInt(in.Amount, 10),
		}
	}
	return nil
}

func (p *StripeProvider) Refund(ctx context.Context, ref string) (RefundResult, error) {
	form := url.Values{}
	form.Set("payment_intent", ref)

	var rf stripeRefund
	if err := p.do(ctx, http.MethodPost, "/v1/refunds", form, &rf); err != nil {
		return RefundResult{}, err
	}
	return RefundResult{RefundRef: rf.ID}, nil
}

type stripeEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID             string `json:"id"`
			PaymentIntent  string `json:"payment_intent"`
			Amount         int64  `json:"amount"`
			AmountReceived int64  `json:"amount_received"`
			Currency       string `json:"currency"`
		} `json:"object"`
	} `json:"data"`
}

func (p *StripeProvider) VerifyAndParseWebhook(headers http.Header, body []byte) (WebhookEvent, error) {
	header := headers.Get(stripeSignatureHeader)
	if err := VerifySignedPayload([]byte(p.cfg.WebhookSecret), header, body, 5*time.Minute); err != nil {
		return WebhookEvent{}, err
	}

	var ev stripeEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return WebhookEvent{}, fmt.Errorf("parse stripe event: %w", err)
	}
	if ev.ID == "" {
		return WebhookEvent{}, fmt.Errorf("stripe event missing id")
	}

	ref := ev.Data.Object.ID
	// charge event'lerinde intent referansı ayrı alandadır
	if ev.Data.Object.PaymentIntent != "" {
		ref = ev.Data.Object.PaymentIntent
	}
	amount := ev.Data.Object.AmountReceived
	if amount == 0 {
		amount = ev.Data.Object.Amount
	}

	out := WebhookEvent{
		EventID:     ev.ID,
		Type:        ev.Type,
		PaymentRef:  ref,
		AmountCents: amount,
		Currency:    strings.ToUpper(ev.Data.Object.Currency),
	}

	switch ev.Type {
	case "payment_intent.succeeded":
		out.Type = EventPaymentSucceeded
	case "payment_intent.payment_failed":
		out.Type = EventPaymentFailed
	case "charge.refunded":
		out.Type = EventPaymentRefunded
	}
	return out, nil
}

func (p *StripeProvider) do(ctx context.Context, method, path string, form url.Values, out any) error {
	var reqBody io.Reader
	if form != nil {
		reqBody = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, p.cfg.APIBase+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+p.cfg.SecretKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := p.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("stripe request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var se stripeError
		_ = json.Unmarshal(raw, &se)
		if se.Error.Message != "" {
			return fmt.Errorf("stripe: %s (%s)", se.Error.Message, se.Error.Type)
		}
		return fmt.Errorf("stripe: unexpected status %d", resp.StatusCode)
	}

	return json.Unmarshal(raw, out)
}
