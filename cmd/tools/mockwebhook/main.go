package main

import (
	"bytes"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"
)

// Sahte provider webhook'u üretip imzalayarak local sunucuya gönderir.
// stripe: "t=...,v1=..." signed-payload şeması, paypal: düz body HMAC'i.
func main() {
	baseURL := flag.String("base-url", "http://localhost:8080", "Server base URL")
	provider := flag.String("provider", "stripe", "Provider (stripe, paypal)")
	secret := flag.String("secret", os.Getenv("MOCK_WEBHOOK_SECRET"), "Webhook secret")
	eventID := flag.String("event-id", "evt_"+randomHex(8), "Event ID")
	eventType := flag.String("type", "", "Provider event type (defaults to the succeeded event)")
	paymentRef := flag.String("payment-ref", "pi_"+randomHex(8), "Payment reference")
	amount := flag.Int64("amount", 5000, "Amount in cents")
	currency := flag.String("currency", "EUR", "Currency")
	dryRun := flag.Bool("dry-run", false, "Only print signature header, don't send")

	flag.Parse()

	if *secret == "" {
		fmt.Fprintf(os.Stderr, "Error: secret not provided and MOCK_WEBHOOK_SECRET not set\n")
		os.Exit(1)
	}

	var body []byte
	var sigHeaderName, sigHeader string
	var err error

	switch *provider {
	case "stripe":
		if *eventType == "" {
			*eventType = "payment_intent.succeeded"
		}
		body, err = json.Marshal(map[string]any{
			"id":   *eventID,
			"type": *eventType,
			"data": map[string]any{
				"object": map[string]any{
					"id":              *paymentRef,
					"amount":          *amount,
					"amount_received": *amount,
					"currency":        *currency,
				},
			},
		})
		if err == nil {
			t := time.Now().Unix()
			sigHeaderName = "Stripe-Signature"
			sigHeader = fmt.Sprintf("t=%d,v1=%s", t, signedPayload([]byte(*secret), t, body))
		}
	case "paypal":
		if *eventType == "" {
			*eventType = "PAYMENT.CAPTURE.COMPLETED"
		}
		body, err = json.Marshal(map[string]any{
			"id":         *eventID,
			"event_type": *eventType,
			"resource": map[string]any{
				"id":     "cap_" + randomHex(8),
				"status": "COMPLETED",
				"amount": map[string]any{
					"currency_code": *currency,
					"value":         fmt.Sprintf("%d.%02d", *amount/100, *amount%100),
				},
				"supplementary_data": map[string]any{
					"related_ids": map[string]any{"order_id": *paymentRef},
				},
			},
		})
		if err == nil {
			sigHeaderName = "Paypal-Transmission-Sig"
			sigHeader = bodyHMAC([]byte(*secret), body)
		}
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown provider %q\n", *provider)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling payload: %v\n", err)
		os.Exit(1)
	}

	url := *baseURL + "/webhooks/" + *provider

	fmt.Printf("%s: %s\n", sigHeaderName, sigHeader)
	fmt.Printf("Body: %s\n", string(body))

	if *dryRun {
		fmt.Println("\n[DRY RUN] Not sending request")
		return
	}

	fmt.Printf("\nSending to %s...\n", url)
	req, err := http.NewRequest("POST", url, bytes.NewReader(body))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating request: %v\n", err)
		os.Exit(1)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(sigHeaderName, sigHeader)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error sending request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	fmt.Printf("Status: %d\n", resp.StatusCode)
	fmt.Printf("Response: %s\n", string(respBody))

	if resp.StatusCode != http.StatusOK {
		os.Exit(1)
	}
}

func signedPayload(secret []byte, t int64, body []byte) string {
	m := hmac.New(sha256.New, secret)
	m.Write([]byte(strconv.FormatInt(t, 10)))
	m.Write([]byte("."))
	m.Write(body)
	return hex.EncodeToString(m.Sum(nil))
}

func bodyHMAC(secret, body []byte) string {
	m := hmac.New(sha256.New, secret)
	m.Write(body)
	return hex.EncodeToString(m.Sum(nil))
}

func randomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "deadbeef"
	}
	return hex.EncodeToString(b)
}
