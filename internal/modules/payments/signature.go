package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrBadSignature = errors.New("invalid webhook signature")
	ErrStaleEvent   = errors.New("webhook timestamp outside tolerance")
)

// Signed-payload şeması: "t=<unix>,v1=<hex hmac-sha256(secret, t + '.' + body)>"
func SignPayload(secret []byte, t int64, body []byte) string {
	m := hmac.New(sha256.New, secret)
	m.Write([]byte(strconv.FormatInt(t, 10)))
	m.Write([]byte("."))
	m.Write(body)
	return hex.EncodeToString(m.Sum(nil))
}

func SignatureHeader(secret []byte, t int64, body []byte) string {
	return fmt.Sprintf("t=%d,v1=%s", t, SignPayload(secret, t, body))
}

func VerifySignedPayload(secret []byte, header string, body []byte, tolerance time.Duration) error {
	var ts int64
	var sig string
	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return ErrBadSignature
			}
			ts = n
		case "v1":
			sig = v
		}
	}
	if ts == 0 || sig == "" {
		return ErrBadSignature
	}

	if tolerance > 0 {
		age := time.Since(time.Unix(ts, 0))
		if age > tolerance || age < -tolerance {
			return ErrStaleEvent
		}
	}

	expected := SignPayload(secret, ts, body)
	if !hmac.Equal([]byte(expected), []byte(sig)) {
		return ErrBadSignature
	}
	return nil
}

// BodyHMAC: body'nin düz hex HMAC'i (wallet provider'ın tek-header şeması).
func BodyHMAC(secret, body []byte) string {
	m := hmac.New(sha256.New, secret)
	m.Write(body)
	return hex.EncodeToString(m.Sum(nil))
}

func VerifyBodyHMAC(secret []byte, header string, body []byte) error {
	if header == "" {
		return ErrBadSignature
	}
	if !hmac.Equal([]byte(BodyHMAC(secret, body)), []byte(header)) {
		return ErrBadSignature
	}
	return nil
}
