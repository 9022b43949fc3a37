package mailer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildMessagePlainText(t *testing.T) {
	msg := buildMessage(Email{
		FromName: "Veloria",
		From:     "no-reply@veloria.shop",
		To:       []string{"a@example.com", "b@example.com"},
		Subject:  "Your order #1001 is confirmed",
		TextBody: "Thanks!",
	})

	// ASCII isim encode edilmeden geçer
	assert.Contains(t, msg, "From: Veloria <no-reply@veloria.shop>")
	assert.Contains(t, msg, "To: a@example.com, b@example.com")
	assert.Contains(t, msg, "Content-Type: text/plain; charset=utf-8")
	assert.Contains(t, msg, "Thanks!")
	assert.NotContains(t, msg, "multipart/alternative")
}

func TestBuildMessageMultipart(t *testing.T) {
	msg := buildMessage(Email{
		From:     "no-reply@veloria.shop",
		To:       []string{"a@example.com"},
		Subject:  "Receipt",
		TextBody: "plain body",
		HTMLBody: "<p>html body</p>",
	})

	assert.Contains(t, msg, "multipart/alternative")
	assert.Contains(t, msg, "plain body")
	assert.Contains(t, msg, "<p>html body</p>")
}
