package handlers

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"veloria.shop/app/internal/modules/payments"
)

type WebhookHandler struct {
	Logger     *slog.Logger
	Registry   *payments.Registry
	WebhookSvc *payments.WebhookService
}

func NewWebhookHandler(logger *slog.Logger, reg *payments.Registry, svc *payments.WebhookService) *WebhookHandler {
	return &WebhookHandler{Logger: logger, Registry: reg, WebhookSvc: svc}
}

// POST /webhooks/:provider
// Body is raw JSON; signature header validated by provider adapter.
func (h *WebhookHandler) Handle(c *gin.Context) {
	provider, err := h.Registry.Get(c.Param("provider"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "unknown provider"})
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	ev, err := provider.VerifyAndParseWebhook(c.Request.Header, body)
	if err != nil {
		h.Logger.Warn("webhook rejected", "provider", provider.Name(), "err", err)
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid signature or payload"})
		return
	}

	res, err := h.WebhookSvc.Handle(c.Request.Context(), provider.Name(), ev, body)
	if err != nil {
		// 500 => provider retry etsin
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "deduplicated": res.Deduplicated})
}
