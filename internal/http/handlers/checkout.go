package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"veloria.shop/app/internal/http/middleware"
	"veloria.shop/app/internal/http/validation"
	"veloria.shop/app/internal/modules/catalog"
	"veloria.shop/app/internal/modules/checkout"
	"veloria.shop/app/internal/modules/orders"
	"veloria.shop/app/internal/modules/payments"
	"veloria.shop/app/internal/modules/pricing"
	"veloria.shop/app/internal/shared/apperr"
)

type CheckoutHandler struct {
	Svc *checkout.Service
}

func NewCheckoutHandler(svc *checkout.Service) *CheckoutHandler {
	return &CheckoutHandler{Svc: svc}
}

type createCheckoutRequest struct {
	Items []checkout.ItemInput `json:"items" binding:"required,dive"`
}

type customerInfoRequest struct {
	Email string `json:"email" binding:"required,email"`
	Name  string `json:"name"`
}

type shippingMethodRequest struct {
	RateID string `json:"rate_id" binding:"required"`
}

type createIntentRequest struct {
	Provider string `json:"provider" binding:"required"`
}

type checkoutItemResponse struct {
	VariantID      string `json:"variant_id"`
	ProductName    string `json:"product_name"`
	SKU            string `json:"sku"`
	ImageURL       string `json:"image_url,omitempty"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	Quantity       int    `json:"quantity"`
	LineTotalCents int64  `json:"line_total_cents"`
}

type checkoutResponse struct {
	ID              string                 `json:"id"`
	Status          string                 `json:"status"`
	Email           string                 `json:"email,omitempty"`
	Items           []checkoutItemResponse `json:"items"`
	ShippingRateID  string                 `json:"shipping_rate_id,omitempty"`
	SubtotalCents   int64                  `json:"subtotal_cents"`
	ShippingCents   int64                  `json:"shipping_cents"`
	TaxCents        int64                  `json:"tax_cents"`
	TotalCents      int64                  `json:"total_cents"`
	Currency        string                 `json:"currency"`
	PaymentProvider string                 `json:"payment_provider,omitempty"`
	OrderID         string                 `json:"order_id,omitempty"`
	ExpiresAt       time.Time              `json:"expires_at"`
}

func toCheckoutResponse(c checkout.Checkout) checkoutResponse {
	out := checkoutResponse{
		ID:            c.ID,
		Status:        c.Status,
		SubtotalCents: c.SubtotalCents,
		ShippingCents: c.ShippingCents,
		TaxCents:      c.TaxCents,
		TotalCents:    c.TotalCents,
		Currency:      c.Currency,
		ExpiresAt:     c.ExpiresAt,
	}
	if c.Email != nil {
		out.Email = *c.Email
	}
	if c.ShippingRateID != nil {
		out.ShippingRateID = *c.ShippingRateID
	}
	if c.PaymentProvider != nil {
		out.PaymentProvider = *c.PaymentProvider
	}
	if c.OrderID != nil {
		out.OrderID = *c.OrderID
	}
	for _, it := range c.Items {
		out.Items = append(out.Items, checkoutItemResponse{
			VariantID:      it.VariantID,
			ProductName:    it.ProductName,
			SKU:            it.SKU,
			ImageURL:       it.ImageURL,
			UnitPriceCents: it.UnitPriceCents,
			Quantity:       it.Quantity,
			LineTotalCents: it.LineTotalCents,
		})
	}
	return out
}

// POST /api/checkout
func (h *CheckoutHandler) Create(c *gin.Context) {
	var req createCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Fail(c, apperr.InvalidErr("Invalid request.", validation.FromBindError(err, &req)))
		return
	}

	out, err := h.Svc.Create(c.Request.Context(), req.Items)
	if err != nil {
		middleware.Fail(c, checkoutError(err))
		return
	}
	c.JSON(http.StatusCreated, toCheckoutResponse(out))
}

// GET /api/checkout/:id
func (h *CheckoutHandler) Get(c *gin.Context) {
	out, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		middleware.Fail(c, checkoutError(err))
		return
	}
	c.JSON(http.StatusOK, toCheckoutResponse(out))
}

// PUT /api/checkout/:id/customer
func (h *CheckoutHandler) SetCustomerInfo(c *gin.Context) {
	var req customerInfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Fail(c, apperr.InvalidErr("Invalid request.", validation.FromBindError(err, &req)))
		return
	}

	out, err := h.Svc.SetCustomerInfo(c.Request.Context(), c.Param("id"), req.Email, req.Name)
	if err != nil {
		middleware.Fail(c, checkoutError(err))
		return
	}
	c.JSON(http.StatusOK, toCheckoutResponse(out))
}

// PUT /api/checkout/:id/address
func (h *CheckoutHandler) SetShippingAddress(c *gin.Context) {
	var addr checkout.ShippingAddress
	if err := c.ShouldBindJSON(&addr); err != nil {
		middleware.Fail(c, apperr.InvalidErr("Invalid request.", validation.FromBindError(err, &addr)))
		return
	}

	out, err := h.Svc.SetShippingAddress(c.Request.Context(), c.Param("id"), addr)
	if err != nil {
		middleware.Fail(c, checkoutError(err))
		return
	}
	c.JSON(http.StatusOK, toCheckoutResponse(out))
}

// PUT /api/checkout/:id/shipping
func (h *CheckoutHandler) SetShippingMethod(c *gin.Context) {
	var req shippingMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Fail(c, apperr.InvalidErr("Invalid request.", validation.FromBindError(err, &req)))
		return
	}

	out, err := h.Svc.SetShippingMethod(c.Request.Context(), c.Param("id"), req.RateID)
	if err != nil {
		middleware.Fail(c, checkoutError(err))
		return
	}
	c.JSON(http.StatusOK, toCheckoutResponse(out))
}

// GET /api/shipping-rates
func (h *CheckoutHandler) ShippingRates(c *gin.Context) {
	type rateResponse struct {
		ID         string `json:"id"`
		Name       string `json:"name"`
		ETA        string `json:"eta"`
		PriceCents int64  `json:"price_cents"`
	}
	rates := pricing.ShippingRates()
	out := make([]rateResponse, 0, len(rates))
	for _, r := range rates {
		out = append(out, rateResponse{ID: r.ID, Name: r.Name, ETA: r.ETA, PriceCents: r.PriceCents})
	}
	c.JSON(http.StatusOK, gin.H{"rates": out})
}

// POST /api/checkout/:id/payment
func (h *CheckoutHandler) CreateIntent(c *gin.Context) {
	var req createIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Fail(c, apperr.InvalidErr("Invalid request.", validation.FromBindError(err, &req)))
		return
	}

	out, intent, err := h.Svc.CreateIntent(c.Request.Context(), c.Param("id"), req.Provider)
	if err != nil {
		middleware.Fail(c, checkoutError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"checkout":     toCheckoutResponse(out),
		"client_token": intent.ClientToken,
		"provider_ref": intent.ProviderRef,
	})
}

// POST /api/checkout/:id/complete
func (h *CheckoutHandler) Complete(c *gin.Context) {
	o, err := h.Svc.Complete(c.Request.Context(), c.Param("id"))
	if err != nil {
		middleware.Fail(c, checkoutError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"order_id":       o.ID,
		"order_number":   o.OrderNumber,
		"status":         o.Status,
		"payment_status": o.PaymentStatus,
		"total_cents":    o.TotalCents,
		"currency":       o.Currency,
	})
}

// checkoutError: domain hatalarını HTTP sınıflarına eşler.
func checkoutError(err error) error {
	var mf *checkout.MissingFieldError
	var nc *payments.NotCompletedError
	var am *payments.AmountMismatchError

	switch {
	case errors.Is(err, checkout.ErrCheckoutNotFound),
		errors.Is(err, orders.ErrOrderNotFound):
		return apperr.NotFoundErr("Checkout not found.")
	case errors.Is(err, checkout.ErrExpired):
		return apperr.GoneErr("This checkout has expired.")
	case errors.Is(err, checkout.ErrCompleted):
		return apperr.ConflictErr("This checkout is already completed.")
	case errors.Is(err, catalog.ErrProductNotFound),
		errors.Is(err, catalog.ErrVariantNotFound):
		return apperr.InvalidErr("One of the items is no longer available.", nil)
	case errors.Is(err, checkout.ErrEmptyCart):
		return apperr.InvalidErr("Add at least one item to check out.", nil)
	case errors.Is(err, checkout.ErrInvalidQuantity):
		return apperr.InvalidErr("Item quantity must be positive.", nil)
	case errors.Is(err, checkout.ErrEmailRequired):
		return apperr.InvalidErr("Customer email is required.", nil)
	case errors.Is(err, checkout.ErrAddressRequired):
		return apperr.InvalidErr("Shipping address is required.", nil)
	case errors.Is(err, checkout.ErrShippingMethodRequired):
		return apperr.InvalidErr("Select a shipping method.", nil)
	case errors.Is(err, checkout.ErrPaymentNotInitiated):
		return apperr.InvalidErr("Start a payment before completing checkout.", nil)
	case errors.As(err, &mf):
		return apperr.InvalidErr("Shipping address is incomplete.",
			map[string]string{mf.Field: "This field is required."})
	case errors.Is(err, pricing.ErrInvalidShippingRate):
		return apperr.InvalidErr("Unknown shipping method.", nil)
	case errors.Is(err, payments.ErrUnknownProvider):
		return apperr.InvalidErr("Unknown payment provider.", nil)
	case errors.As(err, &nc):
		return apperr.InvalidErr("Payment has not completed yet.", nil)
	case errors.As(err, &am):
		return apperr.InvalidErr("Payment amount does not match the order total.", nil)
	default:
		return apperr.Wrap(err)
	}
}
