package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"veloria.shop/app/internal/http/middleware"
	"veloria.shop/app/internal/http/validation"
	"veloria.shop/app/internal/modules/orders"
	"veloria.shop/app/internal/modules/payments"
	"veloria.shop/app/internal/shared/apperr"
)

type AdminOrdersHandler struct {
	DB        *gorm.DB
	OrdersSvc *orders.Service
	RefundSvc *payments.RefundService
}

func NewAdminOrdersHandler(db *gorm.DB, ordersSvc *orders.Service, refundSvc *payments.RefundService) *AdminOrdersHandler {
	return &AdminOrdersHandler{DB: db, OrdersSvc: ordersSvc, RefundSvc: refundSvc}
}

type adminOrderSummary struct {
	ID            string    `json:"id"`
	OrderNumber   int64     `json:"order_number"`
	Email         string    `json:"email"`
	Status        string    `json:"status"`
	PaymentStatus string    `json:"payment_status"`
	TotalCents    int64     `json:"total_cents"`
	Currency      string    `json:"currency"`
	CreatedAt     time.Time `json:"created_at"`
}

func toSummary(o orders.Order) adminOrderSummary {
	return adminOrderSummary{
		ID:            o.ID,
		OrderNumber:   o.OrderNumber,
		Email:         o.Email,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		TotalCents:    o.TotalCents,
		Currency:      o.Currency,
		CreatedAt:     o.CreatedAt,
	}
}

// GET /api/admin/orders
func (h *AdminOrdersHandler) List(c *gin.Context) {
	repo := orders.NewRepo(h.DB)
	res, err := repo.AdminList(c.Request.Context(), orders.AdminListParams{
		Q:        strings.TrimSpace(c.Query("q")),
		Status:   strings.TrimSpace(c.Query("status")),
		Page:     parseInt(c.Query("page"), 1),
		PageSize: parseInt(c.Query("page_size"), 30),
	})
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}

	items := make([]adminOrderSummary, 0, len(res.Items))
	for _, o := range res.Items {
		items = append(items, toSummary(o))
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": res.Total})
}

// GET /api/admin/orders/:id
func (h *AdminOrdersHandler) Detail(c *gin.Context) {
	repo := orders.NewRepo(h.DB)
	o, items, changes, err := repo.AdminGetDetail(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, orders.ErrOrderNotFound) {
			middleware.Fail(c, apperr.NotFoundErr("Order not found."))
			return
		}
		middleware.Fail(c, apperr.Wrap(err))
		return
	}

	type itemResponse struct {
		ProductName    string `json:"product_name"`
		SKU            string `json:"sku"`
		ImageURL       string `json:"image_url,omitempty"`
		UnitPriceCents int64  `json:"unit_price_cents"`
		Quantity       int    `json:"quantity"`
		LineTotalCents int64  `json:"line_total_cents"`
	}

	out := gin.H{
		"order": gin.H{
			"id":                 o.ID,
			"order_number":       o.OrderNumber,
			"checkout_id":        o.CheckoutID,
			"email":              o.Email,
			"shipping_address":   o.ShippingAddressJSON,
			"subtotal_cents":     o.SubtotalCents,
			"shipping_cents":     o.ShippingCents,
			"tax_cents":          o.TaxCents,
			"total_cents":        o.TotalCents,
			"currency":           o.Currency,
			"status":             o.Status,
			"payment_status":     o.PaymentStatus,
			"fulfillment_status": o.FulfillmentStatus,
			"payment_provider":   o.PaymentProvider,
			"payment_ref":        o.PaymentRef,
			"created_at":         o.CreatedAt,
			"paid_at":            o.PaidAt,
			"cancelled_at":       o.CancelledAt,
		},
	}

	its := make([]itemResponse, 0, len(items))
	for _, it := range items {
		its = append(its, itemResponse{
			ProductName:    it.ProductName,
			SKU:            it.SKU,
			ImageURL:       it.ImageURL,
			UnitPriceCents: it.UnitPriceCents,
			Quantity:       it.Quantity,
			LineTotalCents: it.LineTotalCents,
		})
	}
	out["items"] = its
	out["history"] = historyResponse(changes)

	c.JSON(http.StatusOK, out)
}

// GET /api/admin/orders/:id/history
func (h *AdminOrdersHandler) History(c *gin.Context) {
	repo := orders.NewRepo(h.DB)
	if _, err := repo.Get(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, orders.ErrOrderNotFound) {
			middleware.Fail(c, apperr.NotFoundErr("Order not found."))
			return
		}
		middleware.Fail(c, apperr.Wrap(err))
		return
	}

	changes, err := repo.ListStatusChanges(c.Request.Context(), c.Param("id"))
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": historyResponse(changes)})
}

type statusChangeResponse struct {
	Field     string    `json:"field"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	ActorID   string    `json:"actor_id"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func historyResponse(changes []orders.OrderStatusChange) []statusChangeResponse {
	out := make([]statusChangeResponse, 0, len(changes))
	for _, ch := range changes {
		r := statusChangeResponse{
			Field:     ch.Field,
			From:      ch.FromValue,
			To:        ch.ToValue,
			ActorID:   ch.ActorID,
			CreatedAt: ch.CreatedAt,
		}
		if ch.Reason != nil {
			r.Reason = *ch.Reason
		}
		out = append(out, r)
	}
	return out
}

type changeStatusRequest struct {
	Field  string `json:"field" binding:"required"`
	Value  string `json:"value" binding:"required"`
	Reason string `json:"reason"`
}

// POST /api/admin/orders/:id/status
func (h *AdminOrdersHandler) ChangeStatus(c *gin.Context) {
	var req changeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Fail(c, apperr.InvalidErr("Invalid request.", validation.FromBindError(err, &req)))
		return
	}

	err := h.OrdersSvc.ChangeStatus(c.Request.Context(), orders.ChangeStatusInput{
		OrderID: c.Param("id"),
		Field:   req.Field,
		Value:   req.Value,
		ActorID: middleware.AdminActor(c),
		Reason:  req.Reason,
	})
	if err != nil {
		middleware.Fail(c, adminOrderError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type cancelOrderRequest struct {
	Reason string `json:"reason"`
}

// POST /api/admin/orders/:id/cancel
// İptal her zaman uygulanır; refund sonucu cevapta raporlanır.
func (h *AdminOrdersHandler) Cancel(c *gin.Context) {
	var req cancelOrderRequest
	// body opsiyonel; reason yoksa boş geçer
	_ = c.ShouldBindJSON(&req)

	res, err := h.RefundSvc.CancelWithRefund(c.Request.Context(), c.Param("id"), middleware.AdminActor(c), req.Reason)
	if err != nil {
		middleware.Fail(c, adminOrderError(err))
		return
	}

	out := gin.H{
		"cancelled":        res.Cancelled,
		"refund_attempted": res.RefundAttempted,
		"refund_succeeded": res.RefundSucceeded,
	}
	if res.RefundRef != "" {
		out["refund_ref"] = res.RefundRef
	}
	if res.RefundError != "" {
		out["refund_error"] = res.RefundError
	}
	c.JSON(http.StatusOK, out)
}

func adminOrderError(err error) error {
	switch {
	case errors.Is(err, orders.ErrOrderNotFound):
		return apperr.NotFoundErr("Order not found.")
	case errors.Is(err, orders.ErrAlreadyCancelled):
		return apperr.ConflictErr("Order is already cancelled.")
	case errors.Is(err, orders.ErrInvalidStatusField):
		return apperr.InvalidErr("Unknown status field.", nil)
	case errors.Is(err, orders.ErrInvalidStatusValue):
		return apperr.InvalidErr("Unknown status value.", nil)
	case errors.Is(err, orders.ErrNoStatusChange):
		return apperr.ConflictErr("Order is already in that state.")
	case errors.Is(err, orders.ErrManualPaymentReasonRequired):
		// caller reason isteyip tekrar denemeli
		ae := apperr.InvalidErr("Marking as paid without a payment reference requires a reason.", nil)
		ae.Extra = map[string]any{"confirmation_required": true}
		return ae
	default:
		return apperr.Wrap(err)
	}
}

func parseInt(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return def
	}
	return n
}
