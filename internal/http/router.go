package apphttp

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"veloria.shop/app/internal/http/handlers"
	"veloria.shop/app/internal/http/middleware"
	"veloria.shop/app/internal/modules/checkout"
	"veloria.shop/app/internal/modules/orders"
	"veloria.shop/app/internal/modules/payments"
)

type RouterDeps struct {
	Logger *slog.Logger
	DB     *gorm.DB

	CheckoutSvc *checkout.Service
	OrdersSvc   *orders.Service
	RefundSvc   *payments.RefundService
	WebhookSvc  *payments.WebhookService
	Registry    *payments.Registry

	PromRegistry *prometheus.Registry
	AdminToken   string
}

func NewRouter(d RouterDeps) *gin.Engine {
	r := gin.New()

	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.ErrorHandler(d.Logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	if d.PromRegistry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.PromRegistry, promhttp.HandlerOpts{})))
	}

	co := handlers.NewCheckoutHandler(d.CheckoutSvc)
	wh := handlers.NewWebhookHandler(d.Logger, d.Registry, d.WebhookSvc)
	ao := handlers.NewAdminOrdersHandler(d.DB, d.OrdersSvc, d.RefundSvc)

	api := r.Group("/api")
	{
		api.GET("/shipping-rates", co.ShippingRates)

		api.POST("/checkout", co.Create)
		api.GET("/checkout/:id", co.Get)
		api.PUT("/checkout/:id/customer", co.SetCustomerInfo)
		api.PUT("/checkout/:id/address", co.SetShippingAddress)
		api.PUT("/checkout/:id/shipping", co.SetShippingMethod)
		api.POST("/checkout/:id/payment", co.CreateIntent)
		api.POST("/checkout/:id/complete", co.Complete)

		admin := api.Group("/admin", middleware.RequireAdmin(d.AdminToken))
		{
			admin.GET("/orders", ao.List)
			admin.GET("/orders/:id", ao.Detail)
			admin.GET("/orders/:id/history", ao.History)
			admin.POST("/orders/:id/status", ao.ChangeStatus)
			admin.POST("/orders/:id/cancel", ao.Cancel)
		}
	}

	// webhook'lar api prefix'i dışında; imza ham body üzerinden doğrulanır
	r.POST("/webhooks/:provider", wh.Handle)

	return r
}
