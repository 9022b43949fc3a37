package main

import (
	"log"
	"os"
	"strings"

	"log/slog"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"veloria.shop/app/internal/config"
	apphttp "veloria.shop/app/internal/http"
	"veloria.shop/app/internal/mailer"
	"veloria.shop/app/internal/metrics"
	"veloria.shop/app/internal/modules/catalog"
	"veloria.shop/app/internal/modules/checkout"
	"veloria.shop/app/internal/modules/customers"
	"veloria.shop/app/internal/modules/orders"
	"veloria.shop/app/internal/modules/payments"
	"veloria.shop/app/internal/modules/pricing"
	"veloria.shop/app/internal/notify"
)

func main() {
	// Load .env file (ignore error if not found - prod uses real env vars)
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg := config.MustLoad()

	// TranslateError: duplicate key tespiti driver'dan bağımsız yapılır
	db, err := gorm.Open(mysql.Open(cfg.DBDSN), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	promReg := prometheus.NewRegistry()
	m := metrics.New(promReg)

	var pub notify.Publisher = notify.Nop{}
	if cfg.Kafka.Brokers != "" {
		pub = notify.NewKafkaPublisher(strings.Split(cfg.Kafka.Brokers, ","), cfg.Kafka.Topic)
	}

	var mail mailer.Service = &mailer.Mock{}
	if cfg.SMTP.Host != "" {
		mail = mailer.NewSMTPMailer(cfg.SMTP)
	}

	registry := payments.NewRegistry(
		payments.NewStripeProvider(cfg.Stripe),
		payments.NewPayPalProvider(cfg.PayPal),
	)

	checkoutSvc := checkout.NewService(checkout.ServiceOpts{
		DB:              db,
		Catalog:         catalog.NewRepo(db),
		Customers:       customers.NewRepo(db),
		Pricing:         pricing.NewEngine(cfg.FreeShippingCents, cfg.TaxRate),
		Registry:        registry,
		Mail:            mail,
		Notify:          pub,
		Metrics:         m,
		Logger:          logger,
		Currency:        cfg.Currency,
		TTL:             cfg.CheckoutTTL,
		OrderNumberBase: cfg.OrderNumberBase,
		MailFrom:        cfg.MailFrom,
		MailFromName:    cfg.MailFromName,
	})

	r := apphttp.NewRouter(apphttp.RouterDeps{
		Logger:       logger,
		DB:           db,
		CheckoutSvc:  checkoutSvc,
		OrdersSvc:    orders.NewService(db),
		RefundSvc:    payments.NewRefundService(db, registry, logger, m, pub),
		WebhookSvc:   payments.NewWebhookService(db, logger, m, pub),
		Registry:     registry,
		PromRegistry: promReg,
		AdminToken:   cfg.AdminToken,
	})

	logger.Info("server starting", "addr", cfg.HTTPAddr)
	if err := r.Run(cfg.HTTPAddr); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
