package config

import (
	"log"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env      string `env:"APP_ENV" env-default:"dev"`
	HTTPAddr string `env:"HTTP_ADDR" env-default:":8080"`
	BaseURL  string `env:"BASE_URL" env-default:"http://localhost:8080"`

	DBDSN string `env:"DB_DSN"`

	Currency           string        `env:"CURRENCY" env-default:"EUR"`
	TaxRate            string        `env:"TAX_RATE" env-default:"0.10"`
	FreeShippingCents  int64         `env:"FREE_SHIPPING_THRESHOLD_CENTS" env-default:"7500"`
	CheckoutTTL        time.Duration `env:"CHECKOUT_TTL" env-default:"24h"`
	OrderNumberBase    int64         `env:"ORDER_NUMBER_BASE" env-default:"1000"`

	AdminToken string `env:"ADMIN_API_TOKEN"`

	Stripe StripeConfig
	PayPal PayPalConfig
	Kafka  KafkaConfig
	SMTP   SMTPConfig

	MailFrom     string `env:"MAIL_FROM" env-default:"no-reply@veloria.shop"`
	MailFromName string `env:"MAIL_FROM_NAME" env-default:"Veloria"`
}

type StripeConfig struct {
	SecretKey     string `env:"STRIPE_SECRET_KEY"`
	WebhookSecret string `env:"STRIPE_WEBHOOK_SECRET"`
	APIBase       string `env:"STRIPE_API_BASE" env-default:"https://api.stripe.com"`
}

type PayPalConfig struct {
	ClientID      string `env:"PAYPAL_CLIENT_ID"`
	ClientSecret  string `env:"PAYPAL_CLIENT_SECRET"`
	WebhookSecret string `env:"PAYPAL_WEBHOOK_SECRET"`
	APIBase       string `env:"PAYPAL_API_BASE" env-default:"https://api-m.sandbox.paypal.com"`
}

type KafkaConfig struct {
	Brokers string `env:"KAFKA_BROKERS"` // comma-separated; empty disables publishing
	Topic   string `env:"KAFKA_ORDER_TOPIC" env-default:"order-events"`
}

type SMTPConfig struct {
	Host          string `env:"SMTP_HOST"`
	Port          string `env:"SMTP_PORT" env-default:"1025"`
	User          string `env:"SMTP_USER"`
	Pass          string `env:"SMTP_PASS"`
	TLSMode       string `env:"SMTP_TLS_MODE" env-default:"none"` // none|starttls|tls
	SkipVerifyTLS bool   `env:"SMTP_TLS_SKIP_VERIFY" env-default:"false"`
}

func MustLoad() *Config {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		log.Fatalf("failed to read config from env: %v", err)
	}
	if cfg.DBDSN == "" {
		log.Fatal("DB_DSN environment variable is required")
	}
	return &cfg
}
