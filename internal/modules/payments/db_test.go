package payments

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"veloria.shop/app/internal/modules/orders"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// in-memory sqlite tek bağlantı ister
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&orders.Order{},
		&orders.OrderItem{},
		&orders.OrderStatusChange{},
		&orders.Sequence{},
		&ProcessedWebhookEvent{},
	))
	return db
}

func seedPaidOrder(t *testing.T, db *gorm.DB, provider, ref string) orders.Order {
	t.Helper()

	now := time.Now()
	p, r := provider, ref
	o := orders.Order{
		ID:                uuid.NewString(),
		OrderNumber:       time.Now().UnixNano(),
		CheckoutID:        uuid.NewString()[:32],
		Email:             "buyer@example.com",
		SubtotalCents:     5000,
		ShippingCents:     599,
		TaxCents:          500,
		TotalCents:        6099,
		Currency:          "EUR",
		Status:            orders.StatusPending,
		PaymentStatus:     orders.PaymentPaid,
		FulfillmentStatus: orders.FulfillmentUnfulfilled,
		PaymentProvider:   &p,
		PaymentRef:        &r,
		CreatedAt:         now,
		UpdatedAt:         now,
		PaidAt:            &now,
	}
	require.NoError(t, db.Create(&o).Error)
	return o
}
