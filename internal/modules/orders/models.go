package orders

import (
	"time"

	"gorm.io/datatypes"
)

// Status eksenleri birbirinden bağımsızdır (bkz. status.go).
type Order struct {
	ID          string `gorm:"type:char(36);primaryKey"`
	OrderNumber int64  `gorm:"not null;uniqueIndex:ux_orders_order_number"`
	CheckoutID  string `gorm:"type:varchar(32);not null;uniqueIndex:ux_orders_checkout_id"`

	CustomerID *string `gorm:"type:char(36);index:ix_orders_customer_id"`
	Email      string  `gorm:"type:varchar(255);not null;index:ix_orders_email"`

	ShippingAddressJSON datatypes.JSON `gorm:"type:json"`

	SubtotalCents int64  `gorm:"not null"`
	ShippingCents int64  `gorm:"not null"`
	TaxCents      int64  `gorm:"not null"`
	TotalCents    int64  `gorm:"not null"`
	Currency      string `gorm:"type:char(3);not null"`

	Status            string `gorm:"type:varchar(32);not null;index:ix_orders_status"`
	PaymentStatus     string `gorm:"type:varchar(32);not null"`
	FulfillmentStatus string `gorm:"type:varchar(32);not null"`

	PaymentProvider *string `gorm:"type:varchar(64);index:ix_orders_provider_ref,priority:1"`
	PaymentRef      *string `gorm:"type:varchar(128);index:ix_orders_provider_ref,priority:2"`

	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
	PaidAt      *time.Time
	CancelledAt *time.Time
}

func (Order) TableName() string { return "orders" }

type OrderItem struct {
	ID      string `gorm:"type:char(36);primaryKey"`
	OrderID string `gorm:"type:char(36);not null;index:ix_order_items_order_id"`

	ProductID string `gorm:"type:char(36);not null"`
	VariantID string `gorm:"type:char(36);not null;index:ix_order_items_variant_id"`

	// Snapshot alanları: katalog sonradan değişse bile sabit kalır.
	ProductName string `gorm:"type:varchar(255);not null"`
	SKU         string `gorm:"type:varchar(64);not null"`
	ImageURL    string `gorm:"type:varchar(512)"`

	UnitPriceCents int64  `gorm:"not null"`
	Quantity       int    `gorm:"not null"`
	LineTotalCents int64  `gorm:"not null"`
	Currency       string `gorm:"type:char(3);not null"`

	CreatedAt time.Time `gorm:"not null"`
}

func (OrderItem) TableName() string { return "order_items" }

// OrderStatusChange: append-only audit. Satırlar asla update/delete edilmez.
type OrderStatusChange struct {
	ID      string `gorm:"type:char(36);primaryKey"`
	OrderID string `gorm:"type:char(36);not null;index:ix_order_status_changes_order_created,priority:1"`

	Field     string  `gorm:"type:varchar(32);not null"` // status|payment_status|fulfillment_status
	FromValue string  `gorm:"type:varchar(32);not null"`
	ToValue   string  `gorm:"type:varchar(32);not null"`
	ActorID   string  `gorm:"type:varchar(64);not null"` // admin user id veya system pseudo-actor
	Reason    *string `gorm:"type:varchar(255)"`

	CreatedAt time.Time `gorm:"not null;index:ix_order_status_changes_order_created,priority:2"`
}

func (OrderStatusChange) TableName() string { return "order_status_changes" }

// Sequence: human-facing sıralı order number sayacı. Artış her zaman
// DB tarafında yapılır, uygulama read-then-increment yapmaz.
type Sequence struct {
	Name  string `gorm:"type:varchar(32);primaryKey"`
	Value int64  `gorm:"not null"`
}

func (Sequence) TableName() string { return "sequences" }
