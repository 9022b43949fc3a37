package checkout

import (
	"time"

	"gorm.io/datatypes"
)

const (
	StatusOpen      = "open"
	StatusCompleted = "completed"
	StatusExpired   = "expired"
)

// Checkout: sipariş öncesi geçici sepet+ödeme oturumu. Tutar alanları
// her mutasyondan sonra yeniden hesaplanır; total = subtotal +
// shipping + tax eşitliği her kayıtlı satırda tutar.
type Checkout struct {
	ID string `gorm:"type:varchar(32);primaryKey"`

	Email        *string `gorm:"type:varchar(255)"`
	CustomerName *string `gorm:"type:varchar(255)"`

	ShippingAddressJSON datatypes.JSON `gorm:"type:json"`
	ShippingRateID      *string        `gorm:"type:varchar(32)"`

	SubtotalCents int64  `gorm:"not null"`
	ShippingCents int64  `gorm:"not null"`
	TaxCents      int64  `gorm:"not null"`
	TotalCents    int64  `gorm:"not null"`
	Currency      string `gorm:"type:char(3);not null"`

	Status string `gorm:"type:varchar(16);not null;index:ix_checkouts_status"`

	PaymentProvider *string `gorm:"type:varchar(64)"`
	PaymentRef      *string `gorm:"type:varchar(128)"`

	OrderID *string `gorm:"type:char(36)"`

	CreatedAt   time.Time  `gorm:"not null"`
	UpdatedAt   time.Time  `gorm:"not null"`
	ExpiresAt   time.Time  `gorm:"not null"`
	CompletedAt *time.Time

	Items []CheckoutItem `gorm:"foreignKey:CheckoutID"`
}

func (Checkout) TableName() string { return "checkouts" }

// CheckoutItem: ekleme anındaki katalog snapshot'ı. Fiyat/isim sonradan
// değişse bile oturum boyunca sabittir; order item'ları buradan kopyalanır.
type CheckoutItem struct {
	ID         string `gorm:"type:char(36);primaryKey"`
	CheckoutID string `gorm:"type:varchar(32);not null;index:ix_checkout_items_checkout_id"`

	ProductID string `gorm:"type:char(36);not null"`
	VariantID string `gorm:"type:char(36);not null"`

	ProductName string `gorm:"type:varchar(255);not null"`
	SKU         string `gorm:"type:varchar(64);not null"`
	ImageURL    string `gorm:"type:varchar(512)"`

	UnitPriceCents int64  `gorm:"not null"`
	Quantity       int    `gorm:"not null"`
	LineTotalCents int64  `gorm:"not null"`
	Currency       string `gorm:"type:char(3);not null"`

	CreatedAt time.Time `gorm:"not null"`
}

func (CheckoutItem) TableName() string { return "checkout_items" }
