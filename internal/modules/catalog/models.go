package catalog

import "time"

type Product struct {
	ID          string `gorm:"type:char(36);primaryKey"`
	Name        string `gorm:"type:varchar(255);not null"`
	Slug        string `gorm:"type:varchar(255);not null;uniqueIndex"`
	Description string `gorm:"type:text"`
	Status      string `gorm:"type:varchar(16);not null;default:'active'"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Variants []ProductVariant `gorm:"foreignKey:ProductID"`
	Images   []ProductImage   `gorm:"foreignKey:ProductID"`
}

func (Product) TableName() string { return "products" }

type ProductVariant struct {
	ID         string `gorm:"type:char(36);primaryKey"`
	ProductID  string `gorm:"type:char(36);not null;index:ix_product_variants_product_id"`
	SKU        string `gorm:"type:varchar(64);not null"`
	Title      string `gorm:"type:varchar(255);not null"`
	PriceCents int64  `gorm:"not null"`
	Currency   string `gorm:"type:char(3);not null;default:'EUR'"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (ProductVariant) TableName() string { return "product_variants" }

type ProductImage struct {
	ID        string `gorm:"type:char(36);primaryKey"`
	ProductID string `gorm:"type:char(36);not null;index:ix_product_images_product_id"`
	URL       string `gorm:"type:varchar(512);not null"`
	Position  int    `gorm:"not null;default:0"`
	CreatedAt time.Time
}

func (ProductImage) TableName() string { return "product_images" }
