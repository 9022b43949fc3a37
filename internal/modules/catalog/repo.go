package catalog

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrVariantNotFound = errors.New("variant not found")
)

type Repo struct{ db *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{db: db} }

func (r *Repo) Get(ctx context.Context, id string) (Product, error) {
	var p Product
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Product{}, ErrProductNotFound
	}
	return p, err
}

func (r *Repo) GetVariant(ctx context.Context, id string) (ProductVariant, error) {
	var v ProductVariant
	err := r.db.WithContext(ctx).First(&v, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ProductVariant{}, ErrVariantNotFound
	}
	return v, err
}

// FirstImage: snapshot için; görsel yoksa boş string döner.
func (r *Repo) FirstImage(ctx context.Context, productID string) (string, error) {
	var img ProductImage
	err := r.db.WithContext(ctx).
		Order("position ASC").
		First(&img, "product_id = ?", productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return img.URL, nil
}
