package orders

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

type Repo struct{ db *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{db: db} }

func (r *Repo) Get(ctx context.Context, id string) (Order, error) {
	var o Order
	err := r.db.WithContext(ctx).First(&o, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Order{}, ErrOrderNotFound
	}
	return o, err
}

func (r *Repo) GetWithItems(ctx context.Context, id string) (Order, []OrderItem, error) {
	o, err := r.Get(ctx, id)
	if err != nil {
		return Order{}, nil, err
	}
	var items []OrderItem
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&items, "order_id = ?", id).Error; err != nil {
		return Order{}, nil, err
	}
	return o, items, nil
}

func (r *Repo) FindByPaymentRef(ctx context.Context, provider, ref string) (Order, error) {
	var o Order
	err := r.db.WithContext(ctx).
		First(&o, "payment_provider = ? AND payment_ref = ?", provider, ref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Order{}, ErrOrderNotFound
	}
	return o, err
}

// ListStatusChanges: audit trail, insertion sırasıyla.
func (r *Repo) ListStatusChanges(ctx context.Context, orderID string) ([]OrderStatusChange, error) {
	var out []OrderStatusChange
	err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Find(&out, "order_id = ?", orderID).Error
	return out, err
}
