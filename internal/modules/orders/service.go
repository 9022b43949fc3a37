package orders

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

type ChangeStatusInput struct {
	OrderID string
	Field   string // status|payment_status|fulfillment_status
	Value   string
	ActorID string
	Reason  string
}

// ChangeStatus: admin geçişleri. Her eksen serbesttir, iki istisna dışında:
//   - cancelled geri alınamaz
//   - payment reference olmadan paid'e geçiş reason ister (manual confirmation)
func (s *Service) ChangeStatus(ctx context.Context, in ChangeStatusInput) error {
	if in.OrderID == "" || in.ActorID == "" {
		return ErrOrderNotFound
	}
	if _, ok := allowedValues[in.Field]; !ok {
		return ErrInvalidStatusField
	}
	if !ValidStatusValue(in.Field, in.Value) {
		return ErrInvalidStatusValue
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var o Order
		if err := tx.WithContext(ctx).First(&o, "id = ?", in.OrderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}

		from := currentValue(&o, in.Field)
		if from == in.Value {
			return ErrNoStatusChange
		}
		if in.Field == FieldStatus && o.Status == StatusCancelled {
			return ErrAlreadyCancelled
		}
		if in.Field == FieldPaymentStatus && in.Value == PaymentPaid &&
			o.PaymentRef == nil && strings.TrimSpace(in.Reason) == "" {
			return ErrManualPaymentReasonRequired
		}

		now := time.Now()
		updates := map[string]any{
			in.Field:     in.Value,
			"updated_at": now,
		}
		if in.Field == FieldPaymentStatus && in.Value == PaymentPaid && o.PaidAt == nil {
			updates["paid_at"] = &now
		}
		if in.Field == FieldStatus && in.Value == StatusCancelled {
			updates["cancelled_at"] = &now
		}

		// optimistic guard
		res := tx.WithContext(ctx).Model(&Order{}).
			Where("id = ? AND "+in.Field+" = ?", o.ID, from).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNoStatusChange
		}

		return AppendStatusChangeTx(ctx, tx, o.ID, in.Field, from, in.Value, in.ActorID, in.Reason)
	})
}

func currentValue(o *Order, field string) string {
	switch field {
	case FieldStatus:
		return o.Status
	case FieldPaymentStatus:
		return o.PaymentStatus
	default:
		return o.FulfillmentStatus
	}
}
