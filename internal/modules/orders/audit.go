package orders

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AppendStatusChangeTx: kabul edilen her geçiş için tam bir audit satırı.
// Caller'ın transaction'ı içinde çalışır.
func AppendStatusChangeTx(ctx context.Context, tx *gorm.DB, orderID, field, from, to, actorID, reason string) error {
	var reasonPtr *string
	if r := strings.TrimSpace(reason); r != "" {
		reasonPtr = &r
	}
	ch := OrderStatusChange{
		ID:        uuid.NewString(),
		OrderID:   orderID,
		Field:     field,
		FromValue: from,
		ToValue:   to,
		ActorID:   actorID,
		Reason:    reasonPtr,
		CreatedAt: time.Now(),
	}
	return tx.WithContext(ctx).Create(&ch).Error
}

// ApplyPaymentStatusTx: webhook/refund yollarının ortak geçişi.
// Aynı değere geçiş no-op'tur (duplicate audit satırı üretmez).
// paid'e geçişte paid_at damgalanır.
func ApplyPaymentStatusTx(ctx context.Context, tx *gorm.DB, o *Order, to, actorID, reason string) (bool, error) {
	if o.PaymentStatus == to {
		return false, nil
	}

	now := time.Now()
	updates := map[string]any{
		"payment_status": to,
		"updated_at":     now,
	}
	if to == PaymentPaid && o.PaidAt == nil {
		updates["paid_at"] = &now
	}

	// optimistic guard: eşzamanlı geçişlerde ikinci yazan kaybeder
	res := tx.WithContext(ctx).Model(&Order{}).
		Where("id = ? AND payment_status = ?", o.ID, o.PaymentStatus).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}

	if err := AppendStatusChangeTx(ctx, tx, o.ID, FieldPaymentStatus, o.PaymentStatus, to, actorID, reason); err != nil {
		return false, err
	}

	o.PaymentStatus = to
	if to == PaymentPaid && o.PaidAt == nil {
		o.PaidAt = &now
	}
	return true, nil
}
