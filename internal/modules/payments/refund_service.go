package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"veloria.shop/app/internal/metrics"
	"veloria.shop/app/internal/modules/orders"
	"veloria.shop/app/internal/notify"
)

type RefundService struct {
	db       *gorm.DB
	registry *Registry
	logger   *slog.Logger
	metrics  *metrics.StoreMetrics
	notify   notify.Publisher
}

func NewRefundService(db *gorm.DB, reg *Registry, logger *slog.Logger, m *metrics.StoreMetrics, pub notify.Publisher) *RefundService {
	if logger == nil {
		logger = slog.Default()
	}
	if pub == nil {
		pub = notify.Nop{}
	}
	return &RefundService{db: db, registry: reg, logger: logger, metrics: m, notify: pub}
}

type CancelResult struct {
	Cancelled       bool
	RefundAttempted bool
	RefundSucceeded bool
	RefundRef       string
	RefundError     string
}

// CancelWithRefund: iptal kesin, refund best-effort. Provider çağrısı
// transaction DIŞINDA yapılır; refund başarısız olsa bile order
// cancelled olur ve payment_status paid kalır (manuel takip için).
func (s *RefundService) CancelWithRefund(ctx context.Context, orderID, actorID, reason string) (CancelResult, error) {
	var res CancelResult

	var o orders.Order
	if err := s.db.WithContext(ctx).First(&o, "id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return res, orders.ErrOrderNotFound
		}
		return res, err
	}
	if o.Status == orders.StatusCancelled {
		return res, orders.ErrAlreadyCancelled
	}

	// faz 1: refund gerekiyorsa provider'ı tx dışında çağır
	var refundRef string
	needsRefund := o.PaymentStatus == orders.PaymentPaid && o.PaymentProvider != nil && o.PaymentRef != nil
	if needsRefund {
		res.RefundAttempted = true
		if s.metrics != nil {
			s.metrics.RefundsAttemptedTotal.Inc()
		}

		rr, err := s.refund(ctx, *o.PaymentProvider, *o.PaymentRef)
		if err != nil {
			res.RefundError = err.Error()
			s.logger.ErrorContext(ctx, "refund failed, cancelling anyway",
				"order_id", o.ID, "provider", *o.PaymentProvider, "err", err)
		} else {
			res.RefundSucceeded = true
			res.RefundRef = rr.RefundRef
			if s.metrics != nil {
				s.metrics.RefundsSucceededTotal.Inc()
			}
		}
	}
	refundRef = res.RefundRef

	// faz 2: iptali ve (varsa) refund sonucunu tek tx'te yaz
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		r := tx.WithContext(ctx).Model(&orders.Order{}).
			Where("id = ? AND status <> ?", o.ID, orders.StatusCancelled).
			Updates(map[string]any{"status": orders.StatusCancelled, "cancelled_at": now})
		if r.Error != nil {
			return r.Error
		}
		if r.RowsAffected == 0 {
			// bu arada başka biri iptal etmiş
			return orders.ErrAlreadyCancelled
		}

		if err := orders.AppendStatusChangeTx(ctx, tx, o.ID,
			orders.FieldStatus, o.Status, orders.StatusCancelled, actorID, reason); err != nil {
			return err
		}

		if res.RefundSucceeded {
			refundReason := fmt.Sprintf("refund %s issued on cancellation", refundRef)
			if _, err := orders.ApplyPaymentStatusTx(ctx, tx, &o,
				orders.PaymentRefunded, actorID, refundReason); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return res, err
	}

	res.Cancelled = true
	if s.metrics != nil {
		s.metrics.OrdersCancelledTotal.Inc()
	}
	s.logger.InfoContext(ctx, "order cancelled",
		"order_id", o.ID, "actor", actorID,
		"refund_attempted", res.RefundAttempted, "refund_succeeded", res.RefundSucceeded)

	s.publish(o, res)
	return res, nil
}

func (s *RefundService) refund(ctx context.Context, providerName, ref string) (RefundResult, error) {
	p, err := s.registry.Get(providerName)
	if err != nil {
		return RefundResult{}, err
	}
	return p.Refund(ctx, ref)
}

func (s *RefundService) publish(o orders.Order, res CancelResult) {
	ps := o.PaymentStatus
	if res.RefundSucceeded {
		ps = orders.PaymentRefunded
	}
	ev := notify.OrderEvent{
		Type:          "order.cancelled",
		OrderID:       o.ID,
		OrderNumber:   o.OrderNumber,
		Status:        orders.StatusCancelled,
		PaymentStatus: ps,
		TotalCents:    o.TotalCents,
		Currency:      o.Currency,
		OccurredAt:    time.Now(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.notify.PublishOrderEvent(ctx, ev); err != nil {
			s.logger.Error("order event publish failed", "order_id", ev.OrderID, "err", err)
		}
	}()
}
