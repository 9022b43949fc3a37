package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"veloria.shop/app/internal/metrics"
	"veloria.shop/app/internal/modules/orders"
	"veloria.shop/app/internal/notify"
)

// ProcessedWebhookEvent: dedup kaydı. unique(provider, event_id)
// eşzamanlı teslimatlarda serialization noktasıdır; insert denemesi
// kilidin kendisidir.
type ProcessedWebhookEvent struct {
	ID          string         `gorm:"type:char(36);primaryKey"`
	Provider    string         `gorm:"type:varchar(64);not null;uniqueIndex:ux_webhook_events_provider_event,priority:1"`
	EventID     string         `gorm:"type:varchar(128);not null;uniqueIndex:ux_webhook_events_provider_event,priority:2"`
	EventType   string         `gorm:"type:varchar(64);not null"`
	PayloadJSON datatypes.JSON `gorm:"type:json"`
	OrderID     *string        `gorm:"type:char(36);index:ix_webhook_events_order_id"`
	ReceivedAt  time.Time      `gorm:"not null"`
}

func (ProcessedWebhookEvent) TableName() string { return "processed_webhook_events" }

type WebhookService struct {
	db      *gorm.DB
	logger  *slog.Logger
	metrics *metrics.StoreMetrics
	notify  notify.Publisher
}

func NewWebhookService(db *gorm.DB, logger *slog.Logger, m *metrics.StoreMetrics, pub notify.Publisher) *WebhookService {
	if logger == nil {
		logger = slog.Default()
	}
	if pub == nil {
		pub = notify.Nop{}
	}
	return &WebhookService{db: db, logger: logger, metrics: m, notify: pub}
}

type HandleResult struct {
	Deduplicated bool
	Applied      bool // order state değişti mi
	OrderID      string
}

// Handle: tek transaction içinde dedup-insert + dispatch + audit.
// Apply hatası tüm tx'i (dedup satırı dahil) geri alır; handler 500
// döner ve provider retry eder. Aynı event id'nin ikinci teslimi
// birinci uygulamayla aynı order state'ini bırakır.
func (s *WebhookService) Handle(ctx context.Context, providerName string, ev WebhookEvent, rawBody []byte) (HandleResult, error) {
	var res HandleResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pe := ProcessedWebhookEvent{
			ID:          uuid.NewString(),
			Provider:    providerName,
			EventID:     ev.EventID,
			EventType:   ev.Type,
			PayloadJSON: datatypes.JSON(rawBody),
			ReceivedAt:  time.Now(),
		}

		// dedupe: unique(provider, event_id)
		if err := tx.WithContext(ctx).Create(&pe).Error; err != nil {
			if isDup(err) {
				s.logger.InfoContext(ctx, "webhook event deduplicated",
					"provider", providerName, "event_id", ev.EventID, "type", ev.Type)
				res.Deduplicated = true
				return nil
			}
			return err
		}

		var to string
		switch ev.Type {
		case EventPaymentSucceeded:
			to = orders.PaymentPaid
		case EventPaymentFailed:
			to = orders.PaymentFailed
		case EventPaymentRefunded:
			to = orders.PaymentRefunded
		default:
			// tanınmayan tip: logla, kaydet, hata üretme
			s.logger.InfoContext(ctx, "webhook event type ignored",
				"provider", providerName, "event_id", ev.EventID, "type", ev.Type)
			return nil
		}

		if ev.PaymentRef == "" {
			return fmt.Errorf("webhook event %s missing payment reference", ev.EventID)
		}

		var o orders.Order
		if err := tx.WithContext(ctx).
			First(&o, "payment_provider = ? AND payment_ref = ?", providerName, ev.PaymentRef).Error; err != nil {
			// order henüz yoksa (webhook completion'dan önce geldi) retry için hata
			return fmt.Errorf("order for %s/%s not found: %w", providerName, ev.PaymentRef, err)
		}

		reason := fmt.Sprintf("%s webhook event %s (%s)", providerName, ev.EventID, ev.Type)
		changed, err := orders.ApplyPaymentStatusTx(ctx, tx, &o, to, orders.ActorWebhook, reason)
		if err != nil {
			return err
		}

		if err := tx.WithContext(ctx).Model(&ProcessedWebhookEvent{}).
			Where("id = ?", pe.ID).
			Update("order_id", o.ID).Error; err != nil {
			return err
		}

		res.Applied = changed
		res.OrderID = o.ID
		if changed {
			s.queueOrderEvent(o)
		}
		return nil
	})
	if err != nil {
		s.count(providerName, ev.Type, "error")
		s.logger.ErrorContext(ctx, "webhook event apply failed",
			"provider", providerName, "event_id", ev.EventID, "type", ev.Type, "err", err)
		return HandleResult{}, err
	}

	switch {
	case res.Deduplicated:
		s.count(providerName, ev.Type, "deduplicated")
	case res.Applied:
		s.count(providerName, ev.Type, "applied")
	default:
		s.count(providerName, ev.Type, "ignored")
	}

	s.logger.InfoContext(ctx, "webhook event processed",
		"provider", providerName, "event_id", ev.EventID, "type", ev.Type,
		"deduplicated", res.Deduplicated, "applied", res.Applied)
	return res, nil
}

func (s *WebhookService) count(provider, eventType, result string) {
	if s.metrics != nil {
		s.metrics.WebhookEventsTotal.WithLabelValues(provider, eventType, result).Inc()
	}
}

func (s *WebhookService) queueOrderEvent(o orders.Order) {
	ev := notify.OrderEvent{
		Type:          "order.payment_changed",
		OrderID:       o.ID,
		OrderNumber:   o.OrderNumber,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
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

func isDup(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
