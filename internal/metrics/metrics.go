package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// StoreMetrics: checkout/ödeme akışının sayaçları.
type StoreMetrics struct {
	CheckoutsCreatedTotal  prometheus.Counter
	OrdersCompletedTotal   *prometheus.CounterVec
	OrdersCancelledTotal   prometheus.Counter
	WebhookEventsTotal     *prometheus.CounterVec
	PaymentsVerifiedTotal  *prometheus.CounterVec
	RefundsAttemptedTotal  prometheus.Counter
	RefundsSucceededTotal  prometheus.Counter
}

func New(reg prometheus.Registerer) *StoreMetrics {
	f := promauto.With(reg)
	return &StoreMetrics{
		CheckoutsCreatedTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "store_checkouts_created_total",
			Help: "Checkout sessions created",
		}),
		OrdersCompletedTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "store_orders_completed_total",
			Help: "Orders created from completed checkouts",
		}, []string{"provider"}),
		OrdersCancelledTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "store_orders_cancelled_total",
			Help: "Orders cancelled by an admin",
		}),
		WebhookEventsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "store_webhook_events_total",
			Help: "Inbound provider webhook events by outcome",
		}, []string{"provider", "type", "result"}),
		PaymentsVerifiedTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "store_payments_verified_total",
			Help: "Synchronous payment verifications by outcome",
		}, []string{"provider", "result"}),
		RefundsAttemptedTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "store_refunds_attempted_total",
			Help: "Provider refund attempts during cancellation",
		}),
		RefundsSucceededTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "store_refunds_succeeded_total",
			Help: "Provider refunds that succeeded",
		}),
	}
}
