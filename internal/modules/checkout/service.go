package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jaevor/go-nanoid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"veloria.shop/app/internal/mailer"
	"veloria.shop/app/internal/metrics"
	"veloria.shop/app/internal/modules/catalog"
	"veloria.shop/app/internal/modules/customers"
	"veloria.shop/app/internal/modules/orders"
	"veloria.shop/app/internal/modules/payments"
	"veloria.shop/app/internal/modules/pricing"
	"veloria.shop/app/internal/notify"
)

type Service struct {
	db        *gorm.DB
	catalog   *catalog.Repo
	customers *customers.Repo
	pricing   *pricing.Engine
	registry  *payments.Registry
	mail      mailer.Service
	notify    notify.Publisher
	metrics   *metrics.StoreMetrics
	logger    *slog.Logger

	currency        string
	ttl             time.Duration
	orderNumberBase int64
	mailFrom        string
	mailFromName    string

	newID func() string
}

type ServiceOpts struct {
	DB        *gorm.DB
	Catalog   *catalog.Repo
	Customers *customers.Repo
	Pricing   *pricing.Engine
	Registry  *payments.Registry
	Mail      mailer.Service
	Notify    notify.Publisher
	Metrics   *metrics.StoreMetrics
	Logger    *slog.Logger

	Currency        string
	TTL             time.Duration
	OrderNumberBase int64
	MailFrom        string
	MailFromName    string
}

func NewService(o ServiceOpts) *Service {
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Notify == nil {
		o.Notify = notify.Nop{}
	}
	if o.TTL <= 0 {
		o.TTL = 24 * time.Hour
	}
	gen, err := nanoid.Standard(21)
	if err != nil {
		panic(err) // sadece geçersiz uzunlukta olur
	}
	return &Service{
		db:              o.DB,
		catalog:         o.Catalog,
		customers:       o.Customers,
		pricing:         o.Pricing,
		registry:        o.Registry,
		mail:            o.Mail,
		notify:          o.Notify,
		metrics:         o.Metrics,
		logger:          o.Logger,
		currency:        o.Currency,
		ttl:             o.TTL,
		orderNumberBase: o.OrderNumberBase,
		mailFrom:        o.MailFrom,
		mailFromName:    o.MailFromName,
		newID:           gen,
	}
}

type ItemInput struct {
	VariantID string `json:"variant_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required"`
}

// Create: boş sepet kabul edilmez; her satır için katalog snapshot'ı
// alınır ve tutarlar hemen hesaplanır.
func (s *Service) Create(ctx context.Context, items []ItemInput) (Checkout, error) {
	if len(items) == 0 {
		return Checkout{}, ErrEmptyCart
	}

	now := time.Now()
	c := Checkout{
		ID:        s.newID(),
		Currency:  s.currency,
		Status:    StatusOpen,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	for _, in := range items {
		if in.Quantity <= 0 {
			return Checkout{}, ErrInvalidQuantity
		}
		v, err := s.catalog.GetVariant(ctx, in.VariantID)
		if err != nil {
			return Checkout{}, err
		}
		p, err := s.catalog.Get(ctx, v.ProductID)
		if err != nil {
			return Checkout{}, err
		}
		img, err := s.catalog.FirstImage(ctx, p.ID)
		if err != nil {
			return Checkout{}, err
		}
		c.Items = append(c.Items, CheckoutItem{
			ID:             uuid.NewString(),
			CheckoutID:     c.ID,
			ProductID:      p.ID,
			VariantID:      v.ID,
			ProductName:    p.Name,
			SKU:            v.SKU,
			ImageURL:       img,
			UnitPriceCents: v.PriceCents,
			Quantity:       in.Quantity,
			LineTotalCents: v.PriceCents * int64(in.Quantity),
			Currency:       s.currency,
			CreatedAt:      now,
		})
	}

	s.recompute(&c)

	if err := s.db.WithContext(ctx).Create(&c).Error; err != nil {
		return Checkout{}, err
	}
	if s.metrics != nil {
		s.metrics.CheckoutsCreatedTotal.Inc()
	}
	s.logger.InfoContext(ctx, "checkout created",
		"checkout_id", c.ID, "items", len(c.Items), "total_cents", c.TotalCents)
	return c, nil
}

func (s *Service) Get(ctx context.Context, id string) (Checkout, error) {
	var c Checkout
	err := s.db.WithContext(ctx).Preload("Items").First(&c, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Checkout{}, ErrCheckoutNotFound
	}
	return c, err
}

// SetCustomerInfo: email normalize edilerek saklanır; customer kaydıyla
// eşleme completion sırasında yapılır.
func (s *Service) SetCustomerInfo(ctx context.Context, id, email, name string) (Checkout, error) {
	if customers.NormalizeEmail(email) == "" {
		return Checkout{}, ErrEmailRequired
	}
	return s.mutate(ctx, id, func(c *Checkout) error {
		e := customers.NormalizeEmail(email)
		c.Email = &e
		if n := name; n != "" {
			c.CustomerName = &n
		}
		return nil
	})
}

func (s *Service) SetShippingAddress(ctx context.Context, id string, addr ShippingAddress) (Checkout, error) {
	if err := addr.Validate(); err != nil {
		return Checkout{}, err
	}
	raw, err := json.Marshal(addr)
	if err != nil {
		return Checkout{}, err
	}
	return s.mutate(ctx, id, func(c *Checkout) error {
		c.ShippingAddressJSON = datatypes.JSON(raw)
		return nil
	})
}

// SetShippingMethod: kargo seçimi adres olmadan yapılamaz.
func (s *Service) SetShippingMethod(ctx context.Context, id, rateID string) (Checkout, error) {
	if _, ok := pricing.FindShippingRate(rateID); !ok {
		return Checkout{}, pricing.ErrInvalidShippingRate
	}
	return s.mutate(ctx, id, func(c *Checkout) error {
		if len(c.ShippingAddressJSON) == 0 {
			return ErrAddressRequired
		}
		c.ShippingRateID = &rateID
		return nil
	})
}

// CreateIntent: provider'da ödeme başlatır ve referansı checkout'a yazar.
// Email, adres ve kargo yöntemi tamamlanmadan intent oluşturulamaz.
func (s *Service) CreateIntent(ctx context.Context, id, providerName string) (Checkout, payments.Intent, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return Checkout{}, payments.Intent{}, err
	}
	if err := s.guardOpen(c); err != nil {
		return Checkout{}, payments.Intent{}, err
	}
	if err := s.requireReady(c); err != nil {
		return Checkout{}, payments.Intent{}, err
	}

	provider, err := s.registry.Get(providerName)
	if err != nil {
		return Checkout{}, payments.Intent{}, err
	}

	intent, err := provider.CreateIntent(ctx, c.TotalCents, c.Currency, map[string]string{
		"checkout_id": c.ID,
	})
	if err != nil {
		return Checkout{}, payments.Intent{}, fmt.Errorf("create payment intent: %w", err)
	}

	name := provider.Name()
	updates := map[string]any{
		"payment_provider": name,
		"payment_ref":      intent.ProviderRef,
		"updated_at":       time.Now(),
	}
	if err := s.db.WithContext(ctx).Model(&Checkout{}).
		Where("id = ?", c.ID).Updates(updates).Error; err != nil {
		return Checkout{}, payments.Intent{}, err
	}
	c.PaymentProvider = &name
	c.PaymentRef = &intent.ProviderRef

	s.logger.InfoContext(ctx, "payment intent created",
		"checkout_id", c.ID, "provider", name, "ref", intent.ProviderRef)
	return c, intent, nil
}

// Complete: ödemeyi provider'dan senkron doğrular, sonra order'ı tek
// transaction'da yaratır. Checkout başına en fazla bir order oluşur;
// completed bir checkout terminaldir, ikinci çağrı ErrCompleted döner.
func (s *Service) Complete(ctx context.Context, id string) (orders.Order, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return orders.Order{}, err
	}
	if err := s.guardOpen(c); err != nil {
		return orders.Order{}, err
	}
	if err := s.requireReady(c); err != nil {
		return orders.Order{}, err
	}
	if c.PaymentProvider == nil || c.PaymentRef == nil {
		return orders.Order{}, ErrPaymentNotInitiated
	}

	// faz 1: provider doğrulaması transaction dışında
	provider, err := s.registry.Get(*c.PaymentProvider)
	if err != nil {
		return orders.Order{}, err
	}
	if _, err := provider.VerifyCompletion(ctx, *c.PaymentRef, c.TotalCents); err != nil {
		s.countVerify(provider.Name(), err)
		return orders.Order{}, err
	}
	s.countVerify(provider.Name(), nil)

	cust, err := s.resolveCustomer(ctx, c)
	if err != nil {
		return orders.Order{}, err
	}

	// faz 2: order yaratımı
	var o orders.Order
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()

		// optimistic guard: checkout'u open'dan completed'a ilk geçiren kazanır
		res := tx.WithContext(ctx).Model(&Checkout{}).
			Where("id = ? AND status = ?", c.ID, StatusOpen).
			Updates(map[string]any{"status": StatusCompleted, "completed_at": now, "updated_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// eşzamanlı completion kazandı; bu çağrı için checkout terminal
			return ErrCompleted
		}

		number, err := orders.NextOrderNumberTx(ctx, tx, s.orderNumberBase)
		if err != nil {
			return err
		}

		o = orders.Order{
			ID:                  uuid.NewString(),
			OrderNumber:         number,
			CheckoutID:          c.ID,
			CustomerID:          &cust.ID,
			Email:               *c.Email,
			ShippingAddressJSON: c.ShippingAddressJSON,
			SubtotalCents:       c.SubtotalCents,
			ShippingCents:       c.ShippingCents,
			TaxCents:            c.TaxCents,
			TotalCents:          c.TotalCents,
			Currency:            c.Currency,
			Status:              orders.StatusPending,
			PaymentStatus:       orders.PaymentPaid,
			FulfillmentStatus:   orders.FulfillmentUnfulfilled,
			PaymentProvider:     c.PaymentProvider,
			PaymentRef:          c.PaymentRef,
			CreatedAt:           now,
			UpdatedAt:           now,
			PaidAt:              &now,
		}
		if err := tx.WithContext(ctx).Create(&o).Error; err != nil {
			return err
		}

		for _, it := range c.Items {
			oi := orders.OrderItem{
				ID:             uuid.NewString(),
				OrderID:        o.ID,
				ProductID:      it.ProductID,
				VariantID:      it.VariantID,
				ProductName:    it.ProductName,
				SKU:            it.SKU,
				ImageURL:       it.ImageURL,
				UnitPriceCents: it.UnitPriceCents,
				Quantity:       it.Quantity,
				LineTotalCents: it.LineTotalCents,
				Currency:       it.Currency,
				CreatedAt:      now,
			}
			if err := tx.WithContext(ctx).Create(&oi).Error; err != nil {
				return err
			}
		}

		reason := fmt.Sprintf("payment verified via %s", *c.PaymentProvider)
		if err := orders.AppendStatusChangeTx(ctx, tx, o.ID,
			orders.FieldPaymentStatus, orders.PaymentPending, orders.PaymentPaid,
			orders.ActorCheckout, reason); err != nil {
			return err
		}

		return tx.WithContext(ctx).Model(&Checkout{}).
			Where("id = ?", c.ID).Update("order_id", o.ID).Error
	})
	if err != nil {
		return orders.Order{}, err
	}

	if s.metrics != nil {
		s.metrics.OrdersCompletedTotal.WithLabelValues(*c.PaymentProvider).Inc()
	}
	s.logger.InfoContext(ctx, "checkout completed",
		"checkout_id", c.ID, "order_id", o.ID, "order_number", o.OrderNumber)

	s.afterComplete(c, o)
	return o, nil
}

// mutate: open guard + mutasyon + tutarların yeniden hesabı tek yerde.
func (s *Service) mutate(ctx context.Context, id string, fn func(c *Checkout) error) (Checkout, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return Checkout{}, err
	}
	if err := s.guardOpen(c); err != nil {
		return Checkout{}, err
	}
	if err := fn(&c); err != nil {
		return Checkout{}, err
	}

	s.recompute(&c)
	c.UpdatedAt = time.Now()

	updates := map[string]any{
		"email":                 c.Email,
		"customer_name":         c.CustomerName,
		"shipping_address_json": c.ShippingAddressJSON,
		"shipping_rate_id":      c.ShippingRateID,
		"subtotal_cents":        c.SubtotalCents,
		"shipping_cents":        c.ShippingCents,
		"tax_cents":             c.TaxCents,
		"total_cents":           c.TotalCents,
		"updated_at":            c.UpdatedAt,
	}
	if err := s.db.WithContext(ctx).Model(&Checkout{}).
		Where("id = ?", c.ID).Updates(updates).Error; err != nil {
		return Checkout{}, err
	}
	return c, nil
}

// recompute: subtotal satırlardan, shipping seçili yönteme göre, tax
// yalnız subtotal üzerinden. Adres değişikliği vergiyi etkilemez.
func (s *Service) recompute(c *Checkout) {
	items := make([]pricing.LineItem, len(c.Items))
	for i, it := range c.Items {
		items[i] = pricing.LineItem{UnitPriceCents: it.UnitPriceCents, Quantity: it.Quantity}
	}
	c.SubtotalCents = s.pricing.ComputeSubtotal(items)

	c.ShippingCents = 0
	if c.ShippingRateID != nil {
		if cents, err := s.pricing.ComputeShipping(c.SubtotalCents, *c.ShippingRateID); err == nil {
			c.ShippingCents = cents
		}
	}

	c.TaxCents = s.pricing.ComputeTax(c.SubtotalCents)
	c.TotalCents = s.pricing.ComputeTotal(c.SubtotalCents, c.ShippingCents, c.TaxCents)
}

func (s *Service) guardOpen(c Checkout) error {
	switch c.Status {
	case StatusCompleted:
		return ErrCompleted
	case StatusExpired:
		return ErrExpired
	}
	if time.Now().After(c.ExpiresAt) {
		return ErrExpired
	}
	return nil
}

func (s *Service) requireReady(c Checkout) error {
	if c.Email == nil || *c.Email == "" {
		return ErrEmailRequired
	}
	if len(c.ShippingAddressJSON) == 0 {
		return ErrAddressRequired
	}
	if c.ShippingRateID == nil {
		return ErrShippingMethodRequired
	}
	return nil
}

func (s *Service) resolveCustomer(ctx context.Context, c Checkout) (customers.Customer, error) {
	cust, ok, err := s.customers.FindByEmail(ctx, *c.Email)
	if err != nil {
		return customers.Customer{}, err
	}
	if ok {
		return cust, nil
	}
	return s.customers.CreateGuest(ctx, *c.Email, c.CustomerName)
}

func (s *Service) countVerify(provider string, err error) {
	if s.metrics == nil {
		return
	}
	result := "verified"
	var nc *payments.NotCompletedError
	var am *payments.AmountMismatchError
	switch {
	case err == nil:
	case errors.As(err, &nc):
		result = "not_completed"
	case errors.As(err, &am):
		result = "amount_mismatch"
	default:
		result = "error"
	}
	s.metrics.PaymentsVerifiedTotal.WithLabelValues(provider, result).Inc()
}

// afterComplete: makbuz maili ve event yayını fire-and-forget.
func (s *Service) afterComplete(c Checkout, o orders.Order) {
	ev := notify.OrderEvent{
		Type:          "order.completed",
		OrderID:       o.ID,
		OrderNumber:   o.OrderNumber,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		TotalCents:    o.TotalCents,
		Currency:      o.Currency,
		OccurredAt:    time.Now(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.notify.PublishOrderEvent(ctx, ev); err != nil {
			s.logger.Error("order event publish failed", "order_id", o.ID, "err", err)
		}
		if s.mail != nil {
			if err := s.mail.Send(ctx, s.receiptEmail(c, o)); err != nil {
				s.logger.Error("receipt mail failed", "order_id", o.ID, "err", err)
			}
		}
	}()
}
