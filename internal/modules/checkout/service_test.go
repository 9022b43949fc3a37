package checkout

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"veloria.shop/app/internal/mailer"
	"veloria.shop/app/internal/modules/catalog"
	"veloria.shop/app/internal/modules/customers"
	"veloria.shop/app/internal/modules/orders"
	"veloria.shop/app/internal/modules/payments"
	"veloria.shop/app/internal/modules/pricing"
)

// stubProvider: senkron doğrulama sonucunu test belirler.
type stubProvider struct {
	name      string
	verifyErr error
	intents   int
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) CreateIntent(_ context.Context, amountCents int64, _ string, _ map[string]string) (payments.Intent, error) {
	s.intents++
	return payments.Intent{ClientToken: "tok_secret", ProviderRef: "ref_1"}, nil
}

func (s *stubProvider) VerifyCompletion(context.Context, string, int64) (payments.Verification, error) {
	if s.verifyErr != nil {
		return payments.Verification{Status: "failed"}, s.verifyErr
	}
	return payments.Verification{Status: "succeeded", Verified: true}, nil
}

func (s *stubProvider) Refund(context.Context, string) (payments.RefundResult, error) {
	return payments.RefundResult{}, errors.New("not implemented")
}

func (s *stubProvider) VerifyAndParseWebhook(http.Header, []byte) (payments.WebhookEvent, error) {
	return payments.WebhookEvent{}, errors.New("not implemented")
}

type fixture struct {
	db       *gorm.DB
	svc      *Service
	provider *stubProvider
	mail     *mailer.Mock
	variant  catalog.ProductVariant
	cheap    catalog.ProductVariant
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&catalog.Product{}, &catalog.ProductVariant{}, &catalog.ProductImage{},
		&customers.Customer{},
		&Checkout{}, &CheckoutItem{},
		&orders.Order{}, &orders.OrderItem{}, &orders.OrderStatusChange{}, &orders.Sequence{},
	))

	p := catalog.Product{ID: uuid.NewString(), Name: "Wool Sweater", Slug: "wool-sweater", Status: "active"}
	require.NoError(t, db.Create(&p).Error)
	v := catalog.ProductVariant{
		ID: uuid.NewString(), ProductID: p.ID, SKU: "WS-M", Title: "Medium",
		PriceCents: 4500, Currency: "EUR",
	}
	require.NoError(t, db.Create(&v).Error)
	require.NoError(t, db.Create(&catalog.ProductImage{
		ID: uuid.NewString(), ProductID: p.ID, URL: "https://img.example/ws.jpg", Position: 0,
	}).Error)

	p2 := catalog.Product{ID: uuid.NewString(), Name: "Socks", Slug: "socks", Status: "active"}
	require.NoError(t, db.Create(&p2).Error)
	cheap := catalog.ProductVariant{
		ID: uuid.NewString(), ProductID: p2.ID, SKU: "SK-1", Title: "One size",
		PriceCents: 500, Currency: "EUR",
	}
	require.NoError(t, db.Create(&cheap).Error)

	provider := &stubProvider{name: "stripe"}
	mock := &mailer.Mock{}

	svc := NewService(ServiceOpts{
		DB:              db,
		Catalog:         catalog.NewRepo(db),
		Customers:       customers.NewRepo(db),
		Pricing:         pricing.NewEngine(7500, "0.10"),
		Registry:        payments.NewRegistry(provider),
		Mail:            mock,
		Currency:        "EUR",
		TTL:             time.Hour,
		OrderNumberBase: 1000,
		MailFrom:        "no-reply@example.com",
		MailFromName:    "Test Shop",
	})

	return &fixture{db: db, svc: svc, provider: provider, mail: mock, variant: v, cheap: cheap}
}

func validAddress() ShippingAddress {
	return ShippingAddress{
		FirstName: "Ada", LastName: "Lovelace",
		Address1: "1 Analytical Way", City: "London", Country: "GB", Zip: "N1 9GU",
	}
}

// sepeti ödemeye hazır hale getirir
func (f *fixture) readyCheckout(t *testing.T, items []ItemInput) Checkout {
	t.Helper()
	ctx := context.Background()

	c, err := f.svc.Create(ctx, items)
	require.NoError(t, err)
	_, err = f.svc.SetCustomerInfo(ctx, c.ID, "Ada@Example.com", "Ada")
	require.NoError(t, err)
	_, err = f.svc.SetShippingAddress(ctx, c.ID, validAddress())
	require.NoError(t, err)
	c, err = f.svc.SetShippingMethod(ctx, c.ID, "standard")
	require.NoError(t, err)
	return c
}

func TestCreateComputesTotals(t *testing.T) {
	f := newFixture(t)

	c, err := f.svc.Create(context.Background(), []ItemInput{
		{VariantID: f.variant.ID, Quantity: 2},
	})
	require.NoError(t, err)

	assert.Equal(t, StatusOpen, c.Status)
	require.Len(t, c.Items, 1)
	assert.Equal(t, "Wool Sweater", c.Items[0].ProductName)
	assert.Equal(t, "WS-M", c.Items[0].SKU)
	assert.Equal(t, "https://img.example/ws.jpg", c.Items[0].ImageURL)
	assert.Equal(t, int64(9000), c.Items[0].LineTotalCents)

	assert.Equal(t, int64(9000), c.SubtotalCents)
	assert.Equal(t, int64(0), c.ShippingCents) // yöntem seçilmedi
	assert.Equal(t, int64(900), c.TaxCents)
	assert.Equal(t, c.SubtotalCents+c.ShippingCents+c.TaxCents, c.TotalCents)
}

func TestCreateRejectsEmptyAndInvalid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, nil)
	assert.ErrorIs(t, err, ErrEmptyCart)

	_, err = f.svc.Create(ctx, []ItemInput{{VariantID: f.variant.ID, Quantity: 0}})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = f.svc.Create(ctx, []ItemInput{{VariantID: "missing", Quantity: 1}})
	assert.ErrorIs(t, err, catalog.ErrVariantNotFound)
}

func TestTotalsInvariantAfterEveryMutation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.svc.Create(ctx, []ItemInput{{VariantID: f.cheap.ID, Quantity: 3}})
	require.NoError(t, err)

	check := func(c Checkout) {
		t.Helper()
		assert.Equal(t, c.SubtotalCents+c.ShippingCents+c.TaxCents, c.TotalCents)
	}
	check(c)

	c, err = f.svc.SetCustomerInfo(ctx, c.ID, "a@b.co", "")
	require.NoError(t, err)
	check(c)

	c, err = f.svc.SetShippingAddress(ctx, c.ID, validAddress())
	require.NoError(t, err)
	check(c)

	// 15.00 subtotal: standard eşiğin altında, ücret uygulanır
	c, err = f.svc.SetShippingMethod(ctx, c.ID, "standard")
	require.NoError(t, err)
	assert.Equal(t, int64(599), c.ShippingCents)
	check(c)

	c, err = f.svc.SetShippingMethod(ctx, c.ID, "express")
	require.NoError(t, err)
	assert.Equal(t, int64(1499), c.ShippingCents)
	check(c)
}

func TestFreeShippingThreshold(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// 2 x 45.00 = 90.00 >= 75.00 => standard ücretsiz
	c, err := f.svc.Create(ctx, []ItemInput{{VariantID: f.variant.ID, Quantity: 2}})
	require.NoError(t, err)
	_, err = f.svc.SetShippingAddress(ctx, c.ID, validAddress())
	require.NoError(t, err)
	c, err = f.svc.SetShippingMethod(ctx, c.ID, "standard")
	require.NoError(t, err)
	assert.Equal(t, int64(0), c.ShippingCents)

	// express eşikten etkilenmez
	c, err = f.svc.SetShippingMethod(ctx, c.ID, "express")
	require.NoError(t, err)
	assert.Equal(t, int64(1499), c.ShippingCents)
}

func TestAddressValidationFirstMissingField(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.svc.Create(ctx, []ItemInput{{VariantID: f.variant.ID, Quantity: 1}})
	require.NoError(t, err)

	addr := validAddress()
	addr.FirstName = ""
	addr.City = ""

	_, err = f.svc.SetShippingAddress(ctx, c.ID, addr)
	var mf *MissingFieldError
	require.ErrorAs(t, err, &mf)
	// alanlar sabit sırayla denetlenir
	assert.Equal(t, "first_name", mf.Field)
}

func TestSetShippingMethodRequiresAddress(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.svc.Create(ctx, []ItemInput{{VariantID: f.variant.ID, Quantity: 1}})
	require.NoError(t, err)

	_, err = f.svc.SetShippingMethod(ctx, c.ID, "standard")
	assert.ErrorIs(t, err, ErrAddressRequired)

	// seçim kalıcı olmadı
	got, err := f.svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ShippingRateID)

	_, err = f.svc.SetShippingAddress(ctx, c.ID, validAddress())
	require.NoError(t, err)
	c, err = f.svc.SetShippingMethod(ctx, c.ID, "standard")
	require.NoError(t, err)
	require.NotNil(t, c.ShippingRateID)
	assert.Equal(t, "standard", *c.ShippingRateID)
}

func TestCreateIntentRequiresReadyCheckout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.svc.Create(ctx, []ItemInput{{VariantID: f.variant.ID, Quantity: 1}})
	require.NoError(t, err)

	_, _, err = f.svc.CreateIntent(ctx, c.ID, "stripe")
	assert.ErrorIs(t, err, ErrEmailRequired)

	_, err = f.svc.SetCustomerInfo(ctx, c.ID, "a@b.co", "")
	require.NoError(t, err)
	_, _, err = f.svc.CreateIntent(ctx, c.ID, "stripe")
	assert.ErrorIs(t, err, ErrAddressRequired)

	_, err = f.svc.SetShippingAddress(ctx, c.ID, validAddress())
	require.NoError(t, err)
	_, _, err = f.svc.CreateIntent(ctx, c.ID, "stripe")
	assert.ErrorIs(t, err, ErrShippingMethodRequired)

	_, err = f.svc.SetShippingMethod(ctx, c.ID, "standard")
	require.NoError(t, err)

	_, _, err = f.svc.CreateIntent(ctx, c.ID, "unknown")
	assert.ErrorIs(t, err, payments.ErrUnknownProvider)

	c2, intent, err := f.svc.CreateIntent(ctx, c.ID, "stripe")
	require.NoError(t, err)
	assert.Equal(t, "tok_secret", intent.ClientToken)
	require.NotNil(t, c2.PaymentProvider)
	assert.Equal(t, "stripe", *c2.PaymentProvider)
	require.NotNil(t, c2.PaymentRef)
	assert.Equal(t, "ref_1", *c2.PaymentRef)
}

func TestCompleteCreatesOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c := f.readyCheckout(t, []ItemInput{{VariantID: f.variant.ID, Quantity: 2}})
	_, _, err := f.svc.CreateIntent(ctx, c.ID, "stripe")
	require.NoError(t, err)

	o, err := f.svc.Complete(ctx, c.ID)
	require.NoError(t, err)

	assert.Equal(t, int64(1001), o.OrderNumber)
	assert.Equal(t, c.ID, o.CheckoutID)
	assert.Equal(t, "ada@example.com", o.Email) // normalize edilmiş
	assert.Equal(t, orders.StatusPending, o.Status)
	assert.Equal(t, orders.PaymentPaid, o.PaymentStatus)
	assert.Equal(t, orders.FulfillmentUnfulfilled, o.FulfillmentStatus)
	assert.NotNil(t, o.PaidAt)

	// item snapshot'ları kopyalanır
	var items []orders.OrderItem
	require.NoError(t, f.db.Find(&items, "order_id = ?", o.ID).Error)
	require.Len(t, items, 1)
	assert.Equal(t, "Wool Sweater", items[0].ProductName)
	assert.Equal(t, int64(9000), items[0].LineTotalCents)

	// guest customer yaratıldı ve bağlandı
	require.NotNil(t, o.CustomerID)
	var cust customers.Customer
	require.NoError(t, f.db.First(&cust, "id = ?", *o.CustomerID).Error)
	assert.Equal(t, "ada@example.com", cust.Email)
	assert.True(t, cust.Guest)

	// completion audit satırı
	changes, err := orders.NewRepo(f.db).ListStatusChanges(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, orders.ActorCheckout, changes[0].ActorID)
	assert.Equal(t, orders.PaymentPaid, changes[0].ToValue)

	// makbuz maili async gönderilir
	require.Eventually(t, func() bool { return f.mail.Count() == 1 }, 2*time.Second, 10*time.Millisecond)
	m, ok := f.mail.Last()
	require.True(t, ok)
	assert.Equal(t, []string{"ada@example.com"}, m.To)
	assert.Contains(t, m.Subject, "#1001")
}

func TestCompleteTwiceRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c := f.readyCheckout(t, []ItemInput{{VariantID: f.variant.ID, Quantity: 1}})
	_, _, err := f.svc.CreateIntent(ctx, c.ID, "stripe")
	require.NoError(t, err)

	_, err = f.svc.Complete(ctx, c.ID)
	require.NoError(t, err)

	// completed checkout terminaldir; ikinci çağrı order yaratmaz
	_, err = f.svc.Complete(ctx, c.ID)
	assert.ErrorIs(t, err, ErrCompleted)

	var count int64
	require.NoError(t, f.db.Model(&orders.Order{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCompleteSequentialOrderNumbers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i, want := range []int64{1001, 1002, 1003} {
		c := f.readyCheckout(t, []ItemInput{{VariantID: f.cheap.ID, Quantity: i + 1}})
		_, _, err := f.svc.CreateIntent(ctx, c.ID, "stripe")
		require.NoError(t, err)
		o, err := f.svc.Complete(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, want, o.OrderNumber)
	}
}

func TestCompleteRejectsUnverifiedPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c := f.readyCheckout(t, []ItemInput{{VariantID: f.variant.ID, Quantity: 1}})
	_, _, err := f.svc.CreateIntent(ctx, c.ID, "stripe")
	require.NoError(t, err)

	f.provider.verifyErr = &payments.NotCompletedError{Status: "requires_payment_method"}
	_, err = f.svc.Complete(ctx, c.ID)
	var nc *payments.NotCompletedError
	require.ErrorAs(t, err, &nc)

	// order yaratılmadı, checkout open kaldı
	var count int64
	require.NoError(t, f.db.Model(&orders.Order{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
	got, err := f.svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusOpen, got.Status)

	// ödeme sonra başarılı olursa tamamlanabilir
	f.provider.verifyErr = nil
	_, err = f.svc.Complete(ctx, c.ID)
	require.NoError(t, err)
}

func TestCompleteWithoutIntent(t *testing.T) {
	f := newFixture(t)

	c := f.readyCheckout(t, []ItemInput{{VariantID: f.variant.ID, Quantity: 1}})
	_, err := f.svc.Complete(context.Background(), c.ID)
	assert.ErrorIs(t, err, ErrPaymentNotInitiated)
}

func TestExpiredCheckoutRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c := f.readyCheckout(t, []ItemInput{{VariantID: f.variant.ID, Quantity: 1}})
	_, _, err := f.svc.CreateIntent(ctx, c.ID, "stripe")
	require.NoError(t, err)

	require.NoError(t, f.db.Model(&Checkout{}).Where("id = ?", c.ID).
		Update("expires_at", time.Now().Add(-time.Minute)).Error)

	_, err = f.svc.SetShippingMethod(ctx, c.ID, "express")
	assert.ErrorIs(t, err, ErrExpired)
	_, err = f.svc.Complete(ctx, c.ID)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestCheckoutNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrCheckoutNotFound)
}
