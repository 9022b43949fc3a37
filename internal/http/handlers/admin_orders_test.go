package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"veloria.shop/app/internal/http/middleware"
	"veloria.shop/app/internal/modules/orders"
)

const testAdminToken = "test-token"

func newAdminRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&orders.Order{}, &orders.OrderItem{}, &orders.OrderStatusChange{}, &orders.Sequence{},
	))

	l := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewAdminOrdersHandler(db, orders.NewService(db), nil)

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.ErrorHandler(l))
	admin := r.Group("/api/admin", middleware.RequireAdmin(testAdminToken))
	admin.POST("/orders/:id/status", h.ChangeStatus)
	return r, db
}

func seedAdminOrder(t *testing.T, db *gorm.DB) orders.Order {
	t.Helper()

	now := time.Now()
	o := orders.Order{
		ID:                uuid.NewString(),
		OrderNumber:       now.UnixNano(),
		CheckoutID:        uuid.NewString()[:32],
		Email:             "buyer@example.com",
		SubtotalCents:     5000,
		TaxCents:          500,
		TotalCents:        5500,
		Currency:          "EUR",
		Status:            orders.StatusPending,
		PaymentStatus:     orders.PaymentPending,
		FulfillmentStatus: orders.FulfillmentUnfulfilled,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	require.NoError(t, db.Create(&o).Error)
	return o
}

func postStatus(t *testing.T, r *gin.Engine, orderID, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/admin/orders/"+orderID+"/status", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+testAdminToken)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestChangeStatusManualPaidAsksForConfirmation(t *testing.T) {
	r, db := newAdminRouter(t)
	o := seedAdminOrder(t, db)

	// payment reference yok, reason yok: 400 + re-prompt flag'i
	w := postStatus(t, r, o.ID, `{"field":"payment_status","value":"paid"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["confirmation_required"])
	assert.NotEmpty(t, resp["error"])

	// reason verilince kabul edilir
	w = postStatus(t, r, o.ID, `{"field":"payment_status","value":"paid","reason":"bank transfer received"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var got orders.Order
	require.NoError(t, db.First(&got, "id = ?", o.ID).Error)
	assert.Equal(t, orders.PaymentPaid, got.PaymentStatus)
}

func TestChangeStatusRequiresAuth(t *testing.T) {
	r, db := newAdminRouter(t)
	o := seedAdminOrder(t, db)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/orders/"+o.ID+"/status",
		strings.NewReader(`{"field":"status","value":"processing"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
