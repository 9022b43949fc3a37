package customers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Customer struct {
	ID        string  `gorm:"type:char(36);primaryKey"`
	Email     string  `gorm:"type:varchar(255);not null;uniqueIndex"`
	Name      *string `gorm:"type:varchar(255)"`
	Guest     bool    `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Customer) TableName() string { return "customers" }

type Repo struct{ db *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{db: db} }

// NormalizeEmail: lowercase + trim. Checkout bu normalize edilmiş
// değeri saklar.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *Repo) FindByEmail(ctx context.Context, email string) (Customer, bool, error) {
	var c Customer
	err := r.db.WithContext(ctx).First(&c, "email = ?", NormalizeEmail(email)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Customer{}, false, nil
	}
	if err != nil {
		return Customer{}, false, err
	}
	return c, true, nil
}

func (r *Repo) CreateGuest(ctx context.Context, email string, name *string) (Customer, error) {
	now := time.Now()
	c := Customer{
		ID:        uuid.NewString(),
		Email:     NormalizeEmail(email),
		Name:      name,
		Guest:     true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.db.WithContext(ctx).Create(&c).Error; err != nil {
		return Customer{}, err
	}
	return c, nil
}
