package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Quote lifecycle. A quote moves quoted -> paid exactly once; the transition
// is a conditional update keyed on the current status.
const (
	StatusQuoted = "quoted"
	StatusPaid   = "paid"
)

type Quote struct {
	ID             snowflake.ID   `json:"id" gorm:"primaryKey"`
	UserID         snowflake.ID   `json:"user_id" gorm:"not null;index:ix_quotes_user_id"`
	ProductID      snowflake.ID   `json:"product_id" gorm:"not null"`
	ProductType    string         `json:"product_type" gorm:"type:text;not null"`
	Status         string         `json:"status" gorm:"type:text;not null;default:quoted"`
	Facts          datatypes.JSON `json:"facts" gorm:"type:jsonb"`
	PremiumCents   int64          `json:"premium_cents" gorm:"not null"`
	Currency       string         `json:"currency" gorm:"type:text;not null"`
	CheckoutURL    string         `json:"checkout_url" gorm:"type:text"`
	CertificateURL string         `json:"certificate_url" gorm:"type:text"`
	PaidAt         *time.Time     `json:"paid_at,omitempty"`
	CreatedAt      time.Time      `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt      time.Time      `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Quote) TableName() string { return "quotes" }

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, quote *Quote) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Quote, error)
	FindLatestByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID) (*Quote, error)
	Update(ctx context.Context, db *gorm.DB, id snowflake.ID, fields map[string]any) error

	// TransitionStatus updates the quote's status only when it currently has
	// the expected one. Returns the number of rows changed.
	TransitionStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, from, to string, fields map[string]any) (int64, error)
}

type CreateRequest struct {
	UserID       snowflake.ID
	ProductID    snowflake.ID
	ProductType  string
	Facts        []byte
	PremiumCents int64
	Currency     string
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Quote, error)
	GetByID(ctx context.Context, id snowflake.ID) (*Quote, error)
	LatestForUser(ctx context.Context, userID snowflake.ID) (*Quote, error)
	AttachCheckout(ctx context.Context, id snowflake.ID, checkoutURL string) error
	SetCertificateURL(ctx context.Context, id snowflake.ID, certificateURL string) error

	// MarkPaid performs the quoted -> paid transition. The first caller wins;
	// ErrAlreadyPaid tells later callers the quote was settled before them.
	MarkPaid(ctx context.Context, id snowflake.ID) (*Quote, error)
}

var (
	ErrNotFound       = errors.New("not_found")
	ErrInvalidPremium = errors.New("invalid_premium")
	ErrAlreadyPaid    = errors.New("already_paid")
)
