package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// User is a messaging-channel identity. Created lazily on the first inbound
// message from an unseen address.
type User struct {
	ID          snowflake.ID `json:"id" gorm:"primaryKey"`
	ExternalID  string       `json:"external_id" gorm:"type:text;not null;uniqueIndex:ux_users_external_id"`
	DisplayName string       `json:"display_name" gorm:"type:text"`
	Email       string       `json:"email" gorm:"type:text"`
	Role        string       `json:"role" gorm:"type:text;not null;default:customer"`
	CreatedAt   time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (User) TableName() string { return "users" }

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, user *User) error
	FindByExternalID(ctx context.Context, db *gorm.DB, externalID string) (*User, error)
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*User, error)
	UpdateDisplayName(ctx context.Context, db *gorm.DB, id snowflake.ID, name string) error
}

type Service interface {
	// EnsureByExternalID returns the user for the messaging address,
	// creating it when unseen. Safe against concurrent first contact.
	EnsureByExternalID(ctx context.Context, externalID string) (*User, error)
	GetByID(ctx context.Context, id snowflake.ID) (*User, error)
	UpdateDisplayName(ctx context.Context, id snowflake.ID, name string) error
}

var (
	ErrInvalidExternalID = errors.New("invalid_external_id")
	ErrNotFound          = errors.New("not_found")
)
