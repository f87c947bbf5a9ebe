package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// EventRecord dedups webhook deliveries. One row per (provider, event id);
// ProcessedAt marks that the event's side effects ran.
type EventRecord struct {
	ID          snowflake.ID   `json:"id" gorm:"primaryKey"`
	Provider    string         `json:"provider" gorm:"type:text;not null;uniqueIndex:ux_payment_events_provider_event,priority:1"`
	EventID     string         `json:"event_id" gorm:"type:text;not null;uniqueIndex:ux_payment_events_provider_event,priority:2"`
	Payload     datatypes.JSON `json:"payload" gorm:"type:jsonb"`
	ReceivedAt  time.Time      `json:"received_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	ProcessedAt *time.Time     `json:"processed_at,omitempty"`
}

func (EventRecord) TableName() string { return "payment_events" }

// WebhookRequest is a raw gateway delivery before verification.
type WebhookRequest struct {
	Payload   []byte
	Signature string // x-signature header
	RequestID string // x-request-id header
	DataID    string // data.id query parameter
}

// ConfirmationEvent is a verified, approved payment tied back to a quote.
type ConfirmationEvent struct {
	Provider    string
	EventID     string
	QuoteID     snowflake.ID
	AmountCents int64
	Status      string
}

// Gateway abstracts the payment provider.
type Gateway interface {
	// CreateCheckout returns a hosted checkout URL carrying the quote ID as
	// external reference.
	CreateCheckout(ctx context.Context, req CheckoutRequest) (string, error)

	// VerifyAndParse authenticates a webhook delivery and resolves it to a
	// confirmation event. Deliveries that are authentic but not approved
	// payments return ErrEventIgnored.
	VerifyAndParse(ctx context.Context, req WebhookRequest) (*ConfirmationEvent, error)
}

type CheckoutRequest struct {
	QuoteID      snowflake.ID
	AmountCents  int64
	Currency     string
	Title        string
	CustomerName string
}

type Repository interface {
	InsertEvent(ctx context.Context, db *gorm.DB, rec *EventRecord) error
	FindEvent(ctx context.Context, db *gorm.DB, provider, eventID string) (*EventRecord, error)
	MarkProcessed(ctx context.Context, db *gorm.DB, id snowflake.ID) error
}

type Service interface {
	// IngestWebhook runs the confirmation pipeline. ErrInvalidSignature maps
	// to 401; every other outcome acknowledges the delivery.
	IngestWebhook(ctx context.Context, req WebhookRequest) error
}

var (
	ErrInvalidSignature      = errors.New("invalid_signature")
	ErrEventIgnored          = errors.New("event_ignored")
	ErrEventAlreadyProcessed = errors.New("event_already_processed")
)
