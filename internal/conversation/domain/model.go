package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Turn roles. System notes record lifecycle facts the model should see on
// later turns (payment confirmations, delivery failures).
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
	RoleSystem    = "system"
)

// Conversation is the single long-lived thread for a user. One per user.
type Conversation struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	UserID    snowflake.ID `json:"user_id" gorm:"not null;uniqueIndex:ux_conversations_user_id"`
	CreatedAt time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Conversation) TableName() string { return "conversations" }

// Turn is one append-only entry in a conversation. Seq orders turns within
// the conversation; rows are never updated or deleted.
type Turn struct {
	ID             snowflake.ID `json:"id" gorm:"primaryKey"`
	ConversationID snowflake.ID `json:"conversation_id" gorm:"not null;index:ix_turns_conversation_seq,priority:1"`
	Seq            int64        `json:"seq" gorm:"not null;index:ix_turns_conversation_seq,priority:2"`
	Role           string       `json:"role" gorm:"type:text;not null"`
	Content        string       `json:"content" gorm:"type:text;not null"`
	ToolName       string       `json:"tool_name,omitempty" gorm:"type:text"`
	CreatedAt      time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Turn) TableName() string { return "conversation_turns" }

type Repository interface {
	CreateConversation(ctx context.Context, db *gorm.DB, conv *Conversation) error
	FindByUserID(ctx context.Context, db *gorm.DB, userID snowflake.ID) (*Conversation, error)
	MaxSeq(ctx context.Context, db *gorm.DB, conversationID snowflake.ID) (int64, error)
	AppendTurns(ctx context.Context, db *gorm.DB, turns []*Turn) error
	ListTurns(ctx context.Context, db *gorm.DB, conversationID snowflake.ID, limit int) ([]Turn, error)
}

type Service interface {
	// EnsureForUser returns the user's conversation, creating it on first
	// contact. isNew reports whether this call created it.
	EnsureForUser(ctx context.Context, userID snowflake.ID) (conv *Conversation, isNew bool, err error)

	// History returns the most recent turns in ascending Seq order.
	History(ctx context.Context, conversationID snowflake.ID, limit int) ([]Turn, error)

	// AppendTurns assigns contiguous Seq values and persists the batch
	// atomically.
	AppendTurns(ctx context.Context, conversationID snowflake.ID, entries []TurnEntry) error

	// AppendSystemNote records a lifecycle fact on the user's conversation.
	AppendSystemNote(ctx context.Context, userID snowflake.ID, note string) error
}

// TurnEntry is a turn awaiting persistence; the service assigns ID and Seq.
type TurnEntry struct {
	Role     string
	Content  string
	ToolName string
}

var (
	ErrNotFound    = errors.New("not_found")
	ErrInvalidRole = errors.New("invalid_role")
)
