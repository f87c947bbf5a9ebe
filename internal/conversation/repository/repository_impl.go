package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/polisbot/polisbot/internal/conversation/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) CreateConversation(ctx context.Context, db *gorm.DB, conv *domain.Conversation) error {
	return db.WithContext(ctx).Create(conv).Error
}

func (r *repo) FindByUserID(ctx context.Context, db *gorm.DB, userID snowflake.ID) (*domain.Conversation, error) {
	var c domain.Conversation
	err := db.WithContext(ctx).Where("user_id = ?", userID).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *repo) MaxSeq(ctx context.Context, db *gorm.DB, conversationID snowflake.ID) (int64, error) {
	var max *int64
	err := db.WithContext(ctx).Model(&domain.Turn{}).
		Where("conversation_id = ?", conversationID).
		Select("MAX(seq)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	if max == nil {
		return 0, nil
	}
	return *max, nil
}

func (r *repo) AppendTurns(ctx context.Context, db *gorm.DB, turns []*domain.Turn) error {
	if len(turns) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(turns).Error
}

func (r *repo) ListTurns(ctx context.Context, db *gorm.DB, conversationID snowflake.ID, limit int) ([]domain.Turn, error) {
	q := db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("seq DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var turns []domain.Turn
	if err := q.Find(&turns).Error; err != nil {
		return nil, err
	}

	// Fetched newest-first to honor the limit; callers want oldest-first.
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}
