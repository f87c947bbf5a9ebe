package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/polisbot/polisbot/internal/payment/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertEvent(ctx context.Context, db *gorm.DB, rec *domain.EventRecord) error {
	return db.WithContext(ctx).Create(rec).Error
}

func (r *repo) FindEvent(ctx context.Context, db *gorm.DB, provider, eventID string) (*domain.EventRecord, error) {
	var rec domain.EventRecord
	err := db.WithContext(ctx).
		Where("provider = ? AND event_id = ?", provider, eventID).
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func (r *repo) MarkProcessed(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Model(&domain.EventRecord{}).
		Where("id = ?", id).
		Update("processed_at", time.Now().UTC()).Error
}
