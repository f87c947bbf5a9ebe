package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/polisbot/polisbot/internal/conversation/domain"
	"github.com/polisbot/polisbot/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("conversation.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) EnsureForUser(ctx context.Context, userID snowflake.ID) (*domain.Conversation, bool, error) {
	existing, err := s.repo.FindByUserID(ctx, s.db, userID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	now := time.Now().UTC()
	conv := &domain.Conversation{
		ID:        s.genID.Generate(),
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateConversation(ctx, s.db, conv); err != nil {
		if db.IsDuplicateKeyErr(err) {
			conv, err = s.repo.FindByUserID(ctx, s.db, userID)
			if err != nil {
				return nil, false, err
			}
			return conv, false, nil
		}
		return nil, false, err
	}
	return conv, true, nil
}

func (s *Service) History(ctx context.Context, conversationID snowflake.ID, limit int) ([]domain.Turn, error) {
	return s.repo.ListTurns(ctx, s.db, conversationID, limit)
}

func (s *Service) AppendTurns(ctx context.Context, conversationID snowflake.ID, entries []domain.TurnEntry) error {
	if len(entries) == 0 {
		return nil
	}
	for _, e := range entries {
		switch e.Role {
		case domain.RoleUser, domain.RoleAssistant, domain.RoleTool, domain.RoleSystem:
		default:
			return domain.ErrInvalidRole
		}
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seq, err := s.repo.MaxSeq(ctx, tx, conversationID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		turns := make([]*domain.Turn, 0, len(entries))
		for _, e := range entries {
			seq++
			turns = append(turns, &domain.Turn{
				ID:             s.genID.Generate(),
				ConversationID: conversationID,
				Seq:            seq,
				Role:           e.Role,
				Content:        e.Content,
				ToolName:       e.ToolName,
				CreatedAt:      now,
			})
		}
		return s.repo.AppendTurns(ctx, tx, turns)
	})
}

func (s *Service) AppendSystemNote(ctx context.Context, userID snowflake.ID, note string) error {
	conv, _, err := s.EnsureForUser(ctx, userID)
	if err != nil {
		return err
	}
	return s.AppendTurns(ctx, conv.ID, []domain.TurnEntry{
		{Role: domain.RoleSystem, Content: note},
	})
}
