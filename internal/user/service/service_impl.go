package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/polisbot/polisbot/internal/user/domain"
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
		log:   p.Log.Named("user.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) EnsureByExternalID(ctx context.Context, externalID string) (*domain.User, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, domain.ErrInvalidExternalID
	}

	existing, err := s.repo.FindByExternalID(ctx, s.db, externalID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	now := time.Now().UTC()
	u := &domain.User{
		ID:         s.genID.Generate(),
		ExternalID: externalID,
		Role:       domain.RoleCustomer,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Create(ctx, s.db, u); err != nil {
		// Lost a first-contact race; the winner's row is the user.
		if db.IsDuplicateKeyErr(err) {
			return s.repo.FindByExternalID(ctx, s.db, externalID)
		}
		return nil, err
	}

	s.log.Info("user created", zap.String("external_id", externalID))
	return u, nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (*domain.User, error) {
	u, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.ErrNotFound
	}
	return u, nil
}

func (s *Service) UpdateDisplayName(ctx context.Context, id snowflake.ID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	return s.repo.UpdateDisplayName(ctx, s.db, id, name)
}
