package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/polisbot/polisbot/internal/quote/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
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
		log:   p.Log.Named("quote.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Quote, error) {
	if req.PremiumCents <= 0 {
		return nil, domain.ErrInvalidPremium
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "IDR"
	}

	now := time.Now().UTC()
	q := &domain.Quote{
		ID:           s.genID.Generate(),
		UserID:       req.UserID,
		ProductID:    req.ProductID,
		ProductType:  req.ProductType,
		Status:       domain.StatusQuoted,
		Facts:        datatypes.JSON(req.Facts),
		PremiumCents: req.PremiumCents,
		Currency:     currency,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, s.db, q); err != nil {
		return nil, err
	}

	s.log.Info("quote created",
		zap.String("quote_id", q.ID.String()),
		zap.String("product_type", q.ProductType),
		zap.Int64("premium_cents", q.PremiumCents),
	)
	return q, nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (*domain.Quote, error) {
	q, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, domain.ErrNotFound
	}
	return q, nil
}

func (s *Service) LatestForUser(ctx context.Context, userID snowflake.ID) (*domain.Quote, error) {
	q, err := s.repo.FindLatestByUser(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, domain.ErrNotFound
	}
	return q, nil
}

func (s *Service) AttachCheckout(ctx context.Context, id snowflake.ID, checkoutURL string) error {
	return s.repo.Update(ctx, s.db, id, map[string]any{
		"checkout_url": checkoutURL,
		"updated_at":   time.Now().UTC(),
	})
}

func (s *Service) SetCertificateURL(ctx context.Context, id snowflake.ID, certificateURL string) error {
	return s.repo.Update(ctx, s.db, id, map[string]any{
		"certificate_url": certificateURL,
		"updated_at":      time.Now().UTC(),
	})
}

func (s *Service) MarkPaid(ctx context.Context, id snowflake.ID) (*domain.Quote, error) {
	now := time.Now().UTC()
	affected, err := s.repo.TransitionStatus(ctx, s.db, id, domain.StatusQuoted, domain.StatusPaid, map[string]any{
		"paid_at":    now,
		"updated_at": now,
	})
	if err != nil {
		return nil, err
	}

	q, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, domain.ErrNotFound
	}
	if affected == 0 {
		if q.Status == domain.StatusPaid {
			return q, domain.ErrAlreadyPaid
		}
		return q, domain.ErrNotFound
	}

	s.log.Info("quote paid", zap.String("quote_id", id.String()))
	return q, nil
}
