package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/polisbot/polisbot/internal/pricing"
	"github.com/polisbot/polisbot/internal/product/domain"
	"github.com/polisbot/polisbot/pkg/db"
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
		log:   p.Log.Named("product.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Product, error) {
	typeTag := strings.ToLower(strings.TrimSpace(req.TypeTag))
	if typeTag == "" {
		return nil, domain.ErrInvalidTypeTag
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	ruleSetRaw, err := json.Marshal(req.RuleSet)
	if err != nil {
		return nil, domain.ErrInvalidRuleSet
	}
	if _, err := pricing.DecodeRuleSet(ruleSetRaw); err != nil {
		return nil, domain.ErrInvalidRuleSet
	}

	fieldsRaw, err := json.Marshal(req.RequiredFields)
	if err != nil {
		return nil, domain.ErrInvalidRuleSet
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	now := time.Now().UTC()
	p := &domain.Product{
		ID:             s.genID.Generate(),
		TypeTag:        typeTag,
		Name:           name,
		Active:         active,
		RequiredFields: datatypes.JSON(fieldsRaw),
		RuleSet:        datatypes.JSON(ruleSetRaw),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if len(req.Keywords) > 0 {
		keywordsRaw, err := json.Marshal(req.Keywords)
		if err != nil {
			return nil, domain.ErrInvalidTypeTag
		}
		p.Keywords = datatypes.JSON(keywordsRaw)
	}

	if err := s.repo.Create(ctx, s.db, p); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrDuplicateType
		}
		return nil, err
	}
	return p, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Product, error) {
	return s.repo.FindAll(ctx, s.db)
}

func (s *Service) FindActiveByType(ctx context.Context, typeTag string) (*domain.Product, error) {
	tag := strings.ToLower(strings.TrimSpace(typeTag))
	if tag == "" {
		return nil, domain.ErrNotFound
	}

	item, err := s.repo.FindByTypeTag(ctx, s.db, tag)
	if err != nil {
		return nil, err
	}
	if item == nil || !item.Active {
		return nil, domain.ErrNotFound
	}
	return item, nil
}

func (s *Service) MatchKeyword(ctx context.Context, text string) (*domain.Product, error) {
	needle := strings.ToLower(text)
	if strings.TrimSpace(needle) == "" {
		return nil, domain.ErrNotFound
	}

	items, err := s.repo.FindAllActive(ctx, s.db)
	if err != nil {
		return nil, err
	}
	for i := range items {
		for _, keyword := range items[i].KeywordList() {
			if keyword == "" {
				continue
			}
			if strings.Contains(needle, strings.ToLower(keyword)) {
				return &items[i], nil
			}
		}
	}
	return nil, domain.ErrNotFound
}
