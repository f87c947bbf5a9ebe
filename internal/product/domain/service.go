package domain

import (
	"context"
	"errors"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Product, error)
	List(ctx context.Context) ([]Product, error)
	// FindActiveByType resolves a product by its type tag; inactive and
	// unknown tags both report ErrNotFound.
	FindActiveByType(ctx context.Context, typeTag string) (*Product, error)
	// MatchKeyword finds the active product whose keywords appear as a
	// substring of the inbound text, or ErrNotFound.
	MatchKeyword(ctx context.Context, text string) (*Product, error)
}

type CreateRequest struct {
	TypeTag        string          `json:"type_tag"`
	Name           string          `json:"name"`
	Active         *bool           `json:"active"`
	Keywords       []string        `json:"keywords"`
	RequiredFields []RequiredField `json:"required_fields"`
	RuleSet        map[string]any  `json:"rule_set"`
}

var (
	ErrInvalidTypeTag = errors.New("invalid_type_tag")
	ErrInvalidName    = errors.New("invalid_name")
	ErrInvalidRuleSet = errors.New("invalid_rule_set")
	ErrDuplicateType  = errors.New("duplicate_type_tag")
	ErrNotFound       = errors.New("not_found")
)
