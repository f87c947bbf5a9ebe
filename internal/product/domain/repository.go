package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, product *Product) error
	FindByTypeTag(ctx context.Context, db *gorm.DB, typeTag string) (*Product, error)
	FindAllActive(ctx context.Context, db *gorm.DB) ([]Product, error)
	FindAll(ctx context.Context, db *gorm.DB) ([]Product, error)
}
