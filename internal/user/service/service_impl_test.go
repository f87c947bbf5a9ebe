package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/polisbot/polisbot/internal/user/domain"
	"github.com/polisbot/polisbot/internal/user/repository"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T, dsn string) domain.Service {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(&domain.User{}))

	node, err := snowflake.NewNode(1)
	assert.NoError(t, err)

	return New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
	})
}

func TestUser_EnsureByExternalIDCreatesOnce(t *testing.T) {
	svc := newTestService(t, "file:userensure?mode=memory&cache=shared")
	ctx := context.Background()

	first, err := svc.EnsureByExternalID(ctx, "628111222333")
	assert.NoError(t, err)
	assert.Equal(t, domain.RoleCustomer, first.Role)

	second, err := svc.EnsureByExternalID(ctx, "628111222333")
	assert.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestUser_EnsureByExternalIDRejectsEmpty(t *testing.T) {
	svc := newTestService(t, "file:userempty?mode=memory&cache=shared")

	_, err := svc.EnsureByExternalID(context.Background(), "   ")
	assert.ErrorIs(t, err, domain.ErrInvalidExternalID)
}

func TestUser_UpdateDisplayName(t *testing.T) {
	svc := newTestService(t, "file:username?mode=memory&cache=shared")
	ctx := context.Background()

	u, err := svc.EnsureByExternalID(ctx, "628111222333")
	assert.NoError(t, err)

	assert.NoError(t, svc.UpdateDisplayName(ctx, u.ID, "  Budi Santoso  "))

	got, err := svc.GetByID(ctx, u.ID)
	assert.NoError(t, err)
	assert.Equal(t, "Budi Santoso", got.DisplayName)

	// Blank names are ignored, not persisted.
	assert.NoError(t, svc.UpdateDisplayName(ctx, u.ID, " "))
	got, err = svc.GetByID(ctx, u.ID)
	assert.NoError(t, err)
	assert.Equal(t, "Budi Santoso", got.DisplayName)
}

func TestUser_GetByIDUnknown(t *testing.T) {
	svc := newTestService(t, "file:usermissing?mode=memory&cache=shared")

	node, err := snowflake.NewNode(2)
	assert.NoError(t, err)

	_, err = svc.GetByID(context.Background(), node.Generate())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
