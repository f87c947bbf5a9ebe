package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/polisbot/polisbot/internal/product/domain"
	"github.com/polisbot/polisbot/internal/product/repository"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T, dsn string) domain.Service {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(&domain.Product{}))

	node, err := snowflake.NewNode(1)
	assert.NoError(t, err)

	return New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
	})
}

func motorRequest() domain.CreateRequest {
	return domain.CreateRequest{
		TypeTag:  "Motor",
		Name:     "Motor Insurance",
		Keywords: []string{"car insurance", "motor insurance"},
		RequiredFields: []domain.RequiredField{
			{Key: "driverAge", Prompt: "How old is the main driver?", Kind: "number", Required: true},
			{Key: "carYear", Prompt: "What year was the car manufactured?", Kind: "number", Required: true},
		},
		RuleSet: map[string]any{
			"base": 60000,
			"factors": []map[string]any{
				{"key": "driverAge", "op": "lt", "value": 25, "effect": "multiply", "magnitude": 1.4},
			},
		},
	}
}

func TestProduct_CreateNormalizesAndDecodes(t *testing.T) {
	svc := newTestService(t, "file:productcreate?mode=memory&cache=shared")
	ctx := context.Background()

	p, err := svc.Create(ctx, motorRequest())
	assert.NoError(t, err)
	assert.Equal(t, "motor", p.TypeTag)
	assert.True(t, p.Active)

	rules, err := p.PricingRules()
	assert.NoError(t, err)
	assert.Equal(t, float64(60000), *rules.Base)
	assert.Len(t, rules.Factors, 1)

	fields, err := p.RequiredFieldList()
	assert.NoError(t, err)
	assert.Len(t, fields, 2)
}

func TestProduct_CreateValidation(t *testing.T) {
	svc := newTestService(t, "file:productvalidate?mode=memory&cache=shared")
	ctx := context.Background()

	req := motorRequest()
	req.TypeTag = " "
	_, err := svc.Create(ctx, req)
	assert.ErrorIs(t, err, domain.ErrInvalidTypeTag)

	req = motorRequest()
	req.Name = ""
	_, err = svc.Create(ctx, req)
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	req = motorRequest()
	req.RuleSet = map[string]any{"factors": []map[string]any{}}
	_, err = svc.Create(ctx, req)
	assert.ErrorIs(t, err, domain.ErrInvalidRuleSet)
}

func TestProduct_CreateDuplicateTypeTag(t *testing.T) {
	svc := newTestService(t, "file:productdup?mode=memory&cache=shared")
	ctx := context.Background()

	_, err := svc.Create(ctx, motorRequest())
	assert.NoError(t, err)

	_, err = svc.Create(ctx, motorRequest())
	assert.ErrorIs(t, err, domain.ErrDuplicateType)
}

func TestProduct_FindActiveByType(t *testing.T) {
	svc := newTestService(t, "file:productfind?mode=memory&cache=shared")
	ctx := context.Background()

	inactive := false
	req := motorRequest()
	req.TypeTag = "travel"
	req.Active = &inactive
	_, err := svc.Create(ctx, req)
	assert.NoError(t, err)

	_, err = svc.Create(ctx, motorRequest())
	assert.NoError(t, err)

	p, err := svc.FindActiveByType(ctx, "MOTOR")
	assert.NoError(t, err)
	assert.Equal(t, "motor", p.TypeTag)

	_, err = svc.FindActiveByType(ctx, "travel")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.FindActiveByType(ctx, "yacht")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProduct_MatchKeyword(t *testing.T) {
	svc := newTestService(t, "file:productkeyword?mode=memory&cache=shared")
	ctx := context.Background()

	_, err := svc.Create(ctx, motorRequest())
	assert.NoError(t, err)

	p, err := svc.MatchKeyword(ctx, "Hi, I need CAR INSURANCE for my sedan")
	assert.NoError(t, err)
	assert.Equal(t, "motor", p.TypeTag)

	_, err = svc.MatchKeyword(ctx, "tell me a joke")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
