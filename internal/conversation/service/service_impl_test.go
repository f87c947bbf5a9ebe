package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/polisbot/polisbot/internal/conversation/domain"
	"github.com/polisbot/polisbot/internal/conversation/repository"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T, dsn string) (domain.Service, *snowflake.Node) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(&domain.Conversation{}, &domain.Turn{}))

	node, err := snowflake.NewNode(1)
	assert.NoError(t, err)

	svc := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
	})
	return svc, node
}

func TestConversation_EnsureForUserIsOnePerUser(t *testing.T) {
	svc, node := newTestService(t, "file:convensure?mode=memory&cache=shared")
	ctx := context.Background()
	userID := node.Generate()

	conv, isNew, err := svc.EnsureForUser(ctx, userID)
	assert.NoError(t, err)
	assert.True(t, isNew)

	again, isNew, err := svc.EnsureForUser(ctx, userID)
	assert.NoError(t, err)
	assert.False(t, isNew)
	assert.Equal(t, conv.ID, again.ID)
}

func TestConversation_AppendAssignsContiguousSeq(t *testing.T) {
	svc, node := newTestService(t, "file:convseq?mode=memory&cache=shared")
	ctx := context.Background()

	conv, _, err := svc.EnsureForUser(ctx, node.Generate())
	assert.NoError(t, err)

	assert.NoError(t, svc.AppendTurns(ctx, conv.ID, []domain.TurnEntry{
		{Role: domain.RoleUser, Content: "hi"},
		{Role: domain.RoleAssistant, Content: "hello"},
	}))
	assert.NoError(t, svc.AppendTurns(ctx, conv.ID, []domain.TurnEntry{
		{Role: domain.RoleUser, Content: "how much?"},
	}))

	turns, err := svc.History(ctx, conv.ID, 0)
	assert.NoError(t, err)
	assert.Len(t, turns, 3)
	for i, turn := range turns {
		assert.Equal(t, int64(i+1), turn.Seq)
	}
	assert.Equal(t, "how much?", turns[2].Content)
}

func TestConversation_HistoryLimitKeepsNewestInOrder(t *testing.T) {
	svc, node := newTestService(t, "file:convlimit?mode=memory&cache=shared")
	ctx := context.Background()

	conv, _, err := svc.EnsureForUser(ctx, node.Generate())
	assert.NoError(t, err)

	for _, content := range []string{"one", "two", "three", "four"} {
		assert.NoError(t, svc.AppendTurns(ctx, conv.ID, []domain.TurnEntry{
			{Role: domain.RoleUser, Content: content},
		}))
	}

	turns, err := svc.History(ctx, conv.ID, 2)
	assert.NoError(t, err)
	assert.Len(t, turns, 2)
	assert.Equal(t, "three", turns[0].Content)
	assert.Equal(t, "four", turns[1].Content)
}

func TestConversation_AppendRejectsUnknownRole(t *testing.T) {
	svc, node := newTestService(t, "file:convrole?mode=memory&cache=shared")
	ctx := context.Background()

	conv, _, err := svc.EnsureForUser(ctx, node.Generate())
	assert.NoError(t, err)

	err = svc.AppendTurns(ctx, conv.ID, []domain.TurnEntry{
		{Role: "narrator", Content: "meanwhile"},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidRole)
}

func TestConversation_AppendSystemNoteCreatesConversation(t *testing.T) {
	svc, node := newTestService(t, "file:convnote?mode=memory&cache=shared")
	ctx := context.Background()
	userID := node.Generate()

	assert.NoError(t, svc.AppendSystemNote(ctx, userID, "payment received"))

	conv, isNew, err := svc.EnsureForUser(ctx, userID)
	assert.NoError(t, err)
	assert.False(t, isNew)

	turns, err := svc.History(ctx, conv.ID, 0)
	assert.NoError(t, err)
	assert.Len(t, turns, 1)
	assert.Equal(t, domain.RoleSystem, turns[0].Role)
	assert.Equal(t, "payment received", turns[0].Content)
}
