package service

import (
	"context"
	"sync"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/polisbot/polisbot/internal/observability"
	"github.com/polisbot/polisbot/internal/payment/domain"
	"github.com/polisbot/polisbot/internal/payment/repository"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"

	convdomain "github.com/polisbot/polisbot/internal/conversation/domain"
	convrepository "github.com/polisbot/polisbot/internal/conversation/repository"
	convservice "github.com/polisbot/polisbot/internal/conversation/service"
	quotedomain "github.com/polisbot/polisbot/internal/quote/domain"
	quoterepository "github.com/polisbot/polisbot/internal/quote/repository"
	quoteservice "github.com/polisbot/polisbot/internal/quote/service"
	userdomain "github.com/polisbot/polisbot/internal/user/domain"
	userrepository "github.com/polisbot/polisbot/internal/user/repository"
	userservice "github.com/polisbot/polisbot/internal/user/service"
)

type gatewayStub struct {
	event *domain.ConfirmationEvent
	err   error
}

func (g *gatewayStub) CreateCheckout(ctx context.Context, req domain.CheckoutRequest) (string, error) {
	return "https://pay.example/checkout", nil
}

func (g *gatewayStub) VerifyAndParse(ctx context.Context, req domain.WebhookRequest) (*domain.ConfirmationEvent, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.event, nil
}

type messagingRecorder struct {
	mu    sync.Mutex
	texts []string
}

func (m *messagingRecorder) SendText(ctx context.Context, to, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.texts = append(m.texts, body)
	return nil
}

func (m *messagingRecorder) SendDocument(ctx context.Context, to, documentURL, filename, caption string) error {
	return nil
}

type fulfillmentRecorder struct {
	mu        sync.Mutex
	delivered []snowflake.ID
}

func (f *fulfillmentRecorder) Deliver(ctx context.Context, quote *quotedomain.Quote) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delivered = append(f.delivered, quote.ID)
	return nil
}

type fixture struct {
	svc      domain.Service
	gateway  *gatewayStub
	msgs     *messagingRecorder
	fulfil   *fulfillmentRecorder
	quotes   quotedomain.Service
	users    userdomain.Service
	db       *gorm.DB
	node     *snowflake.Node
	registry *prometheus.Registry
}

func newFixture(t *testing.T, dsn string) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(
		&userdomain.User{},
		&convdomain.Conversation{},
		&convdomain.Turn{},
		&quotedomain.Quote{},
		&domain.EventRecord{},
	))

	node, err := snowflake.NewNode(1)
	assert.NoError(t, err)
	log := zap.NewNop()

	users := userservice.New(userservice.Params{DB: db, Log: log, GenID: node, Repo: userrepository.Provide()})
	conversations := convservice.New(convservice.Params{DB: db, Log: log, GenID: node, Repo: convrepository.Provide()})
	quotes := quoteservice.New(quoteservice.Params{DB: db, Log: log, GenID: node, Repo: quoterepository.Provide()})

	registry := prometheus.NewRegistry()
	gateway := &gatewayStub{}
	msgs := &messagingRecorder{}
	fulfil := &fulfillmentRecorder{}

	svc := New(Params{
		DB:            db,
		Log:           log,
		GenID:         node,
		Repo:          repository.Provide(),
		Gateway:       gateway,
		Quotes:        quotes,
		Users:         users,
		Conversations: conversations,
		Messaging:     msgs,
		Fulfillment:   fulfil,
		Metrics:       observability.NewMetrics(registry),
	})

	return &fixture{
		svc:      svc,
		gateway:  gateway,
		msgs:     msgs,
		fulfil:   fulfil,
		quotes:   quotes,
		users:    users,
		db:       db,
		node:     node,
		registry: registry,
	}
}

func (f *fixture) seedQuote(t *testing.T) *quotedomain.Quote {
	t.Helper()
	ctx := context.Background()

	user, err := f.users.EnsureByExternalID(ctx, "628111222333")
	assert.NoError(t, err)

	q, err := f.quotes.Create(ctx, quotedomain.CreateRequest{
		UserID:       user.ID,
		ProductID:    f.node.Generate(),
		ProductType:  "motor",
		Facts:        []byte(`{"driverAge":30,"carYear":2015}`),
		PremiumCents: 60000,
		Currency:     "IDR",
	})
	assert.NoError(t, err)
	return q
}

func TestPayment_WebhookConfirmsQuoteOnce(t *testing.T) {
	f := newFixture(t, "file:payconfirm?mode=memory&cache=shared")
	ctx := context.Background()
	q := f.seedQuote(t)

	f.gateway.event = &domain.ConfirmationEvent{
		Provider:    "mercadopago",
		EventID:     "pay-1",
		QuoteID:     q.ID,
		AmountCents: 60000,
		Status:      "approved",
	}

	err := f.svc.IngestWebhook(ctx, domain.WebhookRequest{Payload: []byte(`{}`)})
	assert.NoError(t, err)

	got, err := f.quotes.GetByID(ctx, q.ID)
	assert.NoError(t, err)
	assert.Equal(t, quotedomain.StatusPaid, got.Status)
	assert.Len(t, f.fulfil.delivered, 1)
	assert.Len(t, f.msgs.texts, 1)
	assert.Contains(t, f.msgs.texts[0], "confirmed")

	// A system note lands on the conversation for later turns.
	var turns []convdomain.Turn
	assert.NoError(t, f.db.Where("role = ?", convdomain.RoleSystem).Find(&turns).Error)
	assert.Len(t, turns, 1)
	assert.Contains(t, turns[0].Content, q.ID.String())
}

func TestPayment_DuplicateDeliveryIsAcknowledgedWithoutSideEffects(t *testing.T) {
	f := newFixture(t, "file:paydup?mode=memory&cache=shared")
	ctx := context.Background()
	q := f.seedQuote(t)

	f.gateway.event = &domain.ConfirmationEvent{
		Provider: "mercadopago",
		EventID:  "pay-1",
		QuoteID:  q.ID,
		Status:   "approved",
	}

	assert.NoError(t, f.svc.IngestWebhook(ctx, domain.WebhookRequest{Payload: []byte(`{}`)}))

	err := f.svc.IngestWebhook(ctx, domain.WebhookRequest{Payload: []byte(`{}`)})
	assert.ErrorIs(t, err, domain.ErrEventAlreadyProcessed)

	assert.Len(t, f.fulfil.delivered, 1)
	assert.Len(t, f.msgs.texts, 1)
}

func TestPayment_SecondEventForPaidQuoteIsAcknowledged(t *testing.T) {
	f := newFixture(t, "file:paysecond?mode=memory&cache=shared")
	ctx := context.Background()
	q := f.seedQuote(t)

	f.gateway.event = &domain.ConfirmationEvent{
		Provider: "mercadopago",
		EventID:  "pay-1",
		QuoteID:  q.ID,
		Status:   "approved",
	}
	assert.NoError(t, f.svc.IngestWebhook(ctx, domain.WebhookRequest{Payload: []byte(`{}`)}))

	// Same payment reported under a different provider event id.
	f.gateway.event = &domain.ConfirmationEvent{
		Provider: "mercadopago",
		EventID:  "pay-2",
		QuoteID:  q.ID,
		Status:   "approved",
	}
	assert.NoError(t, f.svc.IngestWebhook(ctx, domain.WebhookRequest{Payload: []byte(`{}`)}))

	assert.Len(t, f.fulfil.delivered, 1)
	assert.Len(t, f.msgs.texts, 1)
}

func TestPayment_InvalidSignatureChangesNothing(t *testing.T) {
	f := newFixture(t, "file:paysig?mode=memory&cache=shared")
	ctx := context.Background()
	q := f.seedQuote(t)

	f.gateway.err = domain.ErrInvalidSignature

	err := f.svc.IngestWebhook(ctx, domain.WebhookRequest{Payload: []byte(`{}`)})
	assert.ErrorIs(t, err, domain.ErrInvalidSignature)

	got, err := f.quotes.GetByID(ctx, q.ID)
	assert.NoError(t, err)
	assert.Equal(t, quotedomain.StatusQuoted, got.Status)
	assert.Empty(t, f.fulfil.delivered)
	assert.Empty(t, f.msgs.texts)

	var count int64
	assert.NoError(t, f.db.Model(&domain.EventRecord{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestPayment_IgnoredEventIsAcknowledged(t *testing.T) {
	f := newFixture(t, "file:payignore?mode=memory&cache=shared")
	f.gateway.err = domain.ErrEventIgnored

	err := f.svc.IngestWebhook(context.Background(), domain.WebhookRequest{Payload: []byte(`{}`)})
	assert.ErrorIs(t, err, domain.ErrEventIgnored)
	assert.Empty(t, f.fulfil.delivered)
}

func TestPayment_UnknownQuoteIsLoggedAndAcknowledged(t *testing.T) {
	f := newFixture(t, "file:payorphan?mode=memory&cache=shared")

	f.gateway.event = &domain.ConfirmationEvent{
		Provider: "mercadopago",
		EventID:  "pay-9",
		QuoteID:  f.node.Generate(),
		Status:   "approved",
	}

	err := f.svc.IngestWebhook(context.Background(), domain.WebhookRequest{Payload: []byte(`{}`)})
	assert.NoError(t, err)
	assert.Empty(t, f.fulfil.delivered)
	assert.Empty(t, f.msgs.texts)
}
