package fulfillment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/polisbot/polisbot/internal/observability"
	"github.com/polisbot/polisbot/internal/providers/pdf"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"

	productdomain "github.com/polisbot/polisbot/internal/product/domain"
	productrepository "github.com/polisbot/polisbot/internal/product/repository"
	productservice "github.com/polisbot/polisbot/internal/product/service"
	quotedomain "github.com/polisbot/polisbot/internal/quote/domain"
	quoterepository "github.com/polisbot/polisbot/internal/quote/repository"
	quoteservice "github.com/polisbot/polisbot/internal/quote/service"
	userdomain "github.com/polisbot/polisbot/internal/user/domain"
	userrepository "github.com/polisbot/polisbot/internal/user/repository"
	userservice "github.com/polisbot/polisbot/internal/user/service"
)

type pdfStub struct {
	err error
}

func (p *pdfStub) GenerateCertificate(ctx context.Context, data pdf.CertificateData) (io.Reader, error) {
	if p.err != nil {
		return nil, p.err
	}
	return bytes.NewReader([]byte("%PDF-1.4 stub")), nil
}

type storageStub struct {
	keys []string
	err  error
}

func (s *storageStub) Put(ctx context.Context, key string, r io.Reader) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.keys = append(s.keys, key)
	return "https://docs.example/documents/" + key, nil
}

type channelRecorder struct {
	mu    sync.Mutex
	texts []string
	docs  []string
}

func (m *channelRecorder) SendText(ctx context.Context, to, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.texts = append(m.texts, body)
	return nil
}

func (m *channelRecorder) SendDocument(ctx context.Context, to, documentURL, filename, caption string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = append(m.docs, documentURL)
	return nil
}

type deliveryFixture struct {
	svc    Service
	pdf    *pdfStub
	store  *storageStub
	msgs   *channelRecorder
	quotes quotedomain.Service
	quote  *quotedomain.Quote
}

func newDeliveryFixture(t *testing.T, dsn string) *deliveryFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(
		&userdomain.User{},
		&productdomain.Product{},
		&quotedomain.Quote{},
	))

	node, err := snowflake.NewNode(1)
	assert.NoError(t, err)
	log := zap.NewNop()
	ctx := context.Background()

	users := userservice.New(userservice.Params{DB: db, Log: log, GenID: node, Repo: userrepository.Provide()})
	products := productservice.New(productservice.Params{DB: db, Log: log, GenID: node, Repo: productrepository.Provide()})
	quotes := quoteservice.New(quoteservice.Params{DB: db, Log: log, GenID: node, Repo: quoterepository.Provide()})

	user, err := users.EnsureByExternalID(ctx, "628111222333")
	assert.NoError(t, err)
	assert.NoError(t, users.UpdateDisplayName(ctx, user.ID, "Budi Santoso"))

	product, err := products.Create(ctx, productdomain.CreateRequest{
		TypeTag: "motor",
		Name:    "Motor Insurance",
		RuleSet: map[string]any{"base": 60000},
	})
	assert.NoError(t, err)

	facts, _ := json.Marshal(map[string]any{"driverAge": 30, "carYear": 2015})
	quote, err := quotes.Create(ctx, quotedomain.CreateRequest{
		UserID:       user.ID,
		ProductID:    product.ID,
		ProductType:  "motor",
		Facts:        facts,
		PremiumCents: 60000,
		Currency:     "IDR",
	})
	assert.NoError(t, err)
	quote, err = quotes.MarkPaid(ctx, quote.ID)
	assert.NoError(t, err)

	pdfStub := &pdfStub{}
	store := &storageStub{}
	msgs := &channelRecorder{}

	svc := New(Params{
		Log:       log,
		Users:     users,
		Products:  products,
		Quotes:    quotes,
		PDF:       pdfStub,
		Storage:   store,
		Messaging: msgs,
		Metrics:   observability.NewMetrics(prometheus.NewRegistry()),
	})

	return &deliveryFixture{
		svc:    svc,
		pdf:    pdfStub,
		store:  store,
		msgs:   msgs,
		quotes: quotes,
		quote:  quote,
	}
}

func TestFulfillment_DeliversCertificate(t *testing.T) {
	f := newDeliveryFixture(t, "file:fulfilok?mode=memory&cache=shared")
	ctx := context.Background()

	assert.NoError(t, f.svc.Deliver(ctx, f.quote))

	assert.Len(t, f.store.keys, 1)
	assert.Len(t, f.msgs.docs, 1)
	assert.Empty(t, f.msgs.texts)

	got, err := f.quotes.GetByID(ctx, f.quote.ID)
	assert.NoError(t, err)
	assert.Contains(t, got.CertificateURL, f.quote.ID.String())
}

func TestFulfillment_GenerationFailureSendsDegradedNotice(t *testing.T) {
	f := newDeliveryFixture(t, "file:fulfildegrade?mode=memory&cache=shared")
	ctx := context.Background()

	f.pdf.err = errors.New("render failed")

	err := f.svc.Deliver(ctx, f.quote)
	assert.Error(t, err)

	assert.Empty(t, f.msgs.docs)
	assert.Len(t, f.msgs.texts, 1)
	assert.Contains(t, f.msgs.texts[0], "payment is confirmed")

	got, lookupErr := f.quotes.GetByID(ctx, f.quote.ID)
	assert.NoError(t, lookupErr)
	assert.Empty(t, got.CertificateURL)
	assert.Equal(t, quotedomain.StatusPaid, got.Status)
}

func TestFulfillment_StorageFailureSendsDegradedNotice(t *testing.T) {
	f := newDeliveryFixture(t, "file:fulfilstore?mode=memory&cache=shared")

	f.store.err = errors.New("disk full")

	err := f.svc.Deliver(context.Background(), f.quote)
	assert.Error(t, err)
	assert.Empty(t, f.msgs.docs)
	assert.Len(t, f.msgs.texts, 1)
}
