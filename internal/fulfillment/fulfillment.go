package fulfillment

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/polisbot/polisbot/internal/providers/messaging"
	"github.com/polisbot/polisbot/internal/providers/pdf"
	"github.com/polisbot/polisbot/internal/providers/storage"
	"github.com/polisbot/polisbot/pkg/money"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/polisbot/polisbot/internal/observability"
	productdomain "github.com/polisbot/polisbot/internal/product/domain"
	quotedomain "github.com/polisbot/polisbot/internal/quote/domain"
	userdomain "github.com/polisbot/polisbot/internal/user/domain"
)

const degradedMessage = "Your payment is confirmed and your policy is active. We hit a snag preparing your certificate document; it will be sent to you shortly."

// Service issues the policy certificate after a quote is paid.
type Service interface {
	// Deliver generates, stores and sends the certificate. On failure it
	// notifies the customer of the delay and returns the error; callers log
	// and move on, payment confirmation is never rolled back.
	Deliver(ctx context.Context, quote *quotedomain.Quote) error
}

type Params struct {
	fx.In

	Log       *zap.Logger
	Users     userdomain.Service
	Products  productdomain.Service
	Quotes    quotedomain.Service
	PDF       pdf.Provider
	Storage   storage.Provider
	Messaging messaging.Provider
	Metrics   *observability.Metrics
}

type service struct {
	log       *zap.Logger
	users     userdomain.Service
	products  productdomain.Service
	quotes    quotedomain.Service
	pdf       pdf.Provider
	storage   storage.Provider
	messaging messaging.Provider
	metrics   *observability.Metrics
}

func New(p Params) Service {
	return &service{
		log:       p.Log.Named("fulfillment.service"),
		users:     p.Users,
		products:  p.Products,
		quotes:    p.Quotes,
		pdf:       p.PDF,
		storage:   p.Storage,
		messaging: p.Messaging,
		metrics:   p.Metrics,
	}
}

func (s *service) Deliver(ctx context.Context, quote *quotedomain.Quote) error {
	user, err := s.users.GetByID(ctx, quote.UserID)
	if err != nil {
		return s.degrade(ctx, "", fmt.Errorf("load user: %w", err))
	}

	product, err := s.products.FindActiveByType(ctx, quote.ProductType)
	if err != nil {
		return s.degrade(ctx, user.ExternalID, fmt.Errorf("load product: %w", err))
	}

	holder := user.DisplayName
	if holder == "" {
		holder = user.ExternalID
	}

	data := pdf.CertificateData{
		PolicyNumber: quote.ID.String(),
		ProductName:  product.Name,
		HolderName:   holder,
		HolderPhone:  user.ExternalID,
		Premium:      money.Format(quote.PremiumCents, quote.Currency),
		IssueDate:    time.Now().UTC().Format("2 January 2006"),
		Details:      factDetails(quote.Facts),
	}

	doc, err := s.pdf.GenerateCertificate(ctx, data)
	if err != nil {
		return s.degrade(ctx, user.ExternalID, fmt.Errorf("generate certificate: %w", err))
	}

	key := fmt.Sprintf("certificate-%s.pdf", quote.ID.String())
	url, err := s.storage.Put(ctx, key, doc)
	if err != nil {
		return s.degrade(ctx, user.ExternalID, fmt.Errorf("store certificate: %w", err))
	}

	if err := s.quotes.SetCertificateURL(ctx, quote.ID, url); err != nil {
		s.log.Warn("record certificate url failed", zap.Error(err))
	}

	caption := fmt.Sprintf("Your %s certificate. Policy %s.", product.Name, quote.ID.String())
	if err := s.messaging.SendDocument(ctx, user.ExternalID, url, key, caption); err != nil {
		return s.degrade(ctx, user.ExternalID, fmt.Errorf("send certificate: %w", err))
	}

	s.metrics.CertificatesIssued.Inc()
	s.log.Info("certificate delivered",
		zap.String("quote_id", quote.ID.String()),
		zap.String("url", url),
	)
	return nil
}

func (s *service) degrade(ctx context.Context, externalID string, err error) error {
	s.log.Error("fulfillment failed", zap.Error(err))
	if externalID != "" {
		if sendErr := s.messaging.SendText(ctx, externalID, degradedMessage); sendErr != nil {
			s.log.Warn("degraded notice failed", zap.Error(sendErr))
		}
	}
	return err
}

func factDetails(raw []byte) []pdf.CertificateDetail {
	var facts map[string]json.RawMessage
	if err := json.Unmarshal(raw, &facts); err != nil {
		return nil
	}
	keys := make([]string, 0, len(facts))
	for k := range facts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	details := make([]pdf.CertificateDetail, 0, len(keys))
	for _, k := range keys {
		var s string
		if err := json.Unmarshal(facts[k], &s); err != nil {
			s = string(facts[k])
		}
		details = append(details, pdf.CertificateDetail{Label: k, Value: s})
	}
	return details
}
