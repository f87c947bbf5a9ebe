package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/polisbot/polisbot/internal/fulfillment"
	"github.com/polisbot/polisbot/internal/observability"
	"github.com/polisbot/polisbot/internal/payment/domain"
	"github.com/polisbot/polisbot/internal/providers/messaging"
	"github.com/polisbot/polisbot/pkg/db"
	"github.com/polisbot/polisbot/pkg/money"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	convdomain "github.com/polisbot/polisbot/internal/conversation/domain"
	quotedomain "github.com/polisbot/polisbot/internal/quote/domain"
	userdomain "github.com/polisbot/polisbot/internal/user/domain"
)

type Params struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	GenID         *snowflake.Node
	Repo          domain.Repository
	Gateway       domain.Gateway
	Quotes        quotedomain.Service
	Users         userdomain.Service
	Conversations convdomain.Service
	Messaging     messaging.Provider
	Fulfillment   fulfillment.Service
	Metrics       *observability.Metrics
}

type Service struct {
	db            *gorm.DB
	log           *zap.Logger
	genID         *snowflake.Node
	repo          domain.Repository
	gateway       domain.Gateway
	quotes        quotedomain.Service
	users         userdomain.Service
	conversations convdomain.Service
	messaging     messaging.Provider
	fulfillment   fulfillment.Service
	metrics       *observability.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("payment.service"),
		genID:         p.GenID,
		repo:          p.Repo,
		gateway:       p.Gateway,
		quotes:        p.Quotes,
		users:         p.Users,
		conversations: p.Conversations,
		messaging:     p.Messaging,
		fulfillment:   p.Fulfillment,
		metrics:       p.Metrics,
	}
}

func (s *Service) IngestWebhook(ctx context.Context, req domain.WebhookRequest) error {
	event, err := s.gateway.VerifyAndParse(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidSignature):
			s.metrics.PaymentEvents.WithLabelValues("rejected").Inc()
			s.log.Warn("webhook signature rejected", zap.String("request_id", req.RequestID))
			return domain.ErrInvalidSignature
		case errors.Is(err, domain.ErrEventIgnored):
			s.metrics.PaymentEvents.WithLabelValues("ignored").Inc()
			return domain.ErrEventIgnored
		default:
			s.metrics.PaymentEvents.WithLabelValues("error").Inc()
			return err
		}
	}

	record, err := s.recordEvent(ctx, event, req.Payload)
	if err != nil {
		if errors.Is(err, domain.ErrEventAlreadyProcessed) {
			s.metrics.PaymentEvents.WithLabelValues("duplicate").Inc()
			s.log.Info("duplicate webhook delivery",
				zap.String("provider", event.Provider),
				zap.String("event_id", event.EventID),
			)
			return domain.ErrEventAlreadyProcessed
		}
		return err
	}

	if err := s.confirm(ctx, event); err != nil {
		return err
	}

	if err := s.repo.MarkProcessed(ctx, s.db, record.ID); err != nil {
		s.log.Warn("mark event processed failed", zap.Error(err))
	}
	return nil
}

// recordEvent inserts the dedup row, tolerating redelivery of an event whose
// processing never completed.
func (s *Service) recordEvent(ctx context.Context, event *domain.ConfirmationEvent, payload []byte) (*domain.EventRecord, error) {
	rec := &domain.EventRecord{
		ID:         s.genID.Generate(),
		Provider:   event.Provider,
		EventID:    event.EventID,
		Payload:    datatypes.JSON(payload),
		ReceivedAt: time.Now().UTC(),
	}
	err := s.repo.InsertEvent(ctx, s.db, rec)
	if err == nil {
		return rec, nil
	}
	if !db.IsDuplicateKeyErr(err) {
		return nil, err
	}

	existing, findErr := s.repo.FindEvent(ctx, s.db, event.Provider, event.EventID)
	if findErr != nil {
		return nil, findErr
	}
	if existing == nil {
		return nil, err
	}
	if existing.ProcessedAt != nil {
		return nil, domain.ErrEventAlreadyProcessed
	}
	return existing, nil
}

func (s *Service) confirm(ctx context.Context, event *domain.ConfirmationEvent) error {
	quote, err := s.quotes.GetByID(ctx, event.QuoteID)
	if err != nil {
		if errors.Is(err, quotedomain.ErrNotFound) {
			s.metrics.PaymentEvents.WithLabelValues("orphaned").Inc()
			s.log.Warn("payment for unknown quote, acknowledging",
				zap.String("quote_id", event.QuoteID.String()),
				zap.String("event_id", event.EventID),
			)
			return nil
		}
		return err
	}

	quote, err = s.quotes.MarkPaid(ctx, quote.ID)
	if err != nil {
		if errors.Is(err, quotedomain.ErrAlreadyPaid) {
			s.metrics.PaymentEvents.WithLabelValues("duplicate").Inc()
			s.log.Info("quote already paid, acknowledging",
				zap.String("quote_id", event.QuoteID.String()),
			)
			return nil
		}
		return err
	}

	s.metrics.PaymentEvents.WithLabelValues("confirmed").Inc()
	s.log.Info("payment confirmed",
		zap.String("quote_id", quote.ID.String()),
		zap.Int64("amount_cents", event.AmountCents),
	)

	user, err := s.users.GetByID(ctx, quote.UserID)
	if err != nil {
		s.log.Error("load user after payment failed", zap.Error(err))
		return nil
	}

	note := fmt.Sprintf("Payment received for quote %s (%s). Policy is now active.",
		quote.ID.String(), money.Format(quote.PremiumCents, quote.Currency))
	if err := s.conversations.AppendSystemNote(ctx, user.ID, note); err != nil {
		s.log.Warn("append payment note failed", zap.Error(err))
	}

	confirmation := fmt.Sprintf("Thank you! Your payment of %s is confirmed and your policy is now active. Your certificate is on its way.",
		money.Format(quote.PremiumCents, quote.Currency))
	if err := s.messaging.SendText(ctx, user.ExternalID, confirmation); err != nil {
		s.log.Warn("payment confirmation message failed", zap.Error(err))
	}

	if err := s.fulfillment.Deliver(ctx, quote); err != nil {
		s.log.Error("fulfillment after payment failed",
			zap.String("quote_id", quote.ID.String()),
			zap.Error(err),
		)
	}
	return nil
}
