package mercadopago

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	sdkconfig "github.com/mercadopago/sdk-go/pkg/config"
	sdkpayment "github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/mercadopago/sdk-go/pkg/preference"
	"github.com/polisbot/polisbot/internal/config"
	"github.com/polisbot/polisbot/internal/payment/domain"
	"go.uber.org/zap"
)

const providerName = "mercadopago"

// zero-decimal currencies are charged in whole units.
var zeroDecimal = map[string]bool{"IDR": true, "JPY": true, "KRW": true, "VND": true}

type Gateway struct {
	preferences   preference.Client
	payments      sdkpayment.Client
	webhookSecret string
	baseURL       string
	log           *zap.Logger
}

func New(cfg config.Config, log *zap.Logger) (*Gateway, error) {
	sdkCfg, err := sdkconfig.New(cfg.Payment.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("mercadopago config: %w", err)
	}
	return &Gateway{
		preferences:   preference.NewClient(sdkCfg),
		payments:      sdkpayment.NewClient(sdkCfg),
		webhookSecret: cfg.Payment.WebhookSecret,
		baseURL:       strings.TrimRight(cfg.PublicBaseURL, "/"),
		log:           log.Named("payment.mercadopago"),
	}, nil
}

func (g *Gateway) CreateCheckout(ctx context.Context, req domain.CheckoutRequest) (string, error) {
	resp, err := g.preferences.Create(ctx, preference.Request{
		Items: []preference.ItemRequest{
			{
				ID:         req.QuoteID.String(),
				Title:      req.Title,
				Quantity:   1,
				UnitPrice:  amountToUnits(req.AmountCents, req.Currency),
				CurrencyID: req.Currency,
			},
		},
		ExternalReference: req.QuoteID.String(),
		NotificationURL:   g.baseURL + "/webhooks/payments/mercadopago",
		Metadata: map[string]any{
			"quote_id":      req.QuoteID.String(),
			"customer_name": req.CustomerName,
		},
	})
	if err != nil {
		return "", fmt.Errorf("create preference: %w", err)
	}

	g.log.Info("checkout created",
		zap.String("quote_id", req.QuoteID.String()),
		zap.String("preference_id", resp.ID),
	)
	return resp.InitPoint, nil
}

func (g *Gateway) VerifyAndParse(ctx context.Context, req domain.WebhookRequest) (*domain.ConfirmationEvent, error) {
	if err := g.verifySignature(req); err != nil {
		return nil, err
	}

	var notification struct {
		Type string `json:"type"`
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(req.Payload, &notification); err != nil {
		return nil, fmt.Errorf("%w: malformed payload", domain.ErrEventIgnored)
	}
	if notification.Type != "payment" {
		return nil, domain.ErrEventIgnored
	}

	paymentID := notification.Data.ID
	if paymentID == "" {
		paymentID = req.DataID
	}
	id, err := strconv.Atoi(paymentID)
	if err != nil {
		return nil, fmt.Errorf("%w: non-numeric payment id %q", domain.ErrEventIgnored, paymentID)
	}

	p, err := g.payments.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch payment %d: %w", id, err)
	}
	if p.Status != "approved" {
		g.log.Info("payment not approved, ignoring",
			zap.Int("payment_id", id),
			zap.String("status", p.Status),
		)
		return nil, domain.ErrEventIgnored
	}

	quoteID, err := snowflake.ParseString(p.ExternalReference)
	if err != nil {
		return nil, fmt.Errorf("%w: bad external reference %q", domain.ErrEventIgnored, p.ExternalReference)
	}

	return &domain.ConfirmationEvent{
		Provider:    providerName,
		EventID:     paymentID,
		QuoteID:     quoteID,
		AmountCents: unitsToAmount(p.TransactionAmount, p.CurrencyID),
		Status:      p.Status,
	}, nil
}

// verifySignature checks the x-signature header: "ts=<unix>,v1=<hex hmac>"
// over the manifest "id:<data.id>;request-id:<x-request-id>;ts:<ts>;".
func (g *Gateway) verifySignature(req domain.WebhookRequest) error {
	ts, v1, ok := splitSignature(req.Signature)
	if !ok {
		return domain.ErrInvalidSignature
	}

	manifest := fmt.Sprintf("id:%s;request-id:%s;ts:%s;", strings.ToLower(req.DataID), req.RequestID, ts)
	mac := hmac.New(sha256.New, []byte(g.webhookSecret))
	mac.Write([]byte(manifest))
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(v1)) {
		return domain.ErrInvalidSignature
	}
	return nil
}

func splitSignature(header string) (ts, v1 string, ok bool) {
	for _, part := range strings.Split(header, ",") {
		k, v, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch k {
		case "ts":
			ts = v
		case "v1":
			v1 = v
		}
	}
	return ts, v1, ts != "" && v1 != ""
}

func amountToUnits(cents int64, currency string) float64 {
	if zeroDecimal[strings.ToUpper(currency)] {
		return float64(cents)
	}
	return float64(cents) / 100
}

func unitsToAmount(units float64, currency string) int64 {
	if zeroDecimal[strings.ToUpper(currency)] {
		return int64(math.Round(units))
	}
	return int64(math.Round(units * 100))
}
