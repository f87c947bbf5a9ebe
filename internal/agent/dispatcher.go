package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/polisbot/polisbot/internal/agent/domain"
	"github.com/polisbot/polisbot/internal/config"
	"github.com/polisbot/polisbot/internal/pricing"
	"github.com/polisbot/polisbot/pkg/money"
	"go.uber.org/fx"
	"go.uber.org/zap"

	paymentdomain "github.com/polisbot/polisbot/internal/payment/domain"
	productdomain "github.com/polisbot/polisbot/internal/product/domain"
	quotedomain "github.com/polisbot/polisbot/internal/quote/domain"
	userdomain "github.com/polisbot/polisbot/internal/user/domain"
)

const (
	toolCalculatePremium    = "calculate_premium"
	toolGeneratePaymentLink = "generate_payment_link"
)

// Dispatcher executes model tool calls. Every call produces a result map;
// failures become {"error": ...} results so the model can explain them.
type Dispatcher struct {
	log      *zap.Logger
	products productdomain.Service
	quotes   quotedomain.Service
	users    userdomain.Service
	gateway  paymentdomain.Gateway
	currency string
}

type DispatcherParams struct {
	fx.In

	Log      *zap.Logger
	Config   config.Config
	Products productdomain.Service
	Quotes   quotedomain.Service
	Users    userdomain.Service
	Gateway  paymentdomain.Gateway
}

func NewDispatcher(p DispatcherParams) *Dispatcher {
	return &Dispatcher{
		log:      p.Log.Named("agent.dispatcher"),
		products: p.Products,
		quotes:   p.Quotes,
		users:    p.Users,
		gateway:  p.Gateway,
		currency: p.Config.DefaultCurrency,
	}
}

func (d *Dispatcher) Specs() []domain.ToolSpec {
	return []domain.ToolSpec{
		{
			Name:        toolCalculatePremium,
			Description: "Calculate the premium for an insurance product from the collected customer details. Returns the premium amount.",
			Params: []domain.ToolParam{
				{Name: "product_type", Type: "string", Description: "Product type tag, e.g. motor.", Required: true},
				{Name: "facts", Type: "object", Description: "Collected customer details keyed by required field name.", Required: true},
			},
		},
		{
			Name:        toolGeneratePaymentLink,
			Description: "Create a quote for the agreed premium and return a hosted checkout link the customer can pay through.",
			Params: []domain.ToolParam{
				{Name: "product_type", Type: "string", Description: "Product type tag the premium was calculated for.", Required: true},
				{Name: "premium_cents", Type: "number", Description: "Premium returned by calculate_premium.", Required: true},
				{Name: "customer_name", Type: "string", Description: "Customer's full name for the policy.", Required: true},
				{Name: "facts", Type: "object", Description: "The same customer details used for the premium calculation.", Required: true},
			},
		},
	}
}

// Dispatch runs one tool call on behalf of the user. The outcome label feeds
// the tool-call metrics.
func (d *Dispatcher) Dispatch(ctx context.Context, user *userdomain.User, call domain.ToolCall) (result map[string]any, outcome string) {
	switch call.Name {
	case toolCalculatePremium:
		return d.calculatePremium(ctx, call.Args)
	case toolGeneratePaymentLink:
		return d.generatePaymentLink(ctx, user, call.Args)
	default:
		d.log.Warn("unknown tool requested", zap.String("tool", call.Name))
		return map[string]any{"error": fmt.Sprintf("unknown function %q", call.Name)}, "unknown"
	}
}

func (d *Dispatcher) calculatePremium(ctx context.Context, args map[string]any) (map[string]any, string) {
	typeTag, err := argString(args, "product_type")
	if err != nil {
		return errResult(err), "invalid_args"
	}
	facts, err := argFacts(args, "facts")
	if err != nil {
		return errResult(err), "invalid_args"
	}

	product, err := d.products.FindActiveByType(ctx, typeTag)
	if err != nil {
		if errors.Is(err, productdomain.ErrNotFound) {
			return errResult(fmt.Errorf("no active product with type %q", typeTag)), "unknown_product"
		}
		d.log.Error("product lookup failed", zap.Error(err))
		return errResult(errors.New("product lookup failed")), "error"
	}

	rules, err := product.PricingRules()
	if err != nil {
		d.log.Error("rule set decode failed", zap.String("product_type", typeTag), zap.Error(err))
		return errResult(errors.New("product is misconfigured")), "error"
	}

	premium, err := pricing.Evaluate(rules, facts)
	if err != nil {
		return errResult(err), "invalid_args"
	}

	return map[string]any{
		"premium_cents": premium,
		"premium":       money.Format(premium, d.currency),
		"currency":      d.currency,
	}, "ok"
}

func (d *Dispatcher) generatePaymentLink(ctx context.Context, user *userdomain.User, args map[string]any) (map[string]any, string) {
	typeTag, err := argString(args, "product_type")
	if err != nil {
		return errResult(err), "invalid_args"
	}
	premium, err := argInt(args, "premium_cents")
	if err != nil {
		return errResult(err), "invalid_args"
	}
	customerName, err := argString(args, "customer_name")
	if err != nil {
		return errResult(err), "invalid_args"
	}
	facts, err := argFacts(args, "facts")
	if err != nil {
		return errResult(err), "invalid_args"
	}

	if err := d.users.UpdateDisplayName(ctx, user.ID, customerName); err != nil {
		d.log.Warn("display name update failed", zap.Error(err))
	}

	product, err := d.products.FindActiveByType(ctx, typeTag)
	if err != nil {
		if errors.Is(err, productdomain.ErrNotFound) {
			return errResult(fmt.Errorf("no active product with type %q", typeTag)), "unknown_product"
		}
		d.log.Error("product lookup failed", zap.Error(err))
		return errResult(errors.New("product lookup failed")), "error"
	}

	factsJSON, err := json.Marshal(facts)
	if err != nil {
		return errResult(errors.New("facts are not serializable")), "invalid_args"
	}

	quote, err := d.quotes.Create(ctx, quotedomain.CreateRequest{
		UserID:       user.ID,
		ProductID:    product.ID,
		ProductType:  product.TypeTag,
		Facts:        factsJSON,
		PremiumCents: premium,
		Currency:     d.currency,
	})
	if err != nil {
		d.log.Error("quote create failed", zap.Error(err))
		return errResult(errors.New("could not create the quote")), "error"
	}

	checkoutURL, err := d.gateway.CreateCheckout(ctx, paymentdomain.CheckoutRequest{
		QuoteID:      quote.ID,
		AmountCents:  quote.PremiumCents,
		Currency:     quote.Currency,
		Title:        product.Name,
		CustomerName: customerName,
	})
	if err != nil {
		// Quote stays in quoted; a later attempt can mint a fresh link.
		d.log.Error("checkout create failed",
			zap.String("quote_id", quote.ID.String()),
			zap.Error(err),
		)
		return errResult(errors.New("payment link could not be created, please try again")), "error"
	}

	if err := d.quotes.AttachCheckout(ctx, quote.ID, checkoutURL); err != nil {
		d.log.Warn("attach checkout failed", zap.Error(err))
	}

	return map[string]any{
		"quote_id":     quote.ID.String(),
		"checkout_url": checkoutURL,
		"premium":      money.Format(quote.PremiumCents, quote.Currency),
	}, "ok"
}

func errResult(err error) map[string]any {
	return map[string]any{"error": err.Error()}
}

func argString(args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok {
		return "", fmt.Errorf("missing argument %q", key)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("argument %q must be a non-empty string", key)
	}
	return s, nil
}

func argInt(args map[string]any, key string) (int64, error) {
	v, ok := args[key]
	if !ok {
		return 0, fmt.Errorf("missing argument %q", key)
	}
	switch n := v.(type) {
	case float64:
		return int64(n), nil
	case int64:
		return n, nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("argument %q must be an integer", key)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("argument %q must be a number", key)
	}
}

func argFacts(args map[string]any, key string) (pricing.Facts, error) {
	v, ok := args[key]
	if !ok {
		return nil, fmt.Errorf("missing argument %q", key)
	}
	raw, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("argument %q must be an object", key)
	}
	facts, err := pricing.ParseFacts(raw)
	if err != nil {
		return nil, fmt.Errorf("argument %q: %w", key, err)
	}
	return facts, nil
}
