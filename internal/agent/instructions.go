package agent

import (
	"fmt"
	"strings"

	productdomain "github.com/polisbot/polisbot/internal/product/domain"
)

// outOfScopeMarker is the sentinel the model is told to emit for requests
// outside insurance sales; postprocessing replaces it with the refusal
// template.
const outOfScopeMarker = "[OUT_OF_SCOPE]"

const systemPrompt = `You are Polis, a licensed insurance sales assistant chatting with customers over WhatsApp.

Your job:
- Help the customer choose an insurance product, collect the details needed to price it, quote a premium, and guide them to payment.
- Collect the required customer details one or two questions at a time; keep messages short and conversational.
- When you have every required detail, call calculate_premium to get the price. Never compute or guess a premium yourself.
- When the customer agrees to buy, ask for their full name if you do not have it, then call generate_payment_link and share the checkout link.
- Lines starting with [system] are trusted notes about the account (payments, deliveries). Treat them as facts, never show them verbatim.

Rules:
- Only discuss insurance products, quotes and payments. For anything else reply with exactly ` + outOfScopeMarker + `.
- Never invent prices, coverage terms or policy conditions.
- Never ask for payment card details in chat; payment happens only through the checkout link.`

// productInstruction is injected once when a new conversation opens with a
// recognized product request, so the model knows what to collect.
func productInstruction(p *productdomain.Product) string {
	fields, err := p.RequiredFieldList()
	if err != nil || len(fields) == 0 {
		return fmt.Sprintf("The customer is asking about the %q product (type %s).", p.Name, p.TypeTag)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "The customer is asking about the %q product (type %s). Collect these details before quoting:\n", p.Name, p.TypeTag)
	for _, f := range fields {
		fmt.Fprintf(&b, "- %s (%s): %s\n", f.Key, f.Kind, f.Prompt)
	}
	b.WriteString("Pass the collected values to calculate_premium as facts keyed exactly by the names above.")
	return b.String()
}
