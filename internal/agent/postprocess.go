package agent

import "strings"

const premiumDisclaimer = "Note: the quoted premium is indicative and becomes binding only once payment is completed."

const refusalTemplate = "I can only help with insurance products, quotes and payments here. Is there anything about your coverage I can help with?"

// postprocessReply applies the outbound message policy: refusals replace the
// whole reply, premium quotes carry a disclaimer.
func postprocessReply(text string, quotedPremium bool) string {
	if strings.Contains(text, outOfScopeMarker) {
		return refusalTemplate
	}
	text = strings.TrimSpace(text)
	if quotedPremium && !strings.Contains(text, premiumDisclaimer) {
		return text + "\n\n" + premiumDisclaimer
	}
	return text
}
