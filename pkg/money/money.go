package money

import (
	"fmt"
	"strings"
)

var zeroDecimal = map[string]bool{"IDR": true, "JPY": true, "KRW": true, "VND": true}

// Format renders a minor-unit amount for chat and documents, e.g.
// Format(94000, "IDR") == "IDR 94.000".
func Format(cents int64, currency string) string {
	currency = strings.ToUpper(currency)
	if zeroDecimal[currency] {
		return currency + " " + group(cents, ".")
	}
	return fmt.Sprintf("%s %s.%02d", currency, group(cents/100, ","), cents%100)
}

func group(n int64, sep string) string {
	neg := n < 0
	if neg {
		n = -n
	}
	s := fmt.Sprintf("%d", n)
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + sep + s[i:]
	}
	if neg {
		return "-" + s
	}
	return s
}
