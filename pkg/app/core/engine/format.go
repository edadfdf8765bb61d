package engine

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var pricePrinter = message.NewPrinter(language.English)

// formatPrice renders a price with thousands separators and at most three
// fraction digits: 60000 -> "60,000", 0.52341 -> "0.523".
// Only the integer part goes through the printer so the digits stay exact.
func formatPrice(p decimal.Decimal) string {
	r := p.Round(3)
	abs := r.Abs()
	whole := abs.Truncate(0)

	s := pricePrinter.Sprintf("%d", whole.IntPart())
	if frac := abs.Sub(whole); !frac.IsZero() {
		s += strings.TrimPrefix(frac.String(), "0")
	}
	if r.IsNegative() {
		s = "-" + s
	}
	return s
}
