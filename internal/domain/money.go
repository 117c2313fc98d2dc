package domain

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// FormatCurrency renders whole dollars the way the box office prints them ("$1,234.00").
func FormatCurrency(amount int64) string {
	return FormatDecimal(decimal.NewFromInt(amount))
}

// FormatDecimal renders a decimal amount with a dollar sign, thousands separators and 2 places.
func FormatDecimal(amount decimal.Decimal) string {
	rounded := amount.Round(2)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Neg()
	}

	_, cents, _ := strings.Cut(rounded.StringFixed(2), ".")

	// the English printer groups %d in threes
	p := message.NewPrinter(language.English)
	return p.Sprintf("%s$%d.%s", sign, rounded.IntPart(), cents)
}
