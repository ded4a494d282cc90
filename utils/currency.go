package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatCurrency renders an amount with thousands separators and two decimals.
// Example: 15000.5, "Rs " -> "Rs 15,000.50"
func FormatCurrency(amount decimal.Decimal, symbol string) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Abs()
	}
	fixed := amount.StringFixed(2)
	integerPart, decimalPart, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, r := range integerPart {
		if i > 0 && (len(integerPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + symbol + b.String() + "." + decimalPart
}
