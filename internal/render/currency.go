package render

import (
	"fmt"
	"strings"
)

var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"INR": "₹",
	"AED": "AED ",
	"SAR": "SAR ",
}

// FormatCurrency renders an amount as a grouped, two-fraction-digit,
// symbol-prefixed string for the given ISO code. Absent or unrecognized codes
// fall back to USD.
func FormatCurrency(amount float64, code string) string {
	symbol, ok := currencySymbols[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		symbol = currencySymbols["USD"]
	}

	negative := amount < 0
	if negative {
		amount = -amount
	}
	formatted := groupDigits(fmt.Sprintf("%.2f", amount))
	if negative {
		return "-" + symbol + formatted
	}
	return symbol + formatted
}

// groupDigits inserts thousands separators into a fixed-point decimal string.
func groupDigits(s string) string {
	intPart, fracPart, _ := strings.Cut(s, ".")
	if len(intPart) <= 3 {
		return intPart + "." + fracPart
	}
	var b strings.Builder
	lead := len(intPart) % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(intPart[i : i+3])
	}
	return b.String() + "." + fracPart
}
