// Package format renders money, countdowns and percentages for display.
package format

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// USD formats amount as US dollars with thousands separators and two
// decimals, e.g. "$1,234.50". Negative amounts are rendered as "-$12.00".
func USD(amount decimal.Decimal) string {
	amount = amount.Round(2)
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}
	fixed := amount.StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")
	return sign + "$" + groupThousands(whole) + "." + frac
}

// USDFloat is USD for float inputs.
func USDFloat(amount float64) string {
	return USD(decimal.NewFromFloat(amount))
}

// Duration renders seconds as HH:MM:SS. Negative values render as zero.
// Hours are not wrapped at 24.
func Duration(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// Percent renders a fraction in [0,1] as a whole-number percentage.
func Percent(fraction float64) string {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	return fmt.Sprintf("%.0f%%", fraction*100)
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
