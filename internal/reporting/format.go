package reporting

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	hundred = decimal.NewFromInt(100)
	printer = message.NewPrinter(language.English)
)

// FormatMoney renders v as $1,234.56 (negative values as -$1,234.56).
func FormatMoney(v float64) string {
	d := decimal.NewFromFloat(v).Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	return sign + "$" + printer.Sprintf("%.2f", d.InexactFloat64())
}

// FormatCount renders n with thousands separators.
func FormatCount(n int64) string {
	return printer.Sprintf("%d", n)
}

// FormatRate renders a failure rate as a percentage, e.g. 0.85 -> 85%.
func FormatRate(rate float64) string {
	return decimal.NewFromFloat(rate).Mul(hundred).Round(2).String() + "%"
}
