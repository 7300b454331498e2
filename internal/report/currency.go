package report

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/cloudcost-guard/internal/domain"
)

var printer = message.NewPrinter(language.English)

// FormatCurrency renders an amount with the currency symbol and grouped
// digits, e.g. "$4,847.00". Yen has no minor unit.
func FormatCurrency(v float64, cur domain.Currency) string {
	digits := 2
	if cur.Code == "JPY" {
		digits = 0
	}
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return sign + cur.Symbol + printer.Sprint(number.Decimal(v,
		number.MinFractionDigits(digits),
		number.MaxFractionDigits(digits),
	))
}

// FormatPercent renders a percentage with one decimal
func FormatPercent(v float64) string {
	return printer.Sprintf("%.1f%%", v)
}
