package cli

import (
	"math"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Printers and casers carry state, so each call builds its own.
func sprintf(format string, args ...any) string {
	return message.NewPrinter(language.English).Sprintf(format, args...)
}

func title(s string) string {
	return cases.Title(language.English).String(s)
}

// Money formats v as dollars with thousands separators, e.g. -$1,234.50.
func Money(v float64) string {
	if v < 0 {
		return "-" + sprintf("$%.2f", math.Abs(v))
	}
	return sprintf("$%.2f", v)
}

// SignedMoney is Money with an explicit + for positive values.
func SignedMoney(v float64) string {
	if v > 0 {
		return "+" + Money(v)
	}
	return Money(v)
}

// Percent formats v (already in percent units) with one decimal.
func Percent(v float64) string {
	return sprintf("%.1f%%", v)
}

// Ratio formats a 0..1 ratio as a percentage.
func Ratio(v float64) string {
	return Percent(v * 100)
}

// Humanize turns labels like "highly_achievable" into "highly achievable".
func Humanize(label string) string {
	return strings.ReplaceAll(label, "_", " ")
}
