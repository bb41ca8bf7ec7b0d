package billing

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// en-IN groups the first three digits and then every two (#,##,##0).
var inr = message.NewPrinter(language.MustParse("en-IN"))

// FormatINR renders an amount with Indian digit grouping and exactly two
// decimals, e.g. 1234567.891 -> "12,34,567.89".
func FormatINR(amount float64) string {
	return inr.Sprintf("%.2f", decimal.NewFromFloat(amount).Round(2).InexactFloat64())
}

// FormatRate prints a tax rate without trailing zeros: 18 -> "18", 2.5 -> "2.5".
func FormatRate(rate float64) string {
	return decimal.NewFromFloat(rate).String()
}
