package billing

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"gstinvoice/internal/common"
)

// MaxAmount is the smallest amount that can no longer be spelled or printed
// exactly; callers must stay below it.
var MaxAmount = decimal.New(1, 15)

var ones = [...]string{
	"", "one", "two", "three", "four", "five", "six", "seven", "eight", "nine", "ten",
	"eleven", "twelve", "thirteen", "fourteen", "fifteen", "sixteen", "seventeen",
	"eighteen", "nineteen",
}

var tens = [...]string{
	"", "", "twenty", "thirty", "forty", "fifty", "sixty", "seventy", "eighty", "ninety",
}

// AmountToWords spells a rupee amount using the Indian numbering system,
// e.g. 150000 -> "Rupees One Lakh Fifty Thousand Only".
func AmountToWords(amount float64) (string, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return "", common.Errorf(common.ErrInvalidInput, "amount to words", "amount is not a finite number")
	}
	if amount < 0 {
		return "", common.Errorf(common.ErrInvalidInput, "amount to words", "negative amount %.2f", amount)
	}

	fixed := decimal.NewFromFloat(amount).Round(2)
	if !fixed.LessThan(MaxAmount) {
		return "", common.Errorf(common.ErrInvalidInput, "amount to words", "amount %s is out of range", fixed.String())
	}
	rupees := fixed.IntPart()
	paise := fixed.Sub(decimal.NewFromInt(rupees)).Shift(2).IntPart()

	words := titleCase(spell(rupees))
	if words == "" {
		words = "Zero"
	}

	var b strings.Builder
	b.WriteString("Rupees ")
	b.WriteString(words)
	if paise > 0 {
		b.WriteString(" and ")
		b.WriteString(titleCase(spell(paise)))
		b.WriteString(" Paise")
	}
	b.WriteString(" Only")
	return b.String(), nil
}

// spell converts a non-negative integer, grouping as hundred, thousand,
// lakh and crore.
func spell(n int64) string {
	switch {
	case n < 20:
		return ones[n]
	case n < 100:
		w := tens[n/10]
		if n%10 != 0 {
			w += " " + ones[n%10]
		}
		return w
	case n < 1000:
		w := ones[n/100] + " hundred"
		if n%100 != 0 {
			w += " and " + spell(n%100)
		}
		return w
	case n < 100000:
		return withRemainder(spell(n/1000)+" thousand", n%1000)
	case n < 10000000:
		return withRemainder(spell(n/100000)+" lakh", n%100000)
	default:
		return withRemainder(spell(n/10000000)+" crore", n%10000000)
	}
}

func withRemainder(head string, rem int64) string {
	if rem == 0 {
		return head
	}
	return head + " " + spell(rem)
}

// titleCase capitalises every word except the "and" joining hundreds.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if w == "and" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
