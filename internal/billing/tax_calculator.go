// Package billing holds the pure invoice arithmetic: GST totals, amount in
// words, rupee formatting and invoice number sequencing.
package billing

import (
	"strings"

	"github.com/shopspring/decimal"

	"gstinvoice/internal/common"
	"gstinvoice/internal/models"
)

const domesticCountry = "india"

// ItemInput is a raw line item before amounts are derived.
type ItemInput struct {
	Description string
	HSNSAC      string
	Quantity    float64
	Rate        float64
}

// TaxInput is everything the calculator needs for one invoice.
type TaxInput struct {
	Items            []ItemInput
	DiscountType     models.DiscountType
	DiscountValue    float64
	TaxRate          float64
	EarlyPayDiscount float64
	SellerState      string
	SupplyState      string
	SupplyCountry    string
}

// Computation is the calculator output: priced items plus the totals snapshot.
type Computation struct {
	Items  []models.LineItem
	Totals models.Totals
}

// IsIntraState decides the CGST/SGST versus IGST split. Same state inside
// India is intra-state; everything else is inter-state.
func IsIntraState(sellerState, supplyState, supplyCountry string) bool {
	return normalizeRegion(sellerState) == normalizeRegion(supplyState) &&
		normalizeRegion(supplyCountry) == domesticCountry
}

func normalizeRegion(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Compute derives line amounts and the tax breakdown. Values keep full
// float precision; rounding happens only when rendering. Amount in words is
// left empty for the caller.
func Compute(in TaxInput) Computation {
	items := make([]models.LineItem, 0, len(in.Items))
	subtotal := 0.0
	for _, it := range in.Items {
		amount := it.Quantity * it.Rate
		subtotal += amount
		items = append(items, models.LineItem{
			Description: it.Description,
			HSNSAC:      it.HSNSAC,
			Quantity:    it.Quantity,
			Rate:        it.Rate,
			Amount:      amount,
		})
	}

	discountType := in.DiscountType
	if discountType != models.DiscountPercentage {
		discountType = models.DiscountFixed
	}

	var discountAmount float64
	if discountType == models.DiscountPercentage {
		discountAmount = subtotal * (in.DiscountValue / 100)
	} else {
		discountAmount = in.DiscountValue
	}

	taxableAmount := subtotal - discountAmount
	totalTax := taxableAmount * (in.TaxRate / 100)

	intra := IsIntraState(in.SellerState, in.SupplyState, in.SupplyCountry)
	var cgst, sgst, igst float64
	if intra {
		cgst = totalTax / 2
		sgst = totalTax / 2
	} else {
		igst = totalTax
	}

	total := taxableAmount + totalTax
	totalDue := total - in.EarlyPayDiscount

	return Computation{
		Items: items,
		Totals: models.Totals{
			Subtotal:         subtotal,
			DiscountType:     discountType,
			DiscountValue:    in.DiscountValue,
			DiscountAmount:   discountAmount,
			TaxableAmount:    taxableAmount,
			TaxRate:          in.TaxRate,
			IntraState:       intra,
			CGST:             cgst,
			SGST:             sgst,
			IGST:             igst,
			TotalTax:         totalTax,
			Total:            total,
			EarlyPayDiscount: in.EarlyPayDiscount,
			TotalDue:         totalDue,
		},
	}
}

// CheckTotals rejects results that would print a negative payable amount:
// a discount larger than the subtotal, or an early-pay discount larger than
// the total. Totals at or above MaxAmount are rejected as well.
func CheckTotals(t models.Totals) error {
	if t.TaxableAmount < 0 {
		return common.Errorf(common.ErrComputation, "compute totals",
			"discount %.2f exceeds subtotal %.2f", t.DiscountAmount, t.Subtotal)
	}
	if t.TotalDue < 0 {
		return common.Errorf(common.ErrComputation, "compute totals",
			"early pay discount %.2f exceeds total %.2f", t.EarlyPayDiscount, t.Total)
	}
	if !decimal.NewFromFloat(t.Total).LessThan(MaxAmount) {
		return common.Errorf(common.ErrComputation, "compute totals", "total %.2f is out of range", t.Total)
	}
	return nil
}
