package models

import (
	"time"

	"github.com/google/uuid"
)

type InvoiceStatus string

const (
	InvoiceStatusDraft   InvoiceStatus = "Draft"
	InvoiceStatusPending InvoiceStatus = "Pending"
	InvoiceStatusPaid    InvoiceStatus = "Paid"
	InvoiceStatusOverdue InvoiceStatus = "Overdue"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// LineItem is embedded in an invoice and never changes after creation.
type LineItem struct {
	Description string  `json:"description"`
	HSNSAC      string  `json:"hsn_sac"`
	Quantity    float64 `json:"qty"`
	Rate        float64 `json:"rate"`
	Amount      float64 `json:"amount"`
}

// Totals is the computed tax summary stored with the invoice.
type Totals struct {
	Subtotal         float64      `json:"subtotal"`
	DiscountType     DiscountType `json:"discount_type"`
	DiscountValue    float64      `json:"discount_value"`
	DiscountAmount   float64      `json:"discount_amount"`
	TaxableAmount    float64      `json:"taxable_amount"`
	TaxRate          float64      `json:"tax_rate"`
	IntraState       bool         `json:"intra_state"`
	CGST             float64      `json:"cgst"`
	SGST             float64      `json:"sgst"`
	IGST             float64      `json:"igst"`
	TotalTax         float64      `json:"total_tax"`
	Total            float64      `json:"total"`
	EarlyPayDiscount float64      `json:"early_pay_discount"`
	TotalDue         float64      `json:"total_due"`
	AmountInWords    string       `json:"amount_in_words"`
}

// ClientSnapshot is copied onto the invoice at creation time.
type ClientSnapshot struct {
	Name    string  `json:"name"`
	GSTIN   string  `json:"gstin"`
	PAN     string  `json:"pan"`
	Address Address `json:"address"`
	Email   string  `json:"email"`
}

type Invoice struct {
	ID                 uuid.UUID      `json:"id" db:"id"`
	SellerID           uuid.UUID      `json:"seller_id" db:"seller_id"`
	InvoiceNumber      string         `json:"invoice_number" db:"invoice_number"`
	InvoiceNumberSeq   int64          `json:"invoice_number_seq" db:"invoice_number_seq"`
	InvoiceDate        time.Time      `json:"invoice_date" db:"invoice_date"`
	DueDate            *time.Time     `json:"due_date,omitempty" db:"due_date"`
	PlaceOfSupply      string         `json:"place_of_supply" db:"place_of_supply"`
	CountryOfSupply    string         `json:"country_of_supply" db:"country_of_supply"`
	Client             ClientSnapshot `json:"client" db:"client"`
	Items              []LineItem     `json:"items" db:"items"`
	Totals             Totals         `json:"totals" db:"totals"`
	TermsAndConditions string         `json:"terms_and_conditions" db:"terms_and_conditions"`
	AdditionalNotes    string         `json:"additional_notes" db:"additional_notes"`
	Status             InvoiceStatus  `json:"status" db:"status"`
	PaidDate           *time.Time     `json:"paid_date,omitempty" db:"paid_date"`
	CreatedAt          time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at" db:"updated_at"`
}

// EffectiveDueDate falls back to the invoice date when no due date was given.
func (i *Invoice) EffectiveDueDate() time.Time {
	if i.DueDate != nil {
		return *i.DueDate
	}
	return i.InvoiceDate
}
