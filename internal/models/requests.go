package models

import "gstinvoice/internal/common"

type RegisterRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	BusinessName string `json:"business_name"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by register, login and refresh.
type AuthResponse struct {
	Seller *Seller        `json:"seller,omitempty"`
	Tokens *TokenResponse `json:"tokens"`
}

// UpdateProfileRequest is a partial update; nil fields are left unchanged.
// Address and BankDetails replace the stored value as a whole.
type UpdateProfileRequest struct {
	Name                   *string      `json:"name,omitempty"`
	BusinessName           *string      `json:"business_name,omitempty"`
	GSTIN                  *string      `json:"gstin,omitempty"`
	PAN                    *string      `json:"pan,omitempty"`
	UPIID                  *string      `json:"upi_id,omitempty"`
	LogoURL                *string      `json:"logo_url,omitempty"`
	AuthorizedSignatureURL *string      `json:"authorized_signature_url,omitempty"`
	TermsAndConditions     *string      `json:"terms_and_conditions,omitempty"`
	AdditionalNotes        *string      `json:"additional_notes,omitempty"`
	Address                *Address     `json:"address,omitempty"`
	BankDetails            *BankDetails `json:"bank_details,omitempty"`
	CurrentPassword        string       `json:"current_password,omitempty"`
	NewPassword            string       `json:"new_password,omitempty"`
}

// LineItemRequest carries loosely typed numbers. Strings, nulls and garbage
// coerce to zero and are then caught by validation.
type LineItemRequest struct {
	Description string        `json:"description"`
	HSNSAC      string        `json:"hsn_sac"`
	Quantity    common.Number `json:"qty"`
	Rate        common.Number `json:"rate"`
}

type CreateInvoiceRequest struct {
	InvoiceDate        string            `json:"invoice_date"`
	DueDate            string            `json:"due_date"`
	PlaceOfSupply      string            `json:"place_of_supply"`
	CountryOfSupply    string            `json:"country_of_supply"`
	Client             ClientSnapshot    `json:"client"`
	Items              []LineItemRequest `json:"items"`
	DiscountType       DiscountType      `json:"discount_type"`
	DiscountValue      common.Number     `json:"discount_value"`
	TaxRate            common.Number     `json:"tax_rate"`
	EarlyPayDiscount   common.Number     `json:"early_pay_discount"`
	TermsAndConditions *string           `json:"terms_and_conditions,omitempty"`
	AdditionalNotes    *string           `json:"additional_notes,omitempty"`
	Status             InvoiceStatus     `json:"status,omitempty"`
}

type UpdateInvoiceStatusRequest struct {
	Status InvoiceStatus `json:"status"`
}

// ArchivedInvoice points at a rendered PDF stored in object storage.
type ArchivedInvoice struct {
	InvoiceID  string `json:"invoice_id"`
	ObjectName string `json:"object_name"`
	URL        string `json:"url"`
	ExpiresIn  int    `json:"expires_in"`
}
