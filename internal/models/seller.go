package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	DefaultTermsAndConditions = "1. Please pay within 15 days.\n2. Interest @ 18% p.a. will be charged on delayed payments."
	DefaultAdditionalNotes    = "Thank you for your business!"
	DefaultCountry            = "India"
)

type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Pincode string `json:"pincode"`
	Country string `json:"country"`
}

type BankDetails struct {
	AccountName   string `json:"account_name"`
	AccountNumber string `json:"account_number"`
	BankName      string `json:"bank_name"`
	IFSC          string `json:"ifsc"`
}

// Seller is the tenant's business profile. One seller per login.
type Seller struct {
	ID                     uuid.UUID   `json:"id" db:"id"`
	Name                   string      `json:"name" db:"name"`
	Email                  string      `json:"email" db:"email"`
	PasswordHash           string      `json:"-" db:"password_hash"` // Never serialize in JSON
	BusinessName           string      `json:"business_name" db:"business_name"`
	GSTIN                  string      `json:"gstin" db:"gstin"`
	PAN                    string      `json:"pan" db:"pan"`
	UPIID                  string      `json:"upi_id" db:"upi_id"`
	LogoURL                string      `json:"logo_url" db:"logo_url"`
	AuthorizedSignatureURL string      `json:"authorized_signature_url" db:"authorized_signature_url"`
	Address                Address     `json:"address" db:"address"`
	BankDetails            BankDetails `json:"bank_details" db:"bank_details"`
	TermsAndConditions     string      `json:"terms_and_conditions" db:"terms_and_conditions"`
	AdditionalNotes        string      `json:"additional_notes" db:"additional_notes"`
	CreatedAt              time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt              time.Time   `json:"updated_at" db:"updated_at"`
}

// DisplayName is the name printed on invoices and used as UPI payee.
func (s *Seller) DisplayName() string {
	if s.BusinessName != "" {
		return s.BusinessName
	}
	return s.Name
}
