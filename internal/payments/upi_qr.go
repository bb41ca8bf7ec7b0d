// Package payments builds UPI payment intents and their QR codes.
package payments

import (
	"encoding/base64"
	"math"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/skip2/go-qrcode"

	"gstinvoice/internal/common"
)

const (
	DefaultQRSize = 256
	upiCurrency   = "INR"
)

// QRCode is a rendered UPI intent.
type QRCode struct {
	Intent string
	PNG    []byte
}

// DataURI returns the PNG as an embeddable data URI.
func (q *QRCode) DataURI() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(q.PNG)
}

// QRBuilder renders UPI intents to PNG. It holds no mutable state.
type QRBuilder struct {
	size  int
	level qrcode.RecoveryLevel
}

func NewQRBuilder(size int) *QRBuilder {
	if size <= 0 {
		size = DefaultQRSize
	}
	return &QRBuilder{size: size, level: qrcode.Medium}
}

// UPIIntent formats the payment link understood by UPI wallet apps:
//
//	upi://pay?pa=<address>&pn=<name>&am=<amount>&cu=INR&tn=Payment for Inv-<reference>
func UPIIntent(address, payeeName string, amount float64, reference string) (string, error) {
	address = strings.TrimSpace(address)
	payeeName = strings.TrimSpace(payeeName)
	if address == "" {
		return "", common.Errorf(common.ErrConfiguration, "build upi intent", "seller has no UPI id")
	}
	if payeeName == "" {
		return "", common.Errorf(common.ErrConfiguration, "build upi intent", "seller has no payee name")
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount < 0 {
		return "", common.Errorf(common.ErrInvalidInput, "build upi intent", "invalid amount %v", amount)
	}

	var b strings.Builder
	b.WriteString("upi://pay?pa=")
	b.WriteString(address)
	b.WriteString("&pn=")
	b.WriteString(encodeURIComponent(payeeName))
	b.WriteString("&am=")
	b.WriteString(decimal.NewFromFloat(amount).StringFixed(2))
	b.WriteString("&cu=")
	b.WriteString(upiCurrency)
	b.WriteString("&tn=Payment for Inv-")
	b.WriteString(reference)
	return b.String(), nil
}

// Build renders the intent for an invoice. A ConfigurationError means the
// seller cannot receive UPI payments and the QR section should be left out.
func (qb *QRBuilder) Build(address, payeeName string, amount float64, reference string) (*QRCode, error) {
	intent, err := UPIIntent(address, payeeName, amount, reference)
	if err != nil {
		return nil, err
	}
	png, err := qrcode.Encode(intent, qb.level, qb.size)
	if err != nil {
		return nil, common.NewError(common.ErrRender, "encode upi qr", err)
	}
	return &QRCode{Intent: intent, PNG: png}, nil
}

var uriComponentFixups = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// encodeURIComponent escapes like the browser function of the same name:
// spaces become %20 and !'()* stay literal.
func encodeURIComponent(s string) string {
	return uriComponentFixups.Replace(url.QueryEscape(s))
}
