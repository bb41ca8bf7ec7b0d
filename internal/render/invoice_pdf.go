// Package render turns a stored invoice and its seller into an A4 PDF.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"gstinvoice/internal/billing"
	"gstinvoice/internal/common"
	"gstinvoice/internal/models"
)

const (
	pageMargin = 15.0
	pageWidth  = 210.0
	contentW   = pageWidth - 2*pageMargin
	dateLayout = "02/01/2006"
	fontFamily = "Helvetica"
)

type rgb struct{ r, g, b int }

var (
	accentColor  = rgb{94, 53, 177}
	textColor    = rgb{26, 26, 26}
	subtextColor = rgb{85, 85, 85}
	borderColor  = rgb{224, 224, 224}
)

// item table columns: description, HSN/SAC, qty, rate, amount
var columnWidths = [...]float64{78, 24, 18, 30, 30}

// Document is everything that goes onto one invoice PDF. The image fields
// are optional raw PNG/JPEG/GIF bytes.
type Document struct {
	Invoice   *models.Invoice
	Seller    *models.Seller
	QR        []byte
	Logo      []byte
	Signature []byte
	// SignatureUnavailable prints a "[Signature]" placeholder when the
	// seller has a signature configured that could not be loaded.
	SignatureUnavailable bool
}

func (d Document) validate() error {
	switch {
	case d.Invoice == nil:
		return errors.New("invoice is required")
	case d.Seller == nil:
		return errors.New("seller is required")
	case strings.TrimSpace(d.Invoice.InvoiceNumber) == "":
		return errors.New("invoice number is required")
	case d.Invoice.InvoiceDate.IsZero():
		return errors.New("invoice date is required")
	case len(d.Invoice.Items) == 0:
		return errors.New("invoice has no line items")
	case strings.TrimSpace(d.Invoice.Client.Name) == "":
		return errors.New("client name is required")
	}
	return nil
}

// InvoiceRenderer is stateless; one instance may render concurrently.
type InvoiceRenderer struct{}

func NewInvoiceRenderer() *InvoiceRenderer {
	return &InvoiceRenderer{}
}

// Render produces the PDF bytes. Identical documents give identical bytes:
// the only date embedded in the file metadata is the invoice date.
func (r *InvoiceRenderer) Render(doc Document) ([]byte, error) {
	if err := doc.validate(); err != nil {
		return nil, common.NewError(common.ErrRender, "render invoice", err)
	}
	inv, seller := doc.Invoice, doc.Seller

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(inv.InvoiceDate.UTC())
	pdf.SetTitle("Invoice "+inv.InvoiceNumber, true)
	pdf.SetAuthor(seller.DisplayName(), true)
	pdf.SetCreator("gstinvoice", false)
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	pdf.AddPage()

	w := &pageWriter{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	w.header(seller, doc.Logo)
	w.parties(inv)
	w.items(inv.Items)
	w.totals(inv.Totals)
	w.footer(inv, seller, doc)

	if err := pdf.Error(); err != nil {
		return nil, common.NewError(common.ErrRender, "render invoice", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, common.NewError(common.ErrRender, "render invoice", err)
	}
	return buf.Bytes(), nil
}

// FileName is the download name for an invoice, with characters that are
// unsafe in file paths replaced by "-".
func FileName(invoiceNumber string) string {
	safe := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '-'
		}
		if r < 0x20 || r == 0x7f {
			return '-'
		}
		return r
	}, invoiceNumber)
	return fmt.Sprintf("Invoice-%s.pdf", safe)
}

type pageWriter struct {
	pdf *gofpdf.Fpdf
	tr  func(string) string
}

func (w *pageWriter) font(style string, size float64, c rgb) {
	w.pdf.SetFont(fontFamily, style, size)
	w.pdf.SetTextColor(c.r, c.g, c.b)
}

func (w *pageWriter) rule() {
	y := w.pdf.GetY()
	w.pdf.SetDrawColor(borderColor.r, borderColor.g, borderColor.b)
	w.pdf.SetLineWidth(0.2)
	w.pdf.Line(pageMargin, y, pageWidth-pageMargin, y)
}

// text writes wrapped text at x with width wd and returns the new y.
func (w *pageWriter) text(x, y, wd, lineH float64, s, align string) float64 {
	w.pdf.SetXY(x, y)
	w.pdf.MultiCell(wd, lineH, w.tr(s), "", align, false)
	return w.pdf.GetY()
}

func (w *pageWriter) addressLines(a models.Address) []string {
	var lines []string
	if s := strings.TrimSpace(a.Street); s != "" {
		lines = append(lines, s)
	}
	var parts []string
	for _, p := range []string{a.City, a.State, a.Pincode} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) > 0 {
		lines = append(lines, strings.Join(parts, " "))
	}
	country := strings.TrimSpace(a.Country)
	if country == "" {
		country = models.DefaultCountry
	}
	return append(lines, country)
}

// image registers data and reports its aspect ratio (height / width).
// Unreadable images are skipped and leave the document error free.
func (w *pageWriter) image(name string, data []byte) (float64, bool) {
	typ := imageType(data)
	if typ == "" {
		return 0, false
	}
	info := w.pdf.RegisterImageOptionsReader(name, gofpdf.ImageOptions{ImageType: typ}, bytes.NewReader(data))
	if w.pdf.Err() || info == nil || info.Width() == 0 {
		w.pdf.ClearError()
		return 0, false
	}
	return info.Height() / info.Width(), true
}

// fit scales an image with the given ratio into a box.
func fit(ratio, boxW, boxH float64) (float64, float64) {
	wd, ht := boxW, boxW*ratio
	if ht > boxH {
		ht = boxH
		wd = boxH / ratio
	}
	return wd, ht
}

func imageType(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	switch http.DetectContentType(data) {
	case "image/png":
		return "PNG"
	case "image/jpeg":
		return "JPG"
	case "image/gif":
		return "GIF"
	}
	return ""
}

func (w *pageWriter) header(seller *models.Seller, logo []byte) {
	pdf := w.pdf
	top := pageMargin

	if ratio, ok := w.image("logo", logo); ok {
		lw, lh := fit(ratio, 40, 20)
		pdf.ImageOptions("logo", pageWidth-pageMargin-lw, top, lw, lh, false, gofpdf.ImageOptions{}, 0, "")
	}

	w.font("B", 16, textColor)
	y := w.text(pageMargin, top, 120, 7, seller.DisplayName(), "L")

	w.font("", 10, subtextColor)
	for _, line := range w.addressLines(seller.Address) {
		y = w.text(pageMargin, y, 120, 5, line, "L")
	}
	if seller.GSTIN != "" {
		y = w.text(pageMargin, y, 120, 5, "GSTIN: "+seller.GSTIN, "L")
	}
	if seller.PAN != "" {
		y = w.text(pageMargin, y, 120, 5, "PAN: "+seller.PAN, "L")
	}

	if y < top+22 {
		y = top + 22
	}
	pdf.SetY(y + 4)
	w.rule()
	pdf.SetY(pdf.GetY() + 4)
}

func (w *pageWriter) parties(inv *models.Invoice) {
	pdf := w.pdf
	top := pdf.GetY()

	w.font("B", 11, textColor)
	left := w.text(pageMargin, top, 95, 6, "Billed To", "L")
	w.font("", 10, subtextColor)
	left = w.text(pageMargin, left, 95, 5, inv.Client.Name, "L")
	for _, line := range w.addressLines(inv.Client.Address) {
		left = w.text(pageMargin, left, 95, 5, line, "L")
	}
	if inv.Client.GSTIN != "" {
		left = w.text(pageMargin, left, 95, 5, "GSTIN: "+inv.Client.GSTIN, "L")
	}
	if inv.Client.PAN != "" {
		left = w.text(pageMargin, left, 95, 5, "PAN: "+inv.Client.PAN, "L")
	}

	meta := [][2]string{
		{"Invoice No:", inv.InvoiceNumber},
		{"Invoice Date:", inv.InvoiceDate.Format(dateLayout)},
		{"Due Date:", inv.EffectiveDueDate().Format(dateLayout)},
		{"Place of Supply:", inv.PlaceOfSupply},
	}
	right := top
	metaX := 120.0
	for _, m := range meta {
		w.font("B", 10, textColor)
		pdf.SetXY(metaX, right)
		pdf.CellFormat(32, 6, w.tr(m[0]), "", 0, "L", false, 0, "")
		w.font("", 10, subtextColor)
		right = w.text(metaX+32, right, pageWidth-pageMargin-metaX-32, 6, m[1], "L")
	}

	y := left
	if right > y {
		y = right
	}
	pdf.SetY(y + 6)
}

func (w *pageWriter) itemHeader() {
	pdf := w.pdf
	w.rule()
	w.font("B", 10, accentColor)
	pdf.SetX(pageMargin)
	headers := [...]string{"Item/Description", "HSN/SAC", "Qty", "Rate", "Amount"}
	aligns := [...]string{"L", "L", "C", "R", "R"}
	for i, h := range headers {
		pdf.CellFormat(columnWidths[i], 8, h, "", 0, aligns[i], false, 0, "")
	}
	pdf.Ln(8)
	w.rule()
	pdf.SetY(pdf.GetY() + 2)
}

func (w *pageWriter) items(items []models.LineItem) {
	pdf := w.pdf
	const lineH = 5.0
	_, pageH := pdf.GetPageSize()

	w.itemHeader()
	for _, it := range items {
		desc := w.tr(it.Description)
		lines := pdf.SplitLines([]byte(desc), columnWidths[0]-2)
		rowH := float64(len(lines)) * lineH
		if rowH < lineH {
			rowH = lineH
		}
		if pdf.GetY()+rowH > pageH-pageMargin {
			pdf.AddPage()
			w.itemHeader()
		}

		w.font("", 9, textColor)
		x, y := pageMargin, pdf.GetY()
		pdf.SetXY(x, y)
		pdf.MultiCell(columnWidths[0], lineH, desc, "", "L", false)

		x += columnWidths[0]
		cells := [...]struct {
			text  string
			align string
		}{
			{w.tr(it.HSNSAC), "L"},
			{strconv.FormatFloat(it.Quantity, 'f', -1, 64), "C"},
			{billing.FormatINR(it.Rate), "R"},
			{billing.FormatINR(it.Amount), "R"},
		}
		for i, c := range cells {
			pdf.SetXY(x, y)
			pdf.CellFormat(columnWidths[i+1], lineH, c.text, "", 0, c.align, false, 0, "")
			x += columnWidths[i+1]
		}
		pdf.SetY(y + rowH + 2)
	}
	w.rule()
	pdf.SetY(pdf.GetY() + 3)
}

func (w *pageWriter) totalsRow(label, value string, bold bool) {
	style := ""
	if bold {
		style = "B"
	}
	w.font(style, 10, textColor)
	w.pdf.SetX(pageMargin + 90)
	w.pdf.CellFormat(50, 7, w.tr(label), "", 0, "R", false, 0, "")
	w.pdf.CellFormat(contentW-140, 7, value, "", 1, "R", false, 0, "")
}

func (w *pageWriter) totals(t models.Totals) {
	w.totalsRow("Sub Total", billing.FormatINR(t.Subtotal), false)
	if t.DiscountAmount > 0 {
		w.totalsRow("Discount", "- "+billing.FormatINR(t.DiscountAmount), false)
	}
	w.totalsRow("Taxable Amount", billing.FormatINR(t.TaxableAmount), false)
	if t.IntraState {
		half := billing.FormatRate(t.TaxRate / 2)
		w.totalsRow(fmt.Sprintf("CGST @ %s%%", half), billing.FormatINR(t.CGST), false)
		w.totalsRow(fmt.Sprintf("SGST @ %s%%", half), billing.FormatINR(t.SGST), false)
	} else {
		w.totalsRow(fmt.Sprintf("IGST @ %s%%", billing.FormatRate(t.TaxRate)), billing.FormatINR(t.IGST), false)
	}
	w.totalsRow("Total", billing.FormatINR(t.Total), true)
	if t.EarlyPayDiscount > 0 {
		w.totalsRow("EarlyPay Discount", "- "+billing.FormatINR(t.EarlyPayDiscount), false)
		w.totalsRow("Total Due", billing.FormatINR(t.TotalDue), true)
	}

	y := w.pdf.GetY() + 3
	w.font("B", 10, textColor)
	y = w.text(pageMargin, y, contentW, 6, "Invoice Total (in words)", "L")
	w.font("", 10, subtextColor)
	y = w.text(pageMargin, y, contentW, 5, t.AmountInWords, "L")
	w.pdf.SetY(y + 5)
}

func (w *pageWriter) footer(inv *models.Invoice, seller *models.Seller, doc Document) {
	pdf := w.pdf
	_, pageH := pdf.GetPageSize()
	if pdf.GetY()+75 > pageH-pageMargin {
		pdf.AddPage()
	}
	w.rule()
	top := pdf.GetY() + 5

	// bank details
	w.font("B", 10, textColor)
	y := w.text(pageMargin, top, 70, 6, "Bank & Payment Details", "L")
	w.font("", 9, subtextColor)
	bank := seller.BankDetails
	for _, line := range []string{
		"Account Holder: " + bank.AccountName,
		"Account Number: " + bank.AccountNumber,
		"Bank Name: " + bank.BankName,
		"IFSC: " + bank.IFSC,
	} {
		y = w.text(pageMargin, y, 70, 5, line, "L")
	}
	left := y

	// QR
	qrX, qrSize := pageMargin+75.0, 30.0
	qrBottom := top
	if _, ok := w.image("upi-qr", doc.QR); ok {
		pdf.ImageOptions("upi-qr", qrX, top, qrSize, qrSize, false, gofpdf.ImageOptions{}, 0, "")
		w.font("B", 9, textColor)
		pdf.SetXY(qrX-5, top+qrSize+1)
		pdf.CellFormat(qrSize+10, 5, "Scan to Pay (UPI)", "", 0, "C", false, 0, "")
		qrBottom = top + qrSize + 6
	}

	// terms
	termsX := qrX + qrSize + 10
	termsW := pageWidth - pageMargin - termsX
	w.font("B", 10, textColor)
	ty := w.text(termsX, top, termsW, 6, "Terms & Conditions", "L")
	w.font("", 8, subtextColor)
	ty = w.text(termsX, ty, termsW, 4, inv.TermsAndConditions, "L")

	y = maxOf(left, qrBottom, ty) + 6

	// notes on the left, signature on the right
	noteY := y
	if strings.TrimSpace(inv.AdditionalNotes) != "" {
		w.font("B", 10, textColor)
		noteY = w.text(pageMargin, y, 100, 6, "Additional Notes", "L")
		w.font("", 9, subtextColor)
		noteY = w.text(pageMargin, noteY, 100, 5, inv.AdditionalNotes, "L")
	}

	sigX, sigW := pageWidth-pageMargin-50, 50.0
	sigLine := y + 16
	if ratio, ok := w.image("signature", doc.Signature); ok {
		sw, sh := fit(ratio, 40, 14)
		pdf.ImageOptions("signature", sigX+(sigW-sw)/2, sigLine-sh-1, sw, sh, false, gofpdf.ImageOptions{}, 0, "")
	} else if doc.SignatureUnavailable {
		w.font("", 9, subtextColor)
		pdf.SetXY(sigX, sigLine-7)
		pdf.CellFormat(sigW, 5, "[Signature]", "", 0, "C", false, 0, "")
	}
	pdf.SetDrawColor(subtextColor.r, subtextColor.g, subtextColor.b)
	pdf.Line(sigX, sigLine, sigX+sigW, sigLine)
	w.font("B", 10, textColor)
	pdf.SetXY(sigX, sigLine+1)
	pdf.CellFormat(sigW, 6, "Authorized Signature", "", 0, "C", false, 0, "")

	pdf.SetY(maxOf(noteY, sigLine+8))
}

func maxOf(vals ...float64) float64 {
	m := vals[0]
	for _, v := range vals[1:] {
		if v > m {
			m = v
		}
	}
	return m
}
