package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gstinvoice/internal/billing"
	"gstinvoice/internal/common"
	"gstinvoice/internal/models"
	"gstinvoice/internal/repositories"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// InvoiceService defines the invoice lifecycle
type InvoiceService interface {
	CreateInvoice(ctx context.Context, sellerID uuid.UUID, req models.CreateInvoiceRequest) (*models.Invoice, error)
	GetInvoiceByID(ctx context.Context, sellerID, invoiceID uuid.UUID) (*models.Invoice, error)
	ListInvoices(ctx context.Context, sellerID uuid.UUID, status models.InvoiceStatus, limit, offset int) ([]*models.Invoice, error)
	UpdateInvoiceStatus(ctx context.Context, sellerID, invoiceID uuid.UUID, status models.InvoiceStatus) (*models.Invoice, error)
	DeleteInvoice(ctx context.Context, sellerID, invoiceID uuid.UUID) error
	MarkOverdueInvoices(ctx context.Context, asOf time.Time) (int64, error)
}

var (
	allStatuses = []models.InvoiceStatus{
		models.InvoiceStatusDraft,
		models.InvoiceStatusPending,
		models.InvoiceStatusPaid,
		models.InvoiceStatusOverdue,
	}

	// Paid is terminal.
	statusTransitions = map[models.InvoiceStatus][]models.InvoiceStatus{
		models.InvoiceStatusDraft:   {models.InvoiceStatusPending},
		models.InvoiceStatusPending: {models.InvoiceStatusPaid, models.InvoiceStatusOverdue},
		models.InvoiceStatusOverdue: {models.InvoiceStatusPaid},
	}

	initialStatuses   = []models.InvoiceStatus{models.InvoiceStatusDraft, models.InvoiceStatusPending}
	deletableStatuses = []models.InvoiceStatus{models.InvoiceStatusDraft, models.InvoiceStatusPending}
)

type invoiceService struct {
	invoiceRepo    repositories.InvoiceRepository
	sellers        SellerService
	sequences      billing.SequenceAllocator
	defaultDueDays int
	now            func() time.Time
	logger         *zap.Logger
}

// NewInvoiceService creates a new invoice service. defaultDueDays of zero
// leaves the due date empty when the request omits it.
func NewInvoiceService(invoiceRepo repositories.InvoiceRepository, sellers SellerService, sequences billing.SequenceAllocator, defaultDueDays int, logger *zap.Logger) InvoiceService {
	return &invoiceService{
		invoiceRepo:    invoiceRepo,
		sellers:        sellers,
		sequences:      sequences,
		defaultDueDays: defaultDueDays,
		now:            time.Now,
		logger:         logger.Named("invoices"),
	}
}

// CreateInvoice validates the request, computes totals, allocates the next
// number and persists the result. A sequence number is consumed only once
// the computation has succeeded.
func (s *invoiceService) CreateInvoice(ctx context.Context, sellerID uuid.UUID, req models.CreateInvoiceRequest) (*models.Invoice, error) {
	invoiceDate, dueDate, err := s.validateCreate(&req)
	if err != nil {
		return nil, err
	}

	seller, err := s.sellers.GetProfile(ctx, sellerID)
	if err != nil {
		return nil, err
	}

	computed := billing.Compute(billing.TaxInput{
		Items: lo.Map(req.Items, func(it models.LineItemRequest, _ int) billing.ItemInput {
			return billing.ItemInput{
				Description: strings.TrimSpace(it.Description),
				HSNSAC:      strings.TrimSpace(it.HSNSAC),
				Quantity:    it.Quantity.Float64(),
				Rate:        it.Rate.Float64(),
			}
		}),
		DiscountType:     req.DiscountType,
		DiscountValue:    req.DiscountValue.Float64(),
		TaxRate:          req.TaxRate.Float64(),
		EarlyPayDiscount: req.EarlyPayDiscount.Float64(),
		SellerState:      seller.Address.State,
		SupplyState:      req.PlaceOfSupply,
		SupplyCountry:    req.CountryOfSupply,
	})
	if err := billing.CheckTotals(computed.Totals); err != nil {
		return nil, err
	}
	words, err := billing.AmountToWords(computed.Totals.TotalDue)
	if err != nil {
		return nil, common.NewError(common.ErrComputation, "amount in words", err)
	}
	computed.Totals.AmountInWords = words

	seq, err := s.sequences.Next(ctx, sellerID)
	if err != nil {
		return nil, err
	}

	invoice := &models.Invoice{
		ID:                 uuid.New(),
		SellerID:           sellerID,
		InvoiceNumber:      billing.FormatInvoiceNumber(seq),
		InvoiceNumberSeq:   seq,
		InvoiceDate:        invoiceDate,
		DueDate:            dueDate,
		PlaceOfSupply:      req.PlaceOfSupply,
		CountryOfSupply:    req.CountryOfSupply,
		Client:             req.Client,
		Items:              computed.Items,
		Totals:             computed.Totals,
		TermsAndConditions: lo.CoalesceOrEmpty(lo.FromPtr(req.TermsAndConditions), seller.TermsAndConditions),
		AdditionalNotes:    lo.CoalesceOrEmpty(lo.FromPtr(req.AdditionalNotes), seller.AdditionalNotes),
		Status:             lo.Ternary(req.Status == "", models.InvoiceStatusPending, req.Status),
	}
	if err := s.invoiceRepo.Create(ctx, invoice); err != nil {
		return nil, err
	}

	s.logger.Info("invoice created",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("seller_id", sellerID.String()),
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.Float64("total_due", invoice.Totals.TotalDue),
	)
	return invoice, nil
}

// validateCreate normalises req in place and returns the parsed dates.
func (s *invoiceService) validateCreate(req *models.CreateInvoiceRequest) (time.Time, *time.Time, error) {
	verr := common.NewValidationError()

	req.Client.Name = strings.TrimSpace(req.Client.Name)
	req.Client.GSTIN = strings.ToUpper(strings.TrimSpace(req.Client.GSTIN))
	req.Client.PAN = strings.ToUpper(strings.TrimSpace(req.Client.PAN))
	req.PlaceOfSupply = strings.TrimSpace(req.PlaceOfSupply)
	req.CountryOfSupply = strings.TrimSpace(req.CountryOfSupply)
	if req.CountryOfSupply == "" {
		req.CountryOfSupply = models.DefaultCountry
	}
	if req.DiscountType == "" {
		req.DiscountType = models.DiscountFixed
	}

	if req.Client.Name == "" {
		verr.Add("client.name", "is required")
	}
	if strings.TrimSpace(req.Client.Address.State) == "" {
		verr.Add("client.address.state", "is required")
	}
	if !common.ValidateExactLength(req.Client.GSTIN, 15) {
		verr.Add("client.gstin", "must be 15 characters")
	}
	if !common.ValidateExactLength(req.Client.PAN, 10) {
		verr.Add("client.pan", "must be 10 characters")
	}
	if req.PlaceOfSupply == "" {
		verr.Add("place_of_supply", "is required")
	}

	if len(req.Items) == 0 {
		verr.Add("items", "at least one item is required")
	}
	for i, it := range req.Items {
		field := fmt.Sprintf("items[%d]", i)
		if strings.TrimSpace(it.Description) == "" {
			verr.Add(field+".description", "is required")
		}
		if it.Quantity.Float64() <= 0 {
			verr.Add(field+".qty", "must be greater than 0")
		}
		if it.Rate.Float64() < 0 {
			verr.Add(field+".rate", "must not be negative")
		}
	}

	if !lo.Contains([]models.DiscountType{models.DiscountPercentage, models.DiscountFixed}, req.DiscountType) {
		verr.Add("discount_type", "must be percentage or fixed")
	}
	if req.DiscountValue.Float64() < 0 {
		verr.Add("discount_value", "must not be negative")
	}
	if req.TaxRate.Float64() < 0 {
		verr.Add("tax_rate", "must not be negative")
	}
	if req.EarlyPayDiscount.Float64() < 0 {
		verr.Add("early_pay_discount", "must not be negative")
	}
	if req.Status != "" && !lo.Contains(initialStatuses, req.Status) {
		verr.Add("status", "new invoices must be Draft or Pending")
	}

	invoiceDate := s.today()
	if strings.TrimSpace(req.InvoiceDate) != "" {
		d, err := common.ParseDate(req.InvoiceDate)
		if err != nil {
			verr.Add("invoice_date", err.Error())
		} else {
			invoiceDate = d
		}
	}

	var dueDate *time.Time
	if strings.TrimSpace(req.DueDate) != "" {
		d, err := common.ParseDate(req.DueDate)
		if err != nil {
			verr.Add("due_date", err.Error())
		} else if d.Before(invoiceDate) {
			verr.Add("due_date", "must not be before invoice_date")
		} else {
			dueDate = &d
		}
	} else if s.defaultDueDays > 0 {
		d := invoiceDate.AddDate(0, 0, s.defaultDueDays)
		dueDate = &d
	}

	if err := verr.OrNil(); err != nil {
		return time.Time{}, nil, err
	}
	return invoiceDate, dueDate, nil
}

func (s *invoiceService) today() time.Time {
	y, m, d := s.now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// GetInvoiceByID returns ErrForbidden when the invoice belongs to another seller.
func (s *invoiceService) GetInvoiceByID(ctx context.Context, sellerID, invoiceID uuid.UUID) (*models.Invoice, error) {
	invoice, err := s.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice.SellerID != sellerID {
		return nil, common.Errorf(common.ErrForbidden, "get invoice", "invoice %s belongs to another seller", invoiceID)
	}
	return invoice, nil
}

func (s *invoiceService) ListInvoices(ctx context.Context, sellerID uuid.UUID, status models.InvoiceStatus, limit, offset int) ([]*models.Invoice, error) {
	if status != "" && !lo.Contains(allStatuses, status) {
		verr := common.NewValidationError()
		verr.Add("status", "must be one of Draft, Pending, Paid, Overdue")
		return nil, verr
	}
	return s.invoiceRepo.ListBySeller(ctx, sellerID, status, limit, offset)
}

func (s *invoiceService) UpdateInvoiceStatus(ctx context.Context, sellerID, invoiceID uuid.UUID, status models.InvoiceStatus) (*models.Invoice, error) {
	if !lo.Contains(allStatuses, status) {
		verr := common.NewValidationError()
		verr.Add("status", "must be one of Draft, Pending, Paid, Overdue")
		return nil, verr
	}

	invoice, err := s.GetInvoiceByID(ctx, sellerID, invoiceID)
	if err != nil {
		return nil, err
	}
	if !lo.Contains(statusTransitions[invoice.Status], status) {
		return nil, common.Errorf(common.ErrConflict, "update invoice status",
			"invalid status transition from %s to %s", invoice.Status, status)
	}

	var paidDate *time.Time
	if status == models.InvoiceStatusPaid {
		paid := s.now().UTC()
		paidDate = &paid
	}
	if err := s.invoiceRepo.UpdateStatus(ctx, invoiceID, status, paidDate); err != nil {
		return nil, err
	}

	invoice.Status = status
	invoice.PaidDate = paidDate
	return invoice, nil
}

// DeleteInvoice only removes Draft and Pending invoices. The number is not
// returned to the sequence.
func (s *invoiceService) DeleteInvoice(ctx context.Context, sellerID, invoiceID uuid.UUID) error {
	invoice, err := s.GetInvoiceByID(ctx, sellerID, invoiceID)
	if err != nil {
		return err
	}
	if !lo.Contains(deletableStatuses, invoice.Status) {
		return common.Errorf(common.ErrConflict, "delete invoice", "%s invoices cannot be deleted", invoice.Status)
	}
	return s.invoiceRepo.Delete(ctx, invoiceID)
}

// MarkOverdueInvoices moves Pending invoices due before asOf to Overdue.
func (s *invoiceService) MarkOverdueInvoices(ctx context.Context, asOf time.Time) (int64, error) {
	n, err := s.invoiceRepo.MarkOverdue(ctx, asOf)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("invoices marked overdue", zap.Int64("count", n), zap.Time("as_of", asOf))
	}
	return n, nil
}
