package services

import (
	"context"
	"fmt"
	"time"

	"gstinvoice/internal/assets"
	"gstinvoice/internal/common"
	"gstinvoice/internal/models"
	"gstinvoice/internal/payments"
	"gstinvoice/internal/render"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RenderedInvoice is a finished PDF ready to stream.
type RenderedInvoice struct {
	FileName string
	PDF      []byte
}

// DocumentService turns a stored invoice into its PDF.
type DocumentService interface {
	RenderInvoice(ctx context.Context, sellerID, invoiceID uuid.UUID) (*RenderedInvoice, error)
	ArchiveInvoice(ctx context.Context, sellerID, invoiceID uuid.UUID) (*models.ArchivedInvoice, error)
}

type documentService struct {
	invoices   InvoiceService
	sellers    SellerService
	fetcher    assets.Fetcher
	qr         *payments.QRBuilder
	renderer   *render.InvoiceRenderer
	storage    MinioService
	presignTTL time.Duration
	logger     *zap.Logger
}

// NewDocumentService wires the PDF pipeline. storage may be nil, in which
// case ArchiveInvoice is unavailable.
func NewDocumentService(invoices InvoiceService, sellers SellerService, fetcher assets.Fetcher, qr *payments.QRBuilder,
	renderer *render.InvoiceRenderer, storage MinioService, presignTTL time.Duration, logger *zap.Logger) DocumentService {
	return &documentService{
		invoices:   invoices,
		sellers:    sellers,
		fetcher:    fetcher,
		qr:         qr,
		renderer:   renderer,
		storage:    storage,
		presignTTL: presignTTL,
		logger:     logger.Named("documents"),
	}
}

// RenderInvoice loads the invoice and seller, builds the payment QR, fetches
// logo and signature concurrently and renders. A missing UPI id or an
// unreachable image only drops that section from the document.
func (s *documentService) RenderInvoice(ctx context.Context, sellerID, invoiceID uuid.UUID) (*RenderedInvoice, error) {
	invoice, err := s.invoices.GetInvoiceByID(ctx, sellerID, invoiceID)
	if err != nil {
		return nil, err
	}
	seller, err := s.sellers.GetProfile(ctx, sellerID)
	if err != nil {
		return nil, err
	}

	log := s.logger.With(zap.String("invoice_id", invoiceID.String()))

	doc := render.Document{Invoice: invoice, Seller: seller}
	qr, err := s.qr.Build(seller.UPIID, seller.DisplayName(), invoice.Totals.TotalDue, invoice.InvoiceNumber)
	if err != nil {
		log.Warn("payment QR omitted", zap.Error(err))
	} else {
		doc.QR = qr.PNG
	}

	imgs, err := assets.FetchImages(ctx, s.fetcher, seller.LogoURL, seller.AuthorizedSignatureURL)
	if err != nil {
		return nil, err
	}
	if imgs.LogoErr != nil {
		log.Warn("logo omitted", zap.String("url", seller.LogoURL), zap.Error(imgs.LogoErr))
	}
	if imgs.SignatureErr != nil {
		log.Warn("signature omitted", zap.String("url", seller.AuthorizedSignatureURL), zap.Error(imgs.SignatureErr))
	}
	doc.Logo = imgs.Logo
	doc.Signature = imgs.Signature
	doc.SignatureUnavailable = imgs.SignatureErr != nil

	// a cancelled request skips rendering
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("render invoice: %w", err)
	}

	pdf, err := s.renderer.Render(doc)
	if err != nil {
		return nil, err
	}
	return &RenderedInvoice{FileName: render.FileName(invoice.InvoiceNumber), PDF: pdf}, nil
}

// ArchiveInvoice renders the PDF, uploads it under <seller>/<file name> and
// returns a presigned download URL.
func (s *documentService) ArchiveInvoice(ctx context.Context, sellerID, invoiceID uuid.UUID) (*models.ArchivedInvoice, error) {
	if s.storage == nil {
		return nil, common.Errorf(common.ErrConfiguration, "archive invoice", "object storage is not configured")
	}

	rendered, err := s.RenderInvoice(ctx, sellerID, invoiceID)
	if err != nil {
		return nil, err
	}

	objectName := fmt.Sprintf("%s/%s", sellerID, rendered.FileName)
	if err := s.storage.UploadPDF(ctx, objectName, rendered.PDF); err != nil {
		return nil, err
	}
	url, err := s.storage.GetPresignedURL(ctx, objectName, s.presignTTL)
	if err != nil {
		return nil, err
	}

	s.logger.Info("invoice archived", zap.String("invoice_id", invoiceID.String()), zap.String("object", objectName))
	return &models.ArchivedInvoice{
		InvoiceID:  invoiceID.String(),
		ObjectName: objectName,
		URL:        url,
		ExpiresIn:  int(s.presignTTL.Seconds()),
	}, nil
}
