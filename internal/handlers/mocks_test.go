package handlers

import (
	"context"
	"time"

	"gstinvoice/internal/models"
	"gstinvoice/internal/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockAuthService struct{ mock.Mock }

func (m *MockAuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*models.AuthResponse)
	return resp, args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*models.AuthResponse)
	return resp, args.Error(1)
}

func (m *MockAuthService) Refresh(ctx context.Context, refreshToken string) (*models.TokenResponse, error) {
	args := m.Called(ctx, refreshToken)
	resp, _ := args.Get(0).(*models.TokenResponse)
	return resp, args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, refreshToken string) error {
	return m.Called(ctx, refreshToken).Error(0)
}

func (m *MockAuthService) ValidateToken(token string) (*services.SellerClaims, error) {
	args := m.Called(token)
	claims, _ := args.Get(0).(*services.SellerClaims)
	return claims, args.Error(1)
}

type MockSellerService struct{ mock.Mock }

func (m *MockSellerService) GetProfile(ctx context.Context, sellerID uuid.UUID) (*models.Seller, error) {
	args := m.Called(ctx, sellerID)
	seller, _ := args.Get(0).(*models.Seller)
	return seller, args.Error(1)
}

func (m *MockSellerService) UpdateProfile(ctx context.Context, sellerID uuid.UUID, req models.UpdateProfileRequest) (*models.Seller, error) {
	args := m.Called(ctx, sellerID, req)
	seller, _ := args.Get(0).(*models.Seller)
	return seller, args.Error(1)
}

type MockInvoiceService struct{ mock.Mock }

func (m *MockInvoiceService) CreateInvoice(ctx context.Context, sellerID uuid.UUID, req models.CreateInvoiceRequest) (*models.Invoice, error) {
	args := m.Called(ctx, sellerID, req)
	inv, _ := args.Get(0).(*models.Invoice)
	return inv, args.Error(1)
}

func (m *MockInvoiceService) GetInvoiceByID(ctx context.Context, sellerID, invoiceID uuid.UUID) (*models.Invoice, error) {
	args := m.Called(ctx, sellerID, invoiceID)
	inv, _ := args.Get(0).(*models.Invoice)
	return inv, args.Error(1)
}

func (m *MockInvoiceService) ListInvoices(ctx context.Context, sellerID uuid.UUID, status models.InvoiceStatus, limit, offset int) ([]*models.Invoice, error) {
	args := m.Called(ctx, sellerID, status, limit, offset)
	invs, _ := args.Get(0).([]*models.Invoice)
	return invs, args.Error(1)
}

func (m *MockInvoiceService) UpdateInvoiceStatus(ctx context.Context, sellerID, invoiceID uuid.UUID, status models.InvoiceStatus) (*models.Invoice, error) {
	args := m.Called(ctx, sellerID, invoiceID, status)
	inv, _ := args.Get(0).(*models.Invoice)
	return inv, args.Error(1)
}

func (m *MockInvoiceService) DeleteInvoice(ctx context.Context, sellerID, invoiceID uuid.UUID) error {
	return m.Called(ctx, sellerID, invoiceID).Error(0)
}

func (m *MockInvoiceService) MarkOverdueInvoices(ctx context.Context, asOf time.Time) (int64, error) {
	args := m.Called(ctx, asOf)
	return args.Get(0).(int64), args.Error(1)
}

type MockDocumentService struct{ mock.Mock }

func (m *MockDocumentService) RenderInvoice(ctx context.Context, sellerID, invoiceID uuid.UUID) (*services.RenderedInvoice, error) {
	args := m.Called(ctx, sellerID, invoiceID)
	doc, _ := args.Get(0).(*services.RenderedInvoice)
	return doc, args.Error(1)
}

func (m *MockDocumentService) ArchiveInvoice(ctx context.Context, sellerID, invoiceID uuid.UUID) (*models.ArchivedInvoice, error) {
	args := m.Called(ctx, sellerID, invoiceID)
	archived, _ := args.Get(0).(*models.ArchivedInvoice)
	return archived, args.Error(1)
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }
