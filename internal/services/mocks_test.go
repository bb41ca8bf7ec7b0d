package services

import (
	"context"
	"time"

	"gstinvoice/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockSellerRepository struct {
	mock.Mock
}

func (m *MockSellerRepository) Create(ctx context.Context, seller *models.Seller) error {
	return m.Called(ctx, seller).Error(0)
}

func (m *MockSellerRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Seller, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Seller), args.Error(1)
}

func (m *MockSellerRepository) GetByEmail(ctx context.Context, email string) (*models.Seller, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Seller), args.Error(1)
}

func (m *MockSellerRepository) Update(ctx context.Context, seller *models.Seller) error {
	return m.Called(ctx, seller).Error(0)
}

type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) Create(ctx context.Context, invoice *models.Invoice) error {
	return m.Called(ctx, invoice).Error(0)
}

func (m *MockInvoiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) ListBySeller(ctx context.Context, sellerID uuid.UUID, status models.InvoiceStatus, limit, offset int) ([]*models.Invoice, error) {
	args := m.Called(ctx, sellerID, status, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.InvoiceStatus, paidDate *time.Time) error {
	return m.Called(ctx, id, status, paidDate).Error(0)
}

func (m *MockInvoiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockInvoiceRepository) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	args := m.Called(ctx, asOf)
	return args.Get(0).(int64), args.Error(1)
}

type MockSequenceAllocator struct {
	mock.Mock
}

func (m *MockSequenceAllocator) Next(ctx context.Context, sellerID uuid.UUID) (int64, error) {
	args := m.Called(ctx, sellerID)
	return args.Get(0).(int64), args.Error(1)
}

type MockCacheService struct {
	mock.Mock
}

func (m *MockCacheService) GetAsset(ctx context.Context, url string) ([]byte, error) {
	args := m.Called(ctx, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockCacheService) SetAsset(ctx context.Context, url string, data []byte, ttl time.Duration) error {
	return m.Called(ctx, url, data, ttl).Error(0)
}

func (m *MockCacheService) GetSeller(ctx context.Context, sellerID uuid.UUID) (*models.Seller, error) {
	args := m.Called(ctx, sellerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Seller), args.Error(1)
}

func (m *MockCacheService) SetSeller(ctx context.Context, seller *models.Seller, ttl time.Duration) error {
	return m.Called(ctx, seller, ttl).Error(0)
}

func (m *MockCacheService) DeleteSeller(ctx context.Context, sellerID uuid.UUID) error {
	return m.Called(ctx, sellerID).Error(0)
}

func (m *MockCacheService) SetRefreshToken(ctx context.Context, tokenID string, sellerID uuid.UUID, ttl time.Duration) error {
	return m.Called(ctx, tokenID, sellerID, ttl).Error(0)
}

func (m *MockCacheService) GetRefreshToken(ctx context.Context, tokenID string) (uuid.UUID, error) {
	args := m.Called(ctx, tokenID)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockCacheService) DeleteRefreshToken(ctx context.Context, tokenID string) error {
	return m.Called(ctx, tokenID).Error(0)
}

func (m *MockCacheService) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, key, limit, window)
	return args.Bool(0), args.Error(1)
}

func (m *MockCacheService) ResetRateLimit(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockCacheService) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type MockSellerService struct {
	mock.Mock
}

func (m *MockSellerService) GetProfile(ctx context.Context, sellerID uuid.UUID) (*models.Seller, error) {
	args := m.Called(ctx, sellerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Seller), args.Error(1)
}

func (m *MockSellerService) UpdateProfile(ctx context.Context, sellerID uuid.UUID, req models.UpdateProfileRequest) (*models.Seller, error) {
	args := m.Called(ctx, sellerID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Seller), args.Error(1)
}

type MockInvoiceService struct {
	mock.Mock
}

func (m *MockInvoiceService) CreateInvoice(ctx context.Context, sellerID uuid.UUID, req models.CreateInvoiceRequest) (*models.Invoice, error) {
	args := m.Called(ctx, sellerID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *MockInvoiceService) GetInvoiceByID(ctx context.Context, sellerID, invoiceID uuid.UUID) (*models.Invoice, error) {
	args := m.Called(ctx, sellerID, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *MockInvoiceService) ListInvoices(ctx context.Context, sellerID uuid.UUID, status models.InvoiceStatus, limit, offset int) ([]*models.Invoice, error) {
	args := m.Called(ctx, sellerID, status, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Invoice), args.Error(1)
}

func (m *MockInvoiceService) UpdateInvoiceStatus(ctx context.Context, sellerID, invoiceID uuid.UUID, status models.InvoiceStatus) (*models.Invoice, error) {
	args := m.Called(ctx, sellerID, invoiceID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *MockInvoiceService) DeleteInvoice(ctx context.Context, sellerID, invoiceID uuid.UUID) error {
	return m.Called(ctx, sellerID, invoiceID).Error(0)
}

func (m *MockInvoiceService) MarkOverdueInvoices(ctx context.Context, asOf time.Time) (int64, error) {
	args := m.Called(ctx, asOf)
	return args.Get(0).(int64), args.Error(1)
}

type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	args := m.Called(ctx, rawURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type MockMinioService struct {
	mock.Mock
}

func (m *MockMinioService) UploadPDF(ctx context.Context, objectName string, data []byte) error {
	return m.Called(ctx, objectName, data).Error(0)
}

func (m *MockMinioService) GetPresignedURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, objectName, expiry)
	return args.String(0), args.Error(1)
}

func (m *MockMinioService) DeleteObject(ctx context.Context, objectName string) error {
	return m.Called(ctx, objectName).Error(0)
}

func (m *MockMinioService) EnsureBucketExists(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockMinioService) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
