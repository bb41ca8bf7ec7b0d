package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"gstinvoice/internal/common"
	"gstinvoice/internal/models"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const sellerTTL = 5 * time.Minute

func newSellerServiceUnderTest() (SellerService, *MockSellerRepository, *MockCacheService) {
	repo := new(MockSellerRepository)
	cache := new(MockCacheService)
	return NewSellerService(repo, cache, sellerTTL, zap.NewNop()), repo, cache
}

func TestGetProfile_CacheHit(t *testing.T) {
	svc, repo, cache := newSellerServiceUnderTest()
	ctx := context.Background()
	seller := &models.Seller{ID: uuid.New(), Name: "Cached"}

	cache.On("GetSeller", ctx, seller.ID).Return(seller, nil).Once()

	got, err := svc.GetProfile(ctx, seller.ID)
	require.NoError(t, err)
	assert.Same(t, seller, got)
	repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestGetProfile_MissPopulatesCache(t *testing.T) {
	svc, repo, cache := newSellerServiceUnderTest()
	ctx := context.Background()
	seller := &models.Seller{ID: uuid.New(), Name: "Fresh"}

	cache.On("GetSeller", ctx, seller.ID).Return(nil, nil).Once()
	repo.On("GetByID", ctx, seller.ID).Return(seller, nil).Once()
	cache.On("SetSeller", ctx, seller, sellerTTL).Return(nil).Once()

	got, err := svc.GetProfile(ctx, seller.ID)
	require.NoError(t, err)
	assert.Equal(t, "Fresh", got.Name)
	repo.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestGetProfile_CacheDownFallsBackToRepo(t *testing.T) {
	svc, repo, cache := newSellerServiceUnderTest()
	ctx := context.Background()
	seller := &models.Seller{ID: uuid.New()}

	cache.On("GetSeller", ctx, seller.ID).Return(nil, errors.New("redis down")).Once()
	repo.On("GetByID", ctx, seller.ID).Return(seller, nil).Once()
	cache.On("SetSeller", ctx, seller, sellerTTL).Return(errors.New("redis down")).Once()

	_, err := svc.GetProfile(ctx, seller.ID)
	assert.NoError(t, err)
}

func TestUpdateProfile_AppliesAndInvalidates(t *testing.T) {
	svc, repo, cache := newSellerServiceUnderTest()
	ctx := context.Background()
	seller := &models.Seller{ID: uuid.New(), Name: "Priya", BusinessName: "Old"}

	repo.On("GetByID", ctx, seller.ID).Return(seller, nil).Once()
	repo.On("Update", ctx, mock.MatchedBy(func(s *models.Seller) bool {
		return s.BusinessName == "Sharma Textiles" && s.GSTIN == "27ABCDE1234F1Z5" && s.UPIID == "sharma@okhdfc"
	})).Return(nil).Once()
	cache.On("DeleteSeller", ctx, seller.ID).Return(nil).Once()

	got, err := svc.UpdateProfile(ctx, seller.ID, models.UpdateProfileRequest{
		BusinessName: lo.ToPtr("Sharma Textiles"),
		GSTIN:        lo.ToPtr("27abcde1234f1z5"),
		UPIID:        lo.ToPtr("sharma@okhdfc"),
		Address:      &models.Address{State: "Maharashtra", Pincode: "411001"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultCountry, got.Address.Country)
	repo.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestUpdateProfile_Validation(t *testing.T) {
	svc, repo, _ := newSellerServiceUnderTest()
	ctx := context.Background()
	seller := &models.Seller{ID: uuid.New(), Name: "Priya"}
	repo.On("GetByID", ctx, seller.ID).Return(seller, nil).Once()

	_, err := svc.UpdateProfile(ctx, seller.ID, models.UpdateProfileRequest{
		GSTIN:       lo.ToPtr("123"),
		PAN:         lo.ToPtr("ABC"),
		UPIID:       lo.ToPtr("no-at-sign"),
		LogoURL:     lo.ToPtr("ftp://example.com/logo.png"),
		BankDetails: &models.BankDetails{IFSC: "HDFC"},
		NewPassword: "123",
	})

	var verr *common.ValidationError
	require.True(t, errors.As(err, &verr))
	for _, field := range []string{"gstin", "pan", "upi_id", "logo_url", "bank_details.ifsc", "new_password"} {
		assert.Contains(t, verr.Fields, field)
	}
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestUpdateProfile_PasswordChange(t *testing.T) {
	svc, repo, cache := newSellerServiceUnderTest()
	ctx := context.Background()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	require.NoError(t, err)
	seller := &models.Seller{ID: uuid.New(), Name: "Priya", PasswordHash: string(hash)}

	repo.On("GetByID", ctx, seller.ID).Return(seller, nil).Once()
	repo.On("Update", ctx, seller).Return(nil).Once()
	cache.On("DeleteSeller", ctx, seller.ID).Return(nil).Once()

	_, err = svc.UpdateProfile(ctx, seller.ID, models.UpdateProfileRequest{
		CurrentPassword: "secret1",
		NewPassword:     "secret2",
	})
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(seller.PasswordHash), []byte("secret2")))
	repo.AssertExpectations(t)
}

func TestUpdateProfile_WrongCurrentPassword(t *testing.T) {
	svc, repo, _ := newSellerServiceUnderTest()
	ctx := context.Background()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	require.NoError(t, err)
	seller := &models.Seller{ID: uuid.New(), Name: "Priya", PasswordHash: string(hash)}
	repo.On("GetByID", ctx, seller.ID).Return(seller, nil).Once()

	_, err = svc.UpdateProfile(ctx, seller.ID, models.UpdateProfileRequest{
		CurrentPassword: "wrong",
		NewPassword:     "secret2",
	})
	assert.True(t, errors.Is(err, common.ErrUnauthorized))
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestUpdateProfile_PasswordChangeWrittenWithProfile(t *testing.T) {
	svc, repo, cache := newSellerServiceUnderTest()
	ctx := context.Background()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	require.NoError(t, err)
	seller := &models.Seller{ID: uuid.New(), Name: "Priya", PasswordHash: string(hash)}
	name := "Priya Traders"

	repo.On("GetByID", ctx, seller.ID).Return(seller, nil).Once()
	repo.On("Update", ctx, mock.MatchedBy(func(s *models.Seller) bool {
		return s.Name == name && bcrypt.CompareHashAndPassword([]byte(s.PasswordHash), []byte("secret2")) == nil
	})).Return(errors.New("connection reset")).Once()

	_, err = svc.UpdateProfile(ctx, seller.ID, models.UpdateProfileRequest{
		Name:            &name,
		CurrentPassword: "secret1",
		NewPassword:     "secret2",
	})
	require.Error(t, err)
	repo.AssertNumberOfCalls(t, "Update", 1)
	cache.AssertNotCalled(t, "DeleteSeller", mock.Anything, mock.Anything)
}
