package services

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"gstinvoice/internal/caching"
	"gstinvoice/internal/common"
	"gstinvoice/internal/models"
	"gstinvoice/internal/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var upiIDPattern = regexp.MustCompile(`^[\w.-]+@[\w.-]+$`)

type SellerService interface {
	GetProfile(ctx context.Context, sellerID uuid.UUID) (*models.Seller, error)
	UpdateProfile(ctx context.Context, sellerID uuid.UUID, req models.UpdateProfileRequest) (*models.Seller, error)
}

type sellerService struct {
	repo     repositories.SellerRepository
	cacheSvc caching.CacheService
	cacheTTL time.Duration
	logger   *zap.Logger
}

func NewSellerService(repo repositories.SellerRepository, cacheSvc caching.CacheService, cacheTTL time.Duration, logger *zap.Logger) SellerService {
	return &sellerService{
		repo:     repo,
		cacheSvc: cacheSvc,
		cacheTTL: cacheTTL,
		logger:   logger.Named("sellers"),
	}
}

// GetProfile reads through the redis seller cache. Cached copies never carry
// the password hash.
func (s *sellerService) GetProfile(ctx context.Context, sellerID uuid.UUID) (*models.Seller, error) {
	cached, err := s.cacheSvc.GetSeller(ctx, sellerID)
	if err != nil {
		s.logger.Warn("seller cache read failed", zap.String("seller_id", sellerID.String()), zap.Error(err))
	} else if cached != nil {
		return cached, nil
	}

	seller, err := s.repo.GetByID(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	if err := s.cacheSvc.SetSeller(ctx, seller, s.cacheTTL); err != nil {
		s.logger.Warn("seller cache write failed", zap.String("seller_id", sellerID.String()), zap.Error(err))
	}
	return seller, nil
}

func (s *sellerService) UpdateProfile(ctx context.Context, sellerID uuid.UUID, req models.UpdateProfileRequest) (*models.Seller, error) {
	seller, err := s.repo.GetByID(ctx, sellerID)
	if err != nil {
		return nil, err
	}

	applyProfile(seller, req)
	if err := validateProfile(seller, req); err != nil {
		return nil, err
	}

	if req.NewPassword != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(seller.PasswordHash), []byte(req.CurrentPassword)); err != nil {
			return nil, common.Errorf(common.ErrUnauthorized, "change password", "current password is incorrect")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		seller.PasswordHash = string(hash)
	}

	if err := s.repo.Update(ctx, seller); err != nil {
		return nil, err
	}
	if err := s.cacheSvc.DeleteSeller(ctx, sellerID); err != nil {
		s.logger.Warn("seller cache invalidation failed", zap.String("seller_id", sellerID.String()), zap.Error(err))
	}
	return seller, nil
}

func applyProfile(seller *models.Seller, req models.UpdateProfileRequest) {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}
	set(&seller.Name, req.Name)
	set(&seller.BusinessName, req.BusinessName)
	set(&seller.GSTIN, req.GSTIN)
	set(&seller.PAN, req.PAN)
	set(&seller.UPIID, req.UPIID)
	set(&seller.LogoURL, req.LogoURL)
	set(&seller.AuthorizedSignatureURL, req.AuthorizedSignatureURL)
	set(&seller.TermsAndConditions, req.TermsAndConditions)
	set(&seller.AdditionalNotes, req.AdditionalNotes)
	if req.Address != nil {
		seller.Address = *req.Address
		if strings.TrimSpace(seller.Address.Country) == "" {
			seller.Address.Country = models.DefaultCountry
		}
	}
	if req.BankDetails != nil {
		seller.BankDetails = *req.BankDetails
	}
	seller.GSTIN = strings.ToUpper(seller.GSTIN)
	seller.PAN = strings.ToUpper(seller.PAN)
	seller.BankDetails.IFSC = strings.ToUpper(strings.TrimSpace(seller.BankDetails.IFSC))
}

func validateProfile(seller *models.Seller, req models.UpdateProfileRequest) error {
	verr := common.NewValidationError()
	if seller.Name == "" {
		verr.Add("name", "is required")
	}
	if !common.ValidateExactLength(seller.GSTIN, 15) {
		verr.Add("gstin", "must be 15 characters")
	}
	if !common.ValidateExactLength(seller.PAN, 10) {
		verr.Add("pan", "must be 10 characters")
	}
	if seller.UPIID != "" && !upiIDPattern.MatchString(seller.UPIID) {
		verr.Add("upi_id", "must look like name@bank")
	}
	if !isHTTPURL(seller.LogoURL) {
		verr.Add("logo_url", "must be an absolute http(s) URL")
	}
	if !isHTTPURL(seller.AuthorizedSignatureURL) {
		verr.Add("authorized_signature_url", "must be an absolute http(s) URL")
	}
	if !common.ValidateExactLength(seller.Address.Pincode, 6) {
		verr.Add("address.pincode", "must be 6 characters")
	}
	if !common.ValidateExactLength(seller.BankDetails.IFSC, 11) {
		verr.Add("bank_details.ifsc", "must be 11 characters")
	}
	if req.NewPassword != "" && len(req.NewPassword) < minPasswordLength {
		verr.Add("new_password", fmt.Sprintf("must be at least %d characters", minPasswordLength))
	}
	return verr.OrNil()
}

// isHTTPURL accepts the empty string so a URL can be cleared.
func isHTTPURL(raw string) bool {
	if raw == "" {
		return true
	}
	u, err := url.Parse(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
