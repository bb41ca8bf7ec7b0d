package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"gstinvoice/internal/caching"
	"gstinvoice/internal/common"
	"gstinvoice/internal/models"
	"gstinvoice/internal/repositories"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/gommon/random"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	tokenIssuer       = "gstinvoice-auth"
	tokenAudience     = "gstinvoice-api"
	minPasswordLength = 6
	refreshTokenBytes = 48
)

// AuthService handles seller registration, login and JWT token management
type AuthService interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*models.TokenResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	ValidateToken(token string) (*SellerClaims, error)
}

// SellerClaims represents JWT claims
type SellerClaims struct {
	SellerID string `json:"seller_id"`
	TokenID  string `json:"token_id"`
	jwt.RegisteredClaims
}

// AuthConfig holds token lifetimes and the login rate limit.
type AuthConfig struct {
	JWTSecret        string
	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration
	LoginMaxAttempts int
	LoginWindow      time.Duration
}

type authService struct {
	sellers    repositories.SellerRepository
	cacheSvc   caching.CacheService
	cfg        AuthConfig
	jwtSecret  []byte
	bcryptCost int
	logger     *zap.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(sellers repositories.SellerRepository, cacheSvc caching.CacheService, cfg AuthConfig, logger *zap.Logger) AuthService {
	return &authService{
		sellers:    sellers,
		cacheSvc:   cacheSvc,
		cfg:        cfg,
		jwtSecret:  []byte(cfg.JWTSecret),
		bcryptCost: bcrypt.DefaultCost,
		logger:     logger.Named("auth"),
	}
}

func (s *authService) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.BusinessName = strings.TrimSpace(req.BusinessName)

	verr := common.NewValidationError()
	if req.Name == "" {
		verr.Add("name", "is required")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		verr.Add("email", "must be a valid email address")
	}
	if len(req.Password) < minPasswordLength {
		verr.Add("password", fmt.Sprintf("must be at least %d characters", minPasswordLength))
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	businessName := req.BusinessName
	if businessName == "" {
		businessName = req.Name
	}
	seller := &models.Seller{
		ID:                 uuid.New(),
		Name:               req.Name,
		Email:              req.Email,
		PasswordHash:       string(hash),
		BusinessName:       businessName,
		Address:            models.Address{Country: models.DefaultCountry},
		TermsAndConditions: models.DefaultTermsAndConditions,
		AdditionalNotes:    models.DefaultAdditionalNotes,
	}
	if err := s.sellers.Create(ctx, seller); err != nil {
		return nil, err
	}

	tokens, err := s.generateTokens(ctx, seller.ID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("seller registered", zap.String("seller_id", seller.ID.String()))
	return &models.AuthResponse{Seller: seller, Tokens: tokens}, nil
}

func (s *authService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, common.Errorf(common.ErrInvalidInput, "login", "email and password are required")
	}

	limitKey := "login:" + email
	limited, err := s.cacheSvc.IsRateLimited(ctx, limitKey, s.cfg.LoginMaxAttempts, s.cfg.LoginWindow)
	if err != nil {
		// fail open while redis is unavailable
		s.logger.Warn("login rate limit check failed", zap.Error(err))
	} else if limited {
		return nil, common.Errorf(common.ErrRateLimited, "login", "too many login attempts, try again later")
	}

	seller, err := s.sellers.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.Errorf(common.ErrUnauthorized, "login", "invalid email or password")
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(seller.PasswordHash), []byte(req.Password)); err != nil {
		return nil, common.Errorf(common.ErrUnauthorized, "login", "invalid email or password")
	}

	if err := s.cacheSvc.ResetRateLimit(ctx, limitKey); err != nil {
		s.logger.Warn("failed to reset login rate limit", zap.Error(err))
	}

	tokens, err := s.generateTokens(ctx, seller.ID)
	if err != nil {
		return nil, err
	}
	return &models.AuthResponse{Seller: seller, Tokens: tokens}, nil
}

// Refresh rotates the refresh token: the presented one is revoked and a new
// pair is issued.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*models.TokenResponse, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, common.Errorf(common.ErrInvalidInput, "refresh token", "refresh_token is required")
	}
	tokenHash := hashToken(refreshToken)

	sellerID, err := s.cacheSvc.GetRefreshToken(ctx, tokenHash)
	if err != nil {
		return nil, fmt.Errorf("failed to read refresh token: %w", err)
	}
	if sellerID == uuid.Nil {
		return nil, common.Errorf(common.ErrUnauthorized, "refresh token", "invalid or expired refresh token")
	}

	if err := s.cacheSvc.DeleteRefreshToken(ctx, tokenHash); err != nil {
		return nil, fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return s.generateTokens(ctx, sellerID)
}

func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.cacheSvc.DeleteRefreshToken(ctx, hashToken(refreshToken))
}

// ValidateToken validates JWT access token
func (s *authService) ValidateToken(token string) (*SellerClaims, error) {
	jwtToken, err := jwt.ParseWithClaims(token, &SellerClaims{}, func(t *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
	)
	if err != nil {
		return nil, common.NewError(common.ErrUnauthorized, "validate token", err)
	}

	claims, ok := jwtToken.Claims.(*SellerClaims)
	if !ok || !jwtToken.Valid {
		return nil, common.Errorf(common.ErrUnauthorized, "validate token", "invalid token claims")
	}
	if _, err := uuid.Parse(claims.SellerID); err != nil {
		return nil, common.Errorf(common.ErrUnauthorized, "validate token", "invalid seller id in token")
	}
	return claims, nil
}

func (s *authService) generateTokens(ctx context.Context, sellerID uuid.UUID) (*models.TokenResponse, error) {
	now := time.Now()
	tokenID := uuid.NewString()

	claims := SellerClaims{
		SellerID: sellerID.String(),
		TokenID:  tokenID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   sellerID.String(),
			Audience:  jwt.ClaimStrings{tokenAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.AccessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        tokenID,
		},
	}
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign JWT: %w", err)
	}

	refreshToken := random.String(refreshTokenBytes)
	if err := s.cacheSvc.SetRefreshToken(ctx, hashToken(refreshToken), sellerID, s.cfg.RefreshTokenTTL); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &models.TokenResponse{
		AccessToken:  accessToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.cfg.AccessTokenTTL.Seconds()),
		RefreshToken: refreshToken,
		SellerID:     sellerID.String(),
		TokenID:      tokenID,
		IssuedAt:     now,
	}, nil
}

// refresh tokens are stored by hash only
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
