package handlers

import (
	"net/http"
	"strings"

	"gstinvoice/internal/common"
	"gstinvoice/internal/models"
	"gstinvoice/internal/services"

	"github.com/labstack/echo/v4"
)

// AuthHandlers handles seller registration and token issuance
type AuthHandlers struct {
	authService services.AuthService
}

// NewAuthHandlers creates a new auth handlers instance
func NewAuthHandlers(authService services.AuthService) *AuthHandlers {
	return &AuthHandlers{authService: authService}
}

// Register handles POST /v1/auth/register
//
//	@Summary	Register a seller account
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		body	body		models.RegisterRequest	true	"Seller details"
//	@Success	201		{object}	models.AuthResponse
//	@Failure	400		{object}	common.ErrorResponse
//	@Failure	409		{object}	common.ErrorResponse
//	@Router		/auth/register [post]
func (h *AuthHandlers) Register(c echo.Context) error {
	var req models.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	resp, err := h.authService.Register(c.Request().Context(), req)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusCreated, resp)
}

// Login handles POST /v1/auth/login
//
//	@Summary	Exchange credentials for tokens
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		body	body		models.LoginRequest	true	"Credentials"
//	@Success	200		{object}	models.AuthResponse
//	@Failure	401		{object}	common.ErrorResponse
//	@Failure	429		{object}	common.ErrorResponse
//	@Router		/auth/login [post]
func (h *AuthHandlers) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return common.SendValidationError(c, "email", "email and password are required")
	}

	resp, err := h.authService.Login(c.Request().Context(), req)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// Refresh handles POST /v1/auth/refresh
//
//	@Summary	Rotate a refresh token
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		body	body		models.RefreshTokenRequest	true	"Refresh token"
//	@Success	200		{object}	models.TokenResponse
//	@Failure	401		{object}	common.ErrorResponse
//	@Router		/auth/refresh [post]
func (h *AuthHandlers) Refresh(c echo.Context) error {
	var req models.RefreshTokenRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	if req.GrantType != "" && req.GrantType != "refresh_token" {
		return common.SendValidationError(c, "grant_type", "unsupported grant type")
	}
	if req.RefreshToken == "" {
		return common.SendValidationError(c, "refresh_token", "refresh_token is required")
	}

	tokens, err := h.authService.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, tokens)
}

// Logout handles POST /v1/auth/logout
func (h *AuthHandlers) Logout(c echo.Context) error {
	var req models.RefreshTokenRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	if req.RefreshToken == "" {
		return common.SendValidationError(c, "refresh_token", "refresh_token is required")
	}

	if err := h.authService.Logout(c.Request().Context(), req.RefreshToken); err != nil {
		return common.SendError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
