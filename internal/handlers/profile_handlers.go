package handlers

import (
	"net/http"

	"gstinvoice/internal/common"
	"gstinvoice/internal/models"
	"gstinvoice/internal/services"

	"github.com/labstack/echo/v4"
)

// ProfileHandlers serves the authenticated seller's profile
type ProfileHandlers struct {
	sellerService services.SellerService
}

func NewProfileHandlers(sellerService services.SellerService) *ProfileHandlers {
	return &ProfileHandlers{sellerService: sellerService}
}

// GetProfile handles GET /v1/users/profile
//
//	@Summary	Current seller profile
//	@Tags		profile
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	models.Seller
//	@Router		/users/profile [get]
func (h *ProfileHandlers) GetProfile(c echo.Context) error {
	ctx := c.Request().Context()
	sellerID, ok := common.GetSellerIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	seller, err := h.sellerService.GetProfile(ctx, sellerID)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, seller)
}

// UpdateProfile handles PUT /v1/users/profile
//
//	@Summary	Update seller profile
//	@Tags		profile
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		body	body		models.UpdateProfileRequest	true	"Fields to change"
//	@Success	200		{object}	models.Seller
//	@Failure	400		{object}	common.ErrorResponse
//	@Router		/users/profile [put]
func (h *ProfileHandlers) UpdateProfile(c echo.Context) error {
	ctx := c.Request().Context()
	sellerID, ok := common.GetSellerIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req models.UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	seller, err := h.sellerService.UpdateProfile(ctx, sellerID, req)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, seller)
}
