package middleware

import (
	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"gstinvoice/internal/common"
	"gstinvoice/internal/services"
)

// TokenValidator parses a bearer token into seller claims.
type TokenValidator interface {
	ValidateToken(token string) (*services.SellerClaims, error)
}

const claimsContextKey = "seller_claims"

// JWTMiddleware verifies the bearer token and stores the seller id on the
// request context for handlers to read with common.GetSellerIDFromContext.
func JWTMiddleware(validator TokenValidator) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey: claimsContextKey,
		ParseTokenFunc: func(c echo.Context, auth string) (interface{}, error) {
			return validator.ValidateToken(auth)
		},
		SuccessHandler: func(c echo.Context) {
			claims, ok := c.Get(claimsContextKey).(*services.SellerClaims)
			if !ok {
				return
			}
			// ValidateToken already rejected malformed ids
			sellerID, _ := uuid.Parse(claims.SellerID)
			ctx := common.WithSellerID(c.Request().Context(), sellerID)
			c.SetRequest(c.Request().WithContext(ctx))
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return common.SendUnauthorizedError(c)
		},
	})
}
