package common

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	SellerIDKey contextKey = "seller_id"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details,omitempty"`
	} `json:"error"`
}

// CreateErrorResponse creates a standardized error response
func CreateErrorResponse(code string, message string, details map[string]string) *ErrorResponse {
	var resp ErrorResponse
	resp.Error.Code = code
	resp.Error.Message = message
	resp.Error.Details = details
	return &resp
}

// SendValidationError sends a validation error response
func SendValidationError(c echo.Context, field, message string) error {
	details := map[string]string{
		field: message,
	}
	return c.JSON(http.StatusBadRequest, CreateErrorResponse("VALIDATION_ERROR", "Validation failed", details))
}

// SendClientError sends a client error response
func SendClientError(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, CreateErrorResponse("CLIENT_ERROR", message, nil))
}

// SendServerError sends a server error response
func SendServerError(c echo.Context, message string) error {
	return c.JSON(http.StatusInternalServerError, CreateErrorResponse("SERVER_ERROR", message, nil))
}

// SendUnauthorizedError sends an unauthorized error response
func SendUnauthorizedError(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, CreateErrorResponse("UNAUTHORIZED", "Unauthorized access", nil))
}

// SendError maps an error kind to its status code and envelope.
func SendError(c echo.Context, err error) error {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return c.JSON(http.StatusBadRequest, CreateErrorResponse("VALIDATION_ERROR", "Validation failed", verr.Fields))
	}

	switch {
	case errors.Is(err, ErrInvalidInput):
		return c.JSON(http.StatusBadRequest, CreateErrorResponse("INVALID_INPUT", err.Error(), nil))
	case errors.Is(err, ErrComputation):
		return c.JSON(http.StatusBadRequest, CreateErrorResponse("COMPUTATION_ERROR", err.Error(), nil))
	case errors.Is(err, ErrUnauthorized):
		return c.JSON(http.StatusUnauthorized, CreateErrorResponse("UNAUTHORIZED", err.Error(), nil))
	case errors.Is(err, ErrRateLimited):
		return c.JSON(http.StatusTooManyRequests, CreateErrorResponse("RATE_LIMITED", err.Error(), nil))
	case errors.Is(err, ErrForbidden):
		return c.JSON(http.StatusForbidden, CreateErrorResponse("FORBIDDEN", err.Error(), nil))
	case errors.Is(err, ErrNotFound):
		return c.JSON(http.StatusNotFound, CreateErrorResponse("NOT_FOUND", err.Error(), nil))
	case errors.Is(err, ErrConflict):
		return c.JSON(http.StatusConflict, CreateErrorResponse("CONFLICT", err.Error(), nil))
	case errors.Is(err, ErrSequenceAllocation):
		return c.JSON(http.StatusServiceUnavailable, CreateErrorResponse("SEQUENCE_UNAVAILABLE", "Invoice number could not be allocated", nil))
	case errors.Is(err, ErrConfiguration):
		return c.JSON(http.StatusServiceUnavailable, CreateErrorResponse("SERVICE_UNAVAILABLE", err.Error(), nil))
	case errors.Is(err, ErrRender):
		return c.JSON(http.StatusInternalServerError, CreateErrorResponse("RENDER_ERROR", err.Error(), nil))
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return c.JSON(http.StatusGatewayTimeout, CreateErrorResponse("TIMEOUT", "Request timed out", nil))
	}
	return SendServerError(c, "Internal server error")
}

// ValidateUUID validates UUID format with comprehensive checks
func ValidateUUID(idStr string, fieldName string) (uuid.UUID, error) {
	idStr = strings.TrimSpace(idStr)
	if idStr == "" {
		return uuid.Nil, fmt.Errorf("%s is required", fieldName)
	}

	if len(idStr) != 36 {
		return uuid.Nil, fmt.Errorf("%s must be exactly 36 characters (including hyphens)", fieldName)
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s contains invalid characters: %v", fieldName, err)
	}

	return id, nil
}

// ParseDate accepts YYYY-MM-DD or RFC3339 and returns the calendar date in UTC.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("must be an ISO 8601 date")
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}

// ValidateExactLength checks an optional field that must have exactly n
// characters once trimmed. Empty is allowed.
func ValidateExactLength(value string, n int) bool {
	value = strings.TrimSpace(value)
	return value == "" || len([]rune(value)) == n
}

// GetSellerIDFromContext extracts the authenticated seller ID from the request context
func GetSellerIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	sellerID, ok := ctx.Value(SellerIDKey).(uuid.UUID)
	return sellerID, ok
}

// WithSellerID stores the authenticated seller ID on ctx.
func WithSellerID(ctx context.Context, sellerID uuid.UUID) context.Context {
	return context.WithValue(ctx, SellerIDKey, sellerID)
}

// ValidatePaginationParams validates pagination parameters
func ValidatePaginationParams(limit, offset int) (int, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 1000 {
		limit = 1000
	}

	if offset < 0 {
		offset = 0
	}
	if offset > 1000000 {
		return 0, 0, fmt.Errorf("offset cannot exceed 1,000,000")
	}

	return limit, offset, nil
}
