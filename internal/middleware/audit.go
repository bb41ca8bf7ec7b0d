package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"gstinvoice/internal/common"
)

// AuditMiddleware writes one structured audit line per state-changing
// request, and for any request that fails.
type AuditMiddleware struct {
	logger *zap.Logger
}

func NewAuditMiddleware(logger *zap.Logger) *AuditMiddleware {
	return &AuditMiddleware{logger: logger.Named("audit")}
}

func (m *AuditMiddleware) AuditRequest() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			method := c.Request().Method
			path := c.Path()
			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				} else {
					status = http.StatusInternalServerError
				}
			}
			if !shouldAudit(method, path, status) {
				return err
			}

			fields := []zap.Field{
				zap.String("action", method+" "+path),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", status),
				zap.String("ip", c.RealIP()),
				zap.String("user_agent", c.Request().UserAgent()),
				zap.Duration("latency", time.Since(start)),
			}
			if sellerID, ok := common.GetSellerIDFromContext(c.Request().Context()); ok {
				fields = append(fields, zap.String("seller_id", sellerID.String()))
			}
			if id := c.Param("id"); id != "" {
				fields = append(fields, zap.String("resource_id", id))
			}
			if err != nil {
				fields = append(fields, zap.Error(err))
			}
			m.logger.Info("request audited", fields...)
			return err
		}
	}
}

func shouldAudit(method, path string, status int) bool {
	if status >= http.StatusBadRequest {
		return !isQuietPath(path)
	}
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	// PDF downloads are audited as well
	return strings.HasSuffix(path, "/pdf")
}

func isQuietPath(path string) bool {
	for _, prefix := range []string{"/health", "/swagger", "/favicon"} {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
