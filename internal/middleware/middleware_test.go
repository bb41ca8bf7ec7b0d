package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"gstinvoice/internal/common"
	"gstinvoice/internal/services"
)

type stubValidator struct {
	tokens map[string]string
}

func (s stubValidator) ValidateToken(token string) (*services.SellerClaims, error) {
	sellerID, ok := s.tokens[token]
	if !ok {
		return nil, common.Errorf(common.ErrUnauthorized, "validate token", "unknown token")
	}
	return &services.SellerClaims{SellerID: sellerID}, nil
}

func sellerEcho(validator TokenValidator) *echo.Echo {
	e := echo.New()
	e.GET("/me", func(c echo.Context) error {
		sellerID, ok := common.GetSellerIDFromContext(c.Request().Context())
		if !ok {
			return c.String(http.StatusInternalServerError, "no seller")
		}
		return c.String(http.StatusOK, sellerID.String())
	}, JWTMiddleware(validator))
	return e
}

func TestJWTMiddleware_SetsSellerID(t *testing.T) {
	sellerID := uuid.New()
	e := sellerEcho(stubValidator{tokens: map[string]string{"good": sellerID.String()}})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer good")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, sellerID.String(), rec.Body.String())
}

func TestJWTMiddleware_Rejects(t *testing.T) {
	e := sellerEcho(stubValidator{tokens: map[string]string{}})

	for name, header := range map[string]string{
		"missing": "",
		"invalid": "Bearer forged",
		"scheme":  "Basic abc",
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if header != "" {
				req.Header.Set(echo.HeaderAuthorization, header)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			var body common.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, "UNAUTHORIZED", body.Error.Code)
		})
	}
}

func TestAuditMiddleware(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	e := echo.New()
	e.Use(NewAuditMiddleware(zap.New(core)).AuditRequest())
	e.GET("/v1/invoices/:id", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/v1/invoices/:id/pdf", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.POST("/v1/invoices", func(c echo.Context) error { return c.NoContent(http.StatusCreated) })
	e.DELETE("/v1/invoices/:id", func(c echo.Context) error {
		return errors.New("boom")
	})
	e.GET("/health", func(c echo.Context) error { return c.NoContent(http.StatusServiceUnavailable) })

	serve := func(method, path string) {
		e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(method, path, nil))
	}
	serve(http.MethodGet, "/v1/invoices/abc")
	serve(http.MethodPost, "/v1/invoices")
	serve(http.MethodGet, "/v1/invoices/abc/pdf")
	serve(http.MethodDelete, "/v1/invoices/abc")
	serve(http.MethodGet, "/health")

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, "POST /v1/invoices", entries[0].ContextMap()["action"])
	assert.Equal(t, int64(http.StatusCreated), entries[0].ContextMap()["status"])
	assert.Equal(t, "GET /v1/invoices/:id/pdf", entries[1].ContextMap()["action"])
	assert.Equal(t, "abc", entries[2].ContextMap()["resource_id"])
	assert.Equal(t, int64(http.StatusInternalServerError), entries[2].ContextMap()["status"])
}

func TestVersionMiddleware(t *testing.T) {
	vm := NewVersionMiddleware("1.2.3", "v1")
	e := echo.New()
	e.Pre(vm.APIVersionResolver())
	vm.VersionRoute(e, "v1").GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/ping", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "v1", rec.Header().Get("X-API-Version"))
	assert.Equal(t, "1.2.3", rec.Header().Get("X-Build-Version"))

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v2/ping", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "UNSUPPORTED_VERSION")
}
