package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNumericOrZero(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want float64
	}{
		{"float", 12.5, 12.5},
		{"int", 7, 7},
		{"numeric string", " 18 ", 18},
		{"json number", json.Number("2.25"), 2.25},
		{"garbage string", "abc", 0},
		{"empty string", "", 0},
		{"nil", nil, 0},
		{"nan", math.NaN(), 0},
		{"inf", math.Inf(1), 0},
		{"slice", []int{1}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseNumericOrZero(tt.in))
		})
	}
}

func TestNumber_UnmarshalJSON(t *testing.T) {
	var body struct {
		A Number `json:"a"`
		B Number `json:"b"`
		C Number `json:"c"`
		D Number `json:"d"`
		E Number `json:"e"`
	}

	err := json.Unmarshal([]byte(`{"a": 10.5, "b": "4", "c": "x", "d": null, "e": {"k": 1}}`), &body)
	require.NoError(t, err)

	assert.Equal(t, 10.5, body.A.Float64())
	assert.Equal(t, 4.0, body.B.Float64())
	assert.Equal(t, 0.0, body.C.Float64())
	assert.Equal(t, 0.0, body.D.Float64())
	assert.Equal(t, 0.0, body.E.Float64())
}

func TestAppError_MatchesKindAndCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("create invoice: %w", NewError(ErrSequenceAllocation, "next number", cause))

	assert.True(t, errors.Is(err, ErrSequenceAllocation))
	assert.True(t, errors.Is(err, cause))
	assert.False(t, errors.Is(err, ErrRender))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestValidationError(t *testing.T) {
	verr := NewValidationError()
	assert.NoError(t, verr.OrNil())

	verr.Add("items", "At least one item is required")
	verr.Add("items", "ignored second message")
	verr.Add("clientName", "Client name is required")

	err := verr.OrNil()
	require.Error(t, err)
	assert.Equal(t, "At least one item is required", verr.Fields["items"])
	assert.Equal(t, "validation failed: clientName: Client name is required; items: At least one item is required", err.Error())
}

func TestSendError_StatusMapping(t *testing.T) {
	verr := NewValidationError()
	verr.Add("placeOfSupply", "Place of Supply is required")

	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", verr, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"invalid input", NewError(ErrInvalidInput, "words", nil), http.StatusBadRequest, "INVALID_INPUT"},
		{"computation", NewError(ErrComputation, "totals", nil), http.StatusBadRequest, "COMPUTATION_ERROR"},
		{"forbidden", NewError(ErrForbidden, "get", nil), http.StatusForbidden, "FORBIDDEN"},
		{"not found", NewError(ErrNotFound, "get", nil), http.StatusNotFound, "NOT_FOUND"},
		{"sequence", NewError(ErrSequenceAllocation, "next", nil), http.StatusServiceUnavailable, "SEQUENCE_UNAVAILABLE"},
		{"configuration", Errorf(ErrConfiguration, "archive invoice", "object storage is not configured"), http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
		{"render", NewError(ErrRender, "render", nil), http.StatusInternalServerError, "RENDER_ERROR"},
		{"other", errors.New("boom"), http.StatusInternalServerError, "SERVER_ERROR"},
	}

	e := echo.New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

			require.NoError(t, SendError(c, tt.err))
			assert.Equal(t, tt.status, rec.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-03-31")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC), d)

	d, err = ParseDate("2026-03-31T18:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC), d)

	_, err = ParseDate("31/03/2026")
	assert.Error(t, err)
}

func TestValidateExactLength(t *testing.T) {
	assert.True(t, ValidateExactLength("", 15))
	assert.True(t, ValidateExactLength("27AAPFU0939F1ZV", 15))
	assert.False(t, ValidateExactLength("27AAPFU0939F1Z", 15))
}
