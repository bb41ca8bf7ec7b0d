package common

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Error kinds. Compare with errors.Is.
var (
	ErrComputation        = errors.New("computation error")
	ErrConfiguration      = errors.New("configuration error")
	ErrAssetFetch         = errors.New("asset fetch error")
	ErrSequenceAllocation = errors.New("sequence allocation error")
	ErrRender             = errors.New("render error")
	ErrInvalidInput       = errors.New("invalid input")
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrRateLimited        = errors.New("too many requests")
)

// AppError tags an underlying error with one of the kinds above.
type AppError struct {
	Kind error
	Op   string
	Err  error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *AppError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewError builds an AppError of the given kind.
func NewError(kind error, op string, err error) error {
	return &AppError{Kind: kind, Op: op, Err: err}
}

// Errorf builds an AppError whose cause is a formatted message.
func Errorf(kind error, op, format string, args ...interface{}) error {
	return &AppError{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// ValidationError carries field level detail for malformed input.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError returns an empty ValidationError ready for Add.
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

// Add records a problem with field. The first message for a field wins.
func (e *ValidationError) Add(field, message string) {
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = message
	}
}

// HasErrors reports whether any field failed.
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

// OrNil returns e when it holds failures and nil otherwise.
func (e *ValidationError) OrNil() error {
	if e.HasErrors() {
		return e
	}
	return nil
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
