package internal

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrValidation       = errors.New("validation failed")
	ErrNotFound         = errors.New("not found")
	ErrStoreUnavailable = errors.New("store unavailable")
)

// AppError is the error payload returned to API clients.
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func NewAppError(code int, msg string) *AppError {
	return &AppError{Code: code, Message: msg}
}

func (e *AppError) Error() string { return e.Message }

// StatusFor maps an error chain onto the HTTP status it should surface as.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// UserError carries a message that is safe to return to clients. Kind is one
// of the sentinels above so StatusFor still applies.
type UserError struct {
	Kind    error
	Message string
}

func (e *UserError) Error() string { return e.Message }
func (e *UserError) Unwrap() error { return e.Kind }

func Invalid(format string, args ...interface{}) error {
	return &UserError{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFound(what string) error {
	return &UserError{Kind: ErrNotFound, Message: what + " not found"}
}

// PublicMessage returns the client-facing text for err, falling back to a
// generic message for its status.
func PublicMessage(err error) string {
	var ue *UserError
	if errors.As(err, &ue) {
		return ue.Message
	}
	switch StatusFor(err) {
	case http.StatusBadRequest:
		return "Invalid request"
	case http.StatusNotFound:
		return "Not found"
	case http.StatusServiceUnavailable:
		return "Database not available"
	default:
		return "Internal server error"
	}
}
