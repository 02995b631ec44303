package domain

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrHandshakeFailed    = errors.New("csrf handshake failed")
	ErrBackendUnavailable = errors.New("backend unavailable")
	ErrMissingToken       = errors.New("missing bearer token")
	ErrNotAuthenticated   = errors.New("login required")
	ErrSessionNotFound    = errors.New("session not found")
	ErrForbidden          = errors.New("access forbidden")
	ErrNotFound           = errors.New("resource not found")
)

// APIError is a non-2xx backend response. Errors holds the field-level
// validation messages exactly as the backend reported them.
type APIError struct {
	Status  int
	Message string
	Errors  map[string][]string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend responded %d", e.Status)
	}
	return fmt.Sprintf("backend responded %d: %s", e.Status, e.Message)
}

// Is lets callers match backend statuses against the sentinel errors.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotAuthenticated:
		return e.Status == http.StatusUnauthorized
	case ErrForbidden:
		return e.Status == http.StatusForbidden
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}

// IsValidation reports whether the response carried field errors.
func (e *APIError) IsValidation() bool {
	return len(e.Errors) > 0
}
