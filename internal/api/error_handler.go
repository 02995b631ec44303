package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/fleetdesk/portal/internal/core/domain"
)

// errorResponse is the JSON envelope for every API error. Errors is only
// set for validation failures and keeps the backend's field keys.
type errorResponse struct {
	Error  string              `json:"error"`
	Errors map[string][]string `json:"errors,omitempty"`
}

// NewHTTPErrorHandler maps domain and backend errors to status codes and
// renders them as errorResponse. Unexpected errors are logged and hidden.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, errorResponse{Error: fmt.Sprintf("%v", he.Message)}
	}

	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorResponse{Error: "invalid credentials", Errors: fieldErrors(err)}
	case errors.Is(err, domain.ErrMissingToken),
		errors.Is(err, domain.ErrNotAuthenticated),
		errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusUnauthorized, errorResponse{Error: domain.ErrNotAuthenticated.Error()}
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, errorResponse{Error: "access forbidden"}
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, errorResponse{Error: "resource not found"}
	case errors.Is(err, domain.ErrHandshakeFailed):
		logUpstream(log, c, err)
		return http.StatusBadGateway, errorResponse{Error: "login unavailable"}
	case errors.Is(err, domain.ErrBackendUnavailable):
		logUpstream(log, c, err)
		return http.StatusBadGateway, errorResponse{Error: "backend unavailable"}
	}

	var apiErr *domain.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Status >= 400 && apiErr.Status < 500 {
			msg := apiErr.Message
			if msg == "" {
				msg = http.StatusText(apiErr.Status)
			}
			return apiErr.Status, errorResponse{Error: msg, Errors: apiErr.Errors}
		}
		logUpstream(log, c, err)
		return http.StatusBadGateway, errorResponse{Error: "backend error"}
	}

	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, errorResponse{Error: "internal server error"}
}

func fieldErrors(err error) map[string][]string {
	var apiErr *domain.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Errors
	}
	return nil
}

func logUpstream(log zerolog.Logger, c echo.Context, err error) {
	log.Warn().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("backend failure")
}
