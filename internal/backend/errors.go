package backend

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/fleetdesk/portal/internal/core/domain"
)

// errorPayload is the backend's error body: {message, errors: {field: [..]}}.
type errorPayload struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

// decodeError converts a non-2xx response into a *domain.APIError.
// A body that is not the expected JSON still yields an error with the status.
func decodeError(resp *http.Response) error {
	apiErr := &domain.APIError{Status: resp.StatusCode}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var payload errorPayload
	if len(body) > 0 && json.Unmarshal(body, &payload) == nil {
		apiErr.Message = payload.Message
		if len(payload.Errors) > 0 {
			apiErr.Errors = payload.Errors
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
