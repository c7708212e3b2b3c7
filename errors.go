package webull

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/quantrail/webull-openapi-go/internal/transport"
)

// APIError represents an error response from the Webull OpenAPI gateway.
// Aliased so callers can match errors produced inside the transport layer
// without importing it.
type APIError = transport.APIError

// Sentinel errors for common HTTP status codes.
var (
	ErrUnauthorized = errors.New("webull: unauthorized (401)")
	ErrForbidden    = errors.New("webull: forbidden (403)")
	ErrNotFound     = errors.New("webull: not found (404)")
	ErrRateLimited  = errors.New("webull: rate limited (429)")
)

// AuthError indicates an authentication/signing failure.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("webull auth: %s", e.Message)
}

// ValidationError indicates invalid input parameters.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("webull validation: %s: %s", e.Field, e.Message)
}

// IsRetryable returns true if the error is transient and the request can be
// retried by the caller.
func IsRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500 || apiErr.StatusCode == http.StatusTooManyRequests
	}
	return false
}
