package authsdk

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/fricon/coreapi/pkg/httpx"
)

// ============================================================================
// Error Codes
// ============================================================================

const (
	ErrorCodeInvalidRequest        = "invalid_request"
	ErrorCodeInvalidCredentials    = "invalid_credentials"
	ErrorCodeAccountLocked         = "account_locked"
	ErrorCodePasswordNotSet        = "password_not_set"
	ErrorCodeInvalidOrExpiredToken = "invalid_or_expired_token"
	ErrorCodeValidationFailed      = "validation_failed"
	ErrorCodeNotFound              = "not_found"
	ErrorCodeInvalidToken          = "invalid_token"
	ErrorCodeRateLimited           = "rate_limit_exceeded"
	ErrorCodeServerError           = "internal_error"
	ErrorCodeServiceUnavailable    = "service_unavailable"
)

// ============================================================================
// APIError
// ============================================================================

// APIError is an error response of the auth API. It is used both by the
// server (to write HTTP responses) and by the SDK client (to represent
// errors).
type APIError struct {
	// StatusCode is the HTTP status code for this error
	StatusCode int `json:"-"`

	// Code is the machine readable error code (e.g., "invalid_credentials")
	Code string `json:"error"`

	// Description is a human-readable description of the error
	Description string `json:"error_description"`

	// Messages lists individual reasons for validation_failed
	Messages []string `json:"messages,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if len(e.Messages) > 0 {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Description, strings.Join(e.Messages, "; "))
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// Is matches another APIError with the same code, so the predefined errors
// below work with errors.Is.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	return ok && t.Code == e.Code
}

// WriteError writes this APIError to an HTTP response writer.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:            e.Code,
		ErrorDescription: e.Description,
		Messages:         e.Messages,
	})
}

// ============================================================================
// Predefined Errors
// ============================================================================

var (
	// ErrInvalidRequest is returned when the body is malformed or misses
	// required fields.
	ErrInvalidRequest = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "the request is malformed or missing required fields",
	}

	// ErrInvalidCredentials covers unknown users and wrong passwords alike.
	ErrInvalidCredentials = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidCredentials,
		Description: "invalid credentials",
	}

	// ErrAccountLocked is returned after too many failed attempts.
	ErrAccountLocked = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeAccountLocked,
		Description: "account is locked",
	}

	// ErrPasswordNotSet is returned on login to an account that needs the
	// first password flow.
	ErrPasswordNotSet = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodePasswordNotSet,
		Description: "password not set, use the first password flow",
	}

	// ErrInvalidOrExpiredToken is returned for refresh tokens that are
	// unknown, expired, revoked or already used.
	ErrInvalidOrExpiredToken = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidOrExpiredToken,
		Description: "invalid or expired refresh token",
	}

	// ErrValidationFailed is returned when a new password is rejected.
	// The returned error carries the reasons in Messages.
	ErrValidationFailed = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeValidationFailed,
		Description: "validation failed",
	}

	ErrNotFound = &APIError{
		StatusCode:  http.StatusNotFound,
		Code:        ErrorCodeNotFound,
		Description: "not found",
	}

	// ErrInvalidToken is returned when the access token is missing,
	// invalid or expired.
	ErrInvalidToken = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidToken,
		Description: "the access token is missing, invalid or expired",
	}

	ErrServerError = &APIError{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodeServerError,
		Description: "internal server error",
	}
)

// NewAPIError creates an APIError with the given status code, code, description
// and messages.
func NewAPIError(statusCode int, code, description string, messages ...string) *APIError {
	return &APIError{
		StatusCode:  statusCode,
		Code:        code,
		Description: description,
		Messages:    messages,
	}
}

// ============================================================================
// Error Parsing Helpers
// ============================================================================

// parseErrorResponse converts a non-2xx response into an *APIError.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return &APIError{
			StatusCode:  resp.StatusCode,
			Code:        errResp.Error,
			Description: errResp.ErrorDescription,
			Messages:    errResp.Messages,
		}
	}

	// Fallback: create generic error from status code
	return &APIError{
		StatusCode:  resp.StatusCode,
		Code:        ErrorCodeServerError,
		Description: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}
