package bale

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel errors - use with errors.Is()
var (
	// API errors
	ErrUnauthorized    = errors.New("balego: unauthorized (token not found)")
	ErrForbidden       = errors.New("balego: forbidden")
	ErrBadRequest      = errors.New("balego: bad request")
	ErrNotFound        = errors.New("balego: no such group or user")
	ErrTooManyRequests = errors.New("balego: bot limit exceeded")

	// Transport errors
	ErrTimeout = errors.New("balego: request timed out")
	ErrNetwork = errors.New("balego: network error")

	// Client errors
	ErrRateLimited      = errors.New("balego: rate limit exceeded")
	ErrCircuitOpen      = errors.New("balego: circuit breaker open")
	ErrMaxRetries       = errors.New("balego: max retries exceeded")
	ErrResponseTooLarge = errors.New("balego: response too large")

	// Validation errors
	ErrInvalidToken  = errors.New("balego: invalid bot token format")
	ErrPathTraversal = errors.New("balego: path traversal attempt")
	ErrInvalidConfig = errors.New("balego: invalid configuration")
)

// ResponseParameters carries extra details of an unsuccessful request.
type ResponseParameters struct {
	MigrateToChatID int64 `json:"migrate_to_chat_id,omitempty"`
	RetryAfter      int   `json:"retry_after,omitempty"`
}

// APIError is an error response returned by the Bale Bot API.
// Use errors.As() to extract details, errors.Is() to match sentinels.
type APIError struct {
	Code        int
	Description string
	RetryAfter  time.Duration
	Method      string
	Parameters  *ResponseParameters
	cause       error
}

func (e *APIError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("balego: %s failed: %s (code=%d, retry_after=%s)",
			e.Method, e.Description, e.Code, e.RetryAfter)
	}
	return fmt.Sprintf("balego: %s failed: %s (code=%d)", e.Method, e.Description, e.Code)
}

// Unwrap returns the detected sentinel.
func (e *APIError) Unwrap() error { return e.cause }

// IsRetryable reports whether the request may succeed when repeated.
func (e *APIError) IsRetryable() bool {
	return e.Code == 429 || (e.Code >= 500 && e.Code <= 504)
}

// NewAPIError creates an APIError with automatic sentinel detection.
func NewAPIError(method string, code int, description string) *APIError {
	return &APIError{
		Code:        code,
		Description: description,
		Method:      method,
		cause:       DetectSentinel(code, description),
	}
}

// NewAPIErrorWithRetry creates an APIError carrying a retry_after hint.
func NewAPIErrorWithRetry(method string, code int, description string, retryAfter time.Duration) *APIError {
	e := NewAPIError(method, code, description)
	e.RetryAfter = retryAfter
	return e
}

// DetectSentinel maps Bale error descriptions and status codes to sentinels.
// Descriptions win over status codes: Bale reports some failures with 400.
func DetectSentinel(code int, desc string) error {
	descLower := strings.ToLower(desc)
	switch {
	case strings.Contains(descLower, "token not found"):
		return ErrUnauthorized
	case strings.Contains(descLower, "no such group or user"):
		return ErrNotFound
	case strings.Contains(descLower, "bot limit exceed"):
		return ErrTooManyRequests
	case strings.HasPrefix(descLower, "forbidden:"):
		return ErrForbidden
	case strings.HasPrefix(descLower, "bad request:"):
		return ErrBadRequest
	}

	switch code {
	case 400:
		return ErrBadRequest
	case 401:
		return ErrUnauthorized
	case 403:
		return ErrForbidden
	case 404:
		return ErrNotFound
	case 429:
		return ErrTooManyRequests
	}

	return nil
}

// ValidationError represents a request validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("balego: validation: %s - %s", e.Field, e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// ConfigError represents a configuration error.
type ConfigError struct {
	Key     string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("balego: config: %s - %s", e.Key, e.Message)
}

// NewConfigError creates a new ConfigError.
func NewConfigError(key, message string) *ConfigError {
	return &ConfigError{Key: key, Message: message}
}
