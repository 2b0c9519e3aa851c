package receiver

import (
	"errors"
	"fmt"
)

// Sentinel errors
var (
	ErrAlreadyRunning = errors.New("balego/receiver: already running")
	ErrNotRunning     = errors.New("balego/receiver: not running")

	// Webhook errors
	ErrForbidden        = errors.New("balego/receiver: forbidden")
	ErrUnauthorized     = errors.New("balego/receiver: unauthorized")
	ErrMethodNotAllowed = errors.New("balego/receiver: method not allowed")
	ErrQueueFull        = errors.New("balego/receiver: update queue full")
	ErrRateLimited      = errors.New("balego/receiver: rate limited")
)

// WebhookError represents an HTTP error response.
type WebhookError struct {
	Code    int
	Message string
	Err     error
}

func (e *WebhookError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("webhook error %d: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("webhook error %d: %s", e.Code, e.Message)
}

func (e *WebhookError) Unwrap() error {
	return e.Err
}
