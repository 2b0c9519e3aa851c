// Package validate checks request and configuration values before they are
// sent to the Bale Bot API. Failures are reported as *bale.ValidationError.
package validate

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/python-bale-bot/balego/bale"
)

// New creates a new validation error.
func New(field, message string) *bale.ValidationError {
	return bale.NewValidationError(field, message)
}

// Newf creates a new validation error with formatted message.
func Newf(field, format string, args ...any) *bale.ValidationError {
	return bale.NewValidationError(field, fmt.Sprintf(format, args...))
}

// Token validates a Bale bot token.
// Format: {bot_id}:{secret} where bot_id is numeric.
func Token(token string) error {
	if token == "" {
		return New("token", "cannot be empty")
	}

	botID, secret, ok := strings.Cut(token, ":")
	if !ok {
		return New("token", "invalid format, expected {bot_id}:{secret}")
	}
	if botID == "" {
		return New("token", "bot_id cannot be empty")
	}
	for _, c := range botID {
		if c < '0' || c > '9' {
			return New("token", "bot_id must be numeric")
		}
	}
	if secret == "" {
		return New("token", "secret cannot be empty")
	}
	if strings.ContainsAny(secret, " /\t\n") {
		return New("token", "secret contains invalid characters")
	}
	return nil
}

// ChatID validates a chat identifier: a non-zero number or "@username".
func ChatID(chatID bale.ChatID) error {
	switch v := chatID.(type) {
	case nil:
		return New("chat_id", "is required")
	case int64:
		if v == 0 {
			return New("chat_id", "cannot be zero")
		}
	case int:
		if v == 0 {
			return New("chat_id", "cannot be zero")
		}
	case string:
		if v == "" {
			return New("chat_id", "cannot be empty")
		}
		if !strings.HasPrefix(v, "@") {
			return New("chat_id", "string chat_id must start with @")
		}
	default:
		return Newf("chat_id", "invalid type %T, expected int64 or string", chatID)
	}
	return nil
}

// Text validates message text. Length is counted in characters.
func Text(text string, maxLen int) error {
	if text == "" {
		return New("text", "cannot be empty")
	}
	if utf8.RuneCountInString(text) > maxLen {
		return Newf("text", "exceeds maximum length of %d characters", maxLen)
	}
	return nil
}

// Caption validates media caption.
func Caption(caption string, maxLen int) error {
	if utf8.RuneCountInString(caption) > maxLen {
		return Newf("caption", "exceeds maximum length of %d characters", maxLen)
	}
	return nil
}

// URL validates a URL string.
func URL(url string) error {
	if url == "" {
		return New("url", "cannot be empty")
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return New("url", "must start with http:// or https://")
	}
	return nil
}

// WebhookURL validates a webhook URL (must be HTTPS).
func WebhookURL(url string) error {
	if url == "" {
		return New("url", "cannot be empty")
	}
	if !strings.HasPrefix(url, "https://") {
		return New("url", "webhook URL must use HTTPS")
	}
	return nil
}

// ParseMode validates a parse mode value.
func ParseMode(mode bale.ParseMode) error {
	if !mode.IsValid() {
		return Newf("parse_mode", "invalid value %q, expected HTML or Markdown", mode)
	}
	return nil
}

// Positive validates that a value is positive.
func Positive(field string, value int64) error {
	if value <= 0 {
		return Newf(field, "must be positive, got %d", value)
	}
	return nil
}

// InRange validates that a value is within a range.
func InRange(field string, value, min, max int) error {
	if value < min || value > max {
		return Newf(field, "must be between %d and %d, got %d", min, max, value)
	}
	return nil
}

// Required validates that a string is not empty.
func Required(field, value string) error {
	if value == "" {
		return Newf(field, "is required")
	}
	return nil
}
