package bale

import "log/slog"

// SecretToken wraps a bot token so it never ends up in logs or dumps.
type SecretToken string

// Value returns the raw token. Only use it to build API URLs.
func (s SecretToken) Value() string { return string(s) }

// String returns a redacted placeholder.
func (s SecretToken) String() string { return "[REDACTED]" }

// GoString returns a redacted placeholder for %#v.
func (s SecretToken) GoString() string { return `bale.SecretToken("[REDACTED]")` }

// LogValue implements slog.LogValuer.
func (s SecretToken) LogValue() slog.Value {
	return slog.StringValue("[REDACTED]")
}

// MarshalText keeps the token out of JSON and text encodings.
func (s SecretToken) MarshalText() ([]byte, error) {
	return []byte("[REDACTED]"), nil
}

// IsEmpty reports whether the token is empty.
func (s SecretToken) IsEmpty() bool {
	return s == ""
}
