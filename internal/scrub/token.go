// Package scrub removes bot tokens from errors and strings before they are
// logged or returned to callers.
package scrub

import (
	"strings"

	"github.com/python-bale-bot/balego/bale"
)

const redacted = "[REDACTED]"

// TokenFromError removes the bot token from err's message.
// http.Client.Do includes the request URL, and with it the token, in its
// errors. The returned error still unwraps to err.
func TokenFromError(err error, token bale.SecretToken) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	clean := String(msg, token)
	if clean == msg {
		return err
	}
	return &scrubbedError{msg: clean, err: err}
}

// String replaces every occurrence of the token in s.
func String(s string, token bale.SecretToken) string {
	tokenVal := token.Value()
	if tokenVal == "" {
		return s
	}
	return strings.ReplaceAll(s, tokenVal, redacted)
}

type scrubbedError struct {
	msg string
	err error
}

func (e *scrubbedError) Error() string { return e.msg }
func (e *scrubbedError) Unwrap() error { return e.err }
