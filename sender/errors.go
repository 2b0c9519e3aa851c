package sender

import "errors"

// ErrInlineMessage is returned when a chat-bound operation is applied to a
// message sent via inline mode.
var ErrInlineMessage = errors.New("balego/sender: operation needs a chat message, got an inline message")
