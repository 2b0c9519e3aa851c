package bale

// Kind identifies which payload an Update carries.
type Kind uint8

// Update kinds.
const (
	KindUnknown Kind = iota
	KindMessage
	KindEditedMessage
	KindCallbackQuery
)

func (k Kind) String() string {
	switch k {
	case KindMessage:
		return "message"
	case KindEditedMessage:
		return "edited_message"
	case KindCallbackQuery:
		return "callback_query"
	default:
		return "unknown"
	}
}

// Update is one incoming event. UpdateID grows monotonically; exactly one
// of the payload fields is set.
type Update struct {
	UpdateID      int64          `json:"update_id"`
	Message       *Message       `json:"message,omitempty"`
	EditedMessage *Message       `json:"edited_message,omitempty"`
	CallbackQuery *CallbackQuery `json:"callback_query,omitempty"`
}

// Kind reports which payload is populated.
func (u *Update) Kind() Kind {
	switch {
	case u == nil:
		return KindUnknown
	case u.Message != nil:
		return KindMessage
	case u.EditedMessage != nil:
		return KindEditedMessage
	case u.CallbackQuery != nil:
		return KindCallbackQuery
	default:
		return KindUnknown
	}
}

// EffectiveMessage returns the message an update refers to: the message
// itself, the message a callback button was attached to, or the edited
// message, in that order.
func (u *Update) EffectiveMessage() *Message {
	if u == nil {
		return nil
	}
	if u.Message != nil {
		return u.Message
	}
	if u.CallbackQuery != nil && u.CallbackQuery.Message != nil {
		return u.CallbackQuery.Message
	}
	return u.EditedMessage
}

// EffectiveUser returns the user who caused the update, if any.
func (u *Update) EffectiveUser() *User {
	if u == nil {
		return nil
	}
	if u.CallbackQuery != nil && u.CallbackQuery.From != nil {
		return u.CallbackQuery.From
	}
	if m := u.EffectiveMessage(); m != nil {
		return m.From
	}
	return nil
}

// EffectiveChat returns the chat the update happened in, if any.
func (u *Update) EffectiveChat() *Chat {
	if m := u.EffectiveMessage(); m != nil {
		return m.Chat
	}
	return nil
}

// CallbackQuery is sent when a user presses an inline keyboard button.
type CallbackQuery struct {
	ID              string   `json:"id"`
	From            *User    `json:"from"`
	Message         *Message `json:"message,omitempty"`
	InlineMessageID string   `json:"inline_message_id,omitempty"`
	Data            string   `json:"data,omitempty"`
}

// MessageSig implements Editable.
func (c *CallbackQuery) MessageSig() (string, int64) {
	if c == nil {
		return "", 0
	}
	if c.InlineMessageID != "" {
		return c.InlineMessageID, 0
	}
	if c.Message != nil {
		return c.Message.MessageSig()
	}
	return "", 0
}

var _ Editable = (*CallbackQuery)(nil)
