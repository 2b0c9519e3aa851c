package sender

import (
	"context"
	"strconv"

	"github.com/python-bale-bot/balego/bale"
)

// SendOption configures send requests.
type SendOption func(*SendMessageRequest)

// WithParseMode sets the parse mode.
func WithParseMode(mode bale.ParseMode) SendOption {
	return func(r *SendMessageRequest) {
		r.ParseMode = mode
	}
}

// WithKeyboard attaches an inline or menu keyboard.
func WithKeyboard(markup any) SendOption {
	return func(r *SendMessageRequest) {
		r.ReplyMarkup = markup
	}
}

// ReplyTo makes the message a reply.
func ReplyTo(messageID int64) SendOption {
	return func(r *SendMessageRequest) {
		r.ReplyToMessageID = messageID
	}
}

// EditOption configures edit requests.
type EditOption func(*EditMessageTextRequest)

// WithEditParseMode sets the parse mode for editing.
func WithEditParseMode(mode bale.ParseMode) EditOption {
	return func(r *EditMessageTextRequest) {
		r.ParseMode = mode
	}
}

// WithEditKeyboard sets the inline keyboard for editing.
func WithEditKeyboard(kb *bale.InlineKeyboardMarkup) EditOption {
	return func(r *EditMessageTextRequest) {
		r.ReplyMarkup = kb
	}
}

// CopyOption configures copy requests.
type CopyOption func(*CopyMessageRequest)

// WithCopyCaption sets a new caption when copying.
func WithCopyCaption(caption string) CopyOption {
	return func(r *CopyMessageRequest) {
		r.Caption = caption
	}
}

// WithCopyKeyboard sets keyboard when copying.
func WithCopyKeyboard(kb *bale.InlineKeyboardMarkup) CopyOption {
	return func(r *CopyMessageRequest) {
		r.ReplyMarkup = kb
	}
}

// AnswerOption configures callback answer requests.
type AnswerOption func(*AnswerCallbackQueryRequest)

// AnswerText sets the text for callback answer.
func AnswerText(text string) AnswerOption {
	return func(r *AnswerCallbackQueryRequest) {
		r.Text = text
	}
}

// Alert shows the answer as an alert.
func Alert() AnswerOption {
	return func(r *AnswerCallbackQueryRequest) {
		r.ShowAlert = true
	}
}

// Send sends text to chatID.
func (c *Client) Send(ctx context.Context, chatID bale.ChatID, text string, opts ...SendOption) (*bale.Message, error) {
	req := SendMessageRequest{ChatID: chatID, Text: text}
	for _, opt := range opts {
		opt(&req)
	}
	return c.SendMessage(ctx, req)
}

// Reply answers m in its chat, quoting it.
func (c *Client) Reply(ctx context.Context, m *bale.Message, text string, opts ...SendOption) (*bale.Message, error) {
	id, chatID, err := signature(m)
	if err != nil {
		return nil, err
	}
	return c.Send(ctx, chatID, text, append([]SendOption{ReplyTo(id)}, opts...)...)
}

// Edit edits the text of e.
func (c *Client) Edit(ctx context.Context, e bale.Editable, text string, opts ...EditOption) (*bale.Message, error) {
	id, chatID, err := signature(e)
	if err != nil {
		return nil, err
	}
	req := EditMessageTextRequest{ChatID: chatID, MessageID: id, Text: text}
	for _, opt := range opts {
		opt(&req)
	}
	return c.EditMessageText(ctx, req)
}

// Delete deletes e.
func (c *Client) Delete(ctx context.Context, e bale.Editable) error {
	id, chatID, err := signature(e)
	if err != nil {
		return err
	}
	return c.DeleteMessage(ctx, DeleteMessageRequest{ChatID: chatID, MessageID: id})
}

// Forward forwards e to toChatID.
func (c *Client) Forward(ctx context.Context, e bale.Editable, toChatID bale.ChatID) (*bale.Message, error) {
	id, chatID, err := signature(e)
	if err != nil {
		return nil, err
	}
	return c.ForwardMessage(ctx, ForwardMessageRequest{
		ChatID:     toChatID,
		FromChatID: chatID,
		MessageID:  id,
	})
}

// Copy copies e to toChatID and returns the new message ID.
func (c *Client) Copy(ctx context.Context, e bale.Editable, toChatID bale.ChatID, opts ...CopyOption) (int64, error) {
	id, chatID, err := signature(e)
	if err != nil {
		return 0, err
	}
	req := CopyMessageRequest{
		ChatID:     toChatID,
		FromChatID: chatID,
		MessageID:  id,
	}
	for _, opt := range opts {
		opt(&req)
	}
	return c.CopyMessage(ctx, req)
}

// Answer answers a callback query.
func (c *Client) Answer(ctx context.Context, cb *bale.CallbackQuery, opts ...AnswerOption) error {
	req := AnswerCallbackQueryRequest{CallbackQueryID: cb.ID}
	for _, opt := range opts {
		opt(&req)
	}
	return c.AnswerCallbackQuery(ctx, req)
}

// Acknowledge silently acknowledges a callback query.
func (c *Client) Acknowledge(ctx context.Context, cb *bale.CallbackQuery) error {
	return c.Answer(ctx, cb)
}

func signature(e bale.Editable) (int64, int64, error) {
	msgID, chatID := e.MessageSig()
	if chatID == 0 {
		return 0, 0, ErrInlineMessage
	}
	id, err := strconv.ParseInt(msgID, 10, 64)
	if err != nil {
		return 0, 0, ErrInlineMessage
	}
	return id, chatID, nil
}
