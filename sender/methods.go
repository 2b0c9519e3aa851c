package sender

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/python-bale-bot/balego/bale"
	"github.com/python-bale-bot/balego/internal/scrub"
	"github.com/python-bale-bot/balego/internal/validate"
)

// GetMe returns the bot's own user.
func (c *Client) GetMe(ctx context.Context) (*bale.User, error) {
	var me bale.User
	if err := c.call(ctx, "getMe", nil, nil, &me); err != nil {
		return nil, err
	}
	return &me, nil
}

// SendMessage sends a text message.
func (c *Client) SendMessage(ctx context.Context, req SendMessageRequest) (*bale.Message, error) {
	if err := validate.ChatID(req.ChatID); err != nil {
		return nil, err
	}
	if err := validate.Text(req.Text, c.config.MaxTextLength); err != nil {
		return nil, err
	}
	if err := validate.ParseMode(req.ParseMode); err != nil {
		return nil, err
	}
	return c.sendMessage(ctx, "sendMessage", req.ChatID, req)
}

// ForwardMessage forwards a message.
func (c *Client) ForwardMessage(ctx context.Context, req ForwardMessageRequest) (*bale.Message, error) {
	if err := validate.ChatID(req.ChatID); err != nil {
		return nil, err
	}
	if err := validate.ChatID(req.FromChatID); err != nil {
		return nil, err
	}
	return c.sendMessage(ctx, "forwardMessage", req.ChatID, req)
}

// CopyMessage copies a message and returns the new message ID.
func (c *Client) CopyMessage(ctx context.Context, req CopyMessageRequest) (int64, error) {
	if err := validate.ChatID(req.ChatID); err != nil {
		return 0, err
	}
	var result struct {
		MessageID int64 `json:"message_id"`
	}
	if err := c.call(ctx, "copyMessage", req.ChatID, req, &result); err != nil {
		return 0, err
	}
	return result.MessageID, nil
}

// DeleteMessage deletes a message.
func (c *Client) DeleteMessage(ctx context.Context, req DeleteMessageRequest) error {
	if err := validate.ChatID(req.ChatID); err != nil {
		return err
	}
	return c.call(ctx, "deleteMessage", req.ChatID, req, nil)
}

// EditMessageText edits message text.
func (c *Client) EditMessageText(ctx context.Context, req EditMessageTextRequest) (*bale.Message, error) {
	if err := validate.Text(req.Text, c.config.MaxTextLength); err != nil {
		return nil, err
	}
	return c.sendMessage(ctx, "editMessageText", req.ChatID, req)
}

// EditMessageCaption edits message caption.
func (c *Client) EditMessageCaption(ctx context.Context, req EditMessageCaptionRequest) (*bale.Message, error) {
	if err := validate.Caption(req.Caption, c.config.MaxCaptionLength); err != nil {
		return nil, err
	}
	return c.sendMessage(ctx, "editMessageCaption", req.ChatID, req)
}

// EditMessageReplyMarkup replaces the inline keyboard of a message.
func (c *Client) EditMessageReplyMarkup(ctx context.Context, req EditMessageReplyMarkupRequest) (*bale.Message, error) {
	return c.sendMessage(ctx, "editMessageReplyMarkup", req.ChatID, req)
}

// AnswerCallbackQuery answers a callback query.
func (c *Client) AnswerCallbackQuery(ctx context.Context, req AnswerCallbackQueryRequest) error {
	if err := validate.Required("callback_query_id", req.CallbackQueryID); err != nil {
		return err
	}
	return c.call(ctx, "answerCallbackQuery", nil, req, nil)
}

// GetUpdates fetches pending updates in a single attempt. It satisfies the
// receiver's Fetcher interface; the poller applies its own retry policy.
func (c *Client) GetUpdates(ctx context.Context, offset int64, limit int) ([]bale.Update, error) {
	var updates []bale.Update
	req := GetUpdatesRequest{Offset: offset, Limit: limit}
	if err := c.callOnce(ctx, "getUpdates", "", req, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// GetFile returns the metadata and download path of a file.
func (c *Client) GetFile(ctx context.Context, fileID string) (*bale.File, error) {
	if err := validate.Required("file_id", fileID); err != nil {
		return nil, err
	}
	var file bale.File
	if err := c.call(ctx, "getFile", nil, fileRequest{FileID: fileID}, &file); err != nil {
		return nil, err
	}
	return &file, nil
}

// DownloadFile resolves fileID and copies its content into w.
// It returns the number of bytes written.
func (c *Client) DownloadFile(ctx context.Context, fileID string, w io.Writer) (int64, error) {
	file, err := c.GetFile(ctx, fileID)
	if err != nil {
		return 0, err
	}
	if file.FilePath == "" {
		return 0, fmt.Errorf("balego: getFile: %w: empty file_path", bale.ErrNotFound)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.FileURL(file.FilePath), nil)
	if err != nil {
		return 0, fmt.Errorf("balego: download: %w", scrub.TokenFromError(err, c.config.Token))
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: download: %w", bale.ErrNetwork, scrub.TokenFromError(err, c.config.Token))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, bale.NewAPIError("download", resp.StatusCode, resp.Status)
	}
	return io.Copy(w, io.LimitReader(resp.Body, MaxUploadSize))
}

func (c *Client) sendMessage(ctx context.Context, method string, chatID bale.ChatID, payload any) (*bale.Message, error) {
	var msg bale.Message
	if err := c.call(ctx, method, chatID, payload, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
