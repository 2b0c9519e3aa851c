package sender

import (
	"encoding/json"

	"github.com/python-bale-bot/balego/bale"
)

// SendMessageRequest sends a text message.
type SendMessageRequest struct {
	ChatID           bale.ChatID    `json:"chat_id"`
	Text             string         `json:"text"`
	ParseMode        bale.ParseMode `json:"parse_mode,omitempty"`
	ReplyToMessageID int64          `json:"reply_to_message_id,omitempty"`
	ReplyMarkup      any            `json:"reply_markup,omitempty"`
}

// ForwardMessageRequest forwards a message.
type ForwardMessageRequest struct {
	ChatID     bale.ChatID `json:"chat_id"`
	FromChatID bale.ChatID `json:"from_chat_id"`
	MessageID  int64       `json:"message_id"`
}

// CopyMessageRequest copies a message without a link to the original.
type CopyMessageRequest struct {
	ChatID           bale.ChatID `json:"chat_id"`
	FromChatID       bale.ChatID `json:"from_chat_id"`
	MessageID        int64       `json:"message_id"`
	Caption          string      `json:"caption,omitempty"`
	ReplyToMessageID int64       `json:"reply_to_message_id,omitempty"`
	ReplyMarkup      any         `json:"reply_markup,omitempty"`
}

// DeleteMessageRequest deletes a message.
type DeleteMessageRequest struct {
	ChatID    bale.ChatID `json:"chat_id"`
	MessageID int64       `json:"message_id"`
}

// EditMessageTextRequest edits the text of a message.
type EditMessageTextRequest struct {
	ChatID      bale.ChatID    `json:"chat_id"`
	MessageID   int64          `json:"message_id"`
	Text        string         `json:"text"`
	ParseMode   bale.ParseMode `json:"parse_mode,omitempty"`
	ReplyMarkup any            `json:"reply_markup,omitempty"`
}

// EditMessageCaptionRequest edits the caption of a media message.
type EditMessageCaptionRequest struct {
	ChatID      bale.ChatID `json:"chat_id"`
	MessageID   int64       `json:"message_id"`
	Caption     string      `json:"caption"`
	ReplyMarkup any         `json:"reply_markup,omitempty"`
}

// EditMessageReplyMarkupRequest replaces the inline keyboard of a message.
type EditMessageReplyMarkupRequest struct {
	ChatID      bale.ChatID                `json:"chat_id"`
	MessageID   int64                      `json:"message_id"`
	ReplyMarkup *bale.InlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

// SendPhotoRequest sends a photo.
type SendPhotoRequest struct {
	ChatID           bale.ChatID `json:"chat_id"`
	Photo            InputFile   `json:"photo"`
	Caption          string      `json:"caption,omitempty"`
	ReplyToMessageID int64       `json:"reply_to_message_id,omitempty"`
	ReplyMarkup      any         `json:"reply_markup,omitempty"`
}

// SendDocumentRequest sends a general file.
type SendDocumentRequest struct {
	ChatID           bale.ChatID `json:"chat_id"`
	Document         InputFile   `json:"document"`
	Caption          string      `json:"caption,omitempty"`
	ReplyToMessageID int64       `json:"reply_to_message_id,omitempty"`
	ReplyMarkup      any         `json:"reply_markup,omitempty"`
}

// SendAudioRequest sends an audio file.
type SendAudioRequest struct {
	ChatID           bale.ChatID `json:"chat_id"`
	Audio            InputFile   `json:"audio"`
	Caption          string      `json:"caption,omitempty"`
	ReplyToMessageID int64       `json:"reply_to_message_id,omitempty"`
	ReplyMarkup      any         `json:"reply_markup,omitempty"`
}

// SendVideoRequest sends a video.
type SendVideoRequest struct {
	ChatID           bale.ChatID `json:"chat_id"`
	Video            InputFile   `json:"video"`
	Caption          string      `json:"caption,omitempty"`
	ReplyToMessageID int64       `json:"reply_to_message_id,omitempty"`
	ReplyMarkup      any         `json:"reply_markup,omitempty"`
}

// SendAnimationRequest sends a GIF or a soundless video.
type SendAnimationRequest struct {
	ChatID           bale.ChatID `json:"chat_id"`
	Animation        InputFile   `json:"animation"`
	Caption          string      `json:"caption,omitempty"`
	ReplyToMessageID int64       `json:"reply_to_message_id,omitempty"`
	ReplyMarkup      any         `json:"reply_markup,omitempty"`
}

// SendVoiceRequest sends a voice note.
type SendVoiceRequest struct {
	ChatID           bale.ChatID `json:"chat_id"`
	Voice            InputFile   `json:"voice"`
	Caption          string      `json:"caption,omitempty"`
	ReplyToMessageID int64       `json:"reply_to_message_id,omitempty"`
	ReplyMarkup      any         `json:"reply_markup,omitempty"`
}

// SendStickerRequest sends a sticker.
type SendStickerRequest struct {
	ChatID           bale.ChatID `json:"chat_id"`
	Sticker          InputFile   `json:"sticker"`
	ReplyToMessageID int64       `json:"reply_to_message_id,omitempty"`
}

// SendMediaGroupRequest sends photos, videos, audios or documents as an album.
type SendMediaGroupRequest struct {
	ChatID           bale.ChatID `json:"chat_id"`
	Media            []InputFile `json:"media"`
	ReplyToMessageID int64       `json:"reply_to_message_id,omitempty"`
}

// MarshalJSON encodes Media as typed items. It is used only when no item
// needs an upload.
func (r SendMediaGroupRequest) MarshalJSON() ([]byte, error) {
	type mediaItem struct {
		Type    string `json:"type"`
		Media   string `json:"media"`
		Caption string `json:"caption,omitempty"`
	}
	items := make([]mediaItem, 0, len(r.Media))
	for _, f := range r.Media {
		items = append(items, mediaItem{Type: f.MediaType, Media: f.Value(), Caption: f.Caption})
	}
	return json.Marshal(struct {
		ChatID           bale.ChatID `json:"chat_id"`
		Media            []mediaItem `json:"media"`
		ReplyToMessageID int64       `json:"reply_to_message_id,omitempty"`
	}{r.ChatID, items, r.ReplyToMessageID})
}

// SendLocationRequest sends a point on the map.
type SendLocationRequest struct {
	ChatID             bale.ChatID `json:"chat_id"`
	Latitude           float64     `json:"latitude"`
	Longitude          float64     `json:"longitude"`
	HorizontalAccuracy float64     `json:"horizontal_accuracy,omitempty"`
	ReplyToMessageID   int64       `json:"reply_to_message_id,omitempty"`
	ReplyMarkup        any         `json:"reply_markup,omitempty"`
}

// SendContactRequest sends a phone contact.
type SendContactRequest struct {
	ChatID           bale.ChatID `json:"chat_id"`
	PhoneNumber      string      `json:"phone_number"`
	FirstName        string      `json:"first_name"`
	LastName         string      `json:"last_name,omitempty"`
	ReplyToMessageID int64       `json:"reply_to_message_id,omitempty"`
	ReplyMarkup      any         `json:"reply_markup,omitempty"`
}

// SendInvoiceRequest sends a payment request.
type SendInvoiceRequest struct {
	ChatID              bale.ChatID         `json:"chat_id"`
	Title               string              `json:"title"`
	Description         string              `json:"description"`
	ProviderToken       string              `json:"provider_token"`
	Prices              []bale.LabeledPrice `json:"prices"`
	Payload             string              `json:"payload,omitempty"`
	PhotoURL            string              `json:"photo_url,omitempty"`
	NeedName            bool                `json:"need_name,omitempty"`
	NeedPhoneNumber     bool                `json:"need_phone_number,omitempty"`
	NeedEmail           bool                `json:"need_email,omitempty"`
	NeedShippingAddress bool                `json:"need_shipping_address,omitempty"`
	IsFlexible          bool                `json:"is_flexible,omitempty"`
}

// AnswerCallbackQueryRequest answers a callback query.
type AnswerCallbackQueryRequest struct {
	CallbackQueryID string `json:"callback_query_id"`
	Text            string `json:"text,omitempty"`
	ShowAlert       bool   `json:"show_alert,omitempty"`
}

// GetUpdatesRequest fetches pending updates. A zero Offset fetches from
// the oldest unconfirmed update.
type GetUpdatesRequest struct {
	Offset int64 `json:"offset,omitempty"`
	Limit  int   `json:"limit,omitempty"`
}

type fileRequest struct {
	FileID string `json:"file_id"`
}

type chatRequest struct {
	ChatID bale.ChatID `json:"chat_id"`
}

type chatUserRequest struct {
	ChatID bale.ChatID `json:"chat_id"`
	UserID int64       `json:"user_id"`
}

// UnbanChatMemberRequest lifts a ban.
type UnbanChatMemberRequest struct {
	ChatID       bale.ChatID `json:"chat_id"`
	UserID       int64       `json:"user_id"`
	OnlyIfBanned bool        `json:"only_if_banned,omitempty"`
}

// PromoteChatMemberRequest grants the listed admin rights.
type PromoteChatMemberRequest struct {
	ChatID bale.ChatID `json:"chat_id"`
	UserID int64       `json:"user_id"`
	bale.Permissions
}

// SetChatPhotoRequest replaces the chat photo.
type SetChatPhotoRequest struct {
	ChatID bale.ChatID `json:"chat_id"`
	Photo  InputFile   `json:"photo"`
}
