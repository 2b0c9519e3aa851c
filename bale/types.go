package bale

import "strconv"

// ChatID is a chat identifier: an int64 or a "@username" string.
type ChatID = any

// Editable is anything that points at an editable message.
type Editable interface {
	// MessageSig returns the message identifier and its chat ID.
	MessageSig() (messageID string, chatID int64)
}

// Message is a chat message.
type Message struct {
	MessageID            int64                 `json:"message_id"`
	From                 *User                 `json:"from,omitempty"`
	Date                 int64                 `json:"date"`
	Chat                 *Chat                 `json:"chat"`
	ForwardFrom          *User                 `json:"forward_from,omitempty"`
	ForwardFromChat      *Chat                 `json:"forward_from_chat,omitempty"`
	ForwardFromMessageID int64                 `json:"forward_from_message_id,omitempty"`
	ForwardDate          int64                 `json:"forward_date,omitempty"`
	ReplyToMessage       *Message              `json:"reply_to_message,omitempty"`
	EditDate             int64                 `json:"edit_date,omitempty"`
	Text                 string                `json:"text,omitempty"`
	Caption              string                `json:"caption,omitempty"`
	Photo                []PhotoSize           `json:"photo,omitempty"`
	Document             *Document             `json:"document,omitempty"`
	Video                *Video                `json:"video,omitempty"`
	Audio                *Audio                `json:"audio,omitempty"`
	Voice                *Voice                `json:"voice,omitempty"`
	Animation            *Animation            `json:"animation,omitempty"`
	Sticker              *Sticker              `json:"sticker,omitempty"`
	Contact              *Contact              `json:"contact,omitempty"`
	Location             *Location             `json:"location,omitempty"`
	Invoice              *Invoice              `json:"invoice,omitempty"`
	SuccessfulPayment    *SuccessfulPayment    `json:"successful_payment,omitempty"`
	NewChatMembers       []User                `json:"new_chat_members,omitempty"`
	LeftChatMember       *User                 `json:"left_chat_member,omitempty"`
	ReplyMarkup          *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

// MessageSig implements Editable.
func (m *Message) MessageSig() (string, int64) {
	if m == nil {
		return "", 0
	}
	var chatID int64
	if m.Chat != nil {
		chatID = m.Chat.ID
	}
	return strconv.FormatInt(m.MessageID, 10), chatID
}

var _ Editable = (*Message)(nil)

// Content returns the text of the message, or its caption for media.
func (m *Message) Content() string {
	if m == nil {
		return ""
	}
	if m.Text != "" {
		return m.Text
	}
	return m.Caption
}

// HasAttachment reports whether the message carries a file.
func (m *Message) HasAttachment() bool {
	if m == nil {
		return false
	}
	return len(m.Photo) > 0 || m.Document != nil || m.Video != nil ||
		m.Audio != nil || m.Voice != nil || m.Animation != nil || m.Sticker != nil
}

// ChatType is the type of a Bale chat.
type ChatType string

// Supported chat types.
const (
	ChatTypePrivate ChatType = "private"
	ChatTypeGroup   ChatType = "group"
	ChatTypeChannel ChatType = "channel"
)

func (c ChatType) String() string { return string(c) }

// User is a Bale user or bot.
type User struct {
	ID           int64  `json:"id"`
	IsBot        bool   `json:"is_bot"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name,omitempty"`
	Username     string `json:"username,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`
}

// FullName joins first and last name.
func (u *User) FullName() string {
	if u == nil {
		return ""
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Mention returns an inline mention link for the user.
func (u *User) Mention() string {
	if u == nil {
		return ""
	}
	if u.Username != "" {
		return "@" + u.Username
	}
	return "[" + u.FullName() + "](tg://user?id=" + strconv.FormatInt(u.ID, 10) + ")"
}

// Chat is a private chat, group or channel.
type Chat struct {
	ID          int64      `json:"id"`
	Type        ChatType   `json:"type"`
	Title       string     `json:"title,omitempty"`
	Username    string     `json:"username,omitempty"`
	FirstName   string     `json:"first_name,omitempty"`
	LastName    string     `json:"last_name,omitempty"`
	Photo       *ChatPhoto `json:"photo,omitempty"`
	Description string     `json:"description,omitempty"`
	InviteLink  string     `json:"invite_link,omitempty"`
}

// IsPrivate reports whether the chat is a one-to-one chat.
func (c *Chat) IsPrivate() bool { return c != nil && c.Type == ChatTypePrivate }

// IsGroup reports whether the chat is a group.
func (c *Chat) IsGroup() bool { return c != nil && c.Type == ChatTypeGroup }

// IsChannel reports whether the chat is a channel.
func (c *Chat) IsChannel() bool { return c != nil && c.Type == ChatTypeChannel }

// ChatPhoto is the profile photo of a chat.
type ChatPhoto struct {
	SmallFileID       string `json:"small_file_id"`
	SmallFileUniqueID string `json:"small_file_unique_id"`
	BigFileID         string `json:"big_file_id"`
	BigFileUniqueID   string `json:"big_file_unique_id"`
}

// PhotoSize is one size of a photo or thumbnail.
type PhotoSize struct {
	FileID       string `json:"file_id"`
	FileUniqueID string `json:"file_unique_id"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	FileSize     int64  `json:"file_size,omitempty"`
}

// Document is a general file.
type Document struct {
	FileID       string     `json:"file_id"`
	FileUniqueID string     `json:"file_unique_id"`
	Thumbnail    *PhotoSize `json:"thumbnail,omitempty"`
	FileName     string     `json:"file_name,omitempty"`
	MimeType     string     `json:"mime_type,omitempty"`
	FileSize     int64      `json:"file_size,omitempty"`
}

// Video is a video file.
type Video struct {
	FileID       string `json:"file_id"`
	FileUniqueID string `json:"file_unique_id"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	Duration     int    `json:"duration"`
	MimeType     string `json:"mime_type,omitempty"`
	FileSize     int64  `json:"file_size,omitempty"`
}

// Audio is a music file.
type Audio struct {
	FileID       string `json:"file_id"`
	FileUniqueID string `json:"file_unique_id"`
	Duration     int    `json:"duration"`
	Title        string `json:"title,omitempty"`
	MimeType     string `json:"mime_type,omitempty"`
	FileSize     int64  `json:"file_size,omitempty"`
}

// Voice is a voice note.
type Voice struct {
	FileID       string `json:"file_id"`
	FileUniqueID string `json:"file_unique_id"`
	Duration     int    `json:"duration"`
	MimeType     string `json:"mime_type,omitempty"`
	FileSize     int64  `json:"file_size,omitempty"`
}

// Animation is a GIF or soundless video.
type Animation struct {
	FileID       string     `json:"file_id"`
	FileUniqueID string     `json:"file_unique_id"`
	Width        int        `json:"width"`
	Height       int        `json:"height"`
	Duration     int        `json:"duration"`
	Thumbnail    *PhotoSize `json:"thumbnail,omitempty"`
	FileName     string     `json:"file_name,omitempty"`
	MimeType     string     `json:"mime_type,omitempty"`
	FileSize     int64      `json:"file_size,omitempty"`
}

// Sticker is a sticker.
type Sticker struct {
	FileID       string     `json:"file_id"`
	FileUniqueID string     `json:"file_unique_id"`
	Type         string     `json:"type,omitempty"`
	Width        int        `json:"width"`
	Height       int        `json:"height"`
	Thumbnail    *PhotoSize `json:"thumbnail,omitempty"`
	SetName      string     `json:"set_name,omitempty"`
	FileSize     int64      `json:"file_size,omitempty"`
}

// Contact is a phone contact.
type Contact struct {
	PhoneNumber string `json:"phone_number"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name,omitempty"`
	UserID      int64  `json:"user_id,omitempty"`
}

// Location is a point on the map.
type Location struct {
	Longitude          float64 `json:"longitude"`
	Latitude           float64 `json:"latitude"`
	HorizontalAccuracy float64 `json:"horizontal_accuracy,omitempty"`
}

// File is a file ready to be downloaded.
type File struct {
	FileID       string `json:"file_id"`
	FileUniqueID string `json:"file_unique_id"`
	FileSize     int64  `json:"file_size,omitempty"`
	FilePath     string `json:"file_path,omitempty"`
}

// WebhookInfo describes the current webhook status.
type WebhookInfo struct {
	URL                  string `json:"url"`
	HasCustomCertificate bool   `json:"has_custom_certificate"`
	PendingUpdateCount   int    `json:"pending_update_count"`
	LastErrorDate        int64  `json:"last_error_date,omitempty"`
	LastErrorMessage     string `json:"last_error_message,omitempty"`
	MaxConnections       int    `json:"max_connections,omitempty"`
}

// ParseMode defines the text formatting mode for messages.
type ParseMode string

// Supported parse modes.
const (
	ParseModeMarkdown ParseMode = "Markdown"
	ParseModeHTML     ParseMode = "HTML"
)

// IsValid reports whether Bale understands the parse mode.
func (p ParseMode) IsValid() bool {
	switch p {
	case ParseModeMarkdown, ParseModeHTML, "":
		return true
	default:
		return false
	}
}
