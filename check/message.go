package check

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/python-bale-bot/balego/bale"
)

// messageCheck builds a leaf over the effective message: the message, the
// message a callback button belongs to, or the edited message.
func messageCheck(name string, test func(*bale.Message) bool) Check {
	return New(name, func(_ context.Context, u *bale.Update) bool {
		m := u.EffectiveMessage()
		return m != nil && test(m)
	})
}

func named(base string, values any, n int) string {
	if n == 0 {
		return base
	}
	return fmt.Sprintf("%s%v", base, values)
}

// stringIn reports whether s is non-empty and, when allowed is not empty,
// one of allowed.
func stringIn(s string, allowed []string) bool {
	return s != "" && (len(allowed) == 0 || slices.Contains(allowed, s))
}

// Message matches any update that refers to a message.
func Message() Check {
	return messageCheck("Message", func(*bale.Message) bool { return true })
}

// MessageID matches the given message IDs.
func MessageID(ids ...int64) Check {
	return messageCheck(named("MessageID", ids, len(ids)), func(m *bale.Message) bool {
		return slices.Contains(ids, m.MessageID)
	})
}

// Text matches messages with text; when values are given the text must be
// one of them.
func Text(values ...string) Check {
	return messageCheck(named("Text", values, len(values)), func(m *bale.Message) bool {
		return stringIn(m.Text, values)
	})
}

// Command matches text messages that start with a slash.
func Command() Check {
	return messageCheck("Command", func(m *bale.Message) bool {
		return strings.HasPrefix(m.Text, "/")
	})
}

// Caption matches media messages with a caption.
func Caption(values ...string) Check {
	return messageCheck(named("Caption", values, len(values)), func(m *bale.Message) bool {
		return stringIn(m.Caption, values)
	})
}

// Content matches on text or caption, whichever the message has.
func Content(values ...string) Check {
	return messageCheck(named("Content", values, len(values)), func(m *bale.Message) bool {
		return stringIn(m.Content(), values)
	})
}

// Chat matches messages sent in one of the given chats, or in any chat
// when no IDs are given.
func Chat(ids ...int64) Check {
	return messageCheck(named("Chat", ids, len(ids)), func(m *bale.Message) bool {
		return m.Chat != nil && (len(ids) == 0 || slices.Contains(ids, m.Chat.ID))
	})
}

// Author matches messages sent by one of the given users, or by any user
// when no IDs are given.
func Author(ids ...int64) Check {
	return messageCheck(named("Author", ids, len(ids)), func(m *bale.Message) bool {
		return m.From != nil && (len(ids) == 0 || slices.Contains(ids, m.From.ID))
	})
}

// ChatType matches messages sent in a chat of the given type.
func ChatType(t bale.ChatType) Check {
	return messageCheck("ChatType("+t.String()+")", func(m *bale.Message) bool {
		return m.Chat != nil && m.Chat.Type == t
	})
}

// Private matches one-to-one chats.
func Private() Check { return ChatType(bale.ChatTypePrivate) }

// Group matches group chats.
func Group() Check { return ChatType(bale.ChatTypeGroup) }

// Channel matches channel posts.
func Channel() Check { return ChatType(bale.ChatTypeChannel) }

// Photo matches messages with a photo.
func Photo() Check {
	return messageCheck("Photo", func(m *bale.Message) bool { return len(m.Photo) > 0 })
}

// Video matches messages with a video.
func Video() Check {
	return messageCheck("Video", func(m *bale.Message) bool { return m.Video != nil })
}

// Audio matches messages with an audio file.
func Audio() Check {
	return messageCheck("Audio", func(m *bale.Message) bool { return m.Audio != nil })
}

// Document matches messages with a document.
func Document() Check {
	return messageCheck("Document", func(m *bale.Message) bool { return m.Document != nil })
}

// Voice matches voice notes.
func Voice() Check {
	return messageCheck("Voice", func(m *bale.Message) bool { return m.Voice != nil })
}

// Animation matches GIFs.
func Animation() Check {
	return messageCheck("Animation", func(m *bale.Message) bool { return m.Animation != nil })
}

// Sticker matches stickers.
func Sticker() Check {
	return messageCheck("Sticker", func(m *bale.Message) bool { return m.Sticker != nil })
}

// Contact matches shared contacts.
func Contact() Check {
	return messageCheck("Contact", func(m *bale.Message) bool { return m.Contact != nil })
}

// Location matches shared locations.
func Location() Check {
	return messageCheck("Location", func(m *bale.Message) bool { return m.Location != nil })
}

// Invoice matches invoice messages.
func Invoice() Check {
	return messageCheck("Invoice", func(m *bale.Message) bool { return m.Invoice != nil })
}

// SuccessfulPayment matches payment receipts.
func SuccessfulPayment() Check {
	return messageCheck("SuccessfulPayment", func(m *bale.Message) bool { return m.SuccessfulPayment != nil })
}

// Reply matches messages that reply to another message.
func Reply() Check {
	return messageCheck("Reply", func(m *bale.Message) bool { return m.ReplyToMessage != nil })
}

// Attachment matches messages carrying any file.
func Attachment() Check {
	return messageCheck("Attachment", (*bale.Message).HasAttachment)
}

// LeftChatMember matches "user left" service messages.
func LeftChatMember() Check {
	return messageCheck("LeftChatMember", func(m *bale.Message) bool { return m.LeftChatMember != nil })
}

// NewChatMembers matches "users joined" service messages.
func NewChatMembers() Check {
	return messageCheck("NewChatMembers", func(m *bale.Message) bool { return len(m.NewChatMembers) > 0 })
}
