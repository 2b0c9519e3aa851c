// Package state caches the users, chats, and messages a bot has seen.
//
// Two stores are provided: Memory keeps a bounded number of entries per
// kind and forgets the oldest, BoltStore persists entries to a bbolt file
// so they survive restarts.
package state

import (
	"errors"

	"github.com/python-bale-bot/balego/bale"
)

// ErrNotFound is returned when a lookup misses the cache.
var ErrNotFound = errors.New("balego/state: not found")

// ErrClosed is returned by a store after Close.
var ErrClosed = errors.New("balego/state: store closed")

// Store caches entities seen in updates.
type Store interface {
	PutUser(u *bale.User) error
	PutChat(c *bale.Chat) error
	PutMessage(m *bale.Message) error

	User(id int64) (*bale.User, error)
	Chat(id int64) (*bale.Chat, error)
	Message(chatID, messageID int64) (*bale.Message, error)

	DeleteUser(id int64) error
	DeleteChat(id int64) error
	DeleteMessage(chatID, messageID int64) error

	Close() error
}

// Record stores the user, chat, and message an update refers to.
// Nil parts are skipped.
func Record(s Store, u *bale.Update) error {
	var errs []error
	if user := u.EffectiveUser(); user != nil {
		errs = append(errs, s.PutUser(user))
	}
	if chat := u.EffectiveChat(); chat != nil {
		errs = append(errs, s.PutChat(chat))
	}
	if msg := u.EffectiveMessage(); msg != nil && msg.Chat != nil {
		errs = append(errs, s.PutMessage(msg))
	}
	return errors.Join(errs...)
}

type messageKey struct {
	chatID    int64
	messageID int64
}
