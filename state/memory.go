package state

import (
	"sync"

	"github.com/eapache/queue"

	"github.com/python-bale-bot/balego/bale"
)

// Default capacities of a Memory store.
const (
	DefaultMaxUsers    = 10000
	DefaultMaxChats    = 10000
	DefaultMaxMessages = 1000
)

// MemoryOption configures a Memory store.
type MemoryOption func(*Memory)

// WithMaxUsers caps the number of cached users.
func WithMaxUsers(n int) MemoryOption {
	return func(m *Memory) { m.users.max = n }
}

// WithMaxChats caps the number of cached chats.
func WithMaxChats(n int) MemoryOption {
	return func(m *Memory) { m.chats.max = n }
}

// WithMaxMessages caps the number of cached messages.
func WithMaxMessages(n int) MemoryOption {
	return func(m *Memory) { m.messages.max = n }
}

var _ Store = (*Memory)(nil)

// Memory is an in-process Store. Each kind holds at most its configured
// number of entries; inserting past the cap evicts the oldest insert.
type Memory struct {
	mu       sync.Mutex
	users    bounded[int64, bale.User]
	chats    bounded[int64, bale.Chat]
	messages bounded[messageKey, bale.Message]
	closed   bool
}

// NewMemory creates an empty Memory store.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		users:    newBounded[int64, bale.User](DefaultMaxUsers),
		chats:    newBounded[int64, bale.Chat](DefaultMaxChats),
		messages: newBounded[messageKey, bale.Message](DefaultMaxMessages),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Memory) PutUser(u *bale.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.users.put(u.ID, *u)
	return nil
}

func (m *Memory) PutChat(c *bale.Chat) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.chats.put(c.ID, *c)
	return nil
}

func (m *Memory) PutMessage(msg *bale.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.messages.put(keyOf(msg), *msg)
	return nil
}

func (m *Memory) User(id int64) (*bale.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.users.get(id)
	return lookup(m.closed, v, ok)
}

func (m *Memory) Chat(id int64) (*bale.Chat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.chats.get(id)
	return lookup(m.closed, v, ok)
}

func (m *Memory) Message(chatID, messageID int64) (*bale.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.messages.get(messageKey{chatID, messageID})
	return lookup(m.closed, v, ok)
}

func (m *Memory) DeleteUser(id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users.remove(id)
	return nil
}

func (m *Memory) DeleteChat(id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chats.remove(id)
	return nil
}

func (m *Memory) DeleteMessage(chatID, messageID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages.remove(messageKey{chatID, messageID})
	return nil
}

// Len returns the number of cached users, chats, and messages.
func (m *Memory) Len() (users, chats, messages int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users.entries), len(m.chats.entries), len(m.messages.entries)
}

// Close drops all entries. Later calls fail with ErrClosed.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.users = newBounded[int64, bale.User](m.users.max)
	m.chats = newBounded[int64, bale.Chat](m.chats.max)
	m.messages = newBounded[messageKey, bale.Message](m.messages.max)
	return nil
}

func keyOf(msg *bale.Message) messageKey {
	var chatID int64
	if msg.Chat != nil {
		chatID = msg.Chat.ID
	}
	return messageKey{chatID: chatID, messageID: msg.MessageID}
}

func lookup[V any](closed bool, v V, ok bool) (*V, error) {
	if closed {
		return nil, ErrClosed
	}
	if !ok {
		return nil, ErrNotFound
	}
	return &v, nil
}

type slot[V any] struct {
	value V
	gen   uint64
}

type ticket[K comparable] struct {
	key K
	gen uint64
}

// bounded is a map that remembers insertion order. A re-put keeps the
// original position; a removed key leaves a stale ticket that is skipped.
type bounded[K comparable, V any] struct {
	max     int
	gen     uint64
	entries map[K]slot[V]
	order   *queue.Queue
}

func newBounded[K comparable, V any](limit int) bounded[K, V] {
	return bounded[K, V]{
		max:     limit,
		entries: make(map[K]slot[V]),
		order:   queue.New(),
	}
}

func (b *bounded[K, V]) put(k K, v V) {
	if s, ok := b.entries[k]; ok {
		s.value = v
		b.entries[k] = s
		return
	}
	b.gen++
	b.entries[k] = slot[V]{value: v, gen: b.gen}
	b.order.Add(ticket[K]{key: k, gen: b.gen})

	for b.max > 0 && len(b.entries) > b.max {
		b.evictOldest()
	}
	if b.order.Length() > 2*len(b.entries)+16 {
		b.compact()
	}
}

func (b *bounded[K, V]) get(k K) (V, bool) {
	s, ok := b.entries[k]
	return s.value, ok
}

func (b *bounded[K, V]) remove(k K) {
	delete(b.entries, k)
}

func (b *bounded[K, V]) evictOldest() {
	for b.order.Length() > 0 {
		t := b.order.Remove().(ticket[K])
		if s, ok := b.entries[t.key]; ok && s.gen == t.gen {
			delete(b.entries, t.key)
			return
		}
	}
}

// compact drops stale tickets left behind by removals.
func (b *bounded[K, V]) compact() {
	fresh := queue.New()
	for b.order.Length() > 0 {
		t := b.order.Remove().(ticket[K])
		if s, ok := b.entries[t.key]; ok && s.gen == t.gen {
			fresh.Add(t)
		}
	}
	b.order = fresh
}
