package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.etcd.io/bbolt"

	"github.com/python-bale-bot/balego/bale"
)

const (
	boltFileMode    = 0o600
	boltOpenTimeout = time.Second
)

var (
	usersBucket    = []byte("users")
	chatsBucket    = []byte("chats")
	messagesBucket = []byte("messages")
)

var _ Store = (*BoltStore)(nil)

// BoltStore persists entities in a bbolt file, one bucket per kind,
// JSON-encoded values keyed by ID.
type BoltStore struct {
	db *bbolt.DB
}

// OpenBolt opens or creates the store at path. The parent directory is
// created when missing.
func OpenBolt(path string) (*BoltStore, error) {
	if path == "" {
		return nil, errors.New("balego/state: db path is empty")
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("balego/state: ensure dir %q: %w", dir, err)
		}
	}

	db, err := bbolt.Open(path, boltFileMode, &bbolt.Options{Timeout: boltOpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("balego/state: open db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{usersBucket, chatsBucket, messagesBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("balego/state: create buckets: %w", err)
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) PutUser(u *bale.User) error {
	return s.put(usersBucket, idKey(u.ID), u)
}

func (s *BoltStore) PutChat(c *bale.Chat) error {
	return s.put(chatsBucket, idKey(c.ID), c)
}

func (s *BoltStore) PutMessage(m *bale.Message) error {
	return s.put(messagesBucket, msgKey(keyOf(m)), m)
}

func (s *BoltStore) User(id int64) (*bale.User, error) {
	var u bale.User
	if err := s.get(usersBucket, idKey(id), &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *BoltStore) Chat(id int64) (*bale.Chat, error) {
	var c bale.Chat
	if err := s.get(chatsBucket, idKey(id), &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *BoltStore) Message(chatID, messageID int64) (*bale.Message, error) {
	var m bale.Message
	if err := s.get(messagesBucket, msgKey(messageKey{chatID, messageID}), &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *BoltStore) DeleteUser(id int64) error {
	return s.delete(usersBucket, idKey(id))
}

func (s *BoltStore) DeleteChat(id int64) error {
	return s.delete(chatsBucket, idKey(id))
}

func (s *BoltStore) DeleteMessage(chatID, messageID int64) error {
	return s.delete(messagesBucket, msgKey(messageKey{chatID, messageID}))
}

// Close closes the database file.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) put(bucket, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("balego/state: encode %s: %w", bucket, err)
	}
	return s.wrap(s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucket).Put(key, data)
	}))
}

func (s *BoltStore) get(bucket, key []byte, out any) error {
	return s.wrap(s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucket).Get(key)
		if data == nil {
			return ErrNotFound
		}
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("balego/state: decode %s/%s: %w", bucket, key, err)
		}
		return nil
	}))
}

func (s *BoltStore) delete(bucket, key []byte) error {
	return s.wrap(s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucket).Delete(key)
	}))
}

func (s *BoltStore) wrap(err error) error {
	if errors.Is(err, bbolt.ErrDatabaseNotOpen) {
		return ErrClosed
	}
	return err
}

func idKey(id int64) []byte {
	return strconv.AppendInt(nil, id, 10)
}

func msgKey(k messageKey) []byte {
	b := strconv.AppendInt(nil, k.chatID, 10)
	b = append(b, ':')
	return strconv.AppendInt(b, k.messageID, 10)
}
