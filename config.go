package balego

import (
	"errors"
	"os"
	"strconv"

	"github.com/python-bale-bot/balego/receiver"
	"github.com/python-bale-bot/balego/sender"
	"github.com/python-bale-bot/balego/state"
)

// Config composes the configuration of every part of a Bot.
type Config struct {
	Sender   sender.Config
	Receiver receiver.Config

	// QueueSize bounds the update queue (0 = unbounded).
	QueueSize int

	// StateFile persists the entity cache to a bbolt file. Empty keeps
	// the cache in memory.
	StateFile string

	// MaxCachedMessages bounds the in-memory message cache.
	MaxCachedMessages int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Sender:            sender.DefaultConfig(),
		Receiver:          receiver.DefaultConfig(),
		QueueSize:         0,
		MaxCachedMessages: state.DefaultMaxMessages,
	}
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	senderCfg, senderErr := sender.LoadConfig()
	if senderCfg != nil {
		cfg.Sender = *senderCfg
	}
	receiverCfg, receiverErr := receiver.LoadConfig()
	if receiverCfg != nil {
		cfg.Receiver = *receiverCfg
	}
	if err := errors.Join(senderErr, receiverErr); err != nil {
		return nil, err
	}

	if size, err := strconv.Atoi(getEnv("BALE_QUEUE_SIZE", "0")); err == nil && size >= 0 {
		cfg.QueueSize = size
	}
	cfg.StateFile = getEnv("BALE_STATE_FILE", "")
	if n, err := strconv.Atoi(getEnv("BALE_MAX_CACHED_MESSAGES", "1000")); err == nil && n > 0 {
		cfg.MaxCachedMessages = n
	}

	return &cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
