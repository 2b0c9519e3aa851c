// Package config loads balebot configuration from the environment, .env
// files and the OS keyring.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/zalando/go-keyring"

	"github.com/python-bale-bot/balego"
	"github.com/python-bale-bot/balego/bale"
)

// Keyring coordinates of the bot token.
const (
	KeyringService = "balebot"
	KeyringAccount = "token"
)

// ErrNoToken is returned when neither the environment nor the keyring
// holds a token.
var ErrNoToken = errors.New("balebot: BALE_BOT_TOKEN not set and no token in keyring")

// Config holds balebot configuration.
type Config struct {
	Bot balego.Config

	// Logging
	LogLevel      string
	LogFile       string // Empty logs to stderr only
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int

	// Conversation
	AskTimeout time.Duration

	// Derived
	TokenSource string // "env" or "keyring"
}

// LoadDotEnv loads each file that exists. Variables already set in the
// environment are not overridden.
func LoadDotEnv(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load reads the bot and CLI settings. A missing BALE_BOT_TOKEN falls
// back to the keyring entry KeyringService/KeyringAccount.
func Load() (*Config, error) {
	botCfg, err := balego.LoadConfig()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Bot:           *botCfg,
		LogLevel:      getEnvDefault("BALEBOT_LOG_LEVEL", "info"),
		LogFile:       os.Getenv("BALEBOT_LOG_FILE"),
		LogMaxSizeMB:  getEnvIntDefault("BALEBOT_LOG_MAX_SIZE_MB", 50),
		LogMaxBackups: getEnvIntDefault("BALEBOT_LOG_MAX_BACKUPS", 3),
		LogMaxAgeDays: getEnvIntDefault("BALEBOT_LOG_MAX_AGE_DAYS", 14),
		AskTimeout:    getEnvDurationDefault("BALEBOT_ASK_TIMEOUT", 30*time.Second),
		TokenSource:   "env",
	}

	if cfg.Bot.Sender.Token.IsEmpty() {
		token, err := keyring.Get(KeyringService, KeyringAccount)
		switch {
		case errors.Is(err, keyring.ErrNotFound):
			return nil, ErrNoToken
		case err != nil:
			return nil, fmt.Errorf("%w: keyring: %w", ErrNoToken, err)
		}
		cfg.Bot.Sender.Token = bale.SecretToken(token)
		cfg.TokenSource = "keyring"
	}

	return cfg, nil
}

// StoreToken saves token in the keyring for later runs.
func StoreToken(token string) error {
	return keyring.Set(KeyringService, KeyringAccount, token)
}

func getEnvDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvIntDefault(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDurationDefault(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
