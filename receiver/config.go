package receiver

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/python-bale-bot/balego/bale"
	"github.com/python-bale-bot/balego/internal/httpclient"
	"github.com/python-bale-bot/balego/internal/validate"
)

// Mode defines how the bot gets updates from Bale.
type Mode string

const (
	ModePolling Mode = "polling"
	ModeWebhook Mode = "webhook"
)

// Config holds receiver configuration.
type Config struct {
	// Mode selection
	Mode Mode

	// Bot token
	Token bale.SecretToken

	// API URL (defaults to https://tapi.bale.ai)
	BaseURL        string
	RequestTimeout time.Duration

	// Polling configuration
	Interval           time.Duration // Pause between successful fetches
	Limit              int           // Max updates per request (0 = server default)
	APIErrorBackoff    time.Duration // Wait after an API error the policy continues on
	MaxErrors          int           // Consecutive errors before IsHealthy reports false (0 = never)
	DeleteWebhookFirst bool          // Delete webhook before polling
	RetryInitialDelay  time.Duration // Initial transport retry delay
	RetryMaxDelay      time.Duration // Maximum transport retry delay
	RetryBackoffFactor float64       // Backoff multiplier

	// Webhook configuration
	WebhookPort     int
	WebhookPath     string
	WebhookURL      string // Public URL for registration
	WebhookSecret   string
	AllowedDomain   string
	DeliveryTimeout time.Duration // Max wait for queue space per webhook call

	// Webhook protection
	RateLimitRequests float64 // Requests per second
	RateLimitBurst    int     // Burst size
	MaxBodySize       int64   // Max webhook body size

	// Circuit breaker
	BreakerMaxRequests uint32
	BreakerInterval    time.Duration
	BreakerTimeout     time.Duration

	// Server timeouts
	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Mode:               ModePolling,
		BaseURL:            httpclient.DefaultBaseURL,
		RequestTimeout:     30 * time.Second,
		Interval:           0,
		Limit:              100,
		APIErrorBackoff:    10 * time.Second,
		MaxErrors:          10,
		RetryInitialDelay:  time.Second,
		RetryMaxDelay:      60 * time.Second,
		RetryBackoffFactor: 2.0,
		WebhookPort:        8443,
		WebhookPath:        "/webhook",
		DeliveryTimeout:    5 * time.Second,
		RateLimitRequests:  10,
		RateLimitBurst:     20,
		MaxBodySize:        1 << 20, // 1MB
		BreakerMaxRequests: 5,
		BreakerInterval:    2 * time.Minute,
		BreakerTimeout:     60 * time.Second,
		ReadTimeout:        10 * time.Second,
		ReadHeaderTimeout:  2 * time.Second,
		WriteTimeout:       15 * time.Second,
		IdleTimeout:        120 * time.Second,
		ShutdownTimeout:    15 * time.Second,
	}
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	switch strings.ToLower(getEnv("RECEIVER_MODE", "polling")) {
	case "polling", "longpolling":
		cfg.Mode = ModePolling
	case "webhook":
		cfg.Mode = ModeWebhook
	default:
		return nil, bale.NewValidationError("RECEIVER_MODE", "must be 'polling' or 'webhook'")
	}

	cfg.Token = bale.SecretToken(getEnv("BALE_BOT_TOKEN", ""))
	if url := getEnv("BALE_API_BASE_URL", ""); url != "" {
		cfg.BaseURL = url
	}
	if d, err := time.ParseDuration(getEnv("REQUEST_TIMEOUT", "30s")); err == nil {
		cfg.RequestTimeout = d
	}

	// Polling settings
	if d, err := time.ParseDuration(getEnv("POLLING_INTERVAL", "0s")); err == nil {
		if d < 0 {
			return nil, bale.NewValidationError("POLLING_INTERVAL", "must not be negative")
		}
		cfg.Interval = d
	}
	if limit, err := strconv.Atoi(getEnv("POLLING_LIMIT", "100")); err == nil {
		if err := validate.InRange("POLLING_LIMIT", limit, 0, 100); err != nil {
			return nil, err
		}
		cfg.Limit = limit
	}
	if d, err := time.ParseDuration(getEnv("API_ERROR_BACKOFF", "10s")); err == nil {
		cfg.APIErrorBackoff = d
	}
	if maxErrors, err := strconv.Atoi(getEnv("POLLING_MAX_ERRORS", "10")); err == nil {
		cfg.MaxErrors = maxErrors
	}
	cfg.DeleteWebhookFirst = strings.ToLower(getEnv("POLLING_DELETE_WEBHOOK", "false")) == "true"

	if d, err := time.ParseDuration(getEnv("POLLING_RETRY_INITIAL_DELAY", "1s")); err == nil {
		cfg.RetryInitialDelay = d
	}
	if d, err := time.ParseDuration(getEnv("POLLING_RETRY_MAX_DELAY", "60s")); err == nil {
		cfg.RetryMaxDelay = d
	}
	if f, err := strconv.ParseFloat(getEnv("POLLING_RETRY_BACKOFF_FACTOR", "2.0"), 64); err == nil {
		cfg.RetryBackoffFactor = f
	}

	// Webhook settings
	if port, err := strconv.Atoi(getEnv("WEBHOOK_PORT", "8443")); err == nil {
		cfg.WebhookPort = port
	}
	cfg.WebhookPath = getEnv("WEBHOOK_PATH", cfg.WebhookPath)
	cfg.WebhookSecret = getEnv("WEBHOOK_SECRET", "")
	cfg.AllowedDomain = getEnv("ALLOWED_DOMAIN", "")
	cfg.WebhookURL = getEnv("WEBHOOK_URL", "")
	if cfg.WebhookURL != "" {
		if err := validate.WebhookURL(cfg.WebhookURL); err != nil {
			return nil, err
		}
	}
	if d, err := time.ParseDuration(getEnv("WEBHOOK_DELIVERY_TIMEOUT", "5s")); err == nil {
		cfg.DeliveryTimeout = d
	}

	if f, err := strconv.ParseFloat(getEnv("WEBHOOK_RATE_LIMIT", "10"), 64); err == nil {
		cfg.RateLimitRequests = f
	}
	if i, err := strconv.Atoi(getEnv("WEBHOOK_RATE_BURST", "20")); err == nil {
		cfg.RateLimitBurst = i
	}
	if i, err := strconv.ParseInt(getEnv("MAX_BODY_SIZE", "1048576"), 10, 64); err == nil {
		cfg.MaxBodySize = i
	}

	// Circuit breaker
	if i, err := strconv.ParseUint(getEnv("BREAKER_MAX_REQUESTS", "5"), 10, 32); err == nil {
		cfg.BreakerMaxRequests = uint32(i)
	}
	if d, err := time.ParseDuration(getEnv("BREAKER_INTERVAL", "2m")); err == nil {
		cfg.BreakerInterval = d
	}
	if d, err := time.ParseDuration(getEnv("BREAKER_TIMEOUT", "60s")); err == nil {
		cfg.BreakerTimeout = d
	}

	// Server timeouts
	if d, err := time.ParseDuration(getEnv("READ_TIMEOUT", "10s")); err == nil {
		cfg.ReadTimeout = d
	}
	if d, err := time.ParseDuration(getEnv("READ_HEADER_TIMEOUT", "2s")); err == nil {
		cfg.ReadHeaderTimeout = d
	}
	if d, err := time.ParseDuration(getEnv("WRITE_TIMEOUT", "15s")); err == nil {
		cfg.WriteTimeout = d
	}
	if d, err := time.ParseDuration(getEnv("IDLE_TIMEOUT", "120s")); err == nil {
		cfg.IdleTimeout = d
	}
	if d, err := time.ParseDuration(getEnv("SHUTDOWN_TIMEOUT", "15s")); err == nil {
		cfg.ShutdownTimeout = d
	}

	return &cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
