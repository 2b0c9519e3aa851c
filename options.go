package balego

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/python-bale-bot/balego/bale"
	"github.com/python-bale-bot/balego/handler"
	"github.com/python-bale-bot/balego/receiver"
	"github.com/python-bale-bot/balego/sender"
	"github.com/python-bale-bot/balego/state"
)

// ReadyFunc is called once the bot has logged in and started receiving.
type ReadyFunc func(ctx context.Context, me *bale.User)

type botOptions struct {
	cfg        Config
	logger     *slog.Logger
	httpClient *http.Client
	store      state.Store
	fetcher    receiver.Fetcher
	readyHook  ReadyFunc
	errorHook  handler.ErrorFunc
	senderOpts []sender.Option
	pollerOpts []receiver.PollerOption
}

// Option configures the Bot.
type Option func(*botOptions)

// WithConfig replaces the whole configuration. Options applied after it
// still take effect.
func WithConfig(cfg Config) Option {
	return func(o *botOptions) {
		o.cfg = cfg
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *botOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithHTTPClient sets the HTTP client used for every API call.
func WithHTTPClient(client *http.Client) Option {
	return func(o *botOptions) {
		o.httpClient = client
	}
}

// WithBaseURL sets the API base URL (useful for testing).
func WithBaseURL(url string) Option {
	return func(o *botOptions) {
		o.cfg.Sender.BaseURL = url
		o.cfg.Receiver.BaseURL = url
	}
}

// WithPolling configures polling mode.
func WithPolling(interval time.Duration, limit int) Option {
	return func(o *botOptions) {
		o.cfg.Receiver.Mode = receiver.ModePolling
		o.cfg.Receiver.Interval = interval
		o.cfg.Receiver.Limit = limit
	}
}

// WithWebhook configures webhook mode. A non-empty url is registered
// with Bale when the bot starts.
func WithWebhook(url, secret string) Option {
	return func(o *botOptions) {
		o.cfg.Receiver.Mode = receiver.ModeWebhook
		o.cfg.Receiver.WebhookURL = url
		o.cfg.Receiver.WebhookSecret = secret
	}
}

// WithDeleteWebhook deletes an existing webhook before polling.
func WithDeleteWebhook(del bool) Option {
	return func(o *botOptions) {
		o.cfg.Receiver.DeleteWebhookFirst = del
	}
}

// WithQueueSize bounds the update queue.
func WithQueueSize(size int) Option {
	return func(o *botOptions) {
		o.cfg.QueueSize = size
	}
}

// WithRetries sets max retry attempts.
func WithRetries(max int) Option {
	return func(o *botOptions) {
		o.cfg.Sender.MaxRetries = max
	}
}

// WithRateLimit sets rate limiting.
func WithRateLimit(globalRPS float64, burst int) Option {
	return func(o *botOptions) {
		o.cfg.Sender.GlobalRPS = globalRPS
		o.cfg.Sender.GlobalBurst = burst
	}
}

// WithStateStore sets the entity cache. The bot does not close a store
// passed this way.
func WithStateStore(s state.Store) Option {
	return func(o *botOptions) {
		o.store = s
	}
}

// WithStateFile persists the entity cache to a bbolt file.
func WithStateFile(path string) Option {
	return func(o *botOptions) {
		o.cfg.StateFile = path
	}
}

// WithFetcher replaces the getUpdates client used by the poller.
func WithFetcher(f receiver.Fetcher) Option {
	return func(o *botOptions) {
		o.fetcher = f
	}
}

// WithReadyHook sets a function called once the bot is running.
func WithReadyHook(fn ReadyFunc) Option {
	return func(o *botOptions) {
		o.readyHook = fn
	}
}

// WithErrorHook sets the hook for handler errors that have no
// handler-specific error callback.
func WithErrorHook(fn handler.ErrorFunc) Option {
	return func(o *botOptions) {
		o.errorHook = fn
	}
}

// WithSenderOptions passes extra options to the sender client.
func WithSenderOptions(opts ...sender.Option) Option {
	return func(o *botOptions) {
		o.senderOpts = append(o.senderOpts, opts...)
	}
}

// WithPollerOptions passes extra options to the poller.
func WithPollerOptions(opts ...receiver.PollerOption) Option {
	return func(o *botOptions) {
		o.pollerOpts = append(o.pollerOpts, opts...)
	}
}
