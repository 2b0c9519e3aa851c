package receiver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sony/gobreaker/v2"

	"github.com/python-bale-bot/balego/bale"
	"github.com/python-bale-bot/balego/internal/httpclient"
	"github.com/python-bale-bot/balego/internal/resilience"
)

const maxPollResponseSize = 50 << 20 // 50MB for updates

var _ Fetcher = (*HTTPFetcher)(nil)

// HTTPFetcher calls getUpdates directly, behind its own circuit breaker.
type HTTPFetcher struct {
	caller  *httpclient.Caller
	breaker *gobreaker.CircuitBreaker[json.RawMessage]
	logger  *slog.Logger
	client  *http.Client
}

// FetcherOption configures the HTTPFetcher.
type FetcherOption func(*HTTPFetcher)

// WithFetcherHTTPClient sets a custom HTTP client.
func WithFetcherHTTPClient(client *http.Client) FetcherOption {
	return func(f *HTTPFetcher) {
		f.client = client
	}
}

// WithFetcherLogger sets a custom logger.
func WithFetcherLogger(logger *slog.Logger) FetcherOption {
	return func(f *HTTPFetcher) {
		f.logger = logger
	}
}

// WithFetcherCircuitBreaker sets a custom circuit breaker.
func WithFetcherCircuitBreaker(breaker *gobreaker.CircuitBreaker[json.RawMessage]) FetcherOption {
	return func(f *HTTPFetcher) {
		f.breaker = breaker
	}
}

// NewHTTPFetcher creates a fetcher for cfg.Token against cfg.BaseURL.
func NewHTTPFetcher(cfg Config, opts ...FetcherOption) *HTTPFetcher {
	f := &HTTPFetcher{logger: slog.Default()}
	for _, opt := range opts {
		opt(f)
	}

	if f.client == nil {
		f.client = httpclient.New(httpclient.DefaultConfig().WithTimeout(cfg.RequestTimeout))
	}
	f.caller = httpclient.NewCaller(f.client, cfg.BaseURL, cfg.Token)
	f.caller.SetMaxResponseSize(maxPollResponseSize)

	if f.breaker == nil {
		breakerCfg := resilience.DefaultBreakerConfig("balego-polling")
		breakerCfg.MaxRequests = cfg.BreakerMaxRequests
		breakerCfg.Interval = cfg.BreakerInterval
		breakerCfg.Timeout = cfg.BreakerTimeout
		breakerCfg.Threshold = 0
		breakerCfg.MinRequests = 3
		breakerCfg.FailureRatio = 0.6
		breakerCfg.IsSuccessful = func(err error) bool { return !resilience.ServerFailure(err) }
		breakerCfg.OnStateChange = resilience.LogStateChanges(f.logger)
		f.breaker = resilience.NewBreaker[json.RawMessage](breakerCfg)
	}

	return f
}

type getUpdatesParams struct {
	Offset int64 `json:"offset,omitempty"`
	Limit  int   `json:"limit,omitempty"`
}

// GetUpdates fetches one batch of updates.
func (f *HTTPFetcher) GetUpdates(ctx context.Context, offset int64, limit int) ([]bale.Update, error) {
	body, err := json.Marshal(getUpdatesParams{Offset: offset, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("balego: getUpdates: marshal request: %w", err)
	}

	raw, err := f.breaker.Execute(func() (json.RawMessage, error) {
		return f.caller.Do(ctx, "getUpdates", "application/json", bytes.NewReader(body))
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: getUpdates: %w", bale.ErrCircuitOpen, err)
		}
		return nil, err
	}

	var updates []bale.Update
	if err := httpclient.Decode("getUpdates", raw, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}
