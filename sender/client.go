package sender

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/python-bale-bot/balego/bale"
	"github.com/python-bale-bot/balego/internal/httpclient"
	"github.com/python-bale-bot/balego/internal/resilience"
	"github.com/python-bale-bot/balego/internal/validate"
)

// Client is the sender client for the Bale Bot API.
type Client struct {
	config        Config
	httpClient    *http.Client
	caller        *httpclient.Caller
	logger        *slog.Logger
	limiter       *resilience.RateLimiter
	breaker       *gobreaker.CircuitBreaker[json.RawMessage]
	breakerConfig *resilience.BreakerConfig
	sleeper       resilience.Sleeper

	cleanupDone chan struct{}
	closeOnce   sync.Once
}

// Option configures the Client.
type Option func(*Client)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithBaseURL sets the API base URL (useful for testing).
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.config.BaseURL = url
	}
}

// WithRateLimit sets the global rate limit.
func WithRateLimit(globalRPS float64, burst int) Option {
	return func(c *Client) {
		c.config.GlobalRPS = globalRPS
		c.config.GlobalBurst = burst
	}
}

// WithPerChatRateLimit sets per-chat rate limiting parameters.
func WithPerChatRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		c.config.PerChatRPS = rps
		c.config.PerChatBurst = burst
	}
}

// WithRetries sets how many times a retryable failure is repeated.
func WithRetries(max int) Option {
	return func(c *Client) {
		c.config.MaxRetries = max
	}
}

// WithSleeper sets a custom sleeper for retry timing (useful for testing).
func WithSleeper(s resilience.Sleeper) Option {
	return func(c *Client) {
		c.sleeper = s
	}
}

// WithBreakerConfig replaces the circuit breaker configuration.
func WithBreakerConfig(cfg resilience.BreakerConfig) Option {
	return func(c *Client) {
		c.breakerConfig = &cfg
	}
}

// New creates a new Client with the given token and options.
func New(token string, opts ...Option) (*Client, error) {
	cfg := DefaultConfig()
	cfg.Token = bale.SecretToken(token)
	return NewFromConfig(cfg, opts...)
}

// NewFromConfig creates a Client from a Config.
func NewFromConfig(cfg Config, opts ...Option) (*Client, error) {
	if err := validate.Token(cfg.Token.Value()); err != nil {
		return nil, fmt.Errorf("%w: %w", bale.ErrInvalidToken, err)
	}

	c := &Client{config: cfg}
	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.httpClient == nil {
		hc := httpclient.DefaultConfig()
		hc.RequestTimeout = c.config.RequestTimeout
		c.httpClient = httpclient.New(hc)
	}
	if c.sleeper == nil {
		c.sleeper = resilience.RealSleeper{}
	}

	c.caller = httpclient.NewCaller(c.httpClient, c.config.BaseURL, c.config.Token)
	c.caller.SetMaxResponseSize(c.config.MaxResponseSize)

	c.limiter = resilience.NewRateLimiter(resilience.RateLimiterConfig{
		GlobalRPS:   c.config.GlobalRPS,
		GlobalBurst: c.config.GlobalBurst,
		KeyRPS:      c.config.PerChatRPS,
		KeyBurst:    c.config.PerChatBurst,
	})

	breakerCfg := resilience.DefaultBreakerConfig("balego-sender")
	breakerCfg.MaxRequests = c.config.BreakerMaxRequests
	breakerCfg.Interval = c.config.BreakerInterval
	breakerCfg.Timeout = c.config.BreakerTimeout
	breakerCfg.Threshold = c.config.BreakerThreshold
	if c.breakerConfig != nil {
		breakerCfg = *c.breakerConfig
	}
	breakerCfg.IsSuccessful = func(err error) bool { return !resilience.ServerFailure(err) }
	breakerCfg.OnStateChange = resilience.LogStateChanges(c.logger)
	c.breaker = resilience.NewBreaker[json.RawMessage](breakerCfg)

	c.startLimiterCleanup()
	return c, nil
}

// Close stops background work and releases idle connections.
// Subsequent calls are no-ops.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		close(c.cleanupDone)
		c.httpClient.CloseIdleConnections()
	})
	return nil
}

// ChatLimiterCount returns the number of active per-chat limiters.
func (c *Client) ChatLimiterCount() int {
	return c.limiter.Keys()
}

// FileURL returns the download URL of a path returned by GetFile.
func (c *Client) FileURL(filePath string) string {
	return c.caller.FileURL(filePath)
}

func (c *Client) startLimiterCleanup() {
	c.cleanupDone = make(chan struct{})
	ttl := c.config.LimiterIdleTTL
	if ttl <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(ttl / 2)
		defer ticker.Stop()
		for {
			select {
			case <-c.cleanupDone:
				return
			case <-ticker.C:
				if n := c.limiter.Cleanup(ttl); n > 0 {
					c.logger.Debug("dropped idle chat limiters", "count", n)
				}
			}
		}
	}()
}

// call runs method with retries. chatID selects the per-chat limiter;
// nil only waits for the global limit. A nil out discards the result.
func (c *Client) call(ctx context.Context, method string, chatID bale.ChatID, payload, out any) error {
	key := chatKey(chatID)
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		err := c.callOnce(ctx, method, key, payload, out)
		if err == nil {
			return nil
		}
		lastErr = err

		// Non-retryable errors return immediately (not wrapped in ErrMaxRetries)
		if ctx.Err() != nil || !isRetryable(err) {
			return err
		}
		if attempt >= c.config.MaxRetries {
			break
		}

		wait := c.backoff(attempt+1, err)
		c.logger.Debug("retrying request",
			"method", method,
			"attempt", attempt+1,
			"wait", wait,
			"error", err,
		)
		if err := c.sleeper.Sleep(ctx, wait); err != nil {
			return err
		}
	}

	return fmt.Errorf("%w: %w", bale.ErrMaxRetries, lastErr)
}

func (c *Client) callOnce(ctx context.Context, method, key string, payload, out any) error {
	if err := c.limiter.Wait(ctx, key); err != nil {
		return fmt.Errorf("%w: %s: %w", bale.ErrRateLimited, method, err)
	}

	raw, err := c.breaker.Execute(func() (json.RawMessage, error) {
		return c.do(ctx, method, payload)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%w: %s: %w", bale.ErrCircuitOpen, method, err)
		}
		return err
	}
	return httpclient.Decode(method, raw, out)
}

// do sends payload as JSON, or as multipart/form-data when it carries uploads.
func (c *Client) do(ctx context.Context, method string, payload any) (json.RawMessage, error) {
	if payload == nil {
		return c.caller.Do(ctx, method, "application/json", bytes.NewReader([]byte("{}")))
	}

	mp, err := BuildMultipartRequest(payload)
	if err != nil {
		return nil, fmt.Errorf("balego: %s: build request: %w", method, err)
	}

	if !mp.HasUploads() {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("balego: %s: marshal request: %w", method, err)
		}
		return c.caller.Do(ctx, method, "application/json", bytes.NewReader(data))
	}

	// Stream the upload through a pipe so files are never buffered whole.
	pr, pw := io.Pipe()
	encoder := NewMultipartEncoder(pw)
	go func() {
		if err := encoder.Encode(mp); err != nil {
			pw.CloseWithError(fmt.Errorf("encode multipart request: %w", err))
			return
		}
		pw.CloseWithError(encoder.Close())
	}()
	defer pr.Close()

	return c.caller.Do(ctx, method, encoder.ContentType(), pr)
}

func (c *Client) backoff(attempt int, err error) time.Duration {
	var apiErr *bale.APIError
	if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
		return apiErr.RetryAfter
	}
	return resilience.Backoff(resilience.BackoffConfig{
		BaseWait:   c.config.RetryBaseWait,
		MaxWait:    c.config.RetryMaxWait,
		Multiplier: c.config.RetryFactor,
		Jitter:     c.config.RetryJitter,
	}, attempt)
}

func isRetryable(err error) bool {
	switch {
	case errors.Is(err, bale.ErrCircuitOpen), errors.Is(err, bale.ErrRateLimited):
		return false
	case errors.Is(err, bale.ErrTimeout), errors.Is(err, bale.ErrNetwork):
		return true
	}

	var apiErr *bale.APIError
	if errors.As(err, &apiErr) {
		return apiErr.IsRetryable()
	}
	return false
}

func chatKey(chatID bale.ChatID) string {
	switch v := chatID.(type) {
	case nil:
		return ""
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
