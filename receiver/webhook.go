package receiver

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/python-bale-bot/balego/bale"
	"github.com/python-bale-bot/balego/internal/resilience"
)

// SecretTokenHeader carries the secret set with SetWebhook.
const SecretTokenHeader = "X-Bale-Bot-Api-Secret-Token"

var _ http.Handler = (*WebhookHandler)(nil)

// WebhookHandler implements http.Handler for Bale webhook callbacks.
type WebhookHandler struct {
	logger          *slog.Logger
	webhookSecret   string
	allowedDomain   string
	sink            Sink
	deliveryTimeout time.Duration

	limiter     *rate.Limiter
	breaker     *gobreaker.CircuitBreaker[struct{}]
	maxBodySize int64
	received    atomic.Int64
}

// WebhookOption configures the WebhookHandler.
type WebhookOption func(*WebhookHandler)

// WithWebhookRateLimit sets rate limiting parameters.
func WithWebhookRateLimit(rps float64, burst int) WebhookOption {
	return func(h *WebhookHandler) {
		h.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithWebhookCircuitBreaker sets a custom circuit breaker.
func WithWebhookCircuitBreaker(breaker *gobreaker.CircuitBreaker[struct{}]) WebhookOption {
	return func(h *WebhookHandler) {
		h.breaker = breaker
	}
}

// WithWebhookMaxBodySize sets the maximum request body size.
func WithWebhookMaxBodySize(size int64) WebhookOption {
	return func(h *WebhookHandler) {
		h.maxBodySize = size
	}
}

// NewWebhookHandler creates a webhook handler that puts updates into sink.
func NewWebhookHandler(logger *slog.Logger, sink Sink, cfg Config, opts ...WebhookOption) *WebhookHandler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &WebhookHandler{
		logger:          logger,
		webhookSecret:   cfg.WebhookSecret,
		allowedDomain:   cfg.AllowedDomain,
		sink:            sink,
		deliveryTimeout: cfg.DeliveryTimeout,
		limiter:         rate.NewLimiter(rate.Limit(cfg.RateLimitRequests), cfg.RateLimitBurst),
		maxBodySize:     cfg.MaxBodySize,
	}

	// Only a stuck queue counts as a failure; bad callers must not open the breaker.
	breakerCfg := resilience.DefaultBreakerConfig("balego-webhook")
	breakerCfg.MaxRequests = cfg.BreakerMaxRequests
	breakerCfg.Interval = cfg.BreakerInterval
	breakerCfg.Timeout = cfg.BreakerTimeout
	breakerCfg.IsSuccessful = func(err error) bool {
		return !errors.Is(err, ErrQueueFull)
	}
	breakerCfg.OnStateChange = resilience.LogStateChanges(logger)
	h.breaker = resilience.NewBreaker[struct{}](breakerCfg)

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// Received returns the number of updates accepted so far.
func (h *WebhookHandler) Received() int64 {
	return h.received.Load()
}

// ServeHTTP implements http.Handler.
func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.limiter.Allow() {
		h.fail(w, "rate limit exceeded", http.StatusTooManyRequests, ErrRateLimited)
		return
	}

	_, err := h.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, h.accept(w, r)
	})
	if err != nil {
		switch {
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			h.fail(w, "service unavailable", http.StatusServiceUnavailable, err)
		case errors.Is(err, ErrForbidden):
			h.fail(w, "forbidden", http.StatusForbidden, err)
		case errors.Is(err, ErrUnauthorized):
			h.fail(w, "unauthorized", http.StatusUnauthorized, err)
		case errors.Is(err, ErrMethodNotAllowed):
			h.fail(w, "method not allowed", http.StatusMethodNotAllowed, err)
		case errors.Is(err, ErrQueueFull):
			h.fail(w, "service unavailable", http.StatusServiceUnavailable, err)
		default:
			var webhookErr *WebhookError
			if errors.As(err, &webhookErr) {
				h.fail(w, webhookErr.Message, webhookErr.Code, err)
			} else {
				h.fail(w, "internal error", http.StatusInternalServerError, err)
			}
		}
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *WebhookHandler) accept(w http.ResponseWriter, r *http.Request) error {
	if h.allowedDomain != "" && r.Host != h.allowedDomain {
		return ErrForbidden
	}

	// Constant-time comparison
	if h.webhookSecret != "" {
		secret := r.Header.Get(SecretTokenHeader)
		if subtle.ConstantTimeCompare([]byte(secret), []byte(h.webhookSecret)) != 1 {
			return ErrUnauthorized
		}
	}

	if r.Method != http.MethodPost {
		return ErrMethodNotAllowed
	}

	body := http.MaxBytesReader(w, r.Body, h.maxBodySize)
	defer body.Close()

	var update bale.Update
	if err := json.NewDecoder(body).Decode(&update); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return &WebhookError{Code: http.StatusRequestEntityTooLarge, Message: "body too large", Err: err}
		}
		return &WebhookError{Code: http.StatusBadRequest, Message: "invalid JSON", Err: err}
	}

	ctx := r.Context()
	if h.deliveryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.deliveryTimeout)
		defer cancel()
	}
	if err := h.sink.Put(ctx, &update); err != nil {
		return errors.Join(ErrQueueFull, err)
	}

	h.received.Add(1)
	h.logger.Debug("update forwarded", "update_id", update.UpdateID)
	return nil
}

func (h *WebhookHandler) fail(w http.ResponseWriter, msg string, code int, err error) {
	h.logger.Warn("webhook request rejected", "code", code, "error", err)
	http.Error(w, msg, code)
}

// HealthHandler returns HTTP handlers for health checks.
type HealthHandler struct {
	ready atomic.Bool
	probe atomic.Pointer[func() bool]
}

// NewHealthHandler creates health check handlers.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// SetReady marks the service as ready.
func (h *HealthHandler) SetReady(ready bool) {
	h.ready.Store(ready)
}

// SetProbe adds a check that must pass for readiness, such as
// Poller.IsHealthy.
func (h *HealthHandler) SetProbe(fn func() bool) {
	h.probe.Store(&fn)
}

// Ready reports whether the service is ready.
func (h *HealthHandler) Ready() bool {
	if !h.ready.Load() {
		return false
	}
	if fn := h.probe.Load(); fn != nil && *fn != nil {
		return (*fn)()
	}
	return true
}

// LivenessHandler returns the liveness probe handler.
func (h *HealthHandler) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}
}

// ReadinessHandler returns the readiness probe handler.
func (h *HealthHandler) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.Ready() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("Ready"))
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("Not Ready"))
		}
	}
}
