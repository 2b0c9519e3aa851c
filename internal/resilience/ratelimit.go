package resilience

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter combines a global limiter with lazily created per-key
// limiters. Idle per-key limiters are evicted by Cleanup.
type RateLimiter struct {
	global   *rate.Limiter
	mu       sync.Mutex
	perKey   map[string]*keyLimiter
	keyRPS   float64
	keyBurst int
}

type keyLimiter struct {
	limiter  *rate.Limiter
	lastUsed time.Time
}

// RateLimiterConfig holds rate limiter configuration.
type RateLimiterConfig struct {
	GlobalRPS   float64 // Global requests per second
	GlobalBurst int     // Global burst size
	KeyRPS      float64 // Per-key requests per second
	KeyBurst    int     // Per-key burst size
}

// DefaultRateLimiterConfig returns defaults suited to the Bale Bot API.
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		GlobalRPS:   30,
		GlobalBurst: 10,
		KeyRPS:      1,
		KeyBurst:    3,
	}
}

// NewRateLimiter creates a new rate limiter.
func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	return &RateLimiter{
		global:   rate.NewLimiter(rate.Limit(cfg.GlobalRPS), cfg.GlobalBurst),
		perKey:   make(map[string]*keyLimiter),
		keyRPS:   cfg.KeyRPS,
		keyBurst: cfg.KeyBurst,
	}
}

// Wait blocks until both the global and the key limit allow a request.
// An empty key only waits for the global limit.
func (r *RateLimiter) Wait(ctx context.Context, key string) error {
	if err := r.global.Wait(ctx); err != nil {
		return err
	}
	if key == "" {
		return nil
	}
	return r.limiterFor(key).Wait(ctx)
}

// Allow reports whether a request may proceed now without blocking.
func (r *RateLimiter) Allow(key string) bool {
	if !r.global.Allow() {
		return false
	}
	if key == "" {
		return true
	}
	return r.limiterFor(key).Allow()
}

// SetGlobalLimit updates the global rate limit.
func (r *RateLimiter) SetGlobalLimit(rps float64, burst int) {
	r.global.SetLimit(rate.Limit(rps))
	r.global.SetBurst(burst)
}

// SetKeyLimit updates the limit used for keys seen from now on.
func (r *RateLimiter) SetKeyLimit(rps float64, burst int) {
	r.mu.Lock()
	r.keyRPS = rps
	r.keyBurst = burst
	r.mu.Unlock()
}

// Keys returns the number of tracked per-key limiters.
func (r *RateLimiter) Keys() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.perKey)
}

// Cleanup drops per-key limiters unused for longer than idle and returns
// how many were removed.
func (r *RateLimiter) Cleanup(idle time.Duration) int {
	cutoff := time.Now().Add(-idle)
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for key, kl := range r.perKey {
		if kl.lastUsed.Before(cutoff) {
			delete(r.perKey, key)
			removed++
		}
	}
	return removed
}

func (r *RateLimiter) limiterFor(key string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()
	kl, ok := r.perKey[key]
	if !ok {
		kl = &keyLimiter{limiter: rate.NewLimiter(rate.Limit(r.keyRPS), r.keyBurst)}
		r.perKey[key] = kl
	}
	kl.lastUsed = time.Now()
	return kl.limiter
}
