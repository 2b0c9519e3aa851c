package resilience_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/python-bale-bot/balego/bale"
	"github.com/python-bale-bot/balego/internal/resilience"
)

// ==================== Backoff ====================

func TestBackoff_GrowsAndCaps(t *testing.T) {
	cfg := resilience.BackoffConfig{
		BaseWait:   100 * time.Millisecond,
		MaxWait:    time.Second,
		Multiplier: 2,
	}

	assert.Equal(t, 100*time.Millisecond, resilience.Backoff(cfg, 0))
	assert.Equal(t, 100*time.Millisecond, resilience.Backoff(cfg, 1))
	assert.Equal(t, 200*time.Millisecond, resilience.Backoff(cfg, 2))
	assert.Equal(t, 400*time.Millisecond, resilience.Backoff(cfg, 3))
	assert.Equal(t, time.Second, resilience.Backoff(cfg, 10))
	assert.Equal(t, time.Second, resilience.Backoff(cfg, 1000))
}

func TestBackoff_JitterOnlyLengthens(t *testing.T) {
	cfg := resilience.BackoffConfig{
		BaseWait:   100 * time.Millisecond,
		MaxWait:    time.Second,
		Multiplier: 2,
		Jitter:     0.5,
	}

	for range 50 {
		d := resilience.Backoff(cfg, 1)
		assert.GreaterOrEqual(t, d, 100*time.Millisecond)
		assert.Less(t, d, 150*time.Millisecond)
	}
}

func TestRealSleeper_HonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := resilience.RealSleeper{}.Sleep(ctx, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoError(t, resilience.RealSleeper{}.Sleep(context.Background(), 0))
}

// ==================== Breaker ====================

func TestBreaker_TripsOnConsecutiveFailures(t *testing.T) {
	cfg := resilience.DefaultBreakerConfig("test")
	cfg.Threshold = 2
	cb := resilience.NewBreaker[int](cfg)

	boom := errors.New("boom")
	for range 2 {
		_, err := cb.Execute(func() (int, error) { return 0, boom })
		assert.ErrorIs(t, err, boom)
	}

	assert.True(t, resilience.IsOpen(cb))
	_, err := cb.Execute(func() (int, error) { return 1, nil })
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}

func TestBreaker_IsSuccessfulExcludesErrors(t *testing.T) {
	ignored := errors.New("client error")
	cfg := resilience.DefaultBreakerConfig("test")
	cfg.Threshold = 1
	cfg.IsSuccessful = func(err error) bool { return err == nil || errors.Is(err, ignored) }
	cb := resilience.NewBreaker[int](cfg)

	for range 5 {
		_, _ = cb.Execute(func() (int, error) { return 0, ignored })
	}
	assert.False(t, resilience.IsOpen(cb))
}

func TestBreaker_StateChangeCallback(t *testing.T) {
	var transitions []string
	cfg := resilience.DefaultBreakerConfig("test")
	cfg.Threshold = 1
	cfg.OnStateChange = func(_ string, from, to string) {
		transitions = append(transitions, from+"->"+to)
	}
	cb := resilience.NewBreaker[int](cfg)

	_, _ = cb.Execute(func() (int, error) { return 0, errors.New("x") })
	require.Len(t, transitions, 1)
	assert.Equal(t, "closed->open", transitions[0])
}

func TestServerFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", fmt.Errorf("getMe: %w", context.Canceled), false},
		{"bad request", bale.NewAPIError("sendMessage", 400, "Bad Request: chat not found"), false},
		{"forbidden", bale.NewAPIError("sendMessage", 403, "Forbidden: bot was blocked"), false},
		{"server error", bale.NewAPIError("sendMessage", 502, "Bad Gateway"), true},
		{"transport", fmt.Errorf("%w: connection reset", bale.ErrNetwork), true},
		{"deadline", context.DeadlineExceeded, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resilience.ServerFailure(tt.err))
		})
	}
}

func TestLogStateChanges(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	resilience.LogStateChanges(logger)("balego-test", "closed", "open")

	assert.Contains(t, buf.String(), "circuit breaker state changed")
	assert.Contains(t, buf.String(), "name=balego-test")
	assert.Contains(t, buf.String(), "to=open")
}

// ==================== RateLimiter ====================

func TestRateLimiter_PerKeyBurst(t *testing.T) {
	rl := resilience.NewRateLimiter(resilience.RateLimiterConfig{
		GlobalRPS: 1000, GlobalBurst: 1000,
		KeyRPS: 0.001, KeyBurst: 2,
	})

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"), "burst exhausted for key a")
	assert.True(t, rl.Allow("b"), "other keys are independent")
	assert.True(t, rl.Allow(""), "empty key only checks the global limit")
	assert.Equal(t, 2, rl.Keys())
}

func TestRateLimiter_WaitHonorsContext(t *testing.T) {
	rl := resilience.NewRateLimiter(resilience.RateLimiterConfig{
		GlobalRPS: 1000, GlobalBurst: 1000,
		KeyRPS: 0.001, KeyBurst: 1,
	})
	require.NoError(t, rl.Wait(context.Background(), "k"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, rl.Wait(ctx, "k"))
}

func TestRateLimiter_Cleanup(t *testing.T) {
	rl := resilience.NewRateLimiter(resilience.DefaultRateLimiterConfig())
	rl.Allow("a")
	rl.Allow("b")

	assert.Equal(t, 0, rl.Cleanup(time.Hour))
	assert.Equal(t, 2, rl.Keys())

	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, 2, rl.Cleanup(time.Millisecond))
	assert.Equal(t, 0, rl.Keys())
}
