package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/python-bale-bot/balego/internal/resilience"
	"github.com/python-bale-bot/balego/sender"
)

// BreakerNeverTrip returns a breaker configuration that never opens.
func BreakerNeverTrip() resilience.BreakerConfig {
	return resilience.BreakerConfig{
		Name:        "test-never-trip",
		MaxRequests: 100,
		Timeout:     time.Hour,
	}
}

// BreakerAggressiveTrip returns a breaker that opens after 2 consecutive failures.
func BreakerAggressiveTrip() resilience.BreakerConfig {
	return resilience.BreakerConfig{
		Name:        "test-aggressive",
		MaxRequests: 1,
		Timeout:     2 * time.Second, // Long enough to stay open during test assertions
		Threshold:   2,
	}
}

// NewTestClient creates a sender client without retries or rate pressure.
func NewTestClient(t *testing.T, baseURL string, opts ...sender.Option) *sender.Client {
	t.Helper()

	defaultOpts := []sender.Option{
		sender.WithBaseURL(baseURL),
		sender.WithRetries(0),
		sender.WithRateLimit(1000, 1000),
		sender.WithPerChatRateLimit(1000, 1000),
	}
	return newClient(t, append(defaultOpts, opts...))
}

// NewRetryTestClient creates a client for testing retry behavior.
// The circuit breaker never trips.
func NewRetryTestClient(t *testing.T, baseURL string, sleeper *FakeSleeper, opts ...sender.Option) *sender.Client {
	t.Helper()

	defaultOpts := []sender.Option{
		sender.WithBaseURL(baseURL),
		sender.WithBreakerConfig(BreakerNeverTrip()),
		sender.WithRateLimit(1000, 1000),
		sender.WithPerChatRateLimit(1000, 1000),
	}
	if sleeper != nil {
		defaultOpts = append(defaultOpts, sender.WithSleeper(sleeper))
	}
	return newClient(t, append(defaultOpts, opts...))
}

// NewBreakerTestClient creates a client whose breaker trips quickly.
func NewBreakerTestClient(t *testing.T, baseURL string, opts ...sender.Option) *sender.Client {
	t.Helper()

	defaultOpts := []sender.Option{
		sender.WithBaseURL(baseURL),
		sender.WithBreakerConfig(BreakerAggressiveTrip()),
		sender.WithRetries(0),
		sender.WithRateLimit(1000, 1000),
		sender.WithPerChatRateLimit(1000, 1000),
	}
	return newClient(t, append(defaultOpts, opts...))
}

func newClient(t *testing.T, opts []sender.Option) *sender.Client {
	t.Helper()
	client, err := sender.New(TestToken, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}
