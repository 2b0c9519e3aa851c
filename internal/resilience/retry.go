package resilience

import (
	"context"
	"crypto/rand"
	"math/big"
	"time"
)

// BackoffConfig describes an exponential backoff with jitter.
type BackoffConfig struct {
	BaseWait   time.Duration // Wait before the first retry
	MaxWait    time.Duration // Upper bound before jitter
	Multiplier float64       // Growth per attempt (2.0 doubles)
	Jitter     float64       // Fraction of the wait added at random (0.0-1.0)
}

// DefaultBackoffConfig returns sensible defaults.
func DefaultBackoffConfig() BackoffConfig {
	return BackoffConfig{
		BaseWait:   500 * time.Millisecond,
		MaxWait:    30 * time.Second,
		Multiplier: 2.0,
		Jitter:     0.25,
	}
}

// Backoff returns the wait before retry number attempt (1-based).
// Jitter uses crypto/rand and only ever lengthens the wait.
func Backoff(cfg BackoffConfig, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	wait := float64(cfg.BaseWait)
	for i := 1; i < attempt && wait < float64(cfg.MaxWait); i++ {
		wait *= cfg.Multiplier
	}
	if cfg.MaxWait > 0 && wait > float64(cfg.MaxWait) {
		wait = float64(cfg.MaxWait)
	}

	if cfg.Jitter > 0 {
		jitterRange := int64(wait * cfg.Jitter)
		if jitterRange > 0 {
			n, err := rand.Int(rand.Reader, big.NewInt(jitterRange))
			if err == nil {
				wait += float64(n.Int64())
			}
		}
	}

	return time.Duration(wait)
}

// Sleeper abstracts time-based waiting for deterministic testing.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// RealSleeper waits on the wall clock.
type RealSleeper struct{}

// Sleep waits for d or until ctx is done.
func (RealSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
