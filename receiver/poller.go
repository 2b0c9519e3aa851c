package receiver

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/python-bale-bot/balego/bale"
	"github.com/python-bale-bot/balego/internal/resilience"
)

// Fetcher fetches pending updates starting at offset.
type Fetcher interface {
	GetUpdates(ctx context.Context, offset int64, limit int) ([]bale.Update, error)
}

// Sink accepts updates for processing.
type Sink interface {
	Put(ctx context.Context, u *bale.Update) error
}

// ErrorAction tells the poller what to do after an API error.
type ErrorAction int

const (
	// Continue waits APIErrorBackoff and fetches again.
	Continue ErrorAction = iota
	// Stop ends polling and surfaces the error through Wait and Err.
	Stop
)

// ErrorPolicy decides how the poller reacts to an API error.
type ErrorPolicy func(err *bale.APIError) ErrorAction

// ContinueOnError is the default ErrorPolicy.
func ContinueOnError(*bale.APIError) ErrorAction { return Continue }

// State is the lifecycle state of a Poller.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateStopping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

var errStopped = errors.New("balego/receiver: stopped")

// Poller pulls updates from a Fetcher and puts them into a Sink.
type Poller struct {
	fetcher Fetcher
	sink    Sink
	logger  *slog.Logger
	sleeper resilience.Sleeper

	// Configuration
	limit           int
	interval        time.Duration
	apiErrorBackoff time.Duration
	maxErrors       int
	backoff         resilience.BackoffConfig
	policy          ErrorPolicy
	onError         func(error)

	// State
	state             atomic.Int32
	consecutiveErrors atomic.Int32
	mu                sync.Mutex // Protects the fields below
	lastSeen          int64
	seen              bool
	stopCh            chan struct{}
	done              chan struct{}
	err               error
}

// PollerOption configures the Poller.
type PollerOption func(*Poller)

// WithPollerLogger sets a custom logger.
func WithPollerLogger(logger *slog.Logger) PollerOption {
	return func(p *Poller) {
		p.logger = logger
	}
}

// WithPollerSleeper sets the sleeper used between fetches (useful for testing).
func WithPollerSleeper(s resilience.Sleeper) PollerOption {
	return func(p *Poller) {
		p.sleeper = s
	}
}

// WithErrorPolicy sets the reaction to API errors.
func WithErrorPolicy(policy ErrorPolicy) PollerOption {
	return func(p *Poller) {
		if policy != nil {
			p.policy = policy
		}
	}
}

// WithFetchErrorHook sets a function called with every failed fetch.
func WithFetchErrorHook(fn func(error)) PollerOption {
	return func(p *Poller) {
		p.onError = fn
	}
}

// NewPoller creates a poller. Nothing is fetched until Start.
func NewPoller(fetcher Fetcher, sink Sink, cfg Config, opts ...PollerOption) *Poller {
	p := &Poller{
		fetcher:         fetcher,
		sink:            sink,
		logger:          slog.Default(),
		sleeper:         resilience.RealSleeper{},
		limit:           cfg.Limit,
		interval:        cfg.Interval,
		apiErrorBackoff: cfg.APIErrorBackoff,
		maxErrors:       cfg.MaxErrors,
		backoff: resilience.BackoffConfig{
			BaseWait:   cfg.RetryInitialDelay,
			MaxWait:    cfg.RetryMaxDelay,
			Multiplier: cfg.RetryBackoffFactor,
			Jitter:     0.25,
		},
		policy: ContinueOnError,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Start begins polling in the background. A stopped poller may be
// started again; it resumes after the last update it delivered.
func (p *Poller) Start(ctx context.Context) error {
	for {
		s := State(p.state.Load())
		if s == StateRunning || s == StateStopping {
			return ErrAlreadyRunning
		}
		if p.state.CompareAndSwap(int32(s), int32(StateRunning)) {
			break
		}
	}

	p.mu.Lock()
	stopCh := make(chan struct{})
	done := make(chan struct{})
	p.stopCh, p.done, p.err = stopCh, done, nil
	offset := p.offsetLocked()
	p.mu.Unlock()

	go p.loop(ctx, stopCh, done)

	p.logger.Info("polling started", "offset", offset, "limit", p.limit)
	return nil
}

// Stop signals the loop to end and waits for it, or for ctx.
// An in-flight fetch is cancelled and its result discarded.
func (p *Poller) Stop(ctx context.Context) error {
	if !p.state.CompareAndSwap(int32(StateRunning), int32(StateStopping)) {
		return ErrNotRunning
	}

	p.mu.Lock()
	close(p.stopCh)
	done := p.done
	p.mu.Unlock()

	select {
	case <-done:
		p.logger.Info("polling stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Wait blocks until the polling loop ends and returns its fatal error,
// if any. It returns immediately when the poller was never started.
func (p *Poller) Wait(ctx context.Context) error {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()
	if done == nil {
		return nil
	}

	select {
	case <-done:
		return p.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err returns the error that ended the last run, or nil.
func (p *Poller) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// State returns the lifecycle state.
func (p *Poller) State() State {
	return State(p.state.Load())
}

// Running returns true if polling is active.
func (p *Poller) Running() bool {
	return p.State() == StateRunning
}

// IsHealthy returns health status for readiness probes.
func (p *Poller) IsHealthy() bool {
	if p.maxErrors == 0 {
		return p.Running()
	}
	return p.Running() && int(p.consecutiveErrors.Load()) < p.maxErrors
}

// ConsecutiveErrors returns the current error count.
func (p *Poller) ConsecutiveErrors() int32 {
	return p.consecutiveErrors.Load()
}

// LastSeen returns the highest update_id delivered so far.
func (p *Poller) LastSeen() (int64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastSeen, p.seen
}

// Offset returns the offset of the next fetch: last seen + 1, or 0.
func (p *Poller) Offset() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.offsetLocked()
}

func (p *Poller) offsetLocked() int64 {
	if !p.seen {
		return 0
	}
	return p.lastSeen + 1
}

func (p *Poller) loop(parent context.Context, stopCh <-chan struct{}, done chan<- struct{}) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	go func() {
		select {
		case <-stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	var fatal error
	defer func() {
		p.mu.Lock()
		p.err = fatal
		p.mu.Unlock()
		p.state.Store(int32(StateStopped))
		close(done)
	}()

	for {
		updates, err := p.fetch(ctx, stopCh)
		if errors.Is(err, errStopped) || (err != nil && parent.Err() != nil) {
			return
		}
		if err != nil {
			wait, stop := p.handleError(err)
			if stop {
				fatal = err
				p.logger.Error("polling stopped on fatal error", "error", err)
				return
			}
			if wait > 0 {
				if err := p.sleeper.Sleep(ctx, wait); err != nil {
					return
				}
			}
			continue
		}

		p.consecutiveErrors.Store(0)
		if err := p.deliver(ctx, updates); err != nil {
			if ctx.Err() == nil {
				fatal = err
				p.logger.Error("polling stopped: sink rejected update", "error", err)
			}
			return
		}

		if p.interval > 0 {
			if err := p.sleeper.Sleep(ctx, p.interval); err != nil {
				return
			}
		}
	}
}

type fetchResult struct {
	updates []bale.Update
	err     error
}

// fetch runs one GetUpdates call raced against stop. Stop wins ties.
func (p *Poller) fetch(ctx context.Context, stopCh <-chan struct{}) ([]bale.Update, error) {
	offset := p.Offset()
	results := make(chan fetchResult, 1)
	go func() {
		updates, err := p.fetcher.GetUpdates(ctx, offset, p.limit)
		results <- fetchResult{updates: updates, err: err}
	}()

	select {
	case <-stopCh:
		return nil, errStopped
	case r := <-results:
		select {
		case <-stopCh:
			return nil, errStopped
		default:
		}
		return r.updates, r.err
	}
}

// handleError reports how long to wait before the next fetch and
// whether polling must stop.
func (p *Poller) handleError(err error) (time.Duration, bool) {
	if p.onError != nil {
		p.onError(err)
	}

	if errors.Is(err, bale.ErrUnauthorized) {
		return 0, true
	}

	n := p.consecutiveErrors.Add(1)

	if errors.Is(err, bale.ErrTimeout) {
		p.logger.Debug("getUpdates timed out, retrying", "error", err)
		return 0, false
	}

	var apiErr *bale.APIError
	if errors.As(err, &apiErr) {
		if p.policy(apiErr) == Stop {
			return 0, true
		}
		wait := max(p.apiErrorBackoff, apiErr.RetryAfter)
		p.logger.Warn("getUpdates failed",
			"error", err,
			"code", apiErr.Code,
			"retry_delay", wait,
		)
		return wait, false
	}

	wait := resilience.Backoff(p.backoff, int(n))
	p.logger.Error("fetch updates failed",
		"error", err,
		"consecutive_errors", n,
		"retry_delay", wait,
	)
	return wait, false
}

// deliver puts new updates into the sink in ascending order and
// advances the last seen id.
func (p *Poller) deliver(ctx context.Context, updates []bale.Update) error {
	p.mu.Lock()
	lastSeen, seen := p.lastSeen, p.seen
	p.mu.Unlock()

	fresh := make([]*bale.Update, 0, len(updates))
	batchMax, have := lastSeen, seen
	for i := range updates {
		u := &updates[i]
		if !have || u.UpdateID > batchMax {
			batchMax, have = u.UpdateID, true
		}
		if seen && u.UpdateID <= lastSeen {
			p.logger.Debug("skipping duplicate update", "update_id", u.UpdateID)
			continue
		}
		fresh = append(fresh, u)
	}
	slices.SortFunc(fresh, func(a, b *bale.Update) int {
		return cmp.Compare(a.UpdateID, b.UpdateID)
	})
	fresh = slices.CompactFunc(fresh, func(a, b *bale.Update) bool {
		return a.UpdateID == b.UpdateID
	})

	for _, u := range fresh {
		if err := p.sink.Put(ctx, u); err != nil {
			return err
		}
		p.advance(u.UpdateID)
		p.logger.Debug("update queued", "update_id", u.UpdateID)
	}

	if len(updates) > 0 {
		p.advance(batchMax)
	}
	return nil
}

func (p *Poller) advance(id int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.seen || id > p.lastSeen {
		p.lastSeen = id
		p.seen = true
	}
}
