package dispatch

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/python-bale-bot/balego/bale"
	"github.com/python-bale-bot/balego/check"
)

// Case is one keyed alternative of a WaitFor call.
type Case struct {
	Key   string
	Check check.Check
}

// Match is the outcome of a WaitFor call.
type Match struct {
	Key    string
	Update *bale.Update
}

type waiterState int32

const (
	waiterPending waiterState = iota
	waiterResolved
	waiterCancelled
)

type waiter struct {
	id     uuid.UUID
	cases  []Case
	state  atomic.Int32
	result chan Match
}

func (w *waiter) pending() bool {
	return waiterState(w.state.Load()) == waiterPending
}

// resolve publishes m if the waiter is still pending. A second resolution
// is a no-op.
func (w *waiter) resolve(m Match) bool {
	if !w.state.CompareAndSwap(int32(waiterPending), int32(waiterResolved)) {
		return false
	}
	w.result <- m
	return true
}

func (w *waiter) cancel() bool {
	return w.state.CompareAndSwap(int32(waiterPending), int32(waiterCancelled))
}

// Waiters holds pending WaitFor requests in registration order.
type Waiters struct {
	mu      sync.Mutex
	waiters []*waiter
	logger  *slog.Logger
}

// NewWaiters creates an empty registry.
func NewWaiters(logger *slog.Logger) *Waiters {
	if logger == nil {
		logger = slog.Default()
	}
	return &Waiters{logger: logger}
}

// WaitFor blocks until an update satisfies one of cases, timeout elapses
// (ErrWaitTimeout) or ctx is done (ctx.Err()). When several cases match
// the same update, the earliest in cases wins. timeout <= 0 waits for ctx
// alone.
func (ws *Waiters) WaitFor(ctx context.Context, timeout time.Duration, cases ...Case) (Match, error) {
	if len(cases) == 0 {
		return Match{}, ErrNoCases
	}

	w := &waiter{
		id:     uuid.New(),
		cases:  slices.Clone(cases),
		result: make(chan Match, 1),
	}
	ws.add(w)
	defer ws.remove(w)

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case m := <-w.result:
		return m, nil
	case <-expired:
		if w.cancel() {
			ws.logger.Debug("wait timed out", "waiter_id", w.id, "timeout", timeout)
			return Match{}, ErrWaitTimeout
		}
	case <-ctx.Done():
		if w.cancel() {
			return Match{}, ctx.Err()
		}
	}
	// Resolved concurrently with the timeout; the result is already on its way.
	return <-w.result, nil
}

func (ws *Waiters) add(w *waiter) {
	ws.mu.Lock()
	ws.waiters = append(ws.waiters, w)
	ws.mu.Unlock()
}

func (ws *Waiters) remove(w *waiter) {
	ws.mu.Lock()
	ws.waiters = slices.DeleteFunc(ws.waiters, func(x *waiter) bool { return x == w })
	ws.mu.Unlock()
}

// pendingSnapshot drops finished waiters and returns the pending ones.
func (ws *Waiters) pendingSnapshot() []*waiter {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.waiters = slices.DeleteFunc(ws.waiters, func(w *waiter) bool { return !w.pending() })
	return slices.Clone(ws.waiters)
}

// Evaluate checks u against every pending waiter concurrently and returns
// how many were resolved.
func (ws *Waiters) Evaluate(ctx context.Context, u *bale.Update) int {
	pending := ws.pendingSnapshot()
	if len(pending) == 0 {
		return 0
	}

	var resolved atomic.Int32
	var g errgroup.Group
	for _, w := range pending {
		g.Go(func() error {
			for _, c := range w.cases {
				if !w.pending() {
					return nil
				}
				if !c.Check.Evaluate(ctx, u) {
					continue
				}
				if w.resolve(Match{Key: c.Key, Update: u}) {
					resolved.Add(1)
					ws.remove(w)
					ws.logger.Debug("waiter resolved", "waiter_id", w.id, "key", c.Key, "update_id", u.UpdateID)
				}
				return nil
			}
			return nil
		})
	}
	_ = g.Wait()
	return int(resolved.Load())
}

// Len returns the number of registered waiters.
func (ws *Waiters) Len() int {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return len(ws.waiters)
}
