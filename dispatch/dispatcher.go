package dispatch

import (
	"context"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/python-bale-bot/balego/bale"
	"github.com/python-bale-bot/balego/internal/syncutil"
)

// Dispatcher drains a Queue and hands every update to the waiters and the
// handlers.
type Dispatcher struct {
	queue    *Queue
	registry *Registry
	waiters  *Waiters
	tasks    *syncutil.TaskSet
	observer func(context.Context, *bale.Update)
	logger   *slog.Logger

	processed atomic.Int64
}

// New creates a Dispatcher reading from q.
func New(q *Queue, opts ...Option) *Dispatcher {
	o := buildOptions(opts)
	return &Dispatcher{
		queue: q,
		registry: &Registry{
			tasks:     o.tasks,
			errorHook: o.errorHook,
			logger:    o.logger,
		},
		waiters:  NewWaiters(o.logger),
		tasks:    o.tasks,
		observer: o.observer,
		logger:   o.logger,
	}
}

// Registry returns the handler registry.
func (d *Dispatcher) Registry() *Registry { return d.registry }

// Waiters returns the waiter registry.
func (d *Dispatcher) Waiters() *Waiters { return d.waiters }

// Queue returns the queue the dispatcher reads from.
func (d *Dispatcher) Queue() *Queue { return d.queue }

// Processed returns how many updates have been dispatched.
func (d *Dispatcher) Processed() int64 { return d.processed.Load() }

// Run processes queue items until the sentinel arrives or ctx is done.
// On the sentinel every remaining item is dropped and acknowledged, then
// the sentinel itself, so a concurrent Join returns.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.logger.Debug("dispatcher started")
	for {
		item, err := d.queue.Get(ctx)
		if err != nil {
			return err
		}

		if item.Stop {
			if n := d.queue.DrainAcknowledge(); n > 0 {
				d.logger.Info("dropped queued updates on shutdown", "count", n)
			}
			if err := d.queue.TaskDone(); err != nil {
				d.logger.Error("acknowledge sentinel", "error", err)
			}
			d.logger.Debug("dispatcher stopped")
			return nil
		}

		d.Process(ctx, item.Update)
		if err := d.queue.TaskDone(); err != nil {
			d.logger.Error("acknowledge update", "update_id", item.Update.UpdateID, "error", err)
		}
	}
}

// Process evaluates waiters and handlers for u concurrently. It returns
// once every handler has been matched and started; handler bodies keep
// running in the background.
func (d *Dispatcher) Process(ctx context.Context, u *bale.Update) (resolved, scheduled int) {
	if u == nil {
		return 0, 0
	}
	d.processed.Add(1)
	if d.observer != nil {
		d.observer(ctx, u)
	}

	var g errgroup.Group
	g.Go(func() error {
		resolved = d.waiters.Evaluate(ctx, u)
		return nil
	})
	g.Go(func() error {
		scheduled = d.registry.Dispatch(ctx, u)
		return nil
	})
	_ = g.Wait()

	d.logger.Debug("update dispatched",
		"update_id", u.UpdateID,
		"kind", u.Kind().String(),
		"waiters_resolved", resolved,
		"handlers_scheduled", scheduled,
	)
	return resolved, scheduled
}

// Wait blocks until every handler task has returned or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	return d.tasks.Wait(ctx)
}

// Running returns the number of handler tasks still running.
func (d *Dispatcher) Running() int { return d.tasks.Len() }
