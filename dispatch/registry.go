package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"slices"
	"sync"

	"github.com/python-bale-bot/balego/bale"
	"github.com/python-bale-bot/balego/check"
	"github.com/python-bale-bot/balego/handler"
	"github.com/python-bale-bot/balego/internal/syncutil"
)

type registration struct {
	name    string
	handler handler.Handler
	onError handler.ErrorFunc
}

// Registry is the ordered list of handlers. Registrations are never
// removed.
type Registry struct {
	mu        sync.RWMutex
	entries   []registration
	tasks     *syncutil.TaskSet
	errorHook handler.ErrorFunc
	logger    *slog.Logger
}

// NewRegistry creates an empty Registry.
func NewRegistry(opts ...Option) *Registry {
	o := buildOptions(opts)
	return &Registry{
		tasks:     o.tasks,
		errorHook: o.errorHook,
		logger:    o.logger,
	}
}

// Register appends h. onError, when non-nil, receives h's callback errors
// instead of the process-wide hook.
func (r *Registry) Register(h handler.Handler, onError handler.ErrorFunc) {
	r.mu.Lock()
	r.entries = append(r.entries, registration{
		name:    handlerName(h, len(r.entries)),
		handler: h,
		onError: onError,
	})
	r.mu.Unlock()
}

// Handle registers fn for updates c accepts.
func (r *Registry) Handle(c check.Check, fn handler.UpdateFunc, onError handler.ErrorFunc) {
	r.Register(handler.Func(c, fn), onError)
}

// Len returns the number of registered handlers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Dispatch matches u against every handler in registration order and
// starts each applicable one as a tracked task. It returns the number of
// tasks started and does not wait for them.
func (r *Registry) Dispatch(ctx context.Context, u *bale.Update) int {
	r.mu.RLock()
	entries := slices.Clone(r.entries)
	r.mu.RUnlock()

	scheduled := 0
	for _, e := range entries {
		inv, ok := e.handler.Match(ctx, u)
		if !ok {
			continue
		}
		scheduled++
		r.tasks.Go(e.name, func() {
			r.run(ctx, u, e, inv)
		})
	}
	return scheduled
}

func (r *Registry) run(ctx context.Context, u *bale.Update, e registration, inv handler.Invocation) {
	err := invoke(ctx, inv)
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}
	r.report(ctx, u, e, err)
}

func invoke(ctx context.Context, inv handler.Invocation) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v\n%s", ErrHandlerPanic, p, debug.Stack())
		}
	}()
	return inv(ctx)
}

func (r *Registry) report(ctx context.Context, u *bale.Update, e registration, err error) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("error callback panicked", "handler", e.name, "update_id", u.UpdateID, "panic", p)
		}
	}()

	switch {
	case e.onError != nil:
		e.onError(ctx, u, err)
	case r.errorHook != nil:
		r.errorHook(ctx, u, err)
	default:
		r.logger.Error("handler failed", "handler", e.name, "update_id", u.UpdateID, "error", err)
	}
}

func handlerName(h handler.Handler, idx int) string {
	if s, ok := h.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("handler#%d", idx)
}
