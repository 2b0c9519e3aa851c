package dispatch

import (
	"context"
	"log/slog"

	"github.com/python-bale-bot/balego/bale"
	"github.com/python-bale-bot/balego/handler"
	"github.com/python-bale-bot/balego/internal/syncutil"
)

// Option configures a Registry or Dispatcher.
type Option func(*options)

type options struct {
	logger    *slog.Logger
	errorHook handler.ErrorFunc
	observer  func(context.Context, *bale.Update)
	tasks     *syncutil.TaskSet
}

func buildOptions(opts []Option) options {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.tasks == nil {
		o.tasks = syncutil.NewTaskSet()
	}
	return o
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithErrorHook sets the process-wide hook for handler errors that have no
// handler-specific error callback.
func WithErrorHook(fn handler.ErrorFunc) Option {
	return func(o *options) {
		o.errorHook = fn
	}
}

// WithObserver registers fn to see every update before it is dispatched.
// fn runs on the dispatch loop and must not block.
func WithObserver(fn func(context.Context, *bale.Update)) Option {
	return func(o *options) {
		o.observer = fn
	}
}

// WithTaskSet shares a TaskSet for handler tasks.
func WithTaskSet(tasks *syncutil.TaskSet) Option {
	return func(o *options) {
		o.tasks = tasks
	}
}
