package dispatch_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/python-bale-bot/balego/bale"
	"github.com/python-bale-bot/balego/check"
	"github.com/python-bale-bot/balego/dispatch"
	"github.com/python-bale-bot/balego/handler"
	"github.com/python-bale-bot/balego/internal/syncutil"
)

type hookRecorder struct {
	mu   sync.Mutex
	errs []error
}

func (h *hookRecorder) hook(_ context.Context, _ *bale.Update, err error) {
	h.mu.Lock()
	h.errs = append(h.errs, err)
	h.mu.Unlock()
}

func (h *hookRecorder) all() []error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]error(nil), h.errs...)
}

func waitTasks(t *testing.T, tasks *syncutil.TaskSet) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, tasks.Wait(ctx))
}

// ==================== Scheduling ====================

func TestRegistry_OnlyApplicableHandlersScheduled(t *testing.T) {
	tasks := syncutil.NewTaskSet()
	r := dispatch.NewRegistry(dispatch.WithTaskSet(tasks), dispatch.WithLogger(testLogger()))

	var h1, h2 atomic.Int32
	r.Handle(check.Any(), func(context.Context, *bale.Update) error { h1.Add(1); return nil }, nil)
	r.Handle(check.None(), func(context.Context, *bale.Update) error { h2.Add(1); return nil }, nil)

	scheduled := r.Dispatch(context.Background(), textUpdate(1, "x"))
	waitTasks(t, tasks)

	assert.Equal(t, 1, scheduled)
	assert.Equal(t, int32(1), h1.Load())
	assert.Equal(t, int32(0), h2.Load())
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_DispatchDoesNotWaitForBodies(t *testing.T) {
	tasks := syncutil.NewTaskSet()
	r := dispatch.NewRegistry(dispatch.WithTaskSet(tasks), dispatch.WithLogger(testLogger()))

	release := make(chan struct{})
	r.Handle(check.Any(), func(context.Context, *bale.Update) error { <-release; return nil }, nil)

	returned := make(chan int, 1)
	go func() { returned <- r.Dispatch(context.Background(), textUpdate(1, "x")) }()

	select {
	case n := <-returned:
		assert.Equal(t, 1, n)
	case <-time.After(time.Second):
		t.Fatal("Dispatch blocked on a handler body")
	}
	assert.Equal(t, 1, tasks.Len())

	close(release)
	waitTasks(t, tasks)
}

// ==================== Error isolation ====================

func TestRegistry_FailingHandlerDoesNotStopOthers(t *testing.T) {
	tasks := syncutil.NewTaskSet()
	rec := &hookRecorder{}
	r := dispatch.NewRegistry(
		dispatch.WithTaskSet(tasks),
		dispatch.WithErrorHook(rec.hook),
		dispatch.WithLogger(testLogger()),
	)

	boom := errors.New("boom")
	var ran atomic.Bool
	r.Handle(check.Any(), func(context.Context, *bale.Update) error { return boom }, nil)
	r.Handle(check.Any(), func(context.Context, *bale.Update) error { ran.Store(true); return nil }, nil)

	assert.NotPanics(t, func() {
		assert.Equal(t, 2, r.Dispatch(context.Background(), textUpdate(1, "x")))
	})
	waitTasks(t, tasks)

	assert.True(t, ran.Load())
	errs := rec.all()
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], boom)
}

func TestRegistry_HandlerOnErrorTakesPrecedence(t *testing.T) {
	tasks := syncutil.NewTaskSet()
	global := &hookRecorder{}
	local := &hookRecorder{}
	r := dispatch.NewRegistry(dispatch.WithTaskSet(tasks), dispatch.WithErrorHook(global.hook))

	r.Handle(check.Any(), func(context.Context, *bale.Update) error { return errors.New("local") }, local.hook)
	r.Dispatch(context.Background(), textUpdate(1, "x"))
	waitTasks(t, tasks)

	assert.Len(t, local.all(), 1)
	assert.Empty(t, global.all())
}

func TestRegistry_PanicIsRecoveredAndReported(t *testing.T) {
	tasks := syncutil.NewTaskSet()
	rec := &hookRecorder{}
	r := dispatch.NewRegistry(dispatch.WithTaskSet(tasks), dispatch.WithErrorHook(rec.hook))

	r.Handle(check.Any(), func(context.Context, *bale.Update) error { panic("kaboom") }, nil)
	r.Dispatch(context.Background(), textUpdate(1, "x"))
	waitTasks(t, tasks)

	errs := rec.all()
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], dispatch.ErrHandlerPanic)
	assert.Contains(t, errs[0].Error(), "kaboom")
}

func TestRegistry_CancellationIsNotAnError(t *testing.T) {
	tasks := syncutil.NewTaskSet()
	rec := &hookRecorder{}
	r := dispatch.NewRegistry(dispatch.WithTaskSet(tasks), dispatch.WithErrorHook(rec.hook))

	r.Handle(check.Any(), func(context.Context, *bale.Update) error { return context.Canceled }, nil)
	r.Dispatch(context.Background(), textUpdate(1, "x"))
	waitTasks(t, tasks)

	assert.Empty(t, rec.all())
}

func TestRegistry_RegisterHandlerKinds(t *testing.T) {
	tasks := syncutil.NewTaskSet()
	r := dispatch.NewRegistry(dispatch.WithTaskSet(tasks))

	var args []string
	cmd, err := handler.Command(func(_ context.Context, _ *bale.Message, a []string) error {
		args = a
		return nil
	}, "echo")
	require.NoError(t, err)
	r.Register(cmd, nil)
	r.Register(handler.CallbackQuery(func(context.Context, *bale.CallbackQuery) error { return nil }), nil)

	assert.Equal(t, 1, r.Dispatch(context.Background(), textUpdate(1, "/echo a b")))
	waitTasks(t, tasks)
	assert.Equal(t, []string{"a", "b"}, args)
}
