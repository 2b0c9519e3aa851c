package balego_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/python-bale-bot/balego"
	"github.com/python-bale-bot/balego/bale"
	"github.com/python-bale-bot/balego/check"
	"github.com/python-bale-bot/balego/dispatch"
	"github.com/python-bale-bot/balego/internal/testutil"
	"github.com/python-bale-bot/balego/receiver"
	"github.com/python-bale-bot/balego/sender"
	"github.com/python-bale-bot/balego/state"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// feedFetcher hands out batches sent on its channel and blocks otherwise.
type feedFetcher struct {
	batches chan []bale.Update
	err     error
}

func newFeedFetcher() *feedFetcher {
	return &feedFetcher{batches: make(chan []bale.Update, 8)}
}

func (f *feedFetcher) GetUpdates(ctx context.Context, _ int64, _ int) ([]bale.Update, error) {
	if f.err != nil {
		return nil, f.err
	}
	select {
	case b := <-f.batches:
		return b, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func newServer(t *testing.T) *testutil.MockBaleServer {
	t.Helper()
	server := testutil.NewMockServer(t)
	server.OnBot("getMe", func(w http.ResponseWriter, r *http.Request) {
		testutil.ReplyUser(w)
	})
	return server
}

func newBot(t *testing.T, server *testutil.MockBaleServer, opts ...balego.Option) *balego.Bot {
	t.Helper()
	base := []balego.Option{
		balego.WithLogger(testLogger()),
		balego.WithBaseURL(server.BaseURL()),
		balego.WithSenderOptions(
			sender.WithRetries(0),
			sender.WithRateLimit(1000, 1000),
			sender.WithPerChatRateLimit(1000, 1000),
		),
	}
	bot, err := balego.New(testutil.TestToken, append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = bot.Close(ctx)
	})
	return bot
}

// runBot starts Run in the background and returns its result channel.
func runBot(t *testing.T, bot *balego.Bot) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan error, 1)
	go func() { result <- bot.Run(ctx) }()
	t.Cleanup(cancel)
	return cancel, result
}

func awaitResult(t *testing.T, result <-chan error) error {
	t.Helper()
	select {
	case err := <-result:
		return err
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return")
		return nil
	}
}

// ==================== Construction ====================

func TestNew_InvalidToken(t *testing.T) {
	_, err := balego.New("not-a-token")
	assert.ErrorIs(t, err, bale.ErrInvalidToken)
}

func TestNew_TokenFromConfig(t *testing.T) {
	cfg := balego.DefaultConfig()
	cfg.Sender.Token = testutil.TestToken

	bot, err := balego.New("", balego.WithConfig(cfg), balego.WithLogger(testLogger()))
	require.NoError(t, err)
	assert.NoError(t, bot.Close(context.Background()))
}

func TestNew_StateFile(t *testing.T) {
	server := newServer(t)
	path := t.TempDir() + "/state.db"
	bot := newBot(t, server, balego.WithStateFile(path))

	u := testutil.TestUpdate(1, "hello")
	require.NoError(t, bot.ProcessUpdate(context.Background(), &u))

	_, err := bot.State().User(testutil.TestUserID)
	assert.NoError(t, err)
	require.NoError(t, bot.Close(context.Background()))

	reopened, err := state.OpenBolt(path)
	require.NoError(t, err)
	defer reopened.Close()
	_, err = reopened.Message(testutil.TestChatID, 1)
	assert.NoError(t, err)
}

// ==================== Me ====================

func TestMe_FetchedOnce(t *testing.T) {
	var hits atomic.Int32
	server := testutil.NewMockServer(t)
	server.OnBot("getMe", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		time.Sleep(20 * time.Millisecond)
		testutil.ReplyUser(w)
	})
	bot := newBot(t, server)

	var wg sync.WaitGroup
	for range 5 {
		wg.Go(func() {
			me, err := bot.Me(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, testutil.TestBotUsername, me.Username)
		})
	}
	wg.Wait()

	_, err := bot.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestMe_ErrorNotCached(t *testing.T) {
	var hits atomic.Int32
	server := testutil.NewMockServer(t)
	server.OnBot("getMe", func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			testutil.ReplyServerError(w, 500, "Internal Server Error")
			return
		}
		testutil.ReplyUser(w)
	})
	bot := newBot(t, server)

	_, err := bot.Me(context.Background())
	require.Error(t, err)
	_, err = bot.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())
}

func TestChat_CacheThenAPI(t *testing.T) {
	var hits atomic.Int32
	server := newServer(t)
	server.OnBot("getChat", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		testutil.ReplyOK(w, testutil.TestGroupChat())
	})
	bot := newBot(t, server)

	u := testutil.TestUpdate(1, "hello")
	require.NoError(t, bot.ProcessUpdate(context.Background(), &u))

	chat, err := bot.Chat(context.Background(), testutil.TestChatID)
	require.NoError(t, err)
	assert.Equal(t, testutil.TestChatID, chat.ID)
	assert.Zero(t, hits.Load())

	group, err := bot.Chat(context.Background(), testutil.TestGroupID)
	require.NoError(t, err)
	assert.Equal(t, "Test Group", group.Title)

	_, err = bot.Chat(context.Background(), testutil.TestGroupID)
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestChat_NotFound(t *testing.T) {
	server := newServer(t)
	server.OnBot("getChat", func(w http.ResponseWriter, r *http.Request) {
		testutil.ReplyNotFound(w)
	})
	bot := newBot(t, server)

	_, err := bot.Chat(context.Background(), 42)
	assert.ErrorIs(t, err, bale.ErrNotFound)

	_, err = bot.State().Chat(42)
	assert.ErrorIs(t, err, state.ErrNotFound)
}

// ==================== Dispatch ====================

func TestRun_DispatchesPolledUpdates(t *testing.T) {
	server := newServer(t)
	fetcher := newFeedFetcher()
	bot := newBot(t, server, balego.WithFetcher(fetcher))

	got := make(chan []string, 1)
	require.NoError(t, bot.OnCommand(func(ctx context.Context, m *bale.Message, args []string) error {
		got <- args
		return nil
	}, "start"))

	cancel, result := runBot(t, bot)

	fetcher.batches <- []bale.Update{testutil.TestUpdate(1, "/start now please")}

	select {
	case args := <-got:
		assert.Equal(t, []string{"now", "please"}, args)
	case <-time.After(2 * time.Second):
		t.Fatal("command handler not called")
	}

	cancel()
	assert.NoError(t, awaitResult(t, result))

	_, err := bot.State().User(testutil.TestUserID)
	assert.ErrorIs(t, err, state.ErrClosed, "owned cache is closed with the bot")
}

func TestRun_ReadyHook(t *testing.T) {
	server := newServer(t)
	ready := make(chan *bale.User, 1)
	bot := newBot(t, server,
		balego.WithFetcher(newFeedFetcher()),
		balego.WithReadyHook(func(ctx context.Context, me *bale.User) { ready <- me }),
	)

	cancel, result := runBot(t, bot)

	select {
	case me := <-ready:
		assert.Equal(t, testutil.TestBotID, me.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("ready hook not called")
	}
	assert.True(t, bot.IsHealthy())

	cancel()
	assert.NoError(t, awaitResult(t, result))
	assert.False(t, bot.IsHealthy())
}

func TestRun_Twice(t *testing.T) {
	server := newServer(t)
	ready := make(chan struct{})
	bot := newBot(t, server,
		balego.WithFetcher(newFeedFetcher()),
		balego.WithReadyHook(func(context.Context, *bale.User) { close(ready) }),
	)

	cancel, result := runBot(t, bot)
	<-ready
	assert.ErrorIs(t, bot.Run(context.Background()), balego.ErrAlreadyRunning)

	cancel()
	require.NoError(t, awaitResult(t, result))
	assert.ErrorIs(t, bot.Run(context.Background()), balego.ErrClosed)
}

func TestRun_LoginFails(t *testing.T) {
	server := testutil.NewMockServer(t)
	server.OnBot("getMe", func(w http.ResponseWriter, r *http.Request) {
		testutil.ReplyUnauthorized(w)
	})
	bot := newBot(t, server, balego.WithFetcher(newFeedFetcher()))

	err := bot.Run(context.Background())
	assert.ErrorIs(t, err, bale.ErrUnauthorized)
}

func TestRun_FatalPollingError(t *testing.T) {
	server := newServer(t)
	fetcher := newFeedFetcher()
	fetcher.err = bale.NewAPIError("getUpdates", 401, "Unauthorized")
	bot := newBot(t, server, balego.WithFetcher(fetcher))

	_, result := runBot(t, bot)

	assert.ErrorIs(t, awaitResult(t, result), bale.ErrUnauthorized)
}

func TestRun_DeletesWebhookFirst(t *testing.T) {
	server := newServer(t)
	server.OnBot("deleteWebhook", func(w http.ResponseWriter, r *http.Request) {
		testutil.ReplyBool(w, true)
	})
	ready := make(chan struct{})
	bot := newBot(t, server,
		balego.WithFetcher(newFeedFetcher()),
		balego.WithDeleteWebhook(true),
		balego.WithReadyHook(func(context.Context, *bale.User) { close(ready) }),
	)

	cancel, result := runBot(t, bot)
	<-ready
	cancel()
	require.NoError(t, awaitResult(t, result))

	assert.Len(t, server.CapturesFor("deleteWebhook"), 1)
}

func TestRun_CloseUnblocksRun(t *testing.T) {
	server := newServer(t)
	ready := make(chan struct{})
	bot := newBot(t, server,
		balego.WithFetcher(newFeedFetcher()),
		balego.WithReadyHook(func(context.Context, *bale.User) { close(ready) }),
	)

	_, result := runBot(t, bot)
	<-ready

	require.NoError(t, bot.Close(context.Background()))
	assert.NoError(t, awaitResult(t, result))
}

func TestWebhookHandler_FeedsDispatcher(t *testing.T) {
	server := newServer(t)
	ready := make(chan struct{})
	bot := newBot(t, server,
		balego.WithFetcher(newFeedFetcher()),
		balego.WithReadyHook(func(context.Context, *bale.User) { close(ready) }),
	)

	got := make(chan string, 1)
	bot.OnMessage(check.Text("ping"), func(ctx context.Context, m *bale.Message) error {
		got <- m.Text
		return nil
	})

	cancel, result := runBot(t, bot)
	<-ready

	req := httptest.NewRequest(http.MethodPost, "/webhook",
		strings.NewReader(`{"update_id":9,"message":{"message_id":1,"date":1,"chat":{"id":5,"type":"private"},"text":"ping"}}`))
	rec := httptest.NewRecorder()
	bot.WebhookHandler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	select {
	case text := <-got:
		assert.Equal(t, "ping", text)
	case <-time.After(2 * time.Second):
		t.Fatal("message handler not called")
	}

	cancel()
	require.NoError(t, awaitResult(t, result))
}

// ==================== Handlers ====================

func TestProcessUpdate_OnlyMatchingHandlerRuns(t *testing.T) {
	server := newServer(t)
	bot := newBot(t, server)

	var yes, no atomic.Int32
	bot.HandleFunc(check.Any(), func(context.Context, *bale.Update) error { yes.Add(1); return nil }, nil)
	bot.HandleFunc(check.None(), func(context.Context, *bale.Update) error { no.Add(1); return nil }, nil)

	u := testutil.TestUpdate(1, "hi")
	require.NoError(t, bot.ProcessUpdate(context.Background(), &u))
	require.NoError(t, bot.Close(context.Background()))

	assert.Equal(t, int32(1), yes.Load())
	assert.Equal(t, int32(0), no.Load())
}

func TestProcessUpdate_ErrorHook(t *testing.T) {
	server := newServer(t)
	boom := errors.New("boom")
	hooked := make(chan error, 1)
	bot := newBot(t, server, balego.WithErrorHook(func(_ context.Context, _ *bale.Update, err error) {
		hooked <- err
	}))

	var ok atomic.Bool
	bot.OnMessage(check.Any(), func(context.Context, *bale.Message) error { return boom })
	bot.OnMessage(check.Any(), func(context.Context, *bale.Message) error { ok.Store(true); return nil })

	u := testutil.TestUpdate(1, "hi")
	require.NoError(t, bot.ProcessUpdate(context.Background(), &u))

	select {
	case err := <-hooked:
		assert.ErrorIs(t, err, boom)
	case <-time.After(2 * time.Second):
		t.Fatal("error hook not called")
	}
	require.NoError(t, bot.Close(context.Background()))
	assert.True(t, ok.Load())
}

func TestProcessUpdate_AfterClose(t *testing.T) {
	server := newServer(t)
	bot := newBot(t, server)
	require.NoError(t, bot.Close(context.Background()))

	u := testutil.TestUpdate(1, "hi")
	assert.ErrorIs(t, bot.ProcessUpdate(context.Background(), &u), balego.ErrClosed)
}

func TestOnCommand_InvalidName(t *testing.T) {
	server := newServer(t)
	bot := newBot(t, server)

	err := bot.OnCommand(func(context.Context, *bale.Message, []string) error { return nil }, "Bad Name")
	assert.Error(t, err)
}

func TestCallbackQuery_Answered(t *testing.T) {
	server := newServer(t)
	server.OnBot("answerCallbackQuery", func(w http.ResponseWriter, r *http.Request) {
		testutil.ReplyBool(w, true)
	})
	bot := newBot(t, server)

	bot.OnCallbackQuery(check.Data("yes"), func(ctx context.Context, q *bale.CallbackQuery) error {
		return bot.Answer(ctx, q, sender.AnswerText("noted"))
	})

	u := testutil.TestUpdateWithCallback(1, "cb-1", "yes")
	require.NoError(t, bot.ProcessUpdate(context.Background(), &u))
	require.NoError(t, bot.Close(context.Background()))

	calls := server.CapturesFor("answerCallbackQuery")
	require.Len(t, calls, 1)
	calls[0].AssertJSONField(t, "callback_query_id", "cb-1")
	calls[0].AssertJSONField(t, "text", "noted")
}

// ==================== Waiters ====================

func TestWaitFor_FirstKeyWins(t *testing.T) {
	server := newServer(t)
	bot := newBot(t, server)

	result := make(chan dispatch.Match, 1)
	go func() {
		m, err := bot.WaitFor(context.Background(), 2*time.Second,
			dispatch.Case{Key: "one", Check: check.Text("hi")},
			dispatch.Case{Key: "two", Check: check.Any()},
		)
		assert.NoError(t, err)
		result <- m
	}()

	require.Eventually(t, func() bool { return bot.Waiting() == 1 }, 2*time.Second, 5*time.Millisecond)

	u := testutil.TestUpdate(1, "hi")
	require.NoError(t, bot.ProcessUpdate(context.Background(), &u))

	select {
	case m := <-result:
		assert.Equal(t, "one", m.Key)
		assert.Equal(t, int64(1), m.Update.UpdateID)
	case <-time.After(2 * time.Second):
		t.Fatal("WaitFor did not resolve")
	}
	assert.Zero(t, bot.Waiting())
}

func TestWaitFor_Timeout(t *testing.T) {
	server := newServer(t)
	bot := newBot(t, server)

	_, err := bot.WaitFor(context.Background(), 20*time.Millisecond,
		dispatch.Case{Key: "never", Check: check.None()},
	)
	assert.ErrorIs(t, err, dispatch.ErrWaitTimeout)
}

// ==================== Shutdown ====================

func TestClose_WaitsForRunningHandlers(t *testing.T) {
	server := newServer(t)
	bot := newBot(t, server)

	release := make(chan struct{})
	var finished atomic.Bool
	bot.OnMessage(check.Any(), func(context.Context, *bale.Message) error {
		<-release
		finished.Store(true)
		return nil
	})

	u := testutil.TestUpdate(1, "slow")
	require.NoError(t, bot.ProcessUpdate(context.Background(), &u))

	go func() {
		time.Sleep(50 * time.Millisecond)
		close(release)
	}()
	require.NoError(t, bot.Close(context.Background()))
	assert.True(t, finished.Load())
}

func TestClose_TimeoutOnStuckHandler(t *testing.T) {
	server := newServer(t)
	bot := newBot(t, server)

	release := make(chan struct{})
	defer close(release)
	bot.OnMessage(check.Any(), func(context.Context, *bale.Message) error {
		<-release
		return nil
	})

	u := testutil.TestUpdate(1, "stuck")
	require.NoError(t, bot.ProcessUpdate(context.Background(), &u))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, bot.Close(ctx), context.DeadlineExceeded)
}

func TestClose_Idempotent(t *testing.T) {
	server := newServer(t)
	bot := newBot(t, server)

	var wg sync.WaitGroup
	for range 10 {
		wg.Go(func() {
			assert.NoError(t, bot.Close(context.Background()))
		})
	}
	wg.Wait()
}

func TestDeleteLater(t *testing.T) {
	server := newServer(t)
	server.OnBot("deleteMessage", func(w http.ResponseWriter, r *http.Request) {
		testutil.ReplyBool(w, true)
	})
	bot := newBot(t, server)

	bot.DeleteLater(testutil.TestMessage(77, "temp"), 10*time.Millisecond)

	require.Eventually(t, func() bool {
		return len(server.CapturesFor("deleteMessage")) == 1
	}, 2*time.Second, 5*time.Millisecond)
	server.CapturesFor("deleteMessage")[0].AssertJSONField(t, "message_id", float64(77))
}

func TestDeleteLater_DroppedOnClose(t *testing.T) {
	server := newServer(t)
	bot := newBot(t, server)

	bot.DeleteLater(testutil.TestMessage(77, "temp"), time.Hour)
	require.NoError(t, bot.Close(context.Background()))

	assert.Empty(t, server.CapturesFor("deleteMessage"))
}

// ==================== Config ====================

func TestLoadConfig_Composes(t *testing.T) {
	t.Setenv("BALE_BOT_TOKEN", testutil.TestToken)
	t.Setenv("POLLING_LIMIT", "20")
	t.Setenv("MAX_RETRIES", "7")
	t.Setenv("BALE_QUEUE_SIZE", "64")
	t.Setenv("BALE_STATE_FILE", "/tmp/balego.db")

	cfg, err := balego.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, bale.SecretToken(testutil.TestToken), cfg.Sender.Token)
	assert.Equal(t, 20, cfg.Receiver.Limit)
	assert.Equal(t, 7, cfg.Sender.MaxRetries)
	assert.Equal(t, 64, cfg.QueueSize)
	assert.Equal(t, "/tmp/balego.db", cfg.StateFile)
	assert.Equal(t, receiver.ModePolling, cfg.Receiver.Mode)
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Setenv("RECEIVER_MODE", "smoke-signals")

	_, err := balego.LoadConfig()
	var vErr *bale.ValidationError
	assert.ErrorAs(t, err, &vErr)
}
