package balego

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/python-bale-bot/balego/bale"
	"github.com/python-bale-bot/balego/check"
	"github.com/python-bale-bot/balego/dispatch"
	"github.com/python-bale-bot/balego/handler"
	"github.com/python-bale-bot/balego/internal/syncutil"
	"github.com/python-bale-bot/balego/receiver"
	"github.com/python-bale-bot/balego/sender"
	"github.com/python-bale-bot/balego/state"
)

var (
	// ErrAlreadyRunning is returned by Run while the bot is running.
	ErrAlreadyRunning = errors.New("balego: bot already running")

	// ErrClosed is returned by Run and ProcessUpdate after Close.
	ErrClosed = errors.New("balego: bot closed")
)

// Bot ties together the sender, the poller or webhook, the update queue,
// and the dispatcher.
type Bot struct {
	cfg        Config
	logger     *slog.Logger
	sender     *sender.Client
	queue      *dispatch.Queue
	dispatcher *dispatch.Dispatcher
	poller     *receiver.Poller
	webhook    *receiver.WebhookHandler
	webhookAPI *receiver.WebhookAPI
	health     *receiver.HealthHandler
	store      state.Store
	ownsStore  bool
	tasks      *syncutil.TaskSet
	readyHook  ReadyFunc

	lookups singleflight.Group
	meMu    sync.Mutex
	me      *bale.User

	// lifetime ends when Close starts; delayed jobs watch it.
	lifetime       context.Context
	cancelLifetime context.CancelFunc
	closing        chan struct{}
	failed         chan error

	mu           sync.Mutex // Protects the fields below
	running      bool
	closed       bool
	dispatchDone chan struct{}
	stopDispatch context.CancelFunc
	server       *http.Server

	closeOnce sync.Once
	closeErr  error
}

// New creates a Bot. An empty token falls back to the token in the
// configuration given with WithConfig.
func New(token string, opts ...Option) (*Bot, error) {
	o := botOptions{cfg: DefaultConfig(), logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	cfg := o.cfg
	if token != "" {
		cfg.Sender.Token = bale.SecretToken(token)
	}
	cfg.Receiver.Token = cfg.Sender.Token
	logger := o.logger

	senderOpts := append([]sender.Option{sender.WithLogger(logger)}, o.senderOpts...)
	if o.httpClient != nil {
		senderOpts = append(senderOpts, sender.WithHTTPClient(o.httpClient))
	}
	client, err := sender.NewFromConfig(cfg.Sender, senderOpts...)
	if err != nil {
		return nil, err
	}

	store, ownsStore := o.store, false
	if store == nil {
		ownsStore = true
		if cfg.StateFile != "" {
			bolt, err := state.OpenBolt(cfg.StateFile)
			if err != nil {
				_ = client.Close()
				return nil, err
			}
			store = bolt
		} else {
			store = state.NewMemory(state.WithMaxMessages(cfg.MaxCachedMessages))
		}
	}

	lifetime, cancel := context.WithCancel(context.Background())
	b := &Bot{
		cfg:            cfg,
		logger:         logger,
		sender:         client,
		queue:          dispatch.NewQueue(cfg.QueueSize),
		health:         receiver.NewHealthHandler(),
		store:          store,
		ownsStore:      ownsStore,
		tasks:          syncutil.NewTaskSet(),
		readyHook:      o.readyHook,
		lifetime:       lifetime,
		cancelLifetime: cancel,
		closing:        make(chan struct{}),
		failed:         make(chan error, 1),
	}

	b.dispatcher = dispatch.New(b.queue,
		dispatch.WithLogger(logger),
		dispatch.WithErrorHook(o.errorHook),
		dispatch.WithTaskSet(b.tasks),
		dispatch.WithObserver(b.record),
	)

	fetcher := o.fetcher
	if fetcher == nil {
		fetcherOpts := []receiver.FetcherOption{receiver.WithFetcherLogger(logger)}
		if o.httpClient != nil {
			fetcherOpts = append(fetcherOpts, receiver.WithFetcherHTTPClient(o.httpClient))
		}
		fetcher = receiver.NewHTTPFetcher(cfg.Receiver, fetcherOpts...)
	}
	pollerOpts := append([]receiver.PollerOption{receiver.WithPollerLogger(logger)}, o.pollerOpts...)
	b.poller = receiver.NewPoller(fetcher, b.queue, cfg.Receiver, pollerOpts...)

	b.webhook = receiver.NewWebhookHandler(logger, b.queue, cfg.Receiver)
	b.webhookAPI = receiver.NewWebhookAPI(o.httpClient, cfg.Receiver.BaseURL, cfg.Receiver.Token)
	if cfg.Receiver.Mode == receiver.ModePolling {
		b.health.SetProbe(b.poller.IsHealthy)
	}

	return b, nil
}

// record caches the entities of every dispatched update.
func (b *Bot) record(_ context.Context, u *bale.Update) {
	if err := state.Record(b.store, u); err != nil {
		b.logger.Warn("cache update entities", "update_id", u.UpdateID, "error", err)
	}
}

// ==================== Registration ====================

// Handle registers h. Callback errors go to the error hook.
func (b *Bot) Handle(h handler.Handler) {
	b.dispatcher.Registry().Register(h, nil)
}

// HandleFunc registers fn for updates c accepts. onError, when non-nil,
// receives fn's errors instead of the error hook.
func (b *Bot) HandleFunc(c check.Check, fn handler.UpdateFunc, onError handler.ErrorFunc) {
	b.dispatcher.Registry().Handle(c, fn, onError)
}

// OnMessage registers fn for new messages c accepts.
func (b *Bot) OnMessage(c check.Check, fn handler.MessageFunc) {
	b.Handle(handler.Message(fn).When(c))
}

// OnEditedMessage registers fn for edited messages c accepts.
func (b *Bot) OnEditedMessage(c check.Check, fn handler.MessageFunc) {
	b.Handle(handler.EditedMessage(fn).When(c))
}

// OnCommand registers fn for "/command" messages.
func (b *Bot) OnCommand(fn handler.CommandFunc, commands ...string) error {
	h, err := handler.Command(fn, commands...)
	if err != nil {
		return err
	}
	b.Handle(h)
	return nil
}

// OnRegex registers fn for messages whose text matches pattern.
func (b *Bot) OnRegex(pattern string, fn handler.RegexFunc) error {
	h, err := handler.Regex(pattern, fn)
	if err != nil {
		return err
	}
	b.Handle(h)
	return nil
}

// OnCallbackQuery registers fn for callback queries c accepts.
func (b *Bot) OnCallbackQuery(c check.Check, fn handler.CallbackQueryFunc) {
	b.Handle(handler.CallbackQuery(fn).When(c))
}

// WaitFor blocks until an update satisfies one of cases. See
// dispatch.Waiters.WaitFor.
func (b *Bot) WaitFor(ctx context.Context, timeout time.Duration, cases ...dispatch.Case) (dispatch.Match, error) {
	return b.dispatcher.Waiters().WaitFor(ctx, timeout, cases...)
}

// ==================== Lifecycle ====================

// Run logs in, starts receiving and dispatching updates, and blocks until
// ctx is done, Close is called, or receiving fails for good. It closes the
// bot before returning.
func (b *Bot) Run(ctx context.Context) error {
	b.mu.Lock()
	switch {
	case b.closed:
		b.mu.Unlock()
		return ErrClosed
	case b.running:
		b.mu.Unlock()
		return ErrAlreadyRunning
	}
	b.running = true
	b.mu.Unlock()

	shutdownCtx := func() (context.Context, context.CancelFunc) {
		return context.WithTimeout(context.WithoutCancel(ctx), b.cfg.Receiver.ShutdownTimeout)
	}

	me, err := b.start(ctx)
	if err != nil {
		sctx, cancel := shutdownCtx()
		defer cancel()
		return errors.Join(err, b.Close(sctx))
	}

	b.health.SetReady(true)
	b.logger.Info("bot running", "mode", b.cfg.Receiver.Mode, "username", me.Username)
	if b.readyHook != nil {
		b.readyHook(ctx, me)
	}

	var fatal error
	select {
	case <-ctx.Done():
	case <-b.closing:
	case fatal = <-b.failed:
		b.logger.Error("receiving stopped", "error", fatal)
	}

	sctx, cancel := shutdownCtx()
	defer cancel()
	return errors.Join(fatal, b.Close(sctx))
}

func (b *Bot) start(ctx context.Context) (*bale.User, error) {
	me, err := b.Me(ctx)
	if err != nil {
		return nil, fmt.Errorf("balego: log in: %w", err)
	}

	dctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})
	b.mu.Lock()
	b.dispatchDone, b.stopDispatch = done, cancel
	b.mu.Unlock()
	go func() {
		defer close(done)
		if err := b.dispatcher.Run(dctx); err != nil && !errors.Is(err, context.Canceled) {
			b.logger.Error("dispatcher stopped", "error", err)
		}
	}()

	if b.cfg.Receiver.Mode == receiver.ModeWebhook {
		if url := b.cfg.Receiver.WebhookURL; url != "" {
			if err := b.webhookAPI.SetWebhook(ctx, url, b.cfg.Receiver.WebhookSecret); err != nil {
				return nil, fmt.Errorf("balego: set webhook: %w", err)
			}
		}
		b.serveWebhook()
		return me, nil
	}

	if b.cfg.Receiver.DeleteWebhookFirst {
		if err := b.webhookAPI.DeleteWebhook(ctx, false); err != nil {
			return nil, fmt.Errorf("balego: delete webhook: %w", err)
		}
	}
	if err := b.poller.Start(dctx); err != nil {
		return nil, err
	}
	go func() {
		if err := b.poller.Wait(context.Background()); err != nil {
			b.fail(err)
		}
	}()
	return me, nil
}

func (b *Bot) serveWebhook() {
	rc := b.cfg.Receiver
	mux := http.NewServeMux()
	mux.Handle(rc.WebhookPath, b.webhook)
	mux.HandleFunc("/healthz", b.health.LivenessHandler())
	mux.HandleFunc("/readyz", b.health.ReadinessHandler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", rc.WebhookPort),
		Handler:           mux,
		ReadTimeout:       rc.ReadTimeout,
		ReadHeaderTimeout: rc.ReadHeaderTimeout,
		WriteTimeout:      rc.WriteTimeout,
		IdleTimeout:       rc.IdleTimeout,
	}
	b.mu.Lock()
	b.server = srv
	b.mu.Unlock()

	go func() {
		b.logger.Info("webhook server listening", "addr", srv.Addr, "path", rc.WebhookPath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			b.fail(fmt.Errorf("balego: webhook server: %w", err))
		}
	}()
}

func (b *Bot) fail(err error) {
	select {
	case b.failed <- err:
	default:
	}
}

// Close shuts the bot down in order: stop receiving, let the dispatcher
// drain up to the stop marker, wait for running handlers, then release
// the sender and the cache. Pending DeleteLater jobs are abandoned.
// Later calls return the first result.
func (b *Bot) Close(ctx context.Context) error {
	b.closeOnce.Do(func() {
		b.closeErr = b.close(ctx)
	})
	return b.closeErr
}

func (b *Bot) close(ctx context.Context) error {
	b.mu.Lock()
	b.closed = true
	done, stopDispatch, server := b.dispatchDone, b.stopDispatch, b.server
	b.mu.Unlock()

	close(b.closing)
	b.health.SetReady(false)
	b.cancelLifetime()

	var errs []error
	if err := b.poller.Stop(ctx); err != nil && !errors.Is(err, receiver.ErrNotRunning) {
		errs = append(errs, fmt.Errorf("balego: stop poller: %w", err))
	}
	if server != nil {
		if err := server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("balego: stop webhook server: %w", err))
		}
	}

	if done != nil {
		b.queue.PutSentinel()
		if err := b.queue.Join(ctx); err != nil {
			errs = append(errs, fmt.Errorf("balego: drain queue: %w", err))
		}
	}
	if err := b.dispatcher.Wait(ctx); err != nil {
		errs = append(errs, fmt.Errorf("balego: await handlers: %w", err))
	}
	if stopDispatch != nil {
		stopDispatch()
		<-done
	}

	if err := b.sender.Close(); err != nil {
		errs = append(errs, err)
	}
	if b.ownsStore {
		if err := b.store.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	b.logger.Info("bot closed", "processed", b.dispatcher.Processed())
	return errors.Join(errs...)
}

// ==================== Accessors ====================

// Me returns the bot's own user, fetched once with getMe. Concurrent
// first calls share one request.
func (b *Bot) Me(ctx context.Context) (*bale.User, error) {
	b.meMu.Lock()
	if me := b.me; me != nil {
		b.meMu.Unlock()
		return me, nil
	}
	b.meMu.Unlock()

	v, err, _ := b.lookups.Do("getMe", func() (any, error) {
		me, err := b.sender.GetMe(ctx)
		if err != nil {
			return nil, err
		}
		b.meMu.Lock()
		b.me = me
		b.meMu.Unlock()
		return me, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*bale.User), nil
}

// Chat returns the chat with the given ID from the state cache, asking
// Bale with getChat on a miss. Concurrent misses share one request.
func (b *Bot) Chat(ctx context.Context, chatID int64) (*bale.Chat, error) {
	chat, err := b.store.Chat(chatID)
	if err == nil {
		return chat, nil
	}
	if !errors.Is(err, state.ErrNotFound) {
		return nil, err
	}

	v, err, _ := b.lookups.Do("getChat:"+strconv.FormatInt(chatID, 10), func() (any, error) {
		chat, err := b.sender.GetChat(ctx, chatID)
		if err != nil {
			return nil, err
		}
		if err := b.store.PutChat(chat); err != nil {
			b.logger.Warn("cache chat", "chat_id", chatID, "error", err)
		}
		return chat, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*bale.Chat), nil
}

// ProcessUpdate dispatches u immediately, bypassing the queue. Handlers
// started for u receive ctx.
func (b *Bot) ProcessUpdate(ctx context.Context, u *bale.Update) error {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return ErrClosed
	}
	b.dispatcher.Process(ctx, u)
	return nil
}

// DeleteLater deletes the message e points at after delay. The job is
// dropped if the bot closes first.
func (b *Bot) DeleteLater(e bale.Editable, delay time.Duration) {
	b.tasks.Go("delete-later", func() {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-b.lifetime.Done():
			return
		case <-timer.C:
		}
		if err := b.sender.Delete(b.lifetime, e); err != nil && !errors.Is(err, context.Canceled) {
			b.logger.Warn("delayed delete failed", "error", err)
		}
	})
}

// WebhookHandler returns the HTTP handler that feeds webhook calls into
// the update queue.
func (b *Bot) WebhookHandler() *receiver.WebhookHandler {
	return b.webhook
}

// Health returns the liveness and readiness handlers.
func (b *Bot) Health() *receiver.HealthHandler {
	return b.health
}

// IsHealthy returns health status for readiness probes.
func (b *Bot) IsHealthy() bool {
	return b.health.Ready()
}

// Waiting returns the number of WaitFor calls still pending.
func (b *Bot) Waiting() int {
	return b.dispatcher.Waiters().Len()
}

// Poller returns the poller used in polling mode.
func (b *Bot) Poller() *receiver.Poller {
	return b.poller
}

// Sender returns the underlying sender client for advanced usage.
func (b *Bot) Sender() *sender.Client {
	return b.sender
}

// State returns the entity cache.
func (b *Bot) State() state.Store {
	return b.store
}

// Send sends a text message.
func (b *Bot) Send(ctx context.Context, chatID bale.ChatID, text string, opts ...sender.SendOption) (*bale.Message, error) {
	return b.sender.Send(ctx, chatID, text, opts...)
}

// Reply answers m in its chat.
func (b *Bot) Reply(ctx context.Context, m *bale.Message, text string, opts ...sender.SendOption) (*bale.Message, error) {
	return b.sender.Reply(ctx, m, text, opts...)
}

// Answer answers a callback query.
func (b *Bot) Answer(ctx context.Context, cb *bale.CallbackQuery, opts ...sender.AnswerOption) error {
	return b.sender.Answer(ctx, cb, opts...)
}
