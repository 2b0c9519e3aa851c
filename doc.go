// Package balego is a Go SDK for writing Bale bots.
//
// A Bot receives updates by polling getUpdates (or through a webhook),
// queues them, and dispatches each one to every registered handler and
// to every pending WaitFor call.
//
// # Quick Start
//
//	bot, err := balego.New(token)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	bot.OnCommand(func(ctx context.Context, m *bale.Message, args []string) error {
//	    _, err := bot.Reply(ctx, m, "Hello!")
//	    return err
//	}, "start")
//
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer stop()
//	if err := bot.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// # Conversations
//
// WaitFor suspends a handler until a later update matches:
//
//	match, err := bot.WaitFor(ctx, 30*time.Second,
//	    dispatch.Case{Key: "answer", Check: check.Author(m.From.ID).And(check.Private())},
//	)
//
// # Packages
//
//   - bale: API types and errors
//   - check: composable update predicates
//   - handler: message, command, regex, and callback handlers
//   - dispatch: update queue, handler registry, waiters, dispatcher
//   - receiver: poller, webhook handler, webhook registration
//   - sender: Bot API client with retries, rate limits, and a circuit breaker
//   - state: user, chat, and message cache
//
// # Shutdown
//
// Close stops receiving, lets the dispatcher drain the queue up to a stop
// marker, waits for running handlers, and then releases the sender and
// the cache. Run calls Close on its way out.
package balego
