// Package receiver gets Bale updates into the bot, either by polling
// getUpdates or by accepting webhook calls.
//
// # Polling
//
// A Poller pulls batches from a Fetcher, drops updates it has already
// seen, and puts the rest into a Sink in update_id order:
//
//	poller := receiver.NewPoller(fetcher, queue, receiver.DefaultConfig())
//	if err := poller.Start(ctx); err != nil {
//	    return err
//	}
//	defer poller.Stop(context.Background())
//
// The sender client satisfies Fetcher; HTTPFetcher is a standalone one
// with its own circuit breaker.
//
// # Webhook
//
// WebhookHandler is an http.Handler that validates the
// X-Bale-Bot-Api-Secret-Token header, rate limits callers and puts each
// update into a Sink. WebhookAPI registers and removes the webhook.
//
// # Failures
//
// An unauthorized token stops the poller for good; the error is
// returned by Wait and Err. Timeouts are retried at once. Other API
// errors go through the ErrorPolicy, and transport failures back off
// with jitter.
package receiver
