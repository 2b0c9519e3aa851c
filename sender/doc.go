// Package sender calls Bale Bot API methods with resilience features.
//
// # Features
//
//   - Circuit breaker for fault tolerance
//   - Per-chat and global rate limiting
//   - Retry with exponential backoff honoring retry_after
//   - Text, media, location, contact and invoice messages
//   - Edit, delete, forward, copy messages
//   - Chat administration (members, bans, promotion, photo)
//   - Callback query responses and file downloads
//
// # Usage
//
//	client, err := sender.New(token,
//	    sender.WithRateLimit(30, 10),
//	    sender.WithRetries(3),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	msg, err := client.SendMessage(ctx, sender.SendMessageRequest{
//	    ChatID: chatID,
//	    Text:   "Hello, World!",
//	})
package sender
