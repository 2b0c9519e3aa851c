// Package resilience provides the circuit breaker, backoff and rate limiting
// shared by the sender, the update fetcher and the webhook handler.
// Uses sony/gobreaker for circuit breaking and golang.org/x/time/rate for
// rate limiting.
package resilience
