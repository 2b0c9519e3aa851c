package sender_test

import (
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/python-bale-bot/balego/bale"
	"github.com/python-bale-bot/balego/internal/testutil"
)

func TestBreaker_OpensAfterConsecutiveServerErrors(t *testing.T) {
	var attempts atomic.Int32

	server := testutil.NewMockServer(t)
	server.OnBot("sendMessage", func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		testutil.ReplyServerError(w, 500, "Internal Server Error")
	})

	client := testutil.NewBreakerTestClient(t, server.BaseURL())

	for range 2 {
		_, err := sendHello(t, client)
		require.Error(t, err)
		assert.NotErrorIs(t, err, bale.ErrCircuitOpen)
	}

	_, err := sendHello(t, client)
	require.Error(t, err)
	assert.ErrorIs(t, err, bale.ErrCircuitOpen)
	assert.Equal(t, int32(2), attempts.Load(), "open breaker must not reach the server")
}

func TestBreaker_ClientErrorsDoNotTrip(t *testing.T) {
	var attempts atomic.Int32

	server := testutil.NewMockServer(t)
	server.OnBot("sendMessage", func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		testutil.ReplyForbidden(w, "bot was kicked")
	})

	client := testutil.NewBreakerTestClient(t, server.BaseURL())

	for range 5 {
		_, err := sendHello(t, client)
		require.Error(t, err)
		assert.ErrorIs(t, err, bale.ErrForbidden)
	}
	assert.Equal(t, int32(5), attempts.Load())
}

func TestBreaker_RateLimitDoesNotTrip(t *testing.T) {
	server := testutil.NewMockServer(t)
	server.OnBot("sendMessage", func(w http.ResponseWriter, r *http.Request) {
		testutil.ReplyRateLimit(w, 1)
	})

	client := testutil.NewBreakerTestClient(t, server.BaseURL())

	for range 4 {
		_, err := sendHello(t, client)
		require.Error(t, err)
		assert.NotErrorIs(t, err, bale.ErrCircuitOpen)
	}
}
