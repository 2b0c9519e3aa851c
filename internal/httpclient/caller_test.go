package httpclient_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/python-bale-bot/balego/bale"
	"github.com/python-bale-bot/balego/internal/httpclient"
	"github.com/python-bale-bot/balego/internal/testutil"
)

func newCaller(server *testutil.MockBaleServer) *httpclient.Caller {
	return httpclient.NewCaller(server.Client(), server.BaseURL(), bale.SecretToken(testutil.TestToken))
}

// ==================== Success ====================

func TestCaller_CallJSON_DecodesResult(t *testing.T) {
	server := testutil.NewMockServer(t)
	server.OnBot("getMe", func(w http.ResponseWriter, r *http.Request) {
		testutil.ReplyUser(w)
	})

	var me bale.User
	err := newCaller(server).CallJSON(context.Background(), "getMe", nil, &me)

	require.NoError(t, err)
	assert.Equal(t, testutil.TestBotID, me.ID)
	assert.True(t, me.IsBot)

	cap := server.LastCapture()
	cap.AssertPath(t, testutil.BotPath("getMe"))
	cap.AssertContentType(t, "application/json")
	assert.Equal(t, "{}", cap.BodyString())
}

func TestCaller_CallJSON_SendsParams(t *testing.T) {
	server := testutil.NewMockServer(t)

	params := map[string]any{"chat_id": 10, "text": "hi"}
	require.NoError(t, newCaller(server).CallJSON(context.Background(), "sendMessage", params, nil))

	cap := server.LastCapture()
	cap.AssertJSONField(t, "chat_id", float64(10))
	cap.AssertJSONField(t, "text", "hi")
}

func TestCaller_URLs(t *testing.T) {
	c := httpclient.NewCaller(nil, "https://example.com/", bale.SecretToken("1:a"))

	assert.Equal(t, "https://example.com/bot1:a/getMe", c.URL("getMe"))
	assert.Equal(t, "https://example.com/file/bot1:a/photos/1.jpg", c.FileURL("photos/1.jpg"))

	def := httpclient.NewCaller(nil, "", bale.SecretToken("1:a"))
	assert.Equal(t, "https://tapi.bale.ai/bot1:a/getMe", def.URL("getMe"))
}

// ==================== API errors ====================

func TestCaller_APIError_DetectsSentinel(t *testing.T) {
	tests := []struct {
		name     string
		reply    func(w http.ResponseWriter)
		sentinel error
	}{
		{"unauthorized", testutil.ReplyUnauthorized, bale.ErrUnauthorized},
		{"not found", testutil.ReplyNotFound, bale.ErrNotFound},
		{"forbidden", func(w http.ResponseWriter) { testutil.ReplyForbidden(w, "bot was kicked") }, bale.ErrForbidden},
		{"bad request", func(w http.ResponseWriter) { testutil.ReplyBadRequest(w, "text is empty") }, bale.ErrBadRequest},
		{"rate limited", func(w http.ResponseWriter) { testutil.ReplyRateLimit(w, 3) }, bale.ErrTooManyRequests},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := testutil.NewMockServer(t)
			server.OnBot("sendMessage", func(w http.ResponseWriter, r *http.Request) { tt.reply(w) })

			err := newCaller(server).CallJSON(context.Background(), "sendMessage", nil, nil)

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.sentinel)
			var apiErr *bale.APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, "sendMessage", apiErr.Method)
		})
	}
}

func TestCaller_RetryAfter(t *testing.T) {
	server := testutil.NewMockServer(t)
	server.OnBot("body", func(w http.ResponseWriter, r *http.Request) { testutil.ReplyRateLimit(w, 4) })
	server.OnBot("header", func(w http.ResponseWriter, r *http.Request) { testutil.ReplyRateLimitHeaderOnly(w, 2) })
	c := newCaller(server)

	var apiErr *bale.APIError
	require.True(t, errors.As(c.CallJSON(context.Background(), "body", nil, nil), &apiErr))
	assert.Equal(t, 4*time.Second, apiErr.RetryAfter)
	require.NotNil(t, apiErr.Parameters)
	assert.Equal(t, 4, apiErr.Parameters.RetryAfter)

	require.True(t, errors.As(c.CallJSON(context.Background(), "header", nil, nil), &apiErr))
	assert.Equal(t, 2*time.Second, apiErr.RetryAfter)
}

func TestCaller_ErrorCodeFallsBackToStatus(t *testing.T) {
	server := testutil.NewMockServer(t)
	server.OnBot("getMe", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"ok":false,"description":"upstream"}`))
	})

	err := newCaller(server).CallJSON(context.Background(), "getMe", nil, nil)

	var apiErr *bale.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.Code)
	assert.True(t, apiErr.IsRetryable())
}

// ==================== Transport errors ====================

func TestCaller_ResponseTooLarge(t *testing.T) {
	server := testutil.NewMockServer(t)
	server.OnBot("getMe", func(w http.ResponseWriter, r *http.Request) {
		testutil.ReplyOK(w, strings.Repeat("x", 256))
	})
	c := newCaller(server)
	c.SetMaxResponseSize(64)

	err := c.CallJSON(context.Background(), "getMe", nil, nil)
	assert.ErrorIs(t, err, bale.ErrResponseTooLarge)
}

func TestCaller_InvalidJSON(t *testing.T) {
	server := testutil.NewMockServer(t)
	server.OnBot("getMe", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>"))
	})

	err := newCaller(server).CallJSON(context.Background(), "getMe", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}

func TestCaller_Timeout(t *testing.T) {
	server := testutil.NewMockServer(t)
	server.OnBot("getUpdates", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := newCaller(server).CallJSON(ctx, "getUpdates", nil, nil)
	assert.ErrorIs(t, err, bale.ErrTimeout)
	assert.NotContains(t, err.Error(), testutil.TestToken)
}

func TestCaller_Cancelled(t *testing.T) {
	server := testutil.NewMockServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := newCaller(server).CallJSON(ctx, "getMe", nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, bale.ErrNetwork)
}

func TestCaller_NetworkError_ScrubsToken(t *testing.T) {
	c := httpclient.NewCaller(nil, "http://127.0.0.1:1", bale.SecretToken(testutil.TestToken))

	err := c.CallJSON(context.Background(), "getMe", nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, bale.ErrNetwork)
	assert.NotContains(t, err.Error(), testutil.TestToken)
	assert.Contains(t, err.Error(), "[REDACTED]")
}

// ==================== Client ====================

func TestNew_SetsUserAgent(t *testing.T) {
	server := testutil.NewMockServer(t)
	client := httpclient.New(httpclient.DefaultConfig())

	c := httpclient.NewCaller(client, server.BaseURL(), bale.SecretToken(testutil.TestToken))
	require.NoError(t, c.CallJSON(context.Background(), "getMe", nil, nil))

	assert.Equal(t, httpclient.UserAgent, server.LastCapture().Headers.Get("User-Agent"))
}

func TestNew_KeepsCallerUserAgent(t *testing.T) {
	server := testutil.NewMockServer(t)
	client := httpclient.New(httpclient.DefaultConfig())

	req, err := http.NewRequest(http.MethodGet, server.BaseURL()+"/ping", nil)
	require.NoError(t, err)
	req.Header.Set("User-Agent", "custom/1.0")
	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "custom/1.0", server.LastCapture().Headers.Get("User-Agent"))
}

func TestConfig_WithTimeout(t *testing.T) {
	cfg := httpclient.DefaultConfig()

	assert.Equal(t, time.Minute, cfg.WithTimeout(time.Minute).RequestTimeout)
	assert.Equal(t, cfg.RequestTimeout, cfg.WithTimeout(time.Second).RequestTimeout)
}
