package receiver_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/python-bale-bot/balego/bale"
	"github.com/python-bale-bot/balego/internal/testutil"
	"github.com/python-bale-bot/balego/receiver"
)

func TestWebhookAPI_SetWebhook(t *testing.T) {
	server := testutil.NewMockServer(t)
	server.OnBot("setWebhook", func(w http.ResponseWriter, r *http.Request) {
		testutil.ReplyBool(w, true)
	})

	api := receiver.NewWebhookAPI(nil, server.BaseURL(), testutil.TestToken)
	err := api.SetWebhook(context.Background(), "https://bot.example.com/webhook", "s3cret")

	require.NoError(t, err)
	c := server.LastCapture()
	c.AssertPath(t, testutil.BotPath("setWebhook"))
	c.AssertJSONField(t, "url", "https://bot.example.com/webhook")
	c.AssertJSONField(t, "secret_token", "s3cret")
}

func TestWebhookAPI_SetWebhook_NoSecret(t *testing.T) {
	server := testutil.NewMockServer(t)
	server.OnBot("setWebhook", func(w http.ResponseWriter, r *http.Request) {
		testutil.ReplyBool(w, true)
	})

	api := receiver.NewWebhookAPI(nil, server.BaseURL(), testutil.TestToken)
	require.NoError(t, api.SetWebhook(context.Background(), "https://bot.example.com/webhook", ""))

	server.LastCapture().AssertJSONFieldAbsent(t, "secret_token")
}

func TestWebhookAPI_SetWebhook_RejectsInsecureURL(t *testing.T) {
	server := testutil.NewMockServer(t)
	api := receiver.NewWebhookAPI(nil, server.BaseURL(), testutil.TestToken)

	err := api.SetWebhook(context.Background(), "http://bot.example.com/webhook", "")

	var vErr *bale.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "url", vErr.Field)
	assert.Equal(t, 0, server.CaptureCount())
}

func TestWebhookAPI_DeleteWebhook(t *testing.T) {
	server := testutil.NewMockServer(t)
	server.OnBot("deleteWebhook", func(w http.ResponseWriter, r *http.Request) {
		testutil.ReplyBool(w, true)
	})

	api := receiver.NewWebhookAPI(nil, server.BaseURL(), testutil.TestToken)
	require.NoError(t, api.DeleteWebhook(context.Background(), true))

	server.LastCapture().AssertJSONField(t, "drop_pending_updates", true)
}

func TestWebhookAPI_GetWebhookInfo(t *testing.T) {
	server := testutil.NewMockServer(t)
	server.OnBot("getWebhookInfo", func(w http.ResponseWriter, r *http.Request) {
		testutil.ReplyWebhookInfo(w, "https://bot.example.com/webhook", 3)
	})

	api := receiver.NewWebhookAPI(nil, server.BaseURL(), testutil.TestToken)
	info, err := api.GetWebhookInfo(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "https://bot.example.com/webhook", info.URL)
	assert.Equal(t, 3, info.PendingUpdateCount)
}

func TestWebhookAPI_Error(t *testing.T) {
	server := testutil.NewMockServer(t)
	server.OnBot("deleteWebhook", func(w http.ResponseWriter, r *http.Request) {
		testutil.ReplyForbidden(w, "Forbidden: bot was blocked")
	})

	api := receiver.NewWebhookAPI(nil, server.BaseURL(), testutil.TestToken)
	err := api.DeleteWebhook(context.Background(), false)

	assert.ErrorIs(t, err, bale.ErrForbidden)
}
