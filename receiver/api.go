package receiver

import (
	"context"
	"net/http"

	"github.com/python-bale-bot/balego/bale"
	"github.com/python-bale-bot/balego/internal/httpclient"
	"github.com/python-bale-bot/balego/internal/validate"
)

// WebhookAPI manages the webhook registration of a bot.
type WebhookAPI struct {
	caller *httpclient.Caller
}

// NewWebhookAPI creates a WebhookAPI. A nil client uses the default
// HTTP client; an empty baseURL uses the public Bale API.
func NewWebhookAPI(client *http.Client, baseURL string, token bale.SecretToken) *WebhookAPI {
	return &WebhookAPI{caller: httpclient.NewCaller(client, baseURL, token)}
}

type setWebhookRequest struct {
	URL         string `json:"url"`
	SecretToken string `json:"secret_token,omitempty"`
}

type deleteWebhookRequest struct {
	DropPendingUpdates bool `json:"drop_pending_updates,omitempty"`
}

// SetWebhook registers a webhook URL with Bale. The URL must use HTTPS.
func (a *WebhookAPI) SetWebhook(ctx context.Context, url, secret string) error {
	if err := validate.WebhookURL(url); err != nil {
		return err
	}
	return a.caller.CallJSON(ctx, "setWebhook", setWebhookRequest{URL: url, SecretToken: secret}, nil)
}

// DeleteWebhook removes the webhook from Bale.
func (a *WebhookAPI) DeleteWebhook(ctx context.Context, dropPending bool) error {
	return a.caller.CallJSON(ctx, "deleteWebhook", deleteWebhookRequest{DropPendingUpdates: dropPending}, nil)
}

// GetWebhookInfo retrieves the current webhook configuration.
func (a *WebhookAPI) GetWebhookInfo(ctx context.Context) (*bale.WebhookInfo, error) {
	var info bale.WebhookInfo
	if err := a.caller.CallJSON(ctx, "getWebhookInfo", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}
