package sender_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/python-bale-bot/balego/bale"
	"github.com/python-bale-bot/balego/internal/testutil"
	"github.com/python-bale-bot/balego/sender"
)

func validInvoice() sender.SendInvoiceRequest {
	return sender.SendInvoiceRequest{
		ChatID:        testutil.TestChatID,
		Title:         "Premium",
		Description:   "One month of premium access",
		ProviderToken: "6037990000000000",
		Prices:        []bale.LabeledPrice{{Label: "month", Amount: 150000}},
		Payload:       "order-1",
	}
}

func TestSendInvoice(t *testing.T) {
	server := testutil.NewMockServer(t)
	client := testutil.NewTestClient(t, server.BaseURL())

	_, err := client.SendInvoice(context.Background(), validInvoice())

	require.NoError(t, err)
	got := server.LastCapture()
	got.AssertPath(t, testutil.BotPath("sendInvoice"))
	got.AssertJSONField(t, "provider_token", "6037990000000000")
	got.AssertJSONField(t, "payload", "order-1")

	var body struct {
		Prices []bale.LabeledPrice `json:"prices"`
	}
	got.BodyJSON(t, &body)
	assert.Equal(t, []bale.LabeledPrice{{Label: "month", Amount: 150000}}, body.Prices)
}

func TestSendInvoice_Validation(t *testing.T) {
	server := testutil.NewMockServer(t)
	client := testutil.NewTestClient(t, server.BaseURL())

	tests := []struct {
		name   string
		mutate func(r *sender.SendInvoiceRequest)
		field  string
	}{
		{"empty title", func(r *sender.SendInvoiceRequest) { r.Title = "" }, "title"},
		{"long title", func(r *sender.SendInvoiceRequest) { r.Title = strings.Repeat("t", 33) }, "title"},
		{"long description", func(r *sender.SendInvoiceRequest) { r.Description = strings.Repeat("d", 256) }, "description"},
		{"no provider", func(r *sender.SendInvoiceRequest) { r.ProviderToken = "" }, "provider_token"},
		{"no prices", func(r *sender.SendInvoiceRequest) { r.Prices = nil }, "prices"},
		{"zero amount", func(r *sender.SendInvoiceRequest) { r.Prices[0].Amount = 0 }, "prices"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validInvoice()
			tt.mutate(&req)

			_, err := client.SendInvoice(context.Background(), req)

			var vErr *bale.ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
	assert.Equal(t, 0, server.CaptureCount())
}
