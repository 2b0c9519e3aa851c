package sender

import (
	"context"

	"github.com/python-bale-bot/balego/bale"
	"github.com/python-bale-bot/balego/internal/validate"
)

// SendInvoice sends a payment request. The provider token is a card
// number, a port and acceptor number, or a Bale wallet number.
func (c *Client) SendInvoice(ctx context.Context, req SendInvoiceRequest) (*bale.Message, error) {
	if err := validate.ChatID(req.ChatID); err != nil {
		return nil, err
	}
	if err := validate.InRange("title", len([]rune(req.Title)), 1, 32); err != nil {
		return nil, err
	}
	if err := validate.InRange("description", len([]rune(req.Description)), 1, 255); err != nil {
		return nil, err
	}
	if err := validate.Required("provider_token", req.ProviderToken); err != nil {
		return nil, err
	}
	if len(req.Prices) == 0 {
		return nil, validate.New("prices", "at least one price is required")
	}
	for i, p := range req.Prices {
		if p.Amount <= 0 {
			return nil, validate.Newf("prices", "item %d amount must be positive", i)
		}
	}
	return c.sendMessage(ctx, "sendInvoice", req.ChatID, req)
}
