package bale

// LabeledPrice is a portion of the price of goods or services.
type LabeledPrice struct {
	Label  string `json:"label"`
	Amount int    `json:"amount"` // in rials
}

// Invoice describes an invoice sent to a chat.
type Invoice struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	StartParameter string `json:"start_parameter,omitempty"`
	Currency       string `json:"currency"`
	TotalAmount    int    `json:"total_amount"`
}

// SuccessfulPayment is attached to the service message of a paid invoice.
type SuccessfulPayment struct {
	Currency                string `json:"currency"`
	TotalAmount             int    `json:"total_amount"`
	InvoicePayload          string `json:"invoice_payload"`
	TelegramPaymentChargeID string `json:"telegram_payment_charge_id,omitempty"`
	ProviderPaymentChargeID string `json:"provider_payment_charge_id,omitempty"`
}
