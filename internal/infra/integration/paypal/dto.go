package paypal

// Wire shapes for the PayPal webhook events we consume.

type webhookEvent struct {
	ID         string   `json:"id"`
	EventType  string   `json:"event_type"`
	CreateTime string   `json:"create_time"` // RFC3339
	Resource   resource `json:"resource"`
}

type resource struct {
	ID     string  `json:"id"`
	Amount *amount `json:"amount"`
	Payer  *payer  `json:"payer"`
}

// Captures carry value/currency_code; legacy sale events carry
// total/currency.
type amount struct {
	Value        string `json:"value"`
	CurrencyCode string `json:"currency_code"`
	Total        string `json:"total"`
	Currency     string `json:"currency"`
}

type payer struct {
	EmailAddress string     `json:"email_address"`
	PayerInfo    *payerInfo `json:"payer_info"`
}

type payerInfo struct {
	Email string `json:"email"`
}
