package stripe

// Wire shapes for the Stripe webhook events we consume. Only the
// fields the reconciliation pipeline needs are decoded.

type webhookEvent struct {
	ID      string    `json:"id"`
	Type    string    `json:"type"`
	Created int64     `json:"created"` // unix seconds
	Data    eventData `json:"data"`
}

type eventData struct {
	Object eventObject `json:"object"`
}

type eventObject struct {
	ID              string           `json:"id"`
	AmountTotal     *int64           `json:"amount_total"` // checkout sessions
	Amount          *int64           `json:"amount"`       // payment intents
	Currency        string           `json:"currency"`
	ReceiptEmail    string           `json:"receipt_email"`
	CustomerDetails *customerDetails `json:"customer_details"`
}

type customerDetails struct {
	Email string `json:"email"`
}
