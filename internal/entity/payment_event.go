package entity

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"time"
)

type PaymentProvider string

const (
	ProviderStripe PaymentProvider = "STRIPE"
	ProviderPaypal PaymentProvider = "PAYPAL"
)

// ParseProvider maps the {provider} URL segment to a known provider.
func ParseProvider(s string) (PaymentProvider, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "STRIPE":
		return ProviderStripe, nil
	case "PAYPAL":
		return ProviderPaypal, nil
	}
	return "", fmt.Errorf("unknown payment provider %q", s)
}

type PaymentEventStatus string

const (
	PaymentEventReceived PaymentEventStatus = "RECEIVED"
	PaymentEventVerified PaymentEventStatus = "VERIFIED"
	PaymentEventApplied  PaymentEventStatus = "APPLIED"
	PaymentEventRejected PaymentEventStatus = "REJECTED"
)

// IsTerminal reports whether the event can never change again.
func (s PaymentEventStatus) IsTerminal() bool {
	return s == PaymentEventApplied || s == PaymentEventRejected
}

// PaymentEvent is one normalized webhook delivery. ID is the
// provider-issued event id; (Provider, ID) is globally unique so
// replays of the same delivery can never double-apply.
type PaymentEvent struct {
	ID                    string             `json:"id"`
	Provider              PaymentProvider    `json:"provider"`
	ExternalTransactionID string             `json:"external_transaction_id"`
	LeadID                string             `json:"lead_id,omitempty"` // empty while unlinked
	AmountCents           int64              `json:"amount_cents"`
	Currency              string             `json:"currency"`
	OccurredAt            time.Time          `json:"occurred_at"`
	RawPayloadHash        string             `json:"raw_payload_hash"`
	Status                PaymentEventStatus `json:"status"`
	CreatedAt             time.Time          `json:"created_at"`
	UpdatedAt             time.Time          `json:"updated_at"`
}

// HashPayload fingerprints the raw webhook body for audit.
func HashPayload(raw []byte) string {
	sum := sha256.Sum256(raw)
	return fmt.Sprintf("%x", sum)
}
