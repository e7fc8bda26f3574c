package entity

import (
	"time"

	"github.com/google/uuid"
)

type MessageKind string

const (
	MessageLeadCaptured   MessageKind = "LEAD_CAPTURED"
	MessagePaymentApplied MessageKind = "PAYMENT_APPLIED"
)

// MessageEvent records one outbound notification that actually went
// out, so the dashboard can count messages per period.
type MessageEvent struct {
	ID        string      `json:"id"`
	LeadID    string      `json:"lead_id,omitempty"`
	Kind      MessageKind `json:"kind"`
	Recipient string      `json:"recipient"`
	SentAt    time.Time   `json:"sent_at"`
}

func NewMessageEvent(leadID string, kind MessageKind, recipient string) *MessageEvent {
	return &MessageEvent{
		ID:        uuid.New().String(),
		LeadID:    leadID,
		Kind:      kind,
		Recipient: recipient,
		SentAt:    time.Now().UTC(),
	}
}
