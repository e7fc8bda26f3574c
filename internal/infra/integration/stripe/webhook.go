package stripe

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/globaltierra/crm-api/internal/usecase"
)

const SignatureHeader = "Stripe-Signature"

// Event types that represent a completed payment. Anything else is
// stored as RECEIVED and never applied.
var appliedEventTypes = map[string]bool{
	"checkout.session.completed": true,
	"payment_intent.succeeded":   true,
}

type Webhook struct {
	secret []byte
}

func NewWebhook(secret string) *Webhook {
	return &Webhook{secret: []byte(secret)}
}

// VerifySignature checks the hex HMAC-SHA256 of the raw body carried
// in the Stripe-Signature header.
func (w *Webhook) VerifySignature(payload []byte, headers http.Header) error {
	sig := headers.Get(SignatureHeader)
	if sig == "" {
		return errors.New("missing " + SignatureHeader + " header")
	}

	mac := hmac.New(sha256.New, w.secret)
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(sig)) {
		return errors.New("signature mismatch")
	}
	return nil
}

func (w *Webhook) Normalize(payload []byte) (*usecase.NormalizedEvent, error) {
	var event webhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("decode stripe event: %w", err)
	}
	if event.ID == "" {
		return nil, errors.New("stripe event has no id")
	}

	var amount int64
	switch {
	case event.Data.Object.AmountTotal != nil:
		amount = *event.Data.Object.AmountTotal
	case event.Data.Object.Amount != nil:
		amount = *event.Data.Object.Amount
	}

	email := event.Data.Object.ReceiptEmail
	if email == "" && event.Data.Object.CustomerDetails != nil {
		email = event.Data.Object.CustomerDetails.Email
	}

	return &usecase.NormalizedEvent{
		EventID:               event.ID,
		EventType:             event.Type,
		ExternalTransactionID: event.Data.Object.ID,
		PayerEmail:            email,
		AmountCents:           amount,
		Currency:              strings.ToUpper(event.Data.Object.Currency),
		OccurredAt:            time.Unix(event.Created, 0).UTC(),
		Known:                 appliedEventTypes[event.Type],
	}, nil
}
