package paypal

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/globaltierra/crm-api/internal/usecase"
)

const SignatureHeader = "Paypal-Transmission-Sig"

var appliedEventTypes = map[string]bool{
	"PAYMENT.CAPTURE.COMPLETED": true,
	"PAYMENT.SALE.COMPLETED":    true,
}

type Webhook struct {
	secret []byte
}

func NewWebhook(secret string) *Webhook {
	return &Webhook{secret: []byte(secret)}
}

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
		return nil, fmt.Errorf("decode paypal event: %w", err)
	}
	if event.ID == "" {
		return nil, errors.New("paypal event has no id")
	}

	var amountCents int64
	var currency string
	if event.Resource.Amount != nil {
		value := event.Resource.Amount.Value
		currency = event.Resource.Amount.CurrencyCode
		if value == "" {
			value = event.Resource.Amount.Total
			currency = event.Resource.Amount.Currency
		}
		cents, err := parseDecimalCents(value)
		if err != nil {
			return nil, fmt.Errorf("paypal amount %q: %w", value, err)
		}
		amountCents = cents
	}

	var email string
	if event.Resource.Payer != nil {
		email = event.Resource.Payer.EmailAddress
		if email == "" && event.Resource.Payer.PayerInfo != nil {
			email = event.Resource.Payer.PayerInfo.Email
		}
	}

	occurredAt, err := time.Parse(time.RFC3339, event.CreateTime)
	if err != nil {
		return nil, fmt.Errorf("paypal create_time %q: %w", event.CreateTime, err)
	}

	return &usecase.NormalizedEvent{
		EventID:               event.ID,
		EventType:             event.EventType,
		ExternalTransactionID: event.Resource.ID,
		PayerEmail:            email,
		AmountCents:           amountCents,
		Currency:              strings.ToUpper(currency),
		OccurredAt:            occurredAt.UTC(),
		Known:                 appliedEventTypes[event.EventType],
	}, nil
}

// parseDecimalCents converts PayPal's decimal string ("125.00") into
// minor units without going through floats.
func parseDecimalCents(value string) (int64, error) {
	if value == "" {
		return 0, nil
	}

	negative := strings.HasPrefix(value, "-")
	value = strings.TrimPrefix(value, "-")

	whole, frac, _ := strings.Cut(value, ".")
	if whole == "" {
		whole = "0"
	}
	switch len(frac) {
	case 0:
		frac = "00"
	case 1:
		frac += "0"
	case 2:
	default:
		frac = frac[:2]
	}

	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, err
	}
	cents, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, err
	}

	total := units*100 + cents
	if negative {
		total = -total
	}
	return total, nil
}
