package paypal

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestPaypalSignatureVerification(t *testing.T) {
	w := NewWebhook("pp-secret")
	body := []byte(`{"id":"WH-1"}`)

	headers := http.Header{}
	headers.Set("Paypal-Transmission-Sig", sign("pp-secret", body))
	assert.NoError(t, w.VerifySignature(body, headers))

	assert.Error(t, w.VerifySignature(body, http.Header{}))
}

func TestPaypalNormalizeCapture(t *testing.T) {
	w := NewWebhook("pp-secret")

	payload := []byte(`{
		"id": "WH-2WR32451HC0233532",
		"event_type": "PAYMENT.CAPTURE.COMPLETED",
		"create_time": "2026-08-01T10:00:00Z",
		"resource": {
			"id": "8RS65712JC5549712",
			"amount": {"value": "125.00", "currency_code": "USD"},
			"payer": {"email_address": "ana@x.com"}
		}
	}`)

	norm, err := w.Normalize(payload)
	assert.NoError(t, err)
	assert.Equal(t, "WH-2WR32451HC0233532", norm.EventID)
	assert.Equal(t, "8RS65712JC5549712", norm.ExternalTransactionID)
	assert.Equal(t, "ana@x.com", norm.PayerEmail)
	assert.Equal(t, int64(12500), norm.AmountCents)
	assert.Equal(t, "USD", norm.Currency)
	assert.True(t, norm.Known)
}

func TestPaypalNormalizeLegacySale(t *testing.T) {
	w := NewWebhook("pp-secret")

	payload := []byte(`{
		"id": "WH-3",
		"event_type": "PAYMENT.SALE.COMPLETED",
		"create_time": "2026-08-01T10:00:00Z",
		"resource": {
			"id": "SALE-1",
			"amount": {"total": "49.90", "currency": "cop"},
			"payer": {"payer_info": {"email": "ana@x.com"}}
		}
	}`)

	norm, err := w.Normalize(payload)
	assert.NoError(t, err)
	assert.Equal(t, int64(4990), norm.AmountCents)
	assert.Equal(t, "COP", norm.Currency)
	assert.Equal(t, "ana@x.com", norm.PayerEmail)
}

func TestParseDecimalCents(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"125.00", 12500},
		{"0.99", 99},
		{"10", 1000},
		{"10.5", 1050},
		{"-3.25", -325},
		{"", 0},
	}

	for _, c := range cases {
		got, err := parseDecimalCents(c.in)
		assert.NoError(t, err, c.in)
		assert.Equal(t, c.want, got, c.in)
	}

	_, err := parseDecimalCents("abc")
	assert.Error(t, err)
}
