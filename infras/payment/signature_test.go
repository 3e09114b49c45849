package payment_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"kbox/infras/payment"
)

func TestVerifyWebhookSignature(t *testing.T) {
	secret := "whsec_test"
	body := []byte(`{"id":"evt_1","type":"payment_intent.succeeded"}`)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("valid signature", func(t *testing.T) {
		header := payment.SignWebhookPayload(body, secret, now)

		err := payment.VerifyWebhookSignature(body, header, secret, now)

		assert.NoError(t, err)
	})

	t.Run("tampered body", func(t *testing.T) {
		header := payment.SignWebhookPayload(body, secret, now)

		err := payment.VerifyWebhookSignature([]byte(`{"id":"evt_2"}`), header, secret, now)

		assert.ErrorIs(t, err, payment.ErrInvalidSignature)
	})

	t.Run("wrong secret", func(t *testing.T) {
		header := payment.SignWebhookPayload(body, "whsec_other", now)

		err := payment.VerifyWebhookSignature(body, header, secret, now)

		assert.ErrorIs(t, err, payment.ErrInvalidSignature)
	})

	t.Run("stale timestamp", func(t *testing.T) {
		header := payment.SignWebhookPayload(body, secret, now.Add(-10*time.Minute))

		err := payment.VerifyWebhookSignature(body, header, secret, now)

		assert.ErrorIs(t, err, payment.ErrStaleTimestamp)
	})

	t.Run("future timestamp outside tolerance", func(t *testing.T) {
		header := payment.SignWebhookPayload(body, secret, now.Add(10*time.Minute))

		err := payment.VerifyWebhookSignature(body, header, secret, now)

		assert.ErrorIs(t, err, payment.ErrStaleTimestamp)
	})

	t.Run("malformed header", func(t *testing.T) {
		err := payment.VerifyWebhookSignature(body, "not-a-signature", secret, now)

		assert.ErrorIs(t, err, payment.ErrInvalidSignature)
	})

	t.Run("missing v1 component", func(t *testing.T) {
		err := payment.VerifyWebhookSignature(body, "t=1748779200", secret, now)

		assert.ErrorIs(t, err, payment.ErrInvalidSignature)
	})
}
