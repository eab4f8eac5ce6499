package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/tidwall/gjson"
)

// Webhook event names acted upon. Others are acknowledged and ignored.
const (
	EventPaymentLinkPaid      = "payment_link.paid"
	EventPaymentLinkExpired   = "payment_link.expired"
	EventPaymentLinkCancelled = "payment_link.cancelled"
)

// SignatureHeader carries the hex HMAC of the raw body.
const SignatureHeader = "X-Razorpay-Signature"

// ErrInvalidPayload is returned for a body that is not JSON.
var ErrInvalidPayload = errors.New("invalid webhook payload")

// Sign returns hex(HMAC-SHA256(body, secret)).
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks signature against the raw body in constant time.
func VerifySignature(body []byte, signature, secret string) bool {
	if secret == "" || signature == "" {
		return false
	}
	return hmac.Equal([]byte(Sign(body, secret)), []byte(signature))
}

// WebhookEvent is the part of a payment-link webhook we act on.
type WebhookEvent struct {
	Event         string
	HasEntity     bool
	ReferenceID   string
	PaymentLinkID string
	Status        string
}

// ParseWebhook extracts the event name and payment-link entity fields.
func ParseWebhook(body []byte) (WebhookEvent, error) {
	if !gjson.ValidBytes(body) {
		return WebhookEvent{}, ErrInvalidPayload
	}

	root := gjson.ParseBytes(body)
	entity := root.Get("payload.payment_link.entity")

	return WebhookEvent{
		Event:         root.Get("event").String(),
		HasEntity:     entity.IsObject(),
		ReferenceID:   entity.Get("reference_id").String(),
		PaymentLinkID: entity.Get("id").String(),
		Status:        entity.Get("status").String(),
	}, nil
}
