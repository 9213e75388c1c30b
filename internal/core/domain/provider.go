package domain

import (
	"net/http"
	"time"
)

type CreateParams struct {
	Amount         int64
	Currency       string
	Metadata       map[string]string
	IdempotencyKey string
}

// ProviderOrder is the normalized view of an order on the provider side.
type ProviderOrder struct {
	ID                string
	Status            OrderStatus
	RawStatus         string
	ApprovalReference string
}

type Event struct {
	ID              string
	Type            string
	ProviderOrderID string
	NewStatus       OrderStatus
	// Recognized is false for events that carry no status for an order.
	Recognized bool
}

type Verification struct {
	Verified bool
	Reason   string
}

type WebhookOutcome string

const (
	WebhookApplied      WebhookOutcome = "applied"
	WebhookDuplicate    WebhookOutcome = "duplicate"
	WebhookUnknownOrder WebhookOutcome = "unknown_order"
	WebhookUnrecognized WebhookOutcome = "unrecognized"
	WebhookRejected     WebhookOutcome = "rejected_unverified"
	WebhookFailed       WebhookOutcome = "failed"
)

type Acknowledgement struct {
	Outcome  WebhookOutcome
	Verified bool
	Order    *Order
}

// WebhookRecord is one journaled webhook delivery.
type WebhookRecord struct {
	ID              string
	Provider        Provider
	EventID         string
	EventType       string
	ProviderOrderID string
	SignatureValid  bool
	Outcome         WebhookOutcome
	Payload         []byte
	Headers         http.Header
	ReceivedAt      time.Time
}
