package model

import "time"

// Webhook event processing outcomes.
const (
	EventProcessed = "processed"
	EventSkipped   = "skipped"
	EventFailed    = "failed"
)

// WebhookEvent is an audit record for every signature-verified provider
// event, including ones that were dropped, so lost events stay visible.
type WebhookEvent struct {
	ID            string    `json:"id"`
	StripeEventID string    `json:"stripe_event_id"`
	EventType     string    `json:"event_type"`
	Status        string    `json:"status"`
	Detail        string    `json:"detail,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
