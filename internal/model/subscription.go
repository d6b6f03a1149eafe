package model

import "time"

// Subscription statuses mirror the payment provider's lifecycle vocabulary.
const (
	SubStatusActive   = "active"
	SubStatusPastDue  = "past_due"
	SubStatusCanceled = "canceled"
)

// Subscription rows are created and mutated only by webhook reconciliation,
// keyed by the provider's subscription identifier. LastEventAt records the
// provider unix timestamp of the most recently applied event so stale events
// can be rejected; zero means no event has been applied yet.
type Subscription struct {
	ID                   string     `json:"id"`
	UserID               string     `json:"user_id"`
	PlanID               string     `json:"plan_id"`
	StripeSubscriptionID string     `json:"stripe_subscription_id"`
	StripeCustomerID     string     `json:"stripe_customer_id,omitempty"`
	Status               string     `json:"status"`
	CurrentPeriodEnd     *time.Time `json:"current_period_end,omitempty"`
	LastEventAt          int64      `json:"-"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}
