package model

import "time"

const (
	IntervalMonth = "month"
	IntervalYear  = "year"
)

// Plan is a metered subscription offering for one city. Price is in minor
// currency units. Plans are deactivated, never hard-deleted, so subscription
// rows keep a valid billing reference.
type Plan struct {
	ID            string    `json:"id"`
	CityID        string    `json:"city_id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	PriceAmount   int64     `json:"price_amount"`
	Interval      string    `json:"interval"`
	StripePriceID string    `json:"stripe_price_id"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
}
