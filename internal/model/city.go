package model

import "time"

const (
	CityStatusActive   = "active"
	CityStatusInactive = "inactive"
)

// City is the tenant unit. Publishers, plans, and editions are scoped to it.
type City struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Country   string    `json:"country"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}
