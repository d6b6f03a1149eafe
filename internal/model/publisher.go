package model

import "time"

const (
	LicenseActive    = "active"
	LicenseSuspended = "suspended"
	LicenseExpired   = "expired"
)

// ValidLicenseStatus reports whether s is a known license status.
func ValidLicenseStatus(s string) bool {
	switch s {
	case LicenseActive, LicenseSuspended, LicenseExpired:
		return true
	}
	return false
}

// Publisher holds the license for one city. A city has at most one publisher.
type Publisher struct {
	ID            string    `json:"id"`
	CityID        string    `json:"city_id"`
	Name          string    `json:"name"`
	LicenseStatus string    `json:"license_status"`
	OwnerID       string    `json:"owner_id"`
	CreatedAt     time.Time `json:"created_at"`

	// CityName is populated by listing joins.
	CityName string `json:"city_name,omitempty"`
}
