package model

import "time"

const (
	EditionDraft     = "draft"
	EditionPublished = "published"
)

type Edition struct {
	ID          string     `json:"id"`
	PublisherID string     `json:"publisher_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	PDFURL      string     `json:"pdf_url"`
	CoverURL    string     `json:"cover_url,omitempty"`
	Status      string     `json:"status"`
	PublishDate *time.Time `json:"publish_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Populated by the public read join.
	PublisherName string `json:"publisher_name,omitempty"`
	CityName      string `json:"city_name,omitempty"`
}
