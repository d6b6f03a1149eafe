package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/citypulse/citypulse/internal/model"
)

// WebhookEventStore is the audit trail for signature-verified provider
// events, including ones that were dropped. Without it a failed or skipped
// reconciliation would vanish silently.
type WebhookEventStore struct {
	db *sql.DB
}

func NewWebhookEventStore(db *sql.DB) *WebhookEventStore {
	return &WebhookEventStore{db: db}
}

// Record stores the processing outcome for one provider event. A redelivered
// event updates the existing record rather than creating a second one.
func (s *WebhookEventStore) Record(stripeEventID, eventType, status, detail string) error {
	id := uuid.New().String()
	_, err := s.db.Exec(
		`INSERT INTO webhook_events (id, stripe_event_id, event_type, status, detail)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(stripe_event_id) DO UPDATE SET status = excluded.status, detail = excluded.detail`,
		id, stripeEventID, eventType, status, detail,
	)
	if err != nil {
		return fmt.Errorf("record webhook event: %w", err)
	}
	return nil
}

func (s *WebhookEventStore) GetByStripeEventID(stripeEventID string) (*model.WebhookEvent, error) {
	row := s.db.QueryRow(
		`SELECT id, stripe_event_id, event_type, status, detail, created_at
		 FROM webhook_events WHERE stripe_event_id = ?`, stripeEventID)
	var e model.WebhookEvent
	err := row.Scan(&e.ID, &e.StripeEventID, &e.EventType, &e.Status, &e.Detail, &e.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get webhook event: %w", err)
	}
	return &e, nil
}

// ListByStatus returns events with the given processing outcome, newest
// first, for operational review of dropped or failed events.
func (s *WebhookEventStore) ListByStatus(status string, limit int) ([]model.WebhookEvent, error) {
	rows, err := s.db.Query(
		`SELECT id, stripe_event_id, event_type, status, detail, created_at
		 FROM webhook_events WHERE status = ? ORDER BY created_at DESC LIMIT ?`,
		status, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list webhook events: %w", err)
	}
	defer rows.Close()

	var events []model.WebhookEvent
	for rows.Next() {
		var e model.WebhookEvent
		if err := rows.Scan(&e.ID, &e.StripeEventID, &e.EventType, &e.Status, &e.Detail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan webhook event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
