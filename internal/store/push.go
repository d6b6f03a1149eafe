package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/citypulse/citypulse/internal/model"
)

type PushStore struct {
	db *sql.DB
}

func NewPushStore(db *sql.DB) *PushStore {
	return &PushStore{db: db}
}

const pushCols = `id, user_id, endpoint, p256dh_key, auth_key, created_at`

func scanPushSubscription(scanner interface{ Scan(...any) error }) (*model.PushSubscription, error) {
	var ps model.PushSubscription
	err := scanner.Scan(&ps.ID, &ps.UserID, &ps.Endpoint, &ps.P256dhKey, &ps.AuthKey, &ps.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &ps, nil
}

// Upsert stores an endpoint registration. Re-registering a known endpoint is
// a no-op; endpoints are unique across users.
func (s *PushStore) Upsert(userID, endpoint, p256dhKey, authKey string) (*model.PushSubscription, error) {
	id := uuid.New().String()
	_, err := s.db.Exec(
		`INSERT INTO push_subscriptions (id, user_id, endpoint, p256dh_key, auth_key)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(endpoint) DO NOTHING`,
		id, userID, endpoint, p256dhKey, authKey,
	)
	if err != nil {
		return nil, fmt.Errorf("insert push subscription: %w", err)
	}
	return s.GetByEndpoint(endpoint)
}

func (s *PushStore) GetByEndpoint(endpoint string) (*model.PushSubscription, error) {
	row := s.db.QueryRow(`SELECT `+pushCols+` FROM push_subscriptions WHERE endpoint = ?`, endpoint)
	ps, err := scanPushSubscription(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get push subscription: %w", err)
	}
	return ps, nil
}

// DeleteForUser removes an endpoint only when it belongs to the given user.
// Reports whether a row was removed.
func (s *PushStore) DeleteForUser(userID, endpoint string) (bool, error) {
	result, err := s.db.Exec(
		`DELETE FROM push_subscriptions WHERE user_id = ? AND endpoint = ?`,
		userID, endpoint,
	)
	if err != nil {
		return false, fmt.Errorf("delete push subscription: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// DeleteByEndpoint removes a confirmed-dead endpoint.
func (s *PushStore) DeleteByEndpoint(endpoint string) error {
	_, err := s.db.Exec(`DELETE FROM push_subscriptions WHERE endpoint = ?`, endpoint)
	if err != nil {
		return fmt.Errorf("delete push subscription: %w", err)
	}
	return nil
}

// ListActiveByCity returns the endpoints of every user holding an active
// subscription to any plan of the city. This is the fan-out recipient set
// for a new edition.
func (s *PushStore) ListActiveByCity(cityID string) ([]model.PushSubscription, error) {
	rows, err := s.db.Query(
		`SELECT DISTINCT ps.id, ps.user_id, ps.endpoint, ps.p256dh_key, ps.auth_key, ps.created_at
		 FROM push_subscriptions ps
		 JOIN subscriptions s ON s.user_id = ps.user_id
		 JOIN plans p ON p.id = s.plan_id
		 WHERE p.city_id = ? AND s.status = ?`,
		cityID, model.SubStatusActive,
	)
	if err != nil {
		return nil, fmt.Errorf("list push subscriptions by city: %w", err)
	}
	defer rows.Close()

	var subs []model.PushSubscription
	for rows.Next() {
		ps, err := scanPushSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("scan push subscription: %w", err)
		}
		subs = append(subs, *ps)
	}
	return subs, rows.Err()
}
