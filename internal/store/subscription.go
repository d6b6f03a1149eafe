package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/citypulse/citypulse/internal/model"
)

type SubscriptionStore struct {
	db *sql.DB
}

func NewSubscriptionStore(db *sql.DB) *SubscriptionStore {
	return &SubscriptionStore{db: db}
}

const subscriptionCols = `id, user_id, plan_id, stripe_subscription_id, stripe_customer_id, status, current_period_end, last_event_at, created_at, updated_at`

func scanSubscription(scanner interface{ Scan(...any) error }) (*model.Subscription, error) {
	var sub model.Subscription
	var periodEnd sql.NullTime
	err := scanner.Scan(
		&sub.ID, &sub.UserID, &sub.PlanID, &sub.StripeSubscriptionID, &sub.StripeCustomerID,
		&sub.Status, &periodEnd, &sub.LastEventAt, &sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if periodEnd.Valid {
		sub.CurrentPeriodEnd = &periodEnd.Time
	}
	return &sub, nil
}

// CreateFromCheckout inserts a new active subscription keyed by the
// provider's subscription identifier. Replaying the same checkout event is a
// no-op: the provider id is the deduplication key, so exactly one row exists
// per provider subscription regardless of delivery count. Returns whether a
// row was actually created.
func (s *SubscriptionStore) CreateFromCheckout(userID, planID, stripeSubID, stripeCustomerID string, periodEnd time.Time, eventAt int64) (bool, error) {
	id := uuid.New().String()
	result, err := s.db.Exec(
		`INSERT INTO subscriptions (id, user_id, plan_id, stripe_subscription_id, stripe_customer_id, status, current_period_end, last_event_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(stripe_subscription_id) DO NOTHING`,
		id, userID, planID, stripeSubID, stripeCustomerID, model.SubStatusActive,
		sql.NullTime{Time: periodEnd, Valid: !periodEnd.IsZero()}, eventAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert subscription: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// ApplyProviderUpdate overwrites status and period end for the subscription
// with the given provider id. An unknown id is a harmless no-op, and an event
// older than the last applied one is rejected rather than applied out of
// order. Returns whether the update took effect.
func (s *SubscriptionStore) ApplyProviderUpdate(stripeSubID, status string, periodEnd *time.Time, eventAt int64) (bool, error) {
	var pe sql.NullTime
	if periodEnd != nil {
		pe = sql.NullTime{Time: *periodEnd, Valid: true}
	}
	result, err := s.db.Exec(
		`UPDATE subscriptions
		 SET status = ?, current_period_end = ?, last_event_at = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE stripe_subscription_id = ? AND last_event_at <= ?`,
		status, pe, eventAt, stripeSubID, eventAt,
	)
	if err != nil {
		return false, fmt.Errorf("apply provider update: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (s *SubscriptionStore) GetByStripeID(stripeSubID string) (*model.Subscription, error) {
	row := s.db.QueryRow(
		`SELECT `+subscriptionCols+` FROM subscriptions WHERE stripe_subscription_id = ?`,
		stripeSubID,
	)
	sub, err := scanSubscription(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get subscription by stripe id: %w", err)
	}
	return sub, nil
}

func (s *SubscriptionStore) ListByUser(userID string) ([]model.Subscription, error) {
	rows, err := s.db.Query(
		`SELECT `+subscriptionCols+` FROM subscriptions WHERE user_id = ? ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []model.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		subs = append(subs, *sub)
	}
	return subs, rows.Err()
}

// CountActiveByCity counts active subscriptions across all of a city's plans.
func (s *SubscriptionStore) CountActiveByCity(cityID string) (int, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*)
		 FROM subscriptions s
		 JOIN plans p ON p.id = s.plan_id
		 WHERE p.city_id = ? AND s.status = ?`,
		cityID, model.SubStatusActive,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count active subscriptions: %w", err)
	}
	return n, nil
}
