package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/citypulse/citypulse/internal/model"
)

type PlanStore struct {
	db *sql.DB
}

func NewPlanStore(db *sql.DB) *PlanStore {
	return &PlanStore{db: db}
}

const planCols = `id, city_id, name, description, price_amount, interval, stripe_price_id, is_active, created_at`

func scanPlan(scanner interface{ Scan(...any) error }) (*model.Plan, error) {
	var p model.Plan
	var active int
	err := scanner.Scan(&p.ID, &p.CityID, &p.Name, &p.Description, &p.PriceAmount, &p.Interval, &p.StripePriceID, &active, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	p.IsActive = active != 0
	return &p, nil
}

func (s *PlanStore) Create(cityID, name, description string, priceAmount int64, interval, stripePriceID string) (*model.Plan, error) {
	id := uuid.New().String()
	_, err := s.db.Exec(
		`INSERT INTO plans (id, city_id, name, description, price_amount, interval, stripe_price_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, cityID, name, description, priceAmount, interval, stripePriceID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert plan: %w", err)
	}
	return s.GetByID(id)
}

func (s *PlanStore) GetByID(id string) (*model.Plan, error) {
	row := s.db.QueryRow(`SELECT `+planCols+` FROM plans WHERE id = ?`, id)
	p, err := scanPlan(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get plan: %w", err)
	}
	return p, nil
}

// GetOwned returns the plan only when it belongs to the given city.
// Absence and out-of-scope are indistinguishable to the caller.
func (s *PlanStore) GetOwned(id, cityID string) (*model.Plan, error) {
	row := s.db.QueryRow(`SELECT `+planCols+` FROM plans WHERE id = ? AND city_id = ?`, id, cityID)
	p, err := scanPlan(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get owned plan: %w", err)
	}
	return p, nil
}

// ListByCity returns all plans for the city, newest first, including
// deactivated ones. Used by the publisher dashboard.
func (s *PlanStore) ListByCity(cityID string) ([]model.Plan, error) {
	return s.listPlans(
		`SELECT `+planCols+` FROM plans WHERE city_id = ? ORDER BY created_at DESC`, cityID)
}

// ListActiveByCity returns active plans ordered by price, cheapest first.
// This is the public pricing listing; deactivated plans never appear here.
func (s *PlanStore) ListActiveByCity(cityID string) ([]model.Plan, error) {
	return s.listPlans(
		`SELECT `+planCols+` FROM plans WHERE city_id = ? AND is_active = 1 ORDER BY price_amount ASC`, cityID)
}

func (s *PlanStore) listPlans(query string, args ...any) ([]model.Plan, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()

	var plans []model.Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		plans = append(plans, *p)
	}
	return plans, rows.Err()
}

// Deactivate soft-deletes a plan. Plans referenced by subscriptions are never
// hard-deleted so billing history keeps resolving.
func (s *PlanStore) Deactivate(id string) error {
	_, err := s.db.Exec(`UPDATE plans SET is_active = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deactivate plan: %w", err)
	}
	return nil
}
