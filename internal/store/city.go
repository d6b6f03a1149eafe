package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/citypulse/citypulse/internal/model"
)

type CityStore struct {
	db *sql.DB
}

func NewCityStore(db *sql.DB) *CityStore {
	return &CityStore{db: db}
}

const cityCols = `id, name, country, status, created_at`

func scanCity(scanner interface{ Scan(...any) error }) (*model.City, error) {
	var c model.City
	err := scanner.Scan(&c.ID, &c.Name, &c.Country, &c.Status, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *CityStore) Create(name, country string) (*model.City, error) {
	id := uuid.New().String()
	_, err := s.db.Exec(
		`INSERT INTO cities (id, name, country) VALUES (?, ?, ?)`,
		id, name, country,
	)
	if err != nil {
		return nil, fmt.Errorf("insert city: %w", err)
	}
	return s.GetByID(id)
}

func (s *CityStore) GetByID(id string) (*model.City, error) {
	row := s.db.QueryRow(`SELECT `+cityCols+` FROM cities WHERE id = ?`, id)
	c, err := scanCity(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get city: %w", err)
	}
	return c, nil
}

func (s *CityStore) List() ([]model.City, error) {
	rows, err := s.db.Query(`SELECT ` + cityCols + ` FROM cities ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list cities: %w", err)
	}
	defer rows.Close()

	var cities []model.City
	for rows.Next() {
		c, err := scanCity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan city: %w", err)
		}
		cities = append(cities, *c)
	}
	return cities, rows.Err()
}

// CityUpdate enumerates the updatable fields. Nil fields are left unchanged.
type CityUpdate struct {
	Name    *string
	Country *string
	Status  *string
}

// Update applies the non-nil fields and returns the updated row, or nil if
// the city does not exist or no fields were provided.
func (s *CityStore) Update(id string, u CityUpdate) (*model.City, error) {
	var sets []string
	var args []any
	if u.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *u.Name)
	}
	if u.Country != nil {
		sets = append(sets, "country = ?")
		args = append(args, *u.Country)
	}
	if u.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, *u.Status)
	}
	if len(sets) == 0 {
		return nil, nil
	}
	args = append(args, id)

	result, err := s.db.Exec(`UPDATE cities SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("update city: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return nil, nil
	}
	return s.GetByID(id)
}

// Delete removes a city. Returns false if no row matched.
func (s *CityStore) Delete(id string) (bool, error) {
	result, err := s.db.Exec(`DELETE FROM cities WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete city: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
