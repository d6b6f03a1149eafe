package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/citypulse/citypulse/internal/model"
)

var (
	// ErrCityHasPublisher is returned when the target city is already claimed.
	ErrCityHasPublisher = errors.New("city already has a publisher")
	// ErrEmailTaken is returned when the owner email is already registered.
	ErrEmailTaken = errors.New("email already registered")
)

type PublisherStore struct {
	db *sql.DB
}

func NewPublisherStore(db *sql.DB) *PublisherStore {
	return &PublisherStore{db: db}
}

const publisherCols = `id, city_id, name, license_status, owner_id, created_at`

func scanPublisher(scanner interface{ Scan(...any) error }) (*model.Publisher, error) {
	var p model.Publisher
	err := scanner.Scan(&p.ID, &p.CityID, &p.Name, &p.LicenseStatus, &p.OwnerID, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateWithOwner creates the owner user and the publisher in one
// transaction. Either both rows exist afterwards or neither does. The city
// uniqueness and email checks run inside the same transaction so no partial
// state is observable.
func (s *PublisherStore) CreateWithOwner(cityID, name, email, passwordHash, licenseStatus string) (*model.Publisher, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var n int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM publishers WHERE city_id = ?`, cityID).Scan(&n); err != nil {
		return nil, fmt.Errorf("check city publisher: %w", err)
	}
	if n > 0 {
		return nil, ErrCityHasPublisher
	}

	if err := tx.QueryRow(`SELECT COUNT(*) FROM users WHERE email = ?`, email).Scan(&n); err != nil {
		return nil, fmt.Errorf("check owner email: %w", err)
	}
	if n > 0 {
		return nil, ErrEmailTaken
	}

	ownerID := uuid.New().String()
	_, err = tx.Exec(
		`INSERT INTO users (id, email, password_hash, full_name, role) VALUES (?, ?, ?, ?, ?)`,
		ownerID, email, passwordHash, name, model.RolePublisher,
	)
	if err != nil {
		return nil, fmt.Errorf("insert owner: %w", err)
	}

	pubID := uuid.New().String()
	_, err = tx.Exec(
		`INSERT INTO publishers (id, city_id, name, license_status, owner_id) VALUES (?, ?, ?, ?, ?)`,
		pubID, cityID, name, licenseStatus, ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert publisher: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(pubID)
}

func (s *PublisherStore) GetByID(id string) (*model.Publisher, error) {
	row := s.db.QueryRow(`SELECT `+publisherCols+` FROM publishers WHERE id = ?`, id)
	p, err := scanPublisher(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get publisher: %w", err)
	}
	return p, nil
}

func (s *PublisherStore) GetByCityID(cityID string) (*model.Publisher, error) {
	row := s.db.QueryRow(`SELECT `+publisherCols+` FROM publishers WHERE city_id = ?`, cityID)
	p, err := scanPublisher(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get publisher by city: %w", err)
	}
	return p, nil
}

func (s *PublisherStore) GetByOwnerID(ownerID string) (*model.Publisher, error) {
	row := s.db.QueryRow(`SELECT `+publisherCols+` FROM publishers WHERE owner_id = ?`, ownerID)
	p, err := scanPublisher(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get publisher by owner: %w", err)
	}
	return p, nil
}

// List returns all publishers with their city names, ordered by city.
func (s *PublisherStore) List() ([]model.Publisher, error) {
	rows, err := s.db.Query(
		`SELECT p.id, p.city_id, p.name, p.license_status, p.owner_id, p.created_at, c.name
		 FROM publishers p JOIN cities c ON c.id = p.city_id
		 ORDER BY c.name ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list publishers: %w", err)
	}
	defer rows.Close()

	var pubs []model.Publisher
	for rows.Next() {
		var p model.Publisher
		if err := rows.Scan(&p.ID, &p.CityID, &p.Name, &p.LicenseStatus, &p.OwnerID, &p.CreatedAt, &p.CityName); err != nil {
			return nil, fmt.Errorf("scan publisher: %w", err)
		}
		pubs = append(pubs, p)
	}
	return pubs, rows.Err()
}

// PublisherUpdate enumerates the updatable fields. Nil fields are left unchanged.
type PublisherUpdate struct {
	Name          *string
	LicenseStatus *string
}

func (s *PublisherStore) Update(id string, u PublisherUpdate) (*model.Publisher, error) {
	var sets []string
	var args []any
	if u.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *u.Name)
	}
	if u.LicenseStatus != nil {
		sets = append(sets, "license_status = ?")
		args = append(args, *u.LicenseStatus)
	}
	if len(sets) == 0 {
		return nil, nil
	}
	args = append(args, id)

	result, err := s.db.Exec(`UPDATE publishers SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("update publisher: %w", err)
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
