package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/citypulse/citypulse/internal/model"
)

type EditionStore struct {
	db *sql.DB
}

func NewEditionStore(db *sql.DB) *EditionStore {
	return &EditionStore{db: db}
}

const editionCols = `id, publisher_id, title, description, pdf_url, cover_url, status, publish_date, created_at, updated_at`

func scanEdition(scanner interface{ Scan(...any) error }) (*model.Edition, error) {
	var e model.Edition
	var publishDate sql.NullTime
	err := scanner.Scan(&e.ID, &e.PublisherID, &e.Title, &e.Description, &e.PDFURL, &e.CoverURL, &e.Status, &publishDate, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if publishDate.Valid {
		e.PublishDate = &publishDate.Time
	}
	return &e, nil
}

func (s *EditionStore) Create(publisherID, title, description, pdfURL, coverURL string, publishDate *time.Time) (*model.Edition, error) {
	id := uuid.New().String()
	var pd sql.NullTime
	if publishDate != nil {
		pd = sql.NullTime{Time: *publishDate, Valid: true}
	}
	_, err := s.db.Exec(
		`INSERT INTO editions (id, publisher_id, title, description, pdf_url, cover_url, publish_date)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, publisherID, title, description, pdfURL, coverURL, pd,
	)
	if err != nil {
		return nil, fmt.Errorf("insert edition: %w", err)
	}
	return s.GetByID(id)
}

func (s *EditionStore) GetByID(id string) (*model.Edition, error) {
	row := s.db.QueryRow(`SELECT `+editionCols+` FROM editions WHERE id = ?`, id)
	e, err := scanEdition(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get edition: %w", err)
	}
	return e, nil
}

// GetPublic returns the edition with publisher and city names joined in,
// for the public read endpoint. Drafts are invisible here; they only exist
// through the owner's city-scoped reads.
func (s *EditionStore) GetPublic(id string) (*model.Edition, error) {
	row := s.db.QueryRow(
		`SELECT e.id, e.publisher_id, e.title, e.description, e.pdf_url, e.cover_url, e.status,
		        e.publish_date, e.created_at, e.updated_at, p.name, c.name
		 FROM editions e
		 JOIN publishers p ON p.id = e.publisher_id
		 JOIN cities c ON c.id = p.city_id
		 WHERE e.id = ? AND e.status = ?`, id, model.EditionPublished)

	var e model.Edition
	var publishDate sql.NullTime
	err := row.Scan(&e.ID, &e.PublisherID, &e.Title, &e.Description, &e.PDFURL, &e.CoverURL, &e.Status,
		&publishDate, &e.CreatedAt, &e.UpdatedAt, &e.PublisherName, &e.CityName)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get public edition: %w", err)
	}
	if publishDate.Valid {
		e.PublishDate = &publishDate.Time
	}
	return &e, nil
}

// GetOwned returns the edition only when its publisher belongs to the given
// city. Out-of-scope editions look exactly like missing ones.
func (s *EditionStore) GetOwned(id, cityID string) (*model.Edition, error) {
	row := s.db.QueryRow(
		`SELECT e.id, e.publisher_id, e.title, e.description, e.pdf_url, e.cover_url, e.status,
		        e.publish_date, e.created_at, e.updated_at
		 FROM editions e
		 JOIN publishers p ON p.id = e.publisher_id
		 WHERE e.id = ? AND p.city_id = ?`, id, cityID)
	e, err := scanEdition(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get owned edition: %w", err)
	}
	return e, nil
}

func (s *EditionStore) ListByPublisher(publisherID string) ([]model.Edition, error) {
	rows, err := s.db.Query(
		`SELECT `+editionCols+` FROM editions WHERE publisher_id = ? ORDER BY created_at DESC`,
		publisherID,
	)
	if err != nil {
		return nil, fmt.Errorf("list editions: %w", err)
	}
	defer rows.Close()

	var editions []model.Edition
	for rows.Next() {
		e, err := scanEdition(rows)
		if err != nil {
			return nil, fmt.Errorf("scan edition: %w", err)
		}
		editions = append(editions, *e)
	}
	return editions, rows.Err()
}

// EditionUpdate enumerates the updatable fields. Nil fields are left unchanged.
type EditionUpdate struct {
	Title       *string
	Description *string
	PDFURL      *string
	CoverURL    *string
	PublishDate *time.Time
}

func (s *EditionStore) Update(id string, u EditionUpdate) (*model.Edition, error) {
	var sets []string
	var args []any
	if u.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *u.Title)
	}
	if u.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *u.Description)
	}
	if u.PDFURL != nil {
		sets = append(sets, "pdf_url = ?")
		args = append(args, *u.PDFURL)
	}
	if u.CoverURL != nil {
		sets = append(sets, "cover_url = ?")
		args = append(args, *u.CoverURL)
	}
	if u.PublishDate != nil {
		sets = append(sets, "publish_date = ?")
		args = append(args, *u.PublishDate)
	}
	if len(sets) == 0 {
		return s.GetByID(id)
	}
	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
	args = append(args, id)

	result, err := s.db.Exec(`UPDATE editions SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("update edition: %w", err)
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

// Publish flips the edition to published and stamps the publish date.
func (s *EditionStore) Publish(id string) error {
	_, err := s.db.Exec(
		`UPDATE editions SET status = ?, publish_date = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		model.EditionPublished, id,
	)
	if err != nil {
		return fmt.Errorf("publish edition: %w", err)
	}
	return nil
}

func (s *EditionStore) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM editions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete edition: %w", err)
	}
	return nil
}
