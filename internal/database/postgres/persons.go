package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/kozaktomas/facetrace/internal/database"
	"github.com/kozaktomas/facetrace/internal/matcher"
)

// MissingRepository provides PostgreSQL-backed missing person storage.
type MissingRepository struct {
	pool *Pool
}

// NewMissingRepository creates a new missing person repository.
func NewMissingRepository(pool *Pool) *MissingRepository {
	return &MissingRepository{pool: pool}
}

const missingColumns = `
	id, name, age, gender, last_seen_location, last_seen_date,
	description, contact_details, images, status,
	match_found, similarity_percentage, matched_with, matched_at,
	created_at, updated_at`

func scanMissing(scan func(dest ...any) error) (*database.MissingPerson, error) {
	var p database.MissingPerson
	err := scan(
		&p.ID, &p.Name, &p.Age, &p.Gender, &p.LastSeenLocation, &p.LastSeenDate,
		&p.Description, &p.ContactDetails, pq.Array(&p.Images), &p.Status,
		&p.MatchFound, &p.Similarity, &p.MatchedWith, &p.MatchedAt,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns all reports, newest first.
func (r *MissingRepository) List(ctx context.Context) ([]database.MissingPerson, error) {
	query := "SELECT" + missingColumns + " FROM missing_persons ORDER BY created_at DESC"

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list missing persons: %w", err)
	}
	defer rows.Close()

	var persons []database.MissingPerson
	for rows.Next() {
		p, err := scanMissing(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan missing person: %w", err)
		}
		persons = append(persons, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate missing persons: %w", err)
	}
	return persons, nil
}

// Get returns a report by ID, or nil when not found.
func (r *MissingRepository) Get(ctx context.Context, id string) (*database.MissingPerson, error) {
	query := "SELECT" + missingColumns + " FROM missing_persons WHERE id = $1"

	p, err := scanMissing(r.pool.QueryRow(ctx, query, id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query missing person: %w", err)
	}
	return p, nil
}

// Create inserts a new report with a fresh ID and pending status.
func (r *MissingRepository) Create(ctx context.Context, person *database.MissingPerson) error {
	person.ID = uuid.NewString()
	person.Status = database.StatusPending
	person.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO missing_persons (
			id, name, age, gender, last_seen_location, last_seen_date,
			description, contact_details, images, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.pool.Exec(ctx, query,
		person.ID, person.Name, person.Age, person.Gender,
		person.LastSeenLocation, person.LastSeenDate,
		person.Description, person.ContactDetails,
		pq.Array(person.Images), person.Status, person.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert missing person: %w", err)
	}
	return nil
}

// UpdateStatus moves a report through the review workflow.
func (r *MissingRepository) UpdateStatus(ctx context.Context, id, status string) error {
	result, err := r.pool.Exec(ctx,
		"UPDATE missing_persons SET status = $1, updated_at = NOW() WHERE id = $2",
		status, id,
	)
	if err != nil {
		return fmt.Errorf("update missing person status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("missing person %q not found", id)
	}
	return nil
}

// UpdateMatch annotates a report with a confirmed match.
func (r *MissingRepository) UpdateMatch(ctx context.Context, id string, match matcher.MatchResult) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE missing_persons
		SET match_found = TRUE,
		    similarity_percentage = $1,
		    matched_with = $2,
		    matched_at = NOW(),
		    updated_at = NOW()
		WHERE id = $3
	`, match.Similarity, match.CandidateID, id)
	if err != nil {
		return fmt.Errorf("update missing person match: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("missing person %q not found", id)
	}
	return nil
}

// Search returns approved reports filtered by name and location substrings.
// Filtering happens in Go so that accented names match their ASCII forms,
// which ILIKE cannot do without the unaccent extension.
func (r *MissingRepository) Search(ctx context.Context, name, location string) ([]database.MissingPerson, error) {
	query := "SELECT" + missingColumns + `
		FROM missing_persons
		WHERE status = $1
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, database.StatusApproved)
	if err != nil {
		return nil, fmt.Errorf("search missing persons: %w", err)
	}
	defer rows.Close()

	var persons []database.MissingPerson
	for rows.Next() {
		p, err := scanMissing(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan missing person: %w", err)
		}
		if !database.MatchesSearch(p, name, location) {
			continue
		}
		persons = append(persons, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate missing persons: %w", err)
	}
	return persons, nil
}

// UnidentifiedRepository provides PostgreSQL-backed unidentified person storage.
type UnidentifiedRepository struct {
	pool *Pool
}

// NewUnidentifiedRepository creates a new unidentified person repository.
func NewUnidentifiedRepository(pool *Pool) *UnidentifiedRepository {
	return &UnidentifiedRepository{pool: pool}
}

// ListActive returns all records still open for matching, oldest first so
// match results keep a stable candidate order.
func (r *UnidentifiedRepository) ListActive(ctx context.Context) ([]database.UnidentifiedPerson, error) {
	query := `
		SELECT id, images, location, description, status, uploaded_at
		FROM unidentified_persons
		WHERE status = $1
		ORDER BY uploaded_at ASC
	`

	rows, err := r.pool.Query(ctx, query, database.StatusActive)
	if err != nil {
		return nil, fmt.Errorf("list unidentified persons: %w", err)
	}
	defer rows.Close()

	var persons []database.UnidentifiedPerson
	for rows.Next() {
		var p database.UnidentifiedPerson
		err := rows.Scan(&p.ID, pq.Array(&p.Images), &p.Location, &p.Description, &p.Status, &p.UploadedAt)
		if err != nil {
			return nil, fmt.Errorf("scan unidentified person: %w", err)
		}
		persons = append(persons, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate unidentified persons: %w", err)
	}
	return persons, nil
}

// Get returns a record by ID, or nil when not found.
func (r *UnidentifiedRepository) Get(ctx context.Context, id string) (*database.UnidentifiedPerson, error) {
	query := `
		SELECT id, images, location, description, status, uploaded_at
		FROM unidentified_persons
		WHERE id = $1
	`

	var p database.UnidentifiedPerson
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID, pq.Array(&p.Images), &p.Location, &p.Description, &p.Status, &p.UploadedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query unidentified person: %w", err)
	}
	return &p, nil
}

// Create inserts a new record with a fresh ID and active status.
func (r *UnidentifiedRepository) Create(ctx context.Context, person *database.UnidentifiedPerson) error {
	person.ID = uuid.NewString()
	person.Status = database.StatusActive
	person.UploadedAt = time.Now().UTC()

	query := `
		INSERT INTO unidentified_persons (id, images, location, description, status, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		person.ID, pq.Array(person.Images), person.Location,
		person.Description, person.Status, person.UploadedAt,
	)
	if err != nil {
		return fmt.Errorf("insert unidentified person: %w", err)
	}
	return nil
}
