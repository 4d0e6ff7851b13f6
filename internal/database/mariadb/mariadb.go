// Package mariadb reads person records from a legacy MariaDB deployment.
// It is a read-only import source for the migration command; the legacy
// schema stores image lists as JSON text columns.
package mariadb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/kozaktomas/facetrace/internal/database"
)

// Pool manages a MariaDB connection pool.
type Pool struct {
	db *sql.DB
}

// NewPool creates a new MariaDB connection pool.
func NewPool(dsn string) (*Pool, error) {
	if dsn == "" {
		return nil, errors.New("MariaDB DSN is required")
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MariaDB: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping MariaDB: %w", err)
	}

	return &Pool{db: db}, nil
}

// Close closes the connection pool.
func (p *Pool) Close() error {
	if p.db != nil {
		if err := p.db.Close(); err != nil {
			return fmt.Errorf("closing database connection: %w", err)
		}
	}
	return nil
}

func decodeImages(raw []byte) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var images []string
	if err := json.Unmarshal(raw, &images); err != nil {
		return nil, fmt.Errorf("decode image list: %w", err)
	}
	return images, nil
}

// MissingPersons reads all missing person reports from the legacy schema.
func (p *Pool) MissingPersons(ctx context.Context) ([]database.MissingPerson, error) {
	query := `
		SELECT id, name, age, gender, last_seen_location, last_seen_date,
		       description, contact_details, images, status, created_at
		FROM missing_persons
		ORDER BY created_at
	`

	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query legacy missing persons: %w", err)
	}
	defer rows.Close()

	var persons []database.MissingPerson
	for rows.Next() {
		var person database.MissingPerson
		var images []byte
		err := rows.Scan(
			&person.ID, &person.Name, &person.Age, &person.Gender,
			&person.LastSeenLocation, &person.LastSeenDate,
			&person.Description, &person.ContactDetails,
			&images, &person.Status, &person.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan legacy missing person: %w", err)
		}
		if person.Images, err = decodeImages(images); err != nil {
			return nil, err
		}
		persons = append(persons, person)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate legacy missing persons: %w", err)
	}
	return persons, nil
}

// UnidentifiedPersons reads all unidentified person records from the
// legacy schema.
func (p *Pool) UnidentifiedPersons(ctx context.Context) ([]database.UnidentifiedPerson, error) {
	query := `
		SELECT id, images, location, description, status, uploaded_at
		FROM unidentified_persons
		ORDER BY uploaded_at
	`

	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query legacy unidentified persons: %w", err)
	}
	defer rows.Close()

	var persons []database.UnidentifiedPerson
	for rows.Next() {
		var person database.UnidentifiedPerson
		var images []byte
		err := rows.Scan(
			&person.ID, &images, &person.Location,
			&person.Description, &person.Status, &person.UploadedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan legacy unidentified person: %w", err)
		}
		if person.Images, err = decodeImages(images); err != nil {
			return nil, err
		}
		persons = append(persons, person)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate legacy unidentified persons: %w", err)
	}
	return persons, nil
}
