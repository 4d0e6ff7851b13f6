// Package database defines the record store interfaces shared by the
// PostgreSQL, MariaDB and mock backends.
package database

import (
	"context"

	"github.com/kozaktomas/facetrace/internal/matcher"
)

// MissingRepository stores missing person reports.
type MissingRepository interface {
	// List returns all reports, newest first.
	List(ctx context.Context) ([]MissingPerson, error)
	// Get returns a report by ID, or nil when not found.
	Get(ctx context.Context, id string) (*MissingPerson, error)
	// Create inserts a new report. ID, status and created_at are assigned
	// by the repository.
	Create(ctx context.Context, person *MissingPerson) error
	// UpdateStatus moves a report through the review workflow.
	UpdateStatus(ctx context.Context, id, status string) error
	// UpdateMatch annotates a report with a confirmed match.
	UpdateMatch(ctx context.Context, id string, match matcher.MatchResult) error
	// Search returns approved reports filtered by name and location
	// substrings (case-insensitive); empty filters match everything.
	Search(ctx context.Context, name, location string) ([]MissingPerson, error)
}

// UnidentifiedRepository stores unidentified person records.
type UnidentifiedRepository interface {
	// ListActive returns all records still open for matching.
	ListActive(ctx context.Context) ([]UnidentifiedPerson, error)
	// Get returns a record by ID, or nil when not found.
	Get(ctx context.Context, id string) (*UnidentifiedPerson, error)
	// Create inserts a new record. ID, status and uploaded_at are
	// assigned by the repository.
	Create(ctx context.Context, person *UnidentifiedPerson) error
}

// EmbeddingRepository caches computed feature vectors by image URL + model.
type EmbeddingRepository interface {
	Get(ctx context.Context, imageURL, model string) (*StoredEmbedding, error)
	Save(ctx context.Context, emb StoredEmbedding) error
	List(ctx context.Context, model string) ([]StoredEmbedding, error)
	Count(ctx context.Context) (int, error)
}
