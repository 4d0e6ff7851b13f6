// Package mock provides in-memory repositories for tests and local
// development without a database.
package mock

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kozaktomas/facetrace/internal/database"
	"github.com/kozaktomas/facetrace/internal/matcher"
)

// Store holds all three repositories behind one mutex.
type Store struct {
	mu           sync.RWMutex
	missing      map[string]database.MissingPerson
	unidentified map[string]database.UnidentifiedPerson
	embeddings   map[string]database.StoredEmbedding
}

// New creates an empty store.
func New() *Store {
	return &Store{
		missing:      make(map[string]database.MissingPerson),
		unidentified: make(map[string]database.UnidentifiedPerson),
		embeddings:   make(map[string]database.StoredEmbedding),
	}
}

// Missing returns the missing person repository.
func (s *Store) Missing() database.MissingRepository { return (*missingRepo)(s) }

// Unidentified returns the unidentified person repository.
func (s *Store) Unidentified() database.UnidentifiedRepository { return (*unidentifiedRepo)(s) }

// Embeddings returns the embedding cache repository.
func (s *Store) Embeddings() database.EmbeddingRepository { return (*embeddingRepo)(s) }

type missingRepo Store

func (r *missingRepo) List(_ context.Context) ([]database.MissingPerson, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	persons := make([]database.MissingPerson, 0, len(r.missing))
	for _, p := range r.missing {
		persons = append(persons, p)
	}
	sort.Slice(persons, func(i, j int) bool {
		return persons[i].CreatedAt.After(persons[j].CreatedAt)
	})
	return persons, nil
}

func (r *missingRepo) Get(_ context.Context, id string) (*database.MissingPerson, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.missing[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *missingRepo) Create(_ context.Context, person *database.MissingPerson) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	person.ID = uuid.NewString()
	person.Status = database.StatusPending
	person.CreatedAt = time.Now().UTC()
	r.missing[person.ID] = *person
	return nil
}

func (r *missingRepo) UpdateStatus(_ context.Context, id, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.missing[id]
	if !ok {
		return fmt.Errorf("missing person %q not found", id)
	}
	now := time.Now().UTC()
	p.Status = status
	p.UpdatedAt = &now
	r.missing[id] = p
	return nil
}

func (r *missingRepo) UpdateMatch(_ context.Context, id string, match matcher.MatchResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.missing[id]
	if !ok {
		return fmt.Errorf("missing person %q not found", id)
	}
	now := time.Now().UTC()
	p.MatchFound = true
	p.Similarity = match.Similarity
	p.MatchedWith = match.CandidateID
	p.MatchedAt = &now
	p.UpdatedAt = &now
	r.missing[id] = p
	return nil
}

func (r *missingRepo) Search(_ context.Context, name, location string) ([]database.MissingPerson, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var persons []database.MissingPerson
	for _, p := range r.missing {
		if p.Status != database.StatusApproved {
			continue
		}
		if !database.MatchesSearch(&p, name, location) {
			continue
		}
		persons = append(persons, p)
	}
	sort.Slice(persons, func(i, j int) bool {
		return persons[i].CreatedAt.After(persons[j].CreatedAt)
	})
	return persons, nil
}

type unidentifiedRepo Store

func (r *unidentifiedRepo) ListActive(_ context.Context) ([]database.UnidentifiedPerson, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var persons []database.UnidentifiedPerson
	for _, p := range r.unidentified {
		if p.Status != database.StatusActive {
			continue
		}
		persons = append(persons, p)
	}
	sort.Slice(persons, func(i, j int) bool {
		return persons[i].UploadedAt.Before(persons[j].UploadedAt)
	})
	return persons, nil
}

func (r *unidentifiedRepo) Get(_ context.Context, id string) (*database.UnidentifiedPerson, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.unidentified[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *unidentifiedRepo) Create(_ context.Context, person *database.UnidentifiedPerson) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	person.ID = uuid.NewString()
	person.Status = database.StatusActive
	person.UploadedAt = time.Now().UTC()
	r.unidentified[person.ID] = *person
	return nil
}

type embeddingRepo Store

func embeddingKey(imageURL, model string) string {
	return imageURL + "\x00" + model
}

func (r *embeddingRepo) Get(_ context.Context, imageURL, model string) (*database.StoredEmbedding, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	emb, ok := r.embeddings[embeddingKey(imageURL, model)]
	if !ok {
		return nil, nil
	}
	return &emb, nil
}

func (r *embeddingRepo) Save(_ context.Context, emb database.StoredEmbedding) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if emb.CreatedAt.IsZero() {
		emb.CreatedAt = time.Now().UTC()
	}
	r.embeddings[embeddingKey(emb.ImageURL, emb.Model)] = emb
	return nil
}

func (r *embeddingRepo) List(_ context.Context, model string) ([]database.StoredEmbedding, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var embeddings []database.StoredEmbedding
	for _, emb := range r.embeddings {
		if model != "" && emb.Model != model {
			continue
		}
		embeddings = append(embeddings, emb)
	}
	sort.Slice(embeddings, func(i, j int) bool {
		return embeddings[i].ImageURL < embeddings[j].ImageURL
	})
	return embeddings, nil
}

func (r *embeddingRepo) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.embeddings), nil
}
