package database

import (
	"time"

	"github.com/kozaktomas/facetrace/internal/matcher"
)

// Missing person report statuses.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusResolved = "resolved"
	StatusRejected = "rejected"
)

// StatusActive marks unidentified person records that are still searchable.
const StatusActive = "active"

// MissingPerson is a reported missing person with the photos used as the
// query side of a match search.
type MissingPerson struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Age              int        `json:"age"`
	Gender           string     `json:"gender"`
	LastSeenLocation string     `json:"last_seen_location"`
	LastSeenDate     string     `json:"last_seen_date"`
	Description      string     `json:"description"`
	ContactDetails   string     `json:"contact_details"`
	Images           []string   `json:"images"`
	Status           string     `json:"status"`
	MatchFound       bool       `json:"match_found"`
	Similarity       float64    `json:"similarity_percentage"`
	MatchedWith      string     `json:"matched_with,omitempty"`
	MatchedAt        *time.Time `json:"matched_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        *time.Time `json:"updated_at,omitempty"`
}

// Group returns the matcher view of this record.
func (p *MissingPerson) Group() matcher.PersonGroup {
	return matcher.PersonGroup{ID: p.ID, Images: p.Images}
}

// UnidentifiedPerson is an unidentified individual whose photos form one
// candidate group in a match search.
type UnidentifiedPerson struct {
	ID          string    `json:"id"`
	Images      []string  `json:"images"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// Group returns the matcher view of this record.
func (p *UnidentifiedPerson) Group() matcher.PersonGroup {
	return matcher.PersonGroup{ID: p.ID, Images: p.Images}
}

// Groups converts a record list to candidate groups in the same order.
func Groups(persons []UnidentifiedPerson) []matcher.PersonGroup {
	groups := make([]matcher.PersonGroup, 0, len(persons))
	for i := range persons {
		groups = append(groups, persons[i].Group())
	}
	return groups
}

// StoredEmbedding is a cached feature vector for one image URL under one
// model. Cached vectors let repeated batch runs skip re-extraction.
type StoredEmbedding struct {
	ImageURL  string
	Model     string
	Embedding []float32
	Dim       int
	CreatedAt time.Time
}
