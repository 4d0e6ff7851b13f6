package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/kozaktomas/facetrace/internal/database"
	"github.com/kozaktomas/facetrace/internal/feature"
)

const defaultSearchLimit = 10

// FeatureExtractor produces a feature representation for a remote image.
type FeatureExtractor interface {
	Extract(ctx context.Context, url string) (feature.Representation, error)
}

// EmbeddingSearcher finds the nearest cached embeddings for a query vector.
type EmbeddingSearcher interface {
	Search(query []float32, k int) ([]database.StoredEmbedding, []float64, error)
	Count() int
}

// SearchHandler serves nearest-neighbor lookups over the embedding cache.
type SearchHandler struct {
	extractor FeatureExtractor
	index     EmbeddingSearcher
}

// NewSearchHandler creates a new search handler. Either dependency may be
// nil; the endpoint then returns 503.
func NewSearchHandler(extractor FeatureExtractor, index EmbeddingSearcher) *SearchHandler {
	return &SearchHandler{extractor: extractor, index: index}
}

type searchHit struct {
	ImageURL   string  `json:"image_url"`
	Model      string  `json:"model"`
	Similarity float64 `json:"similarity"`
}

// SearchByImage handles POST /search-by-image. It extracts the query image's
// embedding and returns the nearest cached images with cosine similarity
// mapped to [0, 100].
func (h *SearchHandler) SearchByImage(w http.ResponseWriter, r *http.Request) {
	if h.extractor == nil || h.index == nil {
		respondError(w, http.StatusServiceUnavailable, errMatcherUnavailable)
		return
	}

	var req struct {
		ImageURL string `json:"image_url"`
		Limit    int    `json:"limit"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.ImageURL == "" {
		respondError(w, http.StatusBadRequest, "image_url is required")
		return
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	rep, err := h.extractor.Extract(r.Context(), req.ImageURL)
	if err != nil {
		log.Printf("extracting %s: %v", sanitizeForLog(req.ImageURL), err)
		respondError(w, http.StatusUnprocessableEntity, "could not extract features from image")
		return
	}
	if rep.Kind != feature.KindEmbedding {
		respondError(w, http.StatusUnprocessableEntity, "index search requires an embedding matcher")
		return
	}

	results, distances, err := h.index.Search(rep.Vector, limit)
	if err != nil {
		log.Printf("searching index: %v", err)
		respondError(w, http.StatusInternalServerError, "index search failed")
		return
	}

	hits := make([]searchHit, 0, len(results))
	for i, emb := range results {
		// Cosine distance is 1 - cosine similarity.
		cos := 1 - distances[i]
		hits = append(hits, searchHit{
			ImageURL:   emb.ImageURL,
			Model:      emb.Model,
			Similarity: (cos + 1) / 2 * 100,
		})
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"query":   req.ImageURL,
		"indexed": h.index.Count(),
		"results": hits,
	})
}
