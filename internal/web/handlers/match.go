package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/facetrace/internal/database"
	"github.com/kozaktomas/facetrace/internal/matcher"
)

// MatchHandler serves the comparison and match search endpoints.
type MatchHandler struct {
	matcher      MatchService
	missing      database.MissingRepository
	unidentified database.UnidentifiedRepository
}

// NewMatchHandler creates a new match handler. The matcher may be nil when
// matching resources are unavailable; affected endpoints then return 503.
func NewMatchHandler(m MatchService, missing database.MissingRepository, unidentified database.UnidentifiedRepository) *MatchHandler {
	return &MatchHandler{matcher: m, missing: missing, unidentified: unidentified}
}

// Compare handles POST /compare. It scores two images directly without
// touching any stored records.
func (h *MatchHandler) Compare(w http.ResponseWriter, r *http.Request) {
	if h.matcher == nil {
		respondError(w, http.StatusServiceUnavailable, errMatcherUnavailable)
		return
	}

	var req struct {
		ImageURL1 string `json:"image_url_1"`
		ImageURL2 string `json:"image_url_2"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.ImageURL1 == "" || req.ImageURL2 == "" {
		respondError(w, http.StatusBadRequest, "both image URLs are required")
		return
	}

	similarity := h.matcher.CompareFaces(r.Context(), req.ImageURL1, req.ImageURL2)
	respondJSON(w, http.StatusOK, map[string]float64{"similarity": similarity})
}

// FindMatches handles POST /missing/{id}/matches. It searches the active
// unidentified records for faces matching the report's photos. Options come
// from query parameters: threshold, batch and apply. With apply=true the
// best match is written back to the report.
func (h *MatchHandler) FindMatches(w http.ResponseWriter, r *http.Request) {
	if h.matcher == nil {
		respondError(w, http.StatusServiceUnavailable, errMatcherUnavailable)
		return
	}

	id := chi.URLParam(r, "id")
	query := r.URL.Query()

	threshold := float64(matcher.DefaultThreshold)
	if raw := query.Get("threshold"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid threshold")
			return
		}
		threshold = parsed
	}
	if threshold < 0 || threshold > 100 {
		respondError(w, http.StatusBadRequest, "threshold must be between 0 and 100")
		return
	}

	batch, err := parseBoolParam(query.Get("batch"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid batch parameter")
		return
	}
	apply, err := parseBoolParam(query.Get("apply"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid apply parameter")
		return
	}

	person, err := h.missing.Get(r.Context(), id)
	if err != nil {
		log.Printf("getting missing person %s: %v", sanitizeForLog(id), err)
		respondError(w, http.StatusInternalServerError, "failed to get missing person")
		return
	}
	if person == nil {
		respondError(w, http.StatusNotFound, "missing person not found")
		return
	}

	unidentified, err := h.unidentified.ListActive(r.Context())
	if err != nil {
		log.Printf("listing unidentified persons: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to list unidentified persons")
		return
	}

	candidates := database.Groups(unidentified)

	var matches []matcher.MatchResult
	if batch {
		matches = h.matcher.BatchCompare(r.Context(), person.Images, candidates, threshold)
	} else {
		matches = h.matcher.FindMatches(r.Context(), person.Images, candidates, threshold)
	}

	if apply && len(matches) > 0 {
		best := matches[0]
		for _, m := range matches[1:] {
			if m.Similarity > best.Similarity {
				best = m
			}
		}
		if err := h.missing.UpdateMatch(r.Context(), id, best); err != nil {
			log.Printf("applying match for %s: %v", sanitizeForLog(id), err)
			respondError(w, http.StatusInternalServerError, "failed to apply match")
			return
		}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"missing_person_id": id,
		"threshold":         threshold,
		"matches":           matches,
	})
}
