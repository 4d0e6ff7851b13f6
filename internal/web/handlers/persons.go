package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/facetrace/internal/database"
)

// PersonsHandler serves the missing and unidentified person records.
type PersonsHandler struct {
	missing      database.MissingRepository
	unidentified database.UnidentifiedRepository
}

// NewPersonsHandler creates a new persons handler.
func NewPersonsHandler(missing database.MissingRepository, unidentified database.UnidentifiedRepository) *PersonsHandler {
	return &PersonsHandler{missing: missing, unidentified: unidentified}
}

var validStatuses = map[string]bool{
	database.StatusPending:  true,
	database.StatusApproved: true,
	database.StatusResolved: true,
	database.StatusRejected: true,
}

// ListMissing handles GET /missing.
func (h *PersonsHandler) ListMissing(w http.ResponseWriter, r *http.Request) {
	persons, err := h.missing.List(r.Context())
	if err != nil {
		log.Printf("listing missing persons: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to list missing persons")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"missing_persons": persons})
}

// GetMissing handles GET /missing/{id}.
func (h *PersonsHandler) GetMissing(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

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
	respondJSON(w, http.StatusOK, person)
}

// CreateMissing handles POST /missing.
func (h *PersonsHandler) CreateMissing(w http.ResponseWriter, r *http.Request) {
	var person database.MissingPerson
	if err := json.NewDecoder(r.Body).Decode(&person); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if person.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	if len(person.Images) == 0 {
		respondError(w, http.StatusBadRequest, "at least one image is required")
		return
	}

	if err := h.missing.Create(r.Context(), &person); err != nil {
		log.Printf("creating missing person: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to create missing person")
		return
	}
	respondJSON(w, http.StatusCreated, person)
}

// UpdateMissingStatus handles PUT /missing/{id}/status.
func (h *PersonsHandler) UpdateMissingStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if !validStatuses[req.Status] {
		respondError(w, http.StatusBadRequest, "invalid status")
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

	if err := h.missing.UpdateStatus(r.Context(), id, req.Status); err != nil {
		log.Printf("updating status for %s: %v", sanitizeForLog(id), err)
		respondError(w, http.StatusInternalServerError, "failed to update status")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"id": id, "status": req.Status})
}

// SearchMissing handles GET /search. Only approved reports are searchable.
func (h *PersonsHandler) SearchMissing(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	location := r.URL.Query().Get("location")

	persons, err := h.missing.Search(r.Context(), name, location)
	if err != nil {
		log.Printf("searching missing persons: %v", err)
		respondError(w, http.StatusInternalServerError, "search failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"results": persons})
}

// ListUnidentified handles GET /unidentified.
func (h *PersonsHandler) ListUnidentified(w http.ResponseWriter, r *http.Request) {
	persons, err := h.unidentified.ListActive(r.Context())
	if err != nil {
		log.Printf("listing unidentified persons: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to list unidentified persons")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"unidentified_persons": persons})
}

// CreateUnidentified handles POST /unidentified.
func (h *PersonsHandler) CreateUnidentified(w http.ResponseWriter, r *http.Request) {
	var person database.UnidentifiedPerson
	if err := json.NewDecoder(r.Body).Decode(&person); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if len(person.Images) == 0 {
		respondError(w, http.StatusBadRequest, "at least one image is required")
		return
	}

	if err := h.unidentified.Create(r.Context(), &person); err != nil {
		log.Printf("creating unidentified person: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to create unidentified person")
		return
	}
	respondJSON(w, http.StatusCreated, person)
}
