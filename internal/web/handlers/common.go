// Package handlers implements the HTTP API endpoints.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/kozaktomas/facetrace/internal/matcher"
)

// errInvalidRequestBody is a shared error message for invalid JSON request bodies.
const errInvalidRequestBody = "invalid request body"

// errMatcherUnavailable is returned when the server runs without a matcher,
// typically because the cascade or model files are missing.
const errMatcherUnavailable = "face matching is unavailable"

// MatchService is the part of the matcher facade the handlers use. Tests
// substitute a scripted implementation.
type MatchService interface {
	CompareFaces(ctx context.Context, urlA, urlB string) float64
	FindMatches(ctx context.Context, queryImages []string, candidates []matcher.PersonGroup, threshold float64) []matcher.MatchResult
	BatchCompare(ctx context.Context, queryImages []string, candidates []matcher.PersonGroup, threshold float64) []matcher.MatchResult
}

// parseBoolParam parses an optional boolean query parameter. An empty
// value means false.
func parseBoolParam(raw string) (bool, error) {
	if raw == "" {
		return false, nil
	}
	return strconv.ParseBool(raw)
}

// sanitizeForLog removes newlines and carriage returns to prevent log injection.
func sanitizeForLog(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// HealthCheck handles the health check endpoint.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}
