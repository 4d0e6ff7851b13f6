package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/facetrace/internal/database"
	"github.com/kozaktomas/facetrace/internal/database/mock"
	"github.com/kozaktomas/facetrace/internal/matcher"
)

func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, want int) {
	t.Helper()
	if recorder.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, recorder.Code, recorder.Body.String())
	}
}

func assertContentType(t *testing.T, recorder *httptest.ResponseRecorder, want string) {
	t.Helper()
	if got := recorder.Header().Get("Content-Type"); got != want {
		t.Errorf("expected content type %q, got %q", want, got)
	}
}

func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to parse response body: %v", err)
	}
}

func jsonBody(t *testing.T, v any) *bytes.Reader {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal request body: %v", err)
	}
	return bytes.NewReader(data)
}

// stubMatcher is a scripted MatchService. Each call records its inputs.
type stubMatcher struct {
	compareScore float64
	matches      []matcher.MatchResult

	compareCalls [][2]string
	batchCalled  bool
	naiveCalled  bool
	gotThreshold float64
	gotQuery     []string
	gotGroups    []matcher.PersonGroup
}

func (s *stubMatcher) CompareFaces(_ context.Context, urlA, urlB string) float64 {
	s.compareCalls = append(s.compareCalls, [2]string{urlA, urlB})
	return s.compareScore
}

func (s *stubMatcher) FindMatches(_ context.Context, queryImages []string, candidates []matcher.PersonGroup, threshold float64) []matcher.MatchResult {
	s.naiveCalled = true
	s.gotQuery = queryImages
	s.gotGroups = candidates
	s.gotThreshold = threshold
	return s.matches
}

func (s *stubMatcher) BatchCompare(_ context.Context, queryImages []string, candidates []matcher.PersonGroup, threshold float64) []matcher.MatchResult {
	s.batchCalled = true
	s.gotQuery = queryImages
	s.gotGroups = candidates
	s.gotThreshold = threshold
	return s.matches
}

// testRouter mounts the handler methods the same way routes.go does.
func testRouter(persons *PersonsHandler, match *MatchHandler, search *SearchHandler) http.Handler {
	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		if persons != nil {
			r.Get("/missing", persons.ListMissing)
			r.Post("/missing", persons.CreateMissing)
			r.Get("/missing/{id}", persons.GetMissing)
			r.Put("/missing/{id}/status", persons.UpdateMissingStatus)
			r.Get("/search", persons.SearchMissing)
			r.Get("/unidentified", persons.ListUnidentified)
			r.Post("/unidentified", persons.CreateUnidentified)
		}
		if match != nil {
			r.Post("/missing/{id}/matches", match.FindMatches)
			r.Post("/compare", match.Compare)
		}
		if search != nil {
			r.Post("/search-by-image", search.SearchByImage)
		}
	})
	return r
}

func seedMissing(t *testing.T, store *mock.Store, name, location string, images []string) *database.MissingPerson {
	t.Helper()
	person := &database.MissingPerson{
		Name:             name,
		LastSeenLocation: location,
		Images:           images,
	}
	if err := store.Missing().Create(context.Background(), person); err != nil {
		t.Fatalf("failed to seed missing person: %v", err)
	}
	return person
}

func seedUnidentified(t *testing.T, store *mock.Store, images []string) *database.UnidentifiedPerson {
	t.Helper()
	person := &database.UnidentifiedPerson{Images: images}
	if err := store.Unidentified().Create(context.Background(), person); err != nil {
		t.Fatalf("failed to seed unidentified person: %v", err)
	}
	return person
}

func TestHealthCheck(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	recorder := httptest.NewRecorder()
	HealthCheck(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)
	assertContentType(t, recorder, "application/json")

	var resp map[string]string
	parseJSONResponse(t, recorder, &resp)
	if resp["status"] != "ok" {
		t.Errorf("expected status ok, got %q", resp["status"])
	}
}

func TestSanitizeForLog(t *testing.T) {
	got := sanitizeForLog("evil\nfake log line\rdone")
	if strings.ContainsAny(got, "\n\r") {
		t.Errorf("sanitizeForLog left control characters: %q", got)
	}
}
