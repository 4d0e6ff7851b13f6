package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kozaktomas/facetrace/internal/database"
	"github.com/kozaktomas/facetrace/internal/database/mock"
)

func setupPersonsTest(t *testing.T) (*mock.Store, http.Handler) {
	t.Helper()
	store := mock.New()
	handler := NewPersonsHandler(store.Missing(), store.Unidentified())
	return store, testRouter(handler, nil, nil)
}

func TestCreateMissing(t *testing.T) {
	_, router := setupPersonsTest(t)

	body := jsonBody(t, map[string]any{
		"name":               "Jane Roe",
		"age":                34,
		"last_seen_location": "Prague",
		"images":             []string{"http://example.com/jane.jpg"},
	})
	req := httptest.NewRequest("POST", "/api/v1/missing", body)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	assertStatusCode(t, recorder, http.StatusCreated)

	var resp database.MissingPerson
	parseJSONResponse(t, recorder, &resp)
	if resp.ID == "" {
		t.Error("expected assigned ID")
	}
	if resp.Status != database.StatusPending {
		t.Errorf("expected pending status, got %q", resp.Status)
	}
}

func TestCreateMissingValidation(t *testing.T) {
	_, router := setupPersonsTest(t)

	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing name", map[string]any{"images": []string{"http://example.com/a.jpg"}}},
		{"no images", map[string]any{"name": "Jane"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/v1/missing", jsonBody(t, tt.body))
			recorder := httptest.NewRecorder()
			router.ServeHTTP(recorder, req)
			assertStatusCode(t, recorder, http.StatusBadRequest)
		})
	}
}

func TestGetMissingNotFound(t *testing.T) {
	_, router := setupPersonsTest(t)

	req := httptest.NewRequest("GET", "/api/v1/missing/unknown", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	assertStatusCode(t, recorder, http.StatusNotFound)
}

func TestUpdateMissingStatus(t *testing.T) {
	store, router := setupPersonsTest(t)
	person := seedMissing(t, store, "Jane Roe", "Prague", []string{"http://example.com/jane.jpg"})

	req := httptest.NewRequest("PUT", "/api/v1/missing/"+person.ID+"/status",
		jsonBody(t, map[string]string{"status": database.StatusApproved}))
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)

	got, err := store.Missing().Get(context.Background(), person.ID)
	if err != nil {
		t.Fatalf("failed to get person: %v", err)
	}
	if got.Status != database.StatusApproved {
		t.Errorf("expected approved status, got %q", got.Status)
	}
}

func TestUpdateMissingStatusInvalid(t *testing.T) {
	store, router := setupPersonsTest(t)
	person := seedMissing(t, store, "Jane Roe", "Prague", []string{"http://example.com/jane.jpg"})

	req := httptest.NewRequest("PUT", "/api/v1/missing/"+person.ID+"/status",
		jsonBody(t, map[string]string{"status": "vanished"}))
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	assertStatusCode(t, recorder, http.StatusBadRequest)
}

func TestSearchMissingOnlyApproved(t *testing.T) {
	store, router := setupPersonsTest(t)
	approved := seedMissing(t, store, "Jane Roe", "Prague", []string{"http://example.com/jane.jpg"})
	seedMissing(t, store, "Jane Smith", "Prague", []string{"http://example.com/smith.jpg"})

	if err := store.Missing().UpdateStatus(context.Background(), approved.ID, database.StatusApproved); err != nil {
		t.Fatalf("failed to approve: %v", err)
	}

	req := httptest.NewRequest("GET", "/api/v1/search?name=jane&location=prag", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)

	var resp struct {
		Results []database.MissingPerson `json:"results"`
	}
	parseJSONResponse(t, recorder, &resp)
	if len(resp.Results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(resp.Results))
	}
	if resp.Results[0].ID != approved.ID {
		t.Errorf("expected approved person, got %q", resp.Results[0].ID)
	}
}

func TestCreateAndListUnidentified(t *testing.T) {
	_, router := setupPersonsTest(t)

	req := httptest.NewRequest("POST", "/api/v1/unidentified",
		jsonBody(t, map[string]any{"images": []string{"http://example.com/u.jpg"}, "location": "Brno"}))
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	assertStatusCode(t, recorder, http.StatusCreated)

	req = httptest.NewRequest("GET", "/api/v1/unidentified", nil)
	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	assertStatusCode(t, recorder, http.StatusOK)

	var resp struct {
		Persons []database.UnidentifiedPerson `json:"unidentified_persons"`
	}
	parseJSONResponse(t, recorder, &resp)
	if len(resp.Persons) != 1 {
		t.Fatalf("expected 1 record, got %d", len(resp.Persons))
	}
}

func TestCreateUnidentifiedRequiresImages(t *testing.T) {
	_, router := setupPersonsTest(t)

	req := httptest.NewRequest("POST", "/api/v1/unidentified",
		jsonBody(t, map[string]any{"location": "Brno"}))
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	assertStatusCode(t, recorder, http.StatusBadRequest)
}
