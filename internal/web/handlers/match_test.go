package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kozaktomas/facetrace/internal/database/mock"
	"github.com/kozaktomas/facetrace/internal/matcher"
)

func setupMatchTest(t *testing.T, stub *stubMatcher) (*mock.Store, http.Handler) {
	t.Helper()
	store := mock.New()
	var service MatchService
	if stub != nil {
		service = stub
	}
	handler := NewMatchHandler(service, store.Missing(), store.Unidentified())
	return store, testRouter(nil, handler, nil)
}

func TestCompare(t *testing.T) {
	stub := &stubMatcher{compareScore: 82.5}
	_, router := setupMatchTest(t, stub)

	req := httptest.NewRequest("POST", "/api/v1/compare", jsonBody(t, map[string]string{
		"image_url_1": "http://example.com/a.jpg",
		"image_url_2": "http://example.com/b.jpg",
	}))
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)

	var resp map[string]float64
	parseJSONResponse(t, recorder, &resp)
	if resp["similarity"] != 82.5 {
		t.Errorf("expected similarity 82.5, got %v", resp["similarity"])
	}
	if len(stub.compareCalls) != 1 {
		t.Fatalf("expected 1 compare call, got %d", len(stub.compareCalls))
	}
}

func TestCompareRequiresBothURLs(t *testing.T) {
	_, router := setupMatchTest(t, &stubMatcher{})

	req := httptest.NewRequest("POST", "/api/v1/compare",
		jsonBody(t, map[string]string{"image_url_1": "http://example.com/a.jpg"}))
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	assertStatusCode(t, recorder, http.StatusBadRequest)
}

func TestCompareMatcherUnavailable(t *testing.T) {
	_, router := setupMatchTest(t, nil)

	req := httptest.NewRequest("POST", "/api/v1/compare", jsonBody(t, map[string]string{
		"image_url_1": "http://example.com/a.jpg",
		"image_url_2": "http://example.com/b.jpg",
	}))
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	assertStatusCode(t, recorder, http.StatusServiceUnavailable)
}

func TestFindMatches(t *testing.T) {
	stub := &stubMatcher{matches: []matcher.MatchResult{
		{CandidateID: "u-1", Similarity: 88},
	}}
	store, router := setupMatchTest(t, stub)

	person := seedMissing(t, store, "Jane Roe", "Prague", []string{"http://example.com/jane.jpg"})
	seedUnidentified(t, store, []string{"http://example.com/u1.jpg"})

	req := httptest.NewRequest("POST", "/api/v1/missing/"+person.ID+"/matches", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)

	var resp struct {
		Threshold float64               `json:"threshold"`
		Matches   []matcher.MatchResult `json:"matches"`
	}
	parseJSONResponse(t, recorder, &resp)
	if resp.Threshold != matcher.DefaultThreshold {
		t.Errorf("expected default threshold, got %v", resp.Threshold)
	}
	if len(resp.Matches) != 1 || resp.Matches[0].CandidateID != "u-1" {
		t.Fatalf("unexpected matches: %+v", resp.Matches)
	}
	if !stub.naiveCalled || stub.batchCalled {
		t.Error("expected the naive search to be used by default")
	}
	if len(stub.gotQuery) != 1 || stub.gotQuery[0] != person.Images[0] {
		t.Errorf("unexpected query images: %v", stub.gotQuery)
	}
	if len(stub.gotGroups) != 1 {
		t.Errorf("expected 1 candidate group, got %d", len(stub.gotGroups))
	}
}

func TestFindMatchesBatchAndThreshold(t *testing.T) {
	stub := &stubMatcher{}
	store, router := setupMatchTest(t, stub)
	person := seedMissing(t, store, "Jane Roe", "Prague", []string{"http://example.com/jane.jpg"})

	req := httptest.NewRequest("POST", "/api/v1/missing/"+person.ID+"/matches?batch=true&threshold=85", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)
	if !stub.batchCalled || stub.naiveCalled {
		t.Error("expected the batch search to be used")
	}
	if stub.gotThreshold != 85 {
		t.Errorf("expected threshold 85, got %v", stub.gotThreshold)
	}
}

func TestFindMatchesBadQueryParams(t *testing.T) {
	store, router := setupMatchTest(t, &stubMatcher{})
	person := seedMissing(t, store, "Jane Roe", "Prague", []string{"http://example.com/jane.jpg"})

	for _, query := range []string{"?threshold=abc", "?batch=maybe", "?apply=maybe"} {
		req := httptest.NewRequest("POST", "/api/v1/missing/"+person.ID+"/matches"+query, nil)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusBadRequest {
			t.Errorf("expected 400 for %s, got %d", query, recorder.Code)
		}
	}
}

func TestFindMatchesInvalidThreshold(t *testing.T) {
	store, router := setupMatchTest(t, &stubMatcher{})
	person := seedMissing(t, store, "Jane Roe", "Prague", []string{"http://example.com/jane.jpg"})

	req := httptest.NewRequest("POST", "/api/v1/missing/"+person.ID+"/matches?threshold=150", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	assertStatusCode(t, recorder, http.StatusBadRequest)
}

func TestFindMatchesUnknownPerson(t *testing.T) {
	_, router := setupMatchTest(t, &stubMatcher{})

	req := httptest.NewRequest("POST", "/api/v1/missing/unknown/matches", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	assertStatusCode(t, recorder, http.StatusNotFound)
}

func TestFindMatchesApply(t *testing.T) {
	stub := &stubMatcher{matches: []matcher.MatchResult{
		{CandidateID: "u-1", Similarity: 72},
		{CandidateID: "u-2", Similarity: 91},
	}}
	store, router := setupMatchTest(t, stub)
	person := seedMissing(t, store, "Jane Roe", "Prague", []string{"http://example.com/jane.jpg"})

	req := httptest.NewRequest("POST", "/api/v1/missing/"+person.ID+"/matches?apply=true", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)

	got, err := store.Missing().Get(context.Background(), person.ID)
	if err != nil {
		t.Fatalf("failed to get person: %v", err)
	}
	if !got.MatchFound {
		t.Fatal("expected match to be applied")
	}
	if got.MatchedWith != "u-2" || got.Similarity != 91 {
		t.Errorf("expected best match u-2/91, got %q/%v", got.MatchedWith, got.Similarity)
	}
}

func TestFindMatchesMatcherUnavailable(t *testing.T) {
	store, router := setupMatchTest(t, nil)
	person := seedMissing(t, store, "Jane Roe", "Prague", []string{"http://example.com/jane.jpg"})

	req := httptest.NewRequest("POST", "/api/v1/missing/"+person.ID+"/matches", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	assertStatusCode(t, recorder, http.StatusServiceUnavailable)
}
