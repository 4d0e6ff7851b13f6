package matcher

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"testing"

	"github.com/kozaktomas/facetrace/internal/face"
	"github.com/kozaktomas/facetrace/internal/feature"
)

// taggedImage carries the source URL through the stub pipeline so the stub
// extractor can return a scripted representation per URL.
type taggedImage struct {
	image.Image
	url string
}

type stubFetcher struct {
	mu    sync.Mutex
	fail  map[string]bool
	calls map[string]int
}

func newStubFetcher() *stubFetcher {
	return &stubFetcher{fail: make(map[string]bool), calls: make(map[string]int)}
}

func (f *stubFetcher) Fetch(_ context.Context, url string) (image.Image, error) {
	f.mu.Lock()
	f.calls[url]++
	f.mu.Unlock()

	if f.fail[url] {
		return nil, fmt.Errorf("fetch %s: connection refused", url)
	}
	return taggedImage{Image: image.NewRGBA(image.Rect(0, 0, 1, 1)), url: url}, nil
}

func (f *stubFetcher) callCount(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

type stubLocalizer struct {
	found bool
	err   error
}

func (l stubLocalizer) Locate(img image.Image) (face.Region, error) {
	if l.err != nil {
		return face.Region{}, l.err
	}
	return face.Region{Image: img, Rect: img.Bounds(), FaceFound: l.found}, nil
}

type stubExtractor struct {
	vectors map[string][]float32
}

func (e *stubExtractor) Extract(_ context.Context, img image.Image) (feature.Representation, error) {
	tagged, ok := img.(taggedImage)
	if !ok {
		return feature.Representation{}, errors.New("unexpected image type")
	}
	vector, ok := e.vectors[tagged.url]
	if !ok {
		return feature.Representation{}, fmt.Errorf("no features for %s", tagged.url)
	}
	return feature.Embedding(vector), nil
}

func (e *stubExtractor) Kind() feature.Kind {
	return feature.KindEmbedding
}

// newTestMatcher wires a matcher from stubs. Vector angles control the
// similarity scores: score = (cos+1)/2*100 against the query vector (1, 0).
func newTestMatcher(fetcher *stubFetcher, vectors map[string][]float32) *Matcher {
	return &Matcher{
		fetcher:   fetcher,
		localizer: stubLocalizer{found: true},
		extractor: &stubExtractor{vectors: vectors},
		workers:   2,
	}
}

// Scripted vectors: query scores 100 against itself, 80 against cand80
// (cos 0.6), 65 against cand65 (cos 0.3).
func scriptedVectors() map[string][]float32 {
	return map[string][]float32{
		"a.jpg":      {1, 0},
		"cand80.jpg": {0.6, 0.8},
		"cand65.jpg": {0.3, 0.9539392},
	}
}

func TestCompareFacesIdenticalImage(t *testing.T) {
	m := newTestMatcher(newStubFetcher(), scriptedVectors())

	got := m.CompareFaces(context.Background(), "a.jpg", "a.jpg")
	if got != 100 {
		t.Errorf("identical image similarity = %v, want 100", got)
	}
}

func TestCompareFacesFetchFailure(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.fail["a.jpg"] = true
	m := newTestMatcher(fetcher, scriptedVectors())

	if got := m.CompareFaces(context.Background(), "a.jpg", "cand80.jpg"); got != 0 {
		t.Errorf("similarity with failed fetch = %v, want 0", got)
	}
}

func TestCompareFacesDetectorUnavailable(t *testing.T) {
	m := newTestMatcher(newStubFetcher(), scriptedVectors())
	m.localizer = stubLocalizer{err: face.ErrDetectorUnavailable}

	if got := m.CompareFaces(context.Background(), "a.jpg", "a.jpg"); got != 0 {
		t.Errorf("similarity without detector = %v, want 0", got)
	}
}

func TestExtractWholeImageFallback(t *testing.T) {
	m := newTestMatcher(newStubFetcher(), scriptedVectors())
	m.localizer = stubLocalizer{found: false}

	// Permissive default: the whole image still produces features.
	if got := m.CompareFaces(context.Background(), "a.jpg", "a.jpg"); got != 100 {
		t.Errorf("fallback similarity = %v, want 100", got)
	}

	// With RequireDetection the image is skipped instead.
	m.requireDetection = true
	if got := m.CompareFaces(context.Background(), "a.jpg", "a.jpg"); got != 0 {
		t.Errorf("similarity with required detection = %v, want 0", got)
	}
}
