// Package imaging retrieves and decodes remote photographs.
package imaging

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"time"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

const (
	// fetchTimeout bounds a single image download.
	fetchTimeout = 10 * time.Second

	// userAgent identifies us as a browser. Some image hosts reject
	// requests without a recognizable User-Agent.
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

	// maxImageBytes caps the response body to keep one oversized photo
	// from exhausting memory during a batch run.
	maxImageBytes = 32 << 20 // 32 MiB
)

// FetchError describes a failed image retrieval. The URL and stage make it
// clear whether the network, the server, or the decode step failed.
type FetchError struct {
	URL   string
	Stage string // "request", "status", "decode"
	Err   error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Stage, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Fetcher downloads images over HTTP with a bounded timeout.
type Fetcher struct {
	client *http.Client
}

// NewFetcher creates a fetcher with the default timeout.
func NewFetcher() *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: fetchTimeout},
	}
}

// Fetch downloads and decodes the image at the given URL.
// Any network, status, or decode failure is returned as a *FetchError;
// callers treat that as "no usable image" and keep going.
func (f *Fetcher) Fetch(ctx context.Context, url string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Stage: "request", Err: err}
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Stage: "request", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{URL: url, Stage: "status", Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	img, _, err := image.Decode(http.MaxBytesReader(nil, resp.Body, maxImageBytes))
	if err != nil {
		return nil, &FetchError{URL: url, Stage: "decode", Err: err}
	}

	return img, nil
}
