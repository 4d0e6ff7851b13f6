package feature

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
)

const defaultEmbeddingURL = "http://localhost:8000"

// RemoteExtractor computes embeddings via an embedding server. The face crop
// is resized to the model's canonical input side, JPEG-encoded and posted as
// a multipart form; the server runs the forward pass and returns the pooled
// feature vector.
type RemoteExtractor struct {
	baseURL   string
	model     string
	inputSize int
	dim       int
	client    *http.Client
}

// embeddingResponse represents the response from the embedding server.
type embeddingResponse struct {
	Dim       int       `json:"dim"`
	Embedding []float32 `json:"embedding"`
	Model     string    `json:"model"`
}

// NewRemoteExtractor creates an extractor backed by the embedding server.
func NewRemoteExtractor(baseURL, model string, inputSize, dim int) *RemoteExtractor {
	if baseURL == "" {
		baseURL = defaultEmbeddingURL
	}
	return &RemoteExtractor{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		model:     model,
		inputSize: inputSize,
		dim:       dim,
		client:    &http.Client{},
	}
}

func (e *RemoteExtractor) Kind() Kind {
	return KindEmbedding
}

// Model returns the model preset name being used.
func (e *RemoteExtractor) Model() string {
	return e.model
}

// Dim returns the expected embedding vector length.
func (e *RemoteExtractor) Dim() int {
	return e.dim
}

// Extract resizes the crop, uploads it, and returns the embedding.
func (e *RemoteExtractor) Extract(ctx context.Context, img image.Image) (Representation, error) {
	if img == nil {
		return Representation{}, ErrExtractorUnavailable
	}

	resized := resizeImage(img, e.inputSize, e.inputSize)

	var encoded bytes.Buffer
	if err := jpeg.Encode(&encoded, resized, &jpeg.Options{Quality: 90}); err != nil {
		return Representation{}, fmt.Errorf("encoding face crop: %w", err)
	}

	body, err := e.postMultipartImage(ctx, "/embed/image", encoded.Bytes())
	if err != nil {
		return Representation{}, err
	}

	var embResp embeddingResponse
	if err := json.Unmarshal(body, &embResp); err != nil {
		return Representation{}, fmt.Errorf("failed to parse response: %w", err)
	}

	if len(embResp.Embedding) == 0 {
		return Representation{}, errors.New("empty embedding returned")
	}
	if e.dim > 0 && len(embResp.Embedding) != e.dim {
		return Representation{}, fmt.Errorf("embedding dim %d does not match model preset %d", len(embResp.Embedding), e.dim)
	}

	return Embedding(embResp.Embedding), nil
}

// postMultipartImage constructs a multipart form with the image data and
// posts it to the given endpoint.
func (e *RemoteExtractor) postMultipartImage(ctx context.Context, endpoint string, imageData []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", "face.jpg")
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}

	if _, err := part.Write(imageData); err != nil {
		return nil, fmt.Errorf("failed to write image data: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractorUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	return body, nil
}
