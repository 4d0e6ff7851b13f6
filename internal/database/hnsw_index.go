package database

import (
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/coder/hnsw"
)

const (
	// HNSWMaxNeighbors is the M parameter of the graph.
	HNSWMaxNeighbors = 16
)

// EmbeddingIndex wraps an HNSW graph over the embedding cache for fast
// nearest-neighbor lookups by image URL.
type EmbeddingIndex struct {
	graph *hnsw.Graph[string]
	byURL map[string]*StoredEmbedding
	mu    sync.RWMutex
}

// NewEmbeddingIndex creates an empty index.
func NewEmbeddingIndex() *EmbeddingIndex {
	return &EmbeddingIndex{
		byURL: make(map[string]*StoredEmbedding),
	}
}

// Build replaces the index contents with the given embeddings.
func (x *EmbeddingIndex) Build(embeddings []StoredEmbedding) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	g := hnsw.NewGraph[string]()
	g.M = HNSWMaxNeighbors
	g.Ml = 1.0 / float64(HNSWMaxNeighbors) // Standard HNSW formula
	g.Distance = hnsw.CosineDistance

	x.byURL = make(map[string]*StoredEmbedding, len(embeddings))
	for i := range embeddings {
		emb := &embeddings[i]
		if len(emb.Embedding) == 0 {
			continue
		}
		g.Add(hnsw.MakeNode(emb.ImageURL, emb.Embedding))
		x.byURL[emb.ImageURL] = emb
	}

	x.graph = g
	return nil
}

// Add inserts a single embedding into the index.
func (x *EmbeddingIndex) Add(emb StoredEmbedding) {
	if len(emb.Embedding) == 0 {
		return
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	if x.graph == nil {
		g := hnsw.NewGraph[string]()
		g.M = HNSWMaxNeighbors
		g.Ml = 1.0 / float64(HNSWMaxNeighbors)
		g.Distance = hnsw.CosineDistance
		x.graph = g
	}

	x.graph.Add(hnsw.MakeNode(emb.ImageURL, emb.Embedding))
	x.byURL[emb.ImageURL] = &emb
}

// Search returns the k nearest cached embeddings and their cosine distances.
func (x *EmbeddingIndex) Search(query []float32, k int) ([]StoredEmbedding, []float64, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if x.graph == nil {
		return nil, nil, errors.New("index not initialized")
	}

	neighbors := x.graph.Search(query, k)

	results := make([]StoredEmbedding, 0, len(neighbors))
	distances := make([]float64, 0, len(neighbors))
	for _, n := range neighbors {
		emb := x.byURL[n.Key]
		if emb == nil {
			continue
		}
		results = append(results, *emb)
		distances = append(distances, float64(hnsw.CosineDistance(query, n.Value)))
	}

	return results, distances, nil
}

// Count returns the number of indexed embeddings.
func (x *EmbeddingIndex) Count() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.byURL)
}

// Save persists the indexed embeddings to disk with gob. The graph itself
// is rebuilt on load; the vectors are the expensive part.
func (x *EmbeddingIndex) Save(path string) error {
	x.mu.RLock()
	embeddings := make([]StoredEmbedding, 0, len(x.byURL))
	for _, emb := range x.byURL {
		embeddings = append(embeddings, *emb)
	}
	x.mu.RUnlock()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	defer f.Close()

	if err := gob.NewEncoder(f).Encode(embeddings); err != nil {
		return fmt.Errorf("encode index: %w", err)
	}
	return nil
}

// Load restores an index previously written by Save.
func (x *EmbeddingIndex) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open index file: %w", err)
	}
	defer f.Close()

	var embeddings []StoredEmbedding
	if err := gob.NewDecoder(f).Decode(&embeddings); err != nil {
		return fmt.Errorf("decode index: %w", err)
	}

	return x.Build(embeddings)
}
