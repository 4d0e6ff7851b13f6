package feature

import "math"

// Score compares two representations and returns a similarity in [0, 100].
// Identical representations score 100; maximally dissimilar ones score 0.
// Representations of different kinds or dimensions, and degenerate ones
// (zero-norm vector, zero fingerprint), score 0 instead of failing.
func Score(a, b Representation) float64 {
	if a.Kind != b.Kind {
		return 0
	}

	switch a.Kind {
	case KindEmbedding:
		return scoreEmbeddings(a.Vector, b.Vector)
	case KindFingerprint:
		return scoreFingerprints(a.Bits, b.Bits)
	default:
		return 0
	}
}

// scoreEmbeddings maps cosine similarity onto [0, 100] via (cos+1)/2*100.
func scoreEmbeddings(a, b []float32) float64 {
	cos, ok := cosineSimilarity(a, b)
	if !ok {
		return 0
	}

	// Clamp for numerical safety before the affine map.
	if cos > 1 {
		cos = 1
	}
	if cos < -1 {
		cos = -1
	}

	return ((cos + 1) / 2) * 100
}

// scoreFingerprints maps Hamming distance onto [0, 100]. A zero fingerprint
// is the sentinel for failed extraction and scores 0.
func scoreFingerprints(a, b uint64) float64 {
	if a == 0 || b == 0 {
		return 0
	}
	distance := HammingDistance(a, b)
	return float64(FingerprintBits-distance) / FingerprintBits * 100
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Returns false for mismatched lengths, empty, or zero-norm vectors.
func cosineSimilarity(a, b []float32) (float64, bool) {
	if len(a) != len(b) || len(a) == 0 {
		return 0, false
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0, false
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB)), true
}
