// Package feature converts face crops into comparable representations and
// scores their similarity.
package feature

import (
	"context"
	"errors"
	"fmt"
	"image"
)

// ErrExtractorUnavailable is returned when the underlying model or service
// required for extraction is not usable.
var ErrExtractorUnavailable = errors.New("feature extractor unavailable")

// Kind identifies the extraction strategy that produced a representation.
// Representations of different kinds are never comparable.
type Kind string

const (
	// KindEmbedding is a fixed-length real-valued vector from a
	// pretrained image-embedding network.
	KindEmbedding Kind = "embedding"
	// KindFingerprint is a 64-bit perceptual hash.
	KindFingerprint Kind = "fingerprint"
)

// FingerprintBits is the width of a perceptual fingerprint.
const FingerprintBits = 64

// Representation is the comparable output of an extractor: either an
// embedding vector or a bit fingerprint, tagged by Kind.
type Representation struct {
	Kind   Kind
	Vector []float32 // set when Kind == KindEmbedding
	Bits   uint64    // set when Kind == KindFingerprint
}

// Embedding wraps a vector as a representation.
func Embedding(vector []float32) Representation {
	return Representation{Kind: KindEmbedding, Vector: vector}
}

// Fingerprint wraps a 64-bit hash as a representation.
func Fingerprint(bits uint64) Representation {
	return Representation{Kind: KindFingerprint, Bits: bits}
}

// IsZero reports whether the representation is degenerate: an empty or
// zero-norm vector, or an all-zero fingerprint. Degenerate representations
// always score 0.
func (r Representation) IsZero() bool {
	switch r.Kind {
	case KindEmbedding:
		for _, v := range r.Vector {
			if v != 0 {
				return false
			}
		}
		return true
	case KindFingerprint:
		return r.Bits == 0
	default:
		return true
	}
}

// String renders the representation for logging.
func (r Representation) String() string {
	switch r.Kind {
	case KindEmbedding:
		return fmt.Sprintf("embedding(dim=%d)", len(r.Vector))
	case KindFingerprint:
		return fmt.Sprintf("fingerprint(%016x)", r.Bits)
	default:
		return "representation(unknown)"
	}
}

// Extractor converts a face crop into a representation. Implementations are
// safe for concurrent use unless documented otherwise.
type Extractor interface {
	Extract(ctx context.Context, img image.Image) (Representation, error)
	Kind() Kind
}
