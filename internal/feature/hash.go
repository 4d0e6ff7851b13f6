package feature

import (
	"context"
	"image"

	"golang.org/x/image/draw"
)

// hashSide is the fingerprint grid size. 8x8 pixels yield one bit each,
// packed into a 64-bit hash.
const hashSide = 8

// HashExtractor computes a 64-bit perceptual fingerprint: resize to 8x8,
// convert to intensity, then one bit per pixel set when the pixel is
// brighter than the mean. Robust to small photometric shifts, sensitive to
// structural change. Needs no external resources.
type HashExtractor struct{}

// NewHashExtractor creates a fingerprint extractor.
func NewHashExtractor() *HashExtractor {
	return &HashExtractor{}
}

func (e *HashExtractor) Kind() Kind {
	return KindFingerprint
}

// Extract computes the fingerprint for a face crop.
func (e *HashExtractor) Extract(_ context.Context, img image.Image) (Representation, error) {
	if img == nil {
		return Representation{}, ErrExtractorUnavailable
	}
	return Fingerprint(computeHash(img)), nil
}

func computeHash(img image.Image) uint64 {
	resized := resizeImage(img, hashSide, hashSide)
	gray := toGrayscale(resized)

	var sum float64
	for x := 0; x < hashSide; x++ {
		for y := 0; y < hashSide; y++ {
			sum += gray[x][y]
		}
	}
	mean := sum / (hashSide * hashSide)

	// Raster order: row by row, most significant bit first.
	var hash uint64
	bit := 63
	for y := 0; y < hashSide; y++ {
		for x := 0; x < hashSide; x++ {
			if gray[x][y] > mean {
				hash |= 1 << bit
			}
			bit--
		}
	}

	return hash
}

// HammingDistance computes the number of differing bits between two hashes.
func HammingDistance(hash1, hash2 uint64) int {
	xor := hash1 ^ hash2
	distance := 0
	for xor != 0 {
		distance++
		xor &= xor - 1 // Clear lowest set bit
	}
	return distance
}

// resizeImage scales an image to the specified dimensions.
func resizeImage(img image.Image, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
	return dst
}

// toGrayscale converts an image to a 2D array of grayscale values (0-255).
func toGrayscale(img *image.RGBA) [][]float64 {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	gray := make([][]float64, width)
	for x := 0; x < width; x++ {
		gray[x] = make([]float64, height)
		for y := 0; y < height; y++ {
			r, g, b, _ := img.At(x, y).RGBA()
			// ITU-R BT.601 luma formula.
			luma := 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(b>>8)
			gray[x][y] = luma
		}
	}

	return gray
}
