// Package face locates the most prominent face in a photograph.
package face

import (
	"errors"
	"fmt"
	"image"
	"os"

	pigo "github.com/esimov/pigo/core"
)

// ErrDetectorUnavailable is returned when the cascade classifier failed to
// load. Callers must treat every image in that run as non-matchable.
var ErrDetectorUnavailable = errors.New("face detector unavailable")

const (
	minFaceSize      = 30
	maxFaceSize      = 1000
	shiftFactor      = 0.1
	scaleFactor      = 1.1
	clusterIoU       = 0.2
	qualityThreshold = 5.0

	// paddingRatio expands the detected box to include hair and jaw,
	// which improves downstream feature extraction.
	paddingRatio = 0.2
)

// Region is a face crop produced by the detector. FaceFound reports whether
// a face was actually detected or the whole image was used as a fallback.
type Region struct {
	Image     image.Image
	Rect      image.Rectangle
	FaceFound bool
}

// Detector finds faces using a pigo cascade classifier.
type Detector struct {
	classifier *pigo.Pigo
}

// NewDetector loads the facefinder cascade from the given path.
func NewDetector(cascadePath string) (*Detector, error) {
	if cascadePath == "" {
		return nil, fmt.Errorf("%w: cascade path not configured", ErrDetectorUnavailable)
	}

	cascade, err := os.ReadFile(cascadePath)
	if err != nil {
		return nil, fmt.Errorf("%w: reading cascade %s: %v", ErrDetectorUnavailable, cascadePath, err)
	}

	classifier, err := pigo.NewPigo().Unpack(cascade)
	if err != nil {
		return nil, fmt.Errorf("%w: unpacking cascade: %v", ErrDetectorUnavailable, err)
	}

	return &Detector{classifier: classifier}, nil
}

// Locate finds the most prominent face in the image and returns a padded
// crop around it. When no face is detected the whole image is returned with
// FaceFound=false; detection failure is a degraded result, not an error.
func (d *Detector) Locate(img image.Image) (Region, error) {
	if d == nil || d.classifier == nil {
		return Region{}, ErrDetectorUnavailable
	}

	src := pigo.ImgToNRGBA(img)
	pixels := pigo.RgbToGrayscale(src)
	cols, rows := src.Bounds().Max.X, src.Bounds().Max.Y

	params := pigo.CascadeParams{
		MinSize:     minFaceSize,
		MaxSize:     maxFaceSize,
		ShiftFactor: shiftFactor,
		ScaleFactor: scaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: pixels,
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}

	dets := d.classifier.RunCascade(params, 0.0)
	dets = d.classifier.ClusterDetections(dets, clusterIoU)

	rect, found := largestDetection(dets)
	if !found {
		return Region{Image: src, Rect: src.Bounds(), FaceFound: false}, nil
	}

	rect = padAndClamp(rect, src.Bounds())
	return Region{Image: src.SubImage(rect), Rect: rect, FaceFound: true}, nil
}

// largestDetection selects the detection with the largest area among those
// above the quality threshold. Prominence beats position.
func largestDetection(dets []pigo.Detection) (image.Rectangle, bool) {
	var best image.Rectangle
	found := false

	for _, det := range dets {
		if det.Q < qualityThreshold {
			continue
		}
		// pigo reports a square centered at (Col, Row) with side Scale.
		half := det.Scale / 2
		rect := image.Rect(det.Col-half, det.Row-half, det.Col-half+det.Scale, det.Row-half+det.Scale)
		if !found || area(rect) > area(best) {
			best = rect
			found = true
		}
	}

	return best, found
}

func area(r image.Rectangle) int {
	return r.Dx() * r.Dy()
}

// padAndClamp expands the box by paddingRatio of min(width, height) on each
// side and clamps it to the image bounds.
func padAndClamp(rect, bounds image.Rectangle) image.Rectangle {
	side := rect.Dx()
	if rect.Dy() < side {
		side = rect.Dy()
	}
	padding := int(float64(side) * paddingRatio)

	padded := image.Rect(
		rect.Min.X-padding,
		rect.Min.Y-padding,
		rect.Max.X+padding,
		rect.Max.Y+padding,
	)
	return padded.Intersect(bounds)
}
