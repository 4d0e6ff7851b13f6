package matcher

import (
	"context"
	"fmt"
	"image"
	"log"

	"github.com/kozaktomas/facetrace/internal/config"
	"github.com/kozaktomas/facetrace/internal/face"
	"github.com/kozaktomas/facetrace/internal/feature"
	"github.com/kozaktomas/facetrace/internal/imaging"
)

// Fetcher downloads and decodes a remote image.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (image.Image, error)
}

// Localizer finds the most prominent face region in an image.
type Localizer interface {
	Locate(img image.Image) (face.Region, error)
}

// Matcher owns the detection and extraction resources for the lifetime of
// the facade and exposes the comparison entry points. The extraction
// strategy is fixed at construction and never mixed within one search.
type Matcher struct {
	fetcher          Fetcher
	localizer        Localizer
	extractor        feature.Extractor
	requireDetection bool
	workers          int

	closer func()
}

// New builds a matcher from configuration. Resource failures (cascade or
// model missing) surface here, once; a caller holding no matcher treats
// matching as unavailable instead of special-casing every call.
func New(cfg *config.Config) (*Matcher, error) {
	detector, err := face.NewDetector(cfg.Face.CascadePath)
	if err != nil {
		return nil, fmt.Errorf("creating face detector: %w", err)
	}

	m := &Matcher{
		fetcher:          imaging.NewFetcher(),
		localizer:        detector,
		requireDetection: cfg.Face.RequireDetection,
		workers:          cfg.Matcher.Workers,
	}

	switch cfg.Matcher.Strategy {
	case "hash":
		m.extractor = feature.NewHashExtractor()
	case "embedding", "":
		preset := cfg.GetModelPreset(cfg.Embedding.Model)
		if cfg.Embedding.Provider == "onnx" {
			onnx, err := feature.NewONNXExtractor(
				cfg.Embedding.ONNXModel,
				cfg.Embedding.ONNXLib,
				cfg.Embedding.Model,
				preset.InputSize,
				preset.Dim,
			)
			if err != nil {
				return nil, fmt.Errorf("creating ONNX extractor: %w", err)
			}
			m.extractor = onnx
			m.closer = onnx.Close
		} else {
			m.extractor = feature.NewRemoteExtractor(
				cfg.Embedding.URL,
				cfg.Embedding.Model,
				preset.InputSize,
				preset.Dim,
			)
		}
	default:
		return nil, fmt.Errorf("unknown matcher strategy %q", cfg.Matcher.Strategy)
	}

	return m, nil
}

// Close releases model resources held by the matcher.
func (m *Matcher) Close() {
	if m.closer != nil {
		m.closer()
	}
}

// Strategy returns the representation kind this matcher produces.
func (m *Matcher) Strategy() feature.Kind {
	return m.extractor.Kind()
}

// extract runs the full per-image pipeline: fetch, locate, extract. Every
// failure is returned to the caller, which absorbs it as "this image
// contributes nothing" rather than aborting the search.
func (m *Matcher) extract(ctx context.Context, url string) (feature.Representation, error) {
	img, err := m.fetcher.Fetch(ctx, url)
	if err != nil {
		return feature.Representation{}, err
	}

	region, err := m.localizer.Locate(img)
	if err != nil {
		return feature.Representation{}, err
	}
	if !region.FaceFound {
		log.Printf("no face detected in %s, using whole image", url)
		if m.requireDetection {
			return feature.Representation{}, fmt.Errorf("no face detected in %s", url)
		}
	}

	rep, err := m.extractor.Extract(ctx, region.Image)
	if err != nil {
		return feature.Representation{}, err
	}

	return rep, nil
}

// Extract runs the per-image pipeline for a single URL and returns the
// resulting representation. Used by callers that cache or index features.
func (m *Matcher) Extract(ctx context.Context, url string) (feature.Representation, error) {
	return m.extract(ctx, url)
}

// CompareFaces compares the faces at two URLs and returns their similarity
// in [0, 100]. Any failure on either side yields 0, never an error.
func (m *Matcher) CompareFaces(ctx context.Context, urlA, urlB string) float64 {
	repA, err := m.extract(ctx, urlA)
	if err != nil {
		log.Printf("comparing faces: %v", err)
		return 0
	}

	repB, err := m.extract(ctx, urlB)
	if err != nil {
		log.Printf("comparing faces: %v", err)
		return 0
	}

	return feature.Score(repA, repB)
}
