package matcher

import (
	"context"
	"log"

	"github.com/kozaktomas/facetrace/internal/feature"
	"golang.org/x/sync/errgroup"
)

// FindMatches compares the query image set against every candidate group
// and returns one MatchResult per candidate whose best pairwise similarity
// reaches the threshold. Results keep candidate iteration order; the engine
// does not sort by score.
//
// Comparisons for a candidate stop as soon as its best similarity reaches
// the threshold: only "found or not, plus best score" is needed, so further
// pairs would be wasted work. Candidates with no images, and images that
// fail to fetch or extract, are skipped silently.
func (m *Matcher) FindMatches(ctx context.Context, queryImages []string, candidates []PersonGroup, threshold float64) []MatchResult {
	results := []MatchResult{}
	if len(queryImages) == 0 || len(candidates) == 0 {
		return results
	}

	for _, candidate := range candidates {
		if len(candidate.Images) == 0 {
			continue
		}

		best := 0.0
		compared := false
	pairs:
		for _, queryURL := range queryImages {
			queryRep, err := m.extract(ctx, queryURL)
			if err != nil {
				log.Printf("skipping query image: %v", err)
				continue
			}

			for _, candidateURL := range candidate.Images {
				candidateRep, err := m.extract(ctx, candidateURL)
				if err != nil {
					log.Printf("skipping candidate image: %v", err)
					continue
				}

				compared = true
				if score := feature.Score(queryRep, candidateRep); score > best {
					best = score
				}
				if best >= threshold {
					break pairs
				}
			}
		}

		if compared && best >= threshold {
			results = append(results, MatchResult{
				CandidateID:     candidate.ID,
				Similarity:      best,
				CandidateImages: candidate.Images,
			})
		}
	}

	return results
}

// candidateFeatures pairs a candidate group with its pre-extracted
// representations.
type candidateFeatures struct {
	group PersonGroup
	reps  []feature.Representation
}

// BatchCompare pre-extracts features for every candidate image once before
// iterating query images, avoiding repeated localization and extraction for
// candidates when there are multiple query images. Threshold and best-score
// semantics are identical to FindMatches: same membership, one result per
// candidate, candidate iteration order.
func (m *Matcher) BatchCompare(ctx context.Context, queryImages []string, candidates []PersonGroup, threshold float64) []MatchResult {
	results := []MatchResult{}
	if len(queryImages) == 0 || len(candidates) == 0 {
		return results
	}

	cands := m.extractCandidates(ctx, candidates)

	best := make([]float64, len(cands))
	queried := false
	for _, queryURL := range queryImages {
		queryRep, err := m.extract(ctx, queryURL)
		if err != nil {
			log.Printf("skipping query image: %v", err)
			continue
		}
		queried = true

		for i := range cands {
			if best[i] >= threshold {
				continue // already a confirmed match
			}
			for _, rep := range cands[i].reps {
				if score := feature.Score(queryRep, rep); score > best[i] {
					best[i] = score
				}
				if best[i] >= threshold {
					break
				}
			}
		}
	}

	if !queried {
		return results
	}

	for i := range cands {
		if best[i] >= threshold {
			results = append(results, MatchResult{
				CandidateID:     cands[i].group.ID,
				Similarity:      best[i],
				CandidateImages: cands[i].group.Images,
			})
		}
	}

	return results
}

// extractCandidates computes representations for every candidate image up
// front. Extraction is pure per image, so images run in parallel bounded by
// the configured worker count; the per-candidate slices are fixed slots, so
// no two goroutines share a write target. Candidates whose images all fail
// are dropped here, which makes them unmatchable rather than an error.
func (m *Matcher) extractCandidates(ctx context.Context, candidates []PersonGroup) []candidateFeatures {
	staged := make([][]feature.Representation, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	workers := m.workers
	if workers < 1 {
		workers = 1
	}
	g.SetLimit(workers)

	for ci := range candidates {
		staged[ci] = make([]feature.Representation, len(candidates[ci].Images))
		for ii := range candidates[ci].Images {
			url := candidates[ci].Images[ii]
			slot := &staged[ci][ii]
			g.Go(func() error {
				rep, err := m.extract(gctx, url)
				if err != nil {
					log.Printf("skipping candidate image: %v", err)
					return nil // absorbed, never aborts the batch
				}
				*slot = rep
				return nil
			})
		}
	}
	_ = g.Wait()

	cands := make([]candidateFeatures, 0, len(candidates))
	for ci := range candidates {
		reps := make([]feature.Representation, 0, len(staged[ci]))
		for _, rep := range staged[ci] {
			if rep.Kind != "" {
				reps = append(reps, rep)
			}
		}
		if len(reps) == 0 {
			continue
		}
		cands = append(cands, candidateFeatures{group: candidates[ci], reps: reps})
	}

	return cands
}
