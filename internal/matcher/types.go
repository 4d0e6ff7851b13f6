// Package matcher finds likely identity matches between photo sets by
// scoring visual similarity.
package matcher

// DefaultThreshold is the minimum similarity (in percent) for a candidate
// to count as a match when the caller does not supply one.
const DefaultThreshold = 70

// PersonGroup is a named collection of images representing one individual,
// either the query (missing person) or a candidate (unidentified person).
type PersonGroup struct {
	ID     string   `json:"id"`
	Images []string `json:"images"`
}

// MatchResult reports one candidate whose best pairwise similarity reached
// the threshold. CandidateImages carries the candidate's full image list so
// callers can present all photos next to the score, not just the winning pair.
type MatchResult struct {
	CandidateID     string   `json:"candidate_id"`
	Similarity      float64  `json:"similarity"`
	CandidateImages []string `json:"candidate_images"`
}
