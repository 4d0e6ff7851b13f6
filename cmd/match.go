package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/facetrace/internal/config"
	"github.com/kozaktomas/facetrace/internal/database"
	"github.com/kozaktomas/facetrace/internal/database/postgres"
	"github.com/kozaktomas/facetrace/internal/matcher"
)

var matchCmd = &cobra.Command{
	Use:   "match <missing-person-id>",
	Short: "Search the unidentified records for matches to a missing person",
	Long: `Search all active unidentified person records for faces matching a
missing person's photos.

This command:
1. Loads the missing person report and its photos
2. Loads all active unidentified person records
3. Compares every photo pair and scores their similarity
4. Reports candidates whose best score reaches the threshold

Use --batch to pre-extract candidate features once and reuse them across
query photos; this is faster when the report has several photos.
Use --apply to write the best match back to the report.

Examples:
  # Search with the default threshold
  facetrace match 6f1c2a3e

  # Stricter threshold, batch mode
  facetrace match 6f1c2a3e --threshold 85 --batch

  # Record the best match on the report
  facetrace match 6f1c2a3e --apply`,
	Args: cobra.ExactArgs(1),
	RunE: runMatch,
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().Float64("threshold", matcher.DefaultThreshold, "Minimum similarity score (0-100) to report a match")
	matchCmd.Flags().Bool("batch", false, "Pre-extract candidate features once and reuse them")
	matchCmd.Flags().Bool("apply", false, "Write the best match back to the report")
	matchCmd.Flags().Bool("json", false, "Output as JSON")
}

func runMatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	id := args[0]

	threshold := mustGetFloat64(cmd, "threshold")
	if threshold < 0 || threshold > 100 {
		return fmt.Errorf("threshold must be between 0 and 100, got %v", threshold)
	}

	cfg := config.Load()

	store, err := postgres.Open(&cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer store.Close()

	person, err := store.Missing().Get(ctx, id)
	if err != nil {
		return fmt.Errorf("loading missing person: %w", err)
	}
	if person == nil {
		return fmt.Errorf("missing person %q not found", id)
	}

	unidentified, err := store.Unidentified().ListActive(ctx)
	if err != nil {
		return fmt.Errorf("loading unidentified persons: %w", err)
	}
	if len(unidentified) == 0 {
		fmt.Println("No active unidentified records to search.")
		return nil
	}

	m, err := matcher.New(cfg)
	if err != nil {
		return fmt.Errorf("creating matcher: %w", err)
	}
	defer m.Close()

	candidates := database.Groups(unidentified)

	var matches []matcher.MatchResult
	if mustGetBool(cmd, "batch") {
		matches = m.BatchCompare(ctx, person.Images, candidates, threshold)
	} else {
		matches = m.FindMatches(ctx, person.Images, candidates, threshold)
	}

	if mustGetBool(cmd, "apply") && len(matches) > 0 {
		best := matches[0]
		for _, match := range matches[1:] {
			if match.Similarity > best.Similarity {
				best = match
			}
		}
		if err := store.Missing().UpdateMatch(ctx, id, best); err != nil {
			return fmt.Errorf("recording match: %w", err)
		}
		fmt.Printf("Recorded match %s (%.2f) on report %s\n", best.CandidateID, best.Similarity, id)
	}

	if mustGetBool(cmd, "json") {
		return json.NewEncoder(os.Stdout).Encode(map[string]any{
			"missing_person_id": id,
			"threshold":         threshold,
			"matches":           matches,
		})
	}

	if len(matches) == 0 {
		fmt.Printf("No matches at or above %.0f for %s (%d candidates searched).\n",
			threshold, person.Name, len(candidates))
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CANDIDATE\tSIMILARITY\tIMAGES")
	for _, match := range matches {
		fmt.Fprintf(w, "%s\t%.2f\t%d\n", match.CandidateID, match.Similarity, len(match.CandidateImages))
	}
	return w.Flush()
}
