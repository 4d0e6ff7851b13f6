package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/facetrace/internal/config"
	"github.com/kozaktomas/facetrace/internal/database"
	"github.com/kozaktomas/facetrace/internal/database/postgres"
	"github.com/kozaktomas/facetrace/internal/matcher"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Search the unidentified records for all approved missing persons",
	Long: `Run a match search for every approved missing person report against
all active unidentified records.

Candidate features are extracted once per run and reused across reports.
Reports that already have a recorded match are skipped unless --all is
given.

Examples:
  # Search for all approved reports
  facetrace batch

  # Include reports that already have a match, stricter threshold
  facetrace batch --all --threshold 85

  # Record the best match on each report
  facetrace batch --apply`,
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().Float64("threshold", matcher.DefaultThreshold, "Minimum similarity score (0-100) to report a match")
	batchCmd.Flags().Bool("all", false, "Include reports that already have a recorded match")
	batchCmd.Flags().Bool("apply", false, "Write the best match back to each report")
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

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

	missing, err := store.Missing().List(ctx)
	if err != nil {
		return fmt.Errorf("loading missing persons: %w", err)
	}

	includeMatched := mustGetBool(cmd, "all")
	var reports []database.MissingPerson
	for _, person := range missing {
		if person.Status != database.StatusApproved {
			continue
		}
		if person.MatchFound && !includeMatched {
			continue
		}
		reports = append(reports, person)
	}
	if len(reports) == 0 {
		fmt.Println("No approved reports to search.")
		return nil
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
	apply := mustGetBool(cmd, "apply")

	bar := progressbar.NewOptions(len(reports),
		progressbar.OptionSetDescription("Matching reports"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("reports"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)

	type reportMatch struct {
		report database.MissingPerson
		best   matcher.MatchResult
	}
	var found []reportMatch

	for _, report := range reports {
		matches := m.BatchCompare(ctx, report.Images, candidates, threshold)
		if len(matches) > 0 {
			best := matches[0]
			for _, match := range matches[1:] {
				if match.Similarity > best.Similarity {
					best = match
				}
			}
			found = append(found, reportMatch{report: report, best: best})
			if apply {
				if err := store.Missing().UpdateMatch(ctx, report.ID, best); err != nil {
					return fmt.Errorf("recording match for %s: %w", report.ID, err)
				}
			}
		}
		_ = bar.Add(1)
	}
	fmt.Println()

	if len(found) == 0 {
		fmt.Printf("No matches at or above %.0f across %d reports.\n", threshold, len(reports))
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "REPORT\tNAME\tCANDIDATE\tSIMILARITY")
	for _, rm := range found {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\n", rm.report.ID, rm.report.Name, rm.best.CandidateID, rm.best.Similarity)
	}
	return w.Flush()
}
