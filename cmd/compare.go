package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/facetrace/internal/config"
	"github.com/kozaktomas/facetrace/internal/matcher"
)

var compareCmd = &cobra.Command{
	Use:   "compare <image-url-1> <image-url-2>",
	Short: "Compare the faces in two images",
	Long: `Compare the faces in two images and print their similarity score.

The score is on a 0-100 scale where 100 means identical features. Images
that cannot be fetched or processed score 0.

Examples:
  # Compare two photos
  facetrace compare https://a.example/1.jpg https://b.example/2.jpg

  # Output as JSON
  facetrace compare https://a.example/1.jpg https://b.example/2.jpg --json`,
	Args: cobra.ExactArgs(2),
	RunE: runCompare,
}

func init() {
	rootCmd.AddCommand(compareCmd)

	compareCmd.Flags().Bool("json", false, "Output as JSON")
}

func runCompare(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	m, err := matcher.New(cfg)
	if err != nil {
		return fmt.Errorf("creating matcher: %w", err)
	}
	defer m.Close()

	similarity := m.CompareFaces(cmd.Context(), args[0], args[1])

	if mustGetBool(cmd, "json") {
		return json.NewEncoder(os.Stdout).Encode(map[string]any{
			"image_url_1": args[0],
			"image_url_2": args[1],
			"similarity":  similarity,
		})
	}

	fmt.Printf("Similarity: %.2f\n", similarity)
	if similarity >= matcher.DefaultThreshold {
		fmt.Println("Verdict:    likely the same person")
	} else {
		fmt.Println("Verdict:    below the match threshold")
	}
	return nil
}
