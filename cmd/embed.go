package cmd

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/facetrace/internal/config"
	"github.com/kozaktomas/facetrace/internal/database"
	"github.com/kozaktomas/facetrace/internal/database/postgres"
	"github.com/kozaktomas/facetrace/internal/feature"
	"github.com/kozaktomas/facetrace/internal/matcher"
)

var embedCmd = &cobra.Command{
	Use:   "embed",
	Short: "Warm the embedding cache for all stored photos",
	Long: `Extract and cache feature embeddings for every photo referenced by a
missing person report or an unidentified record.

Cached embeddings speed up repeated match runs and power the
search-by-image endpoint. Already cached photos are skipped unless
--force is given.

Requires an embedding matcher strategy; perceptual fingerprints are not
cached.`,
	RunE: runEmbed,
}

func init() {
	rootCmd.AddCommand(embedCmd)

	embedCmd.Flags().Bool("force", false, "Recompute embeddings that are already cached")
}

func runEmbed(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg := config.Load()

	store, err := postgres.Open(&cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer store.Close()

	m, err := matcher.New(cfg)
	if err != nil {
		return fmt.Errorf("creating matcher: %w", err)
	}
	defer m.Close()

	if m.Strategy() != feature.KindEmbedding {
		return fmt.Errorf("embedding cache requires MATCHER_STRATEGY=embedding, got %q", cfg.Matcher.Strategy)
	}

	urls, err := collectImageURLs(cmd, store)
	if err != nil {
		return err
	}
	if len(urls) == 0 {
		fmt.Println("No photos to embed.")
		return nil
	}

	force := mustGetBool(cmd, "force")
	model := cfg.Embedding.Model

	bar := progressbar.NewOptions(len(urls),
		progressbar.OptionSetDescription("Embedding photos"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("photos"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)

	var cached, computed, failed int
	for _, url := range urls {
		if !force {
			existing, err := store.Embeddings().Get(ctx, url, model)
			if err != nil {
				return fmt.Errorf("checking cache for %s: %w", url, err)
			}
			if existing != nil {
				cached++
				_ = bar.Add(1)
				continue
			}
		}

		rep, err := m.Extract(ctx, url)
		if err != nil {
			failed++
			_ = bar.Add(1)
			continue
		}

		err = store.Embeddings().Save(ctx, database.StoredEmbedding{
			ImageURL:  url,
			Model:     model,
			Embedding: rep.Vector,
		})
		if err != nil {
			return fmt.Errorf("caching embedding for %s: %w", url, err)
		}
		computed++
		_ = bar.Add(1)
	}
	fmt.Println()

	fmt.Printf("Embedded %d photos (%d already cached, %d failed).\n", computed, cached, failed)
	return nil
}

// collectImageURLs gathers the distinct photo URLs from both record tables,
// preserving first-seen order.
func collectImageURLs(cmd *cobra.Command, store *postgres.Store) ([]string, error) {
	ctx := cmd.Context()

	missing, err := store.Missing().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading missing persons: %w", err)
	}
	unidentified, err := store.Unidentified().ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading unidentified persons: %w", err)
	}

	seen := make(map[string]bool)
	var urls []string
	add := func(images []string) {
		for _, url := range images {
			if url == "" || seen[url] {
				continue
			}
			seen[url] = true
			urls = append(urls, url)
		}
	}
	for _, person := range missing {
		add(person.Images)
	}
	for _, person := range unidentified {
		add(person.Images)
	}
	return urls, nil
}
