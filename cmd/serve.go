package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/facetrace/internal/config"
	"github.com/kozaktomas/facetrace/internal/database"
	"github.com/kozaktomas/facetrace/internal/database/postgres"
	"github.com/kozaktomas/facetrace/internal/matcher"
	"github.com/kozaktomas/facetrace/internal/web"
	"github.com/kozaktomas/facetrace/internal/web/handlers"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Long: `Start the FaceTrace API server.

The server exposes the missing and unidentified person records, the
match search and the direct comparison endpoints. When the matcher
cannot be initialized (cascade or model files missing) the record
endpoints keep working and the matching endpoints return 503.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
}

// resolveServeHostPort resolves port and host from flags and environment variables.
func resolveServeHostPort(cmd *cobra.Command) (int, string) {
	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")

	if envPort := os.Getenv("WEB_PORT"); envPort != "" {
		fmt.Sscanf(envPort, "%d", &port)
	}
	if envHost := os.Getenv("WEB_HOST"); envHost != "" {
		host = envHost
	}
	return port, host
}

// initEmbeddingIndex loads or builds the in-memory HNSW index over the
// embedding cache. Failures downgrade search-by-image, nothing else.
func initEmbeddingIndex(ctx context.Context, store *postgres.Store, cfg *config.Config) *database.EmbeddingIndex {
	index := database.NewEmbeddingIndex()

	if path := cfg.Database.HNSWIndexPath; path != "" {
		if err := index.Load(path); err == nil {
			fmt.Printf("Embedding index loaded from %s (%d photos)\n", path, index.Count())
			return index
		}
	}

	embeddings, err := store.Embeddings().List(ctx, cfg.Embedding.Model)
	if err != nil {
		fmt.Printf("Warning: failed to load cached embeddings: %v\n", err)
		return index
	}
	if err := index.Build(embeddings); err != nil {
		fmt.Printf("Warning: failed to build embedding index: %v\n", err)
		return index
	}
	fmt.Printf("Embedding index built with %d photos\n", index.Count())
	return index
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}

	fmt.Printf("Connecting to PostgreSQL database...\n")
	store, err := postgres.Open(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	defer store.Close()

	ctx := context.Background()

	// A missing cascade or model file should not take the record API down.
	var matchService handlers.MatchService
	var extractor handlers.FeatureExtractor
	m, err := matcher.New(cfg)
	if err != nil {
		fmt.Printf("Warning: matcher unavailable: %v\n", err)
		fmt.Printf("Matching endpoints will return 503\n")
	} else {
		defer m.Close()
		matchService = m
		extractor = m
	}

	index := initEmbeddingIndex(ctx, store, cfg)

	port, host := resolveServeHostPort(cmd)

	server := web.NewServer(host, port, web.Stores{
		Missing:      store.Missing(),
		Unidentified: store.Unidentified(),
		Embeddings:   store.Embeddings(),
	}, matchService, extractor, index)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		if path := cfg.Database.HNSWIndexPath; path != "" && index.Count() > 0 {
			if err := index.Save(path); err != nil {
				fmt.Printf("Warning: failed to save embedding index: %v\n", err)
			} else {
				fmt.Println("Embedding index saved to disk")
			}
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting FaceTrace API on http://%s:%d\n", host, port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
