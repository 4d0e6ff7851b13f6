package cmd

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/facetrace/internal/config"
	"github.com/kozaktomas/facetrace/internal/database/mariadb"
	"github.com/kozaktomas/facetrace/internal/database/postgres"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import person records from a legacy MariaDB deployment",
	Long: `Import missing person reports and unidentified records from a legacy
MariaDB database into the PostgreSQL store.

The legacy connection is configured with LEGACY_DATABASE_URL (a MySQL
DSN). Imported records get fresh IDs; reports arrive in the pending
state and go through the usual review workflow.

Examples:
  LEGACY_DATABASE_URL='user:pass@tcp(legacy:3306)/persons' facetrace import`,
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg := config.Load()
	if cfg.Legacy.DSN == "" {
		return fmt.Errorf("LEGACY_DATABASE_URL is required")
	}

	legacy, err := mariadb.NewPool(cfg.Legacy.DSN)
	if err != nil {
		return fmt.Errorf("connecting to legacy database: %w", err)
	}
	defer legacy.Close()

	store, err := postgres.Open(&cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer store.Close()

	missing, err := legacy.MissingPersons(ctx)
	if err != nil {
		return fmt.Errorf("reading legacy missing persons: %w", err)
	}
	unidentified, err := legacy.UnidentifiedPersons(ctx)
	if err != nil {
		return fmt.Errorf("reading legacy unidentified persons: %w", err)
	}

	total := len(missing) + len(unidentified)
	if total == 0 {
		fmt.Println("Nothing to import.")
		return nil
	}

	bar := progressbar.NewOptions(total,
		progressbar.OptionSetDescription("Importing records"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("records"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionFullWidth(),
	)

	var importedMissing, importedUnidentified, skipped int
	for i := range missing {
		person := missing[i]
		if len(person.Images) == 0 {
			skipped++
			_ = bar.Add(1)
			continue
		}
		if err := store.Missing().Create(ctx, &person); err != nil {
			return fmt.Errorf("importing missing person %s: %w", person.Name, err)
		}
		importedMissing++
		_ = bar.Add(1)
	}
	for i := range unidentified {
		person := unidentified[i]
		if len(person.Images) == 0 {
			skipped++
			_ = bar.Add(1)
			continue
		}
		if err := store.Unidentified().Create(ctx, &person); err != nil {
			return fmt.Errorf("importing unidentified person: %w", err)
		}
		importedUnidentified++
		_ = bar.Add(1)
	}
	fmt.Println()

	fmt.Printf("Imported %d missing and %d unidentified records (%d skipped without photos).\n",
		importedMissing, importedUnidentified, skipped)
	return nil
}
