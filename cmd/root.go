package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "facetrace",
	Short: "A CLI tool for matching missing person photos against unidentified records",
	Long: `FaceTrace compares photos of missing persons against photos of
unidentified individuals. It locates the most prominent face in each
image, extracts a feature representation (a deep embedding or a
perceptual fingerprint) and reports similarity scores on a 0-100 scale.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
