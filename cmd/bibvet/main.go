// Package main provides the bibvet CLI entry point.
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

// humanOutput controls whether to use human-readable output
var humanOutput bool

func main() {
	// Pick up S2_API_KEY and friends from a local .env if present.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "bibvet",
	Short: "Vet a BibTeX bibliography for duplicates and unverifiable citations",
	Long: `bibvet inspects a BibTeX file and reports problems with its entries.

The dupes command finds duplicate and near-duplicate entries within the
file. The verify command cross-checks every entry against DBLP and
Semantic Scholar and flags citations that cannot be confirmed to exist.
All commands output JSON by default for easy scripting.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.Version = Version
}
