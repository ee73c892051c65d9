package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/matsen/bibvet/internal/bibtex"
	"github.com/matsen/bibvet/internal/config"
	"github.com/matsen/bibvet/internal/lookup"
	"github.com/matsen/bibvet/internal/verify"
	"github.com/spf13/cobra"
)

var (
	verifyThreshold float64
	verifyBatchSize int
	verifyDelayMS   int
	verifyWhitelist []string
	verifyNoCache   bool
)

func init() {
	verifyCmd.Flags().Float64Var(&verifyThreshold, "threshold", 0, "Similarity required to accept an external match (default from config)")
	verifyCmd.Flags().IntVar(&verifyBatchSize, "batch-size", 0, "Concurrent lookups per batch (default from config)")
	verifyCmd.Flags().IntVar(&verifyDelayMS, "delay", -1, "Milliseconds to pause between batches (default from config)")
	verifyCmd.Flags().StringSliceVar(&verifyWhitelist, "whitelist", nil, "Entry keys to skip (repeatable, added to config whitelist)")
	verifyCmd.Flags().BoolVar(&verifyNoCache, "no-cache", false, "Bypass the lookup result cache")
	rootCmd.AddCommand(verifyCmd)
}

var verifyCmd = &cobra.Command{
	Use:   "verify <file.bib>",
	Short: "Cross-check entries against DBLP and Semantic Scholar",
	Long: `Verify that every entry in a BibTeX file exists in an external
bibliographic index.

Each entry's title is searched on DBLP first, then Semantic Scholar. An
entry is confirmed when a result's title overlaps almost completely with
the local title; confirmed matches are further checked for publication
year drift and first-author surname disagreement. Entries no index can
confirm are reported as potential hallucinations.`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

// VerifyResult is the response for the verify command.
type VerifyResult struct {
	Status   string           `json:"status"`
	Summary  verify.Summary   `json:"summary"`
	Findings []verify.Finding `json:"findings"`
}

func runVerify(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}

	opts := verify.Options{
		Threshold:  cfg.VerifyThreshold,
		BatchSize:  cfg.BatchSize,
		BatchDelay: cfg.BatchDelay(),
		Whitelist:  cfg.WhitelistSet(),
	}
	if verifyThreshold > 0 {
		opts.Threshold = verifyThreshold
	}
	if verifyBatchSize > 0 {
		opts.BatchSize = verifyBatchSize
	}
	if verifyDelayMS >= 0 {
		opts.BatchDelay = config.Config{BatchDelayMS: verifyDelayMS}.BatchDelay()
	}
	for _, key := range verifyWhitelist {
		opts.Whitelist[key] = true
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		exitWithError(ExitDataError, "reading %s: %v", args[0], err)
	}
	entries := bibtex.Parse(string(data))

	primary, fallback, closeCaches := buildSearchers(cfg)
	defer closeCaches()

	v := verify.New("dblp", primary, "s2", fallback, opts)
	summary, findings := v.Verify(context.Background(), entries)

	status := "ok"
	if summary.Unverified > 0 || summary.Failed > 0 {
		status = "issues"
	}
	if findings == nil {
		findings = []verify.Finding{}
	}

	if humanOutput {
		printVerifyHuman(summary, findings)
	} else {
		outputJSON(VerifyResult{
			Status:   status,
			Summary:  summary,
			Findings: findings,
		})
	}

	if summary.Unverified > 0 {
		os.Exit(ExitIssuesFound)
	}
	return nil
}

// buildSearchers constructs the DBLP and S2 clients, wrapping each in the
// SQLite lookup cache unless caching is disabled.
func buildSearchers(cfg config.Config) (primary, fallback lookup.Searcher, closeCaches func()) {
	var s2Opts []lookup.S2Option
	if cfg.S2APIKey != "" && os.Getenv("S2_API_KEY") == "" {
		s2Opts = append(s2Opts, lookup.WithS2APIKey(cfg.S2APIKey))
	}

	primary = lookup.NewDBLPClient()
	fallback = lookup.NewS2Client(s2Opts...)
	closeCaches = func() {}

	if verifyNoCache {
		return primary, fallback, closeCaches
	}
	cachePath := cfg.CachePath
	if cachePath == "" {
		cachePath = config.DefaultCachePath()
	}
	if cachePath == "" {
		return primary, fallback, closeCaches
	}
	if err := os.MkdirAll(filepath.Dir(cachePath), 0755); err != nil {
		return primary, fallback, closeCaches
	}

	var closers []func() error
	if c, err := lookup.NewCache(cachePath, "dblp", primary); err == nil {
		primary = c
		closers = append(closers, c.Close)
	}
	if c, err := lookup.NewCache(cachePath, "s2", fallback); err == nil {
		fallback = c
		closers = append(closers, c.Close)
	}
	closeCaches = func() {
		for _, fn := range closers {
			_ = fn()
		}
	}
	return primary, fallback, closeCaches
}

func printVerifyHuman(summary verify.Summary, findings []verify.Finding) {
	for _, f := range findings {
		switch f.Status {
		case verify.StatusSkipped:
			fmt.Printf("SKIP [%s] whitelisted\n", f.Key)
		case verify.StatusLookupFailed:
			fmt.Printf("ERROR [%s]: %s\n", f.Key, f.Error)
		case verify.StatusUnverified:
			fmt.Printf("NOT FOUND [%s]\n   Local title: %s\n", f.Key, f.LocalTitle)
		case verify.StatusVerified:
			for _, m := range f.Mismatches {
				switch m.Kind {
				case verify.MismatchYear:
					fmt.Printf("WARN [%s] year mismatch: local %s vs remote %s\n", f.Key, m.Local, m.Remote)
				case verify.MismatchFirstAuthor:
					fmt.Printf("WARN [%s] first author mismatch: local %q vs remote %q\n", f.Key, m.Local, m.Remote)
				}
			}
		}
	}

	fmt.Printf("\nDone. %d entries: %d verified, %d unverified, %d failed, %d skipped.\n",
		summary.Total, summary.Verified, summary.Unverified, summary.Failed, summary.Skipped)
}
