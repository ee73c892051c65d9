package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/matsen/bibvet/internal/bibtex"
	"github.com/matsen/bibvet/internal/config"
	"github.com/matsen/bibvet/internal/match"
	"github.com/spf13/cobra"
)

var (
	dupesFuzzyThreshold float64
	dupesMinTitleLen    int
)

func init() {
	dupesCmd.Flags().Float64Var(&dupesFuzzyThreshold, "fuzzy-threshold", 0, "Similarity above which titles are flagged as near-duplicates (default from config)")
	dupesCmd.Flags().IntVar(&dupesMinTitleLen, "min-title-len", 0, "Minimum normalized title length for exact matching (default from config)")
	rootCmd.AddCommand(dupesCmd)
}

var dupesCmd = &cobra.Command{
	Use:   "dupes <file.bib>",
	Short: "Find duplicate and near-duplicate entries",
	Long: `Find potential duplicate entries in a BibTeX file.

Three passes are run: exact normalized-title collisions, shared arXiv
identifiers, and a fuzzy pass flagging titles whose significant words
overlap almost completely (which catches abbreviated variants of the
same paper).`,
	Args: cobra.ExactArgs(1),
	RunE: runDupes,
}

// DupesResult is the response for the dupes command.
type DupesResult struct {
	Status     string         `json:"status"`
	Entries    int            `json:"entries"`
	Duplicates []match.Report `json:"duplicates"`
}

func runDupes(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}

	opts := match.Options{
		FuzzyThreshold:   cfg.FuzzyThreshold,
		MinExactTitleLen: cfg.MinExactTitleLen,
	}
	if dupesFuzzyThreshold > 0 {
		opts.FuzzyThreshold = dupesFuzzyThreshold
	}
	if dupesMinTitleLen > 0 {
		opts.MinExactTitleLen = dupesMinTitleLen
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		exitWithError(ExitDataError, "reading %s: %v", args[0], err)
	}

	entries := bibtex.Parse(string(data))
	reports := match.FindDuplicates(entries, opts)

	status := "ok"
	if len(reports) > 0 {
		status = "duplicates"
	}
	if reports == nil {
		reports = []match.Report{}
	}

	if humanOutput {
		printDupesHuman(len(entries), reports)
	} else {
		outputJSON(DupesResult{
			Status:     status,
			Entries:    len(entries),
			Duplicates: reports,
		})
	}

	if len(reports) > 0 {
		os.Exit(ExitIssuesFound)
	}
	return nil
}

func printDupesHuman(entryCount int, reports []match.Report) {
	if len(reports) == 0 {
		fmt.Printf("No duplicates found.\n\n%d entries checked\n", entryCount)
		return
	}

	rows := make([][]string, len(reports))
	for i, r := range reports {
		score := ""
		if r.Reason == match.ReasonFuzzyTitle {
			score = strconv.FormatFloat(r.Score, 'f', 2, 64)
		}
		rows[i] = []string{r.KeyA, r.KeyB, string(r.Reason), score}
	}
	fmt.Println(renderTable([]string{"Key A", "Key B", "Reason", "Score"}, rows))

	for _, r := range reports {
		if r.Reason == match.ReasonFuzzyTitle {
			fmt.Printf("\n%s <==> %s\n  %q\n  %q\n", r.KeyA, r.KeyB,
				truncateString(r.TitleA, TitleMaxLen), truncateString(r.TitleB, TitleMaxLen))
		}
	}
	fmt.Printf("\n%d potential duplicate pairs in %d entries\n", len(reports), entryCount)
}
