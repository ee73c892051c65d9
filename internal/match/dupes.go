package match

import (
	"sort"

	"github.com/matsen/bibvet/internal/bibtex"
)

// Reason tags why a pair of entries was flagged as potential duplicates.
type Reason string

const (
	ReasonSameTitle   Reason = "same_title"
	ReasonSameArxivID Reason = "same_arxiv_id"
	ReasonFuzzyTitle  Reason = "fuzzy_title"
)

// Report is a single potential-duplicate pair. KeyA and KeyB are in
// canonical (sorted) order so a pair is reported identically regardless of
// detection order.
type Report struct {
	KeyA   string  `json:"key_a"`
	KeyB   string  `json:"key_b"`
	Reason Reason  `json:"reason"`
	Score  float64 `json:"score,omitempty"`   // fuzzy reports only
	TitleA string  `json:"title_a,omitempty"` // fuzzy reports only
	TitleB string  `json:"title_b,omitempty"`
}

// newReport builds a Report with canonically ordered keys.
func newReport(keyA, keyB string, reason Reason) Report {
	if keyB < keyA {
		keyA, keyB = keyB, keyA
	}
	return Report{KeyA: keyA, KeyB: keyB, Reason: reason}
}

// Options configures duplicate detection.
type Options struct {
	// FuzzyThreshold is the minimum subset-biased similarity for a fuzzy
	// report.
	FuzzyThreshold float64

	// MinExactTitleLen excludes titles whose normalized form is shorter
	// than this from the exact-title pass. Short titles still take part
	// in the fuzzy pass.
	MinExactTitleLen int
}

// DefaultOptions returns the standard detection thresholds.
func DefaultOptions() Options {
	return Options{
		FuzzyThreshold:   0.85,
		MinExactTitleLen: 10,
	}
}

// FindDuplicates runs three passes over the entries and returns the merged,
// deduplicated set of potential duplicate pairs:
//
//  1. exact normalized-title collisions,
//  2. arXiv identifier collisions,
//  3. an O(n²) fuzzy pass using subset-biased similarity.
//
// A pair flagged by the exact-title pass is excluded from the fuzzy pass.
// The same pair may legitimately carry both an arXiv and a fuzzy report.
func FindDuplicates(entries []bibtex.Entry, opts Options) []Report {
	seen := make(map[Report]bool)
	var reports []Report
	add := func(r Report) {
		key := r
		key.Score, key.TitleA, key.TitleB = 0, "", ""
		if !seen[key] {
			seen[key] = true
			reports = append(reports, r)
		}
	}

	// Pass 1: exact normalized title.
	seenTitles := make(map[string]string) // normalized title -> first key
	for _, e := range entries {
		norm := NormalizeTitle(e.Title)
		if len(norm) < opts.MinExactTitleLen {
			continue
		}
		if first, ok := seenTitles[norm]; ok {
			add(newReport(first, e.Key, ReasonSameTitle))
		} else {
			seenTitles[norm] = e.Key
		}
	}

	// Pass 2: arXiv identity.
	seenArxiv := make(map[string]string) // arXiv id -> first key
	for _, e := range entries {
		if e.ArXivID == "" {
			continue
		}
		if first, ok := seenArxiv[e.ArXivID]; ok {
			add(newReport(first, e.Key, ReasonSameArxivID))
		} else {
			seenArxiv[e.ArXivID] = e.Key
		}
	}

	// Pass 3: fuzzy similarity over pairs not already exact-matched.
	for i := 0; i < len(entries); i++ {
		for j := i + 1; j < len(entries); j++ {
			a, b := entries[i], entries[j]
			if NormalizeTitle(a.Title) == NormalizeTitle(b.Title) {
				continue
			}
			if sim := Similarity(a.Title, b.Title, DenomSmaller); sim > opts.FuzzyThreshold {
				if b.Key < a.Key {
					a, b = b, a
				}
				r := newReport(a.Key, b.Key, ReasonFuzzyTitle)
				r.Score = sim
				r.TitleA, r.TitleB = a.Title, b.Title
				add(r)
			}
		}
	}

	sort.Slice(reports, func(i, j int) bool {
		if reports[i].KeyA != reports[j].KeyA {
			return reports[i].KeyA < reports[j].KeyA
		}
		if reports[i].KeyB != reports[j].KeyB {
			return reports[i].KeyB < reports[j].KeyB
		}
		return reports[i].Reason < reports[j].Reason
	})
	return reports
}
