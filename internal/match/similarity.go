// Package match provides title normalization, word-overlap similarity
// scoring, and duplicate detection over parsed bibliography entries.
package match

import (
	"strings"
	"unicode"
)

// DenomMode selects the denominator for the word-overlap similarity score.
// The two modes encode different matching policies and are not
// interchangeable.
type DenomMode int

const (
	// DenomSmaller divides by the smaller word set. Biased toward
	// detecting one title being a subset or abbreviation of the other,
	// which is what in-document duplicate detection wants.
	DenomSmaller DenomMode = iota

	// DenomLarger divides by the larger word set. Requires near-total
	// overlap, which is what cross-source verification wants before
	// accepting an external record as the same paper.
	DenomLarger
)

// minSignificantWordLen filters out short stop-words before scoring.
const minSignificantWordLen = 3

// NormalizeTitle reduces a title to a lowercase alphanumeric token with no
// whitespace, used for exact duplicate comparison. Idempotent.
func NormalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// significantWords lowercases s, strips characters that are neither
// letters, digits, nor spaces, and returns the set of words longer than
// two characters.
func significantWords(s string) map[string]struct{} {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}

	words := make(map[string]struct{})
	for _, w := range strings.Fields(b.String()) {
		if len(w) >= minSignificantWordLen {
			words[w] = struct{}{}
		}
	}
	return words
}

// Similarity scores the word-set overlap of two titles in [0, 1].
// Symmetric in its title arguments under both denominator modes.
func Similarity(a, b string, mode DenomMode) float64 {
	wordsA := significantWords(a)
	wordsB := significantWords(b)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0
	}

	intersection := 0
	for w := range wordsA {
		if _, ok := wordsB[w]; ok {
			intersection++
		}
	}

	denom := len(wordsA)
	switch mode {
	case DenomSmaller:
		if len(wordsB) < denom {
			denom = len(wordsB)
		}
	case DenomLarger:
		if len(wordsB) > denom {
			denom = len(wordsB)
		}
	}

	return float64(intersection) / float64(denom)
}
