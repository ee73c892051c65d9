package match

import (
	"testing"

	"github.com/matsen/bibvet/internal/bibtex"
)

func reportsByReason(reports []Report, reason Reason) []Report {
	var out []Report
	for _, r := range reports {
		if r.Reason == reason {
			out = append(out, r)
		}
	}
	return out
}

func TestFindDuplicates_SameTitle(t *testing.T) {
	entries := []bibtex.Entry{
		{Key: "x1", Title: "Attention Is All You Need"},
		{Key: "x2", Title: "attention is all you need"},
	}

	reports := FindDuplicates(entries, DefaultOptions())

	same := reportsByReason(reports, ReasonSameTitle)
	if len(same) != 1 {
		t.Fatalf("got %d same_title reports, want 1: %+v", len(same), reports)
	}
	if same[0].KeyA != "x1" || same[0].KeyB != "x2" {
		t.Errorf("report pair = (%s, %s), want (x1, x2)", same[0].KeyA, same[0].KeyB)
	}
	// Identical normalized titles must not also produce a fuzzy report.
	if fuzzy := reportsByReason(reports, ReasonFuzzyTitle); len(fuzzy) != 0 {
		t.Errorf("unexpected fuzzy reports for exact-title pair: %+v", fuzzy)
	}
}

func TestFindDuplicates_SameArxivID(t *testing.T) {
	entries := []bibtex.Entry{
		{Key: "a", Title: "A Study of Something Entirely Blue", ArXivID: "2301.00001"},
		{Key: "b", Title: "Completely Different Words Here Indeed", ArXivID: "2301.00001"},
	}

	reports := FindDuplicates(entries, DefaultOptions())

	arxiv := reportsByReason(reports, ReasonSameArxivID)
	if len(arxiv) != 1 {
		t.Fatalf("got %d same_arxiv_id reports, want 1: %+v", len(arxiv), reports)
	}
	if arxiv[0].KeyA != "a" || arxiv[0].KeyB != "b" {
		t.Errorf("report pair = (%s, %s), want (a, b)", arxiv[0].KeyA, arxiv[0].KeyB)
	}
}

func TestFindDuplicates_Fuzzy(t *testing.T) {
	entries := []bibtex.Entry{
		{Key: "v1", Title: "Scaling Vision Transformers"},
		{Key: "v2", Title: "Scaling Vision Transformers to 22 Billion Parameters"},
	}

	reports := FindDuplicates(entries, DefaultOptions())

	if same := reportsByReason(reports, ReasonSameTitle); len(same) != 0 {
		t.Errorf("unexpected same_title reports: %+v", same)
	}

	fuzzy := reportsByReason(reports, ReasonFuzzyTitle)
	if len(fuzzy) != 1 {
		t.Fatalf("got %d fuzzy reports, want 1: %+v", len(fuzzy), reports)
	}
	r := fuzzy[0]
	if r.Score < 0.85 {
		t.Errorf("fuzzy score = %v, want >= 0.85", r.Score)
	}
	if r.TitleA != "Scaling Vision Transformers" || r.TitleB != "Scaling Vision Transformers to 22 Billion Parameters" {
		t.Errorf("fuzzy titles = (%q, %q)", r.TitleA, r.TitleB)
	}
}

func TestFindDuplicates_ShortTitlesSkipExactPass(t *testing.T) {
	// "Go" normalizes to 2 characters, below the exact-match floor.
	entries := []bibtex.Entry{
		{Key: "s1", Title: "Go"},
		{Key: "s2", Title: "Go"},
	}

	reports := FindDuplicates(entries, DefaultOptions())
	if len(reports) != 0 {
		t.Errorf("short titles produced reports: %+v", reports)
	}
}

func TestFindDuplicates_CanonicalPairOrder(t *testing.T) {
	// Same entries in reverse encounter order must produce the same pair.
	entries := []bibtex.Entry{
		{Key: "zzz", Title: "Language Models Are Few-Shot Learners"},
		{Key: "aaa", Title: "language models are few-shot learners"},
	}

	reports := FindDuplicates(entries, DefaultOptions())
	if len(reports) != 1 {
		t.Fatalf("got %d reports, want 1", len(reports))
	}
	if reports[0].KeyA != "aaa" || reports[0].KeyB != "zzz" {
		t.Errorf("pair = (%s, %s), want (aaa, zzz)", reports[0].KeyA, reports[0].KeyB)
	}
}

func TestFindDuplicates_ArxivAndFuzzyBothReported(t *testing.T) {
	entries := []bibtex.Entry{
		{Key: "p1", Title: "Robust Speech Recognition via Weak Supervision", ArXivID: "2212.04356"},
		{Key: "p2", Title: "Robust Speech Recognition via Large-Scale Weak Supervision", ArXivID: "2212.04356"},
	}

	reports := FindDuplicates(entries, DefaultOptions())

	if arxiv := reportsByReason(reports, ReasonSameArxivID); len(arxiv) != 1 {
		t.Errorf("got %d arxiv reports, want 1", len(arxiv))
	}
	// Subset-biased similarity is 1.0 here, so the fuzzy pass fires too.
	if fuzzy := reportsByReason(reports, ReasonFuzzyTitle); len(fuzzy) != 1 {
		t.Errorf("got %d fuzzy reports, want 1", len(fuzzy))
	}
}

func TestFindDuplicates_NoDuplicates(t *testing.T) {
	entries := []bibtex.Entry{
		{Key: "a", Title: "Graph Attention Networks For Molecules"},
		{Key: "b", Title: "Quantum Chemistry With Neural Wavefunctions"},
	}

	if reports := FindDuplicates(entries, DefaultOptions()); len(reports) != 0 {
		t.Errorf("unexpected reports: %+v", reports)
	}
}
