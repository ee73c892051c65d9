package verify

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/matsen/bibvet/internal/bibtex"
	"github.com/matsen/bibvet/internal/lookup"
)

// fakeSearcher maps queries to canned results or errors and records what
// was asked.
type fakeSearcher struct {
	mu      sync.Mutex
	results map[string][]lookup.Result
	errs    map[string]error
	queries []string
}

func (s *fakeSearcher) Search(ctx context.Context, query string, limit int) ([]lookup.Result, error) {
	s.mu.Lock()
	s.queries = append(s.queries, query)
	s.mu.Unlock()

	if err := s.errs[query]; err != nil {
		return nil, err
	}
	return s.results[query], nil
}

func (s *fakeSearcher) queried(query string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, q := range s.queries {
		if q == query {
			return true
		}
	}
	return false
}

// testOptions disables the inter-batch delay so tests run instantly.
func testOptions() Options {
	opts := DefaultOptions()
	opts.BatchDelay = 0
	return opts
}

func findingByKey(t *testing.T, findings []Finding, key string) Finding {
	t.Helper()
	for _, f := range findings {
		if f.Key == key {
			return f
		}
	}
	t.Fatalf("no finding for key %s in %+v", key, findings)
	return Finding{}
}

func TestVerify_AcceptsPrimaryMatch(t *testing.T) {
	title := "Deep Residual Learning for Image Recognition"
	primary := &fakeSearcher{results: map[string][]lookup.Result{
		title: {{Title: title, Year: 2016, Authors: []string{"Kaiming He"}}},
	}}
	fallback := &fakeSearcher{}

	v := New("dblp", primary, "s2", fallback, testOptions())
	summary, findings := v.Verify(context.Background(), []bibtex.Entry{
		{Key: "he2016resnet", Title: title, Year: 2016, Authors: []string{"He, Kaiming"}},
	})

	if summary.Verified != 1 || summary.Unverified != 0 {
		t.Errorf("summary = %+v, want 1 verified", summary)
	}
	f := findings[0]
	if f.Status != StatusVerified || f.Source != "dblp" {
		t.Errorf("finding = %+v, want verified via dblp", f)
	}
	if len(f.Mismatches) != 0 {
		t.Errorf("unexpected mismatches: %+v", f.Mismatches)
	}
	if len(fallback.queries) != 0 {
		t.Errorf("fallback queried despite primary match: %v", fallback.queries)
	}
}

func TestVerify_FallbackUsedWhenPrimaryMisses(t *testing.T) {
	title := "Language Models Are Few-Shot Learners"
	primary := &fakeSearcher{results: map[string][]lookup.Result{
		title: {{Title: "An Entirely Unrelated Survey Of Databases"}},
	}}
	fallback := &fakeSearcher{results: map[string][]lookup.Result{
		title: {{Title: title, Year: 2020}},
	}}

	v := New("dblp", primary, "s2", fallback, testOptions())
	_, findings := v.Verify(context.Background(), []bibtex.Entry{
		{Key: "brown2020", Title: title, Year: 2020},
	})

	f := findings[0]
	if f.Status != StatusVerified || f.Source != "s2" {
		t.Errorf("finding = %+v, want verified via s2", f)
	}
}

func TestVerify_UnverifiedCounted(t *testing.T) {
	primary := &fakeSearcher{}
	fallback := &fakeSearcher{}

	v := New("dblp", primary, "s2", fallback, testOptions())
	summary, findings := v.Verify(context.Background(), []bibtex.Entry{
		{Key: "ghost2024", Title: "A Paper That Simply Does Not Exist Anywhere"},
	})

	if summary.Unverified != 1 {
		t.Errorf("summary = %+v, want 1 unverified", summary)
	}
	if findings[0].Status != StatusUnverified {
		t.Errorf("finding = %+v, want unverified", findings[0])
	}
}

func TestVerify_YearMismatchButSurnameSubstring(t *testing.T) {
	title := "A Thorough Study Of Something Important"
	primary := &fakeSearcher{results: map[string][]lookup.Result{
		title: {{Title: title, Year: 2023, Authors: []string{"Smith, J."}}},
	}}

	v := New("dblp", primary, "", nil, testOptions())
	_, findings := v.Verify(context.Background(), []bibtex.Entry{
		{Key: "smith2020", Title: title, Year: 2020, Authors: []string{"Smith, John"}},
	})

	f := findings[0]
	if f.Status != StatusVerified {
		t.Fatalf("finding = %+v, want verified", f)
	}
	if len(f.Mismatches) != 1 {
		t.Fatalf("mismatches = %+v, want exactly the year mismatch", f.Mismatches)
	}
	m := f.Mismatches[0]
	if m.Kind != MismatchYear || m.Local != "2020" || m.Remote != "2023" {
		t.Errorf("mismatch = %+v, want year 2020 vs 2023", m)
	}
}

func TestVerify_FirstAuthorMismatch(t *testing.T) {
	title := "Another Thorough Study Of Something Important"
	primary := &fakeSearcher{results: map[string][]lookup.Result{
		title: {{Title: title, Year: 2021, Authors: []string{"Garcia, Maria"}}},
	}}

	v := New("dblp", primary, "", nil, testOptions())
	_, findings := v.Verify(context.Background(), []bibtex.Entry{
		{Key: "smith2021", Title: title, Year: 2021, Authors: []string{"Smith, John"}},
	})

	f := findings[0]
	if len(f.Mismatches) != 1 || f.Mismatches[0].Kind != MismatchFirstAuthor {
		t.Errorf("mismatches = %+v, want first_author mismatch", f.Mismatches)
	}
}

func TestVerify_WhitelistedNeverQueried(t *testing.T) {
	primary := &fakeSearcher{}
	fallback := &fakeSearcher{}

	opts := testOptions()
	opts.Whitelist = map[string]bool{"trusted2025": true}

	v := New("dblp", primary, "s2", fallback, opts)
	summary, findings := v.Verify(context.Background(), []bibtex.Entry{
		{Key: "trusted2025", Title: "A Manually Confirmed Entry Title"},
	})

	if findings[0].Status != StatusSkipped {
		t.Errorf("finding = %+v, want skipped", findings[0])
	}
	if summary.Unverified != 0 || summary.Skipped != 1 {
		t.Errorf("summary = %+v, want 1 skipped, 0 unverified", summary)
	}
	if primary.queried("A Manually Confirmed Entry Title") || fallback.queried("A Manually Confirmed Entry Title") {
		t.Error("whitelisted entry was queried")
	}
}

func TestVerify_BatchIsolation(t *testing.T) {
	good := "A Well Known Paper About Transformers"
	bad := "The Entry Whose Lookup Explodes"
	other := "Another Well Known Paper About Networks"

	primary := &fakeSearcher{
		results: map[string][]lookup.Result{
			good:  {{Title: good}},
			other: {{Title: other}},
		},
		errs: map[string]error{bad: errors.New("transport exploded")},
	}

	v := New("dblp", primary, "", nil, testOptions())
	entries := []bibtex.Entry{
		{Key: "good", Title: good},
		{Key: "bad", Title: bad},
		{Key: "other", Title: other},
	}
	summary, findings := v.Verify(context.Background(), entries)

	if f := findingByKey(t, findings, "bad"); f.Status != StatusLookupFailed || f.Error == "" {
		t.Errorf("bad finding = %+v, want lookup_failed with error", f)
	}
	for _, key := range []string{"good", "other"} {
		if f := findingByKey(t, findings, key); f.Status != StatusVerified {
			t.Errorf("%s finding = %+v, want verified despite batch-mate failure", key, f)
		}
	}
	if summary.Failed != 1 || summary.Verified != 2 {
		t.Errorf("summary = %+v, want 2 verified and 1 failed", summary)
	}
}

func TestVerify_FindingsInInputOrder(t *testing.T) {
	primary := &fakeSearcher{}
	v := New("dblp", primary, "", nil, testOptions())

	entries := make([]bibtex.Entry, 12)
	keys := []string{"k00", "k01", "k02", "k03", "k04", "k05", "k06", "k07", "k08", "k09", "k10", "k11"}
	for i, key := range keys {
		entries[i] = bibtex.Entry{Key: key, Title: "Entry Number " + key + " With A Long Title"}
	}

	_, findings := v.Verify(context.Background(), entries)
	if len(findings) != len(entries) {
		t.Fatalf("got %d findings, want %d", len(findings), len(entries))
	}
	for i, key := range keys {
		if findings[i].Key != key {
			t.Errorf("findings[%d].Key = %s, want %s", i, findings[i].Key, key)
		}
	}
}

func TestFirstAuthorSurname(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"comma form", "Smith, John", "Smith"},
		{"given surname form", "John Smith", "Smith"},
		{"single token", "Aristotle", "Aristotle"},
		{"comma with initial", "Smith, J.", "Smith"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := firstAuthorSurname(tt.input); got != tt.want {
				t.Errorf("firstAuthorSurname(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
