// Package verify cross-checks bibliography entries against external
// bibliographic indexes to flag citations that cannot be confirmed.
package verify

import (
	"context"
	"sync"
	"time"

	"github.com/matsen/bibvet/internal/bibtex"
	"github.com/matsen/bibvet/internal/lookup"
	"github.com/matsen/bibvet/internal/match"
)

// Status classifies the outcome of verifying one entry.
type Status string

const (
	// StatusVerified means an external record cleared the similarity
	// threshold.
	StatusVerified Status = "verified"

	// StatusUnverified means lookups succeeded but no candidate cleared
	// the threshold; the entry is a potential hallucination.
	StatusUnverified Status = "unverified"

	// StatusSkipped means the entry key was whitelisted and never queried.
	StatusSkipped Status = "skipped"

	// StatusLookupFailed means a lookup call failed; terminal for this
	// entry, no retry.
	StatusLookupFailed Status = "lookup_failed"
)

// MismatchKind tags an advisory detail mismatch on a verified entry.
type MismatchKind string

const (
	MismatchYear        MismatchKind = "year"
	MismatchFirstAuthor MismatchKind = "first_author"
)

// Mismatch is an advisory discrepancy between the local entry and the
// accepted external record.
type Mismatch struct {
	Kind   MismatchKind `json:"kind"`
	Local  string       `json:"local"`
	Remote string       `json:"remote"`
}

// Finding is the verification outcome for one entry.
type Finding struct {
	Key          string     `json:"key"`
	Status       Status     `json:"status"`
	LocalTitle   string     `json:"local_title"`
	MatchedTitle string     `json:"matched_title,omitempty"`
	Source       string     `json:"source,omitempty"` // index that confirmed the entry
	Mismatches   []Mismatch `json:"mismatches,omitempty"`
	Error        string     `json:"error,omitempty"`
}

// Summary aggregates a verification run.
type Summary struct {
	Total      int `json:"total"`
	Verified   int `json:"verified"`
	Unverified int `json:"unverified"`
	Failed     int `json:"failed"`
	Skipped    int `json:"skipped"`
}

// Options configures a verification run.
type Options struct {
	// Threshold is the minimum strict-overlap similarity for accepting an
	// external record as the same paper.
	Threshold float64

	// BatchSize is the number of entries looked up concurrently.
	BatchSize int

	// BatchDelay is the fixed pause between batches, coarse rate limiting
	// on top of the per-client limiters.
	BatchDelay time.Duration

	// Whitelist holds entry keys exempted from verification.
	Whitelist map[string]bool
}

// DefaultOptions returns the standard verification parameters.
func DefaultOptions() Options {
	return Options{
		Threshold:  0.8,
		BatchSize:  5,
		BatchDelay: 1200 * time.Millisecond,
	}
}

// source pairs a Searcher with its report name.
type source struct {
	name     string
	searcher lookup.Searcher
}

// Verifier checks entries against a primary index with a fallback.
type Verifier struct {
	sources []source
	opts    Options
}

// New creates a Verifier querying primary first, then fallback.
func New(primaryName string, primary lookup.Searcher, fallbackName string, fallback lookup.Searcher, opts Options) *Verifier {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 1
	}
	v := &Verifier{opts: opts}
	if primary != nil {
		v.sources = append(v.sources, source{name: primaryName, searcher: primary})
	}
	if fallback != nil {
		v.sources = append(v.sources, source{name: fallbackName, searcher: fallback})
	}
	return v
}

// Verify checks every entry and returns findings in input order plus a
// summary. Lookups run concurrently within fixed-size batches; a failure
// for one entry never aborts its batch or the run.
func (v *Verifier) Verify(ctx context.Context, entries []bibtex.Entry) (Summary, []Finding) {
	findings := make([]Finding, len(entries))

	for start := 0; start < len(entries); start += v.opts.BatchSize {
		end := start + v.opts.BatchSize
		if end > len(entries) {
			end = len(entries)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			// Each goroutine writes only its own slot, so findings
			// stay in input order without locking.
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				findings[i] = v.checkEntry(ctx, entries[i])
			}(i)
		}
		wg.Wait()

		if end < len(entries) && v.opts.BatchDelay > 0 {
			select {
			case <-ctx.Done():
				// Remaining entries surface as lookup failures via
				// their own context errors on the next batch.
			case <-time.After(v.opts.BatchDelay):
			}
		}
	}

	summary := Summary{Total: len(entries)}
	for _, f := range findings {
		switch f.Status {
		case StatusVerified:
			summary.Verified++
		case StatusUnverified:
			summary.Unverified++
		case StatusLookupFailed:
			summary.Failed++
		case StatusSkipped:
			summary.Skipped++
		}
	}
	return summary, findings
}

// checkEntry verifies a single entry against the configured sources.
func (v *Verifier) checkEntry(ctx context.Context, entry bibtex.Entry) Finding {
	f := Finding{Key: entry.Key, LocalTitle: entry.Title}

	if v.opts.Whitelist[entry.Key] {
		f.Status = StatusSkipped
		return f
	}

	for _, src := range v.sources {
		results, err := src.searcher.Search(ctx, entry.Title, 1)
		if err != nil {
			f.Status = StatusLookupFailed
			f.Error = err.Error()
			return f
		}
		if len(results) == 0 {
			continue
		}
		if match.Similarity(entry.Title, results[0].Title, match.DenomLarger) > v.opts.Threshold {
			f.Status = StatusVerified
			f.MatchedTitle = results[0].Title
			f.Source = src.name
			f.Mismatches = checkDetails(entry, results[0])
			return f
		}
	}

	f.Status = StatusUnverified
	return f
}
