// Package lookup provides title-based search clients for external
// bibliographic indexes (DBLP and Semantic Scholar) behind a common
// Searcher interface, plus an optional SQLite-backed result cache.
package lookup

import "context"

// Result is one record returned by a bibliographic search.
type Result struct {
	Title   string   `json:"title"`
	Year    int      `json:"year,omitempty"` // 0 when the source reports no year
	Authors []string `json:"authors,omitempty"`
}

// Searcher is a title-based search over a bibliographic index.
type Searcher interface {
	// Search returns up to limit results ordered by relevance.
	Search(ctx context.Context, query string, limit int) ([]Result, error)
}
