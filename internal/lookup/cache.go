package lookup

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Cache wraps a Searcher with a SQLite-backed result cache so repeated runs
// over the same bibliography do not re-query the external index.
//
// Only successful lookups are cached; errors always fall through to the
// caller and leave no cache row behind.
type Cache struct {
	db     *sql.DB
	source string
	inner  Searcher
}

// NewCache opens (or creates) the cache database at path and wraps inner.
// The source tag keeps results from different indexes apart in one file.
func NewCache(path, source string, inner Searcher) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	// SQLite doesn't support concurrent writes
	db.SetMaxOpenConns(1)

	if err := createCacheSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}

	return &Cache{db: db, source: source, inner: inner}, nil
}

// Close closes the cache database.
func (c *Cache) Close() error {
	return c.db.Close()
}

func createCacheSchema(db *sql.DB) error {
	// Several clients may share one cache file.
	if _, err := db.Exec(`PRAGMA busy_timeout = 5000`); err != nil {
		return err
	}

	schema := `
		CREATE TABLE IF NOT EXISTS lookups (
			source TEXT NOT NULL,
			query TEXT NOT NULL,
			lim INTEGER NOT NULL,
			results_json TEXT NOT NULL,
			fetched_at INTEGER NOT NULL,
			PRIMARY KEY (source, query, lim)
		);
	`
	_, err := db.Exec(schema)
	return err
}

// cacheKey normalizes a query for cache lookups.
func cacheKey(query string) string {
	return strings.ToLower(strings.Join(strings.Fields(query), " "))
}

// Search returns cached results when present, otherwise queries the wrapped
// Searcher and stores its results.
func (c *Cache) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	key := cacheKey(query)

	var resultsJSON string
	err := c.db.QueryRowContext(ctx,
		`SELECT results_json FROM lookups WHERE source = ? AND query = ? AND lim = ?`,
		c.source, key, limit,
	).Scan(&resultsJSON)
	switch {
	case err == nil:
		var results []Result
		if jsonErr := json.Unmarshal([]byte(resultsJSON), &results); jsonErr == nil {
			return results, nil
		}
		// Corrupt row: fall through to a fresh lookup.
	case !errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("reading cache: %w", err)
	}

	results, err := c.inner.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(results)
	if err != nil {
		return results, nil // cache write is best-effort
	}
	_, _ = c.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO lookups (source, query, lim, results_json, fetched_at)
		 VALUES (?, ?, ?, ?, ?)`,
		c.source, key, limit, string(encoded), time.Now().Unix(),
	)

	return results, nil
}
