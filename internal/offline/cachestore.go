// Package offline implements the installable-app offline layer: a
// versioned response cache and a local caching proxy in front of the
// Git-Done origin that applies per-request cache strategies.
package offline

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Entry is one cached response, keyed by request URL within a partition.
type Entry struct {
	URL       string
	Status    int
	Header    http.Header
	Body      []byte
	FetchedAt time.Time
}

// CacheStore persists cache partitions in SQLite (pure Go driver, no CGO).
// A partition is a named, versioned set of request/response pairs; writes
// overwrite by URL, eviction is always partition-wide.
type CacheStore struct {
	db *sql.DB
}

// OpenCacheStore opens (or creates) the cache database at the given path.
func OpenCacheStore(path string) (*CacheStore, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}

	// SQLite only supports one concurrent writer; a single connection
	// serializes access through Go's pool and avoids "database is locked".
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	const schema = `
CREATE TABLE IF NOT EXISTS cache_entries (
	partition  TEXT NOT NULL,
	url        TEXT NOT NULL,
	status     INTEGER NOT NULL,
	headers    TEXT NOT NULL,
	body       BLOB NOT NULL,
	fetched_at TEXT NOT NULL,
	PRIMARY KEY (partition, url)
);`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create cache schema: %w", err)
	}

	return &CacheStore{db: db}, nil
}

// Close releases the underlying database.
func (s *CacheStore) Close() error {
	return s.db.Close()
}

// Put stores (or overwrites) an entry in the given partition.
func (s *CacheStore) Put(ctx context.Context, partition string, e *Entry) error {
	headers, err := json.Marshal(e.Header)
	if err != nil {
		return fmt.Errorf("encode cached headers: %w", err)
	}
	fetchedAt := e.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now()
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO cache_entries (partition, url, status, headers, body, fetched_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (partition, url) DO UPDATE SET
	status = excluded.status,
	headers = excluded.headers,
	body = excluded.body,
	fetched_at = excluded.fetched_at`,
		partition, e.URL, e.Status, string(headers), e.Body, fetchedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("write cache entry %s: %w", e.URL, err)
	}
	return nil
}

// Match looks up the entry for a request URL within a partition.
func (s *CacheStore) Match(ctx context.Context, partition, url string) (*Entry, bool, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT status, headers, body, fetched_at FROM cache_entries
WHERE partition = ? AND url = ?`, partition, url)

	var (
		e          Entry
		rawHeaders string
		fetchedAt  string
	)
	err := row.Scan(&e.Status, &rawHeaders, &e.Body, &fetchedAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read cache entry %s: %w", url, err)
	}

	e.URL = url
	if err := json.Unmarshal([]byte(rawHeaders), &e.Header); err != nil {
		e.Header = http.Header{}
	}
	if t, err := time.Parse(time.RFC3339, fetchedAt); err == nil {
		e.FetchedAt = t
	}
	return &e, true, nil
}

// Partitions enumerates every cache partition currently stored.
func (s *CacheStore) Partitions(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT partition FROM cache_entries ORDER BY partition`)
	if err != nil {
		return nil, fmt.Errorf("list cache partitions: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan partition name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// DeletePartition removes a whole partition. Key-level eviction is
// deliberately not offered.
func (s *CacheStore) DeletePartition(ctx context.Context, partition string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE partition = ?`, partition); err != nil {
		return fmt.Errorf("delete cache partition %s: %w", partition, err)
	}
	return nil
}

// Count returns the number of entries in a partition.
func (s *CacheStore) Count(ctx context.Context, partition string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cache_entries WHERE partition = ?`, partition).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count cache entries: %w", err)
	}
	return n, nil
}
