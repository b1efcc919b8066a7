// Package probecache is a bounded, SQLite-backed docextract.ProbeCache.
//
// Entries are keyed by the caller's content key. Once the table holds more
// than the configured number of rows, the oldest writes are evicted.
package probecache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/docextract/dbopen"
	"github.com/hazyhaar/docextract/docextract"
)

// Schema creates the cache table. It is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS probe_cache (
    key        TEXT PRIMARY KEY,
    result     TEXT NOT NULL,
    created_at INTEGER NOT NULL
);
`

// DefaultMaxEntries bounds the cache when New is given a non-positive size.
const DefaultMaxEntries = 10_000

// Cache implements docextract.ProbeCache.
type Cache struct {
	db         *sql.DB
	maxEntries int
}

var _ docextract.ProbeCache = (*Cache)(nil)

// New wraps db, which must already hold Schema (see Open).
func New(db *sql.DB, maxEntries int) *Cache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Cache{db: db, maxEntries: maxEntries}
}

// Open opens (or creates) the cache database at path.
func Open(path string, maxEntries int) (*Cache, error) {
	db, err := dbopen.Open(path, dbopen.WithMkdirAll(), dbopen.WithSchema(Schema))
	if err != nil {
		return nil, fmt.Errorf("probecache: %w", err)
	}
	return New(db, maxEntries), nil
}

// Close closes the underlying database.
func (c *Cache) Close() error { return c.db.Close() }

// Get returns the cached result for key. The second result is false on a
// miss.
func (c *Cache) Get(ctx context.Context, key string) (*docextract.ProbeResult, bool, error) {
	var raw string
	err := c.db.QueryRowContext(ctx, `SELECT result FROM probe_cache WHERE key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("probecache: get: %w", err)
	}
	var res docextract.ProbeResult
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		return nil, false, fmt.Errorf("probecache: decode %s: %w", key, err)
	}
	return &res, true, nil
}

// Put stores res under key and evicts the oldest rows past the bound.
func (c *Cache) Put(ctx context.Context, key string, res *docextract.ProbeResult) error {
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("probecache: encode: %w", err)
	}
	return dbopen.RunTx(ctx, c.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO probe_cache (key, result, created_at) VALUES (?, ?, ?)`,
			key, string(data), time.Now().UnixNano()); err != nil {
			return fmt.Errorf("probecache: put: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM probe_cache WHERE rowid IN (
			    SELECT rowid FROM probe_cache ORDER BY rowid DESC LIMIT -1 OFFSET ?
			)`, c.maxEntries); err != nil {
			return fmt.Errorf("probecache: evict: %w", err)
		}
		return nil
	})
}

// Len returns the number of cached results.
func (c *Cache) Len(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM probe_cache`).Scan(&n); err != nil {
		return 0, fmt.Errorf("probecache: count: %w", err)
	}
	return n, nil
}
