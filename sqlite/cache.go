package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/fwojciec/searchcrawl"
)

// Ensure Cache implements searchcrawl.Cache at compile time.
var _ searchcrawl.Cache = (*Cache)(nil)

// Cache stores values in the cache_entries table. Expired rows are invisible
// to Get and removed by Purge.
type Cache struct {
	db *DB

	// Now returns the current time. Tests replace it to control expiry.
	Now func() time.Time
}

// NewCache creates a new Cache on an open DB.
func NewCache(db *DB) *Cache {
	return &Cache{db: db, Now: time.Now}
}

// Get returns the value stored under key, or an ENOTFOUND error when the key
// is missing or expired.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := c.db.QueryRowContext(ctx, `
		SELECT value FROM cache_entries
		WHERE key = ? AND (expires_at = 0 OR expires_at > ?)
	`, key, c.Now().UnixNano()).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, searchcrawl.Errorf(searchcrawl.ENOTFOUND, "cache miss: %s", key)
	}
	if err != nil {
		return nil, searchcrawl.Errorf(searchcrawl.EUNAVAILABLE, "sqlite get: %v", err)
	}
	return value, nil
}

// Set stores value under key, replacing any previous entry. A zero ttl
// stores the value without expiry.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	var expiresAt int64
	if ttl > 0 {
		expiresAt = c.Now().Add(ttl).UnixNano()
	}
	if value == nil {
		value = []byte{}
	}

	_, err := c.db.ExecContext(ctx, `
		INSERT INTO cache_entries (key, value, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at
	`, key, value, expiresAt)
	if err != nil {
		return searchcrawl.Errorf(searchcrawl.EUNAVAILABLE, "sqlite set: %v", err)
	}
	return nil
}

// Purge deletes expired entries and returns how many were removed.
func (c *Cache) Purge(ctx context.Context) (int64, error) {
	res, err := c.db.ExecContext(ctx, `
		DELETE FROM cache_entries WHERE expires_at != 0 AND expires_at <= ?
	`, c.Now().UnixNano())
	if err != nil {
		return 0, searchcrawl.Errorf(searchcrawl.EUNAVAILABLE, "sqlite purge: %v", err)
	}
	return res.RowsAffected()
}
