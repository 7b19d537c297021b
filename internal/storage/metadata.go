package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// MetadataCache keeps metadata service responses in SQLite so they survive
// restarts.
type MetadataCache struct {
	db  *sql.DB
	now func() time.Time
}

// NewMetadataCache creates a metadata cache on db.
func NewMetadataCache(db *sql.DB) *MetadataCache {
	return &MetadataCache{db: db, now: time.Now}
}

// Get retrieves a cached value by key.
// Returns nil, false if not found or expired.
func (c *MetadataCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value string
	var expiresAt time.Time

	err := c.db.QueryRowContext(ctx,
		"SELECT value, expires_at FROM metadata_cache WHERE key = ?", key,
	).Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("metadata cache get: %w", err)
	}
	if !c.now().Before(expiresAt) {
		return nil, false, nil
	}
	return []byte(value), true, nil
}

// Set stores a value with the given TTL.
func (c *MetadataCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO metadata_cache (key, value, expires_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		key, string(value), c.now().Add(ttl).UTC(),
	)
	if err != nil {
		return fmt.Errorf("metadata cache set: %w", err)
	}
	return nil
}

// Prune removes all expired entries and returns how many were removed.
func (c *MetadataCache) Prune(ctx context.Context) (int64, error) {
	result, err := c.db.ExecContext(ctx,
		"DELETE FROM metadata_cache WHERE expires_at <= ?", c.now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("metadata cache prune: %w", err)
	}
	return result.RowsAffected()
}
