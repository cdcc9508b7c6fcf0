package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/warroom/warroom/internal/core/cache"
)

// CacheStore adapts Store to cache.Store using the api_cache table.
type CacheStore struct {
	store *Store
}

// Cache returns a cache.Store backed by the api_cache table.
func (s *Store) Cache() *CacheStore {
	return &CacheStore{store: s}
}

var _ cache.Store = (*CacheStore)(nil)

func (c *CacheStore) Get(ctx context.Context, key string) (cache.Entry, bool, error) {
	return c.store.GetCacheEntry(ctx, key)
}

func (c *CacheStore) Set(ctx context.Context, key string, entry cache.Entry) error {
	return c.store.SetCacheEntry(ctx, key, entry)
}

func (c *CacheStore) Delete(ctx context.Context, key string) (bool, error) {
	return c.store.DeleteCacheEntry(ctx, key)
}

func (c *CacheStore) Clear(ctx context.Context) (int, error) {
	return c.store.ClearCache(ctx)
}

func (c *CacheStore) Entries(ctx context.Context) (map[string]cache.Entry, error) {
	return c.store.ListCacheEntries(ctx)
}

// GetCacheEntry returns the raw entry for key, expired or not.
func (s *Store) GetCacheEntry(ctx context.Context, key string) (cache.Entry, bool, error) {
	if s == nil || s.DB == nil {
		return cache.Entry{}, false, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return cache.Entry{}, false, errors.New("cache key is required")
	}

	var (
		data      []byte
		createdAt int64
		ttlMs     int64
	)
	row := s.DB.QueryRowContext(ctx, `
		SELECT data, created_at, ttl_ms
		FROM api_cache
		WHERE key = ?
	`, key)
	if err := row.Scan(&data, &createdAt, &ttlMs); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return cache.Entry{}, false, nil
		}
		return cache.Entry{}, false, fmt.Errorf("fetch cache entry: %w", err)
	}

	return cache.Entry{
		Data:      data,
		Timestamp: time.UnixMilli(createdAt).UTC(),
		TTL:       time.Duration(ttlMs) * time.Millisecond,
	}, true, nil
}

// SetCacheEntry upserts the entry for key.
func (s *Store) SetCacheEntry(ctx context.Context, key string, entry cache.Entry) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("cache key is required")
	}

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO api_cache (key, data, created_at, ttl_ms)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			data = excluded.data,
			created_at = excluded.created_at,
			ttl_ms = excluded.ttl_ms
	`, key, entry.Data, entry.Timestamp.UTC().UnixMilli(), entry.TTL.Milliseconds())
	if err != nil {
		return fmt.Errorf("store cache entry: %w", err)
	}
	return nil
}

// DeleteCacheEntry removes key and reports whether a row existed.
func (s *Store) DeleteCacheEntry(ctx context.Context, key string) (bool, error) {
	if s == nil || s.DB == nil {
		return false, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	result, err := s.DB.ExecContext(ctx, `DELETE FROM api_cache WHERE key = ?`, key)
	if err != nil {
		return false, fmt.Errorf("delete cache entry: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete cache entry: %w", err)
	}
	return affected > 0, nil
}

// ClearCache removes every cached response.
func (s *Store) ClearCache(ctx context.Context) (int, error) {
	if s == nil || s.DB == nil {
		return 0, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	result, err := s.DB.ExecContext(ctx, `DELETE FROM api_cache`)
	if err != nil {
		return 0, fmt.Errorf("clear cache: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clear cache: %w", err)
	}
	return int(affected), nil
}

// ListCacheEntries returns every cached entry keyed by cache key.
func (s *Store) ListCacheEntries(ctx context.Context) (map[string]cache.Entry, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT key, data, created_at, ttl_ms FROM api_cache`)
	if err != nil {
		return nil, fmt.Errorf("list cache entries: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup

	entries := map[string]cache.Entry{}
	for rows.Next() {
		var (
			key       string
			data      []byte
			createdAt int64
			ttlMs     int64
		)
		if err := rows.Scan(&key, &data, &createdAt, &ttlMs); err != nil {
			return nil, fmt.Errorf("scan cache entries: %w", err)
		}
		entries[key] = cache.Entry{
			Data:      data,
			Timestamp: time.UnixMilli(createdAt).UTC(),
			TTL:       time.Duration(ttlMs) * time.Millisecond,
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list cache entries: %w", err)
	}
	return entries, nil
}
