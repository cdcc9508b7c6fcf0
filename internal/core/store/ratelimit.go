package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/warroom/warroom/internal/core/ratelimit"
)

// RateLimitStore adapts Store to ratelimit.Store.
type RateLimitStore struct {
	store *Store
}

// RateLimits returns a ratelimit.Store backed by the rate_limits table.
// Timestamps are kept in milliseconds.
func (s *Store) RateLimits() *RateLimitStore {
	return &RateLimitStore{store: s}
}

var _ ratelimit.Store = (*RateLimitStore)(nil)

func (r *RateLimitStore) Get(ctx context.Context, identifier string) (*ratelimit.Record, error) {
	return r.store.GetRateLimit(ctx, identifier)
}

func (r *RateLimitStore) Put(ctx context.Context, identifier string, record *ratelimit.Record) error {
	return r.store.UpdateRateLimit(ctx, identifier, record)
}

func (r *RateLimitStore) Delete(ctx context.Context, identifier string) error {
	_, err := r.store.ResetRateLimits(ctx, RateLimitQuery{Identifier: identifier})
	return err
}

func (r *RateLimitStore) List(ctx context.Context) (map[string]*ratelimit.Record, error) {
	entries, err := r.store.ListRateLimits(ctx, RateLimitQuery{All: true})
	if err != nil {
		return nil, err
	}
	out := make(map[string]*ratelimit.Record, len(entries))
	for i := range entries {
		record := entries[i].Record
		out[entries[i].Identifier] = &record
	}
	return out, nil
}

// GetRateLimit returns stored rate limit state for an identifier.
func (s *Store) GetRateLimit(ctx context.Context, identifier string) (*ratelimit.Record, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, errors.New("identifier is required")
	}

	row := s.DB.QueryRowContext(ctx, `
		SELECT identifier, count, window_start, blocked, block_expires, block_duration_ms
		FROM rate_limits
		WHERE identifier = ?
	`, identifier)

	entry, err := scanRateLimit(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch rate limit: %w", err)
	}
	return &entry.Record, nil
}

// UpdateRateLimit persists rate limit state for an identifier.
func (s *Store) UpdateRateLimit(ctx context.Context, identifier string, record *ratelimit.Record) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return errors.New("identifier is required")
	}
	if record == nil {
		return errors.New("rate limit record is required")
	}

	var blockExpires sql.NullInt64
	if record.BlockExpires != nil {
		blockExpires = sql.NullInt64{Int64: record.BlockExpires.UTC().UnixMilli(), Valid: true}
	}

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO rate_limits (identifier, count, window_start, blocked, block_expires, block_duration_ms)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(identifier) DO UPDATE SET
			count = excluded.count,
			window_start = excluded.window_start,
			blocked = excluded.blocked,
			block_expires = excluded.block_expires,
			block_duration_ms = excluded.block_duration_ms
	`, identifier, record.Count, record.WindowStart.UTC().UnixMilli(), boolToInt(record.Blocked), blockExpires, record.BlockDuration.Milliseconds())
	if err != nil {
		return fmt.Errorf("store rate limit: %w", err)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRateLimit(row rowScanner) (RateLimitEntry, error) {
	var (
		identifier    string
		count         int
		windowStart   int64
		blocked       int
		blockExpires  sql.NullInt64
		blockDuration int64
	)
	if err := row.Scan(&identifier, &count, &windowStart, &blocked, &blockExpires, &blockDuration); err != nil {
		return RateLimitEntry{}, err
	}

	record := ratelimit.Record{
		Count:         count,
		WindowStart:   time.UnixMilli(windowStart).UTC(),
		Blocked:       blocked != 0,
		BlockDuration: time.Duration(blockDuration) * time.Millisecond,
	}
	if blockExpires.Valid {
		value := time.UnixMilli(blockExpires.Int64).UTC()
		record.BlockExpires = &value
	}
	return RateLimitEntry{Identifier: identifier, Record: record}, nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
