// Package cache provides a TTL response cache keyed by endpoint and parameters.
package cache

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/warroom/warroom/internal/metrics"
	"github.com/warroom/warroom/internal/observability"
)

const (
	// DefaultTTL applies to live provider responses.
	DefaultTTL = 5 * time.Minute
	// FallbackTTL applies to mock data served while the provider is unavailable.
	FallbackTTL = 2 * time.Minute
	// CleanupInterval is the default cadence of background sweeps.
	CleanupInterval = 10 * time.Minute
)

// Entry is one cached payload.
type Entry struct {
	Data      []byte
	Timestamp time.Time
	TTL       time.Duration
}

// Valid reports whether the entry is still fresh at now.
func (e Entry) Valid(now time.Time) bool {
	return now.Sub(e.Timestamp) <= e.TTL
}

// Cache stores JSON payloads with per-entry TTLs and lazy expiry.
type Cache struct {
	Store      Store
	DefaultTTL time.Duration
	Clock      func() time.Time
	Logger     observability.Logger
}

// New returns a cache backed by store. A nil store selects a MemoryStore.
func New(store Store, logger observability.Logger) *Cache {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Cache{Store: store, DefaultTTL: DefaultTTL, Logger: logger}
}

// GenerateKey derives a deterministic key from endpoint and params. Nil
// values are dropped and map keys are serialised in sorted order.
func GenerateKey(endpoint string, params map[string]any) string {
	filtered := make(map[string]any, len(params))
	for key, value := range params {
		if value == nil {
			continue
		}
		filtered[key] = value
	}

	// encoding/json sorts map keys.
	encoded, err := json.Marshal(filtered)
	if err != nil {
		encoded = []byte(fmt.Sprintf("%v", filtered))
	}
	return endpoint + ":" + base64.StdEncoding.EncodeToString(encoded)
}

// Set stores data under key, replacing any previous entry.
func (c *Cache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if c == nil || c.Store == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = c.defaultTTL()
	}

	entry := Entry{Data: data, Timestamp: c.now(), TTL: ttl}
	if err := c.Store.Set(ctx, key, entry); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	c.logger().Debug("Cache set", zap.String("key", key), zap.Duration("ttl", ttl))
	return nil
}

// Get returns the payload for key. Expired entries are evicted and reported
// as a miss.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if c == nil || c.Store == nil {
		return nil, false, nil
	}

	entry, ok, err := c.Store.Get(ctx, key)
	if err != nil {
		return nil, false, fmt.Errorf("cache get %s: %w", key, err)
	}
	if !ok {
		metrics.RecordCacheLookup(false)
		return nil, false, nil
	}

	if !entry.Valid(c.now()) {
		if _, err := c.Store.Delete(ctx, key); err != nil {
			return nil, false, fmt.Errorf("cache evict %s: %w", key, err)
		}
		metrics.RecordCacheLookup(false)
		metrics.RecordCacheEvictions(1)
		c.logger().Debug("Cache expired and removed", zap.String("key", key))
		return nil, false, nil
	}

	metrics.RecordCacheLookup(true)
	c.logger().Debug("Cache hit", zap.String("key", key))
	return entry.Data, true, nil
}

// Delete removes key and reports whether it existed.
func (c *Cache) Delete(ctx context.Context, key string) (bool, error) {
	if c == nil || c.Store == nil {
		return false, nil
	}
	deleted, err := c.Store.Delete(ctx, key)
	if err != nil {
		return false, fmt.Errorf("cache delete %s: %w", key, err)
	}
	if deleted {
		c.logger().Debug("Cache deleted", zap.String("key", key))
	}
	return deleted, nil
}

// Clear removes every entry and returns how many were dropped.
func (c *Cache) Clear(ctx context.Context) (int, error) {
	if c == nil || c.Store == nil {
		return 0, nil
	}
	removed, err := c.Store.Clear(ctx)
	if err != nil {
		return 0, fmt.Errorf("cache clear: %w", err)
	}
	c.logger().Info("Cache cleared", zap.Int("items_removed", removed))
	return removed, nil
}

// Cleanup evicts all expired entries.
func (c *Cache) Cleanup(ctx context.Context) (int, error) {
	if c == nil || c.Store == nil {
		return 0, nil
	}

	entries, err := c.Store.Entries(ctx)
	if err != nil {
		return 0, fmt.Errorf("cache cleanup: %w", err)
	}

	now := c.now()
	removed := 0
	for key, entry := range entries {
		if entry.Valid(now) {
			continue
		}
		deleted, err := c.Store.Delete(ctx, key)
		if err != nil {
			return removed, fmt.Errorf("cache cleanup %s: %w", key, err)
		}
		if deleted {
			removed++
		}
	}

	if removed > 0 {
		metrics.RecordCacheEvictions(removed)
		c.logger().Info("Cache cleanup completed", zap.Int("items_removed", removed))
	}
	return removed, nil
}

// GetJSON decodes a cached payload into T.
func GetJSON[T any](ctx context.Context, c *Cache, key string) (T, bool, error) {
	var out T
	data, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return out, false, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, false, fmt.Errorf("decode cached %s: %w", key, err)
	}
	return out, true, nil
}

// SetJSON encodes value and stores it under key.
func SetJSON[T any](ctx context.Context, c *Cache, key string, value T, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cached %s: %w", key, err)
	}
	return c.Set(ctx, key, data, ttl)
}

func (c *Cache) defaultTTL() time.Duration {
	if c.DefaultTTL > 0 {
		return c.DefaultTTL
	}
	return DefaultTTL
}

func (c *Cache) now() time.Time {
	if c.Clock != nil {
		return c.Clock()
	}
	return time.Now().UTC()
}

func (c *Cache) logger() observability.Logger {
	return observability.OrNop(c.Logger)
}
