// Package ratelimit implements fixed-window request throttling with
// escalating blocks for repeat offenders.
package ratelimit

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/warroom/warroom/internal/metrics"
	"github.com/warroom/warroom/internal/observability"
)

const (
	// BaseBlockDuration is the block applied on the first violation in a window.
	BaseBlockDuration = time.Minute
	// RetentionPeriod is how long an idle record survives before a sweep removes it.
	RetentionPeriod = time.Hour
	// SweepInterval is the default cadence of background sweeps.
	SweepInterval = 15 * time.Minute
)

// Record is the per-identifier throttling state.
type Record struct {
	Count         int
	WindowStart   time.Time
	Blocked       bool
	BlockExpires  *time.Time
	BlockDuration time.Duration
}

// LastActivity returns the block expiry when set, else the window start.
func (r Record) LastActivity() time.Time {
	if r.BlockExpires != nil {
		return *r.BlockExpires
	}
	return r.WindowStart
}

// Policy parameterises one limiter instance.
type Policy struct {
	Name        string
	MaxAttempts int
	Window      time.Duration
}

// ClientPolicy throttles outbound calls to a third-party provider.
var ClientPolicy = Policy{Name: "client", MaxAttempts: 100, Window: time.Minute}

// HTTPPolicy throttles inbound requests per caller IP.
var HTTPPolicy = Policy{Name: "http", MaxAttempts: 100, Window: time.Minute}

// Limiter enforces a Policy over records held in a Store.
type Limiter struct {
	Store  Store
	Clock  func() time.Time
	Logger observability.Logger

	mu sync.Mutex
}

// New returns a limiter backed by store. A nil store selects a MemoryStore.
func New(store Store, logger observability.Logger) *Limiter {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Limiter{Store: store, Logger: logger}
}

// Check records one request for identifier and returns a *RejectedError when
// the caller is blocked or has just exceeded the policy.
func (l *Limiter) Check(ctx context.Context, identifier string, policy Policy) error {
	if l == nil || l.Store == nil {
		return nil
	}
	if identifier == "" {
		identifier = "global"
	}
	policy = normalizePolicy(policy)

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	record, err := l.Store.Get(ctx, identifier)
	if err != nil {
		return fmt.Errorf("load rate limit record: %w", err)
	}

	if record != nil && record.Blocked && record.BlockExpires != nil && now.Before(*record.BlockExpires) {
		remaining := ceilSeconds(record.BlockExpires.Sub(now))
		l.reject(identifier, policy, record.Count, "blocked")
		return &RejectedError{Identifier: identifier, RetryAfter: remaining}
	}

	if record == nil || now.After(record.WindowStart.Add(policy.Window)) {
		fresh := &Record{
			Count:         1,
			WindowStart:   now,
			BlockDuration: BaseBlockDuration,
		}
		if err := l.Store.Put(ctx, identifier, fresh); err != nil {
			return fmt.Errorf("store rate limit record: %w", err)
		}
		return nil
	}

	record.Count++
	if record.Count > policy.MaxAttempts {
		block := record.BlockDuration
		if block <= 0 {
			block = BaseBlockDuration
		}
		expires := now.Add(block)
		record.Blocked = true
		record.BlockExpires = &expires
		record.BlockDuration = block * 2

		if err := l.Store.Put(ctx, identifier, record); err != nil {
			return fmt.Errorf("store rate limit record: %w", err)
		}
		l.reject(identifier, policy, record.Count, "exceeded")
		return &RejectedError{Identifier: identifier, RetryAfter: block}
	}

	if err := l.Store.Put(ctx, identifier, record); err != nil {
		return fmt.Errorf("store rate limit record: %w", err)
	}
	return nil
}

// Sweep deletes records whose last activity is older than RetentionPeriod.
func (l *Limiter) Sweep(ctx context.Context) (int, error) {
	if l == nil || l.Store == nil {
		return 0, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.Store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list rate limit records: %w", err)
	}

	cutoff := l.now().Add(-RetentionPeriod)
	removed := 0
	for identifier, record := range records {
		if record == nil || !record.LastActivity().Before(cutoff) {
			continue
		}
		if err := l.Store.Delete(ctx, identifier); err != nil {
			return removed, fmt.Errorf("delete rate limit record %s: %w", identifier, err)
		}
		removed++
	}

	if removed > 0 {
		metrics.RecordRateLimitSwept(removed)
	}
	return removed, nil
}

// Reset clears the record for identifier.
func (l *Limiter) Reset(ctx context.Context, identifier string) error {
	if l == nil || l.Store == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.Store.Delete(ctx, identifier)
}

func (l *Limiter) reject(identifier string, policy Policy, count int, reason string) {
	observability.OrNop(l.Logger).Warn("Rate limit exceeded",
		zap.String("identifier", identifier),
		zap.String("policy", policy.Name),
		zap.String("reason", reason),
		zap.Int("count", count),
		zap.Int("limit", policy.MaxAttempts),
	)
	metrics.RecordRateLimitRejection(policy.Name)
}

func (l *Limiter) now() time.Time {
	if l != nil && l.Clock != nil {
		return l.Clock()
	}
	return time.Now().UTC()
}

func normalizePolicy(policy Policy) Policy {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = ClientPolicy.MaxAttempts
	}
	if policy.Window <= 0 {
		policy.Window = ClientPolicy.Window
	}
	if policy.Name == "" {
		policy.Name = "default"
	}
	return policy
}

func ceilSeconds(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return time.Duration(math.Ceil(d.Seconds())) * time.Second
}
