package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS mentions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		campaign_id INTEGER NOT NULL,
		platform TEXT NOT NULL,
		content TEXT NOT NULL,
		author TEXT,
		url TEXT,
		sentiment REAL,
		reach INTEGER NOT NULL DEFAULT 0,
		engagement INTEGER NOT NULL DEFAULT 0,
		mentioned_at INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_mentions_mentioned_at ON mentions(mentioned_at);`,
	`CREATE INDEX IF NOT EXISTS idx_mentions_campaign ON mentions(campaign_id, mentioned_at);`,
	`CREATE TABLE IF NOT EXISTS crisis_events (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT,
		severity INTEGER NOT NULL,
		status TEXT NOT NULL DEFAULT 'active',
		detected_at INTEGER NOT NULL,
		acknowledged_at INTEGER,
		resolved_at INTEGER,
		mention_count INTEGER NOT NULL DEFAULT 0,
		negative_sentiment_ratio REAL NOT NULL DEFAULT 0,
		estimated_reach INTEGER NOT NULL DEFAULT 0,
		metadata TEXT,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_crisis_events_status ON crisis_events(status, severity);`,
	`CREATE TABLE IF NOT EXISTS performance_metrics (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		campaign_id INTEGER NOT NULL,
		platform TEXT NOT NULL,
		metric_type TEXT NOT NULL,
		metric_value REAL NOT NULL,
		date TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		UNIQUE(campaign_id, platform, metric_type, date)
	);`,
	`CREATE TABLE IF NOT EXISTS campaigns (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		description TEXT,
		start_date TEXT NOT NULL,
		end_date TEXT,
		budget REAL,
		status TEXT NOT NULL DEFAULT 'active',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS crisis_alerts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		campaign_id INTEGER NOT NULL,
		alert_type TEXT NOT NULL,
		severity TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		source_url TEXT,
		triggered_at INTEGER NOT NULL,
		resolved_at INTEGER,
		status TEXT NOT NULL DEFAULT 'active'
	);`,
	`CREATE INDEX IF NOT EXISTS idx_crisis_alerts_campaign ON crisis_alerts(campaign_id, status);`,
	`CREATE TABLE IF NOT EXISTS staff_members (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		campaign_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		phone TEXT,
		role TEXT NOT NULL,
		alert_preferences TEXT,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		UNIQUE(campaign_id, email)
	);`,
	`CREATE TABLE IF NOT EXISTS rate_limits (
		identifier TEXT PRIMARY KEY,
		count INTEGER NOT NULL DEFAULT 0,
		window_start INTEGER NOT NULL,
		blocked INTEGER NOT NULL DEFAULT 0,
		block_expires INTEGER,
		block_duration_ms INTEGER NOT NULL DEFAULT 60000
	);`,
	`CREATE TABLE IF NOT EXISTS api_cache (
		key TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		created_at INTEGER NOT NULL,
		ttl_ms INTEGER NOT NULL
	);`,
}

// Migrate ensures the required database tables exist.
func (s *Store) Migrate(ctx context.Context) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	for _, stmt := range schemaStatements {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("store migration failed: %w", err)
		}
	}

	if err := s.ensureColumn(ctx, "crisis_events", "trigger_type", "TEXT"); err != nil {
		return err
	}
	if err := s.ensureColumn(ctx, "mentions", "external_id", "TEXT"); err != nil {
		return err
	}
	if _, err := s.DB.ExecContext(ctx,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_mentions_external ON mentions(campaign_id, external_id)`); err != nil {
		return fmt.Errorf("store migration failed: %w", err)
	}

	return nil
}

func (s *Store) ensureColumn(ctx context.Context, table, column, columnDef string) error {
	rows, err := s.DB.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return fmt.Errorf("inspect %s schema: %w", table, err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup on SQL rows

	for rows.Next() {
		var (
			cid     int
			name    string
			colType string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
			return fmt.Errorf("inspect %s columns: %w", table, err)
		}
		if name == column {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("inspect %s columns: %w", table, err)
	}

	if _, err := s.DB.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, columnDef)); err != nil {
		return fmt.Errorf("add %s.%s column: %w", table, column, err)
	}

	return nil
}
