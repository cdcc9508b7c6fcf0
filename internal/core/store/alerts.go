package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/warroom/warroom/internal/core"
)

const (
	alertColumns      = `id, campaign_id, alert_type, severity, title, description, source_url, triggered_at, resolved_at, status`
	defaultAlertLimit = 50
	recentAlertLimit  = 10
)

// CreateAlert stores an active alert.
func (s *Store) CreateAlert(ctx context.Context, alert core.Alert) (*core.Alert, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(alert.Title) == "" {
		return nil, errors.New("alert title is required")
	}

	triggeredAt := alert.TriggeredAt
	if triggeredAt.IsZero() {
		triggeredAt = time.Now().UTC()
	}

	result, err := s.DB.ExecContext(ctx, `
		INSERT INTO crisis_alerts (campaign_id, alert_type, severity, title, description, source_url, triggered_at, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, alert.CampaignID, alert.AlertType, strings.ToLower(alert.Severity), alert.Title, alert.Description,
		nullString(alert.SourceURL), triggeredAt.UTC().Unix(), core.AlertActive)
	if err != nil {
		return nil, fmt.Errorf("create alert: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create alert: %w", err)
	}
	return s.getAlert(ctx, id)
}

func (s *Store) getAlert(ctx context.Context, id int64) (*core.Alert, error) {
	row := s.DB.QueryRowContext(ctx, `SELECT `+alertColumns+` FROM crisis_alerts WHERE id = ?`, id)
	alert, err := scanAlert(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrAlertNotFound
		}
		return nil, fmt.Errorf("fetch alert: %w", err)
	}
	return alert, nil
}

// ListAlerts returns alerts newest first. Limit defaults to 50.
func (s *Store) ListAlerts(ctx context.Context, filter core.AlertFilter) ([]core.Alert, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	where, args := campaignWhere(filter.CampaignID)
	if status := strings.TrimSpace(filter.Status); status != "" {
		where, args = and(where, "status = ?"), append(args, status)
	}
	if severity := strings.TrimSpace(filter.Severity); severity != "" {
		where, args = and(where, "severity = ?"), append(args, strings.ToLower(severity))
	}
	limit, offset := page(filter.Limit, filter.Offset, defaultAlertLimit)
	args = append(args, limit, offset)

	return s.queryAlerts(ctx, `
		SELECT `+alertColumns+`
		FROM crisis_alerts
		`+where+`
		ORDER BY triggered_at DESC, id DESC
		LIMIT ? OFFSET ?
	`, args...)
}

// ResolveAlert marks an active alert resolved.
func (s *Store) ResolveAlert(ctx context.Context, id int64) (*core.Alert, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	result, err := s.DB.ExecContext(ctx, `
		UPDATE crisis_alerts
		SET status = ?, resolved_at = ?
		WHERE id = ? AND status = ?
	`, core.AlertResolved, time.Now().UTC().Unix(), id, core.AlertActive)
	if err != nil {
		return nil, fmt.Errorf("resolve alert: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("resolve alert: %w", err)
	}
	if affected == 0 {
		return nil, core.ErrAlertNotFound
	}
	return s.getAlert(ctx, id)
}

// AlertsSummary counts alerts, breaks active ones down by severity, and lists
// the ten most recent. A nil campaignID covers every campaign.
func (s *Store) AlertsSummary(ctx context.Context, campaignID *int64) (*core.AlertsSummary, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	where, args := campaignWhere(campaignID)
	summary := &core.AlertsSummary{SeverityBreakdown: []core.SeverityCount{}}
	err := s.DB.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(CASE WHEN status = 'active' THEN 1 END),
			COUNT(CASE WHEN severity = 'critical' AND status = 'active' THEN 1 END)
		FROM crisis_alerts
		`+where, args...).Scan(&summary.TotalAlerts, &summary.ActiveAlerts, &summary.CriticalAlerts)
	if err != nil {
		return nil, fmt.Errorf("summarize alerts: %w", err)
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT severity, COUNT(*)
		FROM crisis_alerts
		`+and(where, "status = 'active'")+`
		GROUP BY severity
		ORDER BY CASE severity
			WHEN 'critical' THEN 1
			WHEN 'high' THEN 2
			WHEN 'medium' THEN 3
			WHEN 'low' THEN 4
			ELSE 5
		END
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("summarize alert severities: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup
	for rows.Next() {
		var bucket core.SeverityCount
		if err := rows.Scan(&bucket.Severity, &bucket.Count); err != nil {
			return nil, fmt.Errorf("scan alert severities: %w", err)
		}
		summary.SeverityBreakdown = append(summary.SeverityBreakdown, bucket)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("summarize alert severities: %w", err)
	}

	recent, err := s.queryAlerts(ctx, `
		SELECT `+alertColumns+`
		FROM crisis_alerts
		`+where+`
		ORDER BY triggered_at DESC, id DESC
		LIMIT ?
	`, append(args, recentAlertLimit)...)
	if err != nil {
		return nil, err
	}
	summary.RecentAlerts = recent
	return summary, nil
}

func (s *Store) queryAlerts(ctx context.Context, query string, args ...any) ([]core.Alert, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup

	alerts := []core.Alert{}
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("scan alerts: %w", err)
		}
		alerts = append(alerts, *alert)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	return alerts, nil
}

func scanAlert(row rowScanner) (*core.Alert, error) {
	var (
		alert       core.Alert
		sourceURL   sql.NullString
		triggeredAt int64
		resolvedAt  sql.NullInt64
	)
	if err := row.Scan(&alert.ID, &alert.CampaignID, &alert.AlertType, &alert.Severity, &alert.Title,
		&alert.Description, &sourceURL, &triggeredAt, &resolvedAt, &alert.Status); err != nil {
		return nil, err
	}
	alert.SourceURL = sourceURL.String
	alert.TriggeredAt = time.Unix(triggeredAt, 0).UTC()
	if resolvedAt.Valid {
		value := time.Unix(resolvedAt.Int64, 0).UTC()
		alert.ResolvedAt = &value
	}
	return &alert, nil
}

func campaignWhere(campaignID *int64) (string, []any) {
	if campaignID == nil {
		return "", nil
	}
	return "WHERE campaign_id = ?", []any{*campaignID}
}

// and appends condition to a WHERE clause, starting one when where is empty.
func and(where, condition string) string {
	if where == "" {
		return "WHERE " + condition
	}
	return where + " AND " + condition
}

// page normalizes limit and offset, applying def when limit is unset.
func page(limit, offset, def int) (int, int) {
	if limit <= 0 {
		limit = def
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
