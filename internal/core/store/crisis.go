package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/warroom/warroom/internal/core"
)

// ErrCrisisNotFound is returned when a transition targets a missing event or
// one already past the requested state.
var ErrCrisisNotFound = core.ErrCrisisNotFound

const crisisColumns = `id, title, description, severity, status, trigger_type,
	detected_at, acknowledged_at, resolved_at, mention_count,
	negative_sentiment_ratio, estimated_reach, metadata, created_at, updated_at`

// CreateCrisisEvent persists a new active crisis event.
func (s *Store) CreateCrisisEvent(ctx context.Context, event core.CrisisEvent) (*core.CrisisEvent, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(event.Title) == "" {
		return nil, errors.New("title is required")
	}

	now := time.Now().UTC().Truncate(time.Second)
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Status == "" {
		event.Status = core.CrisisActive
	}
	if event.DetectedAt.IsZero() {
		event.DetectedAt = now
	}
	event.CreatedAt = now
	event.UpdatedAt = now

	metadata, err := encodeMetadata(event.Metadata)
	if err != nil {
		return nil, err
	}

	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO crisis_events (
			id, title, description, severity, status, trigger_type, detected_at,
			mention_count, negative_sentiment_ratio, estimated_reach, metadata,
			created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, event.ID, event.Title, nullString(event.Description), event.Severity, string(event.Status),
		nullString(string(event.TriggerType)), event.DetectedAt.UTC().Unix(), event.MentionCount,
		event.NegativeSentimentRatio, event.EstimatedReach, metadata, now.Unix(), now.Unix())
	if err != nil {
		return nil, fmt.Errorf("create crisis event: %w", err)
	}

	return s.GetCrisisEvent(ctx, event.ID)
}

// GetCrisisEvent returns one event by ID.
func (s *Store) GetCrisisEvent(ctx context.Context, id string) (*core.CrisisEvent, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	row := s.DB.QueryRowContext(ctx, `SELECT `+crisisColumns+` FROM crisis_events WHERE id = ?`, id)
	event, err := scanCrisisEvent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCrisisNotFound
		}
		return nil, fmt.Errorf("fetch crisis event: %w", err)
	}
	return event, nil
}

// ListCrisisEvents returns events with the given statuses (all when empty),
// most severe and most recent first.
func (s *Store) ListCrisisEvents(ctx context.Context, statuses ...core.CrisisStatus) ([]core.CrisisEvent, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	where := ""
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		placeholders := make([]string, 0, len(statuses))
		for _, status := range statuses {
			placeholders = append(placeholders, "?")
			args = append(args, string(status))
		}
		where = "WHERE status IN (" + strings.Join(placeholders, ", ") + ")"
	}

	rows, err := s.DB.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s
		FROM crisis_events
		%s
		ORDER BY severity DESC, detected_at DESC
	`, crisisColumns, where), args...)
	if err != nil {
		return nil, fmt.Errorf("list crisis events: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup

	events := []core.CrisisEvent{}
	for rows.Next() {
		event, err := scanCrisisEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan crisis events: %w", err)
		}
		events = append(events, *event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list crisis events: %w", err)
	}
	return events, nil
}

// AcknowledgeCrisisEvent moves an active event to acknowledged.
func (s *Store) AcknowledgeCrisisEvent(ctx context.Context, id, acknowledgedBy, notes string) (*core.CrisisEvent, error) {
	patch := map[string]any{}
	if acknowledgedBy != "" {
		patch["acknowledged_by"] = acknowledgedBy
	}
	if notes != "" {
		patch["notes"] = notes
	}
	return s.transitionCrisisEvent(ctx, id, core.CrisisAcknowledged, "acknowledged_at", patch, core.CrisisActive)
}

// ResolveCrisisEvent moves an active or acknowledged event to resolved.
func (s *Store) ResolveCrisisEvent(ctx context.Context, id string, res core.Resolution) (*core.CrisisEvent, error) {
	patch := map[string]any{}
	if res.ResolvedBy != "" {
		patch["resolved_by"] = res.ResolvedBy
	}
	if res.Resolution != "" {
		patch["resolution"] = res.Resolution
	}
	if res.PreventiveMeasures != "" {
		patch["preventive_measures"] = res.PreventiveMeasures
	}
	return s.transitionCrisisEvent(ctx, id, core.CrisisResolved, "resolved_at", patch, core.CrisisActive, core.CrisisAcknowledged)
}

func (s *Store) transitionCrisisEvent(ctx context.Context, id string, to core.CrisisStatus, stampColumn string, patch map[string]any, from ...core.CrisisStatus) (*core.CrisisEvent, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	current, err := s.GetCrisisEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	allowed := false
	for _, status := range from {
		if current.Status == status {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, fmt.Errorf("%w: %s is %s", ErrCrisisNotFound, id, current.Status)
	}

	metadata := current.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	for key, value := range patch {
		metadata[key] = value
	}
	encoded, err := encodeMetadata(metadata)
	if err != nil {
		return nil, err
	}

	placeholders := make([]string, 0, len(from))
	args := []any{string(to), time.Now().UTC().Unix(), encoded, time.Now().UTC().Unix(), id}
	for _, status := range from {
		placeholders = append(placeholders, "?")
		args = append(args, string(status))
	}

	result, err := s.DB.ExecContext(ctx, fmt.Sprintf(`
		UPDATE crisis_events
		SET status = ?, %s = ?, metadata = ?, updated_at = ?
		WHERE id = ? AND status IN (%s)
	`, stampColumn, strings.Join(placeholders, ", ")), args...)
	if err != nil {
		return nil, fmt.Errorf("update crisis event: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update crisis event: %w", err)
	}
	if affected == 0 {
		return nil, ErrCrisisNotFound
	}

	return s.GetCrisisEvent(ctx, id)
}

func scanCrisisEvent(row rowScanner) (*core.CrisisEvent, error) {
	var (
		event          core.CrisisEvent
		description    sql.NullString
		status         string
		triggerType    sql.NullString
		detectedAt     int64
		acknowledgedAt sql.NullInt64
		resolvedAt     sql.NullInt64
		metadata       sql.NullString
		createdAt      int64
		updatedAt      int64
	)
	if err := row.Scan(&event.ID, &event.Title, &description, &event.Severity, &status, &triggerType,
		&detectedAt, &acknowledgedAt, &resolvedAt, &event.MentionCount,
		&event.NegativeSentimentRatio, &event.EstimatedReach, &metadata, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	event.Description = description.String
	event.Status = core.CrisisStatus(status)
	event.TriggerType = core.TriggerType(triggerType.String)
	event.DetectedAt = time.Unix(detectedAt, 0).UTC()
	event.CreatedAt = time.Unix(createdAt, 0).UTC()
	event.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	if acknowledgedAt.Valid {
		value := time.Unix(acknowledgedAt.Int64, 0).UTC()
		event.AcknowledgedAt = &value
	}
	if resolvedAt.Valid {
		value := time.Unix(resolvedAt.Int64, 0).UTC()
		event.ResolvedAt = &value
	}
	if metadata.Valid && metadata.String != "" {
		if err := json.Unmarshal([]byte(metadata.String), &event.Metadata); err != nil {
			return nil, fmt.Errorf("decode crisis metadata: %w", err)
		}
	}
	return &event, nil
}

func encodeMetadata(metadata map[string]any) (sql.NullString, error) {
	if len(metadata) == 0 {
		return sql.NullString{}, nil
	}
	encoded, err := json.Marshal(metadata)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encode crisis metadata: %w", err)
	}
	return sql.NullString{String: string(encoded), Valid: true}, nil
}

// recentCrisisLimit bounds the events included in a summary.
const recentCrisisLimit = 10

// CrisisSummary aggregates counts, severity buckets, and resolution time
// across every stored crisis event.
func (s *Store) CrisisSummary(ctx context.Context) (*core.CrisisSummary, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	summary := &core.CrisisSummary{RecentEvents: []core.CrisisEvent{}}
	err := s.DB.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(AVG(severity), 0),
			COUNT(CASE WHEN status = 'active' THEN 1 END),
			COUNT(CASE WHEN status = 'acknowledged' THEN 1 END),
			COUNT(CASE WHEN status = 'resolved' THEN 1 END),
			COUNT(CASE WHEN severity BETWEEN 1 AND 3 THEN 1 END),
			COUNT(CASE WHEN severity BETWEEN 4 AND 6 THEN 1 END),
			COUNT(CASE WHEN severity BETWEEN 7 AND 8 THEN 1 END),
			COUNT(CASE WHEN severity BETWEEN 9 AND 10 THEN 1 END),
			COALESCE(AVG(CASE WHEN resolved_at IS NOT NULL THEN (resolved_at - detected_at) / 3600.0 END), 0)
		FROM crisis_events
	`).Scan(
		&summary.TotalCrises,
		&summary.AverageSeverity,
		&summary.StatusBreakdown.Active,
		&summary.StatusBreakdown.Acknowledged,
		&summary.StatusBreakdown.Resolved,
		&summary.SeverityDistribution.Low,
		&summary.SeverityDistribution.Medium,
		&summary.SeverityDistribution.High,
		&summary.SeverityDistribution.Critical,
		&summary.AverageResolutionTime,
	)
	if err != nil {
		return nil, fmt.Errorf("summarize crisis events: %w", err)
	}
	summary.ActiveCrises = summary.StatusBreakdown.Active

	rows, err := s.DB.QueryContext(ctx, `
		SELECT `+crisisColumns+`
		FROM crisis_events
		ORDER BY detected_at DESC
		LIMIT ?
	`, recentCrisisLimit)
	if err != nil {
		return nil, fmt.Errorf("list recent crisis events: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup

	for rows.Next() {
		event, err := scanCrisisEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan crisis events: %w", err)
		}
		summary.RecentEvents = append(summary.RecentEvents, *event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list recent crisis events: %w", err)
	}
	return summary, nil
}

const defaultCrisisHistoryLimit = 50

// CrisisHistory pages through crisis events newest first. Total counts every
// event matching the filter; Statistics cover resolved events only.
func (s *Store) CrisisHistory(ctx context.Context, filter core.CrisisHistoryFilter) (*core.CrisisHistory, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	where, args := "", []any{}
	if filter.Status != "" {
		where, args = and(where, "status = ?"), append(args, string(filter.Status))
	}
	if filter.Severity > 0 {
		where, args = and(where, "severity = ?"), append(args, filter.Severity)
	}

	history := &core.CrisisHistory{Events: []core.CrisisEvent{}}
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM crisis_events `+where, args...).Scan(&history.Total); err != nil {
		return nil, fmt.Errorf("count crisis history: %w", err)
	}

	limit, offset := page(filter.Limit, filter.Offset, defaultCrisisHistoryLimit)
	rows, err := s.DB.QueryContext(ctx, `
		SELECT `+crisisColumns+`
		FROM crisis_events
		`+where+`
		ORDER BY detected_at DESC, id
		LIMIT ? OFFSET ?
	`, append(args, limit, offset)...)
	if err != nil {
		return nil, fmt.Errorf("list crisis history: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup
	for rows.Next() {
		event, err := scanCrisisEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan crisis events: %w", err)
		}
		history.Events = append(history.Events, *event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list crisis history: %w", err)
	}

	stats := &history.Statistics
	err = s.DB.QueryRowContext(ctx, `
		SELECT
			COALESCE(AVG((resolved_at - detected_at) / 3600.0), 0),
			COALESCE(SUM(estimated_reach), 0)
		FROM crisis_events
		WHERE status = 'resolved'
	`).Scan(&stats.AverageResolutionTime, &stats.TotalReach)
	if err != nil {
		return nil, fmt.Errorf("crisis history statistics: %w", err)
	}

	stats.MostCommonSeverity = 1
	err = s.DB.QueryRowContext(ctx, `
		SELECT severity
		FROM crisis_events
		WHERE status = 'resolved'
		GROUP BY severity
		ORDER BY COUNT(*) DESC, severity ASC
		LIMIT 1
	`).Scan(&stats.MostCommonSeverity)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("crisis history statistics: %w", err)
	}
	return history, nil
}
