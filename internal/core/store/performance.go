package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/warroom/warroom/internal/core"
)

// InsertPerformanceMetric upserts one metric for a campaign, platform, type and day.
func (s *Store) InsertPerformanceMetric(ctx context.Context, metric core.PerformanceMetric) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(metric.Platform) == "" || strings.TrimSpace(metric.MetricType) == "" {
		return errors.New("platform and metric type are required")
	}
	if strings.TrimSpace(metric.Date) == "" {
		return errors.New("metric date is required")
	}

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO performance_metrics (campaign_id, platform, metric_type, metric_value, date, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(campaign_id, platform, metric_type, date) DO UPDATE SET
			metric_value = excluded.metric_value
	`, metric.CampaignID, metric.Platform, metric.MetricType, metric.MetricValue, metric.Date, time.Now().UTC().Unix())
	if err != nil {
		return fmt.Errorf("insert performance metric: %w", err)
	}
	return nil
}

const defaultMetricLimit = 100

// CreatePerformanceMetric upserts metric and returns the stored row.
func (s *Store) CreatePerformanceMetric(ctx context.Context, metric core.PerformanceMetric) (*core.PerformanceMetric, error) {
	if err := s.InsertPerformanceMetric(ctx, metric); err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	row := s.DB.QueryRowContext(ctx, `
		SELECT `+metricColumns+`
		FROM performance_metrics
		WHERE campaign_id = ? AND platform = ? AND metric_type = ? AND date = ?
	`, metric.CampaignID, metric.Platform, metric.MetricType, metric.Date)
	stored, err := scanMetric(row)
	if err != nil {
		return nil, fmt.Errorf("fetch performance metric: %w", err)
	}
	return stored, nil
}

const metricColumns = `id, campaign_id, platform, metric_type, metric_value, date, created_at`

// ListPerformanceMetrics returns metrics newest day first. Limit defaults to 100.
func (s *Store) ListPerformanceMetrics(ctx context.Context, filter core.MetricFilter) ([]core.PerformanceMetric, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	where, args := campaignWhere(filter.CampaignID)
	if platform := strings.TrimSpace(filter.Platform); platform != "" {
		where, args = and(where, "platform = ?"), append(args, platform)
	}
	if metricType := strings.TrimSpace(filter.MetricType); metricType != "" {
		where, args = and(where, "metric_type = ?"), append(args, metricType)
	}
	if filter.StartDate != "" {
		where, args = and(where, "date >= ?"), append(args, filter.StartDate)
	}
	if filter.EndDate != "" {
		where, args = and(where, "date <= ?"), append(args, filter.EndDate)
	}
	limit, offset := page(filter.Limit, filter.Offset, defaultMetricLimit)
	args = append(args, limit, offset)

	rows, err := s.DB.QueryContext(ctx, `
		SELECT `+metricColumns+`
		FROM performance_metrics
		`+where+`
		ORDER BY date DESC, created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("list performance metrics: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup

	metrics := []core.PerformanceMetric{}
	for rows.Next() {
		metric, err := scanMetric(rows)
		if err != nil {
			return nil, fmt.Errorf("scan performance metrics: %w", err)
		}
		metrics = append(metrics, *metric)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list performance metrics: %w", err)
	}
	return metrics, nil
}

func scanMetric(row rowScanner) (*core.PerformanceMetric, error) {
	var (
		metric    core.PerformanceMetric
		createdAt int64
	)
	if err := row.Scan(&metric.ID, &metric.CampaignID, &metric.Platform, &metric.MetricType,
		&metric.MetricValue, &metric.Date, &createdAt); err != nil {
		return nil, err
	}
	metric.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &metric, nil
}
