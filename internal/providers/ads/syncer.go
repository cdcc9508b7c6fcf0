package ads

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/warroom/warroom/internal/core"
	"github.com/warroom/warroom/internal/metrics"
	"github.com/warroom/warroom/internal/observability"
)

// ErrInvalidRequest marks malformed sync requests.
var ErrInvalidRequest = errors.New("invalid sync request")

// SyncRequest selects a campaign, platforms, and an inclusive date range
// (YYYY-MM-DD). Empty Platforms means every registered source.
type SyncRequest struct {
	CampaignID int64    `json:"campaign_id" validate:"required,gt=0"`
	Platforms  []string `json:"platforms" validate:"omitempty,dive,oneof=meta google_ads"`
	StartDate  string   `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate    string   `json:"end_date" validate:"required,datetime=2006-01-02"`

	// ExternalCampaignID is the platform-side campaign reference; defaults
	// to CampaignID.
	ExternalCampaignID string `json:"external_campaign_id,omitempty"`
}

func (r SyncRequest) campaignRef() string {
	if ref := strings.TrimSpace(r.ExternalCampaignID); ref != "" {
		return ref
	}
	return strconv.FormatInt(r.CampaignID, 10)
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validate checks field formats and that the range is not inverted.
func (r SyncRequest) Validate() error {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(field reflect.StructField) string {
			return strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		})
	})

	if err := validate.Struct(r); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			problems := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				problems = append(problems, fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidRequest, strings.Join(problems, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if r.EndDate < r.StartDate {
		return fmt.Errorf("%w: end_date precedes start_date", ErrInvalidRequest)
	}
	return nil
}

// MetricWriter persists performance metrics.
type MetricWriter interface {
	InsertPerformanceMetric(ctx context.Context, metric core.PerformanceMetric) error
}

// Platform sync outcomes.
const (
	StatusSynced  = "synced"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
)

// PlatformResult reports one platform's sync.
type PlatformResult struct {
	Platform        string `json:"platform"`
	Status          string `json:"status"`
	MetricsImported int    `json:"metrics_imported"`
	Error           string `json:"error,omitempty"`
}

// SyncReport summarizes a sync across platforms. Success is true only when
// every requested platform synced.
type SyncReport struct {
	Success         bool             `json:"success"`
	Message         string           `json:"message"`
	MetricsImported int              `json:"metrics_imported"`
	Platforms       []PlatformResult `json:"platforms"`
}

// Syncer fans out to sources and stores what they return.
type Syncer struct {
	Sources map[string]Source
	Writer  MetricWriter
	Logger  observability.Logger
}

// NewSyncer registers sources by platform name.
func NewSyncer(writer MetricWriter, logger observability.Logger, sources ...Source) *Syncer {
	registry := make(map[string]Source, len(sources))
	for _, source := range sources {
		if source != nil {
			registry[source.Platform()] = source
		}
	}
	return &Syncer{Sources: registry, Writer: writer, Logger: logger}
}

// Sync fetches every requested platform concurrently. Unconfigured or failing
// platforms are reported in the result rather than failing the call; only an
// invalid request or a cancelled context returns an error.
func (s *Syncer) Sync(ctx context.Context, req SyncRequest) (*SyncReport, error) {
	if s == nil {
		return nil, errors.New("syncer is nil")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	logger := observability.OrNop(s.Logger)

	platforms := req.Platforms
	if len(platforms) == 0 {
		for name := range s.Sources {
			platforms = append(platforms, name)
		}
		sort.Strings(platforms)
	}

	results := make([]PlatformResult, len(platforms))
	g, gctx := errgroup.WithContext(ctx)
	for i, platform := range platforms {
		g.Go(func() error {
			results[i] = s.syncPlatform(gctx, platform, req)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("sync performance: %w", err)
	}

	report := &SyncReport{Success: true, Platforms: results}
	for _, result := range results {
		report.MetricsImported += result.MetricsImported
		if result.Status != StatusSynced {
			report.Success = false
		}
	}
	report.Message = fmt.Sprintf("Synced performance data from %s for date range %s to %s",
		strings.Join(platforms, ", "), req.StartDate, req.EndDate)

	logger.Info("Performance sync completed",
		zap.Int64("campaign_id", req.CampaignID),
		zap.Strings("platforms", platforms),
		zap.Int("metrics_imported", report.MetricsImported),
		zap.Bool("success", report.Success),
	)
	return report, nil
}

func (s *Syncer) syncPlatform(ctx context.Context, platform string, req SyncRequest) PlatformResult {
	logger := observability.OrNop(s.Logger)
	result := PlatformResult{Platform: platform}

	source, ok := s.Sources[platform]
	if !ok || !source.Configured() {
		result.Status = StatusSkipped
		result.Error = "platform credentials not configured"
		metrics.RecordFallback(platform, "sync_performance", "unconfigured")
		return result
	}

	start := time.Now()
	rows, err := source.Fetch(ctx, req)
	if err != nil {
		result.Status = StatusFailed
		result.Error = err.Error()
		metrics.RecordFallback(platform, "sync_performance", "upstream_error")
		logger.Warn("Performance fetch failed",
			zap.String("platform", platform),
			zap.Int64("campaign_id", req.CampaignID),
			zap.Error(err),
		)
		return result
	}

	if s.Writer != nil {
		for _, row := range rows {
			if err := s.Writer.InsertPerformanceMetric(ctx, row); err != nil {
				result.Status = StatusFailed
				result.Error = fmt.Sprintf("store metrics: %v", err)
				logger.Error("Failed to store performance metric",
					zap.String("platform", platform),
					zap.String("metric", row.MetricType),
					zap.Error(err),
				)
				return result
			}
			result.MetricsImported++
		}
	}

	result.Status = StatusSynced
	logger.Debug("Platform synced",
		zap.String("platform", platform),
		zap.Int("metrics", result.MetricsImported),
		zap.Duration("elapsed", time.Since(start)),
	)
	return result
}
