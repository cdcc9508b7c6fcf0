// Package crisis detects mention spikes, sentiment drops and crisis keywords
// in stored mentions.
package crisis

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/warroom/warroom/internal/core"
	"github.com/warroom/warroom/internal/metrics"
	"github.com/warroom/warroom/internal/observability"
)

// AlertThreshold is the severity an aggregate alert must exceed to be raised.
const AlertThreshold = 5

// KeywordSeverity is assigned to every keyword alert.
const KeywordSeverity = 8

// DefaultKeywords are matched against recent mention content.
var DefaultKeywords = []string{"scandal", "boycott", "lawsuit", "controversy", "fraud", "scam"}

// Stats supplies the aggregates the detectors need.
type Stats interface {
	CountMentionsBetween(ctx context.Context, from, to time.Time) (int, error)
	AverageSentimentBetween(ctx context.Context, from, to time.Time) (float64, error)
	CountKeywordMentionsSince(ctx context.Context, keyword string, since time.Time) (int, error)
	SumReachBetween(ctx context.Context, from, to time.Time) (int64, error)
}

// Recorder persists raised alerts.
type Recorder interface {
	CreateCrisisEvent(ctx context.Context, event core.CrisisEvent) (*core.CrisisEvent, error)
}

// Engine runs the detectors.
type Engine struct {
	Stats    Stats
	Recorder Recorder
	Keywords []string
	Clock    func() time.Time
	Logger   observability.Logger
}

// ScanResult holds the alerts raised by one scan and any events persisted.
type ScanResult struct {
	ScannedAt time.Time          `json:"scanned_at"`
	Alerts    []core.CrisisAlert `json:"alerts"`
	Events    []core.CrisisEvent `json:"events,omitempty"`
}

// Scan runs every detector and, when persist is set, records each alert as
// an active crisis event.
func (e *Engine) Scan(ctx context.Context, persist bool) (*ScanResult, error) {
	if e == nil || e.Stats == nil {
		return nil, fmt.Errorf("crisis engine is not configured")
	}
	if persist && e.Recorder == nil {
		return nil, fmt.Errorf("crisis engine has no recorder")
	}

	now := e.now()
	result := &ScanResult{ScannedAt: now, Alerts: []core.CrisisAlert{}}

	spike, err := e.detectMentionSpike(ctx, now)
	if err != nil {
		return nil, err
	}
	if spike.Severity > AlertThreshold {
		result.Alerts = append(result.Alerts, spike)
	}

	drop, err := e.detectSentimentDrop(ctx, now)
	if err != nil {
		return nil, err
	}
	if drop.Severity > AlertThreshold {
		result.Alerts = append(result.Alerts, drop)
	}

	keywords, err := e.detectKeywords(ctx, now)
	if err != nil {
		return nil, err
	}
	result.Alerts = append(result.Alerts, keywords...)

	logger := observability.OrNop(e.Logger)
	for _, alert := range result.Alerts {
		metrics.RecordCrisisAlert(string(alert.TriggerType), string(alert.EstimatedImpact))
		logger.Warn("Crisis alert raised",
			zap.String("id", alert.ID),
			zap.String("trigger", string(alert.TriggerType)),
			zap.Int("severity", alert.Severity),
			zap.String("impact", string(alert.EstimatedImpact)),
		)
	}

	if !persist || len(result.Alerts) == 0 {
		return result, nil
	}

	reach, err := e.Stats.SumReachBetween(ctx, now.Add(-24*time.Hour), now)
	if err != nil {
		return nil, fmt.Errorf("sum reach: %w", err)
	}
	for _, alert := range result.Alerts {
		event, err := e.Recorder.CreateCrisisEvent(ctx, EventFromAlert(alert, reach, now))
		if err != nil {
			return nil, fmt.Errorf("record crisis event: %w", err)
		}
		result.Events = append(result.Events, *event)
	}
	return result, nil
}

// EventFromAlert builds the crisis event persisted for alert.
func EventFromAlert(alert core.CrisisAlert, reach int64, detectedAt time.Time) core.CrisisEvent {
	ratio := math.Abs(alert.Metrics.SentimentDrop)
	mentions := int(alert.Metrics.MentionSpike)
	return core.CrisisEvent{
		Title:                  alert.Title,
		Description:            "Crisis detected by automated monitoring system",
		Severity:               alert.Severity,
		Status:                 core.CrisisActive,
		TriggerType:            alert.TriggerType,
		DetectedAt:             detectedAt,
		MentionCount:           mentions,
		NegativeSentimentRatio: ratio,
		EstimatedReach:         reach,
		Metadata: map[string]any{
			"alert_id":         alert.ID,
			"mention_spike":    alert.Metrics.MentionSpike,
			"sentiment_drop":   alert.Metrics.SentimentDrop,
			"reach_increase":   alert.Metrics.ReachIncrease,
			"estimated_impact": string(alert.EstimatedImpact),
			"impact_score":     ImpactScore(mentions, reach, ratio),
		},
	}
}

func (e *Engine) detectMentionSpike(ctx context.Context, now time.Time) (core.CrisisAlert, error) {
	today, err := e.Stats.CountMentionsBetween(ctx, now.Add(-24*time.Hour), now)
	if err != nil {
		return core.CrisisAlert{}, fmt.Errorf("count recent mentions: %w", err)
	}
	yesterday, err := e.Stats.CountMentionsBetween(ctx, now.Add(-48*time.Hour), now.Add(-24*time.Hour))
	if err != nil {
		return core.CrisisAlert{}, fmt.Errorf("count previous mentions: %w", err)
	}
	if yesterday == 0 {
		yesterday = 1
	}

	ratio := float64(today) / float64(yesterday)
	severity := clampSeverity(math.Floor(ratio * 2))

	return core.CrisisAlert{
		ID:              fmt.Sprintf("spike_%d", now.UnixMilli()),
		Title:           "Mention Volume Spike Detected",
		Severity:        severity,
		TriggerType:     core.TriggerVolumeSpike,
		Metrics:         core.AlertMetrics{MentionSpike: ratio},
		EstimatedImpact: ImpactFor(severity),
	}, nil
}

func (e *Engine) detectSentimentDrop(ctx context.Context, now time.Time) (core.CrisisAlert, error) {
	recent, err := e.Stats.AverageSentimentBetween(ctx, now.Add(-6*time.Hour), now)
	if err != nil {
		return core.CrisisAlert{}, fmt.Errorf("average recent sentiment: %w", err)
	}
	baseline, err := e.Stats.AverageSentimentBetween(ctx, now.Add(-7*24*time.Hour), now.Add(-24*time.Hour))
	if err != nil {
		return core.CrisisAlert{}, fmt.Errorf("average baseline sentiment: %w", err)
	}

	drop := baseline - recent
	severity := clampSeverity(math.Floor(drop * 10))

	return core.CrisisAlert{
		ID:              fmt.Sprintf("sentiment_%d", now.UnixMilli()),
		Title:           "Negative Sentiment Spike Detected",
		Severity:        severity,
		TriggerType:     core.TriggerSentimentDrop,
		Metrics:         core.AlertMetrics{SentimentDrop: drop},
		EstimatedImpact: ImpactFor(severity),
	}, nil
}

func (e *Engine) detectKeywords(ctx context.Context, now time.Time) ([]core.CrisisAlert, error) {
	keywords := e.Keywords
	if len(keywords) == 0 {
		keywords = DefaultKeywords
	}

	alerts := []core.CrisisAlert{}
	since := now.Add(-2 * time.Hour)
	for _, keyword := range keywords {
		keyword = strings.ToLower(strings.TrimSpace(keyword))
		if keyword == "" {
			continue
		}
		count, err := e.Stats.CountKeywordMentionsSince(ctx, keyword, since)
		if err != nil {
			return nil, fmt.Errorf("count %q mentions: %w", keyword, err)
		}
		if count == 0 {
			continue
		}
		alerts = append(alerts, core.CrisisAlert{
			ID:              fmt.Sprintf("keyword_%s_%d", keyword, now.UnixMilli()),
			Title:           fmt.Sprintf("Crisis Keyword Detected: %q", keyword),
			Severity:        KeywordSeverity,
			TriggerType:     core.TriggerKeyword,
			Metrics:         core.AlertMetrics{MentionSpike: float64(count)},
			EstimatedImpact: core.ImpactHigh,
		})
	}
	return alerts, nil
}

// ImpactFor maps a severity to its impact band.
func ImpactFor(severity int) core.Impact {
	switch {
	case severity > 8:
		return core.ImpactCritical
	case severity > 6:
		return core.ImpactHigh
	case severity > 4:
		return core.ImpactMedium
	default:
		return core.ImpactLow
	}
}

// ImpactScore combines volume, reach and negativity into a 0-100 score.
func ImpactScore(mentionCount int, reach int64, sentimentRatio float64) float64 {
	score := float64(mentionCount)*0.3 + float64(reach)/1000*0.4 + sentimentRatio*30
	return math.Min(100, score)
}

func clampSeverity(value float64) int {
	if math.IsNaN(value) {
		return 1
	}
	return int(math.Min(10, math.Max(1, value)))
}

func (e *Engine) now() time.Time {
	if e.Clock != nil {
		return e.Clock()
	}
	return time.Now().UTC()
}
