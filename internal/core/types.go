package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrCrisisNotFound reports a crisis event that is missing or not in a state
// that allows the requested transition.
var ErrCrisisNotFound = errors.New("crisis event not found")

// Mention is one stored social media mention.
type Mention struct {
	ID          int64     `json:"id"`
	CampaignID  int64     `json:"campaign_id"`
	ExternalID  string    `json:"external_id,omitempty"`
	Platform    string    `json:"platform"`
	Content     string    `json:"content"`
	Author      string    `json:"author,omitempty"`
	URL         string    `json:"url,omitempty"`
	Sentiment   *float64  `json:"sentiment,omitempty"`
	Reach       int64     `json:"reach"`
	Engagement  int64     `json:"engagement"`
	MentionedAt time.Time `json:"mentioned_at"`
	CreatedAt   time.Time `json:"created_at"`
}

// MentionFilter narrows ListMentions.
type MentionFilter struct {
	CampaignID *int64
	Platform   string
	Limit      int
	Offset     int
}

// CrisisStatus is the lifecycle state of a crisis event.
type CrisisStatus string

const (
	CrisisActive       CrisisStatus = "active"
	CrisisAcknowledged CrisisStatus = "acknowledged"
	CrisisResolved     CrisisStatus = "resolved"
)

// ErrInvalidStatus reports an unknown crisis status filter.
var ErrInvalidStatus = errors.New("status must be one of active, acknowledged, resolved, open")

// ParseCrisisStatuses reads a comma-separated status filter. "open" expands
// to active and acknowledged; empty input means no filter.
func ParseCrisisStatuses(raw string) ([]CrisisStatus, error) {
	var statuses []CrisisStatus
	for _, part := range strings.Split(raw, ",") {
		switch value := CrisisStatus(strings.ToLower(strings.TrimSpace(part))); value {
		case "":
		case "open":
			statuses = append(statuses, CrisisActive, CrisisAcknowledged)
		case CrisisActive, CrisisAcknowledged, CrisisResolved:
			statuses = append(statuses, value)
		default:
			return nil, fmt.Errorf("%w: got %q", ErrInvalidStatus, value)
		}
	}
	return statuses, nil
}

// TriggerType names the detector that raised an alert.
type TriggerType string

const (
	TriggerVolumeSpike   TriggerType = "volume_spike"
	TriggerSentimentDrop TriggerType = "sentiment_drop"
	TriggerKeyword       TriggerType = "keyword_alert"
)

// Impact is the estimated impact band of an alert.
type Impact string

const (
	ImpactLow      Impact = "low"
	ImpactMedium   Impact = "medium"
	ImpactHigh     Impact = "high"
	ImpactCritical Impact = "critical"
)

// AlertMetrics are the measurements behind a crisis alert.
type AlertMetrics struct {
	MentionSpike  float64 `json:"mention_spike"`
	SentimentDrop float64 `json:"sentiment_drop"`
	ReachIncrease float64 `json:"reach_increase"`
}

// CrisisAlert is a detection result before it is persisted.
type CrisisAlert struct {
	ID              string       `json:"id"`
	Title           string       `json:"title"`
	Severity        int          `json:"severity"`
	TriggerType     TriggerType  `json:"trigger_type"`
	Metrics         AlertMetrics `json:"metrics"`
	EstimatedImpact Impact       `json:"estimated_impact"`
}

// CrisisEvent is a persisted crisis with its lifecycle timestamps.
type CrisisEvent struct {
	ID                     string         `json:"id"`
	Title                  string         `json:"title"`
	Description            string         `json:"description,omitempty"`
	Severity               int            `json:"severity"`
	Status                 CrisisStatus   `json:"status"`
	TriggerType            TriggerType    `json:"trigger_type,omitempty"`
	DetectedAt             time.Time      `json:"detected_at"`
	AcknowledgedAt         *time.Time     `json:"acknowledged_at,omitempty"`
	ResolvedAt             *time.Time     `json:"resolved_at,omitempty"`
	MentionCount           int            `json:"mention_count"`
	NegativeSentimentRatio float64        `json:"negative_sentiment_ratio"`
	EstimatedReach         int64          `json:"estimated_reach"`
	Metadata               map[string]any `json:"metadata,omitempty"`
	CreatedAt              time.Time      `json:"created_at"`
	UpdatedAt              time.Time      `json:"updated_at"`
}

// Resolution records how a crisis was closed.
type Resolution struct {
	ResolvedBy         string `json:"resolved_by,omitempty"`
	Resolution         string `json:"resolution,omitempty"`
	PreventiveMeasures string `json:"preventive_measures,omitempty"`
}

// SeverityDistribution buckets events by severity: low 1-3, medium 4-6,
// high 7-8, critical 9-10.
type SeverityDistribution struct {
	Low      int `json:"low"`
	Medium   int `json:"medium"`
	High     int `json:"high"`
	Critical int `json:"critical"`
}

type StatusBreakdown struct {
	Active       int `json:"active"`
	Acknowledged int `json:"acknowledged"`
	Resolved     int `json:"resolved"`
}

// CrisisSummary is the dashboard overview of all crisis events.
type CrisisSummary struct {
	ActiveCrises          int                  `json:"active_crises"`
	TotalCrises           int                  `json:"total_crises"`
	AverageSeverity       float64              `json:"average_severity"`
	RecentEvents          []CrisisEvent        `json:"recent_events"`
	SeverityDistribution  SeverityDistribution `json:"severity_distribution"`
	StatusBreakdown       StatusBreakdown      `json:"status_breakdown"`
	AverageResolutionTime float64              `json:"average_resolution_hours"`
}

// PerformanceMetric is one ad-platform measurement for a campaign day.
type PerformanceMetric struct {
	ID          int64     `json:"id"`
	CampaignID  int64     `json:"campaign_id"`
	Platform    string    `json:"platform"`
	MetricType  string    `json:"metric_type"`
	MetricValue float64   `json:"metric_value"`
	Date        string    `json:"date"`
	CreatedAt   time.Time `json:"created_at"`
}

// MetricFilter narrows ListPerformanceMetrics. Dates are YYYY-MM-DD and
// inclusive.
type MetricFilter struct {
	CampaignID *int64
	Platform   string
	MetricType string
	StartDate  string
	EndDate    string
	Limit      int
	Offset     int
}

// CrisisHistoryFilter narrows CrisisHistory. Severity 0 means any.
type CrisisHistoryFilter struct {
	Status   CrisisStatus
	Severity int
	Limit    int
	Offset   int
}

// CrisisHistoryStats aggregates resolved events.
type CrisisHistoryStats struct {
	AverageResolutionTime float64 `json:"average_resolution_hours"`
	MostCommonSeverity    int     `json:"most_common_severity"`
	TotalReach            int64   `json:"total_reach"`
}

// CrisisHistory is one page of crisis events plus the filtered total.
type CrisisHistory struct {
	Events     []CrisisEvent      `json:"events"`
	Total      int                `json:"total"`
	Statistics CrisisHistoryStats `json:"statistics"`
}
