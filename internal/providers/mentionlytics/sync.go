package mentionlytics

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/warroom/warroom/internal/core"
	"github.com/warroom/warroom/internal/core/cache"
	"github.com/warroom/warroom/internal/observability"
)

// ErrInvalidSync marks malformed mention sync requests.
var ErrInvalidSync = errors.New("invalid mention sync request")

const (
	defaultSyncLimit = 100
	maxSyncLimit     = 100
)

// Sentiment scores stored for vendor labels.
const (
	scorePositive = 0.7
	scoreNegative = -0.6
	scoreNeutral  = 0.1
)

// SyncRequest asks for the most recent mentions to be stored against a
// campaign. Limit defaults to 100.
type SyncRequest struct {
	CampaignID   int64 `json:"campaign_id" validate:"required,gt=0"`
	Limit        int   `json:"limit,omitempty" validate:"omitempty,min=1,max=100"`
	ForceRefresh bool  `json:"force_refresh,omitempty"`
}

// SyncReport summarizes one mention sync. Fetch and store failures land in
// Errors; Success is true only when Errors is empty.
type SyncReport struct {
	Success           bool      `json:"success"`
	MentionsProcessed int       `json:"mentions_processed"`
	NewMentions       int       `json:"new_mentions"`
	SkippedMock       int       `json:"skipped_mock"`
	Errors            []string  `json:"errors"`
	LastSyncAt        time.Time `json:"last_sync_at"`
}

// MentionImporter stores mentions, ignoring ones it already holds, and
// reports how many were new.
type MentionImporter interface {
	ImportMentions(ctx context.Context, mentions []core.Mention) (int, error)
}

// Importer copies live mentions into the store.
type Importer struct {
	Service *Service
	Store   MentionImporter
	Logger  observability.Logger
	Now     func() time.Time
}

// NewImporter wires an importer.
func NewImporter(service *Service, store MentionImporter, logger observability.Logger) *Importer {
	return &Importer{Service: service, Store: store, Logger: logger}
}

// SyncMentions fetches recent mentions and stores the ones that came from the
// live API. Placeholder mentions served while the API is unconfigured or down
// are counted but never stored.
func (i *Importer) SyncMentions(ctx context.Context, req SyncRequest) (*SyncReport, error) {
	if i == nil || i.Service == nil {
		return nil, errors.New("importer is not initialized")
	}
	if req.CampaignID <= 0 {
		return nil, fmt.Errorf("%w: campaign_id must be positive", ErrInvalidSync)
	}
	if req.Limit < 0 || req.Limit > maxSyncLimit {
		return nil, fmt.Errorf("%w: limit must be between 1 and %d", ErrInvalidSync, maxSyncLimit)
	}
	limit := req.Limit
	if limit == 0 {
		limit = defaultSyncLimit
	}
	logger := observability.OrNop(i.Logger)

	params := MentionsParams{Limit: &limit}
	if req.ForceRefresh && i.Service.Cache != nil {
		params.applyDefaults()
		if _, err := i.Service.Cache.Delete(ctx, cache.GenerateKey(OpMentions, params.values())); err != nil {
			logger.Warn("Failed to drop cached mentions", zap.Error(err))
		}
	}

	report := &SyncReport{Errors: []string{}}
	resp, err := i.Service.Mentions(ctx, params)
	report.LastSyncAt = i.now()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		report.Errors = append(report.Errors, fmt.Sprintf("Failed to sync mentions: %v", err))
		return report, nil
	}
	if !resp.Success {
		report.Errors = append(report.Errors, "Failed to sync mentions: "+resp.Message)
	}

	report.MentionsProcessed = len(resp.Data)
	batch := make([]core.Mention, 0, len(resp.Data))
	for _, item := range resp.Data {
		if strings.HasPrefix(item.ID, MockMentionPrefix) {
			report.SkippedMock++
			continue
		}
		batch = append(batch, toMention(req.CampaignID, item, report.LastSyncAt))
	}

	if len(batch) > 0 {
		if i.Store == nil {
			report.Errors = append(report.Errors, "Failed to store mentions: mention store is not configured")
		} else {
			inserted, err := i.Store.ImportMentions(ctx, batch)
			if err != nil {
				report.Errors = append(report.Errors, fmt.Sprintf("Failed to store mentions: %v", err))
			}
			report.NewMentions = inserted
		}
	}

	report.Success = len(report.Errors) == 0
	logger.Info("Mention sync completed",
		zap.Int64("campaign_id", req.CampaignID),
		zap.Int("processed", report.MentionsProcessed),
		zap.Int("new", report.NewMentions),
		zap.Int("skipped_mock", report.SkippedMock),
		zap.Bool("success", report.Success),
	)
	return report, nil
}

func (i *Importer) now() time.Time {
	if i.Now != nil {
		return i.Now().UTC()
	}
	return time.Now().UTC()
}

func toMention(campaignID int64, item MentionItem, fallback time.Time) core.Mention {
	mentionedAt, err := time.Parse(time.RFC3339, item.Timestamp)
	if err != nil {
		mentionedAt = fallback
	}
	score := sentimentScore(item.Sentiment)
	return core.Mention{
		CampaignID:  campaignID,
		ExternalID:  item.ID,
		Platform:    strings.ToLower(strings.TrimSpace(item.Platform)),
		Content:     item.Text,
		Author:      item.Author,
		Sentiment:   &score,
		Reach:       item.Reach,
		MentionedAt: mentionedAt.UTC(),
	}
}

func sentimentScore(label string) float64 {
	switch MapSentiment(label) {
	case SentimentPositive:
		return scorePositive
	case SentimentNegative:
		return scoreNegative
	default:
		return scoreNeutral
	}
}
