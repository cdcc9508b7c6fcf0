//go:build cgo

package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/warroom/warroom/internal/config"
	"github.com/warroom/warroom/internal/core"
	"github.com/warroom/warroom/internal/core/cache"
	"github.com/warroom/warroom/internal/core/ratelimit"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	store, err := Open(ctx, config.StoreConfig{
		Driver: "libsql",
		Path:   "file:" + t.TempDir() + "/warroom.db",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(ctx))
	return store
}

func TestOpenMemoryStore(t *testing.T) {
	ctx := context.Background()
	cfg := config.StoreConfig{
		Driver: "libsql",
		Path:   ":memory:",
	}

	store, err := Open(ctx, cfg)
	require.NoError(t, err)
	require.NotNil(t, store)
	require.Equal(t, "libsql", store.Driver())
	require.NoError(t, store.Close())
}

func TestMigrateIsIdempotent(t *testing.T) {
	store := openTestStore(t)
	require.NoError(t, store.Migrate(context.Background()))
}

func TestMentionsRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	sentiment := -0.4
	created, err := store.CreateMention(ctx, core.Mention{
		CampaignID:  7,
		Platform:    "twitter",
		Content:     "Calls for a BOYCOTT grow",
		Sentiment:   &sentiment,
		Reach:       1200,
		MentionedAt: now.Add(-time.Hour),
	})
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	_, err = store.CreateMention(ctx, core.Mention{CampaignID: 8, Platform: "reddit", Content: "neutral post", MentionedAt: now.Add(-30 * time.Hour)})
	require.NoError(t, err)

	campaign := int64(7)
	mentions, err := store.ListMentions(ctx, core.MentionFilter{CampaignID: &campaign})
	require.NoError(t, err)
	require.Len(t, mentions, 1)
	require.Equal(t, "twitter", mentions[0].Platform)
	require.NotNil(t, mentions[0].Sentiment)
	require.InDelta(t, -0.4, *mentions[0].Sentiment, 0.0001)

	all, err := store.ListMentions(ctx, core.MentionFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, created.ID, all[0].ID)

	count, err := store.CountMentionsBetween(ctx, now.Add(-24*time.Hour), now)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	avg, err := store.AverageSentimentBetween(ctx, now.Add(-24*time.Hour), now)
	require.NoError(t, err)
	require.InDelta(t, -0.4, avg, 0.0001)

	keyword, err := store.CountKeywordMentionsSince(ctx, "boycott", now.Add(-2*time.Hour))
	require.NoError(t, err)
	require.Equal(t, 1, keyword)

	reach, err := store.SumReachBetween(ctx, now.Add(-24*time.Hour), now)
	require.NoError(t, err)
	require.Equal(t, int64(1200), reach)
}

func TestCrisisEventLifecycle(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	event, err := store.CreateCrisisEvent(ctx, core.CrisisEvent{
		Title:        "Mention Volume Spike Detected",
		Severity:     7,
		TriggerType:  core.TriggerVolumeSpike,
		MentionCount: 4,
		Metadata:     map[string]any{"mention_spike": 4.0},
	})
	require.NoError(t, err)
	require.Equal(t, core.CrisisActive, event.Status)
	require.NotEmpty(t, event.ID)

	active, err := store.ListCrisisEvents(ctx, core.CrisisActive, core.CrisisAcknowledged)
	require.NoError(t, err)
	require.Len(t, active, 1)

	acked, err := store.AcknowledgeCrisisEvent(ctx, event.ID, "ops", "looking")
	require.NoError(t, err)
	require.Equal(t, core.CrisisAcknowledged, acked.Status)
	require.NotNil(t, acked.AcknowledgedAt)
	require.Equal(t, "ops", acked.Metadata["acknowledged_by"])
	require.Equal(t, 4.0, acked.Metadata["mention_spike"])

	_, err = store.AcknowledgeCrisisEvent(ctx, event.ID, "ops", "")
	require.True(t, errors.Is(err, ErrCrisisNotFound))

	resolved, err := store.ResolveCrisisEvent(ctx, event.ID, core.Resolution{ResolvedBy: "ops", Resolution: "statement issued", PreventiveMeasures: "faster replies"})
	require.NoError(t, err)
	require.Equal(t, core.CrisisResolved, resolved.Status)
	require.NotNil(t, resolved.ResolvedAt)

	require.Equal(t, "faster replies", resolved.Metadata["preventive_measures"])

	_, err = store.ResolveCrisisEvent(ctx, "missing", core.Resolution{})
	require.True(t, errors.Is(err, ErrCrisisNotFound))

	_, err = store.CreateCrisisEvent(ctx, core.CrisisEvent{Title: "Crisis Keyword Alert: \"fraud\"", Severity: 9})
	require.NoError(t, err)

	summary, err := store.CrisisSummary(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, summary.TotalCrises)
	require.Equal(t, 1, summary.ActiveCrises)
	require.Equal(t, 1, summary.StatusBreakdown.Resolved)
	require.Equal(t, 1, summary.SeverityDistribution.High)
	require.Equal(t, 1, summary.SeverityDistribution.Critical)
	require.InDelta(t, 8.0, summary.AverageSeverity, 0.001)
	require.Len(t, summary.RecentEvents, 2)
}

func TestPerformanceMetricsUpsert(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	metric := core.PerformanceMetric{CampaignID: 1, Platform: "meta", MetricType: "clicks", MetricValue: 10, Date: "2025-01-01"}
	require.NoError(t, store.InsertPerformanceMetric(ctx, metric))
	metric.MetricValue = 12
	require.NoError(t, store.InsertPerformanceMetric(ctx, metric))

	campaign := int64(1)
	metrics, err := store.ListPerformanceMetrics(ctx, core.MetricFilter{CampaignID: &campaign})
	require.NoError(t, err)
	require.Len(t, metrics, 1)
	require.Equal(t, 12.0, metrics[0].MetricValue)
}

func TestPerformanceMetricsFilterAndPage(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for _, m := range []core.PerformanceMetric{
		{CampaignID: 1, Platform: "meta", MetricType: "clicks", MetricValue: 1, Date: "2025-01-01"},
		{CampaignID: 1, Platform: "meta", MetricType: "clicks", MetricValue: 2, Date: "2025-01-02"},
		{CampaignID: 1, Platform: "google_ads", MetricType: "spend", MetricValue: 3, Date: "2025-01-03"},
		{CampaignID: 2, Platform: "meta", MetricType: "clicks", MetricValue: 4, Date: "2025-01-02"},
	} {
		_, err := store.CreatePerformanceMetric(ctx, m)
		require.NoError(t, err)
	}

	created, err := store.CreatePerformanceMetric(ctx, core.PerformanceMetric{CampaignID: 3, Platform: "meta", MetricType: "ctr", MetricValue: 0.5, Date: "2025-02-01"})
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	require.Equal(t, 0.5, created.MetricValue)

	campaign := int64(1)
	metrics, err := store.ListPerformanceMetrics(ctx, core.MetricFilter{CampaignID: &campaign, Platform: "meta"})
	require.NoError(t, err)
	require.Len(t, metrics, 2)
	require.Equal(t, "2025-01-02", metrics[0].Date)

	metrics, err = store.ListPerformanceMetrics(ctx, core.MetricFilter{StartDate: "2025-01-02", EndDate: "2025-01-03", Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, metrics, 2)
	require.Equal(t, "2025-01-02", metrics[0].Date)
}

func TestRateLimitStoreBacksLimiter(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter := &ratelimit.Limiter{Store: store.RateLimits(), Clock: func() time.Time { return now }}
	policy := ratelimit.Policy{Name: "http", MaxAttempts: 2, Window: time.Minute}

	require.NoError(t, limiter.Check(ctx, "10.0.0.1", policy))
	require.NoError(t, limiter.Check(ctx, "10.0.0.1", policy))
	require.ErrorIs(t, limiter.Check(ctx, "10.0.0.1", policy), ratelimit.ErrRateLimited)

	entries, err := store.ListRateLimits(ctx, RateLimitQuery{Prefix: "10.0."})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.True(t, entries[0].Record.Blocked)
	require.Equal(t, 2*time.Minute, entries[0].Record.BlockDuration)
	require.NotNil(t, entries[0].Record.BlockExpires)
	require.True(t, entries[0].Record.BlockExpires.Equal(now.Add(time.Minute)))

	now = now.Add(2 * time.Hour)
	removed, err := limiter.Sweep(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, removed)

	count, err := store.CountRateLimits(ctx, RateLimitQuery{All: true})
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestCacheStoreBacksCache(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	c := &cache.Cache{Store: store.Cache(), Clock: func() time.Time { return now }}

	require.NoError(t, c.Set(ctx, "mentions:e30=", []byte(`{"a":1}`), 100*time.Millisecond))
	data, ok, err := c.Get(ctx, "mentions:e30=")
	require.NoError(t, err)
	require.True(t, ok)
	require.JSONEq(t, `{"a":1}`, string(data))

	now = now.Add(150 * time.Millisecond)
	_, ok, err = c.Get(ctx, "mentions:e30=")
	require.NoError(t, err)
	require.False(t, ok)

	entries, err := store.ListCacheEntries(ctx)
	require.NoError(t, err)
	require.Empty(t, entries)

	require.NoError(t, c.Set(ctx, "k", []byte("1"), time.Minute))
	cleared, err := c.Clear(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, cleared)
}

func TestCampaignsCRUD(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	budget := 25000.0
	created, err := store.CreateCampaign(ctx, core.Campaign{Name: " Spring Push ", StartDate: "2026-03-01", Budget: &budget})
	require.NoError(t, err)
	require.Equal(t, "Spring Push", created.Name)
	require.Equal(t, core.CampaignStatusActive, created.Status)
	require.NotNil(t, created.Budget)

	_, err = store.CreateCampaign(ctx, core.Campaign{Name: "Runoff", StartDate: "2026-05-01"})
	require.NoError(t, err)

	campaigns, err := store.ListCampaigns(ctx)
	require.NoError(t, err)
	require.Len(t, campaigns, 2)
	require.Equal(t, "Runoff", campaigns[0].Name)

	status := "paused"
	endDate := "2026-04-30"
	updated, err := store.UpdateCampaign(ctx, created.ID, core.CampaignUpdate{Status: &status, EndDate: &endDate})
	require.NoError(t, err)
	require.Equal(t, "paused", updated.Status)
	require.Equal(t, "2026-04-30", updated.EndDate)
	require.Equal(t, "Spring Push", updated.Name)

	_, err = store.UpdateCampaign(ctx, created.ID, core.CampaignUpdate{})
	require.ErrorIs(t, err, core.ErrNoUpdates)

	_, err = store.UpdateCampaign(ctx, 999, core.CampaignUpdate{Status: &status})
	require.ErrorIs(t, err, core.ErrCampaignNotFound)

	_, err = store.GetCampaign(ctx, 999)
	require.ErrorIs(t, err, core.ErrCampaignNotFound)
}

func TestAlertsLifecycleAndSummary(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for i, alert := range []core.Alert{
		{CampaignID: 1, AlertType: "negative_press", Severity: "critical", Title: "Op-ed", Description: "front page"},
		{CampaignID: 1, AlertType: "sentiment", Severity: "high", Title: "Dip", Description: "sentiment down"},
		{CampaignID: 2, AlertType: "sentiment", Severity: "low", Title: "Other", Description: "other campaign"},
	} {
		alert.TriggeredAt = now.Add(time.Duration(i) * time.Minute)
		_, err := store.CreateAlert(ctx, alert)
		require.NoError(t, err)
	}

	campaign := int64(1)
	alerts, err := store.ListAlerts(ctx, core.AlertFilter{CampaignID: &campaign})
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	require.Equal(t, "Dip", alerts[0].Title)

	resolved, err := store.ResolveAlert(ctx, alerts[0].ID)
	require.NoError(t, err)
	require.Equal(t, core.AlertResolved, resolved.Status)
	require.NotNil(t, resolved.ResolvedAt)

	_, err = store.ResolveAlert(ctx, alerts[0].ID)
	require.ErrorIs(t, err, core.ErrAlertNotFound)

	active, err := store.ListAlerts(ctx, core.AlertFilter{Status: core.AlertActive, Severity: "CRITICAL"})
	require.NoError(t, err)
	require.Len(t, active, 1)

	summary, err := store.AlertsSummary(ctx, &campaign)
	require.NoError(t, err)
	require.Equal(t, 2, summary.TotalAlerts)
	require.Equal(t, 1, summary.ActiveAlerts)
	require.Equal(t, 1, summary.CriticalAlerts)
	require.Equal(t, []core.SeverityCount{{Severity: "critical", Count: 1}}, summary.SeverityBreakdown)
	require.Len(t, summary.RecentAlerts, 2)

	all, err := store.AlertsSummary(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, 3, all.TotalAlerts)
	require.Len(t, all.SeverityBreakdown, 2)
}

func TestStaffMembers(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	member, err := store.CreateStaffMember(ctx, core.StaffMember{
		CampaignID:       1,
		Name:             "Dana",
		Email:            "Dana@Example.com",
		Role:             "comms",
		AlertPreferences: map[string]any{"sms": true},
	})
	require.NoError(t, err)
	require.Equal(t, "dana@example.com", member.Email)

	_, err = store.CreateStaffMember(ctx, core.StaffMember{CampaignID: 1, Name: "Dana again", Email: "dana@example.com", Role: "comms"})
	require.ErrorIs(t, err, core.ErrDuplicate)

	_, err = store.CreateStaffMember(ctx, core.StaffMember{CampaignID: 1, Name: "Lee", Email: "lee@example.com", Role: "field"})
	require.NoError(t, err)

	campaign := int64(1)
	staff, err := store.ListStaff(ctx, core.StaffFilter{CampaignID: &campaign})
	require.NoError(t, err)
	require.Len(t, staff, 2)
	require.Equal(t, "Dana", staff[0].Name)
	require.Equal(t, true, staff[0].AlertPreferences["sms"])

	field, err := store.ListStaff(ctx, core.StaffFilter{Role: "field"})
	require.NoError(t, err)
	require.Len(t, field, 1)
}

func TestImportMentionsSkipsDuplicates(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	batch := []core.Mention{
		{CampaignID: 4, ExternalID: "m-1", Platform: "twitter", Content: "first"},
		{CampaignID: 4, ExternalID: "m-2", Platform: "reddit", Content: "second"},
	}
	inserted, err := store.ImportMentions(ctx, batch)
	require.NoError(t, err)
	require.Equal(t, 2, inserted)

	inserted, err = store.ImportMentions(ctx, append(batch, core.Mention{CampaignID: 4, ExternalID: "m-3", Platform: "news", Content: "third"}))
	require.NoError(t, err)
	require.Equal(t, 1, inserted)

	campaign := int64(4)
	mentions, err := store.ListMentions(ctx, core.MentionFilter{CampaignID: &campaign})
	require.NoError(t, err)
	require.Len(t, mentions, 3)

	_, err = store.CreateMention(ctx, core.Mention{CampaignID: 4, ExternalID: "m-1", Platform: "twitter", Content: "again"})
	require.ErrorIs(t, err, core.ErrDuplicate)
}

func TestCrisisHistoryPagesAndAggregates(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	ids := make([]string, 0, 4)
	for i, severity := range []int{7, 7, 9, 4} {
		event, err := store.CreateCrisisEvent(ctx, core.CrisisEvent{
			Title:          "event",
			Severity:       severity,
			EstimatedReach: 1000,
			DetectedAt:     now.Add(-time.Duration(4-i) * time.Hour),
		})
		require.NoError(t, err)
		ids = append(ids, event.ID)
	}
	for _, id := range ids[:3] {
		_, err := store.ResolveCrisisEvent(ctx, id, core.Resolution{ResolvedBy: "ops"})
		require.NoError(t, err)
	}

	history, err := store.CrisisHistory(ctx, core.CrisisHistoryFilter{Limit: 2})
	require.NoError(t, err)
	require.Equal(t, 4, history.Total)
	require.Len(t, history.Events, 2)
	require.Equal(t, ids[3], history.Events[0].ID)
	require.Equal(t, 7, history.Statistics.MostCommonSeverity)
	require.Equal(t, int64(3000), history.Statistics.TotalReach)
	require.Greater(t, history.Statistics.AverageResolutionTime, 0.0)

	resolved, err := store.CrisisHistory(ctx, core.CrisisHistoryFilter{Status: core.CrisisResolved, Severity: 7, Offset: 1})
	require.NoError(t, err)
	require.Equal(t, 2, resolved.Total)
	require.Len(t, resolved.Events, 1)

	empty := openTestStore(t)
	none, err := empty.CrisisHistory(ctx, core.CrisisHistoryFilter{})
	require.NoError(t, err)
	require.Zero(t, none.Total)
	require.Empty(t, none.Events)
	require.Equal(t, 1, none.Statistics.MostCommonSeverity)
}
