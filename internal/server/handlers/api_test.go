package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warroom/warroom/internal/core"
	"github.com/warroom/warroom/internal/core/crisis"
	apperrors "github.com/warroom/warroom/internal/errors"
	"github.com/warroom/warroom/internal/providers/ads"
	"github.com/warroom/warroom/internal/providers/mentionlytics"
)

type stubMentions struct {
	created []core.Mention
	filter  core.MentionFilter
	err     error
}

func (s *stubMentions) CreateMention(ctx context.Context, m core.Mention) (*core.Mention, error) {
	if s.err != nil {
		return nil, s.err
	}
	m.ID = int64(len(s.created) + 1)
	s.created = append(s.created, m)
	return &m, nil
}

func (s *stubMentions) ListMentions(ctx context.Context, filter core.MentionFilter) ([]core.Mention, error) {
	s.filter = filter
	return s.created, s.err
}

type stubCrises struct {
	statuses   []core.CrisisStatus
	ackBy      string
	resolution core.Resolution
	history    core.CrisisHistoryFilter
	err        error
}

func (s *stubCrises) ListCrisisEvents(ctx context.Context, statuses ...core.CrisisStatus) ([]core.CrisisEvent, error) {
	s.statuses = statuses
	return []core.CrisisEvent{{ID: "c1", Status: core.CrisisActive}}, s.err
}

func (s *stubCrises) AcknowledgeCrisisEvent(ctx context.Context, id, by, notes string) (*core.CrisisEvent, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.ackBy = by
	return &core.CrisisEvent{ID: id, Status: core.CrisisAcknowledged}, nil
}

func (s *stubCrises) ResolveCrisisEvent(ctx context.Context, id string, res core.Resolution) (*core.CrisisEvent, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.resolution = res
	return &core.CrisisEvent{ID: id, Status: core.CrisisResolved}, nil
}

func (s *stubCrises) CrisisSummary(ctx context.Context) (*core.CrisisSummary, error) {
	return &core.CrisisSummary{ActiveCrises: 1, TotalCrises: 3}, s.err
}

func (s *stubCrises) CrisisHistory(ctx context.Context, filter core.CrisisHistoryFilter) (*core.CrisisHistory, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.history = filter
	return &core.CrisisHistory{
		Events: []core.CrisisEvent{{ID: "c9", Status: core.CrisisResolved, Severity: 7}},
		Total:  12,
		Statistics: core.CrisisHistoryStats{
			AverageResolutionTime: 2.5,
			MostCommonSeverity:    7,
			TotalReach:            48000,
		},
	}, nil
}

type stubScanner struct{ persist *bool }

func (s *stubScanner) Scan(ctx context.Context, persist bool) (*crisis.ScanResult, error) {
	s.persist = &persist
	return &crisis.ScanResult{ScannedAt: time.Now(), Alerts: []core.CrisisAlert{{ID: "a1", Severity: 8}}}, nil
}

type mentionSyncFunc func(ctx context.Context, req mentionlytics.SyncRequest) (*mentionlytics.SyncReport, error)

func (f mentionSyncFunc) SyncMentions(ctx context.Context, req mentionlytics.SyncRequest) (*mentionlytics.SyncReport, error) {
	return f(ctx, req)
}

type syncerFunc func(ctx context.Context, req ads.SyncRequest) (*ads.SyncReport, error)

func (f syncerFunc) Sync(ctx context.Context, req ads.SyncRequest) (*ads.SyncReport, error) {
	return f(ctx, req)
}

func serve(handler http.HandlerFunc, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

// route serves through a chi router so URL params resolve.
func route(pattern string, handler http.HandlerFunc, method, target, body string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Method(method, pattern, handler)
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body apperrors.HTTPErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Error.Code
}

func TestNilDependenciesAnswerUnavailable(t *testing.T) {
	api := &API{}
	for name, handler := range map[string]http.HandlerFunc{
		"social":         api.SocialOperation(mentionlytics.OpFeed),
		"mentions":       api.ListMentions,
		"crises":         api.ListCrises,
		"scan":           api.ScanCrises,
		"dashboard":      api.CrisisDashboard,
		"history":        api.CrisisHistory,
		"sync":           api.SyncPerformance,
		"mentions sync":  api.SyncMentions,
		"campaigns":      api.ListCampaigns,
		"campaign":       api.GetCampaign,
		"alerts":         api.ListAlerts,
		"alerts summary": api.AlertsSummary,
		"resolve alert":  api.ResolveAlert,
		"staff":          api.ListStaff,
		"metrics":        api.ListMetrics,
		"record metric":  api.CreateMetric,
	} {
		t.Run(name, func(t *testing.T) {
			rec := serve(handler, http.MethodGet, "/", "")
			assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
			assert.Equal(t, apperrors.CodeUnavailable, errorCode(t, rec))
		})
	}
}

func TestSocialOperationReturnsMockEnvelope(t *testing.T) {
	api := &API{Social: mentionlytics.NewService(nil, nil, nil)}

	rec := serve(api.SocialOperation(mentionlytics.OpMentions), http.MethodGet, "/api/v1/mentionlytics/mentions?limit=3", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp mentionlytics.Response[[]mentionlytics.MentionItem]
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Success)
	assert.Equal(t, mentionlytics.MessageUnconfigured, resp.Message)
	assert.Len(t, resp.Data, 3)
}

func TestSocialOperationRejectsInvalidParams(t *testing.T) {
	api := &API{Social: mentionlytics.NewService(nil, nil, nil)}

	rec := serve(api.SocialOperation(mentionlytics.OpTrending), http.MethodGet, "/?period=2d", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apperrors.CodeValidationFailed, errorCode(t, rec))
}

func TestCreateMention(t *testing.T) {
	store := &stubMentions{}
	api := &API{Mentions: store}

	rec := serve(api.CreateMention, http.MethodPost, "/mentions",
		`{"campaign_id":7,"platform":" Twitter ","content":"great rally","sentiment":0.6,"reach":1200}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, store.created, 1)
	assert.Equal(t, "twitter", store.created[0].Platform)
	assert.Equal(t, int64(1200), store.created[0].Reach)
}

func TestCreateMentionValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
		code string
	}{
		{name: "missing campaign", body: `{"platform":"x","content":"y"}`, code: apperrors.CodeValidationFailed},
		{name: "sentiment out of range", body: `{"campaign_id":1,"platform":"x","content":"y","sentiment":2}`, code: apperrors.CodeValidationFailed},
		{name: "unknown field", body: `{"campaign_id":1,"platform":"x","content":"y","extra":true}`, code: apperrors.CodeInvalidInput},
		{name: "malformed", body: `{"campaign_id":`, code: apperrors.CodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &stubMentions{}
			rec := serve((&API{Mentions: store}).CreateMention, http.MethodPost, "/mentions", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.code, errorCode(t, rec))
			assert.Empty(t, store.created)
		})
	}
}

func TestListMentionsFilters(t *testing.T) {
	store := &stubMentions{}
	api := &API{Mentions: store}

	rec := serve(api.ListMentions, http.MethodGet, "/mentions?campaign_id=9&platform=Reddit&limit=5&offset=10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, store.filter.CampaignID)
	assert.Equal(t, int64(9), *store.filter.CampaignID)
	assert.Equal(t, "reddit", store.filter.Platform)
	assert.Equal(t, 5, store.filter.Limit)
	assert.Equal(t, 10, store.filter.Offset)

	rec = serve(api.ListMentions, http.MethodGet, "/mentions?limit=-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListMentionsStoreFailure(t *testing.T) {
	api := &API{Mentions: &stubMentions{err: errors.New("disk full")}}

	rec := serve(api.ListMentions, http.MethodGet, "/mentions", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, apperrors.CodeDatabase, errorCode(t, rec))
}

func TestScanCrisesPersistFlag(t *testing.T) {
	scanner := &stubScanner{}
	api := &API{Scanner: scanner}

	rec := serve(api.ScanCrises, http.MethodPost, "/monitoring/crisis/scan", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, *scanner.persist)

	rec = serve(api.ScanCrises, http.MethodPost, "/monitoring/crisis/scan?persist=false", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, *scanner.persist)

	rec = serve(api.ScanCrises, http.MethodPost, "/monitoring/crisis/scan?persist=maybe", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListCrisesStatusFilter(t *testing.T) {
	store := &stubCrises{}
	api := &API{Crises: store}

	rec := serve(api.ListCrises, http.MethodGet, "/monitoring/crisis?status=open,resolved", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []core.CrisisStatus{core.CrisisActive, core.CrisisAcknowledged, core.CrisisResolved}, store.statuses)

	var resp CrisisListResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Len(t, resp.Events, 1)

	rec = serve(api.ActiveCrises, http.MethodGet, "/monitoring/crisis/active", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []core.CrisisStatus{core.CrisisActive, core.CrisisAcknowledged}, store.statuses)

	rec = serve(api.ListCrises, http.MethodGet, "/monitoring/crisis?status=closed", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCrisisLifecycleEndpoints(t *testing.T) {
	store := &stubCrises{}
	api := &API{Crises: store}

	rec := route("/monitoring/crisis/acknowledge/{id}", api.AcknowledgeCrisis, http.MethodPost,
		"/monitoring/crisis/acknowledge/c1", `{"acknowledged_by":"ops"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ops", store.ackBy)

	rec = route("/monitoring/crisis/resolve/{id}", api.ResolveCrisis, http.MethodPut,
		"/monitoring/crisis/resolve/c1", `{"resolved_by":"ops","resolution":"statement issued","preventive_measures":"review copy"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, core.Resolution{ResolvedBy: "ops", Resolution: "statement issued", PreventiveMeasures: "review copy"}, store.resolution)

	var event core.CrisisEvent
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&event))
	assert.Equal(t, "c1", event.ID)
	assert.Equal(t, core.CrisisResolved, event.Status)

	// Empty bodies are allowed.
	rec = route("/monitoring/crisis/acknowledge/{id}", api.AcknowledgeCrisis, http.MethodPost,
		"/monitoring/crisis/acknowledge/c1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCrisisLifecycleNotFound(t *testing.T) {
	api := &API{Crises: &stubCrises{err: core.ErrCrisisNotFound}}

	rec := route("/monitoring/crisis/resolve/{id}", api.ResolveCrisis, http.MethodPut,
		"/monitoring/crisis/resolve/missing", `{}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, apperrors.CodeNotFound, errorCode(t, rec))
}

func TestCrisisHistory(t *testing.T) {
	store := &stubCrises{}
	api := &API{Crises: store}

	rec := serve(api.CrisisHistory, http.MethodGet, "/monitoring/crisis/history", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, core.CrisisHistoryFilter{}, store.history)

	var history core.CrisisHistory
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&history))
	assert.Equal(t, 12, history.Total)
	require.Len(t, history.Events, 1)
	assert.Equal(t, "c9", history.Events[0].ID)
	assert.Equal(t, core.CrisisHistoryStats{AverageResolutionTime: 2.5, MostCommonSeverity: 7, TotalReach: 48000}, history.Statistics)

	rec = serve(api.CrisisHistory, http.MethodGet, "/monitoring/crisis/history?status=Resolved&severity=7&limit=10&offset=20", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, core.CrisisHistoryFilter{Status: core.CrisisResolved, Severity: 7, Limit: 10, Offset: 20}, store.history)
}

func TestCrisisHistoryRejectsBadQuery(t *testing.T) {
	api := &API{Crises: &stubCrises{}}

	for _, target := range []string{
		"/monitoring/crisis/history?status=closed",
		"/monitoring/crisis/history?status=open",
		"/monitoring/crisis/history?severity=11",
		"/monitoring/crisis/history?severity=high",
		"/monitoring/crisis/history?limit=-5",
		"/monitoring/crisis/history?offset=x",
	} {
		rec := serve(api.CrisisHistory, http.MethodGet, target, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		assert.Equal(t, apperrors.CodeValidationFailed, errorCode(t, rec), target)
	}
}

func TestCrisisHistoryStoreFailure(t *testing.T) {
	api := &API{Crises: &stubCrises{err: errors.New("locked")}}

	rec := serve(api.CrisisHistory, http.MethodGet, "/monitoring/crisis/history", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, apperrors.CodeDatabase, errorCode(t, rec))
}

func TestCrisisDashboard(t *testing.T) {
	api := &API{Crises: &stubCrises{}}

	rec := serve(api.CrisisDashboard, http.MethodGet, "/monitoring/crisis/dashboard", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var summary core.CrisisSummary
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&summary))
	assert.Equal(t, 1, summary.ActiveCrises)
	assert.Equal(t, 3, summary.TotalCrises)
}

func TestSyncPerformance(t *testing.T) {
	var got ads.SyncRequest
	api := &API{Syncer: syncerFunc(func(ctx context.Context, req ads.SyncRequest) (*ads.SyncReport, error) {
		got = req
		return &ads.SyncReport{Success: true, MetricsImported: 4}, nil
	})}

	rec := serve(api.SyncPerformance, http.MethodPost, "/monitoring/sync-performance",
		`{"campaign_id":3,"platforms":["meta"],"start_date":"2026-01-01","end_date":"2026-01-07"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(3), got.CampaignID)
	assert.Equal(t, []string{"meta"}, got.Platforms)

	var report ads.SyncReport
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&report))
	assert.Equal(t, 4, report.MetricsImported)
}

func TestSyncPerformanceRejectsBadPlatform(t *testing.T) {
	called := false
	api := &API{Syncer: syncerFunc(func(ctx context.Context, req ads.SyncRequest) (*ads.SyncReport, error) {
		called = true
		return nil, nil
	})}

	rec := serve(api.SyncPerformance, http.MethodPost, "/monitoring/sync-performance",
		`{"campaign_id":3,"platforms":["myspace"],"start_date":"2026-01-01","end_date":"2026-01-07"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, called)
}

func TestSyncMentions(t *testing.T) {
	var got mentionlytics.SyncRequest
	api := &API{MentionSync: mentionSyncFunc(func(ctx context.Context, req mentionlytics.SyncRequest) (*mentionlytics.SyncReport, error) {
		got = req
		return &mentionlytics.SyncReport{
			Success:           false,
			MentionsProcessed: 20,
			NewMentions:       15,
			Errors:            []string{"Failed to store mentions: busy"},
		}, nil
	})}

	rec := serve(api.SyncMentions, http.MethodPost, "/mentions/sync", `{"campaign_id":5,"limit":20,"force_refresh":true}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, mentionlytics.SyncRequest{CampaignID: 5, Limit: 20, ForceRefresh: true}, got)

	var report mentionlytics.SyncReport
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&report))
	assert.False(t, report.Success)
	assert.Equal(t, 15, report.NewMentions)
	assert.Len(t, report.Errors, 1)
}

func TestSyncMentionsRejectsInvalidRequest(t *testing.T) {
	called := false
	api := &API{MentionSync: mentionSyncFunc(func(ctx context.Context, req mentionlytics.SyncRequest) (*mentionlytics.SyncReport, error) {
		called = true
		return nil, nil
	})}

	for _, body := range []string{`{}`, `{"campaign_id":1,"limit":500}`} {
		rec := serve(api.SyncMentions, http.MethodPost, "/mentions/sync", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
	assert.False(t, called)
}

func TestToEnvelopeMapsDomainErrors(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	tests := []struct {
		err  error
		code string
	}{
		{&mentionlytics.ValidationError{Problems: []string{"bad"}}, apperrors.CodeValidationFailed},
		{ads.ErrInvalidRequest, apperrors.CodeValidationFailed},
		{mentionlytics.ErrUnknownOperation, apperrors.CodeNotFound},
		{core.ErrCrisisNotFound, apperrors.CodeNotFound},
		{core.ErrCampaignNotFound, apperrors.CodeNotFound},
		{core.ErrAlertNotFound, apperrors.CodeNotFound},
		{fmt.Errorf("create staff member: %w", core.ErrDuplicate), apperrors.CodeConflict},
		{core.ErrNoUpdates, apperrors.CodeInvalidInput},
		{mentionlytics.ErrInvalidSync, apperrors.CodeValidationFailed},
		{context.DeadlineExceeded, apperrors.CodeTimeout},
		{errors.New("boom"), apperrors.CodeInternal},
	}

	for _, tt := range tests {
		envelope := apperrors.EnsureEnvelope(toEnvelope(req, tt.err, "failed"))
		assert.Equal(t, tt.code, envelope.Code, tt.err.Error())
	}
}
