package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/warroom/warroom/internal/core"
	apperrors "github.com/warroom/warroom/internal/errors"
	"github.com/warroom/warroom/internal/providers/ads"
)

// CreateMetricRequest is the body of POST /performance/metrics. Date
// defaults to today (UTC).
type CreateMetricRequest struct {
	CampaignID  int64   `json:"campaign_id" validate:"required,gt=0"`
	Platform    string  `json:"platform" validate:"required,max=50"`
	MetricType  string  `json:"metric_type" validate:"required,max=50"`
	MetricValue float64 `json:"metric_value"`
	Date        string  `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// MetricsResponse lists performance metrics.
type MetricsResponse struct {
	Metrics []core.PerformanceMetric `json:"metrics"`
}

// SyncPerformance imports ad platform metrics for a campaign. Platform
// failures are reported in the body; only invalid requests are errors.
func (a *API) SyncPerformance(w http.ResponseWriter, r *http.Request) {
	if a == nil || a.Syncer == nil {
		unavailable(w, r, "performance sync")
		return
	}

	var req ads.SyncRequest
	if err := decodeBody(r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}

	report, err := a.Syncer.Sync(r.Context(), req)
	if err != nil {
		respondWithError(w, r, toEnvelope(r, err, "performance sync failed"))
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// CreateMetric records one metric, replacing any value already stored for
// the same campaign, platform, type, and date.
func (a *API) CreateMetric(w http.ResponseWriter, r *http.Request) {
	if a == nil || a.Metrics == nil {
		unavailable(w, r, "metric store")
		return
	}

	var req CreateMetricRequest
	if err := decodeBody(r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}
	if req.Date == "" {
		req.Date = time.Now().UTC().Format(time.DateOnly)
	}

	metric, err := a.Metrics.CreatePerformanceMetric(r.Context(), core.PerformanceMetric{
		CampaignID:  req.CampaignID,
		Platform:    strings.ToLower(strings.TrimSpace(req.Platform)),
		MetricType:  strings.TrimSpace(req.MetricType),
		MetricValue: req.MetricValue,
		Date:        req.Date,
	})
	if err != nil {
		respondWithError(w, r, apperrors.WrapDatabaseError(r.Context(), err, "failed to record metric"))
		return
	}
	writeJSON(w, http.StatusCreated, metric)
}

// ListMetrics filters by campaign_id, platform, metric_type, and an inclusive
// start_date/end_date range.
func (a *API) ListMetrics(w http.ResponseWriter, r *http.Request) {
	if a == nil || a.Metrics == nil {
		unavailable(w, r, "metric store")
		return
	}

	query := r.URL.Query()
	filter := core.MetricFilter{
		Platform:   strings.ToLower(strings.TrimSpace(query.Get("platform"))),
		MetricType: strings.TrimSpace(query.Get("metric_type")),
		StartDate:  query.Get("start_date"),
		EndDate:    query.Get("end_date"),
	}
	for key, value := range map[string]string{"start_date": filter.StartDate, "end_date": filter.EndDate} {
		if value == "" {
			continue
		}
		if _, err := time.Parse(time.DateOnly, value); err != nil {
			respondWithError(w, r, apperrors.NewValidationError(key+" must be YYYY-MM-DD"))
			return
		}
	}

	var err error
	if filter.CampaignID, err = queryID(r, "campaign_id"); err != nil {
		respondWithError(w, r, err)
		return
	}
	if filter.Limit, err = queryInt(r, "limit"); err != nil {
		respondWithError(w, r, err)
		return
	}
	if filter.Offset, err = queryInt(r, "offset"); err != nil {
		respondWithError(w, r, err)
		return
	}

	metrics, err := a.Metrics.ListPerformanceMetrics(r.Context(), filter)
	if err != nil {
		respondWithError(w, r, apperrors.WrapDatabaseError(r.Context(), err, "failed to list metrics"))
		return
	}
	writeJSON(w, http.StatusOK, MetricsResponse{Metrics: metrics})
}
