package handlers

import (
	"net/http"
	"strings"

	"github.com/warroom/warroom/internal/core"
	apperrors "github.com/warroom/warroom/internal/errors"
)

// CreateAlertRequest is the body of POST /alerts.
type CreateAlertRequest struct {
	CampaignID  int64  `json:"campaign_id" validate:"required,gt=0"`
	AlertType   string `json:"alert_type" validate:"required,max=50"`
	Severity    string `json:"severity" validate:"required,oneof=low medium high critical"`
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"required,max=5000"`
	SourceURL   string `json:"source_url,omitempty" validate:"omitempty,url"`
}

// AlertsResponse lists alerts.
type AlertsResponse struct {
	Alerts []core.Alert `json:"alerts"`
}

func (a *API) CreateAlert(w http.ResponseWriter, r *http.Request) {
	if a == nil || a.Alerts == nil {
		unavailable(w, r, "alert store")
		return
	}

	var req CreateAlertRequest
	if err := decodeBody(r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}

	alert, err := a.Alerts.CreateAlert(r.Context(), core.Alert{
		CampaignID:  req.CampaignID,
		AlertType:   strings.TrimSpace(req.AlertType),
		Severity:    req.Severity,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		SourceURL:   req.SourceURL,
	})
	if err != nil {
		respondWithError(w, r, apperrors.WrapDatabaseError(r.Context(), err, "failed to create alert"))
		return
	}
	writeJSON(w, http.StatusCreated, alert)
}

// ListAlerts filters by campaign_id, status, and severity, newest first.
func (a *API) ListAlerts(w http.ResponseWriter, r *http.Request) {
	if a == nil || a.Alerts == nil {
		unavailable(w, r, "alert store")
		return
	}

	query := r.URL.Query()
	filter := core.AlertFilter{
		Status:   strings.ToLower(strings.TrimSpace(query.Get("status"))),
		Severity: strings.ToLower(strings.TrimSpace(query.Get("severity"))),
	}
	switch filter.Status {
	case "", core.AlertActive, core.AlertResolved:
	default:
		respondWithError(w, r, apperrors.NewValidationError("status must be active or resolved"))
		return
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

	alerts, err := a.Alerts.ListAlerts(r.Context(), filter)
	if err != nil {
		respondWithError(w, r, apperrors.WrapDatabaseError(r.Context(), err, "failed to list alerts"))
		return
	}
	writeJSON(w, http.StatusOK, AlertsResponse{Alerts: alerts})
}

// ResolveAlert closes an active alert; resolved or missing alerts are 404.
func (a *API) ResolveAlert(w http.ResponseWriter, r *http.Request) {
	if a == nil || a.Alerts == nil {
		unavailable(w, r, "alert store")
		return
	}

	id, err := pathID(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	alert, err := a.Alerts.ResolveAlert(r.Context(), id)
	if err != nil {
		respondWithError(w, r, toEnvelope(r, err, "failed to resolve alert"))
		return
	}
	writeJSON(w, http.StatusOK, alert)
}

func (a *API) AlertsSummary(w http.ResponseWriter, r *http.Request) {
	if a == nil || a.Alerts == nil {
		unavailable(w, r, "alert store")
		return
	}

	campaignID, err := queryID(r, "campaign_id")
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	summary, err := a.Alerts.AlertsSummary(r.Context(), campaignID)
	if err != nil {
		respondWithError(w, r, apperrors.WrapDatabaseError(r.Context(), err, "failed to summarize alerts"))
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
