package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/warroom/warroom/internal/core"
	apperrors "github.com/warroom/warroom/internal/errors"
)

// AcknowledgeRequest is the body of POST /monitoring/crisis/acknowledge/{id}.
type AcknowledgeRequest struct {
	AcknowledgedBy string `json:"acknowledged_by,omitempty" validate:"omitempty,max=200"`
	Notes          string `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// ResolveRequest is the body of PUT /monitoring/crisis/resolve/{id}.
type ResolveRequest struct {
	ResolvedBy         string `json:"resolved_by,omitempty" validate:"omitempty,max=200"`
	Resolution         string `json:"resolution,omitempty" validate:"omitempty,max=2000"`
	PreventiveMeasures string `json:"preventive_measures,omitempty" validate:"omitempty,max=2000"`
}

// CrisisListResponse wraps a list of crisis events.
type CrisisListResponse struct {
	Events []core.CrisisEvent `json:"events"`
}

// ScanCrises runs crisis detection. persist=false skips storing events.
func (a *API) ScanCrises(w http.ResponseWriter, r *http.Request) {
	if a == nil || a.Scanner == nil {
		unavailable(w, r, "crisis detection")
		return
	}

	persist := true
	if raw := r.URL.Query().Get("persist"); raw != "" {
		value, err := strconv.ParseBool(raw)
		if err != nil {
			respondWithError(w, r, apperrors.NewValidationError("persist must be a boolean"))
			return
		}
		persist = value
	}

	result, err := a.Scanner.Scan(r.Context(), persist)
	if err != nil {
		respondWithError(w, r, toEnvelope(r, err, "crisis scan failed"))
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ListCrises returns crisis events. The status query takes a comma-separated
// list; "open" is shorthand for active and acknowledged.
func (a *API) ListCrises(w http.ResponseWriter, r *http.Request) {
	if a == nil || a.Crises == nil {
		unavailable(w, r, "crisis store")
		return
	}

	statuses, err := parseStatuses(r.URL.Query().Get("status"))
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	events, err := a.Crises.ListCrisisEvents(r.Context(), statuses...)
	if err != nil {
		respondWithError(w, r, apperrors.WrapDatabaseError(r.Context(), err, "failed to list crisis events"))
		return
	}
	writeJSON(w, http.StatusOK, CrisisListResponse{Events: events})
}

// ActiveCrises lists events that are not yet resolved.
func (a *API) ActiveCrises(w http.ResponseWriter, r *http.Request) {
	if a == nil || a.Crises == nil {
		unavailable(w, r, "crisis store")
		return
	}

	events, err := a.Crises.ListCrisisEvents(r.Context(), core.CrisisActive, core.CrisisAcknowledged)
	if err != nil {
		respondWithError(w, r, apperrors.WrapDatabaseError(r.Context(), err, "failed to list crisis events"))
		return
	}
	writeJSON(w, http.StatusOK, CrisisListResponse{Events: events})
}

// CrisisDashboard returns aggregate crisis statistics.
func (a *API) CrisisDashboard(w http.ResponseWriter, r *http.Request) {
	if a == nil || a.Crises == nil {
		unavailable(w, r, "crisis store")
		return
	}

	summary, err := a.Crises.CrisisSummary(r.Context())
	if err != nil {
		respondWithError(w, r, apperrors.WrapDatabaseError(r.Context(), err, "failed to summarize crisis events"))
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (a *API) AcknowledgeCrisis(w http.ResponseWriter, r *http.Request) {
	if a == nil || a.Crises == nil {
		unavailable(w, r, "crisis store")
		return
	}

	var req AcknowledgeRequest
	if err := decodeBody(r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}

	event, err := a.Crises.AcknowledgeCrisisEvent(r.Context(), chi.URLParam(r, "id"), req.AcknowledgedBy, req.Notes)
	if err != nil {
		respondWithError(w, r, toEnvelope(r, err, "failed to acknowledge crisis event"))
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (a *API) ResolveCrisis(w http.ResponseWriter, r *http.Request) {
	if a == nil || a.Crises == nil {
		unavailable(w, r, "crisis store")
		return
	}

	var req ResolveRequest
	if err := decodeBody(r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}

	event, err := a.Crises.ResolveCrisisEvent(r.Context(), chi.URLParam(r, "id"), core.Resolution{
		ResolvedBy:         req.ResolvedBy,
		Resolution:         req.Resolution,
		PreventiveMeasures: req.PreventiveMeasures,
	})
	if err != nil {
		respondWithError(w, r, toEnvelope(r, err, "failed to resolve crisis event"))
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// CrisisHistory pages through past crisis events. It accepts a single status,
// a severity from 1 to 10, limit (default 50), and offset.
func (a *API) CrisisHistory(w http.ResponseWriter, r *http.Request) {
	if a == nil || a.Crises == nil {
		unavailable(w, r, "crisis store")
		return
	}

	filter := core.CrisisHistoryFilter{}
	if raw := r.URL.Query().Get("status"); raw != "" {
		statuses, err := parseStatuses(raw)
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		if len(statuses) != 1 {
			respondWithError(w, r, apperrors.NewValidationError("status takes a single value"))
			return
		}
		filter.Status = statuses[0]
	}

	var err error
	if filter.Severity, err = queryInt(r, "severity"); err != nil {
		respondWithError(w, r, err)
		return
	}
	if filter.Severity > 10 {
		respondWithError(w, r, apperrors.NewValidationError("severity must be between 1 and 10"))
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

	history, err := a.Crises.CrisisHistory(r.Context(), filter)
	if err != nil {
		respondWithError(w, r, apperrors.WrapDatabaseError(r.Context(), err, "failed to load crisis history"))
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func parseStatuses(raw string) ([]core.CrisisStatus, error) {
	statuses, err := core.ParseCrisisStatuses(raw)
	if err != nil {
		return nil, apperrors.NewValidationError(core.ErrInvalidStatus.Error())
	}
	return statuses, nil
}
