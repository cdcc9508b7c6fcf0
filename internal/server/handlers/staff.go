package handlers

import (
	"net/http"
	"strings"

	"github.com/warroom/warroom/internal/core"
	apperrors "github.com/warroom/warroom/internal/errors"
)

// CreateStaffRequest is the body of POST /staff.
type CreateStaffRequest struct {
	CampaignID       int64          `json:"campaign_id" validate:"required,gt=0"`
	Name             string         `json:"name" validate:"required,max=200"`
	Email            string         `json:"email" validate:"required,email"`
	Phone            string         `json:"phone,omitempty" validate:"omitempty,max=50"`
	Role             string         `json:"role" validate:"required,max=100"`
	AlertPreferences map[string]any `json:"alert_preferences,omitempty"`
}

// StaffResponse lists staff members.
type StaffResponse struct {
	Staff []core.StaffMember `json:"staff"`
}

func (a *API) CreateStaff(w http.ResponseWriter, r *http.Request) {
	if a == nil || a.Staff == nil {
		unavailable(w, r, "staff store")
		return
	}

	var req CreateStaffRequest
	if err := decodeBody(r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}

	member, err := a.Staff.CreateStaffMember(r.Context(), core.StaffMember{
		CampaignID:       req.CampaignID,
		Name:             strings.TrimSpace(req.Name),
		Email:            req.Email,
		Phone:            req.Phone,
		Role:             strings.TrimSpace(req.Role),
		AlertPreferences: req.AlertPreferences,
	})
	if err != nil {
		respondWithError(w, r, toEnvelope(r, err, "failed to add staff member"))
		return
	}
	writeJSON(w, http.StatusCreated, member)
}

// ListStaff filters by campaign_id and role.
func (a *API) ListStaff(w http.ResponseWriter, r *http.Request) {
	if a == nil || a.Staff == nil {
		unavailable(w, r, "staff store")
		return
	}

	campaignID, err := queryID(r, "campaign_id")
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	staff, err := a.Staff.ListStaff(r.Context(), core.StaffFilter{
		CampaignID: campaignID,
		Role:       strings.TrimSpace(r.URL.Query().Get("role")),
	})
	if err != nil {
		respondWithError(w, r, apperrors.WrapDatabaseError(r.Context(), err, "failed to list staff"))
		return
	}
	writeJSON(w, http.StatusOK, StaffResponse{Staff: staff})
}
