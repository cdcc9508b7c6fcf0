package handlers

import (
	"net/http"
	"strings"

	"github.com/warroom/warroom/internal/core"
	apperrors "github.com/warroom/warroom/internal/errors"
)

// CreateCampaignRequest is the body of POST /campaigns.
type CreateCampaignRequest struct {
	Name        string   `json:"name" validate:"required,max=200"`
	Description string   `json:"description,omitempty" validate:"omitempty,max=2000"`
	StartDate   string   `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate     string   `json:"end_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Budget      *float64 `json:"budget,omitempty" validate:"omitempty,gte=0"`
}

// UpdateCampaignRequest is the body of PUT /campaigns/{id}. Omitted fields
// are left unchanged.
type UpdateCampaignRequest struct {
	Name        *string  `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string  `json:"description,omitempty" validate:"omitempty,max=2000"`
	StartDate   *string  `json:"start_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EndDate     *string  `json:"end_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Budget      *float64 `json:"budget,omitempty" validate:"omitempty,gte=0"`
	Status      *string  `json:"status,omitempty" validate:"omitempty,oneof=active paused completed archived"`
}

// CampaignsResponse lists campaigns.
type CampaignsResponse struct {
	Campaigns []core.Campaign `json:"campaigns"`
}

func (a *API) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	if a == nil || a.Campaigns == nil {
		unavailable(w, r, "campaign store")
		return
	}

	var req CreateCampaignRequest
	if err := decodeBody(r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}
	if req.EndDate != "" && req.EndDate < req.StartDate {
		respondWithError(w, r, apperrors.NewValidationError("end_date precedes start_date"))
		return
	}

	campaign, err := a.Campaigns.CreateCampaign(r.Context(), core.Campaign{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Budget:      req.Budget,
	})
	if err != nil {
		respondWithError(w, r, apperrors.WrapDatabaseError(r.Context(), err, "failed to create campaign"))
		return
	}
	writeJSON(w, http.StatusCreated, campaign)
}

func (a *API) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	if a == nil || a.Campaigns == nil {
		unavailable(w, r, "campaign store")
		return
	}

	campaigns, err := a.Campaigns.ListCampaigns(r.Context())
	if err != nil {
		respondWithError(w, r, apperrors.WrapDatabaseError(r.Context(), err, "failed to list campaigns"))
		return
	}
	writeJSON(w, http.StatusOK, CampaignsResponse{Campaigns: campaigns})
}

func (a *API) GetCampaign(w http.ResponseWriter, r *http.Request) {
	if a == nil || a.Campaigns == nil {
		unavailable(w, r, "campaign store")
		return
	}

	id, err := pathID(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	campaign, err := a.Campaigns.GetCampaign(r.Context(), id)
	if err != nil {
		respondWithError(w, r, toEnvelope(r, err, "failed to fetch campaign"))
		return
	}
	writeJSON(w, http.StatusOK, campaign)
}

func (a *API) UpdateCampaign(w http.ResponseWriter, r *http.Request) {
	if a == nil || a.Campaigns == nil {
		unavailable(w, r, "campaign store")
		return
	}

	id, err := pathID(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	var req UpdateCampaignRequest
	if err := decodeBody(r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}

	campaign, err := a.Campaigns.UpdateCampaign(r.Context(), id, core.CampaignUpdate{
		Name:        req.Name,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Budget:      req.Budget,
		Status:      req.Status,
	})
	if err != nil {
		respondWithError(w, r, toEnvelope(r, err, "failed to update campaign"))
		return
	}
	writeJSON(w, http.StatusOK, campaign)
}
