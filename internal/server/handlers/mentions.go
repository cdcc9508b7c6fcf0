package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/warroom/warroom/internal/core"
	apperrors "github.com/warroom/warroom/internal/errors"
	"github.com/warroom/warroom/internal/providers/mentionlytics"
)

// CreateMentionRequest is the body of POST /mentions.
type CreateMentionRequest struct {
	CampaignID  int64      `json:"campaign_id" validate:"required,gt=0"`
	Platform    string     `json:"platform" validate:"required,max=50"`
	Content     string     `json:"content" validate:"required"`
	Author      string     `json:"author,omitempty" validate:"omitempty,max=200"`
	URL         string     `json:"url,omitempty" validate:"omitempty,url"`
	Sentiment   *float64   `json:"sentiment,omitempty" validate:"omitempty,gte=-1,lte=1"`
	Reach       int64      `json:"reach,omitempty" validate:"gte=0"`
	Engagement  int64      `json:"engagement,omitempty" validate:"gte=0"`
	MentionedAt *time.Time `json:"mentioned_at,omitempty"`
}

// MentionsResponse lists stored mentions.
type MentionsResponse struct {
	Mentions []core.Mention `json:"mentions"`
	Count    int            `json:"count"`
}

// CreateMention stores a mention.
func (a *API) CreateMention(w http.ResponseWriter, r *http.Request) {
	if a == nil || a.Mentions == nil {
		unavailable(w, r, "mention store")
		return
	}

	var req CreateMentionRequest
	if err := decodeBody(r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}

	mention := core.Mention{
		CampaignID: req.CampaignID,
		Platform:   strings.ToLower(strings.TrimSpace(req.Platform)),
		Content:    req.Content,
		Author:     req.Author,
		URL:        req.URL,
		Sentiment:  req.Sentiment,
		Reach:      req.Reach,
		Engagement: req.Engagement,
	}
	if req.MentionedAt != nil {
		mention.MentionedAt = req.MentionedAt.UTC()
	}

	created, err := a.Mentions.CreateMention(r.Context(), mention)
	if err != nil {
		respondWithError(w, r, toEnvelope(r, err, "failed to store mention"))
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// ListMentions returns mentions filtered by campaign_id and platform.
func (a *API) ListMentions(w http.ResponseWriter, r *http.Request) {
	if a == nil || a.Mentions == nil {
		unavailable(w, r, "mention store")
		return
	}

	filter := core.MentionFilter{Platform: strings.ToLower(strings.TrimSpace(r.URL.Query().Get("platform")))}

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

	mentions, err := a.Mentions.ListMentions(r.Context(), filter)
	if err != nil {
		respondWithError(w, r, apperrors.WrapDatabaseError(r.Context(), err, "failed to list mentions"))
		return
	}
	writeJSON(w, http.StatusOK, MentionsResponse{Mentions: mentions, Count: len(mentions)})
}

// SyncMentions pulls recent mentions from social listening into the store.
// Fetch and store failures are reported in the body.
func (a *API) SyncMentions(w http.ResponseWriter, r *http.Request) {
	if a == nil || a.MentionSync == nil {
		unavailable(w, r, "mention sync")
		return
	}

	var req mentionlytics.SyncRequest
	if err := decodeBody(r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}

	report, err := a.MentionSync.SyncMentions(r.Context(), req)
	if err != nil {
		respondWithError(w, r, toEnvelope(r, err, "mention sync failed"))
		return
	}
	writeJSON(w, http.StatusOK, report)
}
