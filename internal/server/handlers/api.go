package handlers

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/warroom/warroom/internal/core"
	"github.com/warroom/warroom/internal/core/crisis"
	apperrors "github.com/warroom/warroom/internal/errors"
	"github.com/warroom/warroom/internal/observability"
	"github.com/warroom/warroom/internal/providers/ads"
	"github.com/warroom/warroom/internal/providers/mentionlytics"
)

// MentionStore persists and lists mentions.
type MentionStore interface {
	CreateMention(ctx context.Context, mention core.Mention) (*core.Mention, error)
	ListMentions(ctx context.Context, filter core.MentionFilter) ([]core.Mention, error)
}

// CrisisStore manages crisis event lifecycle.
type CrisisStore interface {
	ListCrisisEvents(ctx context.Context, statuses ...core.CrisisStatus) ([]core.CrisisEvent, error)
	AcknowledgeCrisisEvent(ctx context.Context, id, acknowledgedBy, notes string) (*core.CrisisEvent, error)
	ResolveCrisisEvent(ctx context.Context, id string, res core.Resolution) (*core.CrisisEvent, error)
	CrisisSummary(ctx context.Context) (*core.CrisisSummary, error)
	CrisisHistory(ctx context.Context, filter core.CrisisHistoryFilter) (*core.CrisisHistory, error)
}

// CampaignStore manages campaigns.
type CampaignStore interface {
	CreateCampaign(ctx context.Context, campaign core.Campaign) (*core.Campaign, error)
	ListCampaigns(ctx context.Context) ([]core.Campaign, error)
	GetCampaign(ctx context.Context, id int64) (*core.Campaign, error)
	UpdateCampaign(ctx context.Context, id int64, update core.CampaignUpdate) (*core.Campaign, error)
}

// AlertStore manages manually raised alerts.
type AlertStore interface {
	CreateAlert(ctx context.Context, alert core.Alert) (*core.Alert, error)
	ListAlerts(ctx context.Context, filter core.AlertFilter) ([]core.Alert, error)
	ResolveAlert(ctx context.Context, id int64) (*core.Alert, error)
	AlertsSummary(ctx context.Context, campaignID *int64) (*core.AlertsSummary, error)
}

// StaffStore manages campaign staff.
type StaffStore interface {
	CreateStaffMember(ctx context.Context, member core.StaffMember) (*core.StaffMember, error)
	ListStaff(ctx context.Context, filter core.StaffFilter) ([]core.StaffMember, error)
}

// MetricStore records and lists performance metrics.
type MetricStore interface {
	CreatePerformanceMetric(ctx context.Context, metric core.PerformanceMetric) (*core.PerformanceMetric, error)
	ListPerformanceMetrics(ctx context.Context, filter core.MetricFilter) ([]core.PerformanceMetric, error)
}

// MentionSyncer pulls mentions from social listening into the store.
type MentionSyncer interface {
	SyncMentions(ctx context.Context, req mentionlytics.SyncRequest) (*mentionlytics.SyncReport, error)
}

// CrisisScanner runs crisis detection.
type CrisisScanner interface {
	Scan(ctx context.Context, persist bool) (*crisis.ScanResult, error)
}

// PerformanceSyncer imports ad platform metrics.
type PerformanceSyncer interface {
	Sync(ctx context.Context, req ads.SyncRequest) (*ads.SyncReport, error)
}

// API serves the campaign monitoring endpoints. Nil dependencies answer
// 503 so a partially configured server still starts.
type API struct {
	Social      *mentionlytics.Service
	Mentions    MentionStore
	MentionSync MentionSyncer
	Crises      CrisisStore
	Scanner     CrisisScanner
	Syncer      PerformanceSyncer
	Campaigns   CampaignStore
	Alerts      AlertStore
	Staff       StaffStore
	Metrics     MetricStore
	Logger      observability.Logger
}

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

var (
	bodyValidate     *validator.Validate
	bodyValidateOnce sync.Once
)

func bodyValidator() *validator.Validate {
	bodyValidateOnce.Do(func() {
		bodyValidate = validator.New(validator.WithRequiredStructEnabled())
		bodyValidate.RegisterTagNameFunc(func(field reflect.StructField) string {
			return strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		})
	})
	return bodyValidate
}

// decodeBody reads a JSON request body into v and validates its tags.
// An empty body leaves v untouched.
func decodeBody(r *http.Request, v any) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil && !stderrors.Is(err, io.EOF) {
		return apperrors.WrapInvalidInput(r.Context(), err, "request body is not valid JSON")
	}

	if err := bodyValidator().Struct(v); err != nil {
		var fieldErrs validator.ValidationErrors
		if stderrors.As(err, &fieldErrs) {
			problems := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				problems = append(problems, fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag()))
			}
			return apperrors.NewValidationError(strings.Join(problems, "; "))
		}
		return apperrors.WrapValidationError(r.Context(), err, "request validation failed")
	}
	return nil
}

// toEnvelope maps domain errors onto API error codes.
func toEnvelope(r *http.Request, err error, message string) error {
	ctx := r.Context()
	switch {
	case stderrors.Is(err, mentionlytics.ErrInvalidParams):
		return apperrors.NewValidationError(err.Error())
	case stderrors.Is(err, ads.ErrInvalidRequest):
		return apperrors.NewValidationError(err.Error())
	case stderrors.Is(err, mentionlytics.ErrUnknownOperation):
		return apperrors.WrapNotFound(ctx, err, "unknown social listening operation")
	case stderrors.Is(err, core.ErrCrisisNotFound):
		return apperrors.WrapNotFound(ctx, err, "crisis event not found or already past that state")
	case stderrors.Is(err, core.ErrCampaignNotFound):
		return apperrors.WrapNotFound(ctx, err, "campaign not found")
	case stderrors.Is(err, core.ErrAlertNotFound):
		return apperrors.WrapNotFound(ctx, err, core.ErrAlertNotFound.Error())
	case stderrors.Is(err, core.ErrDuplicate):
		return apperrors.NewConflictError(message + ": record already exists")
	case stderrors.Is(err, core.ErrNoUpdates):
		return apperrors.NewInvalidInputError(core.ErrNoUpdates.Error())
	case stderrors.Is(err, mentionlytics.ErrInvalidSync):
		return apperrors.NewValidationError(err.Error())
	case stderrors.Is(err, context.DeadlineExceeded):
		return apperrors.WrapTimeout(ctx, err, message)
	default:
		return apperrors.WrapInternal(ctx, err, message)
	}
}

// queryInt parses an optional non-negative integer query parameter.
func queryInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperrors.NewValidationError(key + " must be a non-negative integer")
	}
	return n, nil
}

// queryID parses an optional positive int64 query parameter such as campaign_id.
func queryID(r *http.Request, key string) (*int64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, apperrors.NewValidationError(key + " must be a positive integer")
	}
	return &id, nil
}

// pathID parses the {id} path parameter as a positive int64.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("id must be a positive integer")
	}
	return id, nil
}

func unavailable(w http.ResponseWriter, r *http.Request, component string) {
	respondWithError(w, r, apperrors.NewUnavailableError(component+" is not configured"))
}
