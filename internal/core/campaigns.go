package core

import (
	"errors"
	"time"
)

var (
	// ErrCampaignNotFound reports a missing campaign.
	ErrCampaignNotFound = errors.New("campaign not found")
	// ErrAlertNotFound reports an alert that is missing or already resolved.
	ErrAlertNotFound = errors.New("alert not found or already resolved")
	// ErrNoUpdates reports an update request without any fields.
	ErrNoUpdates = errors.New("no fields to update")
	// ErrDuplicate reports a uniqueness violation.
	ErrDuplicate = errors.New("record already exists")
)

// Campaign is a monitored political or marketing campaign.
type Campaign struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	StartDate   string    `json:"start_date"`
	EndDate     string    `json:"end_date,omitempty"`
	Budget      *float64  `json:"budget,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CampaignStatusActive is the status of newly created campaigns.
const CampaignStatusActive = "active"

// CampaignUpdate holds the fields to change; nil fields are left alone.
type CampaignUpdate struct {
	Name        *string
	Description *string
	StartDate   *string
	EndDate     *string
	Budget      *float64
	Status      *string
}

// Empty reports whether the update changes nothing.
func (u CampaignUpdate) Empty() bool {
	return u.Name == nil && u.Description == nil && u.StartDate == nil &&
		u.EndDate == nil && u.Budget == nil && u.Status == nil
}

// Alert statuses.
const (
	AlertActive   = "active"
	AlertResolved = "resolved"
)

// Alert is a manually raised campaign alert, distinct from detected crisis
// events.
type Alert struct {
	ID          int64      `json:"id"`
	CampaignID  int64      `json:"campaign_id"`
	AlertType   string     `json:"alert_type"`
	Severity    string     `json:"severity"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	SourceURL   string     `json:"source_url,omitempty"`
	TriggeredAt time.Time  `json:"triggered_at"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
	Status      string     `json:"status"`
}

// AlertFilter narrows ListAlerts.
type AlertFilter struct {
	CampaignID *int64
	Status     string
	Severity   string
	Limit      int
	Offset     int
}

// SeverityCount is the number of active alerts at one severity.
type SeverityCount struct {
	Severity string `json:"severity"`
	Count    int    `json:"count"`
}

// AlertsSummary is the alert overview for one or all campaigns.
type AlertsSummary struct {
	TotalAlerts       int             `json:"total_alerts"`
	ActiveAlerts      int             `json:"active_alerts"`
	CriticalAlerts    int             `json:"critical_alerts"`
	SeverityBreakdown []SeverityCount `json:"severity_breakdown"`
	RecentAlerts      []Alert         `json:"recent_alerts"`
}

// StaffMember is a campaign team member who receives alerts.
type StaffMember struct {
	ID               int64          `json:"id"`
	CampaignID       int64          `json:"campaign_id"`
	Name             string         `json:"name"`
	Email            string         `json:"email"`
	Phone            string         `json:"phone,omitempty"`
	Role             string         `json:"role"`
	AlertPreferences map[string]any `json:"alert_preferences,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// StaffFilter narrows ListStaff.
type StaffFilter struct {
	CampaignID *int64
	Role       string
}
