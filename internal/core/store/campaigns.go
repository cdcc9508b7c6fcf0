package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/warroom/warroom/internal/core"
)

const campaignColumns = `id, name, description, start_date, end_date, budget, status, created_at, updated_at`

// CreateCampaign inserts an active campaign.
func (s *Store) CreateCampaign(ctx context.Context, campaign core.Campaign) (*core.Campaign, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(campaign.Name) == "" {
		return nil, errors.New("campaign name is required")
	}
	if strings.TrimSpace(campaign.StartDate) == "" {
		return nil, errors.New("campaign start date is required")
	}

	now := time.Now().UTC().Unix()
	status := strings.TrimSpace(campaign.Status)
	if status == "" {
		status = core.CampaignStatusActive
	}

	result, err := s.DB.ExecContext(ctx, `
		INSERT INTO campaigns (name, description, start_date, end_date, budget, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, strings.TrimSpace(campaign.Name), nullString(campaign.Description), campaign.StartDate,
		nullString(campaign.EndDate), nullFloat(campaign.Budget), status, now, now)
	if err != nil {
		return nil, fmt.Errorf("create campaign: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create campaign: %w", err)
	}
	return s.GetCampaign(ctx, id)
}

// GetCampaign returns one campaign or core.ErrCampaignNotFound.
func (s *Store) GetCampaign(ctx context.Context, id int64) (*core.Campaign, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	row := s.DB.QueryRowContext(ctx, `SELECT `+campaignColumns+` FROM campaigns WHERE id = ?`, id)
	campaign, err := scanCampaign(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrCampaignNotFound
		}
		return nil, fmt.Errorf("fetch campaign: %w", err)
	}
	return campaign, nil
}

// ListCampaigns returns every campaign, newest first.
func (s *Store) ListCampaigns(ctx context.Context) ([]core.Campaign, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT `+campaignColumns+` FROM campaigns ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup

	campaigns := []core.Campaign{}
	for rows.Next() {
		campaign, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("scan campaigns: %w", err)
		}
		campaigns = append(campaigns, *campaign)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	return campaigns, nil
}

// UpdateCampaign applies the non-nil fields of update.
func (s *Store) UpdateCampaign(ctx context.Context, id int64, update core.CampaignUpdate) (*core.Campaign, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if update.Empty() {
		return nil, core.ErrNoUpdates
	}

	sets := []string{}
	args := []any{}
	add := func(column string, value any) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}
	if update.Name != nil {
		add("name", strings.TrimSpace(*update.Name))
	}
	if update.Description != nil {
		add("description", nullString(*update.Description))
	}
	if update.StartDate != nil {
		add("start_date", *update.StartDate)
	}
	if update.EndDate != nil {
		add("end_date", nullString(*update.EndDate))
	}
	if update.Budget != nil {
		add("budget", *update.Budget)
	}
	if update.Status != nil {
		add("status", strings.TrimSpace(*update.Status))
	}
	add("updated_at", time.Now().UTC().Unix())
	args = append(args, id)

	result, err := s.DB.ExecContext(ctx, `UPDATE campaigns SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("update campaign: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update campaign: %w", err)
	}
	if affected == 0 {
		return nil, core.ErrCampaignNotFound
	}
	return s.GetCampaign(ctx, id)
}

func scanCampaign(row rowScanner) (*core.Campaign, error) {
	var (
		campaign    core.Campaign
		description sql.NullString
		endDate     sql.NullString
		budget      sql.NullFloat64
		createdAt   int64
		updatedAt   int64
	)
	if err := row.Scan(&campaign.ID, &campaign.Name, &description, &campaign.StartDate, &endDate,
		&budget, &campaign.Status, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	campaign.Description = description.String
	campaign.EndDate = endDate.String
	if budget.Valid {
		value := budget.Float64
		campaign.Budget = &value
	}
	campaign.CreatedAt = time.Unix(createdAt, 0).UTC()
	campaign.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return &campaign, nil
}

func nullFloat(value *float64) sql.NullFloat64 {
	if value == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *value, Valid: true}
}
