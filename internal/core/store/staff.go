package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/warroom/warroom/internal/core"
)

// CreateStaffMember adds a team member to a campaign. Emails are unique per
// campaign; a repeat returns core.ErrDuplicate.
func (s *Store) CreateStaffMember(ctx context.Context, member core.StaffMember) (*core.StaffMember, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	member.Email = strings.ToLower(strings.TrimSpace(member.Email))
	if strings.TrimSpace(member.Name) == "" || member.Email == "" {
		return nil, errors.New("staff name and email are required")
	}

	var prefs sql.NullString
	if len(member.AlertPreferences) > 0 {
		encoded, err := json.Marshal(member.AlertPreferences)
		if err != nil {
			return nil, fmt.Errorf("encode alert preferences: %w", err)
		}
		prefs = sql.NullString{String: string(encoded), Valid: true}
	}

	now := time.Now().UTC().Truncate(time.Second)
	result, err := s.DB.ExecContext(ctx, `
		INSERT INTO staff_members (campaign_id, name, email, phone, role, alert_preferences, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, member.CampaignID, strings.TrimSpace(member.Name), member.Email, nullString(member.Phone),
		member.Role, prefs, now.Unix(), now.Unix())
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("create staff member %s: %w", member.Email, core.ErrDuplicate)
		}
		return nil, fmt.Errorf("create staff member: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create staff member: %w", err)
	}

	member.ID = id
	member.Name = strings.TrimSpace(member.Name)
	member.CreatedAt = now
	member.UpdatedAt = now
	return &member, nil
}

// ListStaff returns staff members in the order they joined.
func (s *Store) ListStaff(ctx context.Context, filter core.StaffFilter) ([]core.StaffMember, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	where, args := campaignWhere(filter.CampaignID)
	if role := strings.TrimSpace(filter.Role); role != "" {
		where, args = and(where, "role = ?"), append(args, role)
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, campaign_id, name, email, phone, role, alert_preferences, created_at, updated_at
		FROM staff_members
		`+where+`
		ORDER BY created_at ASC, id ASC
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("list staff: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup

	staff := []core.StaffMember{}
	for rows.Next() {
		var (
			member    core.StaffMember
			phone     sql.NullString
			prefs     sql.NullString
			createdAt int64
			updatedAt int64
		)
		if err := rows.Scan(&member.ID, &member.CampaignID, &member.Name, &member.Email, &phone,
			&member.Role, &prefs, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan staff: %w", err)
		}
		member.Phone = phone.String
		if prefs.Valid && prefs.String != "" {
			if err := json.Unmarshal([]byte(prefs.String), &member.AlertPreferences); err != nil {
				return nil, fmt.Errorf("decode alert preferences: %w", err)
			}
		}
		member.CreatedAt = time.Unix(createdAt, 0).UTC()
		member.UpdatedAt = time.Unix(updatedAt, 0).UTC()
		staff = append(staff, member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list staff: %w", err)
	}
	return staff, nil
}
