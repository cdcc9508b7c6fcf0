package handlers

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warroom/warroom/internal/core"
	apperrors "github.com/warroom/warroom/internal/errors"
)

type stubStaff struct {
	members []core.StaffMember
	filter  core.StaffFilter
}

func (s *stubStaff) CreateStaffMember(ctx context.Context, member core.StaffMember) (*core.StaffMember, error) {
	for _, existing := range s.members {
		if existing.CampaignID == member.CampaignID && existing.Email == member.Email {
			return nil, fmt.Errorf("create staff member %s: %w", member.Email, core.ErrDuplicate)
		}
	}
	member.ID = int64(len(s.members) + 1)
	s.members = append(s.members, member)
	return &member, nil
}

func (s *stubStaff) ListStaff(ctx context.Context, filter core.StaffFilter) ([]core.StaffMember, error) {
	s.filter = filter
	return s.members, nil
}

func TestStaffEndpoints(t *testing.T) {
	store := &stubStaff{}
	api := &API{Staff: store}

	body := `{"campaign_id":1,"name":"Dana","email":"dana@example.com","role":"comms","alert_preferences":{"sms":true}}`
	rec := serve(api.CreateStaff, http.MethodPost, "/staff", body)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, store.members, 1)
	assert.Equal(t, true, store.members[0].AlertPreferences["sms"])

	rec = serve(api.CreateStaff, http.MethodPost, "/staff", body)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, apperrors.CodeConflict, errorCode(t, rec))

	rec = serve(api.CreateStaff, http.MethodPost, "/staff", `{"campaign_id":1,"name":"Lee","email":"not-an-email","role":"field"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(api.ListStaff, http.MethodGet, "/staff?campaign_id=1&role=comms", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, store.filter.CampaignID)
	assert.Equal(t, int64(1), *store.filter.CampaignID)
	assert.Equal(t, "comms", store.filter.Role)
}
