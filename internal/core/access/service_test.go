package access

import (
	"context"
	"errors"
	"testing"

	"github.com/ogurasousui/teamplan/internal/core/member"
	"github.com/ogurasousui/teamplan/internal/core/permission"
)

type stubMembers map[string]*member.Member

func (s stubMembers) GetMember(_ context.Context, id string) (*member.Member, error) {
	m, ok := s[id]
	if !ok {
		return nil, member.ErrMemberNotFound
	}
	return m, nil
}

type stubAgency map[string]permission.Overrides

func (s stubAgency) PermissionDefaults(_ context.Context, agencyID string) (permission.Overrides, error) {
	return s[agencyID], nil
}

func testMembers() stubMembers {
	members := stubMembers{}
	members["lead"] = &member.Member{
		ID: "lead", AgencyID: "agency-1", Role: member.RoleProjectLead,
		PermissionOverrides: permission.Overrides{permission.KeyCanSeeBudget: false},
	}
	members["plain"] = &member.Member{ID: "plain", AgencyID: "agency-1", Role: member.RoleMember}
	members["custom"] = &member.Member{
		ID: "custom", AgencyID: "agency-1", Role: member.RoleMember,
		PermissionOverrides: permission.Overrides{permission.KeyCanSeeUtilization: false},
	}
	return members
}

func TestService_Resolve(t *testing.T) {
	t.Parallel()

	agency := stubAgency{"agency-1": {permission.KeyCanSeeUtilization: true, permission.KeyCanSeeBudget: false}}
	svc := NewService(testMembers(), agency, nil)
	ctx := context.Background()

	project := &permission.ProjectPermissions{
		Defaults:        permission.Overrides{permission.KeyCanSeeBudget: false},
		MemberOverrides: map[string]permission.Overrides{"lead": {permission.KeyCanSeeBudget: false}},
	}
	d, err := svc.Resolve(ctx, "lead", permission.KeyCanSeeBudget, project)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if !d.Allowed || d.Level != permission.LevelRole {
		t.Fatalf("project lead must always be allowed, got %+v", d)
	}

	d, err = svc.Resolve(ctx, "plain", permission.KeyCanSeeUtilization, nil)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if !d.Allowed || d.Level != permission.LevelAgency {
		t.Fatalf("agency default must apply without member overrides, got %+v", d)
	}

	d, err = svc.Resolve(ctx, "custom", permission.KeyCanSeeUtilization, nil)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if d.Allowed || d.Level != permission.LevelMember {
		t.Fatalf("member override must win over agency default, got %+v", d)
	}

	if _, err := svc.Resolve(ctx, "ghost", permission.KeyCanSeeRates, nil); !errors.Is(err, member.ErrMemberNotFound) {
		t.Fatalf("expected ErrMemberNotFound, got %v", err)
	}
	if _, err := svc.Resolve(ctx, "plain", " ", nil); !errors.Is(err, permission.ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
}

func TestService_AuthorizeAndEffective(t *testing.T) {
	t.Parallel()

	svc := NewService(testMembers(), nil, nil)
	ctx := context.Background()

	if err := svc.Authorize(ctx, "plain", permission.KeyCanRequestAbsence, nil); err != nil {
		t.Fatalf("system default should allow requesting absences: %v", err)
	}
	if err := svc.Authorize(ctx, "plain", permission.KeyCanApproveAbsence, nil); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	decisions, err := svc.Effective(ctx, "plain", nil)
	if err != nil {
		t.Fatalf("Effective returned error: %v", err)
	}
	if len(decisions) != len(permission.KnownKeys()) {
		t.Fatalf("expected a decision per known key, got %d", len(decisions))
	}
	for _, d := range decisions {
		if d.Level != permission.LevelSystem || d.Allowed != permission.SystemDefault(d.Key) {
			t.Fatalf("unexpected decision %+v", d)
		}
	}
}
