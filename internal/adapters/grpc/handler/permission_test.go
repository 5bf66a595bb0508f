package handler

import (
	"context"
	"fmt"
	"testing"

	v1 "github.com/ogurasousui/teamplan/internal/adapters/grpc/teamplanv1"
	"github.com/ogurasousui/teamplan/internal/core/access"
	"github.com/ogurasousui/teamplan/internal/core/agency"
	"github.com/ogurasousui/teamplan/internal/core/calendar"
	"github.com/ogurasousui/teamplan/internal/core/permission"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type stubAccessUseCase struct {
	access.UseCase

	key     permission.Key
	project *permission.ProjectPermissions
	err     error
}

func (s *stubAccessUseCase) Resolve(_ context.Context, _ string, key permission.Key, project *permission.ProjectPermissions) (*permission.Decision, error) {
	s.key = key
	s.project = project
	if s.err != nil {
		return nil, s.err
	}
	return &permission.Decision{Key: key, Allowed: true, Level: permission.LevelProjectMember}, nil
}

func (s *stubAccessUseCase) Effective(context.Context, string, *permission.ProjectPermissions) ([]permission.Decision, error) {
	return []permission.Decision{
		{Key: permission.KeyCanSeeBudget, Allowed: false, Level: permission.LevelSystem},
		{Key: permission.KeyCanSeeRates, Allowed: true, Level: permission.LevelAgency},
	}, s.err
}

type stubAgencyUseCase struct {
	agency.UseCase

	updateInput agency.UpdateSettingsInput
	setCalled   bool
	clearCalled bool
	err         error
}

func (s *stubAgencyUseCase) settings() *agency.Settings {
	return &agency.Settings{
		AgencyID:     "agency-1",
		WorkingDays:  calendar.DefaultWorkingDays,
		WorkingHours: calendar.DefaultWorkingHours,
		Version:      2,
	}
}

func (s *stubAgencyUseCase) UpdateSettings(_ context.Context, in agency.UpdateSettingsInput) (*agency.Settings, error) {
	s.updateInput = in
	if s.err != nil {
		return nil, s.err
	}
	return s.settings(), nil
}

func (s *stubAgencyUseCase) SetPermissionDefault(context.Context, string, permission.Key, bool) (*agency.Settings, error) {
	s.setCalled = true
	return s.settings(), s.err
}

func (s *stubAgencyUseCase) ClearPermissionDefault(context.Context, string, permission.Key) (*agency.Settings, error) {
	s.clearCalled = true
	return s.settings(), s.err
}

func TestPermissionGrpcHandler_ResolvePermission(t *testing.T) {
	t.Parallel()

	stub := &stubAccessUseCase{}
	handler := NewPermissionGrpcHandler(stub, &stubAgencyUseCase{})

	resp, err := handler.ResolvePermission(context.Background(), &v1.ResolvePermissionRequest{
		MemberID: "member-1",
		Key:      "canSeeBudget",
		Project: &v1.ProjectPermissions{
			Defaults:        map[string]bool{"canSeeBudget": false},
			MemberOverrides: map[string]map[string]bool{"member-1": {"canSeeBudget": true}},
		},
	})
	if err != nil {
		t.Fatalf("ResolvePermission returned error: %v", err)
	}

	if stub.key != permission.KeyCanSeeBudget {
		t.Errorf("expected canSeeBudget, got %s", stub.key)
	}
	if stub.project == nil || !stub.project.MemberOverrides["member-1"][permission.KeyCanSeeBudget] {
		t.Fatalf("expected project overrides to be converted, got %+v", stub.project)
	}
	if v, ok := stub.project.Defaults[permission.KeyCanSeeBudget]; !ok || v {
		t.Errorf("expected explicit false project default to be kept")
	}
	if !resp.Decision.Allowed || resp.Decision.Level != "project_member" {
		t.Errorf("unexpected decision %+v", resp.Decision)
	}
}

func TestPermissionGrpcHandler_ResolvePermission_Errors(t *testing.T) {
	t.Parallel()

	handler := NewPermissionGrpcHandler(&stubAccessUseCase{}, &stubAgencyUseCase{})
	if _, err := handler.ResolvePermission(context.Background(), &v1.ResolvePermissionRequest{MemberID: "member-1", Key: " "}); status.Code(err) != codes.InvalidArgument {
		t.Errorf("expected InvalidArgument for blank key, got %v", err)
	}

	forbidden := NewPermissionGrpcHandler(&stubAccessUseCase{err: fmt.Errorf("%w: canSeeBudget", access.ErrForbidden)}, &stubAgencyUseCase{})
	if _, err := forbidden.ResolvePermission(context.Background(), &v1.ResolvePermissionRequest{MemberID: "member-1", Key: "canSeeBudget"}); status.Code(err) != codes.PermissionDenied {
		t.Errorf("expected PermissionDenied, got %v", err)
	}
}

func TestPermissionGrpcHandler_EffectivePermissions(t *testing.T) {
	t.Parallel()

	handler := NewPermissionGrpcHandler(&stubAccessUseCase{}, &stubAgencyUseCase{})

	resp, err := handler.EffectivePermissions(context.Background(), &v1.ResolvePermissionRequest{MemberID: "member-1"})
	if err != nil {
		t.Fatalf("EffectivePermissions returned error: %v", err)
	}
	if len(resp.Decisions) != 2 || resp.Decisions[1].Level != "agency" {
		t.Errorf("unexpected decisions %+v", resp.Decisions)
	}
}

func TestPermissionGrpcHandler_AgencySettings(t *testing.T) {
	t.Parallel()

	stub := &stubAgencyUseCase{}
	handler := NewPermissionGrpcHandler(&stubAccessUseCase{}, stub)

	days := []string{"mon", "tue"}
	region := "de"
	resp, err := handler.UpdateAgencySettings(context.Background(), &v1.UpdateAgencySettingsRequest{
		AgencyID:      "agency-1",
		WorkingDays:   &days,
		HolidayRegion: &region,
	})
	if err != nil {
		t.Fatalf("UpdateAgencySettings returned error: %v", err)
	}
	if stub.updateInput.WorkingDays == nil || len(stub.updateInput.WorkingDays.Days()) != 2 {
		t.Errorf("expected parsed working days, got %v", stub.updateInput.WorkingDays)
	}
	if stub.updateInput.WorkingHours != nil {
		t.Errorf("expected working hours to stay unset")
	}
	if resp.Settings.Version != 2 || resp.Settings.WorkingHours.End != "18:00" {
		t.Errorf("unexpected settings %+v", resp.Settings)
	}

	allowed := true
	if _, err := handler.SetAgencyPermissionDefault(context.Background(), &v1.AgencyPermissionDefaultRequest{AgencyID: "agency-1", Key: "canSeeRates", Value: &allowed}); err != nil {
		t.Fatalf("SetAgencyPermissionDefault returned error: %v", err)
	}
	if _, err := handler.SetAgencyPermissionDefault(context.Background(), &v1.AgencyPermissionDefaultRequest{AgencyID: "agency-1", Key: "canSeeRates"}); err != nil {
		t.Fatalf("clear returned error: %v", err)
	}
	if !stub.setCalled || !stub.clearCalled {
		t.Errorf("expected both set and clear to be called")
	}

	failing := NewPermissionGrpcHandler(&stubAccessUseCase{}, &stubAgencyUseCase{err: agency.ErrInvalidHolidayRegion})
	if _, err := failing.UpdateAgencySettings(context.Background(), &v1.UpdateAgencySettingsRequest{AgencyID: "agency-1", HolidayRegion: &region}); status.Code(err) != codes.InvalidArgument {
		t.Errorf("expected InvalidArgument, got %v", err)
	}
}
