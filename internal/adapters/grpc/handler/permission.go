package handler

import (
	"context"

	v1 "github.com/ogurasousui/teamplan/internal/adapters/grpc/teamplanv1"
	"github.com/ogurasousui/teamplan/internal/core/access"
	"github.com/ogurasousui/teamplan/internal/core/agency"
	"github.com/ogurasousui/teamplan/internal/core/permission"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// PermissionGrpcHandler は PermissionService の gRPC 実装です。エージェンシー既定値の管理もここで扱います。
type PermissionGrpcHandler struct {
	access access.UseCase
	agency agency.UseCase
}

// NewPermissionGrpcHandler は PermissionGrpcHandler を生成します。
func NewPermissionGrpcHandler(accessSvc access.UseCase, agencySvc agency.UseCase) *PermissionGrpcHandler {
	return &PermissionGrpcHandler{access: accessSvc, agency: agencySvc}
}

// ResolvePermission は 1 つのキーの実効値と決定した階層を返します。
func (h *PermissionGrpcHandler) ResolvePermission(ctx context.Context, req *v1.ResolvePermissionRequest) (*v1.ResolvePermissionResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	key, err := permission.ParseKey(req.Key)
	if err != nil {
		return nil, toStatusError(err)
	}
	project, err := toProjectPermissions(req.Project)
	if err != nil {
		return nil, toStatusError(err)
	}

	decision, err := h.access.Resolve(ctx, req.MemberID, key, project)
	if err != nil {
		return nil, toStatusError(err)
	}

	return &v1.ResolvePermissionResponse{Decision: toWireDecision(*decision)}, nil
}

// EffectivePermissions はすべての既知キーの実効値を返します。
func (h *PermissionGrpcHandler) EffectivePermissions(ctx context.Context, req *v1.ResolvePermissionRequest) (*v1.EffectivePermissionsResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	project, err := toProjectPermissions(req.Project)
	if err != nil {
		return nil, toStatusError(err)
	}

	decisions, err := h.access.Effective(ctx, req.MemberID, project)
	if err != nil {
		return nil, toStatusError(err)
	}

	out := make([]v1.PermissionDecision, 0, len(decisions))
	for _, d := range decisions {
		out = append(out, toWireDecision(d))
	}
	return &v1.EffectivePermissionsResponse{Decisions: out}, nil
}

// GetAgencySettings はエージェンシー設定を返します。未保存の場合は設定ファイル由来の既定値です。
func (h *PermissionGrpcHandler) GetAgencySettings(ctx context.Context, req *v1.AgencyIDRequest) (*v1.AgencySettingsResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	settings, err := h.agency.GetSettings(ctx, req.AgencyID)
	if err != nil {
		return nil, toStatusError(err)
	}

	return &v1.AgencySettingsResponse{Settings: toWireSettings(settings)}, nil
}

// UpdateAgencySettings は勤務テンプレートと祝日地域を更新します。
func (h *PermissionGrpcHandler) UpdateAgencySettings(ctx context.Context, req *v1.UpdateAgencySettingsRequest) (*v1.AgencySettingsResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	in := agency.UpdateSettingsInput{
		AgencyID:        req.AgencyID,
		ExpectedVersion: req.ExpectedVersion,
		HolidayRegion:   req.HolidayRegion,
	}

	var err error
	if in.WorkingDays, err = parseWeekdays(req.WorkingDays); err != nil {
		return nil, toStatusError(err)
	}
	if in.WorkingHours, err = parseTimeRange(req.WorkingHours); err != nil {
		return nil, toStatusError(err)
	}

	settings, err := h.agency.UpdateSettings(ctx, in)
	if err != nil {
		return nil, toStatusError(err)
	}

	return &v1.AgencySettingsResponse{Settings: toWireSettings(settings)}, nil
}

// SetAgencyPermissionDefault はエージェンシー既定の権限値を設定します。Value が nil の場合は削除します。
func (h *PermissionGrpcHandler) SetAgencyPermissionDefault(ctx context.Context, req *v1.AgencyPermissionDefaultRequest) (*v1.AgencySettingsResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	key, err := permission.ParseKey(req.Key)
	if err != nil {
		return nil, toStatusError(err)
	}

	var settings *agency.Settings
	if req.Value == nil {
		settings, err = h.agency.ClearPermissionDefault(ctx, req.AgencyID, key)
	} else {
		settings, err = h.agency.SetPermissionDefault(ctx, req.AgencyID, key, *req.Value)
	}
	if err != nil {
		return nil, toStatusError(err)
	}

	return &v1.AgencySettingsResponse{Settings: toWireSettings(settings)}, nil
}

func toProjectPermissions(raw *v1.ProjectPermissions) (*permission.ProjectPermissions, error) {
	if raw == nil {
		return nil, nil
	}
	defaults, err := toOverrides(raw.Defaults)
	if err != nil {
		return nil, err
	}
	project := &permission.ProjectPermissions{Defaults: defaults}
	if len(raw.MemberOverrides) > 0 {
		project.MemberOverrides = make(map[string]permission.Overrides, len(raw.MemberOverrides))
		for memberID, overrides := range raw.MemberOverrides {
			parsed, err := toOverrides(overrides)
			if err != nil {
				return nil, err
			}
			project.MemberOverrides[memberID] = parsed
		}
	}
	return project, nil
}

func toWireDecision(d permission.Decision) v1.PermissionDecision {
	return v1.PermissionDecision{Key: string(d.Key), Allowed: d.Allowed, Level: string(d.Level)}
}
