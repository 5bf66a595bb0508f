package handler

import (
	"context"
	"strings"

	v1 "github.com/ogurasousui/teamplan/internal/adapters/grpc/teamplanv1"
	"github.com/ogurasousui/teamplan/internal/core/member"
	"github.com/ogurasousui/teamplan/internal/core/permission"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// MemberGrpcHandler は MemberService の gRPC 実装です。
type MemberGrpcHandler struct {
	svc member.UseCase
}

// NewMemberGrpcHandler は MemberGrpcHandler を生成します。
func NewMemberGrpcHandler(svc member.UseCase) *MemberGrpcHandler {
	return &MemberGrpcHandler{svc: svc}
}

// CreateMember はメンバーを作成します。
func (h *MemberGrpcHandler) CreateMember(ctx context.Context, req *v1.CreateMemberRequest) (*v1.MemberResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	in := member.CreateMemberInput{
		AgencyID:       req.AgencyID,
		Name:           req.Name,
		Email:          req.Email,
		Phone:          req.Phone,
		Position:       req.Position,
		Professions:    req.Professions,
		Skills:         req.Skills,
		EmploymentType: member.EmploymentType(req.EmploymentType),
		Role:           member.Role(req.Role),
	}

	var err error
	if len(req.WorkingDays) > 0 {
		if in.WorkingDays, err = parseWeekdays(&req.WorkingDays); err != nil {
			return nil, toStatusError(err)
		}
	}
	if in.WorkingHours, err = parseTimeRange(req.WorkingHours); err != nil {
		return nil, toStatusError(err)
	}
	if in.PermissionOverrides, err = toOverrides(req.PermissionOverrides); err != nil {
		return nil, toStatusError(err)
	}

	created, err := h.svc.CreateMember(ctx, in)
	if err != nil {
		return nil, toStatusError(err)
	}

	return &v1.MemberResponse{Member: toWireMember(created)}, nil
}

// UpdateMember はメンバー情報を部分更新します。
func (h *MemberGrpcHandler) UpdateMember(ctx context.Context, req *v1.UpdateMemberRequest) (*v1.MemberResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	in := member.UpdateMemberInput{
		ID:              req.ID,
		ExpectedVersion: req.ExpectedVersion,
		Name:            req.Name,
		Email:           req.Email,
		Phone:           req.Phone,
		Position:        req.Position,
		Professions:     req.Professions,
		Skills:          req.Skills,
	}
	if req.EmploymentType != nil {
		et := member.EmploymentType(*req.EmploymentType)
		in.EmploymentType = &et
	}
	if req.Role != nil {
		role := member.Role(*req.Role)
		in.Role = &role
	}

	var err error
	if in.WorkingDays, err = parseWeekdays(req.WorkingDays); err != nil {
		return nil, toStatusError(err)
	}
	if in.WorkingHours, err = parseTimeRange(req.WorkingHours); err != nil {
		return nil, toStatusError(err)
	}
	if req.PermissionOverrides != nil {
		overrides, err := toOverrides(*req.PermissionOverrides)
		if err != nil {
			return nil, toStatusError(err)
		}
		in.PermissionOverrides = &overrides
	}

	updated, err := h.svc.UpdateMember(ctx, in)
	if err != nil {
		return nil, toStatusError(err)
	}

	return &v1.MemberResponse{Member: toWireMember(updated)}, nil
}

// GetMember はメンバーを取得します。
func (h *MemberGrpcHandler) GetMember(ctx context.Context, req *v1.MemberIDRequest) (*v1.MemberResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	found, err := h.svc.GetMember(ctx, req.ID)
	if err != nil {
		return nil, toStatusError(err)
	}

	return &v1.MemberResponse{Member: toWireMember(found)}, nil
}

// DeleteMember はメンバーを削除します。不在や割り当てが残っている場合は FailedPrecondition です。
func (h *MemberGrpcHandler) DeleteMember(ctx context.Context, req *v1.MemberIDRequest) (*v1.Empty, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	if err := h.svc.DeleteMember(ctx, req.ID); err != nil {
		return nil, toStatusError(err)
	}

	return &v1.Empty{}, nil
}

// DeactivateMember はメンバーを無効化します。
func (h *MemberGrpcHandler) DeactivateMember(ctx context.Context, req *v1.MemberIDRequest) (*v1.MemberResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	updated, err := h.svc.DeactivateMember(ctx, req.ID)
	if err != nil {
		return nil, toStatusError(err)
	}

	return &v1.MemberResponse{Member: toWireMember(updated)}, nil
}

// ReactivateMember はメンバーを再度有効にします。
func (h *MemberGrpcHandler) ReactivateMember(ctx context.Context, req *v1.MemberIDRequest) (*v1.MemberResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	updated, err := h.svc.ReactivateMember(ctx, req.ID)
	if err != nil {
		return nil, toStatusError(err)
	}

	return &v1.MemberResponse{Member: toWireMember(updated)}, nil
}

// ListMembers はメンバーの一覧を取得します。
func (h *MemberGrpcHandler) ListMembers(ctx context.Context, req *v1.ListMembersRequest) (*v1.ListMembersResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	var (
		members []*member.Member
		err     error
	)
	switch {
	case strings.TrimSpace(req.Query) != "":
		members, err = h.svc.Search(ctx, req.AgencyID, req.Query)
	case req.Role != "":
		members, err = h.svc.ListByRole(ctx, req.AgencyID, member.Role(req.Role))
	case req.Profession != "":
		members, err = h.svc.ListByProfession(ctx, req.AgencyID, req.Profession)
	default:
		members, err = h.svc.ListActive(ctx, req.AgencyID)
	}
	if err != nil {
		return nil, toStatusError(err)
	}

	return &v1.ListMembersResponse{Members: toWireMembers(members)}, nil
}

// SetPermissionOverride はメンバー単位の権限上書きを設定します。Value が nil の場合は上書きを削除します。
func (h *MemberGrpcHandler) SetPermissionOverride(ctx context.Context, req *v1.PermissionOverrideRequest) (*v1.MemberResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	key, err := permission.ParseKey(req.Key)
	if err != nil {
		return nil, toStatusError(err)
	}

	var updated *member.Member
	if req.Value == nil {
		updated, err = h.svc.ClearPermissionOverride(ctx, req.MemberID, key)
	} else {
		updated, err = h.svc.SetPermissionOverride(ctx, req.MemberID, key, *req.Value)
	}
	if err != nil {
		return nil, toStatusError(err)
	}

	return &v1.MemberResponse{Member: toWireMember(updated)}, nil
}
