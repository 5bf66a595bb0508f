package handler

import (
	"context"

	v1 "github.com/ogurasousui/teamplan/internal/adapters/grpc/teamplanv1"
	"github.com/ogurasousui/teamplan/internal/core/assignment"
	"github.com/ogurasousui/teamplan/internal/core/calendar"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// AssignmentGrpcHandler は AssignmentService の gRPC 実装です。
type AssignmentGrpcHandler struct {
	svc assignment.UseCase
}

// NewAssignmentGrpcHandler は AssignmentGrpcHandler を生成します。
func NewAssignmentGrpcHandler(svc assignment.UseCase) *AssignmentGrpcHandler {
	return &AssignmentGrpcHandler{svc: svc}
}

// CreateAssignment は割り当てを作成します。衝突は警告として返します。
func (h *AssignmentGrpcHandler) CreateAssignment(ctx context.Context, req *v1.CreateAssignmentRequest) (*v1.AssignmentResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	dates, err := calendar.ParseAll(req.Dates)
	if err != nil {
		return nil, toStatusError(err)
	}
	slots, err := parseTimeRanges(req.TimeSlots)
	if err != nil {
		return nil, toStatusError(err)
	}

	result, err := h.svc.CreateAssignment(ctx, assignment.CreateAssignmentInput{
		MemberID:    req.MemberID,
		ProjectID:   req.ProjectID,
		PhaseID:     req.PhaseID,
		Dates:       dates,
		TimeSlots:   slots,
		ProjectRole: req.ProjectRole,
		Note:        req.Note,
	})
	if err != nil {
		return nil, toStatusError(err)
	}

	return &v1.AssignmentResponse{Assignment: toWireAssignment(result.Assignment), Conflicts: toWireConflicts(result.Conflicts)}, nil
}

// UpdateAssignment は割り当てを部分更新します。
func (h *AssignmentGrpcHandler) UpdateAssignment(ctx context.Context, req *v1.UpdateAssignmentRequest) (*v1.AssignmentResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	in := assignment.UpdateAssignmentInput{
		ID:              req.ID,
		ExpectedVersion: req.ExpectedVersion,
		ProjectID:       req.ProjectID,
		PhaseID:         req.PhaseID,
		ProjectRole:     req.ProjectRole,
		Note:            req.Note,
	}
	if req.Dates != nil {
		dates, err := calendar.ParseAll(*req.Dates)
		if err != nil {
			return nil, toStatusError(err)
		}
		in.Dates = &dates
	}
	if req.TimeSlots != nil {
		slots, err := parseTimeRanges(*req.TimeSlots)
		if err != nil {
			return nil, toStatusError(err)
		}
		in.TimeSlots = &slots
	}

	result, err := h.svc.UpdateAssignment(ctx, in)
	if err != nil {
		return nil, toStatusError(err)
	}

	return &v1.AssignmentResponse{Assignment: toWireAssignment(result.Assignment), Conflicts: toWireConflicts(result.Conflicts)}, nil
}

// RemoveAssignment は割り当てを削除します。
func (h *AssignmentGrpcHandler) RemoveAssignment(ctx context.Context, req *v1.AssignmentIDRequest) (*v1.Empty, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	if err := h.svc.RemoveAssignment(ctx, req.ID); err != nil {
		return nil, toStatusError(err)
	}

	return &v1.Empty{}, nil
}

// GetAssignment は割り当てを取得します。
func (h *AssignmentGrpcHandler) GetAssignment(ctx context.Context, req *v1.AssignmentIDRequest) (*v1.GetAssignmentResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	found, err := h.svc.GetAssignment(ctx, req.ID)
	if err != nil {
		return nil, toStatusError(err)
	}

	return &v1.GetAssignmentResponse{Assignment: toWireAssignment(found)}, nil
}

// ListAssignments はメンバー、プロジェクト、フェーズのいずれかで割り当てを一覧します。
func (h *AssignmentGrpcHandler) ListAssignments(ctx context.Context, req *v1.ListAssignmentsRequest) (*v1.ListAssignmentsResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	var (
		assignments []*assignment.Assignment
		err         error
	)
	switch {
	case req.MemberID != "":
		rng, rngErr := parseRange(req.Start, req.End)
		if rngErr != nil {
			return nil, toStatusError(rngErr)
		}
		assignments, err = h.svc.ForMember(ctx, req.MemberID, rng)
	case req.ProjectID != "":
		assignments, err = h.svc.ForProject(ctx, req.ProjectID)
	case req.PhaseID != "":
		assignments, err = h.svc.ForPhase(ctx, req.PhaseID)
	default:
		return nil, status.Error(codes.InvalidArgument, "member_id, project_id or phase_id is required")
	}
	if err != nil {
		return nil, toStatusError(err)
	}

	return &v1.ListAssignmentsResponse{Assignments: toWireAssignments(assignments)}, nil
}
