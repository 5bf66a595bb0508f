package handler

import (
	"context"

	v1 "github.com/ogurasousui/teamplan/internal/adapters/grpc/teamplanv1"
	"github.com/ogurasousui/teamplan/internal/core/absence"
	"github.com/ogurasousui/teamplan/internal/core/calendar"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// AbsenceGrpcHandler は AbsenceService の gRPC 実装です。
type AbsenceGrpcHandler struct {
	svc absence.UseCase
}

// NewAbsenceGrpcHandler は AbsenceGrpcHandler を生成します。
func NewAbsenceGrpcHandler(svc absence.UseCase) *AbsenceGrpcHandler {
	return &AbsenceGrpcHandler{svc: svc}
}

// AddAbsence は不在を登録します。
func (h *AbsenceGrpcHandler) AddAbsence(ctx context.Context, req *v1.AddAbsenceRequest) (*v1.AbsenceResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	start, err := calendar.Parse(req.StartDate)
	if err != nil {
		return nil, toStatusError(err)
	}
	end, err := calendar.Parse(req.EndDate)
	if err != nil {
		return nil, toStatusError(err)
	}
	partial, err := parseTimeRange(req.Partial)
	if err != nil {
		return nil, toStatusError(err)
	}

	result, err := h.svc.AddAbsence(ctx, absence.AddAbsenceInput{
		MemberID:  req.MemberID,
		Type:      absence.Type(req.Type),
		StartDate: start,
		EndDate:   end,
		IsPartial: req.IsPartial,
		Partial:   partial,
		Note:      req.Note,
	})
	if err != nil {
		return nil, toStatusError(err)
	}

	return &v1.AbsenceResponse{Absence: toWireAbsence(result.Absence), Warnings: toWireConflicts(result.Warnings)}, nil
}

// UpdateAbsence は不在を部分更新します。
func (h *AbsenceGrpcHandler) UpdateAbsence(ctx context.Context, req *v1.UpdateAbsenceRequest) (*v1.AbsenceResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	in := absence.UpdateAbsenceInput{
		ID:              req.ID,
		ExpectedVersion: req.ExpectedVersion,
		IsPartial:       req.IsPartial,
		Note:            req.Note,
	}
	if req.Type != nil {
		typ := absence.Type(*req.Type)
		in.Type = &typ
	}

	var err error
	if in.StartDate, err = parseOptionalDate(req.StartDate); err != nil {
		return nil, toStatusError(err)
	}
	if in.EndDate, err = parseOptionalDate(req.EndDate); err != nil {
		return nil, toStatusError(err)
	}
	if in.Partial, err = parseTimeRange(req.Partial); err != nil {
		return nil, toStatusError(err)
	}

	result, err := h.svc.UpdateAbsence(ctx, in)
	if err != nil {
		return nil, toStatusError(err)
	}

	return &v1.AbsenceResponse{Absence: toWireAbsence(result.Absence), Warnings: toWireConflicts(result.Warnings)}, nil
}

// RemoveAbsence は不在を削除します。
func (h *AbsenceGrpcHandler) RemoveAbsence(ctx context.Context, req *v1.AbsenceIDRequest) (*v1.Empty, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	if err := h.svc.RemoveAbsence(ctx, req.ID); err != nil {
		return nil, toStatusError(err)
	}

	return &v1.Empty{}, nil
}

// GetAbsence は不在を取得します。
func (h *AbsenceGrpcHandler) GetAbsence(ctx context.Context, req *v1.AbsenceIDRequest) (*v1.GetAbsenceResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	found, err := h.svc.GetAbsence(ctx, req.ID)
	if err != nil {
		return nil, toStatusError(err)
	}

	return &v1.GetAbsenceResponse{Absence: toWireAbsence(found)}, nil
}

// ListAbsences はメンバーまたは期間で不在を一覧します。
func (h *AbsenceGrpcHandler) ListAbsences(ctx context.Context, req *v1.ListAbsencesRequest) (*v1.ListAbsencesResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	var absences []*absence.Absence
	if req.MemberID != "" {
		rng, err := parseRange(req.Start, req.End)
		if err != nil {
			return nil, toStatusError(err)
		}
		absences, err = h.svc.ForMember(ctx, req.MemberID, rng)
		if err != nil {
			return nil, toStatusError(err)
		}
	} else {
		rng, err := parseRequiredRange(req.Start, req.End)
		if err != nil {
			return nil, toStatusError(err)
		}
		absences, err = h.svc.ForRange(ctx, rng)
		if err != nil {
			return nil, toStatusError(err)
		}
	}

	return &v1.ListAbsencesResponse{Absences: toWireAbsences(absences)}, nil
}

// ListOverlaps はメンバーの不在同士の重なりを返します。
func (h *AbsenceGrpcHandler) ListOverlaps(ctx context.Context, req *v1.ListOverlapsRequest) (*v1.ListOverlapsResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	overlaps, err := h.svc.Overlaps(ctx, req.MemberID)
	if err != nil {
		return nil, toStatusError(err)
	}

	out := make([]v1.Overlap, 0, len(overlaps))
	for _, o := range overlaps {
		out = append(out, v1.Overlap{First: toWireAbsence(o.First), Second: toWireAbsence(o.Second)})
	}
	return &v1.ListOverlapsResponse{Overlaps: out}, nil
}
