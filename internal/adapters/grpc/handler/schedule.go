package handler

import (
	"context"

	v1 "github.com/ogurasousui/teamplan/internal/adapters/grpc/teamplanv1"
	"github.com/ogurasousui/teamplan/internal/core/calendar"
	"github.com/ogurasousui/teamplan/internal/core/conflict"
	"github.com/ogurasousui/teamplan/internal/core/utilization"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ConflictChecker は衝突判定と日ごとの状態を提供します。conflict.Detector が満たします。
type ConflictChecker interface {
	CheckConflicts(ctx context.Context, memberID string, dates []calendar.Date, excludeAssignmentID string) ([]conflict.Conflict, error)
	DayStatuses(ctx context.Context, memberID string, dates []calendar.Date) ([]conflict.DayStatus, error)
}

// ScheduleGrpcHandler は ScheduleService の gRPC 実装です。
type ScheduleGrpcHandler struct {
	checker     ConflictChecker
	utilization utilization.UseCase
}

// NewScheduleGrpcHandler は ScheduleGrpcHandler を生成します。
func NewScheduleGrpcHandler(checker ConflictChecker, util utilization.UseCase) *ScheduleGrpcHandler {
	return &ScheduleGrpcHandler{checker: checker, utilization: util}
}

// CheckConflicts は候補日ごとの衝突を返します。衝突のない日は含まれません。
func (h *ScheduleGrpcHandler) CheckConflicts(ctx context.Context, req *v1.CheckConflictsRequest) (*v1.CheckConflictsResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	dates, err := calendar.ParseAll(req.Dates)
	if err != nil {
		return nil, toStatusError(err)
	}

	conflicts, err := h.checker.CheckConflicts(ctx, req.MemberID, dates, req.ExcludeAssignmentID)
	if err != nil {
		return nil, toStatusError(err)
	}

	out := toWireConflicts(conflicts)
	if out == nil {
		out = []v1.Conflict{}
	}
	return &v1.CheckConflictsResponse{Conflicts: out}, nil
}

// DayStatuses は期間内の各日の状態を返します。
func (h *ScheduleGrpcHandler) DayStatuses(ctx context.Context, req *v1.DayStatusesRequest) (*v1.DayStatusesResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	rng, err := parseRequiredRange(req.Start, req.End)
	if err != nil {
		return nil, toStatusError(err)
	}
	if rng.Len() > utilization.MaxRangeDays {
		return nil, toStatusError(utilization.ErrRangeTooLong)
	}

	days := rng.Days()
	statuses, err := h.checker.DayStatuses(ctx, req.MemberID, days)
	if err != nil {
		return nil, toStatusError(err)
	}

	out := make([]v1.DayStatus, 0, len(days))
	for i, d := range days {
		out = append(out, v1.DayStatus{Date: d.String(), Status: string(statuses[i])})
	}
	return &v1.DayStatusesResponse{Days: out}, nil
}

// MemberUtilization はメンバーの稼働率を返します。
func (h *ScheduleGrpcHandler) MemberUtilization(ctx context.Context, req *v1.UtilizationRequest) (*v1.UtilizationReport, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	rng, err := parseRequiredRange(req.Start, req.End)
	if err != nil {
		return nil, toStatusError(err)
	}

	report, err := h.utilization.MemberUtilization(ctx, req.MemberID, rng)
	if err != nil {
		return nil, toStatusError(err)
	}

	out := toWireReport(*report)
	return &out, nil
}

// TeamUtilization は有効メンバー全体の稼働率を返します。
func (h *ScheduleGrpcHandler) TeamUtilization(ctx context.Context, req *v1.UtilizationRequest) (*v1.TeamUtilizationResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	rng, err := parseRequiredRange(req.Start, req.End)
	if err != nil {
		return nil, toStatusError(err)
	}

	team, err := h.utilization.TeamUtilization(ctx, req.AgencyID, rng)
	if err != nil {
		return nil, toStatusError(err)
	}

	members := make([]v1.UtilizationReport, 0, len(team.Members))
	for _, r := range team.Members {
		members = append(members, toWireReport(r))
	}
	return &v1.TeamUtilizationResponse{
		Start:             team.Range.Start.String(),
		End:               team.Range.End.String(),
		Members:           members,
		WorkingDays:       team.WorkingDays,
		AvailableDays:     team.AvailableDays,
		AssignedDays:      team.AssignedDays,
		AbsentDays:        team.AbsentDays,
		AveragePercentage: team.AveragePercentage,
	}, nil
}
