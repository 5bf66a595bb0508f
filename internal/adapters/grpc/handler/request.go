package handler

import (
	"context"

	v1 "github.com/ogurasousui/teamplan/internal/adapters/grpc/teamplanv1"
	"github.com/ogurasousui/teamplan/internal/core/absence"
	"github.com/ogurasousui/teamplan/internal/core/calendar"
	"github.com/ogurasousui/teamplan/internal/core/request"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// RequestGrpcHandler は RequestService の gRPC 実装です。
type RequestGrpcHandler struct {
	svc request.UseCase
}

// NewRequestGrpcHandler は RequestGrpcHandler を生成します。
func NewRequestGrpcHandler(svc request.UseCase) *RequestGrpcHandler {
	return &RequestGrpcHandler{svc: svc}
}

// CreateRequest は不在申請を提出します。
func (h *RequestGrpcHandler) CreateRequest(ctx context.Context, req *v1.CreateRequestRequest) (*v1.RequestOutcome, error) {
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

	outcome, err := h.svc.CreateRequest(ctx, request.CreateRequestInput{
		MemberID:  req.MemberID,
		Type:      absence.Type(req.Type),
		StartDate: start,
		EndDate:   end,
		IsPartial: req.IsPartial,
		Partial:   partial,
		Reason:    req.Reason,
	})
	if err != nil {
		return nil, toStatusError(err)
	}

	return toWireOutcome(outcome), nil
}

// ApproveRequest は申請を承認し、不在を登録します。
func (h *RequestGrpcHandler) ApproveRequest(ctx context.Context, req *v1.ReviewRequestRequest) (*v1.RequestOutcome, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	outcome, err := h.svc.ApproveRequest(ctx, req.ID, req.ReviewerID)
	if err != nil {
		return nil, toStatusError(err)
	}

	return h.reviewOutcome(ctx, req.ID, outcome)
}

// RejectRequest は申請を却下します。
func (h *RequestGrpcHandler) RejectRequest(ctx context.Context, req *v1.ReviewRequestRequest) (*v1.RequestOutcome, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	outcome, err := h.svc.RejectRequest(ctx, req.ID, req.ReviewerID, req.Reason)
	if err != nil {
		return nil, toStatusError(err)
	}

	return h.reviewOutcome(ctx, req.ID, outcome)
}

// reviewOutcome は審査結果を返します。保留中でなく何も変更されなかった場合は現在の申請だけを返します。
func (h *RequestGrpcHandler) reviewOutcome(ctx context.Context, id string, outcome *request.Outcome) (*v1.RequestOutcome, error) {
	if outcome != nil {
		return toWireOutcome(outcome), nil
	}

	current, err := h.svc.GetRequest(ctx, id)
	if err != nil {
		return nil, toStatusError(err)
	}
	return &v1.RequestOutcome{Request: toWireRequest(current)}, nil
}

// WithdrawRequest は保留中の申請を取り下げます。
func (h *RequestGrpcHandler) WithdrawRequest(ctx context.Context, req *v1.RequestIDRequest) (*v1.Empty, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	if err := h.svc.WithdrawRequest(ctx, req.ID); err != nil {
		return nil, toStatusError(err)
	}

	return &v1.Empty{}, nil
}

// DeleteRequest は申請を状態に関係なく削除します。
func (h *RequestGrpcHandler) DeleteRequest(ctx context.Context, req *v1.RequestIDRequest) (*v1.Empty, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	if err := h.svc.DeleteRequest(ctx, req.ID); err != nil {
		return nil, toStatusError(err)
	}

	return &v1.Empty{}, nil
}

// GetRequest は申請を取得します。
func (h *RequestGrpcHandler) GetRequest(ctx context.Context, req *v1.RequestIDRequest) (*v1.GetRequestResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	found, err := h.svc.GetRequest(ctx, req.ID)
	if err != nil {
		return nil, toStatusError(err)
	}

	return &v1.GetRequestResponse{Request: toWireRequest(found)}, nil
}

// ListRequests は申請を一覧します。member_id と status は組み合わせられます。
func (h *RequestGrpcHandler) ListRequests(ctx context.Context, req *v1.ListRequestsRequest) (*v1.ListRequestsResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	var statusFilter *request.Status
	if req.Status != "" {
		s := request.Status(req.Status)
		if !s.Valid() {
			return nil, toStatusError(request.ErrInvalidStatus)
		}
		statusFilter = &s
	}

	var (
		requests []*request.Request
		err      error
	)
	if req.MemberID != "" {
		requests, err = h.svc.ForMember(ctx, req.MemberID)
	} else {
		requests, err = h.svc.ByStatus(ctx, statusFilter)
	}
	if err != nil {
		return nil, toStatusError(err)
	}

	if req.MemberID != "" && statusFilter != nil {
		filtered := requests[:0]
		for _, r := range requests {
			if r.Status == *statusFilter {
				filtered = append(filtered, r)
			}
		}
		requests = filtered
	}

	return &v1.ListRequestsResponse{Requests: toWireRequests(requests)}, nil
}

// PendingCount は保留中の申請件数を返します。
func (h *RequestGrpcHandler) PendingCount(ctx context.Context, _ *v1.Empty) (*v1.CountResponse, error) {
	n, err := h.svc.PendingCount(ctx)
	if err != nil {
		return nil, toStatusError(err)
	}

	return &v1.CountResponse{Count: n}, nil
}
