package handler

import (
	"context"

	v1 "github.com/ogurasousui/teamplan/internal/adapters/grpc/teamplanv1"
	"github.com/ogurasousui/teamplan/internal/core/member"
	"github.com/ogurasousui/teamplan/internal/core/notification"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// NotificationGrpcHandler は NotificationService の gRPC 実装です。
type NotificationGrpcHandler struct {
	svc notification.UseCase
}

// NewNotificationGrpcHandler は NotificationGrpcHandler を生成します。
func NewNotificationGrpcHandler(svc notification.UseCase) *NotificationGrpcHandler {
	return &NotificationGrpcHandler{svc: svc}
}

// ListNotifications は通知を追記順に返します。
func (h *NotificationGrpcHandler) ListNotifications(ctx context.Context, req *v1.NotificationFilter) (*v1.ListNotificationsResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	found, err := h.svc.List(ctx, toNotificationFilter(req))
	if err != nil {
		return nil, toStatusError(err)
	}

	out := make([]*v1.Notification, 0, len(found))
	for _, n := range found {
		out = append(out, toWireNotification(n))
	}
	return &v1.ListNotificationsResponse{Notifications: out}, nil
}

// UnreadCount は未読件数を返します。
func (h *NotificationGrpcHandler) UnreadCount(ctx context.Context, req *v1.NotificationFilter) (*v1.CountResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	n, err := h.svc.UnreadCount(ctx, toNotificationFilter(req))
	if err != nil {
		return nil, toStatusError(err)
	}

	return &v1.CountResponse{Count: n}, nil
}

// MarkAsRead は通知を既読にします。
func (h *NotificationGrpcHandler) MarkAsRead(ctx context.Context, req *v1.NotificationIDRequest) (*v1.NotificationResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	n, err := h.svc.MarkAsRead(ctx, req.ID)
	if err != nil {
		return nil, toStatusError(err)
	}

	return &v1.NotificationResponse{Notification: toWireNotification(n)}, nil
}

// MarkAllAsRead は条件に合う通知をすべて既読にします。
func (h *NotificationGrpcHandler) MarkAllAsRead(ctx context.Context, req *v1.NotificationFilter) (*v1.CountResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	n, err := h.svc.MarkAllAsRead(ctx, toNotificationFilter(req))
	if err != nil {
		return nil, toStatusError(err)
	}

	return &v1.CountResponse{Count: n}, nil
}

func toNotificationFilter(req *v1.NotificationFilter) notification.Filter {
	return notification.Filter{
		ForRole:    member.Role(req.ForRole),
		MemberID:   req.MemberID,
		UnreadOnly: req.UnreadOnly,
	}
}
