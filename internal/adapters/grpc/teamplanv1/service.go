package teamplanv1

import (
	"context"

	"google.golang.org/grpc"
)

const servicePrefix = "teamplan.v1."

// MemberServiceServer はメンバー管理 API です。
type MemberServiceServer interface {
	CreateMember(context.Context, *CreateMemberRequest) (*MemberResponse, error)
	UpdateMember(context.Context, *UpdateMemberRequest) (*MemberResponse, error)
	GetMember(context.Context, *MemberIDRequest) (*MemberResponse, error)
	DeleteMember(context.Context, *MemberIDRequest) (*Empty, error)
	DeactivateMember(context.Context, *MemberIDRequest) (*MemberResponse, error)
	ReactivateMember(context.Context, *MemberIDRequest) (*MemberResponse, error)
	ListMembers(context.Context, *ListMembersRequest) (*ListMembersResponse, error)
	SetPermissionOverride(context.Context, *PermissionOverrideRequest) (*MemberResponse, error)
}

// AbsenceServiceServer は不在台帳 API です。
type AbsenceServiceServer interface {
	AddAbsence(context.Context, *AddAbsenceRequest) (*AbsenceResponse, error)
	UpdateAbsence(context.Context, *UpdateAbsenceRequest) (*AbsenceResponse, error)
	RemoveAbsence(context.Context, *AbsenceIDRequest) (*Empty, error)
	GetAbsence(context.Context, *AbsenceIDRequest) (*GetAbsenceResponse, error)
	ListAbsences(context.Context, *ListAbsencesRequest) (*ListAbsencesResponse, error)
	ListOverlaps(context.Context, *ListOverlapsRequest) (*ListOverlapsResponse, error)
}

// AssignmentServiceServer は割り当てボード API です。
type AssignmentServiceServer interface {
	CreateAssignment(context.Context, *CreateAssignmentRequest) (*AssignmentResponse, error)
	UpdateAssignment(context.Context, *UpdateAssignmentRequest) (*AssignmentResponse, error)
	RemoveAssignment(context.Context, *AssignmentIDRequest) (*Empty, error)
	GetAssignment(context.Context, *AssignmentIDRequest) (*GetAssignmentResponse, error)
	ListAssignments(context.Context, *ListAssignmentsRequest) (*ListAssignmentsResponse, error)
}

// RequestServiceServer は不在申請ワークフロー API です。
type RequestServiceServer interface {
	CreateRequest(context.Context, *CreateRequestRequest) (*RequestOutcome, error)
	ApproveRequest(context.Context, *ReviewRequestRequest) (*RequestOutcome, error)
	RejectRequest(context.Context, *ReviewRequestRequest) (*RequestOutcome, error)
	WithdrawRequest(context.Context, *RequestIDRequest) (*Empty, error)
	DeleteRequest(context.Context, *RequestIDRequest) (*Empty, error)
	GetRequest(context.Context, *RequestIDRequest) (*GetRequestResponse, error)
	ListRequests(context.Context, *ListRequestsRequest) (*ListRequestsResponse, error)
	PendingCount(context.Context, *Empty) (*CountResponse, error)
}

// ScheduleServiceServer は衝突判定と稼働率の API です。
type ScheduleServiceServer interface {
	CheckConflicts(context.Context, *CheckConflictsRequest) (*CheckConflictsResponse, error)
	DayStatuses(context.Context, *DayStatusesRequest) (*DayStatusesResponse, error)
	MemberUtilization(context.Context, *UtilizationRequest) (*UtilizationReport, error)
	TeamUtilization(context.Context, *UtilizationRequest) (*TeamUtilizationResponse, error)
}

// PermissionServiceServer は権限解決とエージェンシー既定値の API です。
type PermissionServiceServer interface {
	ResolvePermission(context.Context, *ResolvePermissionRequest) (*ResolvePermissionResponse, error)
	EffectivePermissions(context.Context, *ResolvePermissionRequest) (*EffectivePermissionsResponse, error)
	GetAgencySettings(context.Context, *AgencyIDRequest) (*AgencySettingsResponse, error)
	UpdateAgencySettings(context.Context, *UpdateAgencySettingsRequest) (*AgencySettingsResponse, error)
	SetAgencyPermissionDefault(context.Context, *AgencyPermissionDefaultRequest) (*AgencySettingsResponse, error)
}

// NotificationServiceServer は通知 API です。
type NotificationServiceServer interface {
	ListNotifications(context.Context, *NotificationFilter) (*ListNotificationsResponse, error)
	UnreadCount(context.Context, *NotificationFilter) (*CountResponse, error)
	MarkAsRead(context.Context, *NotificationIDRequest) (*NotificationResponse, error)
	MarkAllAsRead(context.Context, *NotificationFilter) (*CountResponse, error)
}

const (
	MemberServiceName       = servicePrefix + "MemberService"
	AbsenceServiceName      = servicePrefix + "AbsenceService"
	AssignmentServiceName   = servicePrefix + "AssignmentService"
	RequestServiceName      = servicePrefix + "RequestService"
	ScheduleServiceName     = servicePrefix + "ScheduleService"
	PermissionServiceName   = servicePrefix + "PermissionService"
	NotificationServiceName = servicePrefix + "NotificationService"
)

var MemberServiceDesc = grpc.ServiceDesc{
	ServiceName: MemberServiceName,
	HandlerType: (*MemberServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		method(MemberServiceName, "CreateMember", MemberServiceServer.CreateMember),
		method(MemberServiceName, "UpdateMember", MemberServiceServer.UpdateMember),
		method(MemberServiceName, "GetMember", MemberServiceServer.GetMember),
		method(MemberServiceName, "DeleteMember", MemberServiceServer.DeleteMember),
		method(MemberServiceName, "DeactivateMember", MemberServiceServer.DeactivateMember),
		method(MemberServiceName, "ReactivateMember", MemberServiceServer.ReactivateMember),
		method(MemberServiceName, "ListMembers", MemberServiceServer.ListMembers),
		method(MemberServiceName, "SetPermissionOverride", MemberServiceServer.SetPermissionOverride),
	},
	Metadata: "teamplan/v1",
}

var AbsenceServiceDesc = grpc.ServiceDesc{
	ServiceName: AbsenceServiceName,
	HandlerType: (*AbsenceServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		method(AbsenceServiceName, "AddAbsence", AbsenceServiceServer.AddAbsence),
		method(AbsenceServiceName, "UpdateAbsence", AbsenceServiceServer.UpdateAbsence),
		method(AbsenceServiceName, "RemoveAbsence", AbsenceServiceServer.RemoveAbsence),
		method(AbsenceServiceName, "GetAbsence", AbsenceServiceServer.GetAbsence),
		method(AbsenceServiceName, "ListAbsences", AbsenceServiceServer.ListAbsences),
		method(AbsenceServiceName, "ListOverlaps", AbsenceServiceServer.ListOverlaps),
	},
	Metadata: "teamplan/v1",
}

var AssignmentServiceDesc = grpc.ServiceDesc{
	ServiceName: AssignmentServiceName,
	HandlerType: (*AssignmentServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		method(AssignmentServiceName, "CreateAssignment", AssignmentServiceServer.CreateAssignment),
		method(AssignmentServiceName, "UpdateAssignment", AssignmentServiceServer.UpdateAssignment),
		method(AssignmentServiceName, "RemoveAssignment", AssignmentServiceServer.RemoveAssignment),
		method(AssignmentServiceName, "GetAssignment", AssignmentServiceServer.GetAssignment),
		method(AssignmentServiceName, "ListAssignments", AssignmentServiceServer.ListAssignments),
	},
	Metadata: "teamplan/v1",
}

var RequestServiceDesc = grpc.ServiceDesc{
	ServiceName: RequestServiceName,
	HandlerType: (*RequestServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		method(RequestServiceName, "CreateRequest", RequestServiceServer.CreateRequest),
		method(RequestServiceName, "ApproveRequest", RequestServiceServer.ApproveRequest),
		method(RequestServiceName, "RejectRequest", RequestServiceServer.RejectRequest),
		method(RequestServiceName, "WithdrawRequest", RequestServiceServer.WithdrawRequest),
		method(RequestServiceName, "DeleteRequest", RequestServiceServer.DeleteRequest),
		method(RequestServiceName, "GetRequest", RequestServiceServer.GetRequest),
		method(RequestServiceName, "ListRequests", RequestServiceServer.ListRequests),
		method(RequestServiceName, "PendingCount", RequestServiceServer.PendingCount),
	},
	Metadata: "teamplan/v1",
}

var ScheduleServiceDesc = grpc.ServiceDesc{
	ServiceName: ScheduleServiceName,
	HandlerType: (*ScheduleServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		method(ScheduleServiceName, "CheckConflicts", ScheduleServiceServer.CheckConflicts),
		method(ScheduleServiceName, "DayStatuses", ScheduleServiceServer.DayStatuses),
		method(ScheduleServiceName, "MemberUtilization", ScheduleServiceServer.MemberUtilization),
		method(ScheduleServiceName, "TeamUtilization", ScheduleServiceServer.TeamUtilization),
	},
	Metadata: "teamplan/v1",
}

var PermissionServiceDesc = grpc.ServiceDesc{
	ServiceName: PermissionServiceName,
	HandlerType: (*PermissionServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		method(PermissionServiceName, "ResolvePermission", PermissionServiceServer.ResolvePermission),
		method(PermissionServiceName, "EffectivePermissions", PermissionServiceServer.EffectivePermissions),
		method(PermissionServiceName, "GetAgencySettings", PermissionServiceServer.GetAgencySettings),
		method(PermissionServiceName, "UpdateAgencySettings", PermissionServiceServer.UpdateAgencySettings),
		method(PermissionServiceName, "SetAgencyPermissionDefault", PermissionServiceServer.SetAgencyPermissionDefault),
	},
	Metadata: "teamplan/v1",
}

var NotificationServiceDesc = grpc.ServiceDesc{
	ServiceName: NotificationServiceName,
	HandlerType: (*NotificationServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		method(NotificationServiceName, "ListNotifications", NotificationServiceServer.ListNotifications),
		method(NotificationServiceName, "UnreadCount", NotificationServiceServer.UnreadCount),
		method(NotificationServiceName, "MarkAsRead", NotificationServiceServer.MarkAsRead),
		method(NotificationServiceName, "MarkAllAsRead", NotificationServiceServer.MarkAllAsRead),
	},
	Metadata: "teamplan/v1",
}

func RegisterMemberServiceServer(s grpc.ServiceRegistrar, srv MemberServiceServer) {
	s.RegisterService(&MemberServiceDesc, srv)
}

func RegisterAbsenceServiceServer(s grpc.ServiceRegistrar, srv AbsenceServiceServer) {
	s.RegisterService(&AbsenceServiceDesc, srv)
}

func RegisterAssignmentServiceServer(s grpc.ServiceRegistrar, srv AssignmentServiceServer) {
	s.RegisterService(&AssignmentServiceDesc, srv)
}

func RegisterRequestServiceServer(s grpc.ServiceRegistrar, srv RequestServiceServer) {
	s.RegisterService(&RequestServiceDesc, srv)
}

func RegisterScheduleServiceServer(s grpc.ServiceRegistrar, srv ScheduleServiceServer) {
	s.RegisterService(&ScheduleServiceDesc, srv)
}

func RegisterPermissionServiceServer(s grpc.ServiceRegistrar, srv PermissionServiceServer) {
	s.RegisterService(&PermissionServiceDesc, srv)
}

func RegisterNotificationServiceServer(s grpc.ServiceRegistrar, srv NotificationServiceServer) {
	s.RegisterService(&NotificationServiceDesc, srv)
}

// Invoke は JSON コーデックで単項 RPC を呼び出します。
func Invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, service, name string, in any, opts ...grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, "/"+service+"/"+name, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func method[S, Req, Resp any](service, name string, call func(S, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	fullMethod := "/" + service + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			if err := requireJSON(ctx); err != nil {
				return nil, err
			}
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(S), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(S), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}
