package teamplanv1_test

import (
	"context"
	"net"
	"strings"
	"testing"

	v1 "github.com/ogurasousui/teamplan/internal/adapters/grpc/teamplanv1"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type fakeMemberServer struct {
	v1.MemberServiceServer

	got *v1.CreateMemberRequest
}

func (f *fakeMemberServer) CreateMember(_ context.Context, req *v1.CreateMemberRequest) (*v1.MemberResponse, error) {
	f.got = req
	return &v1.MemberResponse{Member: &v1.Member{ID: "member-1", Name: req.Name, WorkingDays: req.WorkingDays, Version: 1}}, nil
}

func (f *fakeMemberServer) GetMember(context.Context, *v1.MemberIDRequest) (*v1.MemberResponse, error) {
	return nil, status.Error(codes.NotFound, "member: not found")
}

func (f *fakeMemberServer) DeleteMember(context.Context, *v1.MemberIDRequest) (*v1.Empty, error) {
	return &v1.Empty{}, nil
}

func dial(t *testing.T, srv v1.MemberServiceServer, opts ...grpc.ServerOption) *grpc.ClientConn {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	server := grpc.NewServer(opts...)
	v1.RegisterMemberServiceServer(server, srv)
	go func() {
		_ = server.Serve(lis)
	}()
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestMemberService_RoundTrip(t *testing.T) {
	t.Parallel()

	fake := &fakeMemberServer{}
	conn := dial(t, fake)
	ctx := context.Background()

	resp, err := v1.Invoke[v1.MemberResponse](ctx, conn, v1.MemberServiceName, "CreateMember", &v1.CreateMemberRequest{
		AgencyID:    "agency-1",
		Name:        "Ada",
		WorkingDays: []string{"mon", "tue"},
	})
	if err != nil {
		t.Fatalf("CreateMember returned error: %v", err)
	}
	if fake.got == nil || fake.got.AgencyID != "agency-1" {
		t.Fatalf("server did not receive decoded request: %+v", fake.got)
	}
	if resp.Member.ID != "member-1" || resp.Member.Version != 1 || len(resp.Member.WorkingDays) != 2 {
		t.Fatalf("unexpected response %+v", resp.Member)
	}

	if _, err := v1.Invoke[v1.Empty](ctx, conn, v1.MemberServiceName, "DeleteMember", &v1.MemberIDRequest{ID: "member-1"}); err != nil {
		t.Fatalf("DeleteMember returned error: %v", err)
	}

	_, err = v1.Invoke[v1.MemberResponse](ctx, conn, v1.MemberServiceName, "GetMember", &v1.MemberIDRequest{ID: "ghost"})
	if status.Code(err) != codes.NotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestMemberService_InterceptorSeesFullMethod(t *testing.T) {
	t.Parallel()

	var seen string
	interceptor := func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		seen = info.FullMethod
		return handler(ctx, req)
	}
	conn := dial(t, &fakeMemberServer{}, grpc.UnaryInterceptor(interceptor))

	if _, err := v1.Invoke[v1.Empty](context.Background(), conn, v1.MemberServiceName, "DeleteMember", &v1.MemberIDRequest{ID: "member-1"}); err != nil {
		t.Fatalf("DeleteMember returned error: %v", err)
	}
	if seen != "/teamplan.v1.MemberService/DeleteMember" {
		t.Fatalf("unexpected full method %q", seen)
	}
}

func TestCodec_EmptyPayload(t *testing.T) {
	t.Parallel()

	var req v1.MemberIDRequest
	if err := (v1.Codec{}).Unmarshal(nil, &req); err != nil {
		t.Fatalf("Unmarshal returned error: %v", err)
	}
	if req.ID != "" {
		t.Fatalf("expected zero value, got %+v", req)
	}
	if err := (v1.Codec{}).Unmarshal([]byte("{"), &req); err == nil {
		t.Fatalf("expected error for malformed payload")
	}
}

type protoNamedCodec struct {
	v1.Codec
}

func (protoNamedCodec) Name() string {
	return "proto"
}

func TestMemberService_RejectsNonJSONSubtype(t *testing.T) {
	t.Parallel()

	fake := &fakeMemberServer{}
	conn := dial(t, fake)

	var out v1.MemberResponse
	err := conn.Invoke(context.Background(), "/"+v1.MemberServiceName+"/CreateMember",
		&v1.CreateMemberRequest{AgencyID: "agency-1", Name: "Ada"}, &out, grpc.ForceCodec(protoNamedCodec{}))
	if status.Code(err) != codes.Unimplemented {
		t.Fatalf("expected Unimplemented, got %v", err)
	}
	if !strings.Contains(status.Convert(err).Message(), `"proto"`) {
		t.Fatalf("expected message to name the rejected subtype, got %q", status.Convert(err).Message())
	}
	if fake.got != nil {
		t.Fatalf("handler must not run for rejected calls")
	}
}
