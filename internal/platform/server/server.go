package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"

	v1 "github.com/ogurasousui/teamplan/internal/adapters/grpc/teamplanv1"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Handlers は登録する gRPC サービス実装の集合です。nil のサービスは登録しません。
type Handlers struct {
	Member       v1.MemberServiceServer
	Absence      v1.AbsenceServiceServer
	Assignment   v1.AssignmentServiceServer
	Request      v1.RequestServiceServer
	Schedule     v1.ScheduleServiceServer
	Permission   v1.PermissionServiceServer
	Notification v1.NotificationServiceServer
}

// Server は gRPC サーバーのライフサイクルを管理します。
type Server struct {
	listenAddr string
	grpcServer *grpc.Server
	health     *health.Server
	log        logrus.FieldLogger
}

// New は指定されたアドレスで待ち受ける gRPC サーバーを構築します。
func New(listenAddr string, handlers Handlers, log logrus.FieldLogger, opts ...grpc.ServerOption) *Server {
	if log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		log = discard
	}

	opts = append([]grpc.ServerOption{grpc.ChainUnaryInterceptor(
		LoggingInterceptor(log),
		RecoveryInterceptor(log),
	)}, opts...)
	srv := grpc.NewServer(opts...)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)

	register := func(name string, fn func()) {
		fn()
		hs.SetServingStatus(name, healthpb.HealthCheckResponse_SERVING)
	}
	if handlers.Member != nil {
		register(v1.MemberServiceName, func() { v1.RegisterMemberServiceServer(srv, handlers.Member) })
	}
	if handlers.Absence != nil {
		register(v1.AbsenceServiceName, func() { v1.RegisterAbsenceServiceServer(srv, handlers.Absence) })
	}
	if handlers.Assignment != nil {
		register(v1.AssignmentServiceName, func() { v1.RegisterAssignmentServiceServer(srv, handlers.Assignment) })
	}
	if handlers.Request != nil {
		register(v1.RequestServiceName, func() { v1.RegisterRequestServiceServer(srv, handlers.Request) })
	}
	if handlers.Schedule != nil {
		register(v1.ScheduleServiceName, func() { v1.RegisterScheduleServiceServer(srv, handlers.Schedule) })
	}
	if handlers.Permission != nil {
		register(v1.PermissionServiceName, func() { v1.RegisterPermissionServiceServer(srv, handlers.Permission) })
	}
	if handlers.Notification != nil {
		register(v1.NotificationServiceName, func() { v1.RegisterNotificationServiceServer(srv, handlers.Notification) })
	}

	return &Server{
		listenAddr: listenAddr,
		grpcServer: srv,
		health:     hs,
		log:        log,
	}
}

// Run はサーバーを起動し、コンテキストがキャンセルされると GracefulStop します。
func (s *Server) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.listenAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.listenAddr, err)
	}

	go func() {
		<-ctx.Done()
		s.GracefulStop()
	}()

	return s.Serve(lis)
}

// Serve は与えられたリスナーで待ち受けます。
func (s *Server) Serve(lis net.Listener) error {
	s.log.WithField("addr", lis.Addr().String()).Info("gRPC server listening")
	if err := s.grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serve gRPC: %w", err)
	}

	return nil
}

// GracefulStop はヘルスチェックを NOT_SERVING にしてからサーバーを安全に停止します。
func (s *Server) GracefulStop() {
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
}
