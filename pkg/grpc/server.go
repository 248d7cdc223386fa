// Package grpc runs the service's gRPC listener.
//
// It carries no business RPCs. It exposes the standard grpc.health.v1.Health
// service (so load balancers and grpcurl can probe the process) and server
// reflection, behind recovery, logging and Prometheus interceptors.
//
//	srv := grpc.New(log)
//	lis, _ := net.Listen("tcp", ":"+cfg.GRPCPort())
//	go srv.Serve(lis)
//	srv.SetServing(true)
//	...
//	srv.Stop()
package grpc

import (
	"context"
	"log/slog"
	"net"
	"runtime/debug"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"github.com/kwanzatukule/marketplace/pkg/metrics"
)

// ServiceName is the health key reported for the marketplace as a whole,
// alongside the empty "" overall key.
const ServiceName = "kwanza.marketplace"

const maxMsgSize = 4 * 1024 * 1024

// ─── Interceptors ─────────────────────────────────────────────────────────────

// recoveryInterceptor turns a handler panic into codes.Internal.
func recoveryInterceptor(log *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("grpc: panic recovered",
					"method", info.FullMethod,
					"panic", r,
					"stack", string(debug.Stack()),
				)
				err = status.Errorf(codes.Internal, "internal server error")
			}
		}()
		return handler(ctx, req)
	}
}

// observeInterceptor logs each unary call and records it in metrics.
func observeInterceptor(log *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		dur := time.Since(start)
		code := status.Code(err)

		metrics.GRPCHandled.WithLabelValues(info.FullMethod, code.String()).Inc()
		metrics.GRPCDuration.WithLabelValues(info.FullMethod).Observe(dur.Seconds())

		log.Debug("grpc: request",
			"method", info.FullMethod,
			"duration_ms", dur.Milliseconds(),
			"code", code.String(),
		)
		return resp, err
	}
}

// ─── Server ───────────────────────────────────────────────────────────────────

// Server wraps a *grpc.Server with the health service it reports through.
type Server struct {
	srv    *grpc.Server
	health *health.Server
	log    *slog.Logger
}

// New builds the server. Health starts as NOT_SERVING until SetServing(true).
func New(log *slog.Logger, opts ...grpc.ServerOption) *Server {
	if log == nil {
		log = slog.Default()
	}

	base := []grpc.ServerOption{
		// recovery runs outermost so a panic in observe is still caught
		grpc.ChainUnaryInterceptor(recoveryInterceptor(log), observeInterceptor(log)),
		grpc.MaxRecvMsgSize(maxMsgSize),
		grpc.MaxSendMsgSize(maxMsgSize),
	}
	srv := grpc.NewServer(append(base, opts...)...)

	hs := health.NewServer()
	grpc_health_v1.RegisterHealthServer(srv, hs)
	reflection.Register(srv)

	s := &Server{srv: srv, health: hs, log: log}
	s.SetServing(false)
	return s
}

// Register exposes the underlying server for additional services.
func (s *Server) Register(desc *grpc.ServiceDesc, impl any) {
	s.srv.RegisterService(desc, impl)
}

// SetServing flips the reported health of both the overall and the named service.
func (s *Server) SetServing(ok bool) {
	st := grpc_health_v1.HealthCheckResponse_NOT_SERVING
	if ok {
		st = grpc_health_v1.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}

// Serve blocks until lis fails or Stop is called. grpc.ErrServerStopped is
// reported as nil.
func (s *Server) Serve(lis net.Listener) error {
	s.log.Info("gRPC server starting", "addr", lis.Addr().String())
	if err := s.srv.Serve(lis); err != nil && err != grpc.ErrServerStopped {
		return err
	}
	return nil
}

// Stop marks the service NOT_SERVING and waits for in-flight RPCs.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.srv.GracefulStop()
	s.log.Info("gRPC server stopped")
}
