package grpc

import (
	"context"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"motorvault/internal/logger"
)

// ServiceName is the health-checked service name. The empty name reports the
// same status.
const ServiceName = "motorvault.Economy"

const defaultCheckInterval = 10 * time.Second

// Pinger reports whether the persistent store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server exposes the standard gRPC health protocol. Serving status follows
// the store: it flips to NOT_SERVING while the store cannot be pinged.
type Server struct {
	srv      *grpc.Server
	health   *health.Server
	pinger   Pinger
	addr     string
	interval time.Duration
}

func NewServer(addr string, pinger Pinger) *Server {
	s := &Server{
		srv:      grpc.NewServer(),
		health:   health.NewServer(),
		pinger:   pinger,
		addr:     addr,
		interval: defaultCheckInterval,
	}
	healthpb.RegisterHealthServer(s.srv, s.health)
	return s
}

func (s *Server) Start(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	return s.Serve(ctx, lis)
}

// Serve runs on an existing listener.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	s.check(ctx)
	go s.watch(ctx)
	logger.InfoCtx(ctx, "gRPC health server is running", zap.String("addr", lis.Addr().String()))
	return s.srv.Serve(lis)
}

func (s *Server) Stop(ctx context.Context) error {
	s.health.Shutdown()
	s.srv.GracefulStop()
	return nil
}

func (s *Server) watch(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.check(ctx)
		}
	}
}

func (s *Server) check(ctx context.Context) {
	status := healthpb.HealthCheckResponse_SERVING
	if err := s.pinger.Ping(ctx); err != nil {
		logger.WarnCtx(ctx, "store ping failed", zap.Error(err))
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}
