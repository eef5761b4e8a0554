package grpc

import (
	"context"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"book-reservation-backend/internal/api/grpc/interceptor"
	"book-reservation-backend/internal/logger"
)

// ReservationServiceName is the health service name reported alongside the
// overall ("") status
const ReservationServiceName = "reservations.v1.ReservationService"

// HealthProbe reports whether the backing store can serve requests
type HealthProbe func(ctx context.Context) error

// Server exposes gRPC health checking and reflection for the reservation
// backend
type Server struct {
	server *grpc.Server
	health *health.Server
	probe  HealthProbe
}

// NewServer builds the gRPC server. Every registered method is a public
// health or reflection call, so no authentication runs here.
func NewServer(probe HealthProbe) *Server {
	s := &Server{
		server: grpc.NewServer(grpc.ChainUnaryInterceptor(interceptor.Logging())),
		health: health.NewServer(),
		probe:  probe,
	}
	healthpb.RegisterHealthServer(s.server, s.health)
	reflection.Register(s.server)
	return s
}

// CheckHealth runs the probe once and publishes the result
func (s *Server) CheckHealth(ctx context.Context) {
	st := healthpb.HealthCheckResponse_SERVING
	if s.probe != nil {
		if err := s.probe(ctx); err != nil {
			logger.Warn("Health probe failed", "error", err)
			st = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ReservationServiceName, st)
}

// MonitorHealth re-runs the probe every interval until ctx is cancelled
func (s *Server) MonitorHealth(ctx context.Context, interval time.Duration) {
	s.CheckHealth(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.CheckHealth(ctx)
		}
	}
}

func (s *Server) Serve(lis net.Listener) error {
	return s.server.Serve(lis)
}

// GracefulStop marks every service NOT_SERVING and drains in-flight calls
func (s *Server) GracefulStop() {
	s.health.Shutdown()
	s.server.GracefulStop()
}
