package grpc

import (
	"context"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// Probe reports whether a dependency is usable.
type Probe func(ctx context.Context) error

// HealthServer exposes grpc.health.v1 with a status that follows probe.
type HealthServer struct {
	server   *grpc.Server
	health   *health.Server
	probe    Probe
	interval time.Duration
	logger   *zap.Logger
}

func NewHealthServer(probe Probe, interval time.Duration, logger *zap.Logger) *HealthServer {
	srv := grpc.NewServer()
	hs := health.NewServer()
	grpc_health_v1.RegisterHealthServer(srv, hs)
	reflection.Register(srv)

	return &HealthServer{
		server:   srv,
		health:   hs,
		probe:    probe,
		interval: interval,
		logger:   logger.With(zap.String("component", "HealthServer")),
	}
}

// Serve checks the probe every interval and serves on lis until Stop.
func (s *HealthServer) Serve(ctx context.Context, lis net.Listener) error {
	s.check(ctx)
	go s.watch(ctx)

	s.logger.Info("Health server listening", zap.String("addr", lis.Addr().String()))
	return s.server.Serve(lis)
}

func (s *HealthServer) watch(ctx context.Context) {
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

func (s *HealthServer) check(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, s.interval)
	defer cancel()

	if err := s.probe(probeCtx); err != nil {
		s.logger.Warn("Health probe failed", zap.Error(err))
		s.health.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
		return
	}
	s.health.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
}

// Stop flips every service to NOT_SERVING and drains connections.
func (s *HealthServer) Stop() {
	s.health.Shutdown()
	s.server.GracefulStop()
}
