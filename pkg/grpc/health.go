package grpc

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/example/qrdine/pkg/config"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthServer serves grpc.health.v1 for the gateway. The named service is
// SERVING while the store answers pings.
type HealthServer struct {
	config   *config.ServerConfig
	server   *grpc.Server
	health   *health.Server
	store    Pinger
	interval time.Duration
	logger   *zap.Logger
}

func NewHealthServer(cfg *config.ServerConfig, store Pinger, interval time.Duration, logger *zap.Logger) *HealthServer {
	srv := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)

	hs.SetServingStatus(cfg.Name, healthpb.HealthCheckResponse_NOT_SERVING)

	return &HealthServer{
		config:   cfg,
		server:   srv,
		health:   hs,
		store:    store,
		interval: interval,
		logger:   logger.Named("health"),
	}
}

func (h *HealthServer) Start() error {
	lis, err := net.Listen("tcp", h.config.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	h.logger.Info("gRPC health server started", zap.String("address", h.config.Addr()))
	return h.Serve(lis)
}

func (h *HealthServer) Serve(lis net.Listener) error {
	return h.server.Serve(lis)
}

// Check pings the store once and publishes the result.
func (h *HealthServer) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := h.store.Ping(ctx); err != nil {
		h.logger.Warn("Store ping failed", zap.Error(err))
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	h.health.SetServingStatus(h.config.Name, status)
	h.health.SetServingStatus("", status)
	return status
}

// Run checks the store every interval until ctx is done.
func (h *HealthServer) Run(ctx context.Context) {
	h.Check(ctx)
	interval := h.interval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.Check(ctx)
		}
	}
}

// Stop marks every service NOT_SERVING and drains connections.
func (h *HealthServer) Stop() {
	h.health.Shutdown()
	h.server.GracefulStop()
}
