package grpc_control

import (
	"context"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"data-syncer/src/config"
	"data-syncer/src/logger"
	"data-syncer/src/syncer"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// -----------------------------------------------------------------------------
// GRPCService exposes service and per-source health over the standard gRPC
// health API. Each managed source is published as its own health service
// name, SERVING while it is running with no recorded error.
// -----------------------------------------------------------------------------

type GRPCService struct {
	server       *grpc.Server
	listener     net.Listener
	healthServer *health.Server
	config       *config.Config
	logger       *logger.Logger
	syncer       *syncer.Syncer
	done         chan struct{}
	running      atomic.Bool
}

// -----------------------------------------------------------------------------

// NewGRPCService creates a new GRPCService instance
func NewGRPCService(cfg *config.Config, log *logger.Logger, s *syncer.Syncer) (*GRPCService, error) {
	address := fmt.Sprintf("%s:%d", cfg.GRPC_Host, cfg.GRPC_Port)

	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", address, err)
	}

	server := grpc.NewServer()

	return &GRPCService{
		server:       server,
		listener:     listener,
		healthServer: health.NewServer(),
		config:       cfg,
		logger:       log,
		syncer:       s,
		done:         make(chan struct{}),
	}, nil
}

// -----------------------------------------------------------------------------

// Start starts the gRPC server and the health refresher
func (g *GRPCService) Start() error {
	g.logger.Info("starting gRPC health service on %s", g.listener.Addr().String())

	grpc_health_v1.RegisterHealthServer(g.server, g.healthServer)
	g.healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)

	go func() {
		g.running.Store(true)
		if err := g.server.Serve(g.listener); err != nil && err != grpc.ErrServerStopped {
			g.logger.Error("gRPC server failed: %v", err)
		}
		g.running.Store(false)
	}()

	go g.refreshLoop()

	g.logger.Info("gRPC health service started on %s", g.listener.Addr().String())
	return nil
}

// -----------------------------------------------------------------------------

// Stop gracefully stops the gRPC server
func (g *GRPCService) Stop(ctx context.Context) error {
	g.logger.Info("stopping gRPC health service...")

	close(g.done)

	if g.server != nil {
		done := make(chan struct{})
		go func() {
			g.server.GracefulStop()
			close(done)
		}()

		select {
		case <-ctx.Done():
			g.logger.Warning("gRPC graceful shutdown timeout, forcing stop...")
			g.server.Stop()
		case <-done:
			g.logger.Info("gRPC health service stopped gracefully")
		}
	}

	if g.listener != nil {
		g.listener.Close()
	}

	g.running.Store(false)
	return nil
}

// -----------------------------------------------------------------------------

// IsRunning returns whether the gRPC server is running
func (g *GRPCService) IsRunning() bool {
	return g.running.Load()
}

// -----------------------------------------------------------------------------

// refreshLoop republishes per-source health on a fixed timer
func (g *GRPCService) refreshLoop() {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-g.done:
			return
		case <-ticker.C:
			g.publishStatuses()
		}
	}
}

// -----------------------------------------------------------------------------

// publishStatuses maps each source status onto a health serving status
func (g *GRPCService) publishStatuses() {
	for _, status := range g.syncer.Statuses() {
		serving := grpc_health_v1.HealthCheckResponse_NOT_SERVING
		if status.Running && status.LastError == "" {
			serving = grpc_health_v1.HealthCheckResponse_SERVING
		}
		g.healthServer.SetServingStatus("datasync.source."+status.SourceName, serving)
	}
}
