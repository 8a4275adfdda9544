package grpc_control

import (
	"context"
	"testing"
	"time"

	"data-syncer/src/config"
	"data-syncer/src/logger"
	"data-syncer/src/models"
	"data-syncer/src/syncer"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// -----------------------------------------------------------------------------

func newHealthFixture(t *testing.T) (*GRPCService, *syncer.Syncer) {
	t.Helper()

	log := logger.NewLogger("error", "test")
	cfg := &config.Config{MConfig: &models.MConfig{
		Name:      "grpc-test",
		Port:      8080,
		GRPC_Host: "127.0.0.1",
		GRPC_Port: 0, // pick a free port
		Sources: []*models.MSourceConfig{
			{
				Name:      "kpi",
				Transport: models.TransportPull,
				Endpoint:  "http://127.0.0.1:1/kpi",
				Enabled:   false,
			},
		},
	}}

	ds := syncer.NewSyncer(cfg, log)
	require.NoError(t, ds.Start())
	t.Cleanup(func() { ds.Stop() })

	svc, err := NewGRPCService(cfg, log, ds)
	require.NoError(t, err)
	return svc, ds
}

// -----------------------------------------------------------------------------

func TestGRPCService_StartServesHealth(t *testing.T) {
	svc, _ := newHealthFixture(t)

	require.NoError(t, svc.Start())
	require.Eventually(t, svc.IsRunning, time.Second, 5*time.Millisecond)

	conn, err := grpc.NewClient(
		svc.listener.Addr().String(),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	client := grpc_health_v1.NewHealthClient(conn)
	resp, err := client.Check(ctx, &grpc_health_v1.HealthCheckRequest{})
	require.NoError(t, err)
	require.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, resp.Status)

	// A stopped source is published as NOT_SERVING under its own service name
	svc.publishStatuses()
	resp, err = client.Check(ctx, &grpc_health_v1.HealthCheckRequest{Service: "datasync.source.kpi"})
	require.NoError(t, err)
	require.Equal(t, grpc_health_v1.HealthCheckResponse_NOT_SERVING, resp.Status)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()
	require.NoError(t, svc.Stop(stopCtx))
	require.False(t, svc.IsRunning())
}
