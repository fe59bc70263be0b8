package health

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// TestServer_ReportsStatus serves on loopback and follows status changes.
func TestServer_ReportsStatus(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := NewServer()
	served := make(chan error, 1)

	go func() {
		served <- s.Serve(ctx, lis)
	}()

	conn, err := grpc.NewClient(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)

	defer conn.Close()

	client := healthpb.NewHealthClient(conn)

	check := func() healthpb.HealthCheckResponse_ServingStatus {
		callCtx, callCancel := context.WithTimeout(ctx, 3*time.Second)
		defer callCancel()

		resp, err := client.Check(callCtx, &healthpb.HealthCheckRequest{Service: ServiceName})
		require.NoError(t, err)

		return resp.GetStatus()
	}

	require.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check())

	s.SetServing(true)
	require.Equal(t, healthpb.HealthCheckResponse_SERVING, check())

	cancel()
	require.NoError(t, <-served)
}
