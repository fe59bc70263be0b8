//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/oshokin/opentimer/internal/api/grpc/health"
)

// TestDial_ValidatesAddress verifies that Dial rejects empty addresses.
func TestDial_ValidatesAddress(t *testing.T) {
	t.Parallel()

	c, err := Dial(context.Background(), "")
	require.Error(t, err)
	require.Nil(t, c)
}

// TestHealthClient_callContext checks timeout vs cancel-only behavior of callContext.
func TestHealthClient_callContext(t *testing.T) {
	t.Parallel()

	c := &HealthClient{
		callTimeout: 0,
	}

	ctx, cancel := c.callContext(context.Background())
	cancel()

	require.NotNil(t, ctx)

	c.callTimeout = 10 * time.Millisecond

	ctx, cancel = c.callContext(context.Background())
	defer cancel()

	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	require.WithinDuration(t, time.Now().Add(10*time.Millisecond), deadline, 30*time.Millisecond)
}

// TestHealthClient_Check queries a real health server on loopback.
func TestHealthClient_Check(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := health.NewServer()
	s.SetServing(true)

	served := make(chan error, 1)

	go func() {
		served <- s.Serve(ctx, lis)
	}()

	c, err := Dial(ctx, lis.Addr().String(), WithCallTimeout(3*time.Second))
	require.NoError(t, err)

	defer func() {
		require.NoError(t, c.Close())
	}()

	status, err := c.Check(ctx)
	require.NoError(t, err)
	require.Equal(t, healthpb.HealthCheckResponse_SERVING, status)

	cancel()
	require.NoError(t, <-served)
}
