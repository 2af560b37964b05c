package pipeline

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/Gravitalia/socialbook/helpers"
)

func TestHealth(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	h := NewHealth()
	go func() { _ = h.Serve(lis) }()
	t.Cleanup(h.Stop)

	conn, err := grpc.Dial(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	client := grpc_health_v1.NewHealthClient(conn)

	check := func() grpc_health_v1.HealthCheckResponse_ServingStatus {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		res, err := client.Check(ctx, &grpc_health_v1.HealthCheckRequest{})
		require.NoError(t, err)
		return res.GetStatus()
	}

	assert.Equal(t, grpc_health_v1.HealthCheckResponse_NOT_SERVING, check())
	h.SetServing(true)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, check())
}

type pendingFunc func() (uint64, error)

func (f pendingFunc) Pending() (uint64, error) { return f() }

func TestScheduleStats(t *testing.T) {
	calls := make(chan struct{}, 4)
	c, err := ScheduleStats("@every 1s", pendingFunc(func() (uint64, error) {
		calls <- struct{}{}
		return 3, nil
	}), helpers.DiscardLogger())
	require.NoError(t, err)
	defer c.Stop()

	select {
	case <-calls:
	case <-time.After(3 * time.Second):
		t.Fatal("stats job never ran")
	}

	_, err = ScheduleStats("every other tuesday", pendingFunc(func() (uint64, error) { return 0, nil }), helpers.DiscardLogger())
	assert.Error(t, err)
}
