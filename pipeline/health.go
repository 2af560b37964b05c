package pipeline

import (
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// Health reports the worker's liveness over the gRPC health protocol
type Health struct {
	server *grpc.Server
	status *health.Server
}

// NewHealth starts in NOT_SERVING until SetServing is called
func NewHealth() *Health {
	h := &Health{server: grpc.NewServer(), status: health.NewServer()}
	h.status.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	grpc_health_v1.RegisterHealthServer(h.server, h.status)
	return h
}

func (h *Health) SetServing(serving bool) {
	status := grpc_health_v1.HealthCheckResponse_NOT_SERVING
	if serving {
		status = grpc_health_v1.HealthCheckResponse_SERVING
	}
	h.status.SetServingStatus("", status)
}

// Serve blocks serving on lis
func (h *Health) Serve(lis net.Listener) error {
	return h.server.Serve(lis)
}

func (h *Health) Stop() {
	h.status.Shutdown()
	h.server.GracefulStop()
}
