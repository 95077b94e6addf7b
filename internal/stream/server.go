package stream

import (
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/signalsfoundry/logistics-globe/internal/logging"
	"github.com/signalsfoundry/logistics-globe/internal/observability"
)

// ServerOptions configures NewServer.
type ServerOptions struct {
	Logger  logging.Logger
	Metrics *observability.GlobeCollector
}

// NewServer builds a gRPC server with the globe service, the standard health
// service, request-id logging, tracing and metrics interceptors. Spans come
// from the otelgrpc stats handler and the global tracer provider.
func NewServer(svc GlobeServiceServer, opts ServerOptions) (*grpc.Server, *health.Server) {
	unary := []grpc.UnaryServerInterceptor{
		RequestIDUnaryServerInterceptor(opts.Logger),
		TracingUnaryServerInterceptor(),
	}
	streams := []grpc.StreamServerInterceptor{
		RequestIDStreamServerInterceptor(opts.Logger),
		TracingStreamServerInterceptor(),
	}
	if opts.Metrics != nil {
		unary = append(unary, opts.Metrics.UnaryServerInterceptor())
		streams = append(streams, opts.Metrics.StreamServerInterceptor())
	}

	server := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(unary...),
		grpc.ChainStreamInterceptor(streams...),
	)
	RegisterGlobeServiceServer(server, svc)

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(server, hs)
	return server, hs
}
