package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// GrpcRequestsInterceptor is a grpc.UnaryServerInterceptor mirroring the
// HTTP instrumentation for unary calls.
func (m *Metrics) GrpcRequestsInterceptor(
	ctx context.Context,
	req interface{},
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (interface{}, error) {
	start := time.Now()
	m.grpcRequests.Inc()

	resp, err := handler(ctx, req)

	m.grpcLatency.Observe(time.Since(start).Seconds())
	m.recordGrpcStatus(status.Code(err))
	return resp, err
}

// recordGrpcStatus bumps the counter for the status code, creating and
// registering it on first sight.
func (m *Metrics) recordGrpcStatus(code codes.Code) {
	m.mu.Lock()
	c, ok := m.grpcByCode[int(code)]
	if !ok {
		c = prometheus.NewCounter(prometheus.CounterOpts{
			Subsystem: subsystem,
			Name:      fmt.Sprintf("grpc_responses_%d_total", int(code)),
			Help:      fmt.Sprintf("gRPC %s responses returned", code.String()),
		})
		m.reg.MustRegister(c)
		m.grpcByCode[int(code)] = c
	}
	m.mu.Unlock()
	c.Inc()
}
