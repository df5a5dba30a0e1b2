package health

import (
	"context"
	"sync/atomic"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/enviweather/envi-advisor/pkg/logger"
)

// DefaultGRPCUpdateInterval is how often the gRPC health status is
// refreshed from the readiness checks.
const DefaultGRPCUpdateInterval = 5 * time.Second

// grpcHealthUpdater feeds readiness results into a gRPC health server.
type grpcHealthUpdater struct {
	checker        *HealthChecker
	healthServer   *health.Server
	updateInterval time.Duration
	stopChan       chan struct{}
	stopped        atomic.Bool
}

// RegisterWithGRPC wires the checker into the server under the standard
// grpc.health.v1.Health protocol with the default update interval.
func (h *HealthChecker) RegisterWithGRPC(server *grpc.Server) *grpcHealthUpdater {
	return h.RegisterWithGRPCAndInterval(server, DefaultGRPCUpdateInterval)
}

// RegisterWithGRPCAndInterval registers the health service on the server
// and starts a background goroutine that re-evaluates readiness every
// updateInterval. The empty service name carries the overall status, and
// it reports NOT_SERVING until the first check completes.
func (h *HealthChecker) RegisterWithGRPCAndInterval(server *grpc.Server, updateInterval time.Duration) *grpcHealthUpdater {
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(server, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	updater := &grpcHealthUpdater{
		checker:        h,
		healthServer:   healthServer,
		updateInterval: updateInterval,
		stopChan:       make(chan struct{}),
	}
	go updater.run()

	if h.logger != nil {
		h.logger.Info("gRPC health service registered",
			logger.StringField("update_interval", updateInterval.String()),
		)
	}

	return updater
}

func (u *grpcHealthUpdater) run() {
	ticker := time.NewTicker(u.updateInterval)
	defer ticker.Stop()

	u.refresh()

	for {
		select {
		case <-ticker.C:
			u.refresh()
		case <-u.stopChan:
			u.healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
			if u.checker.logger != nil {
				u.checker.logger.Info("gRPC health updater stopped")
			}
			return
		}
	}
}

// refresh runs the readiness checks and pushes the result to the gRPC
// health server.
func (u *grpcHealthUpdater) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), u.updateInterval)
	defer cancel()

	status, err := u.checker.CheckReadiness(ctx)

	if err != nil || !status.Healthy {
		u.healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
		if u.checker.logger != nil {
			u.checker.logger.Debug("gRPC health status: NOT_SERVING",
				logger.StringField("reason", "readiness check failed"),
			)
		}
		return
	}

	u.healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	if u.checker.logger != nil {
		u.checker.logger.Debug("gRPC health status: SERVING")
	}
}

// Stop halts the background updates and marks the service NOT_SERVING.
// Safe to call more than once.
func (u *grpcHealthUpdater) Stop() {
	if u.stopped.CompareAndSwap(false, true) {
		close(u.stopChan)
	}
}

// Shutdown is an alias for Stop to match common shutdown call sites.
func (u *grpcHealthUpdater) Shutdown() {
	u.Stop()
}
