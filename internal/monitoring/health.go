// Package monitoring exposes the operational surface of the advisor:
// liveness and readiness probes over the service's real dependencies,
// plus the Prometheus collectors for the advisory domain.
package monitoring

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/enviweather/envi-advisor/pkg/health"
	"github.com/enviweather/envi-advisor/pkg/health/checkers"
	"github.com/enviweather/envi-advisor/pkg/logger"
)

// Health status constants
const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
	statusReady     = "ready"
	statusNotReady  = "not_ready"
)

// HealthMonitor manages health checks and the probe endpoints.
type HealthMonitor struct {
	checker   *health.HealthChecker
	logger    logger.Logger
	version   string
	startTime time.Time
}

// Config holds configuration for the health monitor. Only the checks for
// configured dependencies are installed; a deployment without Redis gets
// no Redis readiness check.
type Config struct {
	Logger logger.Logger

	// Version is reported on the combined health endpoint.
	Version string

	// ConditionSourceURL, when set, adds a reachability check against
	// the condition source. Any response short of a 5xx counts as
	// reachable.
	ConditionSourceURL string

	// RedisClient, when set, adds a ping check for the snapshot cache.
	RedisClient *redis.Client

	// PostgresPool, when set, adds a ping check for the memory store.
	PostgresPool *pgxpool.Pool

	Timeout          time.Duration // per-check timeout
	FailureThreshold int           // consecutive failures before reporting unhealthy
}

// NewHealthMonitor creates a health monitor with checks for every
// configured dependency.
func NewHealthMonitor(cfg Config) *HealthMonitor {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	failureThreshold := cfg.FailureThreshold
	if failureThreshold == 0 {
		failureThreshold = 3
	}

	checker := health.New(
		health.WithLogger(cfg.Logger),
		health.WithTimeout(timeout),
		health.WithFailureThreshold(failureThreshold),
	)

	// Liveness only proves the process can run a check.
	checker.AddLivenessCheck(health.NewCheckFunc("process", func(ctx context.Context) error {
		return nil
	}))

	if cfg.ConditionSourceURL != "" {
		checker.AddReadinessCheck(checkers.NewHTTPChecker(cfg.ConditionSourceURL, "condition_source"))
	}

	if cfg.RedisClient != nil {
		checker.AddReadinessCheck(checkers.NewRedisChecker(cfg.RedisClient, "snapshot_cache"))
	}

	if cfg.PostgresPool != nil {
		checker.AddReadinessCheck(checkers.NewPgxChecker(cfg.PostgresPool, "memory_store"))
	}

	version := cfg.Version
	if version == "" {
		version = "dev"
	}

	return &HealthMonitor{
		checker:   checker,
		logger:    cfg.Logger,
		version:   version,
		startTime: time.Now(),
	}
}

// Checker exposes the underlying checker, primarily for gRPC health
// registration.
func (hm *HealthMonitor) Checker() *health.HealthChecker {
	return hm.checker
}

// LivenessHandler returns the handler for liveness probes.
// GET /health/live returns 200 while the process can handle requests.
func (hm *HealthMonitor) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		status, err := hm.checker.CheckLiveness(ctx)

		response := map[string]interface{}{
			"status":    statusHealthy,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"uptime":    time.Since(hm.startTime).String(),
			"checks":    status.Checks,
		}

		w.Header().Set("Content-Type", "application/json")

		if err != nil {
			response["status"] = statusUnhealthy
			response["error"] = err.Error()
			w.WriteHeader(http.StatusServiceUnavailable)
			hm.logger.Error("Liveness check failed", logger.ErrorField(err))
		} else {
			w.WriteHeader(http.StatusOK)
		}

		_ = json.NewEncoder(w).Encode(response)
	}
}

// ReadinessHandler returns the handler for readiness probes.
// GET /health/ready returns 200 once every dependency check passes.
func (hm *HealthMonitor) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		status, err := hm.checker.CheckReadiness(ctx)

		response := map[string]interface{}{
			"status":    statusReady,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"checks":    status.Checks,
		}

		w.Header().Set("Content-Type", "application/json")

		if err != nil {
			response["status"] = statusNotReady
			response["error"] = err.Error()
			w.WriteHeader(http.StatusServiceUnavailable)
			hm.logger.Error("Readiness check failed", logger.ErrorField(err))
		} else {
			w.WriteHeader(http.StatusOK)
		}

		_ = json.NewEncoder(w).Encode(response)
	}
}

// HealthHandler returns the combined endpoint covering both probe kinds.
// GET /health reports liveness, readiness, uptime and version together.
func (hm *HealthMonitor) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		livenessStatus, livenessErr := hm.checker.CheckLiveness(ctx)
		readinessStatus, readinessErr := hm.checker.CheckReadiness(ctx)

		response := map[string]interface{}{
			"status":    statusHealthy,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"uptime":    time.Since(hm.startTime).String(),
			"version":   hm.version,
			"liveness": map[string]interface{}{
				"status": statusHealthy,
				"checks": livenessStatus.Checks,
			},
			"readiness": map[string]interface{}{
				"status": statusReady,
				"checks": readinessStatus.Checks,
			},
		}

		w.Header().Set("Content-Type", "application/json")

		overallHealthy := true

		if livenessErr != nil {
			response["liveness"].(map[string]interface{})["status"] = statusUnhealthy
			response["liveness"].(map[string]interface{})["error"] = livenessErr.Error()
			overallHealthy = false
		}

		if readinessErr != nil {
			response["readiness"].(map[string]interface{})["status"] = statusNotReady
			response["readiness"].(map[string]interface{})["error"] = readinessErr.Error()
			overallHealthy = false
		}

		if !overallHealthy {
			response["status"] = statusUnhealthy
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}

		_ = json.NewEncoder(w).Encode(response)
	}
}

// RegisterHandlers registers all probe endpoints on the provided mux.
func (hm *HealthMonitor) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/health", hm.HealthHandler())
	mux.HandleFunc("/health/live", hm.LivenessHandler())
	mux.HandleFunc("/health/ready", hm.ReadinessHandler())
}

// MarkNotReady installs a permanently failing readiness check so load
// balancers drain the instance while shutdown proceeds.
func (hm *HealthMonitor) MarkNotReady() {
	hm.checker.AddReadinessCheck(health.NewCheckFunc("shutdown", func(context.Context) error {
		return errors.New("shutting down")
	}))
}
