// Package health runs liveness and readiness checks with per-check
// timeouts and a consecutive-failure threshold, and exposes the results
// over HTTP and the standard gRPC health protocol.
package health

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/enviweather/envi-advisor/pkg/logger"
)

// Check is a single probe. Check returns nil when healthy.
type Check interface {
	Name() string
	Check(ctx context.Context) error
}

// CheckFunc adapts a plain function to the Check interface.
type CheckFunc struct {
	name string
	fn   func(context.Context) error
}

// NewCheckFunc wraps fn as a named Check.
func NewCheckFunc(name string, fn func(context.Context) error) *CheckFunc {
	return &CheckFunc{name: name, fn: fn}
}

func (c *CheckFunc) Name() string { return c.name }

func (c *CheckFunc) Check(ctx context.Context) error { return c.fn(ctx) }

// CheckResult is the outcome of one check execution.
type CheckResult struct {
	Name    string
	Healthy bool
	Error   string
	Latency time.Duration
}

// HealthStatus aggregates the results of a probe run.
type HealthStatus struct {
	Healthy bool
	Checks  []CheckResult
}

// HealthChecker runs registered liveness and readiness checks. A check
// only reports unhealthy after failing failureThreshold times in a row,
// so a single flaky probe does not bounce the service.
type HealthChecker struct {
	mu               sync.RWMutex
	livenessChecks   []Check
	readinessChecks  []Check
	failStreak       map[string]int
	timeout          time.Duration
	failureThreshold int
	logger           logger.Logger
}

// Option configures a HealthChecker.
type Option func(*HealthChecker)

// WithTimeout sets the per-check timeout. Default 5s.
func WithTimeout(d time.Duration) Option {
	return func(h *HealthChecker) { h.timeout = d }
}

// WithLogger attaches a logger for check outcomes.
func WithLogger(l logger.Logger) Option {
	return func(h *HealthChecker) { h.logger = l }
}

// WithFailureThreshold sets how many consecutive failures flip a check to
// unhealthy. Non-positive values are ignored. Default 3.
func WithFailureThreshold(threshold int) Option {
	return func(h *HealthChecker) {
		if threshold > 0 {
			h.failureThreshold = threshold
		}
	}
}

// New builds a HealthChecker.
func New(opts ...Option) *HealthChecker {
	h := &HealthChecker{
		timeout:          5 * time.Second,
		failureThreshold: 3,
		failStreak:       make(map[string]int),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// AddLivenessCheck registers a check that decides whether the process
// should be restarted.
func (h *HealthChecker) AddLivenessCheck(check Check) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.livenessChecks = append(h.livenessChecks, check)
}

// AddReadinessCheck registers a check that decides whether the service
// should receive traffic.
func (h *HealthChecker) AddReadinessCheck(check Check) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.readinessChecks = append(h.readinessChecks, check)
}

// CheckLiveness runs the liveness checks.
func (h *HealthChecker) CheckLiveness(ctx context.Context) (*HealthStatus, error) {
	h.mu.RLock()
	checks := h.livenessChecks
	h.mu.RUnlock()
	return h.runAll(ctx, checks)
}

// CheckReadiness runs the readiness checks.
func (h *HealthChecker) CheckReadiness(ctx context.Context) (*HealthStatus, error) {
	h.mu.RLock()
	checks := h.readinessChecks
	h.mu.RUnlock()
	return h.runAll(ctx, checks)
}

// runAll executes the checks concurrently. With no checks registered the
// probe counts as healthy.
func (h *HealthChecker) runAll(ctx context.Context, checks []Check) (*HealthStatus, error) {
	if len(checks) == 0 {
		return &HealthStatus{Healthy: true, Checks: []CheckResult{}}, nil
	}

	results := make([]CheckResult, len(checks))
	var wg sync.WaitGroup
	for i, check := range checks {
		wg.Add(1)
		go func(idx int, chk Check) {
			defer wg.Done()
			results[idx] = h.runOne(ctx, chk)
		}(i, check)
	}
	wg.Wait()

	status := &HealthStatus{Healthy: true, Checks: results}
	var failed []string
	for _, result := range results {
		if !result.Healthy {
			status.Healthy = false
			failed = append(failed, result.Name)
		}
	}

	if !status.Healthy {
		return status, fmt.Errorf("health checks failed: %v", failed)
	}
	return status, nil
}

// runOne executes a single check under the configured timeout and applies
// the failure threshold.
func (h *HealthChecker) runOne(parentCtx context.Context, check Check) CheckResult {
	ctx, cancel := context.WithTimeout(parentCtx, h.timeout)
	defer cancel()

	start := time.Now()
	err := check.Check(ctx)
	latency := time.Since(start)

	result := CheckResult{
		Name:    check.Name(),
		Latency: latency,
		Healthy: true,
	}

	healthy, streak := h.recordOutcome(check.Name(), err)

	switch {
	case err == nil:
		if h.logger != nil {
			h.logger.Debug("Health check passed",
				logger.StringField("check", check.Name()),
				logger.DurationField("latency", latency),
			)
		}
	case healthy:
		// Failed, but the streak is still below the threshold.
		if h.logger != nil {
			h.logger.Debug("Health check failed but below threshold",
				logger.StringField("check", check.Name()),
				logger.StringField("error", err.Error()),
				logger.IntField("failures", streak),
				logger.IntField("threshold", h.failureThreshold),
			)
		}
	default:
		result.Healthy = false
		result.Error = err.Error()
		if h.logger != nil {
			h.logger.Warn("Health check failed",
				logger.StringField("check", check.Name()),
				logger.StringField("error", err.Error()),
				logger.IntField("failures", streak),
				logger.DurationField("latency", latency),
			)
		}
	}

	return result
}

// recordOutcome updates the failure streak for a check and reports
// whether it still counts as healthy.
func (h *HealthChecker) recordOutcome(name string, err error) (bool, int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err == nil {
		h.failStreak[name] = 0
		return true, 0
	}

	h.failStreak[name]++
	streak := h.failStreak[name]
	return streak < h.failureThreshold, streak
}
