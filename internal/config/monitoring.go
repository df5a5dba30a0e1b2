package config

import "time"

// MonitoringConfig holds the ops surface configuration: health endpoints,
// Prometheus metrics and the optional gRPC health service.
type MonitoringConfig struct {
	OpsPort            int           `env:"OPS_PORT" yaml:"ops_port" default:"8081"`
	HealthCheckTimeout time.Duration `env:"HEALTH_CHECK_TIMEOUT" yaml:"health_check_timeout" default:"10s"`
	FailureThreshold   int           `env:"HEALTH_FAILURE_THRESHOLD" yaml:"failure_threshold" default:"3"`
	MetricsEnabled     bool          `env:"METRICS_ENABLED" yaml:"metrics_enabled" default:"true"`
	MetricsPort        int           `env:"METRICS_PORT" yaml:"metrics_port" default:"9090"`

	// GrpcHealthPort serves the standard gRPC health service when
	// non-zero.
	GrpcHealthPort int `env:"GRPC_HEALTH_PORT" yaml:"grpc_health_port"`
}
