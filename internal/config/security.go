package config

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" yaml:"cors_allowed_origins" default:"http://localhost:3000,http://localhost:8080"`
	MaxRequestSize     int64    `env:"MAX_REQUEST_SIZE" yaml:"max_request_size" default:"1048576"` // 1MB default

	// MaxConcurrentRequests bounds in-flight API requests; excess
	// requests queue and time out.
	MaxConcurrentRequests int `env:"MAX_CONCURRENT_REQUESTS" yaml:"max_concurrent_requests" default:"100"`
}
