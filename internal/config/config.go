package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/enviweather/envi-advisor/pkg/logger"
)

// AppConfig holds all application configuration
type AppConfig struct {
	// Service configuration
	ServiceName string `env:"SERVICE_NAME" yaml:"service_name" default:"envi-advisor"`
	Version     string `env:"VERSION" yaml:"version" default:"dev"`
	Environment string `env:"ENVIRONMENT" yaml:"environment" default:"development"`

	// API server configuration
	Port           int           `env:"PORT" yaml:"port" default:"8080"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" yaml:"request_timeout" default:"30s"`
	IdleTimeout    time.Duration `env:"IDLE_TIMEOUT" yaml:"idle_timeout" default:"60s"`

	// Condition source configuration
	Provider ProviderConfig `yaml:"provider"`

	// Risk threshold overrides
	Risk RiskConfig `yaml:"risk"`

	// Session memory backend selection
	Memory MemoryConfig `yaml:"memory"`

	// Report and file storage configuration
	Storage StorageConfig `yaml:"storage"`

	// Snapshot cache configuration (optional)
	Redis RedisConfig `yaml:"redis"`

	// Postgres memory backend configuration (optional)
	Postgres PostgresConfig `yaml:"postgres"`

	// Report writer provider selection (optional)
	LLM       LLMConfig       `yaml:"llm"`
	Gemini    GeminiConfig    `yaml:"gemini"`
	Anthropic AnthropicConfig `yaml:"anthropic"`
	OpenAI    OpenAIConfig    `yaml:"openai"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging"`

	// Monitoring configuration
	Monitoring MonitoringConfig `yaml:"monitoring"`

	// Security configuration
	Security SecurityConfig `yaml:"security"`
}

// Validate validates the configuration and returns an error if invalid
func (c *AppConfig) Validate() error {
	var result error

	validLevels := []string{"debug", "info", "warn", "error"}
	level := strings.ToLower(c.Logging.Level)
	valid := false
	for _, validLevel := range validLevels {
		if level == validLevel {
			valid = true
			break
		}
	}
	if !valid {
		result = multierror.Append(result, fmt.Errorf("log_level must be one of [debug, info, warn, error], got %q", c.Logging.Level))
	}

	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		result = multierror.Append(result, fmt.Errorf("log_format must be either 'json' or 'text', got %q", c.Logging.Format))
	}

	if c.Port < 1 || c.Port > 65535 {
		result = multierror.Append(result, fmt.Errorf("port must be between 1 and 65535, got %d", c.Port))
	}

	if c.RequestTimeout <= 0 {
		result = multierror.Append(result, fmt.Errorf("request_timeout must be greater than 0"))
	}

	if c.Provider.MaxRetries < 0 {
		result = multierror.Append(result, fmt.Errorf("provider max_retries cannot be negative"))
	}

	if c.Provider.InitialBackoff <= 0 {
		result = multierror.Append(result, fmt.Errorf("provider initial_backoff must be greater than 0"))
	}

	if c.Provider.MaxBackoff < c.Provider.InitialBackoff {
		result = multierror.Append(result, fmt.Errorf("provider max_backoff must be greater than or equal to initial_backoff"))
	}

	if c.Provider.Timeout <= 0 {
		result = multierror.Append(result, fmt.Errorf("provider timeout must be greater than 0"))
	}

	switch c.Memory.Backend {
	case MemoryBackendInProcess, MemoryBackendFile:
	case MemoryBackendPostgres:
		if !c.Postgres.Configured() {
			result = multierror.Append(result, fmt.Errorf("postgres dsn or host is required when memory backend is %q", MemoryBackendPostgres))
		} else if err := c.Postgres.Validate(); err != nil {
			result = multierror.Append(result, err)
		}
	default:
		result = multierror.Append(result, fmt.Errorf("memory backend must be one of [memory, file, postgres], got %q", c.Memory.Backend))
	}

	switch c.Storage.Backend {
	case "local":
	case "s3":
		if c.Storage.S3Bucket == "" {
			result = multierror.Append(result, fmt.Errorf("storage s3_bucket is required when storage backend is 's3'"))
		}
	default:
		result = multierror.Append(result, fmt.Errorf("storage backend must be either 'local' or 's3', got %q", c.Storage.Backend))
	}

	switch strings.ToLower(c.LLM.Provider) {
	case "":
	case ProviderClaude:
		if c.Anthropic.APIKey == "" {
			result = multierror.Append(result, fmt.Errorf("anthropic api key is required when llm provider is %q", ProviderClaude))
		}
	case ProviderGemini:
		if c.Gemini.APIKey == "" {
			result = multierror.Append(result, fmt.Errorf("gemini api key is required when llm provider is %q", ProviderGemini))
		}
	case ProviderOpenAI:
		if c.OpenAI.APIKey == "" {
			result = multierror.Append(result, fmt.Errorf("openai api key is required when llm provider is %q", ProviderOpenAI))
		}
	default:
		result = multierror.Append(result, fmt.Errorf("llm provider must be one of [claude, gemini, openai] or empty, got %q", c.LLM.Provider))
	}

	if c.LLM.Timeout <= 0 {
		result = multierror.Append(result, fmt.Errorf("llm timeout must be greater than 0"))
	}

	if c.Redis.Enabled() && c.Redis.TTL <= 0 {
		result = multierror.Append(result, fmt.Errorf("redis ttl must be greater than 0 when redis is configured"))
	}

	if c.Security.MaxRequestSize <= 0 {
		result = multierror.Append(result, fmt.Errorf("max_request_size must be greater than 0"))
	}

	if c.Security.MaxConcurrentRequests <= 0 {
		result = multierror.Append(result, fmt.Errorf("max_concurrent_requests must be greater than 0"))
	}

	if c.Monitoring.OpsPort < 1 || c.Monitoring.OpsPort > 65535 {
		result = multierror.Append(result, fmt.Errorf("ops_port must be between 1 and 65535, got %d", c.Monitoring.OpsPort))
	}

	if c.Monitoring.MetricsEnabled && (c.Monitoring.MetricsPort < 1 || c.Monitoring.MetricsPort > 65535) {
		result = multierror.Append(result, fmt.Errorf("metrics_port must be between 1 and 65535, got %d", c.Monitoring.MetricsPort))
	}

	return result
}

// GetLogLevel returns the parsed logger level
func (c *AppConfig) GetLogLevel() logger.Level {
	switch strings.ToLower(c.Logging.Level) {
	case "debug":
		return logger.DebugLevel
	case "warn", "warning":
		return logger.WarnLevel
	case "error":
		return logger.ErrorLevel
	default:
		return logger.InfoLevel
	}
}

// IsProduction returns true if running in production environment
func (c *AppConfig) IsProduction() bool {
	return strings.ToLower(c.Environment) == "production"
}

// IsDevelopment returns true if running in development environment
func (c *AppConfig) IsDevelopment() bool {
	env := strings.ToLower(c.Environment)
	return env == "development" || env == "dev"
}

// LogConfig logs the current configuration (without sensitive data)
func (c *AppConfig) LogConfig(log logger.Logger) {
	log.Info("Application configuration loaded",
		logger.StringField("service_name", c.ServiceName),
		logger.StringField("version", c.Version),
		logger.StringField("environment", c.Environment),
		logger.IntField("port", c.Port),
		logger.StringField("log_level", c.Logging.Level),
		logger.StringField("log_format", c.Logging.Format),
		logger.StringField("memory_backend", c.Memory.Backend),
		logger.StringField("storage_backend", c.Storage.Backend),
		logger.BoolField("cache_enabled", c.Redis.Enabled()),
		logger.StringField("llm_provider", c.LLM.Provider),
		logger.IntField("risk_overrides", len(c.Risk.Overrides)),
		logger.BoolField("metrics_enabled", c.Monitoring.MetricsEnabled),
	)
}
