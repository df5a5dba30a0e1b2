package config

import "time"

// ProviderConfig holds condition source configuration. The defaults point
// at the public Open-Meteo endpoints, which require no API key.
type ProviderConfig struct {
	ForecastURL    string        `env:"FORECAST_URL" yaml:"forecast_url" default:"https://api.open-meteo.com/v1/forecast"`
	GeocodingURL   string        `env:"GEOCODING_URL" yaml:"geocoding_url" default:"https://geocoding-api.open-meteo.com/v1/search"`
	Timeout        time.Duration `env:"PROVIDER_TIMEOUT" yaml:"timeout" default:"10s"`
	MaxRetries     int           `env:"PROVIDER_MAX_RETRIES" yaml:"max_retries" default:"3"`
	InitialBackoff time.Duration `env:"PROVIDER_INITIAL_BACKOFF" yaml:"initial_backoff" default:"500ms"`
	MaxBackoff     time.Duration `env:"PROVIDER_MAX_BACKOFF" yaml:"max_backoff" default:"5s"`
}
