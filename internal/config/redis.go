package config

import "time"

// RedisConfig holds snapshot cache configuration. The cache is disabled
// unless an address is set.
type RedisConfig struct {
	Address  string        `env:"REDIS_ADDRESS" yaml:"address"`
	Password string        `env:"REDIS_PASSWORD" yaml:"-"`
	Database int           `env:"REDIS_DATABASE" yaml:"database" default:"0"`
	TTL      time.Duration `env:"CACHE_TTL" yaml:"ttl" default:"10m"`
}

// Enabled reports whether the snapshot cache is configured.
func (c RedisConfig) Enabled() bool {
	return c.Address != ""
}
