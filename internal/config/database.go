package config

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// PostgresConfig holds connection settings for the Postgres memory backend.
// A full DSN takes precedence; otherwise the connection string is assembled
// from the individual components. Pool sizing travels as DSN parameters so
// pgxpool picks it up without extra plumbing.
type PostgresConfig struct {
	DSN string `env:"POSTGRES_DSN" yaml:"dsn"`

	Host     string `env:"POSTGRES_HOST" yaml:"host"`
	Port     int    `env:"POSTGRES_PORT" yaml:"port" default:"5432"`
	Database string `env:"POSTGRES_DB" yaml:"database" default:"advisor"`
	Username string `env:"POSTGRES_USER" yaml:"username" default:"postgres"`
	Password string `env:"POSTGRES_PASSWORD" yaml:"password"`
	SSLMode  string `env:"POSTGRES_SSLMODE" yaml:"sslmode" default:"disable"`

	MaxConns int `env:"POSTGRES_MAX_CONNS" yaml:"max_conns" default:"10"`
	MinConns int `env:"POSTGRES_MIN_CONNS" yaml:"min_conns" default:"2"`
}

// Configured reports whether enough is set to reach a database.
func (p PostgresConfig) Configured() bool {
	return p.DSN != "" || p.Host != ""
}

// ConnString returns the pgxpool connection string.
func (p PostgresConfig) ConnString() string {
	if p.DSN != "" {
		return p.DSN
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s&pool_max_conns=%d&pool_min_conns=%d",
		p.Username, p.Password, p.Host, p.Port, p.Database, p.SSLMode, p.MaxConns, p.MinConns)
}

// Validate checks the component settings. Callers should only invoke it
// when the postgres memory backend is selected.
func (p PostgresConfig) Validate() error {
	var result error

	if p.Port < 1 || p.Port > 65535 {
		result = multierror.Append(result, fmt.Errorf("postgres port must be between 1 and 65535, got %d", p.Port))
	}
	if p.MaxConns < 1 {
		result = multierror.Append(result, fmt.Errorf("postgres max_conns must be positive, got %d", p.MaxConns))
	}
	if p.MinConns < 0 || p.MinConns > p.MaxConns {
		result = multierror.Append(result, fmt.Errorf("postgres min_conns must be between 0 and max_conns, got %d", p.MinConns))
	}

	return result
}
