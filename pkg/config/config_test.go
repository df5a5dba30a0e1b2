package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sourceSettings struct {
	BaseURL string        `env:"SOURCE_BASE_URL" yaml:"base_url" default:"https://api.open-meteo.com/v1"`
	Timeout time.Duration `env:"SOURCE_TIMEOUT" yaml:"timeout" default:"10s"`
	Retries int           `env:"SOURCE_RETRIES" yaml:"retries" default:"3"`
}

type serviceSettings struct {
	Source sourceSettings `yaml:"source"`

	Name        string   `env:"SVC_NAME" yaml:"name" default:"advisor"`
	APIKey      string   `env:"SVC_API_KEY" yaml:"api_key" required:"true"`
	Port        int      `env:"SVC_PORT" yaml:"port" default:"8080"`
	WindLimit   float64  `env:"SVC_WIND_LIMIT" yaml:"wind_limit" default:"14"`
	CacheOn     bool     `env:"SVC_CACHE_ON" yaml:"cache_on" default:"true"`
	Areas       []string `env:"SVC_AREAS" yaml:"areas"`
	Environment string   `env:"SVC_ENVIRONMENT" yaml:"environment"`
}

type validatedSettings struct {
	Port int `env:"VALIDATED_PORT" yaml:"port" default:"8080"`
}

func (v validatedSettings) Validate() error {
	if v.Port < 1 || v.Port > 65535 {
		return fmt.Errorf("port out of range: %d", v.Port)
	}
	return nil
}

func TestGetConfigFromEnvVars(t *testing.T) {
	t.Run("defaults fill untouched fields", func(t *testing.T) {
		t.Setenv("SVC_API_KEY", "k-123")

		var cfg serviceSettings
		require.NoError(t, GetConfigFromEnvVars(&cfg))

		assert.Equal(t, "advisor", cfg.Name)
		assert.Equal(t, "k-123", cfg.APIKey)
		assert.Equal(t, 8080, cfg.Port)
		assert.Equal(t, 14.0, cfg.WindLimit)
		assert.True(t, cfg.CacheOn)
		assert.Equal(t, "https://api.open-meteo.com/v1", cfg.Source.BaseURL)
		assert.Equal(t, 10*time.Second, cfg.Source.Timeout)
		assert.Equal(t, 3, cfg.Source.Retries)
	})

	t.Run("environment overrides defaults", func(t *testing.T) {
		t.Setenv("SVC_API_KEY", "k-123")
		t.Setenv("SVC_PORT", "9000")
		t.Setenv("SVC_WIND_LIMIT", "17.5")
		t.Setenv("SVC_AREAS", "Bergen, Oslo ,Tromsø")
		t.Setenv("SOURCE_TIMEOUT", "2s")

		var cfg serviceSettings
		require.NoError(t, GetConfigFromEnvVars(&cfg))

		assert.Equal(t, 9000, cfg.Port)
		assert.Equal(t, 17.5, cfg.WindLimit)
		assert.Equal(t, []string{"Bergen", "Oslo", "Tromsø"}, cfg.Areas)
		assert.Equal(t, 2*time.Second, cfg.Source.Timeout)
	})

	t.Run("explicit false survives true default", func(t *testing.T) {
		t.Setenv("SVC_API_KEY", "k-123")
		t.Setenv("SVC_CACHE_ON", "false")

		var cfg serviceSettings
		require.NoError(t, GetConfigFromEnvVars(&cfg))

		assert.False(t, cfg.CacheOn)
	})

	t.Run("missing required field resets dest", func(t *testing.T) {
		var cfg serviceSettings
		err := GetConfigFromEnvVars(&cfg)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "SVC_API_KEY")
		assert.Equal(t, serviceSettings{}, cfg)
	})

	t.Run("malformed env value", func(t *testing.T) {
		t.Setenv("SVC_API_KEY", "k-123")
		t.Setenv("SVC_PORT", "eighty-eighty")

		var cfg serviceSettings
		assert.Error(t, GetConfigFromEnvVars(&cfg))
	})

	t.Run("validator runs after load", func(t *testing.T) {
		t.Setenv("VALIDATED_PORT", "99999")

		var cfg validatedSettings
		err := GetConfigFromEnvVars(&cfg)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "port out of range")
	})
}

func writeTempYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestGetConfig(t *testing.T) {
	t.Run("file then env overlay", func(t *testing.T) {
		path := writeTempYAML(t, `
name: file-advisor
api_key: file-key
port: 7000
source:
  retries: 5
`)
		t.Setenv("SVC_PORT", "7100")

		var cfg serviceSettings
		require.NoError(t, GetConfig(&cfg, path, false))

		assert.Equal(t, "file-advisor", cfg.Name)
		assert.Equal(t, "file-key", cfg.APIKey)
		assert.Equal(t, 7100, cfg.Port, "env must win over the file")
		assert.Equal(t, 5, cfg.Source.Retries)
		assert.Equal(t, 10*time.Second, cfg.Source.Timeout, "defaults still fill gaps")
	})

	t.Run("expands placeholders from environment", func(t *testing.T) {
		path := writeTempYAML(t, `
api_key: ${ADVISOR_SECRET}
environment: ${ADVISOR_ENV}
`)
		t.Setenv("ADVISOR_SECRET", "s3cret")
		t.Setenv("ADVISOR_ENV", "staging")

		var cfg serviceSettings
		require.NoError(t, GetConfig(&cfg, path, false))

		assert.Equal(t, "s3cret", cfg.APIKey)
		assert.Equal(t, "staging", cfg.Environment)
	})

	t.Run("unset placeholder expands empty", func(t *testing.T) {
		path := writeTempYAML(t, `
api_key: ${ADVISOR_MISSING_SECRET}
`)
		var cfg serviceSettings
		err := GetConfig(&cfg, path, false)

		require.Error(t, err, "required api_key ends up empty")
	})

	t.Run("empty path uses env only", func(t *testing.T) {
		t.Setenv("SVC_API_KEY", "env-only")

		var cfg serviceSettings
		require.NoError(t, GetConfig(&cfg, "", false))
		assert.Equal(t, "env-only", cfg.APIKey)
	})

	t.Run("missing file fails when strict", func(t *testing.T) {
		var cfg serviceSettings
		err := GetConfig(&cfg, "/nonexistent/config.yaml", false)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read file")
	})

	t.Run("missing file tolerated when allowed", func(t *testing.T) {
		t.Setenv("SVC_API_KEY", "fallback-key")

		var cfg serviceSettings
		require.NoError(t, GetConfig(&cfg, "/nonexistent/config.yaml", true))
		assert.Equal(t, "fallback-key", cfg.APIKey)
	})

	t.Run("bad yaml fails when strict", func(t *testing.T) {
		path := writeTempYAML(t, "name: [unterminated")

		var cfg serviceSettings
		err := GetConfig(&cfg, path, false)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to unmarshal YAML")
	})
}
