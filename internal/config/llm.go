package config

import "time"

// LLM provider constants
const (
	ProviderClaude = "claude"
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// LLMConfig holds report writer provider selection. When Provider is
// empty the service runs pipeline-only and responses carry no prose.
type LLMConfig struct {
	// Provider specifies which LLM provider to use: "claude", "gemini",
	// or "openai"
	Provider string `env:"LLM_PROVIDER" yaml:"provider"`

	// Timeout bounds a single rendering call.
	Timeout time.Duration `env:"LLM_TIMEOUT" yaml:"timeout" default:"30s"`
}

// Enabled reports whether a report writer is configured.
func (c LLMConfig) Enabled() bool {
	return c.Provider != ""
}
