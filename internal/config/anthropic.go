package config

// AnthropicConfig holds Anthropic-specific configuration. An empty model
// name selects the adapter's default.
type AnthropicConfig struct {
	APIKey string `env:"ANTHROPIC_API_KEY" yaml:"-"`
	Model  string `env:"CLAUDE_MODEL" yaml:"model"`
}
