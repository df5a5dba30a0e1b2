package config

// GeminiConfig holds Google Gemini-specific configuration. An empty model
// name selects the adapter's default.
type GeminiConfig struct {
	APIKey string `env:"GEMINI_API_KEY" yaml:"-"`
	Model  string `env:"GEMINI_MODEL" yaml:"model"`
}
