package config

// Memory backend constants
const (
	MemoryBackendInProcess = "memory"
	MemoryBackendFile      = "file"
	MemoryBackendPostgres  = "postgres"
)

// MemoryConfig selects the session memory backend. All backends share the
// same semantics; the choice is invisible to API callers.
type MemoryConfig struct {
	Backend string `env:"MEMORY_BACKEND" yaml:"backend" default:"memory"`
}
