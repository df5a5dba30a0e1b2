package config

import "github.com/enviweather/envi-advisor/internal/risk"

// RiskConfig holds risk classification tuning. Overrides replace single
// threshold boundaries and are validated when the classifier is built, so
// a bad table fails at startup rather than per query. Overrides are
// structured and therefore YAML-only.
type RiskConfig struct {
	Overrides []risk.Override `yaml:"overrides"`
}
