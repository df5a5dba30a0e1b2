// Package risk classifies weather snapshots into per-factor and overall
// risk levels against a configurable threshold policy.
package risk

// Severity is an ordered risk level: low < moderate < high.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityModerate Severity = "moderate"
	SeverityHigh     Severity = "high"
)

// Rank returns the ordering value of a severity. Unknown severities rank
// below low so they never dominate a comparison.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityModerate:
		return 2
	case SeverityHigh:
		return 3
	default:
		return 0
	}
}

// Valid reports whether s is one of the three known levels.
func (s Severity) Valid() bool {
	return s == SeverityLow || s == SeverityModerate || s == SeverityHigh
}

// MaxSeverity returns the higher of two severities.
func MaxSeverity(a, b Severity) Severity {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// Factor identifies one evaluated risk category.
type Factor string

const (
	FactorCold          Factor = "cold"
	FactorHeat          Factor = "heat"
	FactorWind          Factor = "wind"
	FactorPrecipitation Factor = "precipitation"
)

// AllFactors lists every known factor in canonical order.
func AllFactors() []Factor {
	return []Factor{FactorCold, FactorHeat, FactorWind, FactorPrecipitation}
}

// ValidFactor reports whether f names a known risk category.
func ValidFactor(f Factor) bool {
	switch f {
	case FactorCold, FactorHeat, FactorWind, FactorPrecipitation:
		return true
	default:
		return false
	}
}
