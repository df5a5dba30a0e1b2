package risk

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// ErrInvalidThresholdConfig marks a malformed threshold override table.
// It is raised at configuration-load time, before any classification runs.
var ErrInvalidThresholdConfig = errors.New("invalid threshold configuration")

// Thresholds holds the numeric boundaries of the classification policy.
// Each factor has a high and a moderate boundary; readings that trigger
// neither are low. Cold compares downward (colder is worse), the other
// factors compare upward.
type Thresholds struct {
	ColdHigh       float64 // temperature below this is high cold risk
	ColdModerate   float64 // temperature below this (and >= ColdHigh) is moderate
	HeatHigh       float64 // temperature above this is high heat risk
	HeatModerate   float64 // temperature above this (and <= HeatHigh) is moderate
	WindHigh       float64 // wind speed above this is high wind risk
	WindModerate   float64 // wind speed above this (and <= WindHigh) is moderate
	PrecipHigh     float64 // precipitation above this is high risk
	PrecipModerate float64 // precipitation above this (and <= PrecipHigh) is moderate
}

// DefaultThresholds returns the stock classification policy.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ColdHigh:       0,
		ColdModerate:   8,
		HeatHigh:       35,
		HeatModerate:   30,
		WindHigh:       14,
		WindModerate:   8,
		PrecipHigh:     10,
		PrecipModerate: 2,
	}
}

// Override replaces one boundary of the threshold table, keyed by factor
// and severity. Only moderate and high boundaries exist; low is the
// residual band and carries no boundary of its own.
type Override struct {
	Factor   Factor   `json:"factor" yaml:"factor"`
	Severity Severity `json:"severity" yaml:"severity"`
	Boundary float64  `json:"boundary" yaml:"boundary"`
}

// Apply returns a copy of t with the given overrides applied. Unknown
// factors or severities, attempts to override the low band, and boundary
// combinations that leave the bands unordered all fail with
// ErrInvalidThresholdConfig. Errors are accumulated so a bad table is
// reported in full.
func (t Thresholds) Apply(overrides []Override) (Thresholds, error) {
	out := t
	var result *multierror.Error

	for _, o := range overrides {
		if !ValidFactor(o.Factor) {
			result = multierror.Append(result, fmt.Errorf("unknown factor %q", o.Factor))
			continue
		}
		switch o.Severity {
		case SeverityHigh, SeverityModerate:
		case SeverityLow:
			result = multierror.Append(result, fmt.Errorf("factor %q: the low band has no boundary to override", o.Factor))
			continue
		default:
			result = multierror.Append(result, fmt.Errorf("factor %q: unknown severity %q", o.Factor, o.Severity))
			continue
		}

		switch {
		case o.Factor == FactorCold && o.Severity == SeverityHigh:
			out.ColdHigh = o.Boundary
		case o.Factor == FactorCold && o.Severity == SeverityModerate:
			out.ColdModerate = o.Boundary
		case o.Factor == FactorHeat && o.Severity == SeverityHigh:
			out.HeatHigh = o.Boundary
		case o.Factor == FactorHeat && o.Severity == SeverityModerate:
			out.HeatModerate = o.Boundary
		case o.Factor == FactorWind && o.Severity == SeverityHigh:
			out.WindHigh = o.Boundary
		case o.Factor == FactorWind && o.Severity == SeverityModerate:
			out.WindModerate = o.Boundary
		case o.Factor == FactorPrecipitation && o.Severity == SeverityHigh:
			out.PrecipHigh = o.Boundary
		case o.Factor == FactorPrecipitation && o.Severity == SeverityModerate:
			out.PrecipModerate = o.Boundary
		}
	}

	if err := out.validate(); err != nil {
		result = multierror.Append(result, err)
	}
	if result.ErrorOrNil() != nil {
		return Thresholds{}, fmt.Errorf("%w: %v", ErrInvalidThresholdConfig, result)
	}
	return out, nil
}

// validate checks that the bands of each factor remain ordered, so every
// reading maps to exactly one severity.
func (t Thresholds) validate() error {
	var result *multierror.Error

	if t.ColdModerate < t.ColdHigh {
		result = multierror.Append(result, fmt.Errorf("cold: moderate boundary %.2f must not be below high boundary %.2f", t.ColdModerate, t.ColdHigh))
	}
	if t.HeatModerate > t.HeatHigh {
		result = multierror.Append(result, fmt.Errorf("heat: moderate boundary %.2f must not be above high boundary %.2f", t.HeatModerate, t.HeatHigh))
	}
	if t.WindModerate > t.WindHigh {
		result = multierror.Append(result, fmt.Errorf("wind: moderate boundary %.2f must not be above high boundary %.2f", t.WindModerate, t.WindHigh))
	}
	if t.WindModerate < 0 || t.WindHigh < 0 {
		result = multierror.Append(result, fmt.Errorf("wind: boundaries must not be negative"))
	}
	if t.PrecipModerate > t.PrecipHigh {
		result = multierror.Append(result, fmt.Errorf("precipitation: moderate boundary %.2f must not be above high boundary %.2f", t.PrecipModerate, t.PrecipHigh))
	}
	if t.PrecipModerate < 0 || t.PrecipHigh < 0 {
		result = multierror.Append(result, fmt.Errorf("precipitation: boundaries must not be negative"))
	}

	return result.ErrorOrNil()
}
