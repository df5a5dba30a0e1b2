package risk

import (
	"fmt"
	"sort"

	"github.com/enviweather/envi-advisor/internal/weather"
)

// Finding is the outcome for a single risk factor: its severity and the
// cause string surfaced to callers. Causes follow the fixed
// "factor:severity" form so downstream consumers can rely on them.
type Finding struct {
	Factor   Factor   `json:"factor"`
	Severity Severity `json:"severity"`
	Cause    string   `json:"cause"`
}

// Assessment is the classification of exactly one snapshot. Overall is the
// maximum severity across evaluated factors; Notes lists the cause of
// every moderate or high finding, most severe first. An Assessment is
// never mutated after Classify returns it.
type Assessment struct {
	Factors []Finding `json:"factors"`
	Overall Severity  `json:"overall"`
	Notes   []string  `json:"notes"`
}

// Classifier applies a fixed threshold policy to snapshots. It is
// stateless after construction and safe for concurrent use.
type Classifier struct {
	thresholds Thresholds
}

// NewClassifier builds a classifier from the default policy plus the given
// overrides. A malformed override table fails here, before any snapshot is
// classified.
func NewClassifier(overrides []Override) (*Classifier, error) {
	thresholds, err := DefaultThresholds().Apply(overrides)
	if err != nil {
		return nil, err
	}
	return &Classifier{thresholds: thresholds}, nil
}

// NewClassifierWithThresholds builds a classifier from an explicit,
// already validated policy.
func NewClassifierWithThresholds(t Thresholds) *Classifier {
	return &Classifier{thresholds: t}
}

// Thresholds returns the policy this classifier applies.
func (c *Classifier) Thresholds() Thresholds {
	return c.thresholds
}

// Classify scores one snapshot for the given activity profile. The profile
// filters which factors are evaluated before the overall maximum is taken.
// The result is deterministic: the same snapshot, thresholds and profile
// always produce the same assessment.
func (c *Classifier) Classify(snap weather.Snapshot, profile ActivityProfile) Assessment {
	factors := profile.Factors
	if len(factors) == 0 {
		factors = AllFactors()
	}

	findings := make([]Finding, 0, len(factors))
	overall := SeverityLow
	for _, f := range AllFactors() {
		if !containsFactor(factors, f) {
			continue
		}
		severity := c.evaluate(f, snap)
		findings = append(findings, Finding{
			Factor:   f,
			Severity: severity,
			Cause:    fmt.Sprintf("%s:%s", f, severity),
		})
		overall = MaxSeverity(overall, severity)
	}

	return Assessment{
		Factors: findings,
		Overall: overall,
		Notes:   buildNotes(findings),
	}
}

// evaluate maps one reading onto the severity bands for a factor.
func (c *Classifier) evaluate(f Factor, snap weather.Snapshot) Severity {
	t := c.thresholds
	switch f {
	case FactorCold:
		switch {
		case snap.TemperatureC < t.ColdHigh:
			return SeverityHigh
		case snap.TemperatureC < t.ColdModerate:
			return SeverityModerate
		default:
			return SeverityLow
		}
	case FactorHeat:
		switch {
		case snap.TemperatureC > t.HeatHigh:
			return SeverityHigh
		case snap.TemperatureC > t.HeatModerate:
			return SeverityModerate
		default:
			return SeverityLow
		}
	case FactorWind:
		switch {
		case snap.WindSpeedMS > t.WindHigh:
			return SeverityHigh
		case snap.WindSpeedMS > t.WindModerate:
			return SeverityModerate
		default:
			return SeverityLow
		}
	case FactorPrecipitation:
		if !snap.HasPrecipitation() {
			return SeverityLow
		}
		switch {
		case *snap.PrecipitationMM > t.PrecipHigh:
			return SeverityHigh
		case *snap.PrecipitationMM > t.PrecipModerate:
			return SeverityModerate
		default:
			return SeverityLow
		}
	default:
		return SeverityLow
	}
}

// buildNotes collects the causes of every moderate or high finding,
// ordered by severity descending then factor name for determinism.
func buildNotes(findings []Finding) []string {
	triggered := make([]Finding, 0, len(findings))
	for _, f := range findings {
		if f.Severity.Rank() >= SeverityModerate.Rank() {
			triggered = append(triggered, f)
		}
	}
	sort.SliceStable(triggered, func(i, j int) bool {
		if triggered[i].Severity.Rank() != triggered[j].Severity.Rank() {
			return triggered[i].Severity.Rank() > triggered[j].Severity.Rank()
		}
		return triggered[i].Factor < triggered[j].Factor
	})

	notes := make([]string, 0, len(triggered))
	for _, f := range triggered {
		notes = append(notes, f.Cause)
	}
	return notes
}

func containsFactor(factors []Factor, f Factor) bool {
	for _, candidate := range factors {
		if candidate == f {
			return true
		}
	}
	return false
}
