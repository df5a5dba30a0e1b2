// Package ranking orders classified locations for an activity, producing
// the primary suggestion and its alternates.
package ranking

import (
	"fmt"
	"sort"

	"github.com/enviweather/envi-advisor/internal/risk"
	"github.com/enviweather/envi-advisor/internal/weather"
)

// RankedLocation pairs a snapshot with its assessment and final position.
// Rank 1 is the primary suggestion. Instances are created fresh per
// ranking request and never mutated afterwards.
type RankedLocation struct {
	Snapshot   weather.Snapshot `json:"snapshot"`
	Assessment risk.Assessment  `json:"assessment"`
	Rank       int              `json:"rank"`
	Rationale  []string         `json:"rationale"`
}

// Options carries the personalization inputs. Tolerance is the stored
// risk tolerance of the session, empty when no preference exists.
type Options struct {
	Tolerance risk.Severity
}

type candidate struct {
	snapshot   weather.Snapshot
	assessment risk.Assessment
}

// Rank classifies every snapshot and orders the results: overall severity
// ascending, then fewer triggered notes, then activity comfort, then
// stable input order. A partial input set ranks whatever it is given;
// empty input yields empty output. Ranks are assigned 1..N exactly once.
func Rank(snapshots []weather.Snapshot, classifier *risk.Classifier, profile risk.ActivityProfile, opts Options) []RankedLocation {
	if len(snapshots) == 0 {
		return []RankedLocation{}
	}

	ordered := make([]candidate, 0, len(snapshots))
	for _, snap := range snapshots {
		ordered = append(ordered, candidate{
			snapshot:   snap,
			assessment: classifier.Classify(snap, profile),
		})
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		return compare(ordered[i], ordered[j], profile.Comfort) < 0
	})

	if opts.Tolerance == risk.SeverityHigh {
		applyTolerancePenalty(ordered, profile.Comfort)
	}

	ranked := make([]RankedLocation, 0, len(ordered))
	for i, c := range ordered {
		ranked = append(ranked, RankedLocation{
			Snapshot:   c.snapshot,
			Assessment: c.assessment,
			Rank:       i + 1,
			Rationale:  rationale(c.assessment),
		})
	}
	return ranked
}

// compare orders two candidates. Negative means a ranks better than b,
// zero means a full tie on every key.
func compare(a, b candidate, comfort risk.ComfortBias) int {
	if a.assessment.Overall.Rank() != b.assessment.Overall.Rank() {
		return a.assessment.Overall.Rank() - b.assessment.Overall.Rank()
	}
	if len(a.assessment.Notes) != len(b.assessment.Notes) {
		return len(a.assessment.Notes) - len(b.assessment.Notes)
	}

	switch comfort {
	case risk.ComfortColdSensitive:
		if a.snapshot.TemperatureC != b.snapshot.TemperatureC {
			if a.snapshot.TemperatureC > b.snapshot.TemperatureC {
				return -1
			}
			return 1
		}
	case risk.ComfortHeatSensitive:
		if a.snapshot.TemperatureC != b.snapshot.TemperatureC {
			if a.snapshot.TemperatureC < b.snapshot.TemperatureC {
				return -1
			}
			return 1
		}
	}

	// Wind breaks remaining ties regardless of the comfort bias.
	if a.snapshot.WindSpeedMS != b.snapshot.WindSpeedMS {
		if a.snapshot.WindSpeedMS < b.snapshot.WindSpeedMS {
			return -1
		}
		return 1
	}
	return 0
}

// applyTolerancePenalty demotes each high-risk location one position below
// where the strict sort placed it, provided a following location exists to
// take its place. A full tie is left untouched so tolerance never
// manufactures an ordering between equals. Each location is demoted at
// most one step.
func applyTolerancePenalty(ordered []candidate, comfort risk.ComfortBias) {
	for i := 0; i < len(ordered)-1; i++ {
		if ordered[i].assessment.Overall != risk.SeverityHigh {
			continue
		}
		if compare(ordered[i], ordered[i+1], comfort) == 0 {
			continue
		}
		ordered[i], ordered[i+1] = ordered[i+1], ordered[i]
		i++
	}
}

// rationale derives the display reasons for one location from its
// assessment alone. The strings are fixed templates over the assessment's
// own fields, nothing is invented.
func rationale(a risk.Assessment) []string {
	reasons := make([]string, 0, len(a.Notes)+1)
	reasons = append(reasons, fmt.Sprintf("overall risk %s", a.Overall))
	if len(a.Notes) == 0 {
		reasons = append(reasons, "no active weather hazards")
		return reasons
	}
	reasons = append(reasons, a.Notes...)
	return reasons
}
