package risk

import "strings"

// ComfortBias steers how ties between equally risky locations are resolved
// for an activity: cold-sensitive activities prefer warmer locations,
// heat-sensitive ones prefer cooler locations.
type ComfortBias string

const (
	ComfortNeutral       ComfortBias = "neutral"
	ComfortColdSensitive ComfortBias = "cold_sensitive"
	ComfortHeatSensitive ComfortBias = "heat_sensitive"
)

// ActivityProfile narrows which risk factors apply to an activity and how
// comfort ties are broken. Narrowing is a filter on evaluated factors; it
// never changes the threshold table itself.
type ActivityProfile struct {
	Name    string
	Factors []Factor
	Comfort ComfortBias
}

// Evaluates reports whether the profile evaluates the given factor.
func (p ActivityProfile) Evaluates(f Factor) bool {
	for _, pf := range p.Factors {
		if pf == f {
			return true
		}
	}
	return false
}

// DefaultProfile evaluates every factor with neutral comfort. Used for
// activities with no specific profile.
func DefaultProfile(activity string) ActivityProfile {
	return ActivityProfile{
		Name:    activity,
		Factors: AllFactors(),
		Comfort: ComfortNeutral,
	}
}

// ProfileFor resolves the profile for a named activity. Matching is
// case-insensitive; unknown activities fall back to the default profile.
func ProfileFor(activity string) ActivityProfile {
	key := strings.ToLower(strings.TrimSpace(activity))
	switch key {
	case "beach", "swimming":
		// Warm-weather shoreline activities: cold risk is not a hazard
		// that applies, warmth is wanted.
		return ActivityProfile{
			Name:    activity,
			Factors: []Factor{FactorHeat, FactorWind, FactorPrecipitation},
			Comfort: ComfortColdSensitive,
		}
	case "stargazing", "aurora viewing", "aurora":
		// Night-sky activities run in the cold by nature; heat never
		// reaches hazardous levels at night.
		return ActivityProfile{
			Name:    activity,
			Factors: []Factor{FactorCold, FactorWind, FactorPrecipitation},
			Comfort: ComfortNeutral,
		}
	case "skiing", "snowshoeing":
		return ActivityProfile{
			Name:    activity,
			Factors: []Factor{FactorCold, FactorWind, FactorPrecipitation},
			Comfort: ComfortHeatSensitive,
		}
	case "hiking", "trail running", "cycling":
		// Sustained exertion: every factor applies, overheating is the
		// sharper edge.
		return ActivityProfile{
			Name:    activity,
			Factors: AllFactors(),
			Comfort: ComfortHeatSensitive,
		}
	case "picnic", "sightseeing":
		return ActivityProfile{
			Name:    activity,
			Factors: AllFactors(),
			Comfort: ComfortColdSensitive,
		}
	default:
		return DefaultProfile(activity)
	}
}
