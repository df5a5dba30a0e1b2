package weather

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrCoordinateOutOfRange marks observations whose latitude or longitude
	// falls outside the valid geographic range.
	ErrCoordinateOutOfRange = errors.New("coordinate out of range")

	// ErrIncompleteData marks observations missing a required reading.
	// The failure applies to that single location only.
	ErrIncompleteData = errors.New("incomplete observation data")
)

// Normalize validates a raw observation and converts it into a canonical
// Snapshot. It performs no unit conversion: the source must already report
// SI units. Missing required readings are rejected rather than defaulted,
// so a zero value always means a real measurement.
func Normalize(raw Observation) (Snapshot, error) {
	if strings.TrimSpace(raw.Name) == "" {
		return Snapshot{}, fmt.Errorf("%w: name is required", ErrIncompleteData)
	}
	if raw.Latitude == nil {
		return Snapshot{}, fmt.Errorf("%w: latitude missing for %q", ErrIncompleteData, raw.Name)
	}
	if raw.Longitude == nil {
		return Snapshot{}, fmt.Errorf("%w: longitude missing for %q", ErrIncompleteData, raw.Name)
	}
	if *raw.Latitude < -90 || *raw.Latitude > 90 {
		return Snapshot{}, fmt.Errorf("%w: latitude %.4f outside [-90, 90] for %q", ErrCoordinateOutOfRange, *raw.Latitude, raw.Name)
	}
	if *raw.Longitude < -180 || *raw.Longitude > 180 {
		return Snapshot{}, fmt.Errorf("%w: longitude %.4f outside [-180, 180] for %q", ErrCoordinateOutOfRange, *raw.Longitude, raw.Name)
	}
	if raw.TemperatureC == nil {
		return Snapshot{}, fmt.Errorf("%w: temperature missing for %q", ErrIncompleteData, raw.Name)
	}
	if raw.WindSpeedMS == nil {
		return Snapshot{}, fmt.Errorf("%w: wind speed missing for %q", ErrIncompleteData, raw.Name)
	}
	if raw.HumidityPct == nil {
		return Snapshot{}, fmt.Errorf("%w: humidity missing for %q", ErrIncompleteData, raw.Name)
	}
	if *raw.WindSpeedMS < 0 {
		return Snapshot{}, fmt.Errorf("%w: wind speed %.2f m/s is negative for %q", ErrIncompleteData, *raw.WindSpeedMS, raw.Name)
	}
	if *raw.HumidityPct < 0 || *raw.HumidityPct > 100 {
		return Snapshot{}, fmt.Errorf("%w: humidity %.1f%% outside [0, 100] for %q", ErrIncompleteData, *raw.HumidityPct, raw.Name)
	}
	if raw.PrecipitationMM != nil && *raw.PrecipitationMM < 0 {
		return Snapshot{}, fmt.Errorf("%w: precipitation %.2f mm is negative for %q", ErrIncompleteData, *raw.PrecipitationMM, raw.Name)
	}

	observedAt := time.Now().UTC()
	if raw.ObservedAt != nil && !raw.ObservedAt.IsZero() {
		observedAt = raw.ObservedAt.UTC()
	}

	var precip *float64
	if raw.PrecipitationMM != nil {
		v := *raw.PrecipitationMM
		precip = &v
	}

	return Snapshot{
		LocationID:      locationID(raw),
		Name:            strings.TrimSpace(raw.Name),
		Region:          strings.TrimSpace(raw.Region),
		Country:         strings.TrimSpace(raw.Country),
		Latitude:        *raw.Latitude,
		Longitude:       *raw.Longitude,
		TemperatureC:    *raw.TemperatureC,
		WindSpeedMS:     *raw.WindSpeedMS,
		HumidityPct:     *raw.HumidityPct,
		PrecipitationMM: precip,
		ObservedAt:      observedAt,
	}, nil
}

// locationID returns the source-assigned id when present, otherwise a
// deterministic key derived from the place name and rounded coordinates.
func locationID(raw Observation) string {
	if id := strings.TrimSpace(raw.LocationID); id != "" {
		return id
	}
	slug := strings.ToLower(strings.TrimSpace(raw.Name))
	slug = strings.Join(strings.Fields(slug), "-")
	return fmt.Sprintf("%s:%.3f,%.3f", slug, *raw.Latitude, *raw.Longitude)
}
