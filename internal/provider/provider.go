// Package provider defines the condition-source surface the advisor
// consumes: place lookup by free-text query and a current-conditions
// reading per place. Implementations live in subpackages.
package provider

import (
	"context"
	"errors"

	"github.com/enviweather/envi-advisor/internal/weather"
)

// ErrUnavailable marks failures of the condition source itself: network
// errors, rate limiting, 5xx responses, an open circuit breaker or an
// unreadable payload. Callers map these to a bad-gateway style response.
var ErrUnavailable = errors.New("condition source unavailable")

// Place is one geocoding candidate for a query.
type Place struct {
	LocationID string  `json:"location_id,omitempty"`
	Name       string  `json:"name"`
	Region     string  `json:"region,omitempty"`
	Country    string  `json:"country,omitempty"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
}

// Source resolves place names and fetches raw observations. Readings are
// returned unvalidated; the weather package decides what is usable.
type Source interface {
	// Geocode returns up to limit candidate places for the query, best
	// match first. An unresolvable query returns an empty slice, not an
	// error.
	Geocode(ctx context.Context, query string, limit int) ([]Place, error)

	// Current fetches the latest observation for the place.
	Current(ctx context.Context, place Place) (weather.Observation, error)
}
