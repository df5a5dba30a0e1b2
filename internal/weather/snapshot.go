// Package weather defines the canonical per-location observation model and
// the normalization step that turns raw provider readings into it.
package weather

import (
	"time"
)

// Snapshot is the normalized weather view for one location at one
// observation time. All numeric fields are SI units: °C, m/s, %.
type Snapshot struct {
	LocationID      string    `json:"location_id"`
	Name            string    `json:"name"`
	Region          string    `json:"region,omitempty"`
	Country         string    `json:"country,omitempty"`
	Latitude        float64   `json:"latitude"`
	Longitude       float64   `json:"longitude"`
	TemperatureC    float64   `json:"temperature_c"`
	WindSpeedMS     float64   `json:"wind_speed_ms"`
	HumidityPct     float64   `json:"humidity_pct"`
	PrecipitationMM *float64  `json:"precipitation_mm,omitempty"`
	ObservedAt      time.Time `json:"observed_at"` // always UTC
}

// HasPrecipitation reports whether the source provided a precipitation
// reading. Absence is valid and treated as low risk downstream.
func (s Snapshot) HasPrecipitation() bool {
	return s.PrecipitationMM != nil
}

// Observation is a raw per-location reading as delivered by a data source,
// before validation. Required numeric fields are pointers so that a missing
// value is distinguishable from a legitimate zero.
type Observation struct {
	LocationID      string     `json:"location_id,omitempty"`
	Name            string     `json:"name"`
	Region          string     `json:"region,omitempty"`
	Country         string     `json:"country,omitempty"`
	Latitude        *float64   `json:"latitude"`
	Longitude       *float64   `json:"longitude"`
	TemperatureC    *float64   `json:"temperature_c"`
	WindSpeedMS     *float64   `json:"wind_speed_ms"`
	HumidityPct     *float64   `json:"humidity_pct"`
	PrecipitationMM *float64   `json:"precipitation_mm,omitempty"`
	ObservedAt      *time.Time `json:"observed_at,omitempty"`
}
