package weather

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enviweather/envi-advisor/pkg/utils"
)

func validObservation() Observation {
	observed := time.Date(2026, 3, 14, 21, 30, 0, 0, time.UTC)
	return Observation{
		LocationID:   "3871336",
		Name:         "Punta Arenas",
		Region:       "Magallanes",
		Country:      "Chile",
		Latitude:     utils.ToPtr(-53.1638),
		Longitude:    utils.ToPtr(-70.9171),
		TemperatureC: utils.ToPtr(4.4),
		WindSpeedMS:  utils.ToPtr(13.5),
		HumidityPct:  utils.ToPtr(71.0),
		ObservedAt:   &observed,
	}
}

func TestNormalize_ValidObservation(t *testing.T) {
	raw := validObservation()

	snap, err := Normalize(raw)
	require.NoError(t, err)

	assert.Equal(t, "3871336", snap.LocationID)
	assert.Equal(t, "Punta Arenas", snap.Name)
	assert.Equal(t, "Magallanes", snap.Region)
	assert.Equal(t, "Chile", snap.Country)
	assert.InDelta(t, -53.1638, snap.Latitude, 1e-9)
	assert.InDelta(t, 4.4, snap.TemperatureC, 1e-9)
	assert.InDelta(t, 13.5, snap.WindSpeedMS, 1e-9)
	assert.InDelta(t, 71.0, snap.HumidityPct, 1e-9)
	assert.False(t, snap.HasPrecipitation())
	assert.Equal(t, time.Date(2026, 3, 14, 21, 30, 0, 0, time.UTC), snap.ObservedAt)
}

func TestNormalize_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Observation)
		wantErr error
	}{
		{
			name:    "missing name",
			mutate:  func(o *Observation) { o.Name = "  " },
			wantErr: ErrIncompleteData,
		},
		{
			name:    "missing latitude",
			mutate:  func(o *Observation) { o.Latitude = nil },
			wantErr: ErrIncompleteData,
		},
		{
			name:    "missing longitude",
			mutate:  func(o *Observation) { o.Longitude = nil },
			wantErr: ErrIncompleteData,
		},
		{
			name:    "latitude above range",
			mutate:  func(o *Observation) { o.Latitude = utils.ToPtr(90.01) },
			wantErr: ErrCoordinateOutOfRange,
		},
		{
			name:    "latitude below range",
			mutate:  func(o *Observation) { o.Latitude = utils.ToPtr(-91.0) },
			wantErr: ErrCoordinateOutOfRange,
		},
		{
			name:    "longitude out of range",
			mutate:  func(o *Observation) { o.Longitude = utils.ToPtr(180.5) },
			wantErr: ErrCoordinateOutOfRange,
		},
		{
			name:    "missing temperature",
			mutate:  func(o *Observation) { o.TemperatureC = nil },
			wantErr: ErrIncompleteData,
		},
		{
			name:    "missing wind",
			mutate:  func(o *Observation) { o.WindSpeedMS = nil },
			wantErr: ErrIncompleteData,
		},
		{
			name:    "missing humidity",
			mutate:  func(o *Observation) { o.HumidityPct = nil },
			wantErr: ErrIncompleteData,
		},
		{
			name:    "negative wind",
			mutate:  func(o *Observation) { o.WindSpeedMS = utils.ToPtr(-0.1) },
			wantErr: ErrIncompleteData,
		},
		{
			name:    "humidity above 100",
			mutate:  func(o *Observation) { o.HumidityPct = utils.ToPtr(100.5) },
			wantErr: ErrIncompleteData,
		},
		{
			name:    "negative precipitation",
			mutate:  func(o *Observation) { o.PrecipitationMM = utils.ToPtr(-1.0) },
			wantErr: ErrIncompleteData,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := validObservation()
			tt.mutate(&raw)

			_, err := Normalize(raw)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNormalize_ZeroIsAValidReading(t *testing.T) {
	raw := validObservation()
	raw.TemperatureC = utils.ToPtr(0.0)
	raw.WindSpeedMS = utils.ToPtr(0.0)
	raw.HumidityPct = utils.ToPtr(0.0)
	raw.PrecipitationMM = utils.ToPtr(0.0)

	snap, err := Normalize(raw)
	require.NoError(t, err)
	assert.Zero(t, snap.TemperatureC)
	assert.Zero(t, snap.WindSpeedMS)
	assert.True(t, snap.HasPrecipitation())
}

func TestNormalize_DerivesLocationIDWhenAbsent(t *testing.T) {
	raw := validObservation()
	raw.LocationID = ""

	snap, err := Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, "punta-arenas:-53.164,-70.917", snap.LocationID)
}

func TestNormalize_DefaultsObservedAtWhenAbsent(t *testing.T) {
	raw := validObservation()
	raw.ObservedAt = nil

	before := time.Now().UTC()
	snap, err := Normalize(raw)
	require.NoError(t, err)

	assert.False(t, snap.ObservedAt.Before(before))
	assert.Equal(t, time.UTC, snap.ObservedAt.Location())
}
