package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enviweather/envi-advisor/internal/weather"
	"github.com/enviweather/envi-advisor/pkg/utils"
)

func snapshot(tempC, windMS float64) weather.Snapshot {
	return weather.Snapshot{
		LocationID:   "loc-1",
		Name:         "Test Point",
		Latitude:     51.0,
		Longitude:    7.0,
		TemperatureC: tempC,
		WindSpeedMS:  windMS,
		HumidityPct:  60,
	}
}

func defaultClassifier(t *testing.T) *Classifier {
	t.Helper()
	c, err := NewClassifier(nil)
	require.NoError(t, err)
	return c
}

func TestClassify_ColdAndWindExample(t *testing.T) {
	c := defaultClassifier(t)

	got := c.Classify(snapshot(4.4, 14.5), DefaultProfile("hiking"))

	assert.Equal(t, SeverityHigh, got.Overall)
	assert.Equal(t, []string{"wind:high", "cold:moderate"}, got.Notes)

	bySeverity := map[Factor]Severity{}
	for _, f := range got.Factors {
		bySeverity[f.Factor] = f.Severity
	}
	assert.Equal(t, SeverityModerate, bySeverity[FactorCold])
	assert.Equal(t, SeverityHigh, bySeverity[FactorWind])
	assert.Equal(t, SeverityLow, bySeverity[FactorHeat])
	assert.Equal(t, SeverityLow, bySeverity[FactorPrecipitation])
}

func TestClassify_ModerateWindExample(t *testing.T) {
	c := defaultClassifier(t)

	got := c.Classify(snapshot(19.4, 8.7), DefaultProfile("hiking"))

	assert.Equal(t, SeverityModerate, got.Overall)
	assert.Equal(t, []string{"wind:moderate"}, got.Notes)
}

func TestClassify_BandBoundaries(t *testing.T) {
	c := defaultClassifier(t)

	tests := []struct {
		name string
		snap weather.Snapshot
		want map[Factor]Severity
	}{
		{
			name: "exact zero is moderate cold not high",
			snap: snapshot(0, 0),
			want: map[Factor]Severity{FactorCold: SeverityModerate},
		},
		{
			name: "eight degrees leaves the moderate cold band",
			snap: snapshot(8, 0),
			want: map[Factor]Severity{FactorCold: SeverityLow},
		},
		{
			name: "thirty degrees is still low heat",
			snap: snapshot(30, 0),
			want: map[Factor]Severity{FactorHeat: SeverityLow},
		},
		{
			name: "thirty five degrees is moderate heat",
			snap: snapshot(35, 0),
			want: map[Factor]Severity{FactorHeat: SeverityModerate},
		},
		{
			name: "above thirty five is high heat",
			snap: snapshot(35.1, 0),
			want: map[Factor]Severity{FactorHeat: SeverityHigh},
		},
		{
			name: "eight m/s wind is still low",
			snap: snapshot(20, 8),
			want: map[Factor]Severity{FactorWind: SeverityLow},
		},
		{
			name: "fourteen m/s wind is moderate",
			snap: snapshot(20, 14),
			want: map[Factor]Severity{FactorWind: SeverityModerate},
		},
		{
			name: "above fourteen m/s wind is high",
			snap: snapshot(20, 14.01),
			want: map[Factor]Severity{FactorWind: SeverityHigh},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.snap, DefaultProfile("any"))
			bySeverity := map[Factor]Severity{}
			for _, f := range got.Factors {
				bySeverity[f.Factor] = f.Severity
			}
			for factor, want := range tt.want {
				assert.Equal(t, want, bySeverity[factor], "factor %s", factor)
			}
		})
	}
}

func TestClassify_PrecipitationBands(t *testing.T) {
	c := defaultClassifier(t)

	absent := c.Classify(snapshot(20, 0), DefaultProfile("any"))
	assert.Equal(t, SeverityLow, absent.Overall, "absent precipitation is low risk")

	light := snapshot(20, 0)
	light.PrecipitationMM = utils.ToPtr(2.0)
	assert.Equal(t, SeverityLow, c.Classify(light, DefaultProfile("any")).Overall)

	steady := snapshot(20, 0)
	steady.PrecipitationMM = utils.ToPtr(2.1)
	assert.Equal(t, SeverityModerate, c.Classify(steady, DefaultProfile("any")).Overall)

	heavy := snapshot(20, 0)
	heavy.PrecipitationMM = utils.ToPtr(10.5)
	got := c.Classify(heavy, DefaultProfile("any"))
	assert.Equal(t, SeverityHigh, got.Overall)
	assert.Equal(t, []string{"precipitation:high"}, got.Notes)
}

func TestClassify_OverallIsMaxOfEvaluatedFactors(t *testing.T) {
	c := defaultClassifier(t)

	// Sweep a grid of readings; the overall must always equal the highest
	// per-factor severity.
	for temp := -10.0; temp <= 45.0; temp += 5.0 {
		for wind := 0.0; wind <= 20.0; wind += 4.0 {
			got := c.Classify(snapshot(temp, wind), DefaultProfile("any"))
			max := SeverityLow
			for _, f := range got.Factors {
				max = MaxSeverity(max, f.Severity)
			}
			require.Equal(t, max, got.Overall, "temp=%.1f wind=%.1f", temp, wind)
		}
	}
}

func TestClassify_Deterministic(t *testing.T) {
	c := defaultClassifier(t)
	snap := snapshot(4.4, 13.5)
	snap.PrecipitationMM = utils.ToPtr(3.3)

	first := c.Classify(snap, ProfileFor("hiking"))
	second := c.Classify(snap, ProfileFor("hiking"))

	assert.Equal(t, first, second)
}

func TestClassify_ActivityNarrowsFactors(t *testing.T) {
	c := defaultClassifier(t)

	// Freezing but calm: the only hazard is cold, which beach activities
	// do not evaluate.
	snap := snapshot(-2.0, 3.0)

	full := c.Classify(snap, DefaultProfile("unknown"))
	assert.Equal(t, SeverityHigh, full.Overall)

	beach := c.Classify(snap, ProfileFor("beach"))
	assert.Equal(t, SeverityLow, beach.Overall)
	assert.Empty(t, beach.Notes)
	for _, f := range beach.Factors {
		assert.NotEqual(t, FactorCold, f.Factor, "beach profile must not evaluate cold")
	}
}

func TestClassify_ThresholdOverridesChangeBands(t *testing.T) {
	c, err := NewClassifier([]Override{
		{Factor: FactorWind, Severity: SeverityHigh, Boundary: 10},
		{Factor: FactorWind, Severity: SeverityModerate, Boundary: 5},
	})
	require.NoError(t, err)

	got := c.Classify(snapshot(20, 8.7), DefaultProfile("any"))
	assert.Equal(t, SeverityModerate, got.Overall)

	got = c.Classify(snapshot(20, 10.5), DefaultProfile("any"))
	assert.Equal(t, SeverityHigh, got.Overall)
}

func TestNewClassifier_RejectsMalformedOverrides(t *testing.T) {
	tests := []struct {
		name      string
		overrides []Override
	}{
		{
			name:      "unknown factor",
			overrides: []Override{{Factor: "fog", Severity: SeverityHigh, Boundary: 1}},
		},
		{
			name:      "unknown severity",
			overrides: []Override{{Factor: FactorWind, Severity: "extreme", Boundary: 1}},
		},
		{
			name:      "low band has no boundary",
			overrides: []Override{{Factor: FactorWind, Severity: SeverityLow, Boundary: 1}},
		},
		{
			name: "unordered wind bands",
			overrides: []Override{
				{Factor: FactorWind, Severity: SeverityHigh, Boundary: 5},
				{Factor: FactorWind, Severity: SeverityModerate, Boundary: 9},
			},
		},
		{
			name:      "negative precipitation boundary",
			overrides: []Override{{Factor: FactorPrecipitation, Severity: SeverityModerate, Boundary: -1}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClassifier(tt.overrides)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidThresholdConfig)
		})
	}
}

func TestThresholds_ApplyReportsAllProblemsAtOnce(t *testing.T) {
	_, err := DefaultThresholds().Apply([]Override{
		{Factor: "fog", Severity: SeverityHigh, Boundary: 1},
		{Factor: FactorHeat, Severity: "severe", Boundary: 2},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fog")
	assert.Contains(t, err.Error(), "severe")
}
