package writer

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enviweather/envi-advisor/internal/report"
	"github.com/enviweather/envi-advisor/internal/risk"
	"github.com/enviweather/envi-advisor/pkg/logger"
)

type fakeModel struct {
	reply      string
	err        error
	gotSystem  string
	gotPrompt  string
	callsCount int
}

func (m *fakeModel) Name() string { return "fake" }

func (m *fakeModel) Generate(ctx context.Context, system, prompt string) (string, error) {
	m.callsCount++
	m.gotSystem = system
	m.gotPrompt = prompt
	return m.reply, m.err
}

func newTestLogger() logger.Logger {
	return logger.NewLogger(logger.Config{
		Level:  logger.DebugLevel,
		Output: io.Discard,
	})
}

func sampleReport() report.Model {
	return report.Model{
		Activity:       "hiking",
		TimeWindow:     "saturday morning",
		PrimaryArea:    "Highlands",
		OverallSummary: "favorable conditions for hiking: best option Glen Valley with overall risk low, 2 location(s) assessed",
		Locations: []report.LocationRow{
			{Name: "Glen Valley", Region: "Highlands", TempC: 15, WindMS: 2, OverallRisk: risk.SeverityLow, Notes: []string{}},
			{Name: "Storm Ridge", Region: "Highlands", TempC: 4, WindMS: 15, OverallRisk: risk.SeverityHigh, Notes: []string{"wind:high", "cold:moderate"}},
		},
		PrimarySuggestion: report.Suggestion{
			Name:    "Glen Valley",
			Reasons: []string{"overall risk low", "no active weather hazards"},
		},
		Alternates: []report.Suggestion{
			{Name: "Storm Ridge", Reasons: []string{"overall risk high", "wind:high"}},
		},
	}
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name        string
		config      Config
		expectError bool
	}{
		{
			name:        "valid config",
			config:      Config{Model: &fakeModel{}, Logger: newTestLogger()},
			expectError: false,
		},
		{
			name:        "missing model",
			config:      Config{Logger: newTestLogger()},
			expectError: true,
		},
		{
			name:        "missing logger",
			config:      Config{Model: &fakeModel{}},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.config)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRenderPassesPromptAndSystem(t *testing.T) {
	model := &fakeModel{reply: "## 1. Summary\nGood day for hiking."}
	w, err := New(Config{Model: model, Logger: newTestLogger()})
	require.NoError(t, err)

	text, err := w.Render(context.Background(), sampleReport())
	require.NoError(t, err)

	assert.Equal(t, "## 1. Summary\nGood day for hiking.", text)
	assert.Equal(t, 1, model.callsCount)
	assert.Contains(t, model.gotSystem, "environmental advisor")
	assert.Contains(t, model.gotPrompt, "Glen Valley")
	assert.Contains(t, model.gotPrompt, "Storm Ridge")
	assert.Contains(t, model.gotPrompt, "wind:high")
}

func TestRenderPropagatesModelError(t *testing.T) {
	model := &fakeModel{err: errors.New("quota exceeded")}
	w, err := New(Config{Model: model, Logger: newTestLogger()})
	require.NoError(t, err)

	_, err = w.Render(context.Background(), sampleReport())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestRenderRejectsEmptyCompletion(t *testing.T) {
	model := &fakeModel{reply: "   \n"}
	w, err := New(Config{Model: model, Logger: newTestLogger()})
	require.NoError(t, err)

	_, err = w.Render(context.Background(), sampleReport())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty completion")
}

func TestBuildPromptIsDeterministic(t *testing.T) {
	rpt := sampleReport()

	first := BuildPrompt(rpt)
	second := BuildPrompt(rpt)
	assert.Equal(t, first, second)

	// All report content the writer may use is present in the prompt.
	assert.Contains(t, first, "Activity: hiking")
	assert.Contains(t, first, "Time window: saturday morning")
	assert.Contains(t, first, "Primary area: Highlands")
	assert.Contains(t, first, "overall risk high")
	assert.Contains(t, first, "## 4. Uncertainty & Data Sources")
}

func TestBuildPromptHandlesMissingFields(t *testing.T) {
	prompt := BuildPrompt(report.Model{
		Activity:       "picnic",
		OverallSummary: "no locations could be assessed for picnic",
		Locations:      []report.LocationRow{},
		Alternates:     []report.Suggestion{},
	})

	assert.Contains(t, prompt, "Time window: not specified")
	assert.Contains(t, prompt, "Primary area: not specified")
	assert.NotContains(t, prompt, "Primary suggestion:")
	assert.NotContains(t, prompt, "Alternatives:")
}
