// Package report maps ranked locations into the structured report model.
// The model is fully determined by its inputs; prose rendering happens in
// a separate collaborator, never here.
package report

import (
	"fmt"

	"github.com/enviweather/envi-advisor/internal/ranking"
	"github.com/enviweather/envi-advisor/internal/risk"
)

// maxAlternates bounds how many alternates are called out individually.
// Every location still appears in the conditions table.
const maxAlternates = 3

// Model is the structured advisory report.
type Model struct {
	Activity          string        `json:"activity"`
	TimeWindow        string        `json:"time_window,omitempty"`
	PrimaryArea       string        `json:"primary_area"`
	OverallSummary    string        `json:"overall_summary"`
	Locations         []LocationRow `json:"locations"`
	PrimarySuggestion Suggestion    `json:"primary_suggestion"`
	Alternates        []Suggestion  `json:"alternates"`
}

// LocationRow is one line of the conditions table, in display order.
type LocationRow struct {
	Name        string        `json:"name"`
	Region      string        `json:"region"`
	TempC       float64       `json:"temp_c"`
	WindMS      float64       `json:"wind_ms"`
	OverallRisk risk.Severity `json:"overall_risk"`
	Notes       []string      `json:"notes"`
}

// Suggestion names a recommended location and the reasons backing it.
// Reasons come from the location's assessment, nothing else.
type Suggestion struct {
	Name    string   `json:"name"`
	Reasons []string `json:"reasons"`
}

// Assemble builds the report model from an already ranked sequence.
// An empty ranking produces an empty model rather than an error.
func Assemble(ranked []ranking.RankedLocation, activity, timeWindow string) Model {
	model := Model{
		Activity:   activity,
		TimeWindow: timeWindow,
		Locations:  make([]LocationRow, 0, len(ranked)),
		Alternates: []Suggestion{},
	}

	if len(ranked) == 0 {
		model.OverallSummary = fmt.Sprintf("no locations could be assessed for %s", activity)
		return model
	}

	for _, loc := range ranked {
		model.Locations = append(model.Locations, LocationRow{
			Name:        loc.Snapshot.Name,
			Region:      displayRegion(loc),
			TempC:       loc.Snapshot.TemperatureC,
			WindMS:      loc.Snapshot.WindSpeedMS,
			OverallRisk: loc.Assessment.Overall,
			Notes:       append([]string{}, loc.Assessment.Notes...),
		})
	}

	primary := ranked[0]
	model.PrimaryArea = displayRegion(primary)
	model.PrimarySuggestion = Suggestion{
		Name:    primary.Snapshot.Name,
		Reasons: append([]string{}, primary.Rationale...),
	}

	for _, alt := range ranked[1:] {
		if len(model.Alternates) == maxAlternates {
			break
		}
		model.Alternates = append(model.Alternates, Suggestion{
			Name:    alt.Snapshot.Name,
			Reasons: append([]string{}, alt.Rationale...),
		})
	}

	model.OverallSummary = fmt.Sprintf(
		"%s conditions for %s: best option %s with overall risk %s, %d location(s) assessed",
		conditionsWord(primary.Assessment.Overall), activity,
		primary.Snapshot.Name, primary.Assessment.Overall, len(ranked),
	)
	return model
}

// displayRegion prefers the administrative region and falls back to the
// country, then the place name.
func displayRegion(loc ranking.RankedLocation) string {
	if loc.Snapshot.Region != "" {
		return loc.Snapshot.Region
	}
	if loc.Snapshot.Country != "" {
		return loc.Snapshot.Country
	}
	return loc.Snapshot.Name
}

// conditionsWord maps the primary location's overall severity to the fixed
// summary wording.
func conditionsWord(s risk.Severity) string {
	switch s {
	case risk.SeverityLow:
		return "favorable"
	case risk.SeverityModerate:
		return "fair"
	default:
		return "poor"
	}
}
