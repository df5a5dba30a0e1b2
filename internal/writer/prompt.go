package writer

import (
	"fmt"
	"strings"

	"github.com/enviweather/envi-advisor/internal/report"
)

const systemInstruction = `You are an environmental advisor writing reports for people planning outdoor activities. You translate structured weather risk assessments into clear guidance for a non-expert reader. Be conservative when in doubt and never invent readings that are not in the data you are given.`

// BuildPrompt lays out the report model as the writer's ground truth plus
// fixed formatting instructions. The output is fully determined by the
// model contents.
func BuildPrompt(rpt report.Model) string {
	var b strings.Builder

	b.WriteString("Write the advisory report for the assessment below. Treat it as ground truth.\n\n")

	fmt.Fprintf(&b, "Activity: %s\n", orUnspecified(rpt.Activity))
	fmt.Fprintf(&b, "Time window: %s\n", orUnspecified(rpt.TimeWindow))
	fmt.Fprintf(&b, "Primary area: %s\n", orUnspecified(rpt.PrimaryArea))
	fmt.Fprintf(&b, "Assessment summary: %s\n", rpt.OverallSummary)

	b.WriteString("\nConditions by location, best first:\n")
	for _, row := range rpt.Locations {
		fmt.Fprintf(&b, "- %s (%s): %.1f C, wind %.1f m/s, overall risk %s",
			row.Name, row.Region, row.TempC, row.WindMS, row.OverallRisk)
		if len(row.Notes) > 0 {
			fmt.Fprintf(&b, ", active factors: %s", strings.Join(row.Notes, ", "))
		}
		b.WriteString("\n")
	}

	if rpt.PrimarySuggestion.Name != "" {
		fmt.Fprintf(&b, "\nPrimary suggestion: %s\n", rpt.PrimarySuggestion.Name)
		for _, reason := range rpt.PrimarySuggestion.Reasons {
			fmt.Fprintf(&b, "- %s\n", reason)
		}
	}

	if len(rpt.Alternates) > 0 {
		b.WriteString("\nAlternatives:\n")
		for _, alt := range rpt.Alternates {
			fmt.Fprintf(&b, "- %s: %s\n", alt.Name, strings.Join(alt.Reasons, ", "))
		}
	}

	b.WriteString(`
Produce a Markdown report with exactly these sections:

## 1. Summary
Activity, time window, primary area and one short sentence on whether conditions are generally favorable.

## 2. Conditions by Location
A Markdown table with columns: Location | Region | Temp (C) | Wind (m/s) | Overall Risk | Notes. One row per location, in the given order.

## 3. Recommendations
The primary suggestion with its reasons, then up to three alternatives with one short pro or con each. If conditions are poor everywhere, say so explicitly and suggest a different time or a lighter activity.

## 4. Uncertainty & Data Sources
State that readings come from external weather APIs and internal processing, mention any locations missing from the table, and add a short disclaimer that this is not safety-of-life guidance.

Constraints: keep the section structure, do not wrap the report in a code block, and only use the numbers provided above.
`)

	return b.String()
}

func orUnspecified(s string) string {
	if strings.TrimSpace(s) == "" {
		return "not specified"
	}
	return s
}
