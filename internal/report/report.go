// Package report renders analysis results for terminals and machine
// consumers.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/flarelog/insight-cli/internal/model"
	"github.com/flarelog/insight-cli/internal/quality"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Report bundles everything one analysis run produced. Sections are optional;
// a nil section is omitted from the rendered output.
type Report struct {
	GeneratedAt  time.Time                 `json:"generated_at" yaml:"generated_at"`
	Flare        *model.FlareAnalysis      `json:"flare,omitempty" yaml:"flare,omitempty"`
	Correlations []model.CorrelationResult `json:"correlations,omitempty" yaml:"correlations,omitempty"`
	Quality      *quality.Snapshot         `json:"quality,omitempty" yaml:"quality,omitempty"`
}

// Render writes the report to w in the requested format.
func Render(w io.Writer, r *Report, format string) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(r), "report: encode json")
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return eris.Wrap(enc.Encode(r), "report: encode yaml")
	case FormatText, "":
		_, err := io.WriteString(w, FormatReport(r))
		return eris.Wrap(err, "report: write text")
	default:
		return eris.Errorf("report: unknown format %q", format)
	}
}

// FormatReport generates a human-readable analysis report.
func FormatReport(r *Report) string {
	var b strings.Builder

	b.WriteString("# Symptom Signal Report\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339))

	if r.Quality != nil {
		writeQuality(&b, r.Quality)
	}
	if r.Flare != nil {
		writeFlare(&b, r.Flare)
	}
	if r.Correlations != nil {
		writeCorrelations(&b, r.Correlations)
	}

	return b.String()
}

func writeQuality(b *strings.Builder, q *quality.Snapshot) {
	b.WriteString("## History\n")
	fmt.Fprintf(b, "- Observations: %d\n", q.TotalObservations)
	if q.TotalObservations > 0 {
		fmt.Fprintf(b, "- Tracked span: %s to %s (%d days, %.0f%% covered)\n",
			q.FirstDate, q.LastDate, q.SpanDays, q.CoverageRatio*100)
	}
	for _, warning := range q.Warnings() {
		fmt.Fprintf(b, "- Warning: %s\n", warning)
	}
	b.WriteString("\n")
}

func writeFlare(b *strings.Builder, f *model.FlareAnalysis) {
	b.WriteString("## Flare Status\n")
	fmt.Fprintf(b, "- Confidence: %s\n", f.Confidence)
	fmt.Fprintf(b, "- Current state: %s\n", f.CurrentState)
	// Baseline can be present while the threshold is still confidence-gated.
	switch {
	case f.Baseline != nil && f.Threshold != nil:
		fmt.Fprintf(b, "- Baseline: %.2f (threshold %.2f)\n", *f.Baseline, *f.Threshold)
	case f.Baseline != nil:
		fmt.Fprintf(b, "- Baseline: %.2f\n", *f.Baseline)
	}
	if f.IsActiveFlare {
		fmt.Fprintf(b, "- Active flare: day %d\n", f.CurrentFlareDurationDays)
	}
	b.WriteString("\n")

	b.WriteString("## Episodes\n")
	if len(f.Episodes) == 0 {
		b.WriteString("No flare episodes detected.\n\n")
		return
	}
	for _, e := range f.Episodes {
		end := "ongoing"
		if e.EndDate != nil {
			end = e.EndDate.String()
		}
		fmt.Fprintf(b, "- %s to %s: %d days, peak %.2f on %s\n",
			e.StartDate, end, e.DurationDays, e.PeakScore, e.PeakDate)
	}
	b.WriteString("\n")
}

func writeCorrelations(b *strings.Builder, results []model.CorrelationResult) {
	b.WriteString("## Trigger Candidates\n")
	if len(results) == 0 {
		b.WriteString("No tagged exposures found.\n\n")
		return
	}
	for _, r := range results {
		fmt.Fprintf(b, "- %s (%s): %s", r.Name, r.Kind, r.Pattern)
		if r.Pattern != model.PatternInsufficientData {
			fmt.Fprintf(b, ", %d/%d exposures worse, consistency %.0f%%, confidence %s",
				r.WorseDays, r.AnalyzableExposures, r.Consistency*100, r.Confidence)
		} else {
			fmt.Fprintf(b, " (%d exposures)", r.TotalExposureDays)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
}
