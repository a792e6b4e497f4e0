package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/flarelog/insight-cli/internal/model"
)

func sampleReport() *Report {
	baseline := 1.2
	threshold := 1.7
	end := model.NewDate(2025, time.May, 10)
	return &Report{
		GeneratedAt: time.Date(2025, time.May, 20, 12, 0, 0, 0, time.UTC),
		Flare: &model.FlareAnalysis{
			Confidence:   model.ConfidenceMature,
			CurrentState: model.FlareStateStable,
			Baseline:     &baseline,
			Threshold:    &threshold,
			Episodes: []model.FlareEpisode{{
				StartDate:    model.NewDate(2025, time.May, 6),
				EndDate:      &end,
				PeakDate:     model.NewDate(2025, time.May, 8),
				DurationDays: 5,
				PeakScore:    2.8,
			}},
		},
		Correlations: []model.CorrelationResult{
			{
				Name: "dairy", Kind: model.CandidateFood,
				TotalExposureDays: 6, AnalyzableExposures: 6,
				WorseDays: 5, NeutralDays: 1,
				Pattern: model.PatternOftenWorse, Consistency: 0.833,
				Confidence: model.CorrelationMedium, RankScore: 1.62,
			},
			{
				Name: "retinol", Kind: model.CandidateProduct,
				TotalExposureDays: 2,
				Pattern:           model.PatternInsufficientData,
			},
		},
	}
}

func TestFormatReport(t *testing.T) {
	got := FormatReport(sampleReport())

	assert.Contains(t, got, "# Symptom Signal Report")
	assert.Contains(t, got, "Confidence: mature")
	assert.Contains(t, got, "Baseline: 1.20 (threshold 1.70)")
	assert.Contains(t, got, "2025-05-06 to 2025-05-10: 5 days, peak 2.80 on 2025-05-08")
	assert.Contains(t, got, "dairy (food): often_worse, 5/6 exposures worse, consistency 83%, confidence medium")
	assert.Contains(t, got, "retinol (product): insufficient_data (2 exposures)")
}

func TestFormatReport_OpenEpisode(t *testing.T) {
	r := sampleReport()
	r.Flare.Episodes[0].EndDate = nil
	r.Flare.IsActiveFlare = true
	r.Flare.CurrentFlareDurationDays = 4

	got := FormatReport(r)
	assert.Contains(t, got, "2025-05-06 to ongoing")
	assert.Contains(t, got, "Active flare: day 4")
}

func TestFormatReport_EarlyConfidenceGatesThreshold(t *testing.T) {
	// A short history has a baseline from day two onward while the threshold
	// stays gated to nil; the text renderer must cope with that split.
	baseline := 1.2
	r := &Report{
		GeneratedAt: time.Now(),
		Flare: &model.FlareAnalysis{
			Confidence:   model.ConfidenceEarly,
			CurrentState: model.FlareStateStable,
			Baseline:     &baseline,
		},
	}

	got := FormatReport(r)
	assert.Contains(t, got, "Baseline: 1.20\n")
	assert.NotContains(t, got, "threshold")
}

func TestFormatReport_EmptySections(t *testing.T) {
	r := &Report{
		GeneratedAt: time.Now(),
		Flare:       &model.FlareAnalysis{Confidence: model.ConfidenceEarly, CurrentState: model.FlareStateStable},
		// Non-nil empty slice still renders the section.
		Correlations: []model.CorrelationResult{},
	}

	got := FormatReport(r)
	assert.Contains(t, got, "No flare episodes detected.")
	assert.Contains(t, got, "No tagged exposures found.")
	assert.NotContains(t, got, "Baseline:")
}

func TestRender_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sampleReport(), FormatJSON))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Contains(t, decoded, "flare")
	assert.Contains(t, decoded, "correlations")
}

func TestRender_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sampleReport(), FormatYAML))

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Contains(t, decoded, "flare")
}

func TestRender_TextDefault(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sampleReport(), ""))
	assert.True(t, strings.HasPrefix(buf.String(), "# Symptom Signal Report"))
}

func TestRender_UnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	err := Render(&buf, sampleReport(), "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}
