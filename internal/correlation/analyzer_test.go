package correlation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flarelog/insight-cli/internal/model"
)

var testStart = model.NewDate(2025, time.March, 1)

// series builds one observation per day over n days, all at baseIntensity,
// then applies overrides (day offset -> intensity) and tags (day offset ->
// tag list).
func series(n int, baseIntensity float64, overrides map[int]float64, tags map[int][]string) []model.Observation {
	out := make([]model.Observation, 0, n)
	for i := 0; i < n; i++ {
		intensity := baseIntensity
		if v, ok := overrides[i]; ok {
			intensity = v
		}
		v := intensity
		out = append(out, model.Observation{
			RecordedAt:    testStart.AddDays(i).Time().Add(20 * time.Hour),
			SkinIntensity: &v,
			Tags:          tags[i],
		})
	}
	return out
}

// worseAfter marks the three days after each exposure offset at the given
// intensity.
func worseAfter(overrides map[int]float64, exposure int, intensity float64) {
	for k := 1; k <= 3; k++ {
		overrides[exposure+k] = intensity
	}
}

func TestAnalyze_ScenarioC_OftenWorse(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())

	exposures := []int{5, 15, 25, 35, 45, 55}
	overrides := map[int]float64{}
	tags := map[int][]string{}
	for i, e := range exposures {
		tags[e] = []string{"food:dairy"}
		if i < 5 {
			// Five of six exposures are followed by elevated intensity.
			worseAfter(overrides, e, 3.0)
		}
	}

	results := a.Analyze(series(65, 2.0, overrides, tags))
	require.Len(t, results, 1)

	r := results[0]
	assert.Equal(t, "dairy", r.Name)
	assert.Equal(t, model.CandidateFood, r.Kind)
	assert.Equal(t, 6, r.TotalExposureDays)
	assert.Equal(t, 6, r.AnalyzableExposures)
	assert.Equal(t, 5, r.WorseDays)
	assert.Equal(t, 0, r.BetterDays)
	assert.Equal(t, 1, r.NeutralDays)
	assert.Equal(t, model.PatternOftenWorse, r.Pattern)
	assert.InDelta(t, 5.0/6.0, r.Consistency, 1e-9)
	assert.Equal(t, model.CorrelationMedium, r.Confidence)
	assert.Greater(t, r.RankScore, 0.0)
}

func TestAnalyze_ScenarioD_TwoExposures(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())

	overrides := map[int]float64{}
	worseAfter(overrides, 5, 5.0)
	worseAfter(overrides, 15, 5.0)
	tags := map[int][]string{
		5:  {"food:shellfish"},
		15: {"food:shellfish"},
		// A determinate candidate to rank against.
		10: {"food:dairy"}, 20: {"food:dairy"}, 30: {"food:dairy"},
	}

	results := a.Analyze(series(40, 2.0, overrides, tags))
	require.Len(t, results, 2)

	// Even with a huge raw delta, two exposures stay insufficient and rank
	// after every determinate candidate.
	last := results[1]
	assert.Equal(t, "shellfish", last.Name)
	assert.Equal(t, 2, last.TotalExposureDays)
	assert.Equal(t, model.PatternInsufficientData, last.Pattern)
	assert.Equal(t, model.CorrelationLow, last.Confidence)
	assert.Equal(t, 0.0, last.RankScore)

	assert.NotEqual(t, model.PatternInsufficientData, results[0].Pattern)
}

func TestAnalyze_OverlappingExposuresMerged(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())

	// Day 7 falls inside day 5's reaction window: one trial, not two.
	tags := map[int][]string{
		5: {"wine"}, 7: {"wine"}, 20: {"wine"}, 30: {"wine"},
	}

	results := a.Analyze(series(40, 2.0, map[int]float64{}, tags))
	require.Len(t, results, 1)

	r := results[0]
	assert.Equal(t, 4, r.TotalExposureDays)
	assert.Equal(t, 3, r.AnalyzableExposures)
	assert.Equal(t, r.AnalyzableExposures, r.WorseDays+r.BetterDays+r.NeutralDays)
}

func TestAnalyze_ExposureWithoutPostDaysNotAnalyzable(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())

	// Three exposures, but the last sits at the end of the history with no
	// recorded days after it.
	tags := map[int][]string{
		5: {"stress"}, 15: {"stress"}, 29: {"stress"},
	}

	results := a.Analyze(series(30, 2.0, map[int]float64{}, tags))
	require.Len(t, results, 1)

	r := results[0]
	assert.Equal(t, 3, r.TotalExposureDays)
	assert.Equal(t, 2, r.AnalyzableExposures)
	// Two analyzable trials fall below the minimum: no conclusion.
	assert.Equal(t, model.PatternInsufficientData, r.Pattern)
}

func TestAnalyze_LocalBaselineExcludesExposedDays(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())

	// Exposures sit on high-intensity days close together. If exposed days
	// leaked into each other's control baselines the deltas would flatten
	// out; excluded properly, the post-exposure days still read as worse
	// against the low unexposed days.
	overrides := map[int]float64{}
	tags := map[int][]string{}
	for _, e := range []int{10, 18, 26} {
		tags[e] = []string{"product:retinol"}
		overrides[e] = 4.0
		worseAfter(overrides, e, 3.5)
	}

	results := a.Analyze(series(40, 1.0, overrides, tags))
	require.Len(t, results, 1)

	r := results[0]
	assert.Equal(t, model.CandidateProduct, r.Kind)
	assert.Equal(t, 3, r.AnalyzableExposures)
	assert.Equal(t, 3, r.WorseDays)
	assert.Equal(t, model.PatternOftenWorse, r.Pattern)
}

func TestAnalyze_OftenBetter(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())

	overrides := map[int]float64{}
	tags := map[int][]string{}
	for _, e := range []int{5, 15, 25, 35} {
		tags[e] = []string{"probiotics"}
		worseAfter(overrides, e, 1.0) // post-exposure drops below baseline
	}

	results := a.Analyze(series(45, 3.0, overrides, tags))
	require.Len(t, results, 1)
	assert.Equal(t, model.PatternOftenBetter, results[0].Pattern)
	assert.Equal(t, 4, results[0].BetterDays)
}

func TestAnalyze_MixedAndNoPattern(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())

	t.Run("mixed", func(t *testing.T) {
		overrides := map[int]float64{}
		worseAfter(overrides, 5, 4.0)  // worse
		worseAfter(overrides, 15, 1.0) // better
		// day 25: neutral
		tags := map[int][]string{5: {"sugar"}, 15: {"sugar"}, 25: {"sugar"}}

		results := a.Analyze(series(35, 2.5, overrides, tags))
		require.Len(t, results, 1)
		assert.Equal(t, model.PatternMixed, results[0].Pattern)
		assert.InDelta(t, 1.0/3.0, results[0].Consistency, 1e-9)
		assert.Equal(t, model.CorrelationLow, results[0].Confidence)
	})

	t.Run("no pattern", func(t *testing.T) {
		tags := map[int][]string{5: {"sugar"}, 15: {"sugar"}, 25: {"sugar"}}
		results := a.Analyze(series(35, 2.5, map[int]float64{}, tags))
		require.Len(t, results, 1)
		assert.Equal(t, model.PatternNone, results[0].Pattern)
		assert.InDelta(t, 1.0, results[0].Consistency, 1e-9) // all neutral
	})
}

func TestAnalyze_HighConfidence(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())

	overrides := map[int]float64{}
	tags := map[int][]string{}
	for i := 0; i < 8; i++ {
		e := 5 + i*10
		tags[e] = []string{"food:gluten"}
		worseAfter(overrides, e, 3.5)
	}

	results := a.Analyze(series(90, 2.0, overrides, tags))
	require.Len(t, results, 1)
	assert.Equal(t, 8, results[0].TotalExposureDays)
	assert.Equal(t, model.CorrelationHigh, results[0].Confidence)
}

func TestAnalyze_TagCanonicalization(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())

	// Same candidate logged with different casing and stray whitespace.
	tags := map[int][]string{
		5:  {"Stress"},
		15: {" stress "},
		25: {"STRESS"},
	}

	results := a.Analyze(series(35, 2.0, map[int]float64{}, tags))
	require.Len(t, results, 1)
	assert.Equal(t, 3, results[0].TotalExposureDays)
}

func TestAnalyze_GenericTagsCanBeExcluded(t *testing.T) {
	cfg := DefaultConfig()
	cfg.IncludeGenericTags = false
	a := NewAnalyzer(cfg)

	tags := map[int][]string{
		5:  {"stress", "food:dairy"},
		15: {"stress", "food:dairy"},
		25: {"stress", "food:dairy"},
	}

	results := a.Analyze(series(35, 2.0, map[int]float64{}, tags))
	require.Len(t, results, 1)
	assert.Equal(t, "dairy", results[0].Name)
}

func TestAnalyze_RankingOrder(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())

	overrides := map[int]float64{}
	tags := map[int][]string{}
	// Strong worsening candidate.
	for _, e := range []int{5, 15, 25, 35, 45} {
		tags[e] = append(tags[e], "food:dairy")
		worseAfter(overrides, e, 3.5)
	}
	// Neutral candidate on quiet days.
	for _, e := range []int{9, 19, 29, 39} {
		tags[e] = append(tags[e], "food:rice")
	}
	// Insufficient candidate.
	tags[12] = append(tags[12], "food:mango")

	results := a.Analyze(series(55, 2.0, overrides, tags))
	require.Len(t, results, 3)

	assert.Equal(t, "dairy", results[0].Name)
	assert.Equal(t, model.PatternOftenWorse, results[0].Pattern)
	assert.Equal(t, "rice", results[1].Name)
	assert.Equal(t, "mango", results[2].Name)
	assert.Equal(t, model.PatternInsufficientData, results[2].Pattern)

	for i := 1; i < len(results); i++ {
		if results[i].Pattern != model.PatternInsufficientData {
			assert.LessOrEqual(t, results[i].RankScore, results[i-1].RankScore)
		}
	}
}

func TestAnalyze_CountInvariant(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())

	overrides := map[int]float64{}
	tags := map[int][]string{}
	for _, e := range []int{3, 4, 9, 17, 18, 25, 33} {
		tags[e] = append(tags[e], "wine")
	}
	worseAfter(overrides, 9, 4.0)

	for _, r := range a.Analyze(series(40, 2.0, overrides, tags)) {
		assert.Equal(t, r.AnalyzableExposures, r.WorseDays+r.BetterDays+r.NeutralDays)
		assert.LessOrEqual(t, r.AnalyzableExposures, r.TotalExposureDays)
	}
}

func TestAnalyze_OrderIndependence(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())

	overrides := map[int]float64{}
	tags := map[int][]string{}
	for _, e := range []int{5, 15, 25, 35} {
		tags[e] = []string{"food:dairy", "stress"}
		worseAfter(overrides, e, 3.5)
	}
	input := series(45, 2.0, overrides, tags)

	reversed := make([]model.Observation, len(input))
	for i, o := range input {
		reversed[len(input)-1-i] = o
	}

	assert.Equal(t, a.Analyze(input), a.Analyze(reversed))
}

func TestAnalyze_EmptyInput(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())
	assert.Empty(t, a.Analyze(nil))
}

func TestValidateConfig(t *testing.T) {
	assert.NoError(t, ValidateConfig(DefaultConfig()))

	bad := DefaultConfig()
	bad.MinExposures = 0
	bad.DominanceRatio = 1.5
	err := ValidateConfig(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "min_exposures")
	assert.Contains(t, err.Error(), "dominance_ratio")
}
