package correlation

import (
	"math"
	"slices"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"

	"github.com/flarelog/insight-cli/internal/config"
	"github.com/flarelog/insight-cli/internal/model"
)

// Analyzer ranks trigger candidates by how consistently exposure precedes a
// change in skin intensity. Like the flare analyzer it is pure: every call
// recomputes from the full history.
type Analyzer struct {
	cfg config.CorrelationConfig
}

// NewAnalyzer creates an Analyzer with the given config.
func NewAnalyzer(cfg config.CorrelationConfig) *Analyzer {
	return &Analyzer{cfg: cfg}
}

// candidate is one distinct trigger name with every date it was logged on.
type candidate struct {
	name  string // display form, first seen
	kind  model.CandidateKind
	dates []model.Date        // ascending, distinct
	seen  map[model.Date]bool // same dates, for baseline exclusion
}

// Analyze builds the ranked correlation list. Results are sorted by rank
// score descending with insufficient_data candidates always last; ties break
// on candidate name so identical input always yields identical output.
func (a *Analyzer) Analyze(observations []model.Observation) []model.CorrelationResult {
	intensity := dailyIntensity(observations)
	candidates := a.collectCandidates(observations)

	keys := make([]string, 0, len(candidates))
	for k := range candidates {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	results := make([]model.CorrelationResult, 0, len(candidates))
	for _, k := range keys {
		results = append(results, a.evaluate(candidates[k], intensity))
	}

	slices.SortStableFunc(results, func(x, y model.CorrelationResult) int {
		xi := x.Pattern == model.PatternInsufficientData
		yi := y.Pattern == model.PatternInsufficientData
		switch {
		case xi && !yi:
			return 1
		case !xi && yi:
			return -1
		case x.RankScore != y.RankScore:
			if x.RankScore > y.RankScore {
				return -1
			}
			return 1
		default:
			return strings.Compare(x.Name, y.Name)
		}
	})

	zap.L().Debug("correlation: analysis complete",
		zap.Int("candidates", len(results)),
		zap.Int("days_with_intensity", len(intensity)),
	)

	return results
}

// dailyIntensity maps each date to its mean skin intensity on the 0-5 scale.
// Dates where no observation carries an intensity are absent, not zero.
func dailyIntensity(observations []model.Observation) map[model.Date]float64 {
	sums := make(map[model.Date]float64)
	counts := make(map[model.Date]int)
	for _, o := range observations {
		v, ok := o.Intensity()
		if !ok {
			continue
		}
		date := o.Date()
		sums[date] += v
		counts[date]++
	}
	out := make(map[model.Date]float64, len(sums))
	for date, sum := range sums {
		out[date] = sum / float64(counts[date])
	}
	return out
}

// collectCandidates groups tag occurrences into candidates keyed by kind and
// case-folded name.
func (a *Analyzer) collectCandidates(observations []model.Observation) map[string]*candidate {
	folder := cases.Fold()
	candidates := make(map[string]*candidate)

	for _, o := range observations {
		date := o.Date()
		for _, raw := range o.Tags {
			kind, name, ok := a.classifyTag(raw)
			if !ok {
				continue
			}
			key := string(kind) + "|" + folder.String(name)
			c := candidates[key]
			if c == nil {
				c = &candidate{name: name, kind: kind, seen: make(map[model.Date]bool)}
				candidates[key] = c
			}
			if !c.seen[date] {
				c.seen[date] = true
				c.dates = append(c.dates, date)
			}
		}
	}

	for _, c := range candidates {
		slices.SortFunc(c.dates, model.CompareDates)
	}
	return candidates
}

// classifyTag resolves a raw tag against the configured category prefixes.
func (a *Analyzer) classifyTag(raw string) (model.CandidateKind, string, bool) {
	trimmed := strings.TrimSpace(raw)
	lower := strings.ToLower(trimmed)

	if a.cfg.FoodPrefix != "" && strings.HasPrefix(lower, a.cfg.FoodPrefix) {
		name := strings.TrimSpace(trimmed[len(a.cfg.FoodPrefix):])
		return model.CandidateFood, name, name != ""
	}
	if a.cfg.ProductPrefix != "" && strings.HasPrefix(lower, a.cfg.ProductPrefix) {
		name := strings.TrimSpace(trimmed[len(a.cfg.ProductPrefix):])
		return model.CandidateProduct, name, name != ""
	}
	if a.cfg.IncludeGenericTags {
		return model.CandidateTrigger, trimmed, trimmed != ""
	}
	return "", "", false
}

// evaluate runs the exposure/baseline comparison for one candidate.
func (a *Analyzer) evaluate(c *candidate, intensity map[model.Date]float64) model.CorrelationResult {
	result := model.CorrelationResult{
		Name:              c.name,
		Kind:              c.kind,
		TotalExposureDays: len(c.dates),
		Confidence:        model.CorrelationLow,
		Pattern:           model.PatternInsufficientData,
	}
	if result.TotalExposureDays < a.cfg.MinExposures {
		return result
	}

	// Exposures inside another exposure's reaction window are follow-ons of
	// the same trial, not independent ones.
	processed := make(map[model.Date]bool)
	for _, d := range c.dates {
		if processed[d] {
			continue
		}
		for k := 1; k <= a.cfg.ReactionWindowDays; k++ {
			processed[d.AddDays(k)] = true
		}

		post, ok := a.postExposure(d, intensity)
		if !ok {
			continue
		}
		baseline, ok := a.localBaseline(d, c.seen, intensity)
		if !ok {
			continue
		}

		switch delta := post - baseline; {
		case delta >= a.cfg.WorseDelta:
			result.WorseDays++
		case delta <= -a.cfg.BetterDelta:
			result.BetterDays++
		default:
			result.NeutralDays++
		}
	}

	result.AnalyzableExposures = result.WorseDays + result.BetterDays + result.NeutralDays
	if result.AnalyzableExposures < a.cfg.MinExposures {
		return result
	}

	total := float64(result.AnalyzableExposures)
	worseRatio := float64(result.WorseDays) / total
	betterRatio := float64(result.BetterDays) / total
	neutralRatio := float64(result.NeutralDays) / total

	switch {
	case worseRatio >= a.cfg.DominanceRatio:
		result.Pattern = model.PatternOftenWorse
	case betterRatio >= a.cfg.DominanceRatio:
		result.Pattern = model.PatternOftenBetter
	case worseRatio+betterRatio >= a.cfg.MixedRatio:
		result.Pattern = model.PatternMixed
	default:
		result.Pattern = model.PatternNone
	}

	result.Consistency = math.Max(worseRatio, math.Max(betterRatio, neutralRatio))
	result.Confidence = a.confidence(result.TotalExposureDays, result.Consistency)
	result.RankScore = result.Pattern.Weight() * result.Consistency * math.Log(float64(result.TotalExposureDays)+1)

	return result
}

// postExposure averages the intensity over the reaction window after d.
// Missing days are skipped; at least one recorded day is required.
func (a *Analyzer) postExposure(d model.Date, intensity map[model.Date]float64) (float64, bool) {
	var sum float64
	var n int
	for k := 1; k <= a.cfg.ReactionWindowDays; k++ {
		if v, ok := intensity[d.AddDays(k)]; ok {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// localBaseline averages the intensity of days around d that act as this
// candidate's personal control group: the exposure day itself and every other
// day the candidate was logged on are excluded.
func (a *Analyzer) localBaseline(d model.Date, exposed map[model.Date]bool, intensity map[model.Date]float64) (float64, bool) {
	var sum float64
	var n int
	for off := -a.cfg.LocalBaselineRadiusDays; off <= a.cfg.LocalBaselineRadiusDays; off++ {
		if off == 0 {
			continue
		}
		day := d.AddDays(off)
		if exposed[day] {
			continue
		}
		if v, ok := intensity[day]; ok {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// confidence grades a result by exposure volume, demanding more volume the
// less consistent the outcomes are.
func (a *Analyzer) confidence(exposures int, consistency float64) model.CorrelationConfidence {
	switch {
	case exposures <= 4:
		return model.CorrelationLow
	case exposures <= 7:
		if consistency >= a.cfg.DominanceRatio {
			return model.CorrelationMedium
		}
		return model.CorrelationLow
	default:
		if consistency >= a.cfg.DominanceRatio {
			return model.CorrelationHigh
		}
		return model.CorrelationMedium
	}
}
