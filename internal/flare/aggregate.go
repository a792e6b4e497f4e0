package flare

import (
	"slices"

	"github.com/flarelog/insight-cli/internal/model"
)

// observationSeverity reduces one observation to a single severity on the 0-3
// symptom scale. Symptom severities are averaged and, when an overall skin
// intensity is also present, blended 50/50 with the intensity normalized onto
// the same scale. Observations with neither signal are not scoreable.
func observationSeverity(o model.Observation) (float64, bool) {
	intensity, hasIntensity := o.Intensity()
	normalized := intensity * model.SymptomSeverityMax / model.SkinIntensityMax

	if len(o.Symptoms) > 0 {
		mean := o.SymptomTotal() / float64(len(o.Symptoms))
		if hasIntensity {
			return (mean + normalized) / 2, true
		}
		return mean, true
	}
	if hasIntensity {
		return normalized, true
	}
	return 0, false
}

// Aggregate collapses observations into one DailyBurden per calendar date,
// sorted ascending. Same-day observations are averaged, never summed. Every
// distinct date yields exactly one entry even when none of its observations
// carry a scoreable signal.
func Aggregate(observations []model.Observation) []model.DailyBurden {
	type dayAcc struct {
		scoreSum        float64
		scored          int
		count           int
		maxIntensity    float64
		maxSymptomTotal float64
	}

	days := make(map[model.Date]*dayAcc)
	for _, o := range observations {
		date := o.Date()
		acc := days[date]
		if acc == nil {
			acc = &dayAcc{}
			days[date] = acc
		}
		acc.count++

		if sev, ok := observationSeverity(o); ok {
			acc.scoreSum += sev
			acc.scored++
		}
		if intensity, ok := o.Intensity(); ok && intensity > acc.maxIntensity {
			acc.maxIntensity = intensity
		}
		if total := o.SymptomTotal(); total > acc.maxSymptomTotal {
			acc.maxSymptomTotal = total
		}
	}

	burdens := make([]model.DailyBurden, 0, len(days))
	for date, acc := range days {
		var score float64
		if acc.scored > 0 {
			score = acc.scoreSum / float64(acc.scored)
		}
		burdens = append(burdens, model.DailyBurden{
			Date:               date,
			Score:              score,
			MaxIntensity:       acc.maxIntensity,
			MaxSymptomTotal:    acc.maxSymptomTotal,
			Observations:       acc.count,
			ScoredObservations: acc.scored,
		})
	}

	slices.SortFunc(burdens, func(a, b model.DailyBurden) int {
		return model.CompareDates(a.Date, b.Date)
	})
	return burdens
}
