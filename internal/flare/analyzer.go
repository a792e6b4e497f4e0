package flare

import (
	"go.uber.org/zap"

	"github.com/flarelog/insight-cli/internal/config"
	"github.com/flarelog/insight-cli/internal/model"
)

// Analyzer classifies a user's severity timeline into flare episodes and
// per-day states. It is a pure function of its input: no state is kept
// between calls and the full history is recomputed every time.
type Analyzer struct {
	cfg config.FlareConfig
}

// NewAnalyzer creates an Analyzer with the given config.
func NewAnalyzer(cfg config.FlareConfig) *Analyzer {
	return &Analyzer{cfg: cfg}
}

// Analyze runs the full flare pipeline over the observation history. Caller
// ordering does not matter; observations are grouped and sorted internally.
func (a *Analyzer) Analyze(observations []model.Observation) *model.FlareAnalysis {
	burdens := Aggregate(observations)

	analysis := &model.FlareAnalysis{
		DailyBurdens: burdens,
		Confidence:   a.confidence(len(burdens)),
		Episodes:     []model.FlareEpisode{},
		DailyStates:  []model.DailyFlareState{},
		CurrentState: model.FlareStateStable,
	}
	if len(burdens) == 0 {
		return analysis
	}

	// While confidence is early no thresholds exist, so no runs, episodes,
	// or non-stable states can be produced below.
	gated := analysis.Confidence == model.ConfidenceEarly

	states := make([]model.DailyFlareState, len(burdens))
	for i, b := range burdens {
		s := model.DailyFlareState{
			Date:  b.Date,
			Score: b.Score,
			State: model.FlareStateStable,
		}
		if base := a.baselineAt(burdens, i); base != nil {
			s.Baseline = base
			if !gated {
				threshold := *base + a.cfg.FlareMargin
				s.Threshold = &threshold
			}
		}
		states[i] = s
	}

	runs := a.collectRuns(burdens, states)
	lastDate := burdens[len(burdens)-1].Date

	for _, r := range runs {
		if r.length() < a.cfg.MinEpisodeDays {
			a.markPreFlare(burdens, states, r)
			continue
		}

		peak := r.start
		for i := r.start + 1; i <= r.end; i++ {
			// Strict > keeps the earliest day on ties.
			if burdens[i].Score > burdens[peak].Score {
				peak = i
			}
		}

		ep := model.FlareEpisode{
			StartDate:    burdens[r.start].Date,
			PeakDate:     burdens[peak].Date,
			PeakScore:    burdens[peak].Score,
			DurationDays: r.length(),
		}
		if burdens[r.end].Date == lastDate {
			ep.IsActive = true
		} else {
			end := burdens[r.end].Date
			ep.EndDate = &end
		}
		analysis.Episodes = append(analysis.Episodes, ep)

		for i := r.start; i <= r.end; i++ {
			if i == peak {
				states[i].State = model.FlareStatePeak
			} else {
				states[i].State = model.FlareStateActive
			}
		}
	}

	a.markResolving(burdens, states, analysis.Episodes)

	analysis.DailyStates = states
	current := states[len(states)-1]
	analysis.CurrentState = current.State
	analysis.Baseline = current.Baseline
	analysis.Threshold = current.Threshold

	for _, ep := range analysis.Episodes {
		if ep.IsActive {
			analysis.IsActiveFlare = true
			analysis.CurrentFlareDurationDays = ep.DurationDays
		}
	}

	zap.L().Debug("flare: analysis complete",
		zap.Int("days", len(burdens)),
		zap.String("confidence", string(analysis.Confidence)),
		zap.Int("episodes", len(analysis.Episodes)),
		zap.String("current_state", string(analysis.CurrentState)),
		zap.Bool("active_flare", analysis.IsActiveFlare),
	)

	return analysis
}

// confidence maps accumulated day count to a trust tier.
func (a *Analyzer) confidence(dayCount int) model.BaselineConfidence {
	switch {
	case dayCount < a.cfg.ProvisionalMinDays:
		return model.ConfidenceEarly
	case dayCount < a.cfg.MatureMinDays:
		return model.ConfidenceProvisional
	default:
		return model.ConfidenceMature
	}
}

// baselineAt computes the trailing-window baseline for the day at index i:
// the mean score of days within the window ending the day before. The current
// day never contributes; days missing from the history and days whose
// observations carried no severity signal are excluded rather than treated as
// zero. Returns nil when no prior day falls inside the window.
func (a *Analyzer) baselineAt(burdens []model.DailyBurden, i int) *float64 {
	var sum float64
	var n int
	for j := i - 1; j >= 0; j-- {
		gap := burdens[i].Date.DaysSince(burdens[j].Date)
		if gap > a.cfg.BaselineWindowDays {
			break
		}
		if burdens[j].ScoredObservations == 0 {
			continue
		}
		sum += burdens[j].Score
		n++
	}
	if n == 0 {
		return nil
	}
	mean := sum / float64(n)
	return &mean
}

// run is a maximal stretch of calendar-consecutive days whose score reached
// that day's own threshold. Indices point into the burdens slice.
type run struct {
	start, end int
}

func (r run) length() int { return r.end - r.start + 1 }

// collectRuns scans days in ascending order and groups above-threshold days
// into runs. A missing calendar day breaks a run even if the next recorded
// day is above threshold again.
func (a *Analyzer) collectRuns(burdens []model.DailyBurden, states []model.DailyFlareState) []run {
	var runs []run
	open := false
	for i, b := range burdens {
		above := states[i].Threshold != nil && b.Score >= *states[i].Threshold
		if !above {
			open = false
			continue
		}
		if open && b.Date == burdens[i-1].Date.AddDays(1) {
			runs[len(runs)-1].end = i
			continue
		}
		runs = append(runs, run{start: i, end: i})
		open = true
	}
	return runs
}

// markPreFlare labels days of a run that never reached episode length.
// A day reads as pre-flare only while its score is strictly rising.
func (a *Analyzer) markPreFlare(burdens []model.DailyBurden, states []model.DailyFlareState, r run) {
	for i := r.start; i <= r.end; i++ {
		if i > 0 && burdens[i].Score > burdens[i-1].Score {
			states[i].State = model.FlareStatePreFlare
		}
	}
}

// markResolving labels falling-score days shortly after a closed episode.
func (a *Analyzer) markResolving(burdens []model.DailyBurden, states []model.DailyFlareState, episodes []model.FlareEpisode) {
	for _, ep := range episodes {
		if ep.EndDate == nil {
			continue
		}
		for i := 1; i < len(burdens); i++ {
			if states[i].State != model.FlareStateStable {
				continue
			}
			gap := burdens[i].Date.DaysSince(*ep.EndDate)
			if gap >= 1 && gap <= a.cfg.ResolvingWindowDays && burdens[i].Score < burdens[i-1].Score {
				states[i].State = model.FlareStateResolving
			}
		}
	}
}
