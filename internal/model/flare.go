package model

// BaselineConfidence is the data-volume trust tier for flare conclusions.
// Derived solely from how many daily burden entries exist; while the tier is
// early the engine reports no thresholds, episodes, or non-stable states.
type BaselineConfidence string

const (
	ConfidenceEarly       BaselineConfidence = "early"
	ConfidenceProvisional BaselineConfidence = "provisional"
	ConfidenceMature      BaselineConfidence = "mature"
)

// FlareState labels a single day of the severity timeline.
type FlareState string

const (
	FlareStateStable    FlareState = "stable"
	FlareStatePreFlare  FlareState = "pre_flare"
	FlareStateActive    FlareState = "active_flare"
	FlareStatePeak      FlareState = "peak"
	FlareStateResolving FlareState = "resolving"
)

// DailyBurden is the aggregated severity for one calendar date. Score is the
// mean per-observation severity on the symptom 0-3 scale; the max fields are
// carried for display only and play no part in episode detection. A day whose
// observations all lack a severity signal keeps its entry with Score 0 and
// ScoredObservations 0; such days never feed baselines, so they cannot read
// as artificially calm.
type DailyBurden struct {
	Date               Date    `json:"date"`
	Score              float64 `json:"score"`
	MaxIntensity       float64 `json:"max_intensity"`
	MaxSymptomTotal    float64 `json:"max_symptom_total"`
	Observations       int     `json:"observations"`
	ScoredObservations int     `json:"scored_observations"`
}

// FlareEpisode is a contiguous run of at least three days whose score stayed
// at or above that day's own threshold. EndDate is nil while the run reaches
// the most recent available day.
type FlareEpisode struct {
	StartDate    Date    `json:"start_date"`
	EndDate      *Date   `json:"end_date,omitempty"`
	PeakDate     Date    `json:"peak_date"`
	DurationDays int     `json:"duration_days"`
	PeakScore    float64 `json:"peak_score"`
	IsActive     bool    `json:"is_active"`
}

// DailyFlareState is the per-day classification. Baseline and Threshold are
// nil when no prior history exists or the confidence gate suppresses them.
type DailyFlareState struct {
	Date      Date       `json:"date"`
	Score     float64    `json:"score"`
	Baseline  *float64   `json:"baseline,omitempty"`
	Threshold *float64   `json:"threshold,omitempty"`
	State     FlareState `json:"state"`
}

// FlareAnalysis is the full output of the flare detector. Baseline and
// Threshold reflect the most recent day.
type FlareAnalysis struct {
	DailyBurdens             []DailyBurden      `json:"daily_burdens"`
	Confidence               BaselineConfidence `json:"confidence"`
	Baseline                 *float64           `json:"baseline,omitempty"`
	Threshold                *float64           `json:"threshold,omitempty"`
	Episodes                 []FlareEpisode     `json:"episodes"`
	DailyStates              []DailyFlareState  `json:"daily_states"`
	CurrentState             FlareState         `json:"current_state"`
	IsActiveFlare            bool               `json:"is_active_flare"`
	CurrentFlareDurationDays int                `json:"current_flare_duration_days"`
}
