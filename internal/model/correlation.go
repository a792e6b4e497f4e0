package model

// CorrelationPattern classifies how a trigger candidate relates to
// post-exposure severity across its analyzable exposures.
type CorrelationPattern string

const (
	PatternOftenWorse       CorrelationPattern = "often_worse"
	PatternOftenBetter      CorrelationPattern = "often_better"
	PatternMixed            CorrelationPattern = "mixed"
	PatternNone             CorrelationPattern = "no_pattern"
	PatternInsufficientData CorrelationPattern = "insufficient_data"
)

// Weight returns the ranking weight of the pattern. Worsening patterns rank
// above everything else since they are the actionable finding for the user.
func (p CorrelationPattern) Weight() float64 {
	switch p {
	case PatternOftenWorse:
		return 1.0
	case PatternMixed:
		return 0.5
	case PatternOftenBetter:
		return 0.3
	case PatternNone:
		return 0.2
	default:
		return 0
	}
}

// CorrelationConfidence grades how much exposure volume backs a result.
type CorrelationConfidence string

const (
	CorrelationLow    CorrelationConfidence = "low"
	CorrelationMedium CorrelationConfidence = "medium"
	CorrelationHigh   CorrelationConfidence = "high"
)

// CorrelationResult is the per-candidate outcome of the trigger analyzer.
// Invariant: WorseDays + BetterDays + NeutralDays = AnalyzableExposures and
// AnalyzableExposures <= TotalExposureDays.
type CorrelationResult struct {
	Name                string                `json:"name"`
	Kind                CandidateKind         `json:"kind"`
	TotalExposureDays   int                   `json:"total_exposure_days"`
	AnalyzableExposures int                   `json:"analyzable_exposures"`
	WorseDays           int                   `json:"worse_days"`
	BetterDays          int                   `json:"better_days"`
	NeutralDays         int                   `json:"neutral_days"`
	Pattern             CorrelationPattern    `json:"pattern"`
	Consistency         float64               `json:"consistency"`
	Confidence          CorrelationConfidence `json:"confidence"`
	RankScore           float64               `json:"rank_score"`
}
