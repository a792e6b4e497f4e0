// Package quality summarizes how complete and analyzable an observation
// history is before the engine draws conclusions from it.
package quality

import (
	"fmt"
	"time"

	"github.com/flarelog/insight-cli/internal/model"
)

// Snapshot holds a point-in-time view of history quality.
type Snapshot struct {
	TotalObservations int `json:"total_observations"`

	FirstDate    model.Date `json:"first_date"`
	LastDate     model.Date `json:"last_date"`
	SpanDays     int        `json:"span_days"`
	DaysWithData int        `json:"days_with_data"`
	// CoverageRatio is DaysWithData over SpanDays.
	CoverageRatio float64 `json:"coverage_ratio"`
	MultiEntryDays int    `json:"multi_entry_days"`

	WithIntensity int `json:"with_intensity"`
	WithSymptoms  int `json:"with_symptoms"`
	Unscorable    int `json:"unscorable"`

	TaggedObservations int `json:"tagged_observations"`
	FoodTags           int `json:"food_tags"`
	ProductTags        int `json:"product_tags"`
	GenericTags        int `json:"generic_tags"`

	CollectedAt time.Time `json:"collected_at"`
}

// Collect computes a quality snapshot for an observation history.
func Collect(observations []model.Observation) *Snapshot {
	snap := &Snapshot{
		TotalObservations: len(observations),
		CollectedAt:       time.Now().UTC(),
	}
	if len(observations) == 0 {
		return snap
	}

	perDay := make(map[model.Date]int)
	for _, o := range observations {
		day := o.Date()
		perDay[day]++

		if snap.FirstDate.IsZero() || day.Before(snap.FirstDate) {
			snap.FirstDate = day
		}
		if day.After(snap.LastDate) {
			snap.LastDate = day
		}

		_, hasIntensity := o.Intensity()
		if hasIntensity {
			snap.WithIntensity++
		}
		if len(o.Symptoms) > 0 {
			snap.WithSymptoms++
		}
		if !hasIntensity && len(o.Symptoms) == 0 {
			snap.Unscorable++
		}

		if len(o.Tags) > 0 {
			snap.TaggedObservations++
		}
		for _, tag := range o.Tags {
			kind, name := model.SplitTag(tag)
			if name == "" {
				continue
			}
			switch kind {
			case model.CandidateFood:
				snap.FoodTags++
			case model.CandidateProduct:
				snap.ProductTags++
			default:
				snap.GenericTags++
			}
		}
	}

	snap.DaysWithData = len(perDay)
	snap.SpanDays = snap.LastDate.DaysSince(snap.FirstDate) + 1
	if snap.SpanDays > 0 {
		snap.CoverageRatio = float64(snap.DaysWithData) / float64(snap.SpanDays)
	}
	for _, n := range perDay {
		if n > 1 {
			snap.MultiEntryDays++
		}
	}

	return snap
}

// Warnings lists human-readable quality problems worth surfacing before the
// analysis output.
func (s *Snapshot) Warnings() []string {
	var out []string
	if s.TotalObservations == 0 {
		return []string{"history is empty"}
	}
	if s.CoverageRatio < 0.5 {
		out = append(out, fmt.Sprintf("only %d of %d days in the tracked span have entries", s.DaysWithData, s.SpanDays))
	}
	if s.Unscorable > 0 {
		out = append(out, fmt.Sprintf("%d observations carry neither symptoms nor an intensity score", s.Unscorable))
	}
	if s.TaggedObservations == 0 {
		out = append(out, "no observations are tagged; trigger correlation will find nothing")
	}
	return out
}
