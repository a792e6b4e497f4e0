// Package model defines the observation records supplied by the tracking app
// and the derived analysis types the engine hands back.
package model

import (
	"strings"
	"time"
)

// Severity and intensity scale bounds.
const (
	SymptomSeverityMax = 3.0 // per-symptom severity scale 0-3
	SkinIntensityMax   = 5.0 // overall skin-intensity scale 0-5
	FeelingMax         = 5   // "feeling" scale 1-5, inverse of intensity
)

// Well-known tag category prefixes used by the app when logging triggers.
const (
	TagPrefixFood    = "food:"
	TagPrefixProduct = "product:"
)

// CandidateKind classifies a trigger candidate by the tag category it came from.
type CandidateKind string

const (
	CandidateFood    CandidateKind = "food"
	CandidateProduct CandidateKind = "product"
	CandidateTrigger CandidateKind = "trigger"
)

// SymptomEntry is one self-reported symptom severity within an observation.
type SymptomEntry struct {
	Name     string  `json:"name"`
	Severity float64 `json:"severity"` // 0-3
}

// Observation is a single self-reported check-in. All scale fields are
// optional; the engine falls back to whatever is present and never rejects a
// structurally valid record.
type Observation struct {
	ID            string         `json:"id"`
	RecordedAt    time.Time      `json:"recorded_at"`
	Symptoms      []SymptomEntry `json:"symptoms,omitempty"`
	SkinIntensity *float64       `json:"skin_intensity,omitempty"` // 0-5
	Feeling       *int           `json:"feeling,omitempty"`        // 1-5, 5 = best
	Pain          *int           `json:"pain,omitempty"`           // 0-10
	Sleep         *int           `json:"sleep,omitempty"`          // 1-5
	Mood          *int           `json:"mood,omitempty"`           // 1-5
	Tags          []string       `json:"tags,omitempty"`
}

// Date returns the calendar date the observation belongs to.
func (o Observation) Date() Date {
	return DateOf(o.RecordedAt)
}

// Intensity returns the observation's overall skin intensity on the 0-5
// scale. The explicit skin-intensity field wins; the 1-5 feeling scale is its
// inverse (5 - feeling). The second return is false when neither is present.
func (o Observation) Intensity() (float64, bool) {
	if o.SkinIntensity != nil {
		return *o.SkinIntensity, true
	}
	if o.Feeling != nil {
		return float64(FeelingMax - *o.Feeling), true
	}
	return 0, false
}

// SymptomTotal returns the sum of all symptom severities in the observation.
func (o Observation) SymptomTotal() float64 {
	var total float64
	for _, s := range o.Symptoms {
		total += s.Severity
	}
	return total
}

// SplitTag strips a known category prefix from a raw tag and reports which
// candidate kind it denotes. Unprefixed tags are generic triggers. The
// returned name is trimmed but not case-folded; canonicalization is the
// correlation analyzer's concern.
func SplitTag(raw string) (CandidateKind, string) {
	trimmed := strings.TrimSpace(raw)
	lower := strings.ToLower(trimmed)
	switch {
	case strings.HasPrefix(lower, TagPrefixFood):
		return CandidateFood, strings.TrimSpace(trimmed[len(TagPrefixFood):])
	case strings.HasPrefix(lower, TagPrefixProduct):
		return CandidateProduct, strings.TrimSpace(trimmed[len(TagPrefixProduct):])
	default:
		return CandidateTrigger, trimmed
	}
}
