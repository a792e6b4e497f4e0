package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func TestObservation_Intensity(t *testing.T) {
	t.Run("explicit intensity wins", func(t *testing.T) {
		o := Observation{SkinIntensity: floatPtr(4), Feeling: intPtr(5)}
		v, ok := o.Intensity()
		assert.True(t, ok)
		assert.Equal(t, 4.0, v)
	})

	t.Run("feeling is inverted", func(t *testing.T) {
		o := Observation{Feeling: intPtr(2)}
		v, ok := o.Intensity()
		assert.True(t, ok)
		assert.Equal(t, 3.0, v) // 5 - 2
	})

	t.Run("neither present", func(t *testing.T) {
		_, ok := Observation{}.Intensity()
		assert.False(t, ok)
	})
}

func TestObservation_SymptomTotal(t *testing.T) {
	o := Observation{Symptoms: []SymptomEntry{
		{Name: "itching", Severity: 2},
		{Name: "redness", Severity: 1.5},
	}}
	assert.Equal(t, 3.5, o.SymptomTotal())
	assert.Equal(t, 0.0, Observation{}.SymptomTotal())
}

func TestObservation_Date(t *testing.T) {
	o := Observation{RecordedAt: time.Date(2025, time.May, 3, 22, 15, 0, 0, time.Local)}
	assert.Equal(t, NewDate(2025, time.May, 3), o.Date())
}

func TestSplitTag(t *testing.T) {
	tests := []struct {
		raw  string
		kind CandidateKind
		name string
	}{
		{"food:Dairy", CandidateFood, "Dairy"},
		{"FOOD: gluten ", CandidateFood, "gluten"},
		{"product:new moisturizer", CandidateProduct, "new moisturizer"},
		{" stress ", CandidateTrigger, "stress"},
		{"pollen", CandidateTrigger, "pollen"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			kind, name := SplitTag(tt.raw)
			assert.Equal(t, tt.kind, kind)
			assert.Equal(t, tt.name, name)
		})
	}
}
