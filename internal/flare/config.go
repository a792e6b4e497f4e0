// Package flare implements day-level flare detection over a self-reported
// severity timeline: daily aggregation, trailing baseline, confidence gating,
// episode detection, and per-day state classification.
package flare

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/flarelog/insight-cli/internal/config"
)

// DefaultConfig returns a config.FlareConfig with the engine defaults.
func DefaultConfig() config.FlareConfig {
	return config.FlareConfig{
		// Trailing window the per-day baseline is averaged over.
		BaselineWindowDays: 14,
		// Margin above baseline a day must reach to count toward a flare,
		// in severity units on the 0-3 scale.
		FlareMargin: 0.5,
		// Consecutive above-threshold days before a run becomes an episode.
		MinEpisodeDays: 3,
		// Confidence tiers: early below provisional_min_days, mature at
		// mature_min_days and beyond.
		ProvisionalMinDays: 7,
		MatureMinDays:      14,
		// Days after an episode end during which falling scores read as
		// "resolving".
		ResolvingWindowDays: 3,
	}
}

// ValidateConfig checks that a FlareConfig is internally consistent.
func ValidateConfig(c config.FlareConfig) error {
	var errs []string

	if c.BaselineWindowDays < 1 {
		errs = append(errs, "baseline_window_days must be >= 1")
	}
	if c.FlareMargin <= 0 {
		errs = append(errs, "flare_margin must be > 0")
	}
	if c.MinEpisodeDays < 1 {
		errs = append(errs, "min_episode_days must be >= 1")
	}
	if c.ProvisionalMinDays < 1 {
		errs = append(errs, "provisional_min_days must be >= 1")
	}
	if c.MatureMinDays < c.ProvisionalMinDays {
		errs = append(errs, fmt.Sprintf("mature_min_days must be >= provisional_min_days (%d)", c.ProvisionalMinDays))
	}
	if c.ResolvingWindowDays < 0 {
		errs = append(errs, "resolving_window_days must be >= 0")
	}

	if len(errs) > 0 {
		return eris.Errorf("flare: config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
