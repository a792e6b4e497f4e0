// Package correlation estimates, per tagged trigger candidate, whether
// exposure tends to precede a worsening of skin intensity, using a delayed
// reaction window and a local control baseline of unexposed nearby days.
package correlation

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/flarelog/insight-cli/internal/config"
	"github.com/flarelog/insight-cli/internal/model"
)

// DefaultConfig returns a config.CorrelationConfig with the engine defaults.
func DefaultConfig() config.CorrelationConfig {
	return config.CorrelationConfig{
		// Days after an exposure examined for a delayed reaction (D+1..D+3).
		ReactionWindowDays: 3,
		// Half-width of the symmetric window the local baseline is drawn from.
		LocalBaselineRadiusDays: 7,
		// Below this many exposures (or analyzable exposures) a candidate is
		// reported as insufficient_data.
		MinExposures: 3,
		// Post-exposure delta cutoffs on the 0-5 intensity scale, symmetric
		// by default.
		WorseDelta:  0.5,
		BetterDelta: 0.5,
		// A single outcome must reach this share of analyzable exposures to
		// dominate; worse+better together must reach mixed_ratio for "mixed".
		DominanceRatio: 0.6,
		MixedRatio:     0.5,

		FoodPrefix:         model.TagPrefixFood,
		ProductPrefix:      model.TagPrefixProduct,
		IncludeGenericTags: true,
	}
}

// ValidateConfig checks that a CorrelationConfig is internally consistent.
func ValidateConfig(c config.CorrelationConfig) error {
	var errs []string

	if c.ReactionWindowDays < 1 {
		errs = append(errs, "reaction_window_days must be >= 1")
	}
	if c.LocalBaselineRadiusDays < 1 {
		errs = append(errs, "local_baseline_radius_days must be >= 1")
	}
	if c.MinExposures < 1 {
		errs = append(errs, "min_exposures must be >= 1")
	}
	if c.WorseDelta <= 0 {
		errs = append(errs, "worse_delta must be > 0")
	}
	if c.BetterDelta <= 0 {
		errs = append(errs, "better_delta must be > 0")
	}
	if c.DominanceRatio <= 0 || c.DominanceRatio > 1 {
		errs = append(errs, "dominance_ratio must be in (0, 1]")
	}
	if c.MixedRatio <= 0 || c.MixedRatio > 1 {
		errs = append(errs, "mixed_ratio must be in (0, 1]")
	}
	if c.FoodPrefix != "" && c.FoodPrefix == c.ProductPrefix {
		errs = append(errs, fmt.Sprintf("food_prefix and product_prefix must differ (both %q)", c.FoodPrefix))
	}

	if len(errs) > 0 {
		return eris.Errorf("correlation: config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
