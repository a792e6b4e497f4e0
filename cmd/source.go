package main

import (
	"context"
	"math/rand"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/flarelog/insight-cli/internal/fetcher"
	"github.com/flarelog/insight-cli/internal/model"
	"github.com/flarelog/insight-cli/internal/store"
)

// sourceFlags selects where a command reads its observation history from:
// an export file, the demo generator, or the configured store.
type sourceFlags struct {
	input string
	demo  bool
	from  string
	to    string
}

func addSourceFlags(cmd *cobra.Command, f *sourceFlags) {
	cmd.Flags().StringVar(&f.input, "input", "", "read observations from an export file (csv, xlsx, json) instead of the store")
	cmd.Flags().BoolVar(&f.demo, "demo", false, "analyze a built-in synthetic history instead of real data")
	cmd.Flags().StringVar(&f.from, "from", "", "only include observations on or after this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.to, "to", "", "only include observations on or before this date (YYYY-MM-DD)")
}

func (f *sourceFlags) filter() (store.ObservationFilter, error) {
	var out store.ObservationFilter
	if f.from != "" {
		d, err := model.ParseDate(f.from)
		if err != nil {
			return out, err
		}
		out.From = &d
	}
	if f.to != "" {
		d, err := model.ParseDate(f.to)
		if err != nil {
			return out, err
		}
		out.To = &d
	}
	return out, nil
}

// load reads the observation history from the selected source. File input is
// range-filtered in memory; the store applies the range in the query.
func (f *sourceFlags) load(ctx context.Context) ([]model.Observation, error) {
	filter, err := f.filter()
	if err != nil {
		return nil, err
	}

	switch {
	case f.demo:
		return filterRange(demoHistory(), filter), nil
	case f.input != "":
		observations, err := fetcher.LoadFile(f.input)
		if err != nil {
			return nil, err
		}
		zap.L().Info("loaded observations from file",
			zap.String("path", f.input),
			zap.Int("count", len(observations)),
		)
		return filterRange(observations, filter), nil
	default:
		st, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return nil, err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return nil, err
		}

		observations, err := st.ListObservations(ctx, filter)
		if err != nil {
			return nil, eris.Wrap(err, "list observations")
		}
		return observations, nil
	}
}

func filterRange(observations []model.Observation, filter store.ObservationFilter) []model.Observation {
	if filter.From == nil && filter.To == nil {
		return observations
	}
	out := make([]model.Observation, 0, len(observations))
	for _, o := range observations {
		day := o.Date()
		if filter.From != nil && day.Before(*filter.From) {
			continue
		}
		if filter.To != nil && day.After(*filter.To) {
			continue
		}
		out = append(out, o)
	}
	return out
}

// demoHistory generates a fixed 60-day synthetic history: a calm baseline, a
// flare episode around day 30, dairy exposures that precede worse days, and a
// neutral control food. Seeded so repeated runs produce identical output.
func demoHistory() []model.Observation {
	rng := rand.New(rand.NewSource(42))
	start := model.NewDate(2025, time.April, 1)

	var out []model.Observation
	for day := 0; day < 60; day++ {
		date := start.AddDays(day)

		severity := 0.8 + rng.Float64()*0.4
		// Flare: ramp up over days 28-31, hold, then fade.
		switch {
		case day >= 28 && day <= 31:
			severity += float64(day-27) * 0.5
		case day >= 32 && day <= 36:
			severity += 2.0 - float64(day-32)*0.4
		}
		// Dairy on every fifth day pushes the next two days up.
		if day%5 == 1 || day%5 == 2 {
			severity += 0.7
		}
		if severity > model.SymptomSeverityMax {
			severity = model.SymptomSeverityMax
		}

		intensity := severity * model.SkinIntensityMax / model.SymptomSeverityMax
		var tags []string
		if day%5 == 0 {
			tags = append(tags, "food:dairy")
		}
		if day%7 == 0 {
			tags = append(tags, "food:rice")
		}
		if day >= 40 && day%4 == 0 {
			tags = append(tags, "product:barrier cream")
		}

		out = append(out, model.Observation{
			RecordedAt: date.Time().Add(time.Duration(8+rng.Intn(4)) * time.Hour),
			Symptoms: []model.SymptomEntry{
				{Name: "itching", Severity: severity},
				{Name: "redness", Severity: severity * 0.8},
			},
			SkinIntensity: &intensity,
			Tags:          tags,
		})
	}
	return out
}
