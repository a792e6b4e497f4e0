package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/flarelog/insight-cli/internal/correlation"
	"github.com/flarelog/insight-cli/internal/quality"
	"github.com/flarelog/insight-cli/internal/report"
)

var (
	triggersSource  sourceFlags
	triggersFormat  string
	triggersQuality bool
	triggersLimit   int
)

var triggersCmd = &cobra.Command{
	Use:   "triggers",
	Short: "Rank tagged foods and products by post-exposure severity pattern",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := correlation.ValidateConfig(cfg.Correlation); err != nil {
			return err
		}

		observations, err := triggersSource.load(cmd.Context())
		if err != nil {
			return err
		}

		results := correlation.NewAnalyzer(cfg.Correlation).Analyze(observations)
		if triggersLimit > 0 && len(results) > triggersLimit {
			results = results[:triggersLimit]
		}
		zap.L().Info("trigger correlation complete",
			zap.Int("observations", len(observations)),
			zap.Int("candidates", len(results)),
		)

		out := &report.Report{GeneratedAt: time.Now().UTC(), Correlations: results}
		if triggersQuality {
			out.Quality = quality.Collect(observations)
		}
		return report.Render(os.Stdout, out, triggersFormat)
	},
}

func init() {
	addSourceFlags(triggersCmd, &triggersSource)
	triggersCmd.Flags().StringVar(&triggersFormat, "format", report.FormatText, "output format: text, json, yaml")
	triggersCmd.Flags().BoolVar(&triggersQuality, "quality", false, "include a history quality section")
	triggersCmd.Flags().IntVar(&triggersLimit, "limit", 0, "show at most this many candidates (0 = all)")
	rootCmd.AddCommand(triggersCmd)
}
