package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/flarelog/insight-cli/internal/flare"
	"github.com/flarelog/insight-cli/internal/quality"
	"github.com/flarelog/insight-cli/internal/report"
)

var (
	analyzeSource  sourceFlags
	analyzeFormat  string
	analyzeQuality bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Detect flare episodes and classify the severity timeline",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := flare.ValidateConfig(cfg.Flare); err != nil {
			return err
		}

		observations, err := analyzeSource.load(cmd.Context())
		if err != nil {
			return err
		}

		analysis := flare.NewAnalyzer(cfg.Flare).Analyze(observations)
		zap.L().Info("flare analysis complete",
			zap.Int("observations", len(observations)),
			zap.Int("days", len(analysis.DailyBurdens)),
			zap.String("confidence", string(analysis.Confidence)),
			zap.String("state", string(analysis.CurrentState)),
		)

		out := &report.Report{GeneratedAt: time.Now().UTC(), Flare: analysis}
		if analyzeQuality {
			out.Quality = quality.Collect(observations)
		}
		return report.Render(os.Stdout, out, analyzeFormat)
	},
}

func init() {
	addSourceFlags(analyzeCmd, &analyzeSource)
	analyzeCmd.Flags().StringVar(&analyzeFormat, "format", report.FormatText, "output format: text, json, yaml")
	analyzeCmd.Flags().BoolVar(&analyzeQuality, "quality", false, "include a history quality section")
	rootCmd.AddCommand(analyzeCmd)
}
