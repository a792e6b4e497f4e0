package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/flarelog/insight-cli/internal/correlation"
	"github.com/flarelog/insight-cli/internal/fetcher"
	"github.com/flarelog/insight-cli/internal/flare"
	"github.com/flarelog/insight-cli/internal/quality"
	"github.com/flarelog/insight-cli/internal/report"
)

var (
	batchOutDir  string
	batchFormat  string
	batchLimit   int
	batchWorkers int
)

var batchCmd = &cobra.Command{
	Use:   "batch <dir>",
	Short: "Analyze every export file in a directory",
	Long:  "Runs flare detection and trigger correlation over each csv/xlsx/json export in the directory and writes one report per file.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := flare.ValidateConfig(cfg.Flare); err != nil {
			return err
		}
		if err := correlation.ValidateConfig(cfg.Correlation); err != nil {
			return err
		}

		files, err := listExportFiles(args[0])
		if err != nil {
			return err
		}

		outDir := batchOutDir
		if outDir == "" {
			outDir = args[0]
		}
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return eris.Wrap(err, "create output directory")
		}

		workers := batchWorkers
		if workers == 0 {
			workers = cfg.Batch.MaxConcurrentFiles
		}

		return processBatch(ctx, files, batchLimit, workers, func(ctx context.Context, path string) error {
			return analyzeFile(path, outDir, batchFormat)
		})
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchOutDir, "out", "", "directory for report files (default alongside inputs)")
	batchCmd.Flags().StringVar(&batchFormat, "format", report.FormatJSON, "report format: text, json, yaml")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "max number of files to process (0 = all)")
	batchCmd.Flags().IntVar(&batchWorkers, "workers", 0, "concurrent files (default from config)")
	rootCmd.AddCommand(batchCmd)
}

func listExportFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, eris.Wrap(err, "read directory")
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".csv", ".xlsx", ".json":
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	return files, nil
}

// analyzeFunc is the callback signature for analyzing one export file.
type analyzeFunc func(ctx context.Context, path string) error

// processBatch applies limit, then analyzes files concurrently. Individual
// file failures are logged and counted, not fatal.
func processBatch(ctx context.Context, files []string, limit, concurrency int, analyze analyzeFunc) error {
	if len(files) == 0 {
		zap.L().Info("no export files found")
		return nil
	}

	if limit > 0 && len(files) > limit {
		files = files[:limit]
	}

	zap.L().Info("processing batch",
		zap.Int("files", len(files)),
		zap.Int("concurrency", concurrency),
	)

	var failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	start := time.Now()
	for _, path := range files {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			if err := analyze(gctx, path); err != nil {
				failed.Add(1)
				zap.L().Error("file analysis failed",
					zap.String("file", path),
					zap.Error(err),
				)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return eris.Wrap(err, "batch cancelled")
	}

	zap.L().Info("batch complete",
		zap.Int("files", len(files)),
		zap.Int64("failed", failed.Load()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// analyzeFile runs both analyzers over one export and writes the report next
// to it, swapping the extension for the format's.
func analyzeFile(path, outDir, format string) error {
	observations, err := fetcher.LoadFile(path)
	if err != nil {
		return err
	}

	out := &report.Report{
		GeneratedAt:  time.Now().UTC(),
		Flare:        flare.NewAnalyzer(cfg.Flare).Analyze(observations),
		Correlations: correlation.NewAnalyzer(cfg.Correlation).Analyze(observations),
		Quality:      quality.Collect(observations),
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	ext := map[string]string{report.FormatText: ".txt", report.FormatJSON: ".json", report.FormatYAML: ".yaml"}[format]
	if ext == "" {
		return eris.Errorf("unknown format %q", format)
	}
	target := filepath.Join(outDir, base+".report"+ext)

	f, err := os.Create(target)
	if err != nil {
		return eris.Wrap(err, "create report file")
	}
	defer f.Close()

	return report.Render(f, out, format)
}
