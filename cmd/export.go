package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/flarelog/insight-cli/internal/store"
)

var (
	exportSource sourceFlags
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored observations as a JSON history file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		filter, err := exportSource.filter()
		if err != nil {
			return err
		}

		st, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return err
		}

		observations, err := st.ListObservations(ctx, filter)
		if err != nil {
			return eris.Wrap(err, "list observations")
		}

		w := os.Stdout
		if exportOut != "" {
			f, err := os.Create(exportOut)
			if err != nil {
				return eris.Wrap(err, "create output file")
			}
			defer f.Close()
			w = f
		}

		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(observations); err != nil {
			return eris.Wrap(err, "encode observations")
		}

		zap.L().Info("export complete",
			zap.Int("observations", len(observations)),
			zap.String("out", exportOut),
		)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportSource.from, "from", "", "only include observations on or after this date (YYYY-MM-DD)")
	exportCmd.Flags().StringVar(&exportSource.to, "to", "", "only include observations on or before this date (YYYY-MM-DD)")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output file (default stdout)")
	rootCmd.AddCommand(exportCmd)
}
