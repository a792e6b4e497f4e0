package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/flarelog/insight-cli/internal/fetcher"
	"github.com/flarelog/insight-cli/internal/store"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import an observation export (csv, xlsx, json) into the store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		path := args[0]

		observations, err := fetcher.LoadFile(path)
		if err != nil {
			return err
		}
		if len(observations) == 0 {
			return eris.Errorf("no observations found in %s", path)
		}

		st, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return err
		}

		n, err := st.PutObservations(ctx, observations)
		if err != nil {
			return eris.Wrap(err, "import observations")
		}

		zap.L().Info("import complete",
			zap.Int("imported", n),
			zap.String("file", path),
		)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
