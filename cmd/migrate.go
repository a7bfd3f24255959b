package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/viktsys/stockfolio/database"
)

var migrateCMD = &cobra.Command{
	Use:   "migrate",
	Short: "Create the portfolio schema and exit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logCloser, err := bootstrap()
		if err != nil {
			return err
		}
		defer logCloser.Close()

		// Open migrates.
		db, err := database.Open(cfg.DB)
		if err != nil {
			return err
		}
		defer database.Close(db)

		slog.Info("Migration completed", slog.String("driver", cfg.DB.Driver))
		return nil
	},
}
