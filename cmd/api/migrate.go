package main

import (
	"log/slog"

	"github.com/hr-data-api/internal/database"
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			db, err := database.Connect(ctx, cfg.Database, logger)
			if err != nil {
				return err
			}
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			defer sqlDB.Close()

			if err := database.Migrate(ctx, db, cfg.Database.Driver); err != nil {
				return err
			}
			logger.Info("migrations applied", slog.String("driver", cfg.Database.Driver))
			return nil
		},
	}
}
