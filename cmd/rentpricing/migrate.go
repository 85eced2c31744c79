package main

import (
	"context"

	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	var seed bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create tables and indexes for the configured store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			app, err := buildApplication(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer app.close(context.Background())

			if err := app.storage.migrate(ctx); err != nil {
				return err
			}
			logger.Info("schema up to date", "driver", cfg.StoreDriver)
			if seed {
				return app.loadFixtures(ctx, cfg.FixturesPath)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&seed, "seed", false, "load FIXTURES_PATH after migrating")
	return cmd
}
