package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Frontier-tech-consulting/composio-integration-frameworks/internal/config"
	"github.com/Frontier-tech-consulting/composio-integration-frameworks/internal/repository"
)

func newMigrateCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the postgres discussion schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if cfg.Discussions.Driver != config.DriverPostgres {
				return fmt.Errorf("migrate needs discussions.driver=%s, got %q",
					config.DriverPostgres, cfg.Discussions.Driver)
			}

			pool, err := initDatabase(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := repository.Migrate(cmd.Context(), pool); err != nil {
				return err
			}
			logger.Info("Migration complete")
			return nil
		},
	}
}
