package main

import (
	"github.com/spf13/cobra"

	pgInfra "github.com/fastygo/interceptor/internal/infrastructure/postgres"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the Postgres store schema and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, zapLogger, err := bootstrap()
		if err != nil {
			return err
		}
		defer zapLogger.Sync()

		cfg.Migrations.Enabled = true
		return pgInfra.RunMigrations(cfg, zapLogger)
	},
}
