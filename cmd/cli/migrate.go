package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/iho/walletledger/internal/infrastructure/logger"
	"github.com/iho/walletledger/internal/infrastructure/postgres"
)

const defaultMigrationsPath = "internal/infrastructure/postgres/migrations"

func migrateCmd() *cobra.Command {
	var databaseURL, path string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}

	cmd.PersistentFlags().StringVar(&databaseURL, "database", os.Getenv("DATABASE_URL"), "PostgreSQL URL (default $DATABASE_URL)")
	cmd.PersistentFlags().StringVar(&path, "path", defaultMigrationsPath, "Directory holding the migration files")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				log := migrationLogger(cmd)
				return postgres.RunMigrations(databaseURL, path, log)
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			RunE: func(cmd *cobra.Command, args []string) error {
				log := migrationLogger(cmd)
				return postgres.RunMigrationsDown(databaseURL, path, log)
			},
		},
	)

	return cmd
}

func migrationLogger(cmd *cobra.Command) zerolog.Logger {
	return logger.New(logger.Config{
		Level:   "info",
		Format:  "console",
		Service: "walletledger-cli",
		Output:  cmd.ErrOrStderr(),
	})
}
