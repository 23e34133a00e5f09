package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/kelydev/apiUsuarios/database"
	"github.com/kelydev/apiUsuarios/logging"
)

var migrateDown bool

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long:  `Apply all pending migrations, or roll every migration back with --down.`,
		RunE:  runMigrate,
	}
	cmd.Flags().BoolVar(&migrateDown, "down", false, "roll back all migrations (drops the usuario table)")
	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := logging.Setup(serviceName, version, cfg.LogFormat, cmd.ErrOrStderr())

	if migrateDown {
		m, err := database.NewMigrator(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer m.Close()
		if err := m.Down(); err != nil {
			return err
		}
		logger.Info("migrations rolled back")
		return nil
	}
	return applyMigrations(cfg.DatabaseURL, logger)
}

func applyMigrations(databaseURL string, logger *slog.Logger) error {
	m, err := database.NewMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		return err
	}
	v, dirty, err := m.Version()
	if err != nil {
		return err
	}
	logger.Info("migrations applied", "version", v, "dirty", dirty)
	return nil
}
