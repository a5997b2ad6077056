package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ats-backend/internal/shared/storage/db"
	"ats-backend/internal/shared/telemetry"
)

var migrateDatabaseURL string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		url := migrateDatabaseURL
		if url == "" {
			url = loadConfig().DatabaseURL
		}
		sqlDB, err := db.Connect(cmd.Context(), url, db.OptionsFromEnv(db.DefaultMigrateOptions()))
		if err != nil {
			return err
		}
		defer sqlDB.Close()

		if err := db.RunMigrations(cmd.Context(), sqlDB); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		telemetry.Info("migrate.complete", nil)
		return nil
	},
}

func init() {
	migrateCmd.Flags().StringVar(&migrateDatabaseURL, "database-url", "", "database URL (default DATABASE_URL)")
	rootCmd.AddCommand(migrateCmd)
}
