package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/database"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			db, err := database.Connect(cfg)
			if err != nil {
				slog.Error("database connection failed", "error", err)
				return err
			}
			defer database.Close(db)

			if err := database.Migrate(db); err != nil {
				slog.Error("migration failed", "error", err)
				return err
			}
			cmd.Println("schema is up to date")
			return nil
		},
	}
}
