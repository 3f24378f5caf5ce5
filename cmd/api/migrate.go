package main

import (
	"context"
	"fmt"
	"time"

	"github.com/egner-npc/pengaduan-masyarakat-app/internal/database"
	"github.com/spf13/cobra"
)

var (
	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded SQL migrations",
		RunE:  runMigrate,
	}
	migrateDown bool
)

func init() {
	migrateCmd.Flags().BoolVarP(&migrateDown, "down", "d", false, "roll back the latest migration instead")
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()

	db, err := database.NewConnection(ctx, &cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	direction := "up"
	if migrateDown {
		direction = "down"
	}
	return db.Migrate(ctx, direction)
}
