package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/dfs/backend/internal/store"
	"github.com/wonny/dfs/backend/pkg/config"
	"github.com/wonny/dfs/backend/pkg/database"
	"github.com/wonny/dfs/backend/pkg/logger"
)

// migrateCmd applies the database schema
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	Long:  `Creates tables and indexes. Idempotent; safe to run repeatedly.`,
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	if err := store.Migrate(context.Background(), db.Pool); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	log.Info("Schema applied")
	fmt.Println("Schema applied")
	return nil
}
