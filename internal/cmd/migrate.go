package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"backoffice-system/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	rt, err := bootstrap()
	if err != nil {
		return err
	}
	defer rt.close()

	if err := database.Migrate(rt.db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	rt.logger.Info("Database schema is up to date")
	return nil
}
