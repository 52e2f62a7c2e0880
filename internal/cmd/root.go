package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"backoffice-system/config"
	"backoffice-system/internal/database"
	"backoffice-system/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "backoffice",
	Short: "Back-office service for customers, products and orders",
	Long: `backoffice runs the order and stock service behind the sales back-office.

It exposes the HTTP API, a gRPC health endpoint, and maintenance commands
for the database schema and the first admin account.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type runtime struct {
	cfg    *config.Config
	logger *logrus.Logger
	db     *gorm.DB
}

// bootstrap loads configuration, builds the logger and opens the database.
func bootstrap() (*runtime, error) {
	logger := logging.New("info")

	cfg, err := config.LoadConfig(logger)
	if err != nil {
		return nil, err
	}
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(lvl)
	} else {
		logger.Warnf("Unknown log level %q, using info", cfg.LogLevel)
	}

	db, err := database.NewConnection(cfg.DatabaseURL, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return &runtime{cfg: cfg, logger: logger, db: db}, nil
}

func (r *runtime) close() {
	if sqlDB, err := r.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func (r *runtime) ping(ctx context.Context) error {
	return database.Ping(ctx, r.db)
}
