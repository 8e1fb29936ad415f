package main

// Apply the format_reports schema:
//   go run ./cmd/migrate

import (
	"context"
	"errors"
	"os"
	"strings"

	"resume-formatter/internal/shared/config"
	"resume-formatter/internal/shared/storage/db"
	"resume-formatter/internal/shared/telemetry"
)

var errMissingDatabaseURL = errors.New("DATABASE_URL is required")

func main() {
	cfg := config.Load()
	if err := run(context.Background(), cfg); err != nil {
		telemetry.Error("migrate.failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	telemetry.Info("migrate.completed", nil)
}

func run(ctx context.Context, cfg config.Config) error {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return errMissingDatabaseURL
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	sqlDB, err := db.Open(ctx, cfg, db.ProfileMigrate)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	result, err := db.RunMigrations(ctx, sqlDB)
	if err != nil {
		return err
	}
	latest, err := db.LatestVersion()
	if err != nil {
		return err
	}
	telemetry.Info("migrate.version", map[string]any{
		"from":    result.From,
		"to":      result.To,
		"latest":  latest,
		"applied": result.Applied(),
	})
	return nil
}
