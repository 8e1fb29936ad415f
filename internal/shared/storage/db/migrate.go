package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/pressly/goose/v3"

	"resume-formatter/internal/shared/telemetry"
)

const migrationsDir = "migrations"

//go:embed migrations/*.sql
var migrationFiles embed.FS

// goose keeps its base FS, dialect and logger in package state.
var gooseMu sync.Mutex

// MigrationResult is the schema version before and after a run.
type MigrationResult struct {
	From int64
	To   int64
}

// Applied reports whether the run changed the schema.
func (r MigrationResult) Applied() bool {
	return r.To != r.From
}

// RunMigrations applies the embedded migrations that are not yet applied.
// A nil database is a no-op.
func RunMigrations(ctx context.Context, database *sql.DB) (MigrationResult, error) {
	if database == nil {
		return MigrationResult{}, nil
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()
	goose.SetBaseFS(migrationFiles)
	defer goose.SetBaseFS(nil)
	goose.SetLogger(gooseLogger{})
	if err := goose.SetDialect("postgres"); err != nil {
		return MigrationResult{}, err
	}

	from, err := goose.GetDBVersionContext(ctx, database)
	if err != nil {
		return MigrationResult{}, fmt.Errorf("read schema version: %w", err)
	}
	if err := goose.UpContext(ctx, database, migrationsDir); err != nil {
		return MigrationResult{From: from, To: from}, fmt.Errorf("apply migrations: %w", err)
	}
	to, err := goose.GetDBVersionContext(ctx, database)
	if err != nil {
		return MigrationResult{From: from, To: from}, fmt.Errorf("read schema version: %w", err)
	}

	result := MigrationResult{From: from, To: to}
	telemetry.Info("db.migrations", map[string]any{"from": from, "to": to, "applied": result.Applied()})
	return result, nil
}

// LatestVersion returns the highest embedded migration version.
func LatestVersion() (int64, error) {
	names, err := fs.Glob(migrationFiles, migrationsDir+"/*.sql")
	if err != nil {
		return 0, err
	}
	var latest int64
	for _, name := range names {
		version, err := goose.NumericComponent(path.Base(name))
		if err != nil {
			return 0, fmt.Errorf("migration %s: %w", name, err)
		}
		if version > latest {
			latest = version
		}
	}
	return latest, nil
}

// gooseLogger sends goose progress lines to telemetry.
type gooseLogger struct{}

func (gooseLogger) Printf(format string, v ...any) {
	telemetry.Info("db.goose", map[string]any{"message": strings.TrimSpace(fmt.Sprintf(format, v...))})
}

func (gooseLogger) Fatalf(format string, v ...any) {
	telemetry.Error("db.goose_fatal", map[string]any{"message": strings.TrimSpace(fmt.Sprintf(format, v...))})
	os.Exit(1)
}
