package database

import (
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

var dialects = map[string]goose.Dialect{
	DriverPostgres: goose.DialectPostgres,
	DriverSQLite:   goose.DialectSQLite3,
}

func setupGoose(driver string) error {
	dialect, ok := dialects[driver]
	if !ok {
		return fmt.Errorf("database: no migration dialect for %q", driver)
	}
	if err := goose.SetDialect(string(dialect)); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	dir, err := fs.Sub(migrationsFS, "migrations/"+driver)
	if err != nil {
		return fmt.Errorf("failed to get migrations directory: %w", err)
	}
	goose.SetBaseFS(dir)
	goose.SetLogger(goose.NopLogger())
	return nil
}

// Migrate applies every pending migration for the driver's dialect.
func Migrate(db *sqlx.DB, driver string) error {
	if err := setupGoose(driver); err != nil {
		return err
	}

	if err := goose.Up(db.DB, "."); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, err := goose.GetDBVersion(db.DB)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	slog.Info("migrations completed", "driver", driver, "version", version)
	return nil
}

// Reset rolls every migration back. Used by integration tests.
func Reset(db *sqlx.DB, driver string) error {
	if err := setupGoose(driver); err != nil {
		return err
	}
	if err := goose.Reset(db.DB, "."); err != nil {
		return fmt.Errorf("failed to reset migrations: %w", err)
	}
	return nil
}
