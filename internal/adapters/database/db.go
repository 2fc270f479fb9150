// Package database opens the SQL store and applies the embedded schema migrations.
package database

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	// DriverMemory selects the in-process repositories; Open rejects it.
	DriverMemory = "memory"
)

// sqlDrivers maps configured drivers to the database/sql driver names registered above.
var sqlDrivers = map[string]string{
	DriverPostgres: "pgx",
	DriverSQLite:   "sqlite",
}

// Open connects, tunes the pool for the driver and verifies the connection.
func Open(driver, dsn string) (*sqlx.DB, error) {
	sqlDriver, ok := sqlDrivers[driver]
	if !ok {
		return nil, fmt.Errorf("database: unsupported driver %q", driver)
	}

	if driver == DriverSQLite {
		dsn = withSQLitePragmas(dsn)
		if path := sqlitePath(dsn); path != "" && path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return nil, fmt.Errorf("database: create data directory: %w", err)
			}
		}
	}

	db, err := sqlx.Connect(sqlDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("database: connect: %w", err)
	}

	switch driver {
	case DriverSQLite:
		// single writer
		db.SetMaxOpenConns(1)
	default:
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	slog.Info("database connected", "driver", driver)
	return db, nil
}

func sqlitePath(dsn string) string {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	return path
}

func withSQLitePragmas(dsn string) string {
	if strings.Contains(dsn, "_pragma=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
}
