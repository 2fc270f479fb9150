package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	_ "github.com/lib/pq"

	"github.com/comitanigiacomo/kanso-reminder-engine/internal/adapters/database"
	"github.com/comitanigiacomo/kanso-reminder-engine/internal/core/domain"
)

func ptr[T any](v T) *T {
	return &v
}

func setupSQLiteDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := database.Open(database.DriverSQLite, filepath.Join(t.TempDir(), "kanso.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.Migrate(db, database.DriverSQLite))
	return db
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// setupPostgresDB connects through lib/pq and skips when no server is reachable.
func setupPostgresDB(t *testing.T) *sqlx.DB {
	t.Helper()

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		envOr("DB_USER", "kanso_user"),
		envOr("DB_PASSWORD", "secret"),
		envOr("DB_HOST", "localhost"),
		envOr("DB_PORT", "5432"),
		envOr("DB_NAME", "kanso_db"),
	)

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		t.Skipf("Skipping integration tests: database connection failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.Migrate(db, database.DriverPostgres))
	_, err = db.Exec("TRUNCATE TABLE habit_days, reminders, users CASCADE")
	require.NoError(t, err, "Failed to clean up database")
	return db
}

func seedUser(t *testing.T, db *sqlx.DB) string {
	t.Helper()

	user, err := domain.NewUser(uuid.NewString(), fmt.Sprintf("test_%s@kanso.app", uuid.NewString()))
	require.NoError(t, err)
	user.PasswordHash = "hash"

	require.NoError(t, NewSQLUserRepository(db).Create(context.Background(), user))
	return user.ID
}
