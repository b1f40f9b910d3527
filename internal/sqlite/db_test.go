package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// NewTestDB creates a new in-memory SQLite database for testing
func NewTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(":memory:")
	require.NoError(t, err, "failed to create test database")

	err = db.RunMigrations(context.Background())
	require.NoError(t, err, "failed to run migrations")

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// TestMigrations verifies that migrations run successfully
func TestMigrations(t *testing.T) {
	db := NewTestDB(t)

	// Verify all tables were created
	tables := []string{
		"schema_migrations",
		"namespaces",
		"tables",
		"fields",
		"field_choices",
		"edit_sessions",
		"activity_log",
		"api_keys",
	}

	for _, table := range tables {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		require.NoError(t, err, "failed to query table %s", table)
		require.Equal(t, 1, count, "table %s not found", table)
	}
}

// TestMigrationsIdempotent verifies applied migrations are skipped
func TestMigrationsIdempotent(t *testing.T) {
	db := NewTestDB(t)
	require.NoError(t, db.RunMigrations(context.Background()))

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	require.Equal(t, 1, count)
}

// TestForeignKeys verifies that foreign key constraints are enabled
func TestForeignKeys(t *testing.T) {
	db := NewTestDB(t)

	var enabled int
	err := db.QueryRow("PRAGMA foreign_keys").Scan(&enabled)
	require.NoError(t, err)
	require.Equal(t, 1, enabled, "foreign keys not enabled")
}

// TestFieldCascade verifies fields and choices go with their table
func TestFieldCascade(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx, `INSERT INTO tables (id, name) VALUES (1, 't')`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO fields (id, table_id, position, name, data_type) VALUES (1, 1, 0, 'f', 'choice')`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO field_choices (field_id, position, value) VALUES (1, 0, 'a')`)
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, `DELETE FROM tables WHERE id = 1`)
	require.NoError(t, err)

	var count int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM field_choices`).Scan(&count))
	require.Zero(t, count)
}

// TestDataTypeCheck verifies unknown field types are rejected
func TestDataTypeCheck(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx, `INSERT INTO tables (id, name) VALUES (1, 't')`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO fields (table_id, position, name, data_type) VALUES (1, 0, 'f', 'blob')`)
	require.Error(t, err)
}
