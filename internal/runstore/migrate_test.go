package runstore

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screenlab/guidepost/schema"
)

// tableExists reports whether the named table exists in a SQLite database.
func tableExists(t *testing.T, dbPath, table string) bool {
	t.Helper()
	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	var count int
	err = db.QueryRow(
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table,
	).Scan(&count)
	require.NoError(t, err)
	return count > 0
}

// TestMigrateSQLiteUpDown verifies migrating a fresh SQLite database to the
// latest version and rolling it back to zero.
func TestMigrateSQLiteUpDown(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")

	require.NoError(t, Migrate(schema.SQLiteBackend, dbPath, -1))
	assert.True(t, tableExists(t, dbPath, runsTable))
	assert.True(t, tableExists(t, dbPath, warningsTable))

	// Re-running is a no-op, not an error.
	require.NoError(t, Migrate(schema.SQLiteBackend, dbPath, -1))

	require.NoError(t, Migrate(schema.SQLiteBackend, dbPath, 0))
	assert.False(t, tableExists(t, dbPath, runsTable))
	assert.False(t, tableExists(t, dbPath, warningsTable))
}

// TestMigrateRejectsDisabledStore verifies that migrations require a real
// backend.
func TestMigrateRejectsDisabledStore(t *testing.T) {
	err := Migrate(schema.NoneBackend, "", -1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not supported")

	err = Migrate(schema.StoreBackend("oracle"), "conn", -1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported backend")
}
