package runstore

import (
	"database/sql"
	"fmt"

	"github.com/screenlab/guidepost/schema"
)

// createRunTables creates the run tracking tables.
func createRunTables(db *sql.DB, backend schema.StoreBackend) error {
	tables := []struct {
		name  string
		query string
	}{
		{runsTable, getCreateRunsQuery(backend)},
		{warningsTable, getCreateWarningsQuery(backend)},
	}
	for _, table := range tables {
		if _, err := db.Exec(table.query); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table.name, err)
		}
	}
	return nil
}

// getCreateRunsQuery returns the CREATE TABLE query for guidepost_runs.
func getCreateRunsQuery(backend schema.StoreBackend) string {
	quoted := quoteTableName(runsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT AUTO_INCREMENT PRIMARY KEY,
				start_time DATETIME(6) NOT NULL,
				end_time DATETIME(6) NULL,
				total_genes INT NULL,
				significant_genes INT NULL,
				backend VARCHAR(32) NULL,
				params TEXT NULL
			)
		`, quoted)
	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGSERIAL PRIMARY KEY,
				start_time TIMESTAMPTZ NOT NULL,
				end_time TIMESTAMPTZ NULL,
				total_genes INTEGER NULL,
				significant_genes INTEGER NULL,
				backend TEXT NULL,
				params TEXT NULL
			)
		`, quoted)
	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER PRIMARY KEY AUTOINCREMENT,
				start_time TEXT NOT NULL,
				end_time TEXT NULL,
				total_genes INTEGER NULL,
				significant_genes INTEGER NULL,
				backend TEXT NULL,
				params TEXT NULL
			)
		`, quoted)
	}
}

// getCreateWarningsQuery returns the CREATE TABLE query for
// guidepost_run_warnings.
func getCreateWarningsQuery(backend schema.StoreBackend) string {
	quoted := quoteTableName(warningsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				warning_id BIGINT AUTO_INCREMENT PRIMARY KEY,
				run_id BIGINT NOT NULL,
				code VARCHAR(64) NOT NULL,
				message TEXT NOT NULL,
				details TEXT NULL,
				INDEX idx_warnings_run_id (run_id)
			)
		`, quoted)
	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				warning_id BIGSERIAL PRIMARY KEY,
				run_id BIGINT NOT NULL,
				code TEXT NOT NULL,
				message TEXT NOT NULL,
				details TEXT NULL
			)
		`, quoted)
	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				warning_id INTEGER PRIMARY KEY AUTOINCREMENT,
				run_id INTEGER NOT NULL,
				code TEXT NOT NULL,
				message TEXT NOT NULL,
				details TEXT NULL
			)
		`, quoted)
	}
}
