package storage

import (
	"database/sql"
)

// Schema version tracking
const currentSchemaVersion = 1

// initializeSchema creates all tables for a new database
func (db *DB) initializeSchema() error {
	return db.WithTx(func(tx *sql.Tx) error {
		if err := createSchemaVersionTable(tx); err != nil {
			return err
		}
		if err := createRunsTable(tx); err != nil {
			return err
		}
		if err := createAssignmentsTable(tx); err != nil {
			return err
		}
		if err := createAssignmentCategoriesTable(tx); err != nil {
			return err
		}

		if err := setSchemaVersion(tx, currentSchemaVersion); err != nil {
			return err
		}

		db.logger.Info("Database schema initialized", "version", currentSchemaVersion)
		return nil
	})
}

// runMigrations runs any pending schema migrations
func (db *DB) runMigrations() error {
	version, err := db.getSchemaVersion()
	if err != nil {
		return err
	}

	if version == currentSchemaVersion {
		db.logger.Debug("Database schema is up to date", "version", version)
		return nil
	}

	if version == 0 {
		// File exists but was never initialised (e.g. created empty).
		return db.initializeSchema()
	}

	db.logger.Info("Running database migrations",
		"from_version", version,
		"to_version", currentSchemaVersion,
	)
	return nil
}

// getSchemaVersion gets the current schema version
func (db *DB) getSchemaVersion() (int, error) {
	var tableName string
	err := db.QueryRow(`
		SELECT name FROM sqlite_master
		WHERE type='table' AND name='schema_version'
	`).Scan(&tableName)

	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var version int
	err = db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	return version, nil
}

// setSchemaVersion sets the schema version
func setSchemaVersion(tx *sql.Tx, version int) error {
	_, err := tx.Exec("DELETE FROM schema_version")
	if err != nil {
		return err
	}
	_, err = tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version)
	return err
}

// createSchemaVersionTable creates the schema_version tracking table
func createSchemaVersionTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)
	`)
	return err
}

// createRunsTable creates the runs table, one row per mapping run
func createRunsTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			corpus_digest TEXT NOT NULL,
			validation_mode INTEGER NOT NULL DEFAULT 0,
			apps INTEGER NOT NULL DEFAULT 0,
			identifiers INTEGER NOT NULL DEFAULT 0,
			resolved INTEGER NOT NULL DEFAULT 0
		)
	`)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`CREATE INDEX IF NOT EXISTS idx_runs_digest ON runs(corpus_digest)`)
	return err
}

// createAssignmentsTable creates the per-identifier assignment table
func createAssignmentsTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS assignments (
			run_id TEXT NOT NULL,
			app_key TEXT NOT NULL,
			identifier TEXT NOT NULL,
			final_category TEXT NOT NULL,
			PRIMARY KEY (run_id, app_key, identifier),
			FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
		)
	`)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`CREATE INDEX IF NOT EXISTS idx_assignments_identifier ON assignments(identifier)`)
	return err
}

// createAssignmentCategoriesTable creates the component category rows.
// position keeps the multi-set order within one component.
func createAssignmentCategoriesTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS assignment_categories (
			run_id TEXT NOT NULL,
			app_key TEXT NOT NULL,
			identifier TEXT NOT NULL,
			component TEXT NOT NULL CHECK(component IN ('api', 'string', 'field')),
			position INTEGER NOT NULL,
			category TEXT NOT NULL,
			PRIMARY KEY (run_id, app_key, identifier, component, position),
			FOREIGN KEY (run_id, app_key, identifier)
				REFERENCES assignments(run_id, app_key, identifier) ON DELETE CASCADE
		)
	`)
	return err
}
