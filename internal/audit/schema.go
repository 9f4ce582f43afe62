package audit

import (
	"database/sql"

	"codeberg.org/mutker/trendalarm/internal/errors"
	"codeberg.org/mutker/trendalarm/internal/logger"
)

const (
	SchemaVersion = 1

	createTablesSQL = `
	   CREATE TABLE IF NOT EXISTS schema_versions (
	       version     INTEGER PRIMARY KEY,
	       applied_at  TEXT NOT NULL
	   );
	   CREATE TABLE IF NOT EXISTS audit_records (
	       id          INTEGER PRIMARY KEY AUTOINCREMENT,
	       recorded_at TEXT NOT NULL,
	       run_id      TEXT NOT NULL,
	       device_id   TEXT NOT NULL,
	       kind        TEXT NOT NULL CHECK (kind IN ('success', 'failure')),
	       payload     TEXT NOT NULL
	   );
	   CREATE INDEX IF NOT EXISTS audit_records_device ON audit_records (device_id, recorded_at);
	   CREATE TRIGGER IF NOT EXISTS audit_records_no_update
	   BEFORE UPDATE ON audit_records
	   BEGIN
	       SELECT RAISE(ABORT, 'audit records are append-only');
	   END;
	   CREATE TRIGGER IF NOT EXISTS audit_records_no_delete
	   BEFORE DELETE ON audit_records
	   BEGIN
	       SELECT RAISE(ABORT, 'audit records are append-only');
	   END;`

	insertRecordSQL = `
    INSERT INTO audit_records (recorded_at, run_id, device_id, kind, payload)
    VALUES (?, ?, ?, ?, ?)`

	selectRecordsSQL = `
    SELECT recorded_at, run_id, device_id, kind, payload
    FROM audit_records
    ORDER BY id`
)

// InitSchema creates the audit tables and records the schema version
func InitSchema(db *sql.DB, log logger.Logger) error {
	errFactory := errors.New()

	tx, err := db.Begin()
	if err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}

	committed := false
	defer func() {
		if !committed {
			if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
				log.Debug().Err(err).Msg("Failed to rollback transaction")
			}
		}
	}()

	if _, err := tx.Exec(createTablesSQL); err != nil {
		return errFactory.WithData(ErrSchemaInitFailed, struct {
			Phase string
			Error string
		}{
			Phase: "create_tables",
			Error: err.Error(),
		})
	}

	if _, err := tx.Exec(`
        INSERT INTO schema_versions (version, applied_at)
        VALUES (?, datetime('now'))
    `, SchemaVersion); err != nil {
		return errFactory.WithData(ErrSchemaInitFailed, struct {
			Phase string
			Error string
		}{
			Phase: "record_version",
			Error: err.Error(),
		})
	}

	if err := tx.Commit(); err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}
	committed = true

	log.Info().Int("version", SchemaVersion).Msg("Audit schema initialized")

	return nil
}

// ValidateSchema initializes an empty database and refuses one written by a
// different schema version. Audit history is never dropped.
func ValidateSchema(db *sql.DB, log logger.Logger) error {
	errFactory := errors.New()

	version, err := GetSchemaVersion(db)
	if err != nil {
		return errFactory.Wrap(ErrSchemaValidationFailed, err)
	}

	switch version {
	case 0:
		return InitSchema(db, log)
	case SchemaVersion:
		log.Debug().Int("version", version).Msg("Audit schema is current")
		return nil
	default:
		return errFactory.WithData(ErrSchemaValidationFailed, struct {
			Found    int
			Expected int
		}{
			Found:    version,
			Expected: SchemaVersion,
		})
	}
}

// GetSchemaVersion returns the recorded schema version, 0 for a new database
func GetSchemaVersion(db *sql.DB) (int, error) {
	exists, err := TableExists(db, "schema_versions")
	if err != nil || !exists {
		return 0, err
	}

	var version int
	err = db.QueryRow(`
        SELECT version
        FROM schema_versions
        ORDER BY version DESC
        LIMIT 1
    `).Scan(&version)

	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	return version, nil
}

// TableExists checks if a table exists
func TableExists(db *sql.DB, tableName string) (bool, error) {
	var exists bool
	err := db.QueryRow(`
        SELECT EXISTS (
            SELECT 1 FROM sqlite_master
            WHERE type='table' AND name=?
        )
    `, tableName).Scan(&exists)

	return exists, err
}
