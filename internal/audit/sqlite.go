package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"codeberg.org/mutker/trendalarm/internal/errors"
	"codeberg.org/mutker/trendalarm/internal/logger"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteRecorder stores audit records in an append-only table
type SQLiteRecorder struct {
	db     *sql.DB
	logger logger.Logger
	now    func() time.Time
}

// NewSQLiteRecorder opens or creates the audit database at path
func NewSQLiteRecorder(path string, log logger.Logger) (*SQLiteRecorder, error) {
	errFactory := errors.New()

	if path == "" {
		return nil, errFactory.WithMessage(errors.ErrInvalidArgument, "audit database path is empty")
	}

	if err := os.MkdirAll(filepath.Dir(path), defaultDirPerm); err != nil {
		return nil, errFactory.WithData(ErrStorageInit, struct {
			Phase string
			Path  string
			Error string
		}{
			Phase: "create_directory",
			Path:  path,
			Error: err.Error(),
		})
	}

	db, err := sql.Open("sqlite3", path+"?_journal=WAL")
	if err != nil {
		return nil, errFactory.WithData(ErrStorageInit, struct {
			Phase string
			Error string
		}{
			Phase: "open_database",
			Error: err.Error(),
		})
	}

	if err := ValidateSchema(db, log); err != nil {
		db.Close()
		return nil, errFactory.Wrap(ErrStorageInit, err)
	}

	log.Info().
		Str("path", path).
		Int("schema_version", SchemaVersion).
		Msg("Audit database initialized")

	return &SQLiteRecorder{
		db:     db,
		logger: log,
		now:    time.Now,
	}, nil
}

func (r *SQLiteRecorder) RecordSuccess(ctx context.Context, runID, deviceID string, result Result) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return errors.New().Wrap(ErrWrite, err)
	}

	return r.insert(ctx, runID, deviceID, KindSuccess, string(payload))
}

func (r *SQLiteRecorder) RecordFailure(ctx context.Context, runID, deviceID string, cause error) error {
	return r.insert(ctx, runID, deviceID, KindFailure, errorText(cause))
}

func (r *SQLiteRecorder) insert(ctx context.Context, runID, deviceID string, kind Kind, payload string) error {
	_, err := r.db.ExecContext(ctx, insertRecordSQL,
		r.now().UTC().Format(time.RFC3339Nano), runID, deviceID, string(kind), payload)
	if err != nil {
		return errors.New().Wrap(ErrWrite, err)
	}

	r.logger.Debug().
		Str("device", deviceID).
		Str("kind", string(kind)).
		Msg("Audit record stored")

	return nil
}

// Records returns every stored record, oldest first
func (r *SQLiteRecorder) Records(ctx context.Context) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, selectRecordsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			rec      Record
			recorded string
			kind     string
			payload  string
		)
		if err := rows.Scan(&recorded, &rec.RunID, &rec.DeviceID, &kind, &payload); err != nil {
			return nil, err
		}

		rec.Time, err = time.Parse(time.RFC3339Nano, recorded)
		if err != nil {
			return nil, err
		}
		rec.Kind = Kind(kind)

		if rec.Kind == KindSuccess {
			var result Result
			if err := json.Unmarshal([]byte(payload), &result); err != nil {
				return nil, err
			}
			rec.Result = &result
		} else {
			rec.Error = payload
		}

		records = append(records, rec)
	}

	return records, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	if _, err := r.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		r.logger.Debug().Err(err).Msg("Failed to checkpoint audit WAL")
	}

	if err := r.db.Close(); err != nil {
		return errors.New().Wrap(ErrStorageClose, err)
	}

	return nil
}
