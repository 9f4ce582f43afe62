package runguard

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	"codeberg.org/mutker/trendalarm/internal/errors"

	_ "github.com/mattn/go-sqlite3"
)

const (
	createMarkerSQL = `
	   CREATE TABLE IF NOT EXISTS run_marker (
	       id         INTEGER PRIMARY KEY CHECK (id = 1),
	       iso_year   INTEGER NOT NULL,
	       iso_week   INTEGER NOT NULL CHECK (iso_week BETWEEN 1 AND 53),
	       updated_at TEXT NOT NULL
	   );`

	upsertMarkerSQL = `
	INSERT INTO run_marker (id, iso_year, iso_week, updated_at)
	VALUES (1, ?, ?, datetime('now'))
	ON CONFLICT(id) DO UPDATE SET
	    iso_year = excluded.iso_year,
	    iso_week = excluded.iso_week,
	    updated_at = excluded.updated_at`
)

type sqliteStore struct {
	db *sql.DB
}

// NewSQLiteStore keeps the marker in a single-row table
func NewSQLiteStore(path string) (MarkerStore, error) {
	errFactory := errors.New()

	if path == "" {
		return nil, errFactory.WithMessage(errors.ErrInvalidArgument, "marker database path is empty")
	}

	if err := os.MkdirAll(filepath.Dir(path), defaultDirPerm); err != nil {
		return nil, errFactory.Wrap(errors.ErrInitFailed, err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal=WAL")
	if err != nil {
		return nil, errFactory.Wrap(errors.ErrInitFailed, err)
	}

	if _, err := db.Exec(createMarkerSQL); err != nil {
		db.Close()
		return nil, errFactory.Wrap(errors.ErrInitFailed, err)
	}

	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) Load(ctx context.Context) (Week, bool, error) {
	var week Week
	err := s.db.QueryRowContext(ctx,
		`SELECT iso_year, iso_week FROM run_marker WHERE id = 1`,
	).Scan(&week.Year, &week.Week)

	if errors.Is(err, sql.ErrNoRows) {
		return Week{}, false, nil
	}
	if err != nil {
		return Week{}, false, err
	}

	return week, true, nil
}

func (s *sqliteStore) Save(ctx context.Context, week Week) error {
	_, err := s.db.ExecContext(ctx, upsertMarkerSQL, week.Year, week.Week)
	return err
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}
