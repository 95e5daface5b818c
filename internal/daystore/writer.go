package daystore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/planequery/adsbcompact/pkg/types"
)

// Writer appends observation batches to one day's file. It writes to a
// temporary path and renames on Commit, so a day file is either fully
// written or absent.
type Writer struct {
	db      *sql.DB
	path    string
	tmpPath string
	rows    int64
}

// NewWriter opens a writer for the given day, replacing any previous file
// for that day on Commit.
func (s *Store) NewWriter(ctx context.Context, day time.Time) (*Writer, error) {
	path := s.DayPath(day)
	tmpPath := path + ".tmp"

	// A stale temp file from a crashed run is overwritten
	if err := os.Remove(tmpPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("daystore: failed to clear temp file: %w", err)
	}

	db, err := sql.Open("sqlite3", tmpPath)
	if err != nil {
		return nil, fmt.Errorf("daystore: failed to create day file: %w", err)
	}

	// WAL mode for better write performance during build
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("daystore: failed to set journal mode: %w", err)
	}

	createTableSQL := `
		CREATE TABLE observations (
			time INTEGER NOT NULL,
			icao TEXT NOT NULL,
			attrs BLOB NOT NULL
		)
	`
	if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("daystore: failed to create observations table: %w", err)
	}
	if _, err := db.ExecContext(ctx,
		"CREATE INDEX idx_observations_icao_time ON observations(icao, time)"); err != nil {
		db.Close()
		return nil, fmt.Errorf("daystore: failed to create index: %w", err)
	}

	return &Writer{db: db, path: path, tmpPath: tmpPath}, nil
}

// Append writes one batch of observations in a single transaction.
func (w *Writer) Append(ctx context.Context, observations []types.Observation) error {
	if len(observations) == 0 {
		return nil
	}

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("daystore: failed to begin transaction: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO observations (time, icao, attrs) VALUES (?, ?, ?)")
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("daystore: failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := range observations {
		obs := &observations[i]
		attrs, err := encodeAttrs(obs)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("daystore: failed to encode attributes: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, obs.Time.UnixNano(), obs.ICAO, attrs); err != nil {
			tx.Rollback()
			return fmt.Errorf("daystore: failed to insert observation: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("daystore: failed to commit batch: %w", err)
	}

	w.rows += int64(len(observations))
	return nil
}

// Rows returns the number of observations written so far.
func (w *Writer) Rows() int64 {
	return w.rows
}

// Commit finalizes the day file and returns its path.
func (w *Writer) Commit() (string, error) {
	if err := w.db.Close(); err != nil {
		return "", fmt.Errorf("daystore: failed to close day file: %w", err)
	}
	if err := os.Rename(w.tmpPath, w.path); err != nil {
		return "", fmt.Errorf("daystore: failed to finalize day file: %w", err)
	}
	return w.path, nil
}

// Discard drops the writer without publishing a day file.
func (w *Writer) Discard() error {
	w.db.Close()
	if err := os.Remove(w.tmpPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("daystore: failed to remove temp file: %w", err)
	}
	return nil
}
