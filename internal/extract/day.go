package extract

import (
	"context"
	"log"
	"time"

	"github.com/planequery/adsbcompact/internal/daystore"
)

// ExtractDay parses all trace files for one day into a day file in store.
// Returns the written file's path, or "" with a nil error when no rows were
// produced (no output).
func (e *Extractor) ExtractDay(ctx context.Context, store *daystore.Store, day time.Time, locations []string) (string, error) {
	writer, err := store.NewWriter(ctx, day)
	if err != nil {
		return "", err
	}

	stats, err := e.Run(ctx, locations, writer)
	if err != nil {
		writer.Discard()
		return "", err
	}

	if stats.Failed > 0 {
		log.Printf("extract: %s: %d of %d trace files failed to parse",
			day.Format("2006-01-02"), stats.Failed, stats.Parsed+stats.Failed)
	}

	if stats.Rows == 0 {
		if err := writer.Discard(); err != nil {
			return "", err
		}
		return "", nil
	}

	path, err := writer.Commit()
	if err != nil {
		return "", err
	}
	log.Printf("extract: %s: wrote %d rows from %d trace files",
		day.Format("2006-01-02"), stats.Rows, stats.Parsed)
	return path, nil
}
