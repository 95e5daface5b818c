// Package daystore persists one columnar SQLite file per day of raw
// observations. It is the extractor's sink and the chunk worker's
// day-loader. Day files are local scratch only; they never outlive the unit
// of work that processes them.
package daystore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang/snappy"
	_ "github.com/mattn/go-sqlite3"

	"github.com/planequery/adsbcompact/internal/errors"
	"github.com/planequery/adsbcompact/pkg/types"
)

// ErrDayUnavailable signals that no day file exists for the requested day.
// The chunk worker treats this as recoverable and skips the day.
var ErrDayUnavailable = errors.New(errors.ErrCategoryLoad, errors.CodeDayUnavailable,
	"day file not available")

// Store manages per-day observation files under a single directory.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("daystore: failed to create directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// DayPath returns the file path for a day's observations.
func (s *Store) DayPath(day time.Time) string {
	return filepath.Join(s.dir, fmt.Sprintf("v%s.sqlite", day.Format("2006.01.02")))
}

// LoadDay returns all observations for a day ordered by (icao, time), the
// pre-sort the compression engine requires. Returns ErrDayUnavailable if the
// day file does not exist.
func (s *Store) LoadDay(ctx context.Context, day time.Time) ([]types.Observation, error) {
	path := s.DayPath(day)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, ErrDayUnavailable
	}

	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=ro", path))
	if err != nil {
		return nil, errors.NewLoadError(errors.CodeCorruptDayFile, "failed to open day file", err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx,
		"SELECT time, icao, attrs FROM observations ORDER BY icao, time")
	if err != nil {
		return nil, errors.NewLoadError(errors.CodeCorruptDayFile, "failed to read day file", err)
	}
	defer rows.Close()

	var observations []types.Observation
	for rows.Next() {
		var (
			ts    int64
			icao  string
			attrs []byte
		)
		if err := rows.Scan(&ts, &icao, &attrs); err != nil {
			return nil, errors.NewLoadError(errors.CodeCorruptDayFile, "failed to scan row", err)
		}

		obs := types.Observation{
			Time: time.Unix(0, ts).UTC(),
			ICAO: icao,
		}
		if err := decodeAttrs(attrs, &obs); err != nil {
			return nil, errors.NewLoadError(errors.CodeCorruptDayFile, "failed to decode attributes", err)
		}
		observations = append(observations, obs)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewLoadError(errors.CodeCorruptDayFile, "failed to read day file", err)
	}

	return observations, nil
}

// RemoveDay deletes a day's file to bound scratch disk use. Removing a
// missing day is not an error.
func (s *Store) RemoveDay(day time.Time) error {
	if err := os.Remove(s.DayPath(day)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("daystore: failed to remove day file: %w", err)
	}
	return nil
}

// contentAttrs is the snappy-compressed per-row payload. Column names match
// the artifact format.
type contentAttrs struct {
	DBFlags          string `json:"dbFlags,omitempty"`
	OwnOp            string `json:"ownOp,omitempty"`
	Year             string `json:"year,omitempty"`
	Desc             string `json:"desc,omitempty"`
	AircraftCategory string `json:"aircraft_category,omitempty"`
	Registration     string `json:"r,omitempty"`
	TypeCode         string `json:"t,omitempty"`
}

func encodeAttrs(obs *types.Observation) ([]byte, error) {
	raw, err := json.Marshal(contentAttrs{
		DBFlags:          obs.DBFlags,
		OwnOp:            obs.OwnOp,
		Year:             obs.Year,
		Desc:             obs.Desc,
		AircraftCategory: obs.AircraftCategory,
		Registration:     obs.Registration,
		TypeCode:         obs.TypeCode,
	})
	if err != nil {
		return nil, err
	}
	return snappy.Encode(nil, raw), nil
}

func decodeAttrs(blob []byte, obs *types.Observation) error {
	raw, err := snappy.Decode(nil, blob)
	if err != nil {
		return err
	}
	var attrs contentAttrs
	if err := json.Unmarshal(raw, &attrs); err != nil {
		return err
	}
	obs.DBFlags = attrs.DBFlags
	obs.OwnOp = attrs.OwnOp
	obs.Year = attrs.Year
	obs.Desc = attrs.Desc
	obs.AircraftCategory = attrs.AircraftCategory
	obs.Registration = attrs.Registration
	obs.TypeCode = attrs.TypeCode
	return nil
}
