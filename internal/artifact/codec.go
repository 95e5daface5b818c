package artifact

import (
	"compress/gzip"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/planequery/adsbcompact/pkg/types"
)

// timeLayout is the wire format for record timestamps.
const timeLayout = time.RFC3339

// baseColumns is the published artifact schema: time, icao, then the
// content attributes. Unset attributes are the empty string, never a null
// marker.
var baseColumns = append([]string{"time", "icao"}, types.ContentColumns...)

// sightingsColumn carries the raw-frequency accumulator across chunk
// boundaries. Intermediate artifacts include it; the final artifact does
// not. Decoders accept either shape.
const sightingsColumn = "sightings"

// Encode writes records as gzip CSV. withSightings appends the accumulator
// column used by intermediate artifacts.
func Encode(w io.Writer, records []types.Record, withSightings bool) error {
	gz := gzip.NewWriter(w)
	cw := csv.NewWriter(gz)

	header := baseColumns
	if withSightings {
		header = append(append([]string{}, baseColumns...), sightingsColumn)
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("artifact: failed to write header: %w", err)
	}

	for i := range records {
		rec := &records[i]
		row := append([]string{rec.Time.UTC().Format(timeLayout), rec.ICAO},
			rec.ContentValues()...)
		if withSightings {
			row = append(row, strconv.FormatInt(rec.Sightings, 10))
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("artifact: failed to write record: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("artifact: failed to flush records: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("artifact: failed to finalize gzip stream: %w", err)
	}
	return nil
}

// Decode reads a gzip CSV artifact. Records from files without a sightings
// column default to one sighting each, collapsing the raw-frequency counts
// as documented for cross-artifact merges.
func Decode(r io.Reader) ([]types.Record, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("artifact: not a gzip stream: %w", err)
	}
	defer gz.Close()

	cr := csv.NewReader(gz)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("artifact: failed to read header: %w", err)
	}

	withSightings, err := checkHeader(header)
	if err != nil {
		return nil, err
	}

	var records []types.Record
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("artifact: failed to read record: %w", err)
		}

		rec, err := decodeRow(row, withSightings)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, nil
}

func checkHeader(header []string) (withSightings bool, err error) {
	switch len(header) {
	case len(baseColumns):
	case len(baseColumns) + 1:
		if header[len(baseColumns)] != sightingsColumn {
			return false, fmt.Errorf("artifact: unexpected trailing column %q", header[len(baseColumns)])
		}
		withSightings = true
	default:
		return false, fmt.Errorf("artifact: expected %d or %d columns, got %d",
			len(baseColumns), len(baseColumns)+1, len(header))
	}
	for i, name := range baseColumns {
		if header[i] != name {
			return false, fmt.Errorf("artifact: column %d is %q, want %q", i, header[i], name)
		}
	}
	return withSightings, nil
}

func decodeRow(row []string, withSightings bool) (types.Record, error) {
	want := len(baseColumns)
	if withSightings {
		want++
	}
	if len(row) != want {
		return types.Record{}, fmt.Errorf("artifact: expected %d fields, got %d", want, len(row))
	}

	ts, err := time.Parse(timeLayout, row[0])
	if err != nil {
		return types.Record{}, fmt.Errorf("artifact: invalid timestamp %q: %w", row[0], err)
	}

	rec := types.Record{
		Observation: types.Observation{
			Time:             ts.UTC(),
			ICAO:             row[1],
			DBFlags:          row[2],
			OwnOp:            row[3],
			Year:             row[4],
			Desc:             row[5],
			AircraftCategory: row[6],
			Registration:     row[7],
			TypeCode:         row[8],
		},
		Sightings: 1,
	}
	if withSightings {
		n, err := strconv.ParseInt(row[9], 10, 64)
		if err != nil {
			return types.Record{}, fmt.Errorf("artifact: invalid sightings %q: %w", row[9], err)
		}
		rec.Sightings = n
	}
	return rec, nil
}

// WriteFile encodes records to a local artifact file.
func WriteFile(path string, records []types.Record, withSightings bool) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("artifact: failed to create %s: %w", path, err)
	}
	if err := Encode(f, records, withSightings); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadFile decodes a local artifact file.
func ReadFile(path string) ([]types.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("artifact: failed to open %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f)
}
