package artifact

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/planequery/adsbcompact/pkg/types"
)

func testRecords() []types.Record {
	return []types.Record{
		{
			Observation: types.Observation{
				Time:             time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC),
				ICAO:             "abc123",
				DBFlags:          "1",
				OwnOp:            "DELTA AIR LINES",
				Year:             "1999",
				Desc:             "BOEING 757-232",
				AircraftCategory: "A5",
				Registration:     "N683DA",
				TypeCode:         "B752",
			},
			Sightings: 42,
		},
		{
			Observation: types.Observation{
				Time: time.Date(2024, 6, 2, 12, 0, 0, 0, time.UTC),
				ICAO: "def456",
			},
			Sightings: 1,
		},
	}
}

func TestCodec_RoundTripWithSightings(t *testing.T) {
	records := testRecords()

	var buf bytes.Buffer
	if err := Encode(&buf, records, true); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	decoded, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if len(decoded) != len(records) {
		t.Fatalf("expected %d records, got %d", len(records), len(decoded))
	}
	for i := range records {
		if decoded[i] != records[i] {
			t.Errorf("record %d: got %+v, want %+v", i, decoded[i], records[i])
		}
	}
}

func TestCodec_RoundTripWithoutSightings(t *testing.T) {
	records := testRecords()

	var buf bytes.Buffer
	if err := Encode(&buf, records, false); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	decoded, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	// Counts collapse to 1 when the file does not carry them
	for i, rec := range decoded {
		if rec.Sightings != 1 {
			t.Errorf("record %d: Sightings = %d, want 1", i, rec.Sightings)
		}
		if rec.Observation != records[i].Observation {
			t.Errorf("record %d: observation mismatch", i)
		}
	}
}

func TestCodec_EmptyAttributesStayEmpty(t *testing.T) {
	records := []types.Record{{
		Observation: types.Observation{
			Time: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
			ICAO: "abc123",
		},
		Sightings: 1,
	}}

	var buf bytes.Buffer
	if err := Encode(&buf, records, false); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	decoded, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	for _, v := range decoded[0].ContentValues() {
		if v != "" {
			t.Errorf("unset attribute decoded as %q, want empty string", v)
		}
	}
}

func TestCodec_DeterministicOutput(t *testing.T) {
	// Re-publishing identical input must produce byte-identical artifacts.
	records := testRecords()

	var a, b bytes.Buffer
	if err := Encode(&a, records, true); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if err := Encode(&b, records, true); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if !bytes.Equal(a.Bytes(), b.Bytes()) {
		t.Error("identical input produced different artifact bytes")
	}
}

func TestCodec_RejectsUnknownHeader(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, nil, false); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	if _, err := Decode(bytes.NewReader([]byte("not gzip"))); err == nil {
		t.Error("expected error for non-gzip input")
	}
}

func TestCodec_FileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chunk_2024-06-01_2024-06-16.csv.gz")

	if err := WriteFile(path, testRecords(), true); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	decoded, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if len(decoded) != 2 {
		t.Errorf("expected 2 records, got %d", len(decoded))
	}
}

func TestKeys(t *testing.T) {
	chunk, _ := types.ParseDateRange("2024-06-01", "2024-06-16")
	global, _ := types.ParseDateRange("2024-06-01", "2024-09-01")

	if got := IntermediateKey("run1", chunk); got != "intermediate/run1/chunk_2024-06-01_2024-06-16.csv.gz" {
		t.Errorf("unexpected intermediate key: %s", got)
	}
	if got := FinalKey(global); got != "final/planequery_aircraft_adsb_2024-06-01_2024-09-01.csv.gz" {
		t.Errorf("unexpected final key: %s", got)
	}
}
