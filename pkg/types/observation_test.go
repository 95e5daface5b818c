package types

import (
	"strings"
	"testing"
	"time"
)

func TestObservation_Signature(t *testing.T) {
	obs := Observation{
		Time:             time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		ICAO:             "abc123",
		DBFlags:          "1",
		OwnOp:            "DELTA AIR LINES",
		Year:             "1999",
		Desc:             "BOEING 757-232",
		AircraftCategory: "A5",
		Registration:     "N683DA",
		TypeCode:         "B752",
	}

	want := "1|DELTA AIR LINES|1999|BOEING 757-232|A5|N683DA|B752"
	if got := obs.Signature(); got != want {
		t.Errorf("Signature() = %q, want %q", got, want)
	}
}

func TestObservation_SignatureExcludesTimeAndICAO(t *testing.T) {
	a := Observation{Time: time.Unix(100, 0), ICAO: "abc123", Year: "1999"}
	b := Observation{Time: time.Unix(999, 0), ICAO: "def456", Year: "1999"}

	if a.Signature() != b.Signature() {
		t.Errorf("signatures differ despite identical content attributes: %q vs %q",
			a.Signature(), b.Signature())
	}
	if a.SignatureHash() != b.SignatureHash() {
		t.Error("signature hashes differ despite identical content attributes")
	}
}

func TestObservation_SignatureHashDistinguishesContent(t *testing.T) {
	a := Observation{Year: "1999"}
	b := Observation{Year: "2000"}
	if a.SignatureHash() == b.SignatureHash() {
		t.Error("distinct content produced identical signature hashes")
	}
}

func TestObservation_SignatureColumnCount(t *testing.T) {
	var obs Observation
	parts := strings.Split(obs.Signature(), SignatureDelimiter)
	if len(parts) != len(ContentColumns) {
		t.Errorf("signature has %d fields, want %d", len(parts), len(ContentColumns))
	}
}

func TestObservation_NonEmptyCount(t *testing.T) {
	tests := []struct {
		name string
		obs  Observation
		want int
	}{
		{"all empty", Observation{ICAO: "abc123"}, 0},
		{"one set", Observation{DBFlags: "1"}, 1},
		{"three set", Observation{DBFlags: "1", Year: "1999", TypeCode: "B752"}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.obs.NonEmptyCount(); got != tt.want {
				t.Errorf("NonEmptyCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestObservation_SubsumedBy(t *testing.T) {
	r := Observation{DBFlags: "A"}
	s := Observation{DBFlags: "A", Year: "1999"}

	if !r.SubsumedBy(&s) {
		t.Error("R={dbFlags:A} should be subsumed by S={dbFlags:A, year:1999}")
	}
	if s.SubsumedBy(&r) {
		t.Error("subsumption must not be symmetric")
	}

	// Incomparable rows: neither subsumes the other
	p := Observation{DBFlags: "A"}
	q := Observation{Year: "1999"}
	if p.SubsumedBy(&q) || q.SubsumedBy(&p) {
		t.Error("incomparable rows must not subsume each other")
	}

	// Conflicting value on a shared attribute blocks subsumption
	c := Observation{DBFlags: "B"}
	if c.SubsumedBy(&s) {
		t.Error("conflicting dbFlags must block subsumption")
	}

	// A row with zero known attributes is subsumed by any row with one
	var empty Observation
	if !empty.SubsumedBy(&r) {
		t.Error("empty row should be subsumed by any non-empty row")
	}

	// Equal rows never subsume each other (count must be strictly greater)
	r2 := Observation{DBFlags: "A"}
	if r.SubsumedBy(&r2) || r2.SubsumedBy(&r) {
		t.Error("identical attribute sets must not subsume each other")
	}
}
