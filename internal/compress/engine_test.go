package compress

import (
	"testing"
	"time"

	"github.com/planequery/adsbcompact/pkg/types"
)

func at(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}

func obs(icao string, sec int64, dbFlags, year string) types.Observation {
	return types.Observation{Time: at(sec), ICAO: icao, DBFlags: dbFlags, Year: year}
}

func TestCompress_CardinalityInvariant(t *testing.T) {
	observations := []types.Observation{
		obs("abc123", 10, "1", ""),
		obs("abc123", 20, "1", "1999"),
		obs("def456", 15, "2", ""),
		obs("abc123", 30, "", "2000"),
	}

	result := Compress(observations)
	if len(result) != 2 {
		t.Fatalf("expected 2 aircraft, got %d", len(result))
	}
	for icao, rec := range result {
		if rec.ICAO != icao {
			t.Errorf("record keyed %s carries icao %s", icao, rec.ICAO)
		}
	}
}

func TestCompress_EmptyInputAbsent(t *testing.T) {
	if result := Compress(nil); len(result) != 0 {
		t.Errorf("expected empty result for empty input, got %d records", len(result))
	}
}

func TestCompress_EarliestWinsPerSignature(t *testing.T) {
	// Three identical-content rows at different times; the retained
	// timestamp must be the group minimum, regardless of input order.
	observations := []types.Observation{
		obs("abc123", 30, "1", "1999"),
		obs("abc123", 10, "1", "1999"),
		obs("abc123", 20, "1", "1999"),
	}

	rec, ok := Compress(observations)["abc123"]
	if !ok {
		t.Fatal("missing record for abc123")
	}
	if !rec.Time.Equal(at(10)) {
		t.Errorf("retained timestamp %v, want %v", rec.Time, at(10))
	}
	if rec.Sightings != 3 {
		t.Errorf("Sightings = %d, want 3", rec.Sightings)
	}
}

func TestCompress_SubsumptionRemovesLessInformative(t *testing.T) {
	// R={dbFlags:A} is subsumed by S={dbFlags:A, year:1999}
	observations := []types.Observation{
		obs("abc123", 10, "A", ""),
		obs("abc123", 20, "A", "1999"),
	}

	rec := Compress(observations)["abc123"]
	if rec.Year != "1999" {
		t.Errorf("expected the more informative row to survive, got year=%q", rec.Year)
	}
	if !rec.Time.Equal(at(20)) {
		t.Errorf("survivor keeps its own signature's earliest time, got %v", rec.Time)
	}
}

func TestCompress_IncomparableRowsUseFrequency(t *testing.T) {
	// R={dbFlags:A} and S={year:1999} are incomparable; both survive
	// subsumption and the raw-frequency tie-break picks S (seen twice).
	observations := []types.Observation{
		obs("abc123", 10, "A", ""),
		obs("abc123", 20, "", "1999"),
		obs("abc123", 30, "", "1999"),
	}

	rec := Compress(observations)["abc123"]
	if rec.Year != "1999" || rec.DBFlags != "" {
		t.Errorf("expected most frequent signature to win, got dbFlags=%q year=%q",
			rec.DBFlags, rec.Year)
	}
	if rec.Sightings != 2 {
		t.Errorf("Sightings = %d, want 2", rec.Sightings)
	}
}

func TestCompress_FrequencyTieKeepsFirstEncountered(t *testing.T) {
	// Both signatures appear once; the first encountered in time order wins.
	observations := []types.Observation{
		obs("abc123", 10, "A", ""),
		obs("abc123", 20, "", "1999"),
	}

	rec := Compress(observations)["abc123"]
	if rec.DBFlags != "A" || rec.Year != "" {
		t.Errorf("expected first-encountered signature on tie, got dbFlags=%q year=%q",
			rec.DBFlags, rec.Year)
	}
}

func TestCompress_EmptyRowSubsumedByAnyNonEmpty(t *testing.T) {
	observations := []types.Observation{
		{Time: at(10), ICAO: "abc123"},
		obs("abc123", 20, "A", ""),
	}

	rec := Compress(observations)["abc123"]
	if rec.DBFlags != "A" {
		t.Errorf("all-empty row should be subsumed, got dbFlags=%q", rec.DBFlags)
	}
}

func TestMerge_DisjointIsUnion(t *testing.T) {
	x := Compress([]types.Observation{obs("abc123", 10, "A", "")})
	y := Compress([]types.Observation{obs("def456", 20, "B", "")})

	merged := Merge(x, y)
	if len(merged) != 2 {
		t.Fatalf("expected 2 records, got %d", len(merged))
	}
	if merged["abc123"] != x["abc123"] {
		t.Error("merge changed a record with no counterpart")
	}
	if merged["def456"] != y["def456"] {
		t.Error("merge changed a record with no counterpart")
	}
}

func TestMerge_PartitionMatchesDirectCompress(t *testing.T) {
	// Splitting one day's data and merging the compressed halves must
	// reproduce the direct result for aircraft in only one partition.
	all := []types.Observation{
		obs("abc123", 10, "A", ""),
		obs("abc123", 20, "A", "1999"),
		obs("def456", 15, "B", ""),
	}
	direct := Compress(all)

	merged := Merge(Compress(all[:2]), Compress(all[2:]))
	for icao, want := range direct {
		got, ok := merged[icao]
		if !ok {
			t.Fatalf("missing record for %s after merge", icao)
		}
		if got != want {
			t.Errorf("%s: merged record %+v differs from direct %+v", icao, got, want)
		}
	}
}

func TestMerge_SubsumptionAcrossUnits(t *testing.T) {
	// Day 1 reports {dbFlags:1}, day 2 adds the year. The merged chunk
	// must keep exactly day 2's record.
	day1 := Compress([]types.Observation{obs("abc123", 100, "1", "")})
	day2 := Compress([]types.Observation{obs("abc123", 200, "1", "1999")})

	merged := Merge(day1, day2)
	if len(merged) != 1 {
		t.Fatalf("expected 1 record, got %d", len(merged))
	}
	rec := merged["abc123"]
	if rec.Year != "1999" || !rec.Time.Equal(at(200)) {
		t.Errorf("expected day 2's record to survive, got %+v", rec)
	}
}

func TestMerge_SameSignatureAccumulatesSightings(t *testing.T) {
	day1 := Compress([]types.Observation{
		obs("abc123", 100, "1", "1999"),
		obs("abc123", 150, "1", "1999"),
	})
	day2 := Compress([]types.Observation{obs("abc123", 50, "1", "1999")})

	merged := Merge(day1, day2)
	rec := merged["abc123"]
	if rec.Sightings != 3 {
		t.Errorf("Sightings = %d, want 3 (carried counts must accumulate)", rec.Sightings)
	}
	if !rec.Time.Equal(at(50)) {
		t.Errorf("earliest timestamp across units = %v, want %v", rec.Time, at(50))
	}
}

func TestMerge_CarriedCountsMakeMergeAssociative(t *testing.T) {
	a := Compress([]types.Observation{
		obs("abc123", 10, "A", ""),
		obs("abc123", 20, "A", ""),
	})
	b := Compress([]types.Observation{obs("abc123", 30, "", "1999")})
	c := Compress([]types.Observation{obs("abc123", 40, "", "1999")})

	left := Merge(Merge(a, b), c)
	right := Merge(a, Merge(b, c))
	if left["abc123"] != right["abc123"] {
		t.Errorf("merge not associative: %+v vs %+v", left["abc123"], right["abc123"])
	}
}

func TestSortedRecords_TimeAscending(t *testing.T) {
	m := map[string]types.Record{
		"b": {Observation: obs("b", 30, "", "")},
		"a": {Observation: obs("a", 10, "", "")},
		"c": {Observation: obs("c", 10, "", "")},
	}

	records := SortedRecords(m)
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if records[0].ICAO != "a" || records[1].ICAO != "c" || records[2].ICAO != "b" {
		t.Errorf("unexpected order: %s, %s, %s",
			records[0].ICAO, records[1].ICAO, records[2].ICAO)
	}
}

func TestCompressGroup_EmptyInputRejected(t *testing.T) {
	if _, err := compressGroup(nil); err == nil {
		t.Error("expected error for empty group")
	}
}
