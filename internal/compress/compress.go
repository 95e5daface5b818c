package compress

import (
	"sort"

	"github.com/planequery/adsbcompact/pkg/types"
)

// Compress reduces a unit of work's observations to at most one canonical
// record per aircraft. Grouping by identifier is stable; within each group
// rows are sorted by time ascending before the engine runs, as the
// earliest-wins rule requires. Aircraft with no observations are absent from
// the output.
func Compress(observations []types.Observation) map[string]types.Record {
	groups := make(map[string][]candidate)
	var order []string
	for _, obs := range observations {
		if _, ok := groups[obs.ICAO]; !ok {
			order = append(order, obs.ICAO)
		}
		groups[obs.ICAO] = append(groups[obs.ICAO], candidate{obs: obs, weight: 1})
	}

	out := make(map[string]types.Record, len(groups))
	for _, icao := range order {
		cands := groups[icao]
		sort.SliceStable(cands, func(i, j int) bool {
			return cands[i].obs.Time.Before(cands[j].obs.Time)
		})
		rec, err := compressGroup(cands)
		if err != nil {
			continue
		}
		out[icao] = rec
	}
	return out
}

// Merge recombines two already-compressed result sets. For every aircraft
// present in either map the engine re-runs over the candidate records, so
// subsumption and raw-frequency selection still apply at merge time using
// the records' carried sighting counts. Merge is commutative and, with the
// carried counts, associative.
func Merge(base, incoming map[string]types.Record) map[string]types.Record {
	out := make(map[string]types.Record, len(base)+len(incoming))

	for icao, rec := range base {
		if inc, ok := incoming[icao]; ok {
			out[icao] = mergeRecords(rec, inc)
			continue
		}
		out[icao] = rec
	}
	for icao, rec := range incoming {
		if _, ok := base[icao]; !ok {
			out[icao] = rec
		}
	}
	return out
}

// mergeRecords runs the engine over the two candidate records for one
// aircraft, treating them as the full observation set.
func mergeRecords(a, b types.Record) types.Record {
	cands := []candidate{
		{obs: a.Observation, weight: a.Sightings},
		{obs: b.Observation, weight: b.Sightings},
	}
	// Signature as a secondary key keeps merge commutative when both
	// candidates share a timestamp.
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].obs.Time.Equal(cands[j].obs.Time) {
			return cands[i].obs.Signature() < cands[j].obs.Signature()
		}
		return cands[i].obs.Time.Before(cands[j].obs.Time)
	})
	rec, _ := compressGroup(cands)
	return rec
}

// SortedRecords flattens a compressed result set into the final output
// order: timestamp ascending, identifier as a deterministic tiebreak.
// Ordering is imposed once here, not maintained by intermediate steps.
func SortedRecords(m map[string]types.Record) []types.Record {
	records := make([]types.Record, 0, len(m))
	for _, rec := range m {
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].Time.Equal(records[j].Time) {
			return records[i].ICAO < records[j].ICAO
		}
		return records[i].Time.Before(records[j].Time)
	})
	return records
}
