// Package compress implements the record-compression algorithm: per-aircraft
// signature deduplication, subsumption filtering, and raw-frequency selection
// of a single canonical record per unit of work.
package compress

import (
	"github.com/planequery/adsbcompact/internal/errors"
	"github.com/planequery/adsbcompact/pkg/types"
)

// candidate is one weighted input row for the engine. Weight is the raw
// observation count already accumulated behind the row's signature: 1 for a
// fresh observation, the carried Sightings for an already-compressed record.
type candidate struct {
	obs    types.Observation
	weight int64
}

// sigGroup collects all candidates sharing one signature.
type sigGroup struct {
	// first is the earliest candidate row for this signature. Candidates
	// arrive sorted by time, so the first seen is the earliest.
	first types.Observation

	// weight is the total raw observation count behind this signature.
	weight int64
}

// compressGroup selects the single canonical record from all candidates for
// one aircraft. Candidates must be non-empty and sorted by time ascending;
// ties keep input order.
func compressGroup(cands []candidate) (types.Record, error) {
	if len(cands) == 0 {
		return types.Record{}, errors.NewValidationError(errors.CodeEmptyGroup,
			"compress: cannot compress an empty observation group")
	}

	// Step 1+2: group by signature keeping the earliest row per signature,
	// accumulating the raw frequency of each signature as it appeared
	// before grouping.
	index := make(map[types.SignatureHash]int, len(cands))
	var groups []*sigGroup
	for _, c := range cands {
		h := c.obs.SignatureHash()
		if i, ok := index[h]; ok {
			groups[i].weight += c.weight
			if c.obs.Time.Before(groups[i].first.Time) {
				groups[i].first.Time = c.obs.Time
			}
			continue
		}
		index[h] = len(groups)
		groups = append(groups, &sigGroup{first: c.obs, weight: c.weight})
	}

	// Step 3+4: drop every row whose known attributes are a subset of a
	// strictly more informative surviving row. The relation is not
	// symmetric; one row may subsume several others.
	survivors := make([]*sigGroup, 0, len(groups))
	for i, g := range groups {
		redundant := false
		for j, other := range groups {
			if i == j {
				continue
			}
			if g.first.SubsumedBy(&other.first) {
				redundant = true
				break
			}
		}
		if !redundant {
			survivors = append(survivors, g)
		}
	}

	// Step 5: among survivors, keep the signature with the highest raw
	// frequency. Ties keep the first signature encountered in input order.
	best := survivors[0]
	for _, g := range survivors[1:] {
		if g.weight > best.weight {
			best = g
		}
	}

	// Step 6: the record carries the aircraft identifier, the earliest
	// timestamp seen for the winning signature, and its accumulated count.
	return types.Record{Observation: best.first, Sightings: best.weight}, nil
}
