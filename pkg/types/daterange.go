package types

import (
	"fmt"
	"time"
)

// DateLayout is the wire format for dates in configuration and artifact keys.
const DateLayout = "2006-01-02"

// DateRange is a half-open range of days: Start is inclusive, End exclusive.
// Both are truncated to midnight UTC. Workers and the reducer share these
// semantics.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// ParseDateRange parses a range from YYYY-MM-DD start and end strings.
func ParseDateRange(start, end string) (DateRange, error) {
	s, err := time.ParseInLocation(DateLayout, start, time.UTC)
	if err != nil {
		return DateRange{}, fmt.Errorf("invalid start date %q: %w", start, err)
	}
	e, err := time.ParseInLocation(DateLayout, end, time.UTC)
	if err != nil {
		return DateRange{}, fmt.Errorf("invalid end date %q: %w", end, err)
	}
	r := DateRange{Start: s, End: e}
	if !r.Valid() {
		return DateRange{}, fmt.Errorf("invalid range: start %s is not before end %s", start, end)
	}
	return r, nil
}

// Valid reports whether the range spans at least one day.
func (r DateRange) Valid() bool {
	return r.Start.Before(r.End)
}

// NumDays returns the number of days in the range.
func (r DateRange) NumDays() int {
	return int(r.End.Sub(r.Start).Hours() / 24)
}

// Days returns each day in the range in ascending order.
func (r DateRange) Days() []time.Time {
	var days []time.Time
	for d := r.Start; d.Before(r.End); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// Contains reports whether day falls inside the range.
func (r DateRange) Contains(day time.Time) bool {
	return !day.Before(r.Start) && day.Before(r.End)
}

// Chunks splits the range into contiguous sub-ranges of at most chunkDays
// days each. The last chunk is clamped to End. Chunks never overlap and
// cover the full range.
func (r DateRange) Chunks(chunkDays int) []DateRange {
	if chunkDays <= 0 {
		return []DateRange{r}
	}
	var chunks []DateRange
	for cur := r.Start; cur.Before(r.End); {
		end := cur.AddDate(0, 0, chunkDays)
		if end.After(r.End) {
			end = r.End
		}
		chunks = append(chunks, DateRange{Start: cur, End: end})
		cur = end
	}
	return chunks
}

// String formats the range as "start_end" for keys and logs.
func (r DateRange) String() string {
	return fmt.Sprintf("%s_%s", r.Start.Format(DateLayout), r.End.Format(DateLayout))
}
