// Package artifact provides the gzip CSV artifact format and the shared
// storage keys workers and the reducer coordinate through.
package artifact

import (
	"fmt"

	"github.com/planequery/adsbcompact/pkg/types"
)

// Suffix is the artifact file extension. The reducer only considers keys
// with this suffix when discovering chunks.
const Suffix = ".csv.gz"

// IntermediatePrefix returns the storage prefix holding all of a run's
// chunk artifacts.
func IntermediatePrefix(runID string) string {
	return fmt.Sprintf("intermediate/%s/", runID)
}

// IntermediateKey returns the storage key for one chunk's artifact.
// Publishing the same chunk twice overwrites; retries are idempotent.
func IntermediateKey(runID string, chunk types.DateRange) string {
	return fmt.Sprintf("%schunk_%s%s", IntermediatePrefix(runID), chunk, Suffix)
}

// FinalKey returns the storage key for the run's final artifact.
func FinalKey(global types.DateRange) string {
	return fmt.Sprintf("final/planequery_aircraft_adsb_%s%s", global, Suffix)
}
