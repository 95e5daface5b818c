// Package worker implements the map side of the pipeline: one chunk worker
// compresses a contiguous sub-range of days and publishes a single
// intermediate artifact for the run.
package worker

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/planequery/adsbcompact/internal/artifact"
	"github.com/planequery/adsbcompact/internal/compress"
	"github.com/planequery/adsbcompact/internal/errors"
	"github.com/planequery/adsbcompact/internal/storage"
	"github.com/planequery/adsbcompact/pkg/types"
)

// DayLoader loads the raw observations for one day. A load failure is
// recoverable: the worker skips the day and continues.
type DayLoader interface {
	LoadDay(ctx context.Context, day time.Time) ([]types.Observation, error)
}

// Config holds chunk worker configuration.
type Config struct {
	// RunID namespaces this worker's artifact in shared storage.
	RunID string

	// Chunk is the worker's assigned day sub-range, start inclusive and
	// end exclusive.
	Chunk types.DateRange

	// WorkDir is the local scratch directory for artifact staging.
	WorkDir string

	// OpTimeout bounds the artifact upload.
	OpTimeout time.Duration

	// ReleaseDay, if set, frees a day's local scratch after the day has
	// been folded into the accumulator.
	ReleaseDay func(day time.Time) error
}

// Result summarizes one worker invocation.
type Result struct {
	// Published is false when the chunk produced no data; that is not an
	// error.
	Published bool
	// Key is the published artifact's storage key.
	Key string
	// Records is the number of compressed records published.
	Records int
	// DaysLoaded and DaysSkipped count day outcomes in the chunk.
	DaysLoaded  int
	DaysSkipped int
}

// ChunkWorker processes one date chunk.
type ChunkWorker struct {
	loader DayLoader
	store  storage.ObjectStore
	cfg    Config
}

// New creates a chunk worker.
func New(loader DayLoader, store storage.ObjectStore, cfg Config) *ChunkWorker {
	return &ChunkWorker{loader: loader, store: store, cfg: cfg}
}

// Run iterates the chunk's days, compressing each day and merging it into a
// running accumulator, then publishes the accumulated records as the
// chunk's intermediate artifact. Day-load failures are logged and skipped;
// a persistence failure aborts the chunk.
func (w *ChunkWorker) Run(ctx context.Context) (*Result, error) {
	result := &Result{}
	chunk := w.cfg.Chunk
	log.Printf("worker: processing %d days [%s, %s)",
		chunk.NumDays(), chunk.Start.Format(types.DateLayout), chunk.End.Format(types.DateLayout))

	var acc map[string]types.Record
	for _, day := range chunk.Days() {
		dayStr := day.Format(types.DateLayout)

		observations, err := w.loader.LoadDay(ctx, day)
		if err != nil {
			log.Printf("worker: WARNING: failed to load %s: %v", dayStr, err)
			result.DaysSkipped++
			continue
		}
		result.DaysLoaded++

		if len(observations) > 0 {
			compressed := compress.Compress(observations)
			if acc == nil {
				acc = compressed
			} else {
				acc = compress.Merge(acc, compressed)
			}
			log.Printf("worker: %s: %d observations -> %d aircraft (accumulated: %d)",
				dayStr, len(observations), len(compressed), len(acc))
		}

		// Release the day's scratch before moving on to bound disk use
		if w.cfg.ReleaseDay != nil {
			if err := w.cfg.ReleaseDay(day); err != nil {
				log.Printf("worker: cleanup warning for %s: %v", dayStr, err)
			}
		}
	}

	if len(acc) == 0 {
		log.Printf("worker: no data produced for chunk %s", chunk)
		return result, nil
	}

	key, err := w.publish(ctx, acc)
	if err != nil {
		return result, err
	}

	result.Published = true
	result.Key = key
	result.Records = len(acc)
	log.Printf("worker: published %d records to %s", len(acc), key)
	return result, nil
}

// publish stages the accumulator as a gzip CSV in a scratch directory and
// uploads it under the chunk's key. The same key is overwritten on retry.
func (w *ChunkWorker) publish(ctx context.Context, acc map[string]types.Record) (string, error) {
	scratch := filepath.Join(w.cfg.WorkDir, fmt.Sprintf("chunk_%s", uuid.New().String()[:8]))
	if err := os.MkdirAll(scratch, 0755); err != nil {
		return "", errors.NewStorageError(errors.CodeUploadFailed,
			"failed to create scratch directory", err)
	}
	defer os.RemoveAll(scratch)

	key := artifact.IntermediateKey(w.cfg.RunID, w.cfg.Chunk)
	localPath := filepath.Join(scratch, filepath.Base(key))

	records := compress.SortedRecords(acc)
	if err := artifact.WriteFile(localPath, records, true); err != nil {
		return "", errors.NewStorageError(errors.CodeUploadFailed,
			"failed to write chunk artifact", err)
	}

	uploadCtx := ctx
	if w.cfg.OpTimeout > 0 {
		var cancel context.CancelFunc
		uploadCtx, cancel = context.WithTimeout(ctx, w.cfg.OpTimeout)
		defer cancel()
	}
	if err := w.store.Upload(uploadCtx, localPath, key); err != nil {
		return "", errors.NewStorageError(errors.CodeUploadFailed,
			fmt.Sprintf("failed to upload chunk artifact %s", key), err)
	}

	return key, nil
}
