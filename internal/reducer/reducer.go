// Package reducer implements the reduce side of the pipeline: it discovers
// all intermediate artifacts for a run, merges them, and publishes the
// single final artifact for the run's global date range.
package reducer

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/planequery/adsbcompact/internal/artifact"
	"github.com/planequery/adsbcompact/internal/compress"
	"github.com/planequery/adsbcompact/internal/errors"
	"github.com/planequery/adsbcompact/internal/storage"
	"github.com/planequery/adsbcompact/pkg/types"
)

// Config holds reducer configuration.
type Config struct {
	// RunID identifies the run whose chunks to combine.
	RunID string

	// Global is the run's full date range, used for the final key.
	Global types.DateRange

	// WorkDir is the local scratch directory for downloaded chunks.
	WorkDir string

	// Concurrency bounds parallel chunk downloads.
	Concurrency int

	// OpTimeout bounds a single storage operation.
	OpTimeout time.Duration
}

// Result summarizes a reduce run.
type Result struct {
	// Chunks is the number of intermediate artifacts merged.
	Chunks int
	// Records is the number of records in the final artifact.
	Records int
	// Key is the final artifact's storage key.
	Key string
}

// Reducer merges a run's chunk artifacts into the final artifact.
type Reducer struct {
	store storage.ObjectStore
	cfg   Config
}

// New creates a reducer.
func New(store storage.ObjectStore, cfg Config) *Reducer {
	return &Reducer{store: store, cfg: cfg}
}

// Run lists the run's chunk artifacts, downloads and merges them, and
// publishes the final artifact. Zero discovered artifacts is fatal —
// distinct from a found artifact that happens to contain zero rows.
func (r *Reducer) Run(ctx context.Context) (*Result, error) {
	keys, err := r.discover(ctx)
	if err != nil {
		return nil, err
	}
	log.Printf("reduce: found %d chunks for run %s", len(keys), r.cfg.RunID)

	scratch := filepath.Join(r.cfg.WorkDir, fmt.Sprintf("reduce_%s", uuid.New().String()[:8]))
	if err := os.MkdirAll(scratch, 0755); err != nil {
		return nil, errors.NewReduceError(errors.CodeCorruptArtifact,
			"failed to create scratch directory", err)
	}
	defer os.RemoveAll(scratch)

	locals, err := r.download(ctx, keys, scratch)
	if err != nil {
		return nil, err
	}

	// Merge in sorted key order. Merge is commutative, so the order only
	// pins down the documented first-encountered tie-break.
	var acc map[string]types.Record
	for _, key := range keys {
		records, err := artifact.ReadFile(locals[key])
		if err != nil {
			return nil, errors.NewReduceError(errors.CodeCorruptArtifact,
				fmt.Sprintf("failed to decode chunk %s", key), err)
		}
		log.Printf("reduce: %s: %d records", key, len(records))

		chunk := make(map[string]types.Record, len(records))
		for _, rec := range records {
			chunk[rec.ICAO] = rec
		}
		if acc == nil {
			acc = chunk
		} else {
			acc = compress.Merge(acc, chunk)
		}

		// Free disk space as chunks are consumed
		os.Remove(locals[key])
	}

	finalKey := artifact.FinalKey(r.cfg.Global)
	localPath := filepath.Join(scratch, filepath.Base(finalKey))
	records := compress.SortedRecords(acc)
	if err := artifact.WriteFile(localPath, records, false); err != nil {
		return nil, errors.NewStorageError(errors.CodeUploadFailed,
			"failed to write final artifact", err)
	}

	uploadCtx := ctx
	if r.cfg.OpTimeout > 0 {
		var cancel context.CancelFunc
		uploadCtx, cancel = context.WithTimeout(ctx, r.cfg.OpTimeout)
		defer cancel()
	}
	if err := r.store.Upload(uploadCtx, localPath, finalKey); err != nil {
		return nil, errors.NewStorageError(errors.CodeUploadFailed,
			fmt.Sprintf("failed to upload final artifact %s", finalKey), err)
	}

	log.Printf("reduce: published %d records to %s", len(records), finalKey)
	return &Result{Chunks: len(keys), Records: len(records), Key: finalKey}, nil
}

// discover lists all chunk artifact keys for the run, sorted.
func (r *Reducer) discover(ctx context.Context) ([]string, error) {
	listCtx := ctx
	if r.cfg.OpTimeout > 0 {
		var cancel context.CancelFunc
		listCtx, cancel = context.WithTimeout(ctx, r.cfg.OpTimeout)
		defer cancel()
	}

	all, err := r.store.List(listCtx, artifact.IntermediatePrefix(r.cfg.RunID))
	if err != nil {
		return nil, errors.NewStorageError(errors.CodeDownloadFailed,
			"failed to list chunk artifacts", err)
	}

	var keys []string
	for _, key := range all {
		if strings.HasSuffix(key, artifact.Suffix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	if len(keys) == 0 {
		return nil, errors.New(errors.ErrCategoryReduce, errors.CodeNoArtifacts,
			fmt.Sprintf("no chunk artifacts found for run %s", r.cfg.RunID))
	}
	return keys, nil
}

// download fetches all chunk artifacts into the scratch directory. Any
// failed chunk is fatal: reducing a partial run would silently drop data.
func (r *Reducer) download(ctx context.Context, keys []string, scratch string) (map[string]string, error) {
	fetcher := storage.NewBatchFetcher(r.store, r.cfg.Concurrency)
	result, err := fetcher.Fetch(ctx, keys, scratch)
	if err != nil {
		return nil, errors.NewStorageError(errors.CodeDownloadFailed,
			"failed to download chunk artifacts", err)
	}
	for key, ferr := range result.Errors {
		return nil, errors.NewStorageError(errors.CodeDownloadFailed,
			fmt.Sprintf("failed to download chunk %s", key), ferr)
	}
	return result.LocalPaths, nil
}
