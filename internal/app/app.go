// Package app wires configuration into runnable pipeline roles.
package app

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/planequery/adsbcompact/internal/config"
	"github.com/planequery/adsbcompact/internal/daystore"
	"github.com/planequery/adsbcompact/internal/reducer"
	"github.com/planequery/adsbcompact/internal/storage"
	"github.com/planequery/adsbcompact/internal/worker"
	"github.com/planequery/adsbcompact/pkg/types"
)

// NewObjectStore builds the shared artifact store from configuration.
func NewObjectStore(ctx context.Context, cfg *config.Config) (storage.ObjectStore, error) {
	switch cfg.Storage.Type {
	case "s3":
		return storage.NewS3Store(ctx, cfg.Storage.S3.Bucket, storage.S3Config{
			Region:       cfg.Storage.S3.Region,
			Endpoint:     cfg.Storage.S3.Endpoint,
			UsePathStyle: cfg.Storage.S3.UsePathStyle,
		})
	case "local":
		return storage.NewLocalStore(cfg.Storage.Path)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Storage.Type)
	}
}

// RunWorker processes the configured chunk and publishes its intermediate
// artifact. Configuration must already be resolved and validated.
func RunWorker(ctx context.Context, cfg *config.Config) (*worker.Result, error) {
	chunk, err := cfg.ChunkRange()
	if err != nil {
		return nil, err
	}

	store, err := NewObjectStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	days, err := daystore.NewStore(cfg.Extract.DayDir)
	if err != nil {
		return nil, err
	}

	w := worker.New(days, store, worker.Config{
		RunID:      cfg.RunID,
		Chunk:      chunk,
		WorkDir:    filepath.Join(cfg.DataDir, "scratch"),
		OpTimeout:  cfg.Storage.OpTimeout,
		ReleaseDay: days.RemoveDay,
	})
	return w.Run(ctx)
}

// RunReduce combines the run's chunk artifacts into the final artifact.
func RunReduce(ctx context.Context, cfg *config.Config) (*reducer.Result, error) {
	global, err := cfg.GlobalRange()
	if err != nil {
		return nil, err
	}

	store, err := NewObjectStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	r := reducer.New(store, reducer.Config{
		RunID:       cfg.RunID,
		Global:      global,
		WorkDir:     cfg.Reduce.WorkDir,
		Concurrency: cfg.Reduce.Concurrency,
		OpTimeout:   cfg.Storage.OpTimeout,
	})
	return r.Run(ctx)
}

// PlanChunks splits the global range into the fixed-day chunks a run's
// workers are assigned.
func PlanChunks(cfg *config.Config) ([]types.DateRange, error) {
	global, err := cfg.GlobalRange()
	if err != nil {
		return nil, err
	}
	return global.Chunks(cfg.ChunkDays), nil
}
