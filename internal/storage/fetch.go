package storage

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"sync"

	"golang.org/x/sync/semaphore"
)

// BatchFetcher downloads a set of objects in parallel with bounded
// concurrency. The reducer uses it to pull all chunk artifacts for a run.
type BatchFetcher struct {
	store       ObjectStore
	concurrency int
}

// FetchResult contains the outcome of a batch fetch.
type FetchResult struct {
	// LocalPaths maps object path to the downloaded local path.
	LocalPaths map[string]string
	// Errors maps object path to its download error.
	Errors map[string]error
}

// NewBatchFetcher creates a new batch fetcher.
func NewBatchFetcher(store ObjectStore, concurrency int) *BatchFetcher {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &BatchFetcher{store: store, concurrency: concurrency}
}

// Fetch downloads the given objects into destDir. Individual failures are
// collected per object rather than aborting the batch; the caller decides
// whether any failure is fatal.
func (f *BatchFetcher) Fetch(ctx context.Context, objectPaths []string, destDir string) (*FetchResult, error) {
	result := &FetchResult{
		LocalPaths: make(map[string]string),
		Errors:     make(map[string]error),
	}
	if len(objectPaths) == 0 {
		return result, nil
	}

	sem := semaphore.NewWeighted(int64(f.concurrency))

	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, objectPath := range objectPaths {
		localPath := filepath.Join(destDir, path.Base(objectPath))

		if err := sem.Acquire(ctx, 1); err != nil {
			mu.Lock()
			result.Errors[objectPath] = fmt.Errorf("semaphore acquire failed: %w", err)
			mu.Unlock()
			continue
		}

		wg.Add(1)
		go func(object, local string) {
			defer sem.Release(1)
			defer wg.Done()

			if err := f.store.Download(ctx, object, local); err != nil {
				mu.Lock()
				result.Errors[object] = err
				mu.Unlock()
				return
			}

			mu.Lock()
			result.LocalPaths[object] = local
			mu.Unlock()
		}(objectPath, localPath)
	}

	wg.Wait()

	return result, nil
}
