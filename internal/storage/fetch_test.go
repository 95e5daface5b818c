package storage

import (
	"context"
	"errors"
	"os"
	"testing"
)

func TestBatchFetcher_FetchAll(t *testing.T) {
	store, _ := NewLocalStore(t.TempDir())
	ctx := context.Background()

	keys := []string{
		"intermediate/run1/chunk_a.csv.gz",
		"intermediate/run1/chunk_b.csv.gz",
		"intermediate/run1/chunk_c.csv.gz",
	}
	for _, key := range keys {
		if err := store.Upload(ctx, writeTemp(t, key), key); err != nil {
			t.Fatalf("Upload failed: %v", err)
		}
	}

	fetcher := NewBatchFetcher(store, 2)
	result, err := fetcher.Fetch(ctx, keys, t.TempDir())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.LocalPaths) != len(keys) {
		t.Fatalf("expected %d downloads, got %d", len(keys), len(result.LocalPaths))
	}
	for key, local := range result.LocalPaths {
		data, err := os.ReadFile(local)
		if err != nil {
			t.Fatalf("failed to read %s: %v", local, err)
		}
		if string(data) != key {
			t.Errorf("downloaded content for %s does not match", key)
		}
	}
}

func TestBatchFetcher_CollectsPerObjectErrors(t *testing.T) {
	store, _ := NewLocalStore(t.TempDir())
	ctx := context.Background()

	if err := store.Upload(ctx, writeTemp(t, "ok"), "present"); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	fetcher := NewBatchFetcher(store, 4)
	result, err := fetcher.Fetch(ctx, []string{"present", "missing"}, t.TempDir())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if _, ok := result.LocalPaths["present"]; !ok {
		t.Error("expected present object to download")
	}
	ferr, ok := result.Errors["missing"]
	if !ok {
		t.Fatal("expected error for missing object")
	}
	if !errors.Is(ferr, ErrObjectNotFound) {
		t.Errorf("expected ErrObjectNotFound, got %v", ferr)
	}
}

func TestBatchFetcher_EmptyRequest(t *testing.T) {
	store, _ := NewLocalStore(t.TempDir())
	fetcher := NewBatchFetcher(store, 1)

	result, err := fetcher.Fetch(context.Background(), nil, t.TempDir())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(result.LocalPaths) != 0 || len(result.Errors) != 0 {
		t.Error("expected empty result for empty request")
	}
}
