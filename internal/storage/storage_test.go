package storage

import (
	"os"
	"testing"
)

func TestStorePutGet(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "corvid-store-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	store, err := OpenAt(tmpDir)
	if err != nil {
		t.Fatalf("OpenAt failed: %v", err)
	}
	defer store.Close()

	if _, ok := store.Get(12345); ok {
		t.Fatal("expected miss on empty store")
	}

	entry := LearnedEntry{Correction: -137, Visits: 42}
	if err := store.Put(12345, entry); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, ok := store.Get(12345)
	if !ok {
		t.Fatal("expected hit after Put")
	}
	if got != entry {
		t.Errorf("got %+v, want %+v", got, entry)
	}
}

func TestStorePutBatchAndForEach(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "corvid-store-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	store, err := OpenAt(tmpDir)
	if err != nil {
		t.Fatalf("OpenAt failed: %v", err)
	}
	defer store.Close()

	batch := map[uint64]LearnedEntry{
		1: {Correction: 10, Visits: 1},
		2: {Correction: -20, Visits: 2},
		3: {Correction: 30, Visits: 3},
	}
	if err := store.PutBatch(batch); err != nil {
		t.Fatalf("PutBatch failed: %v", err)
	}

	seen := make(map[uint64]LearnedEntry)
	err = store.ForEach(func(hash uint64, entry LearnedEntry) {
		seen[hash] = entry
	})
	if err != nil {
		t.Fatalf("ForEach failed: %v", err)
	}

	if len(seen) != len(batch) {
		t.Fatalf("got %d entries, want %d", len(seen), len(batch))
	}
	for hash, want := range batch {
		if got := seen[hash]; got != want {
			t.Errorf("hash %d: got %+v, want %+v", hash, got, want)
		}
	}
}

func TestDataPaths(t *testing.T) {
	dataDir, err := GetDataDir()
	if err != nil {
		t.Fatalf("GetDataDir failed: %v", err)
	}
	if dataDir == "" {
		t.Error("GetDataDir returned empty path")
	}

	if _, err := os.Stat(dataDir); os.IsNotExist(err) {
		t.Errorf("Data directory was not created: %s", dataDir)
	}
}
