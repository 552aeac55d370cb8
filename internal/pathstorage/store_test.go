package pathstorage_test

import (
	"context"
	"path/filepath"
	"testing"

	"mediarouter/internal/pathstorage"
	"mediarouter/internal/router"
)

func mustOpen(t *testing.T) *pathstorage.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "paths.db")
	store, err := pathstorage.Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_SetThenGetRoundTrips(t *testing.T) {
	store := mustOpen(t)
	ctx := context.Background()

	nodes := []router.StoredNode{
		{HandlerName: "image-suite", FormatMIME: "image/png", FormatFormat: "png"},
		{HandlerName: "image-suite", FormatMIME: "image/jpeg", FormatFormat: "jpeg"},
	}
	if err := store.Set(ctx, "image/png→image/jpeg", nodes); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, ok, err := store.Get(ctx, "image/png→image/jpeg")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !ok {
		t.Fatalf("Get() ok = false, want true")
	}
	if len(got) != len(nodes) {
		t.Fatalf("Get() len = %d, want %d", len(got), len(nodes))
	}
	for i := range nodes {
		if got[i] != nodes[i] {
			t.Fatalf("Get()[%d] = %+v, want %+v", i, got[i], nodes[i])
		}
	}
}

func TestStore_GetMissReturnsFalseNoError(t *testing.T) {
	store := mustOpen(t)
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "never/stored")
	if err != nil {
		t.Fatalf("Get() error = %v, want nil", err)
	}
	if ok {
		t.Fatalf("Get() ok = true, want false")
	}
}

func TestStore_DeleteRemovesEntry(t *testing.T) {
	store := mustOpen(t)
	ctx := context.Background()

	nodes := []router.StoredNode{{HandlerName: "h", FormatMIME: "a/a", FormatFormat: "a"}}
	if err := store.Set(ctx, "key", nodes); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := store.Delete(ctx, "key"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	_, ok, err := store.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if ok {
		t.Fatalf("Get() ok = true after Delete, want false")
	}
}

func TestStore_SetOverwritesExistingKey(t *testing.T) {
	store := mustOpen(t)
	ctx := context.Background()

	if err := store.Set(ctx, "key", []router.StoredNode{{HandlerName: "a", FormatMIME: "a/a"}}); err != nil {
		t.Fatalf("first Set() error = %v", err)
	}
	if err := store.Set(ctx, "key", []router.StoredNode{{HandlerName: "b", FormatMIME: "b/b"}}); err != nil {
		t.Fatalf("second Set() error = %v", err)
	}

	got, ok, err := store.Get(ctx, "key")
	if err != nil || !ok {
		t.Fatalf("Get() = %+v, ok=%v, err=%v", got, ok, err)
	}
	if len(got) != 1 || got[0].HandlerName != "b" {
		t.Fatalf("Get() = %+v, want single entry naming handler b", got)
	}
}

func TestStore_ReopenPersistsAcrossConnections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "paths.db")
	ctx := context.Background()

	store1, err := pathstorage.Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := store1.Set(ctx, "key", []router.StoredNode{{HandlerName: "a", FormatMIME: "a/a"}}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := store1.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	store2, err := pathstorage.Open(path)
	if err != nil {
		t.Fatalf("reopen Open() error = %v", err)
	}
	defer func() { _ = store2.Close() }()

	_, ok, err := store2.Get(ctx, "key")
	if err != nil || !ok {
		t.Fatalf("Get() after reopen: ok=%v err=%v", ok, err)
	}
}
