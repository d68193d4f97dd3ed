package storage_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/docvault/docvault/internal/config"
	"github.com/docvault/docvault/internal/storage"
)

func testStore(t *testing.T) storage.System {
	t.Helper()

	cfg := &config.StorageConfig{
		Driver:   config.StorageDriverFilesystem,
		BasePath: t.TempDir(),
	}

	store, err := storage.New(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	return store
}

func TestStoreRetrieveRoundTrip(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	key := "documents/abc/v1/report.pdf"
	content := []byte("binary content")

	if err := store.Store(ctx, key, content, "application/pdf"); err != nil {
		t.Fatalf("Store: %v", err)
	}

	got, err := store.Retrieve(ctx, key)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Errorf("got %q, want %q", got, content)
	}

	exists, err := store.Exists(ctx, key)
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if !exists {
		t.Error("stored key reported missing")
	}
}

func TestStoreOverwrites(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	key := "documents/abc/v1/notes.txt"
	if err := store.Store(ctx, key, []byte("first"), "text/plain"); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if err := store.Store(ctx, key, []byte("second"), "text/plain"); err != nil {
		t.Fatalf("overwrite Store: %v", err)
	}

	got, err := store.Retrieve(ctx, key)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if string(got) != "second" {
		t.Errorf("got %q, want second", got)
	}
}

func TestRetrieveMissingKey(t *testing.T) {
	store := testStore(t)

	_, err := store.Retrieve(context.Background(), "documents/missing/v1/gone.txt")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	key := "documents/abc/v1/temp.bin"
	if err := store.Store(ctx, key, []byte("x"), "application/octet-stream"); err != nil {
		t.Fatalf("Store: %v", err)
	}

	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("second Delete: %v", err)
	}

	exists, err := store.Exists(ctx, key)
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if exists {
		t.Error("deleted key still exists")
	}
}

func TestRejectsPathTraversal(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	keys := []string{
		"",
		"../outside",
		"documents/../../etc/passwd",
	}

	for _, key := range keys {
		t.Run(key, func(t *testing.T) {
			err := store.Store(ctx, key, []byte("x"), "text/plain")
			if !errors.Is(err, storage.ErrInvalidKey) {
				t.Errorf("Store(%q) = %v, want ErrInvalidKey", key, err)
			}
		})
	}
}

func TestPublicURLIsFileURI(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	key := "documents/abc/v1/pic.png"
	if err := store.Store(ctx, key, []byte("png"), "image/png"); err != nil {
		t.Fatalf("Store: %v", err)
	}

	url, err := store.PublicURL(ctx, key)
	if err != nil {
		t.Fatalf("PublicURL: %v", err)
	}
	if !strings.HasPrefix(url, "file://") {
		t.Errorf("url = %q", url)
	}
}
