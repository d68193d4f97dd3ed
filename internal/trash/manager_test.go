package trash_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/docvault/docvault/internal/config"
	"github.com/docvault/docvault/internal/documents"
	"github.com/docvault/docvault/internal/documents/documentstest"
	"github.com/docvault/docvault/internal/storage"
	"github.com/docvault/docvault/internal/trash"
	"github.com/docvault/docvault/pkg/pagination"
	"github.com/google/uuid"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setup(t *testing.T) (trash.Manager, *documentstest.Fake, storage.System) {
	t.Helper()

	store, err := storage.New(context.Background(), &config.StorageConfig{
		Driver:   config.StorageDriverFilesystem,
		BasePath: t.TempDir(),
	}, testLogger())
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}

	docs := documentstest.New(store)
	return trash.NewManager(docs, store, testLogger()), docs, store
}

func createDocument(t *testing.T, docs *documentstest.Fake, owner string) *documents.Document {
	t.Helper()

	doc, err := docs.Create(context.Background(), documents.CreateCommand{
		OwnerID:   owner,
		Filename:  "notes.txt",
		MimeType:  "text/plain",
		SizeBytes: 5,
		Data:      []byte("notes"),
	})
	if err != nil {
		t.Fatalf("create document: %v", err)
	}
	return doc
}

func TestMoveToTrashIsIdempotent(t *testing.T) {
	mgr, docs, _ := setup(t)
	ctx := context.Background()

	doc := createDocument(t, docs, "alice")

	if err := mgr.MoveToTrash(ctx, doc.ID, "alice"); err != nil {
		t.Fatalf("MoveToTrash: %v", err)
	}
	if err := mgr.MoveToTrash(ctx, doc.ID, "alice"); err != nil {
		t.Fatalf("second MoveToTrash: %v", err)
	}

	stored, err := docs.Find(ctx, doc.ID)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if !stored.IsTrashed {
		t.Error("document not trashed")
	}
	if stored.TrashedAt == nil {
		t.Error("trashed_at not set")
	}
}

func TestTrashedDocumentsHiddenFromListing(t *testing.T) {
	mgr, docs, _ := setup(t)
	ctx := context.Background()

	doc := createDocument(t, docs, "alice")
	if err := mgr.MoveToTrash(ctx, doc.ID, "alice"); err != nil {
		t.Fatalf("MoveToTrash: %v", err)
	}

	normal, err := docs.List(ctx, "alice", documents.FilterDefault, pagination.PageRequest{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(normal.Data) != 0 {
		t.Errorf("trashed document visible in default listing")
	}

	trashed, err := mgr.List(ctx, "alice", pagination.PageRequest{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("trash List: %v", err)
	}
	if len(trashed.Data) != 1 {
		t.Errorf("got %d trashed documents, want 1", len(trashed.Data))
	}
}

func TestRestoreRequiresTrashedState(t *testing.T) {
	mgr, docs, _ := setup(t)
	ctx := context.Background()

	doc := createDocument(t, docs, "alice")

	if err := mgr.Restore(ctx, doc.ID, "alice"); !errors.Is(err, trash.ErrNotTrashed) {
		t.Fatalf("got %v, want ErrNotTrashed", err)
	}

	if err := mgr.MoveToTrash(ctx, doc.ID, "alice"); err != nil {
		t.Fatalf("MoveToTrash: %v", err)
	}
	if err := mgr.Restore(ctx, doc.ID, "alice"); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	stored, err := docs.Find(ctx, doc.ID)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if stored.IsTrashed {
		t.Error("document still trashed after restore")
	}
	if stored.TrashedAt != nil {
		t.Error("trashed_at not cleared")
	}
}

func TestPurgeDeletesRecordAndBlobs(t *testing.T) {
	mgr, docs, store := setup(t)
	ctx := context.Background()

	doc := createDocument(t, docs, "alice")
	key := doc.StorageKey

	if err := mgr.MoveToTrash(ctx, doc.ID, "alice"); err != nil {
		t.Fatalf("MoveToTrash: %v", err)
	}
	if err := mgr.Purge(ctx, doc.ID, "alice"); err != nil {
		t.Fatalf("Purge: %v", err)
	}

	if _, err := docs.Find(ctx, doc.ID); !errors.Is(err, documents.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound after purge", err)
	}

	exists, err := store.Exists(ctx, key)
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if exists {
		t.Error("blob survived purge")
	}
}

func TestPurgeAllowedFromActiveState(t *testing.T) {
	mgr, docs, store := setup(t)
	ctx := context.Background()

	doc := createDocument(t, docs, "alice")
	key := doc.StorageKey

	// Permanent deletion does not require trashing first.
	if err := mgr.Purge(ctx, doc.ID, "alice"); err != nil {
		t.Fatalf("Purge: %v", err)
	}

	if _, err := docs.Find(ctx, doc.ID); !errors.Is(err, documents.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound after purge", err)
	}

	exists, err := store.Exists(ctx, key)
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if exists {
		t.Error("blob survived purge")
	}
}

func TestBulkTrashSkipsFailures(t *testing.T) {
	mgr, docs, _ := setup(t)
	ctx := context.Background()

	mine := createDocument(t, docs, "alice")
	theirs := createDocument(t, docs, "bob")
	missing := uuid.New()

	result, err := mgr.BulkTrash(ctx, []uuid.UUID{mine.ID, theirs.ID, missing}, "alice")
	if err != nil {
		t.Fatalf("BulkTrash: %v", err)
	}

	if result.Trashed != 1 {
		t.Errorf("trashed = %d, want 1", result.Trashed)
	}
	if len(result.Skipped) != 2 {
		t.Errorf("skipped = %d, want 2", len(result.Skipped))
	}
}

func TestEmptyTrashPurgesOnlyOwnTrashed(t *testing.T) {
	mgr, docs, _ := setup(t)
	ctx := context.Background()

	trashed := createDocument(t, docs, "alice")
	kept := createDocument(t, docs, "alice")
	other := createDocument(t, docs, "bob")

	if err := mgr.MoveToTrash(ctx, trashed.ID, "alice"); err != nil {
		t.Fatalf("MoveToTrash: %v", err)
	}
	if err := mgr.MoveToTrash(ctx, other.ID, "bob"); err != nil {
		t.Fatalf("MoveToTrash: %v", err)
	}

	purged, err := mgr.EmptyTrash(ctx, "alice")
	if err != nil {
		t.Fatalf("EmptyTrash: %v", err)
	}
	if purged != 1 {
		t.Errorf("purged = %d, want 1", purged)
	}

	if _, err := docs.Find(ctx, kept.ID); err != nil {
		t.Errorf("untrashed document purged: %v", err)
	}
	if _, err := docs.Find(ctx, other.ID); err != nil {
		t.Errorf("other owner's document purged: %v", err)
	}
}

func TestPurgeExpired(t *testing.T) {
	mgr, docs, _ := setup(t)
	ctx := context.Background()

	past := time.Now().Add(-time.Hour)
	expired, err := docs.Create(ctx, documents.CreateCommand{
		OwnerID:   "alice",
		Filename:  "burn.txt",
		MimeType:  "text/plain",
		SizeBytes: 4,
		ExpiresAt: &past,
		Data:      []byte("poof"),
	})
	if err != nil {
		t.Fatalf("create expired document: %v", err)
	}

	keeper := createDocument(t, docs, "alice")

	purged, err := mgr.PurgeExpired(ctx, time.Now())
	if err != nil {
		t.Fatalf("PurgeExpired: %v", err)
	}
	if purged != 1 {
		t.Errorf("purged = %d, want 1", purged)
	}

	if _, err := docs.Find(ctx, expired.ID); !errors.Is(err, documents.ErrNotFound) {
		t.Errorf("expired document survived: %v", err)
	}
	if _, err := docs.Find(ctx, keeper.ID); err != nil {
		t.Errorf("non-expired document purged: %v", err)
	}
}
