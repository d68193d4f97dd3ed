package versions_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/docvault/docvault/internal/config"
	"github.com/docvault/docvault/internal/documents"
	"github.com/docvault/docvault/internal/documents/documentstest"
	"github.com/docvault/docvault/internal/storage"
	"github.com/docvault/docvault/internal/versions"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testStore(t *testing.T) storage.System {
	t.Helper()

	cfg := &config.StorageConfig{
		Driver:   config.StorageDriverFilesystem,
		BasePath: t.TempDir(),
	}

	store, err := storage.New(context.Background(), cfg, testLogger())
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	return store
}

func setup(t *testing.T) (versions.Manager, *documentstest.Fake, storage.System) {
	t.Helper()

	store := testStore(t)
	docs := documentstest.New(store)
	return versions.NewManager(docs, store, testLogger()), docs, store
}

func createDocument(t *testing.T, docs *documentstest.Fake, owner string, content []byte) *documents.Document {
	t.Helper()

	doc, err := docs.Create(context.Background(), documents.CreateCommand{
		OwnerID:   owner,
		Filename:  "report.txt",
		MimeType:  "text/plain",
		SizeBytes: int64(len(content)),
		Data:      content,
	})
	if err != nil {
		t.Fatalf("create document: %v", err)
	}
	return doc
}

func TestAddVersionAssignsSequentialNumbers(t *testing.T) {
	mgr, docs, _ := setup(t)
	ctx := context.Background()

	doc := createDocument(t, docs, "alice", []byte("v1"))

	for i := 2; i <= 4; i++ {
		version, err := mgr.AddVersion(ctx, doc.ID, "alice", versions.AddCommand{
			MimeType: "text/plain",
			Data:     []byte{byte(i)},
		})
		if err != nil {
			t.Fatalf("AddVersion %d: %v", i, err)
		}
		if version.VersionNumber != i {
			t.Errorf("got version %d, want %d", version.VersionNumber, i)
		}
	}

	updated, err := docs.Find(ctx, doc.ID)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(updated.Versions) != 4 {
		t.Errorf("got %d versions, want 4", len(updated.Versions))
	}
}

// rendezvousStore holds every Store call at a barrier until all expected
// writers have arrived, forcing concurrent appends through the window
// between reading the document and writing the blob.
type rendezvousStore struct {
	storage.System
	barrier *sync.WaitGroup
}

func (s *rendezvousStore) Store(ctx context.Context, key string, data []byte, contentType string) error {
	s.barrier.Done()
	s.barrier.Wait()
	return s.System.Store(ctx, key, data, contentType)
}

func TestAddVersionConcurrentAppends(t *testing.T) {
	store := testStore(t)
	docs := documentstest.New(store)
	ctx := context.Background()

	doc := createDocument(t, docs, "alice", []byte("v1"))

	var barrier sync.WaitGroup
	barrier.Add(2)
	mgr := versions.NewManager(docs, &rendezvousStore{System: store, barrier: &barrier}, testLogger())

	payloads := []string{"payload-A", "payload-B"}
	results := make([]*documents.Version, len(payloads))
	errs := make([]error, len(payloads))

	var wg sync.WaitGroup
	for i, payload := range payloads {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = mgr.AddVersion(ctx, doc.ID, "alice", versions.AddCommand{
				MimeType: "text/plain",
				Data:     []byte(payload),
			})
		}()
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("AddVersion %q: %v", payloads[i], err)
		}
	}

	numbers := map[int]bool{}
	for _, version := range results {
		numbers[version.VersionNumber] = true
	}
	if !numbers[2] || !numbers[3] {
		t.Errorf("got version numbers %v, want {2, 3}", numbers)
	}

	if results[0].StorageKey == results[1].StorageKey {
		t.Fatalf("both versions share storage key %q", results[0].StorageKey)
	}

	// Each version's blob holds the content it was appended with.
	for i, version := range results {
		data, err := store.Retrieve(ctx, version.StorageKey)
		if err != nil {
			t.Fatalf("Retrieve version %d: %v", version.VersionNumber, err)
		}
		if !bytes.Equal(data, []byte(payloads[i])) {
			t.Errorf("version %d content = %q, want %q", version.VersionNumber, data, payloads[i])
		}
	}
}

func TestAddVersionUpdatesCurrentContent(t *testing.T) {
	mgr, docs, store := setup(t)
	ctx := context.Background()

	doc := createDocument(t, docs, "alice", []byte("original"))

	if _, err := mgr.AddVersion(ctx, doc.ID, "alice", versions.AddCommand{
		MimeType: "text/plain",
		Data:     []byte("updated"),
	}); err != nil {
		t.Fatalf("AddVersion: %v", err)
	}

	updated, err := docs.Find(ctx, doc.ID)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}

	data, err := store.Retrieve(ctx, updated.StorageKey)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if !bytes.Equal(data, []byte("updated")) {
		t.Errorf("current content = %q, want %q", data, "updated")
	}
}

func TestAddVersionForbiddenForNonOwner(t *testing.T) {
	mgr, docs, _ := setup(t)

	doc := createDocument(t, docs, "alice", []byte("v1"))

	_, err := mgr.AddVersion(context.Background(), doc.ID, "mallory", versions.AddCommand{
		MimeType: "text/plain",
		Data:     []byte("v2"),
	})
	if !errors.Is(err, documents.ErrForbidden) {
		t.Errorf("got %v, want ErrForbidden", err)
	}
}

func TestRestoreVersionAppendsCopy(t *testing.T) {
	mgr, docs, store := setup(t)
	ctx := context.Background()

	doc := createDocument(t, docs, "alice", []byte("v1"))
	for _, content := range []string{"v2", "v3", "v4", "v5"} {
		if _, err := mgr.AddVersion(ctx, doc.ID, "alice", versions.AddCommand{
			MimeType: "text/plain",
			Data:     []byte(content),
		}); err != nil {
			t.Fatalf("AddVersion: %v", err)
		}
	}

	restored, err := mgr.RestoreVersion(ctx, doc.ID, "alice", 2)
	if err != nil {
		t.Fatalf("RestoreVersion: %v", err)
	}

	if restored.VersionNumber != 6 {
		t.Errorf("got version %d, want 6", restored.VersionNumber)
	}
	if !restored.IsRestorePoint {
		t.Error("restore point flag not set")
	}
	if restored.RestoredFromVersion == nil || *restored.RestoredFromVersion != 2 {
		t.Errorf("restored_from = %v, want 2", restored.RestoredFromVersion)
	}

	updated, err := docs.Find(ctx, doc.ID)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(updated.Versions) != 6 {
		t.Errorf("history rewritten: got %d versions, want 6", len(updated.Versions))
	}

	data, err := store.Retrieve(ctx, updated.StorageKey)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if !bytes.Equal(data, []byte("v2")) {
		t.Errorf("current content = %q, want %q", data, "v2")
	}

	// The copy owns its blob; the original version key is untouched.
	target := updated.Versions[1]
	if target.StorageKey == restored.StorageKey {
		t.Error("restore reused the target version's storage key")
	}
}

func TestRestoreVersionNotFound(t *testing.T) {
	mgr, docs, _ := setup(t)

	doc := createDocument(t, docs, "alice", []byte("v1"))

	_, err := mgr.RestoreVersion(context.Background(), doc.ID, "alice", 7)
	if !errors.Is(err, versions.ErrVersionNotFound) {
		t.Errorf("got %v, want ErrVersionNotFound", err)
	}
}

func TestRestoreCurrentVersionRejected(t *testing.T) {
	mgr, docs, _ := setup(t)

	doc := createDocument(t, docs, "alice", []byte("v1"))

	_, err := mgr.RestoreVersion(context.Background(), doc.ID, "alice", 1)
	if !errors.Is(err, versions.ErrCurrentVersion) {
		t.Errorf("got %v, want ErrCurrentVersion", err)
	}
}

func TestDownloadVersion(t *testing.T) {
	mgr, docs, _ := setup(t)
	ctx := context.Background()

	doc := createDocument(t, docs, "alice", []byte("first"))
	if _, err := mgr.AddVersion(ctx, doc.ID, "alice", versions.AddCommand{
		MimeType: "text/plain",
		Data:     []byte("second"),
	}); err != nil {
		t.Fatalf("AddVersion: %v", err)
	}

	version, data, err := mgr.DownloadVersion(ctx, doc.ID, "alice", 1)
	if err != nil {
		t.Fatalf("DownloadVersion: %v", err)
	}
	if version.VersionNumber != 1 {
		t.Errorf("got version %d, want 1", version.VersionNumber)
	}
	if !bytes.Equal(data, []byte("first")) {
		t.Errorf("got %q, want %q", data, "first")
	}
}
