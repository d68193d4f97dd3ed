// Package versions layers version history operations over the document
// repository: appending new content, restoring prior snapshots, and
// retrieving historical blobs.
package versions

import (
	"context"
	"log/slog"

	"github.com/docvault/docvault/internal/documents"
	"github.com/docvault/docvault/internal/storage"
	"github.com/google/uuid"
)

// Manager defines version history operations. Every operation is scoped to
// the owning user.
type Manager interface {
	// ListVersions returns a document's full version history, oldest first.
	ListVersions(ctx context.Context, id uuid.UUID, ownerID string) ([]documents.Version, error)

	// AddVersion stores new content as the next version of the document.
	AddVersion(ctx context.Context, id uuid.UUID, ownerID string, cmd AddCommand) (*documents.Version, error)

	// RestoreVersion makes a historical version current again by appending
	// a restore point carrying a copy of its content. History is never
	// rewritten; restoring version 2 of 5 produces version 6.
	RestoreVersion(ctx context.Context, id uuid.UUID, ownerID string, versionNumber int) (*documents.Version, error)

	// DownloadVersion returns the content bytes of one historical version.
	DownloadVersion(ctx context.Context, id uuid.UUID, ownerID string, versionNumber int) (*documents.Version, []byte, error)
}

// AddCommand contains the content for a new version.
type AddCommand struct {
	Filename string
	MimeType string
	Data     []byte
}

type manager struct {
	docs   documents.System
	store  storage.System
	logger *slog.Logger
}

// NewManager creates a version manager backed by the document repository
// and blob storage.
func NewManager(docs documents.System, store storage.System, logger *slog.Logger) Manager {
	return &manager{
		docs:   docs,
		store:  store,
		logger: logger.With("system", "versions"),
	}
}

func (m *manager) ListVersions(ctx context.Context, id uuid.UUID, ownerID string) ([]documents.Version, error) {
	doc, err := m.docs.FindOwned(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	return doc.Versions, nil
}

func (m *manager) AddVersion(ctx context.Context, id uuid.UUID, ownerID string, cmd AddCommand) (*documents.Version, error) {
	doc, err := m.docs.FindOwned(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	filename := cmd.Filename
	if filename == "" {
		filename = doc.Filename
	}

	// The version number is assigned atomically by the repository, so the
	// blob is keyed by a fresh id rather than a predicted number. Two
	// concurrent appends write distinct blobs and serialize on the insert.
	key := documents.VersionStorageKey(doc.ID, uuid.New(), filename)
	if err := m.store.Store(ctx, key, cmd.Data, cmd.MimeType); err != nil {
		return nil, err
	}

	version, err := m.docs.AppendVersion(ctx, id, documents.VersionCommand{
		StorageKey: key,
		SizeBytes:  int64(len(cmd.Data)),
		MimeType:   cmd.MimeType,
	})
	if err != nil {
		if cleanup := m.store.Delete(ctx, key); cleanup != nil {
			m.logger.Warn("orphaned version blob", "key", key, "error", cleanup)
		}
		return nil, err
	}

	return version, nil
}

func (m *manager) RestoreVersion(ctx context.Context, id uuid.UUID, ownerID string, versionNumber int) (*documents.Version, error) {
	doc, target, err := m.findVersion(ctx, id, ownerID, versionNumber)
	if err != nil {
		return nil, err
	}

	current := doc.CurrentVersion()
	if current != nil && current.VersionNumber == target.VersionNumber {
		return nil, ErrCurrentVersion
	}

	// Copy the content so each version entry owns its storage key; purging
	// one version can never invalidate another.
	data, err := m.store.Retrieve(ctx, target.StorageKey)
	if err != nil {
		return nil, err
	}

	key := documents.VersionStorageKey(doc.ID, uuid.New(), doc.Filename)
	if err := m.store.Store(ctx, key, data, target.MimeType); err != nil {
		return nil, err
	}

	from := target.VersionNumber
	version, err := m.docs.AppendVersion(ctx, id, documents.VersionCommand{
		StorageKey:          key,
		SizeBytes:           target.SizeBytes,
		MimeType:            target.MimeType,
		IsRestorePoint:      true,
		RestoredFromVersion: &from,
	})
	if err != nil {
		if cleanup := m.store.Delete(ctx, key); cleanup != nil {
			m.logger.Warn("orphaned version blob", "key", key, "error", cleanup)
		}
		return nil, err
	}

	m.logger.Info("version restored", "document_id", id,
		"from", from, "as", version.VersionNumber)
	return version, nil
}

func (m *manager) DownloadVersion(ctx context.Context, id uuid.UUID, ownerID string, versionNumber int) (*documents.Version, []byte, error) {
	_, target, err := m.findVersion(ctx, id, ownerID, versionNumber)
	if err != nil {
		return nil, nil, err
	}

	data, err := m.store.Retrieve(ctx, target.StorageKey)
	if err != nil {
		return nil, nil, err
	}

	return target, data, nil
}

func (m *manager) findVersion(ctx context.Context, id uuid.UUID, ownerID string, versionNumber int) (*documents.Document, *documents.Version, error) {
	doc, err := m.docs.FindOwned(ctx, id, ownerID)
	if err != nil {
		return nil, nil, err
	}

	for i := range doc.Versions {
		if doc.Versions[i].VersionNumber == versionNumber {
			return doc, &doc.Versions[i], nil
		}
	}

	return nil, nil, ErrVersionNotFound
}
