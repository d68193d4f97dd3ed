// Package trash implements the two-stage deletion lifecycle: documents move
// to a recoverable trash state before a purge permanently removes the record
// and every version blob.
package trash

import (
	"context"
	"log/slog"
	"time"

	"github.com/docvault/docvault/internal/documents"
	"github.com/docvault/docvault/internal/storage"
	"github.com/docvault/docvault/pkg/pagination"
	"github.com/google/uuid"
)

// BulkResult reports the outcome of a multi-document trash operation.
// Failed IDs are skipped, never aborted on.
type BulkResult struct {
	Trashed int         `json:"trashed"`
	Skipped []uuid.UUID `json:"skipped,omitempty"`
}

// Manager defines trash lifecycle operations.
type Manager interface {
	// List returns the owner's trashed documents.
	List(ctx context.Context, ownerID string, page pagination.PageRequest) (*pagination.PageResult[documents.Document], error)

	// MoveToTrash marks a document trashed. Trashing an already-trashed
	// document is a no-op.
	MoveToTrash(ctx context.Context, id uuid.UUID, ownerID string) error

	// BulkTrash trashes several documents, skipping any that fail.
	BulkTrash(ctx context.Context, ids []uuid.UUID, ownerID string) (*BulkResult, error)

	// Restore moves a trashed document back to its normal state.
	Restore(ctx context.Context, id uuid.UUID, ownerID string) error

	// Purge permanently deletes a document from any state: every version
	// blob, then the record. There is no recovery from a purge.
	Purge(ctx context.Context, id uuid.UUID, ownerID string) error

	// EmptyTrash purges all of the owner's trashed documents.
	EmptyTrash(ctx context.Context, ownerID string) (int, error)

	// PurgeExpired permanently deletes documents whose self-destruct time
	// has passed, regardless of trash state. It returns the purge count.
	PurgeExpired(ctx context.Context, now time.Time) (int, error)
}

type manager struct {
	docs   documents.System
	store  storage.System
	logger *slog.Logger
}

// NewManager creates a trash manager backed by the document repository and
// blob storage.
func NewManager(docs documents.System, store storage.System, logger *slog.Logger) Manager {
	return &manager{
		docs:   docs,
		store:  store,
		logger: logger.With("system", "trash"),
	}
}

func (m *manager) List(ctx context.Context, ownerID string, page pagination.PageRequest) (*pagination.PageResult[documents.Document], error) {
	return m.docs.List(ctx, ownerID, documents.FilterTrash, page)
}

func (m *manager) MoveToTrash(ctx context.Context, id uuid.UUID, ownerID string) error {
	doc, err := m.docs.FindOwned(ctx, id, ownerID)
	if err != nil {
		return err
	}
	if doc.IsTrashed {
		return nil
	}

	now := time.Now()
	if err := m.docs.SetTrashed(ctx, id, true, &now); err != nil {
		return err
	}

	m.logger.Info("document trashed", "document_id", id)
	return nil
}

func (m *manager) BulkTrash(ctx context.Context, ids []uuid.UUID, ownerID string) (*BulkResult, error) {
	result := &BulkResult{}

	for _, id := range ids {
		if err := m.MoveToTrash(ctx, id, ownerID); err != nil {
			m.logger.Warn("bulk trash skipped", "document_id", id, "error", err)
			result.Skipped = append(result.Skipped, id)
			continue
		}
		result.Trashed++
	}

	return result, nil
}

func (m *manager) Restore(ctx context.Context, id uuid.UUID, ownerID string) error {
	doc, err := m.docs.FindOwned(ctx, id, ownerID)
	if err != nil {
		return err
	}
	if !doc.IsTrashed {
		return ErrNotTrashed
	}

	if err := m.docs.SetTrashed(ctx, id, false, nil); err != nil {
		return err
	}

	m.logger.Info("document restored from trash", "document_id", id)
	return nil
}

func (m *manager) Purge(ctx context.Context, id uuid.UUID, ownerID string) error {
	doc, err := m.docs.FindOwned(ctx, id, ownerID)
	if err != nil {
		return err
	}

	return m.purge(ctx, doc)
}

func (m *manager) EmptyTrash(ctx context.Context, ownerID string) (int, error) {
	purged := 0

	// Page from the front; every purge shrinks the result set.
	for {
		page, err := m.docs.List(ctx, ownerID, documents.FilterTrash,
			pagination.PageRequest{Page: 1, PageSize: 100})
		if err != nil {
			return purged, err
		}
		if len(page.Data) == 0 {
			return purged, nil
		}

		for i := range page.Data {
			doc, err := m.docs.Find(ctx, page.Data[i].ID)
			if err != nil {
				return purged, err
			}
			if err := m.purge(ctx, doc); err != nil {
				return purged, err
			}
			purged++
		}
	}
}

func (m *manager) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	expired, err := m.docs.ListExpired(ctx, now)
	if err != nil {
		return 0, err
	}

	purged := 0
	for i := range expired {
		if err := m.purge(ctx, &expired[i]); err != nil {
			m.logger.Error("expired purge failed", "document_id", expired[i].ID, "error", err)
			continue
		}
		purged++
	}

	return purged, nil
}

// purge deletes every version blob before the record. A blob that is
// already gone does not block the purge.
func (m *manager) purge(ctx context.Context, doc *documents.Document) error {
	for i := range doc.Versions {
		key := doc.Versions[i].StorageKey
		if err := m.store.Delete(ctx, key); err != nil && err != storage.ErrNotFound {
			return err
		}
	}

	if err := m.docs.Delete(ctx, doc.ID); err != nil {
		return err
	}

	m.logger.Info("document purged", "document_id", doc.ID, "versions", len(doc.Versions))
	return nil
}
