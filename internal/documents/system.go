package documents

import (
	"context"
	"time"

	"github.com/docvault/docvault/pkg/pagination"
	"github.com/google/uuid"
)

// System defines the document repository operations. It is the single write
// path for document state; the version, share, and trash managers enforce
// their invariants through it.
type System interface {
	// List returns one owner's documents for a listing view,
	// pinned-first then newest-first.
	List(ctx context.Context, ownerID string, filter ListFilter, page pagination.PageRequest) (*pagination.PageResult[Document], error)

	// Search returns an owner's non-trashed documents matching the query,
	// ordered by relevance then recency. When full-text search fails it
	// falls back to a case-insensitive substring match on filename.
	Search(ctx context.Context, ownerID, search string, page pagination.PageRequest) (*pagination.PageResult[Document], error)

	// Find returns a document with its full version history.
	Find(ctx context.Context, id uuid.UUID) (*Document, error)

	// FindOwned behaves like Find but fails with ErrForbidden when the
	// document is not owned by the requester.
	FindOwned(ctx context.Context, id uuid.UUID, ownerID string) (*Document, error)

	// FindByShareToken returns the document carrying the given share token.
	// Expiry is not checked here; that is the share manager's concern.
	FindByShareToken(ctx context.Context, token string) (*Document, error)

	// Create stores the uploaded content and inserts the document record
	// together with its initial version entry.
	Create(ctx context.Context, cmd CreateCommand) (*Document, error)

	// Rename updates the display filename.
	Rename(ctx context.Context, id uuid.UUID, ownerID, filename string) (*Document, error)

	// SetFlags updates the organizational flags named in the command.
	SetFlags(ctx context.Context, id uuid.UUID, ownerID string, cmd FlagsCommand) (*Document, error)

	// AppendVersion atomically assigns the next version number, inserts the
	// version entry, and updates the document's current content pointer.
	AppendVersion(ctx context.Context, id uuid.UUID, cmd VersionCommand) (*Version, error)

	// SetShare sets or clears the share token and expiry pair.
	SetShare(ctx context.Context, id uuid.UUID, token *string, expiry *time.Time) error

	// SetTrashed moves the document in or out of the trash.
	SetTrashed(ctx context.Context, id uuid.UUID, trashed bool, at *time.Time) error

	// ListExpired returns documents whose self-destruct time has passed.
	ListExpired(ctx context.Context, now time.Time) ([]Document, error)

	// Delete removes the document record and its version entries.
	// Blob cleanup belongs to the caller, which knows every version key.
	Delete(ctx context.Context, id uuid.UUID) error
}
