// Package documentstest provides an in-memory documents.System for tests
// that exercise the managers layered above the repository.
package documentstest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/docvault/docvault/internal/documents"
	"github.com/docvault/docvault/internal/storage"
	"github.com/docvault/docvault/pkg/pagination"
	"github.com/google/uuid"
)

// Fake is an in-memory documents.System. Version numbering is serialized
// the same way the real repository serializes it.
type Fake struct {
	mu    sync.Mutex
	store storage.System
	docs  map[uuid.UUID]*documents.Document
}

// New creates an empty fake backed by the given blob store.
func New(store storage.System) *Fake {
	return &Fake{
		store: store,
		docs:  make(map[uuid.UUID]*documents.Document),
	}
}

// Seed inserts a document directly, bypassing blob storage.
func (f *Fake) Seed(doc documents.Document) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[doc.ID] = &doc
}

func (f *Fake) List(ctx context.Context, ownerID string, filter documents.ListFilter, page pagination.PageRequest) (*pagination.PageResult[documents.Document], error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var matched []documents.Document
	for _, doc := range f.docs {
		if doc.OwnerID != ownerID {
			continue
		}
		if !matchesFilter(doc, filter) {
			continue
		}
		matched = append(matched, *doc)
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].IsPinned != matched[j].IsPinned {
			return matched[i].IsPinned
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	result := pagination.NewPageResult(matched, len(matched), 1, len(matched)+1)
	return &result, nil
}

func matchesFilter(doc *documents.Document, filter documents.ListFilter) bool {
	switch filter {
	case documents.FilterTrash:
		return doc.IsTrashed
	case documents.FilterFavorites:
		return doc.IsFavorite && !doc.IsTrashed
	case documents.FilterPinned:
		return doc.IsPinned && !doc.IsTrashed
	case documents.FilterVault:
		return doc.IsVault && !doc.IsTrashed
	default:
		return !doc.IsTrashed
	}
}

func (f *Fake) Search(ctx context.Context, ownerID, search string, page pagination.PageRequest) (*pagination.PageResult[documents.Document], error) {
	return f.List(ctx, ownerID, documents.FilterDefault, page)
}

func (f *Fake) Find(ctx context.Context, id uuid.UUID) (*documents.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.find(id)
}

func (f *Fake) find(id uuid.UUID) (*documents.Document, error) {
	doc, ok := f.docs[id]
	if !ok {
		return nil, documents.ErrNotFound
	}
	copied := *doc
	copied.Versions = append([]documents.Version(nil), doc.Versions...)
	return &copied, nil
}

func (f *Fake) FindOwned(ctx context.Context, id uuid.UUID, ownerID string) (*documents.Document, error) {
	doc, err := f.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.OwnerID != ownerID {
		return nil, documents.ErrForbidden
	}
	return doc, nil
}

func (f *Fake) FindByShareToken(ctx context.Context, token string) (*documents.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for id, doc := range f.docs {
		if doc.ShareToken != nil && *doc.ShareToken == token {
			return f.find(id)
		}
	}
	return nil, documents.ErrNotFound
}

func (f *Fake) Create(ctx context.Context, cmd documents.CreateCommand) (*documents.Document, error) {
	id := uuid.New()
	key := documents.VersionStorageKey(id, uuid.New(), cmd.Filename)

	if err := f.store.Store(ctx, key, cmd.Data, cmd.MimeType); err != nil {
		return nil, err
	}

	now := time.Now()
	doc := &documents.Document{
		ID:          id,
		OwnerID:     cmd.OwnerID,
		Filename:    cmd.Filename,
		StorageKey:  key,
		SizeBytes:   cmd.SizeBytes,
		MimeType:    cmd.MimeType,
		TextContent: cmd.TextContent,
		ExpiresAt:   cmd.ExpiresAt,
		CreatedAt:   now,
		UpdatedAt:   now,
		Versions: []documents.Version{{
			ID:            uuid.New(),
			DocumentID:    id,
			VersionNumber: 1,
			StorageKey:    key,
			SizeBytes:     cmd.SizeBytes,
			MimeType:      cmd.MimeType,
			UploadedAt:    now,
		}},
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[id] = doc

	return f.find(id)
}

func (f *Fake) Rename(ctx context.Context, id uuid.UUID, ownerID, filename string) (*documents.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, ok := f.docs[id]
	if !ok {
		return nil, documents.ErrNotFound
	}
	if doc.OwnerID != ownerID {
		return nil, documents.ErrForbidden
	}

	doc.Filename = filename
	doc.UpdatedAt = time.Now()
	return f.find(id)
}

func (f *Fake) SetFlags(ctx context.Context, id uuid.UUID, ownerID string, cmd documents.FlagsCommand) (*documents.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, ok := f.docs[id]
	if !ok {
		return nil, documents.ErrNotFound
	}
	if doc.OwnerID != ownerID {
		return nil, documents.ErrForbidden
	}

	if cmd.IsFavorite != nil {
		doc.IsFavorite = *cmd.IsFavorite
	}
	if cmd.IsPinned != nil {
		doc.IsPinned = *cmd.IsPinned
	}
	if cmd.IsVault != nil {
		doc.IsVault = *cmd.IsVault
	}
	doc.UpdatedAt = time.Now()

	return f.find(id)
}

func (f *Fake) AppendVersion(ctx context.Context, id uuid.UUID, cmd documents.VersionCommand) (*documents.Version, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, ok := f.docs[id]
	if !ok {
		return nil, documents.ErrNotFound
	}

	next := 1
	for _, v := range doc.Versions {
		if v.VersionNumber >= next {
			next = v.VersionNumber + 1
		}
	}

	version := documents.Version{
		ID:                  uuid.New(),
		DocumentID:          id,
		VersionNumber:       next,
		StorageKey:          cmd.StorageKey,
		SizeBytes:           cmd.SizeBytes,
		MimeType:            cmd.MimeType,
		IsRestorePoint:      cmd.IsRestorePoint,
		RestoredFromVersion: cmd.RestoredFromVersion,
		UploadedAt:          time.Now(),
	}

	doc.Versions = append(doc.Versions, version)
	doc.StorageKey = cmd.StorageKey
	doc.SizeBytes = cmd.SizeBytes
	doc.MimeType = cmd.MimeType
	doc.UpdatedAt = version.UploadedAt

	return &version, nil
}

func (f *Fake) SetShare(ctx context.Context, id uuid.UUID, token *string, expiry *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, ok := f.docs[id]
	if !ok {
		return documents.ErrNotFound
	}

	doc.ShareToken = token
	doc.ShareExpiry = expiry
	doc.UpdatedAt = time.Now()
	return nil
}

func (f *Fake) SetTrashed(ctx context.Context, id uuid.UUID, trashed bool, at *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, ok := f.docs[id]
	if !ok {
		return documents.ErrNotFound
	}

	doc.IsTrashed = trashed
	doc.TrashedAt = at
	doc.UpdatedAt = time.Now()
	return nil
}

func (f *Fake) ListExpired(ctx context.Context, now time.Time) ([]documents.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var expired []documents.Document
	for id, doc := range f.docs {
		if doc.ExpiresAt != nil && doc.ExpiresAt.Before(now) {
			copied, _ := f.find(id)
			expired = append(expired, *copied)
		}
	}
	return expired, nil
}

func (f *Fake) Delete(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.docs[id]; !ok {
		return documents.ErrNotFound
	}
	delete(f.docs, id)
	return nil
}
