package documents

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/docvault/docvault/internal/storage"
	"github.com/docvault/docvault/pkg/pagination"
	"github.com/docvault/docvault/pkg/query"
	"github.com/docvault/docvault/pkg/repository"
	"github.com/google/uuid"
)

type repo struct {
	db         *sql.DB
	storage    storage.System
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a document repository with database and blob storage integration.
func New(db *sql.DB, storage storage.System, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		storage:    storage,
		logger:     logger.With("system", "documents"),
		pagination: pagination,
	}
}

const documentColumns = `id, owner_id, filename, storage_key, size_bytes, mime_type, text_content,
		is_favorite, is_pinned, is_vault, is_trashed, trashed_at, expires_at,
		share_token, share_expiry, created_at, updated_at`

const versionColumns = `id, document_id, version_number, storage_key, size_bytes, mime_type,
		is_restore_point, restored_from_version, uploaded_at`

func (r *repo) List(ctx context.Context, ownerID string, filter ListFilter, page pagination.PageRequest) (*pagination.PageResult[Document], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort...).
		WhereEquals("OwnerId", ownerID).
		WhereSearch(page.Search, "Filename")

	filter.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	docs, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanDocument)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}

	result := pagination.NewPageResult(docs, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Search(ctx context.Context, ownerID, search string, page pagination.PageRequest) (*pagination.PageResult[Document], error) {
	page.Normalize(r.pagination)

	docs, total, err := r.searchFullText(ctx, ownerID, search, page)
	if err != nil {
		r.logger.Warn("full-text search failed, falling back to filename match", "error", err)
		return r.searchFilename(ctx, ownerID, search, page)
	}

	result := pagination.NewPageResult(docs, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) searchFullText(ctx context.Context, ownerID, search string, page pagination.PageRequest) ([]Document, int, error) {
	doc := `to_tsvector('simple', d.filename || ' ' || COALESCE(d.text_content, ''))`
	match := doc + ` @@ plainto_tsquery('simple', $2)`

	countSQL := fmt.Sprintf(
		`SELECT COUNT(*) FROM %s WHERE d.owner_id = $1 AND d.is_trashed = FALSE AND %s`,
		projection.Table(), match,
	)

	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, ownerID, search).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count search results: %w", err)
	}

	pageSQL := fmt.Sprintf(
		`SELECT %s FROM %s
		WHERE d.owner_id = $1 AND d.is_trashed = FALSE AND %s
		ORDER BY ts_rank(%s, plainto_tsquery('simple', $2)) DESC, d.created_at DESC
		LIMIT %d OFFSET %d`,
		projection.Columns(), projection.Table(), match, doc, page.PageSize, page.Offset(),
	)

	docs, err := repository.QueryMany(ctx, r.db, pageSQL, []any{ownerID, search}, scanDocument)
	if err != nil {
		return nil, 0, fmt.Errorf("query search results: %w", err)
	}

	return docs, total, nil
}

func (r *repo) searchFilename(ctx context.Context, ownerID, search string, page pagination.PageRequest) (*pagination.PageResult[Document], error) {
	qb := query.
		NewBuilder(projection, query.SortField{Field: "CreatedAt", Descending: true}).
		WhereEquals("OwnerId", ownerID).
		WhereEquals("IsTrashed", false).
		WhereContains("Filename", &search)

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	docs, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanDocument)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}

	result := pagination.NewPageResult(docs, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Document, error) {
	q, args := query.
		NewBuilder(projection).
		BuildSingle("Id", id)

	doc, err := repository.QueryOne(ctx, r.db, q, args, scanDocument)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	if err := r.loadVersions(ctx, &doc); err != nil {
		return nil, err
	}

	return &doc, nil
}

func (r *repo) FindOwned(ctx context.Context, id uuid.UUID, ownerID string) (*Document, error) {
	doc, err := r.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.OwnerID != ownerID {
		return nil, ErrForbidden
	}
	return doc, nil
}

func (r *repo) FindByShareToken(ctx context.Context, token string) (*Document, error) {
	q, args := query.
		NewBuilder(projection).
		BuildSingle("ShareToken", token)

	doc, err := repository.QueryOne(ctx, r.db, q, args, scanDocument)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	if err := r.loadVersions(ctx, &doc); err != nil {
		return nil, err
	}

	return &doc, nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Document, error) {
	id := uuid.New()
	storageKey := VersionStorageKey(id, uuid.New(), cmd.Filename)

	if err := r.storage.Store(ctx, storageKey, cmd.Data, cmd.MimeType); err != nil {
		return nil, fmt.Errorf("store file: %w", err)
	}

	doc, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Document, error) {
		insertDoc := fmt.Sprintf(`INSERT INTO documents(id, owner_id, filename, storage_key, size_bytes, mime_type, text_content, expires_at)
			VALUES($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING %s`, documentColumns)

		doc, err := repository.QueryOne(ctx, tx, insertDoc, []any{
			id, cmd.OwnerID, cmd.Filename, storageKey, cmd.SizeBytes, cmd.MimeType, cmd.TextContent, cmd.ExpiresAt,
		}, scanDocument)
		if err != nil {
			return doc, err
		}

		insertVersion := fmt.Sprintf(`INSERT INTO document_versions(id, document_id, version_number, storage_key, size_bytes, mime_type)
			VALUES($1, $2, 1, $3, $4, $5)
			RETURNING %s`, versionColumns)

		version, err := repository.QueryOne(ctx, tx, insertVersion, []any{
			uuid.New(), id, storageKey, cmd.SizeBytes, cmd.MimeType,
		}, scanVersion)
		if err != nil {
			return doc, err
		}

		doc.Versions = []Version{version}
		return doc, nil
	})

	if err != nil {
		if delErr := r.storage.Delete(ctx, storageKey); delErr != nil {
			r.logger.Error("cleanup failed after db error", "storage_key", storageKey, "error", delErr)
		}
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("document created", "id", doc.ID, "owner", doc.OwnerID, "storage_key", storageKey)
	return &doc, nil
}

func (r *repo) Rename(ctx context.Context, id uuid.UUID, ownerID, filename string) (*Document, error) {
	q := fmt.Sprintf(`UPDATE documents SET filename = $1, updated_at = NOW()
		WHERE id = $2 AND owner_id = $3
		RETURNING %s`, documentColumns)

	doc, err := r.updateOwned(ctx, id, ownerID, q, []any{filename, id, ownerID})
	if err != nil {
		return nil, err
	}

	r.logger.Info("document renamed", "id", doc.ID, "filename", doc.Filename)
	return doc, nil
}

func (r *repo) SetFlags(ctx context.Context, id uuid.UUID, ownerID string, cmd FlagsCommand) (*Document, error) {
	q := fmt.Sprintf(`UPDATE documents SET
			is_favorite = COALESCE($1, is_favorite),
			is_pinned = COALESCE($2, is_pinned),
			is_vault = COALESCE($3, is_vault),
			updated_at = NOW()
		WHERE id = $4 AND owner_id = $5
		RETURNING %s`, documentColumns)

	doc, err := r.updateOwned(ctx, id, ownerID, q, []any{cmd.IsFavorite, cmd.IsPinned, cmd.IsVault, id, ownerID})
	if err != nil {
		return nil, err
	}

	r.logger.Info("document flags updated", "id", doc.ID,
		"favorite", doc.IsFavorite, "pinned", doc.IsPinned, "vault", doc.IsVault)
	return doc, nil
}

// updateOwned runs an owner-scoped UPDATE ... RETURNING and distinguishes
// a missing document from an ownership mismatch.
func (r *repo) updateOwned(ctx context.Context, id uuid.UUID, ownerID string, q string, args []any) (*Document, error) {
	doc, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Document, error) {
		return repository.QueryOne(ctx, tx, q, args, scanDocument)
	})

	if err != nil {
		mapped := repository.MapError(err, ErrNotFound, ErrDuplicate)
		if mapped == ErrNotFound {
			if _, findErr := r.Find(ctx, id); findErr == nil {
				return nil, ErrForbidden
			}
		}
		return nil, mapped
	}

	return &doc, nil
}

func (r *repo) AppendVersion(ctx context.Context, id uuid.UUID, cmd VersionCommand) (*Version, error) {
	version, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Version, error) {
		var zero Version

		// Row lock serializes concurrent appends for the same document;
		// the unique (document_id, version_number) constraint backstops it.
		var exists uuid.UUID
		if err := tx.QueryRowContext(ctx,
			`SELECT id FROM documents WHERE id = $1 FOR UPDATE`, id,
		).Scan(&exists); err != nil {
			return zero, err
		}

		insert := fmt.Sprintf(`INSERT INTO document_versions(id, document_id, version_number, storage_key, size_bytes, mime_type, is_restore_point, restored_from_version)
			SELECT $1, $2, COALESCE(MAX(version_number), 0) + 1, $3, $4, $5, $6, $7
			FROM document_versions WHERE document_id = $2
			RETURNING %s`, versionColumns)

		version, err := repository.QueryOne(ctx, tx, insert, []any{
			uuid.New(), id, cmd.StorageKey, cmd.SizeBytes, cmd.MimeType, cmd.IsRestorePoint, cmd.RestoredFromVersion,
		}, scanVersion)
		if err != nil {
			return zero, err
		}

		update := `UPDATE documents SET storage_key = $1, size_bytes = $2, mime_type = $3, updated_at = NOW()
			WHERE id = $4`
		if err := repository.ExecExpectOne(ctx, tx, update, cmd.StorageKey, cmd.SizeBytes, cmd.MimeType, id); err != nil {
			return zero, err
		}

		return version, nil
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("version appended", "document_id", id,
		"version", version.VersionNumber, "restore_point", version.IsRestorePoint)
	return &version, nil
}

func (r *repo) SetShare(ctx context.Context, id uuid.UUID, token *string, expiry *time.Time) error {
	q := `UPDATE documents SET share_token = $1, share_expiry = $2, updated_at = NOW() WHERE id = $3`

	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		return struct{}{}, repository.ExecExpectOne(ctx, tx, q, token, expiry, id)
	})
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	return nil
}

func (r *repo) SetTrashed(ctx context.Context, id uuid.UUID, trashed bool, at *time.Time) error {
	q := `UPDATE documents SET is_trashed = $1, trashed_at = $2, updated_at = NOW() WHERE id = $3`

	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		return struct{}{}, repository.ExecExpectOne(ctx, tx, q, trashed, at, id)
	})
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	return nil
}

func (r *repo) ListExpired(ctx context.Context, now time.Time) ([]Document, error) {
	q := fmt.Sprintf(`SELECT %s FROM %s WHERE d.expires_at IS NOT NULL AND d.expires_at < $1`,
		projection.Columns(), projection.Table())

	docs, err := repository.QueryMany(ctx, r.db, q, []any{now}, scanDocument)
	if err != nil {
		return nil, fmt.Errorf("query expired documents: %w", err)
	}

	for i := range docs {
		if err := r.loadVersions(ctx, &docs[i]); err != nil {
			return nil, err
		}
	}

	return docs, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	// document_versions rows go with the document via ON DELETE CASCADE.
	q := `DELETE FROM documents WHERE id = $1`

	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		return struct{}{}, repository.ExecExpectOne(ctx, tx, q, id)
	})
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("document deleted", "id", id)
	return nil
}

func (r *repo) loadVersions(ctx context.Context, doc *Document) error {
	q := fmt.Sprintf(`SELECT %s FROM %s WHERE v.document_id = $1 ORDER BY v.version_number ASC`,
		versionProjection.Columns(), versionProjection.Table())

	versions, err := repository.QueryMany(ctx, r.db, q, []any{doc.ID}, scanVersion)
	if err != nil {
		return fmt.Errorf("query versions: %w", err)
	}

	doc.Versions = versions
	return nil
}

// VersionStorageKey places a version's blob under the document's prefix,
// keyed by a fresh blob id. Version numbers are assigned by the database
// after the blob is written, so the key cannot depend on them: two appends
// racing on the same document must never resolve to the same key.
func VersionStorageKey(id, blobID uuid.UUID, filename string) string {
	return fmt.Sprintf("documents/%s/%s/%s", id.String(), blobID.String(), sanitizeFilename(filename))
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	replacer := strings.NewReplacer(
		" ", "_",
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
	)
	return replacer.Replace(name)
}
