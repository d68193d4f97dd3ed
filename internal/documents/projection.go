package documents

import "github.com/docvault/docvault/pkg/query"

var projection = query.NewProjectionMap("public", "documents", "d").
	Project("id", "Id").
	Project("owner_id", "OwnerId").
	Project("filename", "Filename").
	Project("storage_key", "StorageKey").
	Project("size_bytes", "SizeBytes").
	Project("mime_type", "MimeType").
	Project("text_content", "TextContent").
	Project("is_favorite", "IsFavorite").
	Project("is_pinned", "IsPinned").
	Project("is_vault", "IsVault").
	Project("is_trashed", "IsTrashed").
	Project("trashed_at", "TrashedAt").
	Project("expires_at", "ExpiresAt").
	Project("share_token", "ShareToken").
	Project("share_expiry", "ShareExpiry").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

// Pinned documents surface first; recency breaks ties.
var defaultSort = []query.SortField{
	{Field: "IsPinned", Descending: true},
	{Field: "CreatedAt", Descending: true},
}

var versionProjection = query.NewProjectionMap("public", "document_versions", "v").
	Project("id", "Id").
	Project("document_id", "DocumentId").
	Project("version_number", "VersionNumber").
	Project("storage_key", "StorageKey").
	Project("size_bytes", "SizeBytes").
	Project("mime_type", "MimeType").
	Project("is_restore_point", "IsRestorePoint").
	Project("restored_from_version", "RestoredFromVersion").
	Project("uploaded_at", "UploadedAt")
