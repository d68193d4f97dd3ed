// Package documents provides the canonical document records: metadata,
// immutable version history, organizational flags, and share fields. It
// integrates with blob storage for content persistence.
package documents

import (
	"time"

	"github.com/google/uuid"
)

// Document represents one stored document and its version history.
// The current content fields (StorageKey, SizeBytes, MimeType) always
// correspond to the most recently appended version.
type Document struct {
	ID          uuid.UUID  `json:"id"`
	OwnerID     string     `json:"owner_id"`
	Filename    string     `json:"filename"`
	StorageKey  string     `json:"storage_key"`
	SizeBytes   int64      `json:"size_bytes"`
	MimeType    string     `json:"mime_type"`
	TextContent *string    `json:"text_content,omitempty"`
	IsFavorite  bool       `json:"is_favorite"`
	IsPinned    bool       `json:"is_pinned"`
	IsVault     bool       `json:"is_vault"`
	IsTrashed   bool       `json:"is_trashed"`
	TrashedAt   *time.Time `json:"trashed_at,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	ShareToken  *string    `json:"share_token,omitempty"`
	ShareExpiry *time.Time `json:"share_expiry,omitempty"`
	Versions    []Version  `json:"versions,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// HasActiveShare reports whether a share token is present. Expiry is not
// consulted here; it is checked lazily at access time.
func (d *Document) HasActiveShare() bool {
	return d.ShareToken != nil
}

// CurrentVersion returns the highest-numbered version, or nil when the
// version history has not been loaded.
func (d *Document) CurrentVersion() *Version {
	if len(d.Versions) == 0 {
		return nil
	}
	return &d.Versions[len(d.Versions)-1]
}

// Version is one immutable historical snapshot of a document's content.
// Versions are only ever appended; numbers are strictly increasing and
// unique within a document.
type Version struct {
	ID                  uuid.UUID `json:"id"`
	DocumentID          uuid.UUID `json:"document_id"`
	VersionNumber       int       `json:"version_number"`
	StorageKey          string    `json:"storage_key"`
	SizeBytes           int64     `json:"size_bytes"`
	MimeType            string    `json:"mime_type"`
	IsRestorePoint      bool      `json:"is_restore_point"`
	RestoredFromVersion *int      `json:"restored_from_version,omitempty"`
	UploadedAt          time.Time `json:"uploaded_at"`
}

// CreateCommand contains the data required to create a new document.
// Data holds the raw file bytes; they become version 1.
type CreateCommand struct {
	OwnerID     string
	Filename    string
	MimeType    string
	SizeBytes   int64
	TextContent *string
	ExpiresAt   *time.Time
	Data        []byte
}

// FlagsCommand toggles organizational flags. Nil fields are left unchanged.
type FlagsCommand struct {
	IsFavorite *bool `json:"is_favorite,omitempty"`
	IsPinned   *bool `json:"is_pinned,omitempty"`
	IsVault    *bool `json:"is_vault,omitempty"`
}

// VersionCommand contains the data required to append a version entry.
// The version number is assigned by the repository, never by the caller.
type VersionCommand struct {
	StorageKey          string
	SizeBytes           int64
	MimeType            string
	IsRestorePoint      bool
	RestoredFromVersion *int
}
