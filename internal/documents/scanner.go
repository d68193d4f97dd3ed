package documents

import "github.com/docvault/docvault/pkg/repository"

func scanDocument(s repository.Scanner) (Document, error) {
	var d Document
	err := s.Scan(
		&d.ID,
		&d.OwnerID,
		&d.Filename,
		&d.StorageKey,
		&d.SizeBytes,
		&d.MimeType,
		&d.TextContent,
		&d.IsFavorite,
		&d.IsPinned,
		&d.IsVault,
		&d.IsTrashed,
		&d.TrashedAt,
		&d.ExpiresAt,
		&d.ShareToken,
		&d.ShareExpiry,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	return d, err
}

func scanVersion(s repository.Scanner) (Version, error) {
	var v Version
	err := s.Scan(
		&v.ID,
		&v.DocumentID,
		&v.VersionNumber,
		&v.StorageKey,
		&v.SizeBytes,
		&v.MimeType,
		&v.IsRestorePoint,
		&v.RestoredFromVersion,
		&v.UploadedAt,
	)
	return v, err
}
