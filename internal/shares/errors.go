package shares

import "errors"

var (
	// ErrNotShared indicates the document has no share token.
	ErrNotShared = errors.New("document is not shared")

	// ErrExpired indicates the share link's expiry has passed.
	ErrExpired = errors.New("share link expired")

	// ErrTrashed indicates the shared document has been moved to trash.
	ErrTrashed = errors.New("document is no longer available")

	// ErrTTLTooLong indicates the requested lifetime exceeds the
	// configured maximum.
	ErrTTLTooLong = errors.New("requested lifetime exceeds maximum")
)
