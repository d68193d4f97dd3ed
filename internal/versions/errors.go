package versions

import "errors"

var (
	// ErrVersionNotFound indicates the requested version number does not
	// exist in the document's history.
	ErrVersionNotFound = errors.New("version not found")

	// ErrCurrentVersion indicates a restore targeted the version that is
	// already current.
	ErrCurrentVersion = errors.New("version is already current")
)
