// Package storage provides the object store abstraction for document content.
// It defines a System interface for blob operations and includes filesystem
// and S3 implementations selected by configuration.
package storage

import "errors"

// Storage errors returned by System implementations.
var (
	// ErrNotFound indicates the requested key does not exist in storage.
	ErrNotFound = errors.New("storage: key not found")

	// ErrPermissionDenied indicates insufficient permissions to access the key.
	ErrPermissionDenied = errors.New("storage: permission denied")

	// ErrInvalidKey indicates the key is malformed or contains invalid characters.
	// This includes empty keys and path traversal attempts.
	ErrInvalidKey = errors.New("storage: invalid key")
)
