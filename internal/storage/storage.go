package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/docvault/docvault/internal/config"
)

// System defines the object store operations interface.
// Implementations handle the underlying storage mechanism (filesystem, S3)
// while providing a consistent API for storing and retrieving binary data.
type System interface {
	// Store saves data at the specified key with the given content type.
	// If the key already exists its contents are overwritten.
	// Returns ErrInvalidKey if the key is empty or contains path traversal.
	Store(ctx context.Context, key string, data []byte, contentType string) error

	// Retrieve returns the data stored at the specified key.
	// Returns ErrNotFound if the key does not exist.
	Retrieve(ctx context.Context, key string) ([]byte, error)

	// Delete deletes the data at the specified key.
	// Returns nil if the key does not exist (idempotent).
	Delete(ctx context.Context, key string) error

	// Exists checks whether a key exists and is accessible.
	Exists(ctx context.Context, key string) (bool, error)

	// PublicURL returns a URL through which the blob can be fetched without
	// credentials. For S3 this is a presigned GET; validity is bounded by
	// the configured presign TTL.
	PublicURL(ctx context.Context, key string) (string, error)
}

// New creates the object store selected by the storage configuration.
func New(ctx context.Context, cfg *config.StorageConfig, logger *slog.Logger) (System, error) {
	switch cfg.Driver {
	case config.StorageDriverFilesystem:
		return newFilesystem(cfg, logger)
	case config.StorageDriverS3:
		return newS3(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unknown storage driver: %s", cfg.Driver)
	}
}
