package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// Default expiry duration for presigned URLs
const DefaultPresignedURLExpiry = 15 * time.Minute

// ErrEmptyKey is returned when an operation is called without an object key.
var ErrEmptyKey = errors.New("storage: empty object key")

// FileStorage defines the interface for object storage operations.
type FileStorage interface {
	// PutObject uploads body under objectKey, replacing any existing object.
	PutObject(ctx context.Context, objectKey string, contentType string, body io.Reader, size int64) error

	// GeneratePresignedDownloadURL creates a temporary URL that allows GET requests
	// for downloading/viewing an object directly from the storage provider.
	GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error)

	// DeleteObject removes an object from the storage provider.
	DeleteObject(ctx context.Context, objectKey string) error
}
