// Package storage keeps the binary evidence attached to test executions:
// screenshots, recordings, log dumps and documents. The attachment rows in
// the database carry metadata only; the bytes live behind the Blob
// interface, addressed by key. Local filesystem and AWS S3 backends are
// provided.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
)

var (
	// ErrBlobNotFound is returned when no blob exists under the given key.
	ErrBlobNotFound = errors.New("blob not found")

	// ErrInvalidKey is returned when a key is empty, absolute, or would
	// escape the storage root.
	ErrInvalidKey = errors.New("invalid storage key")
)

// Blob stores and retrieves binary evidence by key. Keys are slash
// separated relative paths; both backends reject keys that resolve
// outside the storage root.
type Blob interface {
	// Put stores the reader's content under key and reports the number
	// of bytes written.
	Put(ctx context.Context, key string, r io.Reader) (int64, error)

	// Get opens the blob stored under key. The caller closes the reader.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the blob stored under key.
	Delete(ctx context.Context, key string) error

	// Exists reports whether a blob is stored under key.
	Exists(ctx context.Context, key string) (bool, error)

	// URL returns a location the blob can be fetched from: a presigned
	// URL for S3, an absolute file path for local storage.
	URL(ctx context.Context, key string) (string, error)
}

// Supported storage backends.
const (
	BackendLocal = "local"
	BackendS3    = "s3"
)

// Config selects and parameterises a storage backend.
type Config struct {
	// Backend is BackendLocal or BackendS3.
	Backend string

	// LocalDir is the root directory for the local backend.
	LocalDir string

	// S3Bucket and S3Region locate the bucket for the s3 backend.
	S3Bucket string
	S3Region string

	// PresignExpiry bounds the lifetime of presigned S3 URLs.
	// Zero means the default of 15 minutes.
	PresignExpiry time.Duration
}

// New builds the Blob implementation cfg selects.
func New(ctx context.Context, cfg Config) (Blob, error) {
	switch strings.ToLower(cfg.Backend) {
	case BackendLocal:
		return NewLocal(cfg.LocalDir)
	case BackendS3:
		return NewS3(ctx, cfg.S3Bucket, cfg.S3Region, cfg.PresignExpiry)
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Backend)
	}
}

// cleanKey normalises a key to slash form and rejects anything that
// could climb out of the storage root. Backslashes are treated as
// separators so Windows style traversal is caught too.
func cleanKey(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("%w: empty key", ErrInvalidKey)
	}
	k := path.Clean(strings.ReplaceAll(key, `\`, "/"))
	if k == "." || k == ".." || strings.HasPrefix(k, "/") || strings.HasPrefix(k, "../") {
		return "", fmt.Errorf("%w: %q escapes the storage root", ErrInvalidKey, key)
	}
	return k, nil
}
