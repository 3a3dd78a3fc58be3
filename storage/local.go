package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Local is a Blob backed by a directory on the local filesystem.
// Writes go through a temp file and a rename, so a blob either exists
// completely under its key or not at all.
type Local struct {
	root string
}

// NewLocal creates a filesystem-backed blob store rooted at root,
// creating the directory if needed.
func NewLocal(root string) (*Local, error) {
	root = filepath.Clean(root)
	if root == "" || root == "." {
		return nil, fmt.Errorf("%w: storage root is required", ErrInvalidKey)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &Local{root: root}, nil
}

// Put stores the reader's content under key, creating parent
// directories as needed. The blob only becomes visible once fully
// written.
func (l *Local) Put(ctx context.Context, key string, r io.Reader) (int64, error) {
	full, err := l.resolve(key)
	if err != nil {
		return 0, err
	}

	dir := filepath.Dir(full)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("failed to create blob directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".put-*")
	if err != nil {
		return 0, fmt.Errorf("failed to create temp blob: %w", err)
	}

	n, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return 0, fmt.Errorf("failed to write blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return 0, fmt.Errorf("failed to flush blob: %w", err)
	}

	if err := os.Rename(tmp.Name(), full); err != nil {
		os.Remove(tmp.Name())
		return 0, fmt.Errorf("failed to publish blob: %w", err)
	}
	return n, nil
}

// Get opens the blob stored under key.
func (l *Local) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	full, err := l.resolve(key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(full)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrBlobNotFound
		}
		return nil, fmt.Errorf("failed to open blob: %w", err)
	}
	return f, nil
}

// Delete removes the blob stored under key.
func (l *Local) Delete(ctx context.Context, key string) error {
	full, err := l.resolve(key)
	if err != nil {
		return err
	}

	if err := os.Remove(full); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrBlobNotFound
		}
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	return nil
}

// Exists reports whether a blob is stored under key.
func (l *Local) Exists(ctx context.Context, key string) (bool, error) {
	full, err := l.resolve(key)
	if err != nil {
		return false, err
	}

	if _, err := os.Stat(full); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat blob: %w", err)
	}
	return true, nil
}

// URL returns the absolute filesystem path of the blob.
func (l *Local) URL(ctx context.Context, key string) (string, error) {
	full, err := l.resolve(key)
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(full); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrBlobNotFound
		}
		return "", fmt.Errorf("failed to stat blob: %w", err)
	}

	abs, err := filepath.Abs(full)
	if err != nil {
		return "", fmt.Errorf("failed to resolve blob path: %w", err)
	}
	return abs, nil
}

// resolve maps a key to a path under the root. The rename-based Put
// relies on this rejecting anything outside the root, so the Rel check
// stays even though cleanKey already refuses traversal.
func (l *Local) resolve(key string) (string, error) {
	k, err := cleanKey(key)
	if err != nil {
		return "", err
	}

	full := filepath.Join(l.root, filepath.FromSlash(k))
	rel, err := filepath.Rel(l.root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q escapes the storage root", ErrInvalidKey, key)
	}
	return full, nil
}
