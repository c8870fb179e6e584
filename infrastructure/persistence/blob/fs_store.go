// Package blob implements the BlobStore port on the local filesystem. Keys
// are service-generated opaque identifiers; the store still refuses anything
// that looks like a path, so a bad key can never escape the root directory.
package blob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	pkgerrors "filegraph/pkg/errors"

	"go.uber.org/zap"
)

// FileStore persists blobs as flat files under a root directory.
type FileStore struct {
	root   string
	logger *zap.Logger
}

// NewFileStore creates the store and its root directory.
func NewFileStore(root string, logger *zap.Logger) (*FileStore, error) {
	if root == "" {
		return nil, pkgerrors.NewValidationError("blob store root directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, pkgerrors.NewInternalError("failed to create blob store directory").WithCause(err)
	}
	logger.Info("Blob store ready", zap.String("root", root))
	return &FileStore{root: root, logger: logger}, nil
}

// Put writes the blob, replacing any previous content under the key.
func (s *FileStore) Put(ctx context.Context, key string, data []byte) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return pkgerrors.NewUnavailableError("blob store", err)
	}

	// Write-then-rename keeps readers from observing a partial blob.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return pkgerrors.NewInternalError("failed to write blob").WithCause(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return pkgerrors.NewInternalError("failed to finalize blob").WithCause(err)
	}
	return nil
}

// Get reads the blob bytes for a key.
func (s *FileStore) Get(ctx context.Context, key string) ([]byte, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, pkgerrors.NewUnavailableError("blob store", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, pkgerrors.NewNotFoundError(fmt.Sprintf("blob '%s'", key))
		}
		return nil, pkgerrors.NewInternalError("failed to read blob").WithCause(err)
	}
	return data, nil
}

// Delete removes the blob for a key.
func (s *FileStore) Delete(ctx context.Context, key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return pkgerrors.NewUnavailableError("blob store", err)
	}

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return pkgerrors.NewNotFoundError(fmt.Sprintf("blob '%s'", key))
		}
		return pkgerrors.NewInternalError("failed to delete blob").WithCause(err)
	}
	return nil
}

// Exists reports whether a blob is present for the key.
func (s *FileStore) Exists(ctx context.Context, key string) (bool, error) {
	path, err := s.path(key)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, pkgerrors.NewInternalError("failed to stat blob").WithCause(err)
}

// path resolves a key to a file path, rejecting anything path-shaped.
func (s *FileStore) path(key string) (string, error) {
	if key == "" {
		return "", pkgerrors.NewValidationError("blob key cannot be empty")
	}
	if strings.ContainsAny(key, "/\\") || strings.ContainsRune(key, 0) ||
		key != filepath.Base(key) || strings.HasPrefix(key, ".") {
		return "", pkgerrors.NewValidationError("blob key contains invalid path components")
	}
	return filepath.Join(s.root, key), nil
}
