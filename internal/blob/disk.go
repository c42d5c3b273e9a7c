package blob

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"art-market/internal/models"
)

// DiskStore keeps blobs as files in a single directory
type DiskStore struct {
	dir string
}

// NewDiskStore creates the directory if needed
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &models.StorageError{Op: "create blob dir", Err: err}
	}
	return &DiskStore{dir: dir}, nil
}

// Put writes data under name and returns name as the reference
func (d *DiskStore) Put(ctx context.Context, name, contentType string, data []byte) (string, error) {
	if !validName(name) {
		return "", &models.StorageError{Op: "write blob", Err: fmt.Errorf("invalid blob name %q", name)}
	}
	if err := os.WriteFile(filepath.Join(d.dir, name), data, 0o644); err != nil {
		return "", &models.StorageError{Op: "write blob", Err: err}
	}
	return name, nil
}

// Get reads the blob behind ref
func (d *DiskStore) Get(ctx context.Context, ref string) ([]byte, error) {
	if !validName(ref) {
		return nil, fmt.Errorf("blob %q: %w", ref, models.ErrNotFound)
	}
	data, err := os.ReadFile(filepath.Join(d.dir, ref))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("blob %s: %w", ref, models.ErrNotFound)
	}
	if err != nil {
		return nil, &models.StorageError{Op: "read blob", Err: err}
	}
	return data, nil
}

// Delete removes the file behind ref
func (d *DiskStore) Delete(ctx context.Context, ref string) error {
	if !validName(ref) {
		return nil
	}
	err := os.Remove(filepath.Join(d.dir, ref))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return &models.StorageError{Op: "delete blob", Err: err}
	}
	return nil
}
