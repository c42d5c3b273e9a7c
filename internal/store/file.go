package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"art-market/internal/models"
)

// FileBackend stores the collection as one JSON array on disk. Saves go
// through a temp file and rename so readers never see a partial document.
type FileBackend struct {
	path string
}

// NewFileBackend creates the document with an empty collection if missing
func NewFileBackend(path string) (*FileBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, &models.StorageError{Op: "create ledger dir", Err: err}
	}

	b := &FileBackend{path: path}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := b.Save(context.Background(), []models.Artwork{}); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, &models.StorageError{Op: "stat ledger", Err: err}
	}

	return b, nil
}

// Load reads and decodes the whole document
func (b *FileBackend) Load(ctx context.Context) ([]models.Artwork, error) {
	raw, err := os.ReadFile(b.path)
	if errors.Is(err, os.ErrNotExist) {
		return []models.Artwork{}, nil
	}
	if err != nil {
		return nil, &models.StorageError{Op: "read ledger", Err: err}
	}

	var artworks []models.Artwork
	if err := json.Unmarshal(raw, &artworks); err != nil {
		return nil, &models.StorageError{Op: "decode ledger", Err: err}
	}
	return artworks, nil
}

// Save overwrites the whole document
func (b *FileBackend) Save(ctx context.Context, artworks []models.Artwork) error {
	if artworks == nil {
		artworks = []models.Artwork{}
	}

	raw, err := json.MarshalIndent(artworks, "", "  ")
	if err != nil {
		return &models.StorageError{Op: "encode ledger", Err: err}
	}

	tmp, err := os.CreateTemp(filepath.Dir(b.path), filepath.Base(b.path)+".*.tmp")
	if err != nil {
		return &models.StorageError{Op: "create temp ledger", Err: err}
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return &models.StorageError{Op: "write ledger", Err: err}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return &models.StorageError{Op: "sync ledger", Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &models.StorageError{Op: "close ledger", Err: err}
	}

	if err := os.Rename(tmpName, b.path); err != nil {
		return &models.StorageError{Op: "replace ledger", Err: fmt.Errorf("rename %s: %w", tmpName, err)}
	}
	return nil
}
