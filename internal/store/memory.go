package store

import (
	"context"
	"sync"

	"art-market/internal/models"
)

// MemoryBackend keeps the collection in process memory
type MemoryBackend struct {
	mu       sync.Mutex
	artworks []models.Artwork
	saves    int
}

// NewMemoryBackend creates an empty in-memory backend
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

// Load returns a deep copy of the stored collection
func (m *MemoryBackend) Load(ctx context.Context) ([]models.Artwork, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneAll(m.artworks), nil
}

// Save replaces the stored collection with a deep copy
func (m *MemoryBackend) Save(ctx context.Context, artworks []models.Artwork) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.artworks = cloneAll(artworks)
	m.saves++
	return nil
}

// Saves returns how many times the collection was written
func (m *MemoryBackend) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func cloneAll(artworks []models.Artwork) []models.Artwork {
	out := make([]models.Artwork, len(artworks))
	for i := range artworks {
		out[i] = *artworks[i].Clone()
	}
	return out
}
