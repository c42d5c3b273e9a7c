package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"art-market/internal/models"
	"art-market/internal/util"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Backend persists the whole artwork collection as one document.
// Save must replace the stored collection atomically.
type Backend interface {
	Load(ctx context.Context) ([]models.Artwork, error)
	Save(ctx context.Context, artworks []models.Artwork) error
}

// Transform edits a private copy of one record inside Mutate. Returning
// ErrUnchanged skips the write; any other error discards the copy.
type Transform func(art *models.Artwork) error

// ErrUnchanged tells Mutate the transform found nothing to do.
var ErrUnchanged = errors.New("ledger: record unchanged")

// Ledger is the authoritative artwork collection. Every operation loads
// the full collection from the backend under a single mutex, so the read
// and write halves of concurrent mutations never interleave.
type Ledger struct {
	mu      sync.Mutex
	backend Backend
	logger  *zap.Logger
}

// NewLedger creates a ledger over the given backend
func NewLedger(backend Backend) *Ledger {
	return &Ledger{
		backend: backend,
		logger:  util.Named("ledger"),
	}
}

// Insert adds a new record at the head of the collection
func (l *Ledger) Insert(ctx context.Context, art *models.Artwork) error {
	ctx, span := util.StartSpan(ctx, "Ledger.Insert")
	defer span.End()
	defer observe("insert", time.Now())

	l.mu.Lock()
	defer l.mu.Unlock()

	artworks, err := l.backend.Load(ctx)
	if err != nil {
		return err
	}

	if indexOf(artworks, art.ID) >= 0 {
		return fmt.Errorf("artwork %s: %w", art.ID, models.ErrDuplicateID)
	}

	next := make([]models.Artwork, 0, len(artworks)+1)
	next = append(next, *art.Clone())
	next = append(next, artworks...)

	return l.backend.Save(ctx, next)
}

// FindByID returns a copy of the record with the given id
func (l *Ledger) FindByID(ctx context.Context, id string) (*models.Artwork, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	artworks, err := l.backend.Load(ctx)
	if err != nil {
		return nil, err
	}

	i := indexOf(artworks, id)
	if i < 0 {
		return nil, fmt.Errorf("artwork %s: %w", id, models.ErrNotFound)
	}
	return artworks[i].Clone(), nil
}

// FindByPaymentID returns a copy of the record currently bound to
// paymentID. Bindings cleared on resale are not matched.
func (l *Ledger) FindByPaymentID(ctx context.Context, paymentID string) (*models.Artwork, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	artworks, err := l.backend.Load(ctx)
	if err != nil {
		return nil, err
	}

	for i := range artworks {
		if artworks[i].BoundTo(paymentID) {
			return artworks[i].Clone(), nil
		}
	}
	return nil, fmt.Errorf("payment %s: %w", paymentID, models.ErrNotFound)
}

// Mutate applies fn to a copy of the record and persists the whole
// collection with the result. The returned record is the stored state.
func (l *Ledger) Mutate(ctx context.Context, id string, fn Transform) (*models.Artwork, error) {
	ctx, span := util.StartSpan(ctx, "Ledger.Mutate", attribute.String("art.id", id))
	defer span.End()
	defer observe("mutate", time.Now())

	l.mu.Lock()
	defer l.mu.Unlock()

	artworks, err := l.backend.Load(ctx)
	if err != nil {
		util.RecordError(span, err)
		return nil, err
	}

	i := indexOf(artworks, id)
	if i < 0 {
		return nil, fmt.Errorf("artwork %s: %w", id, models.ErrNotFound)
	}

	next := artworks[i].Clone()
	if err := fn(next); err != nil {
		if errors.Is(err, ErrUnchanged) {
			return artworks[i].Clone(), nil
		}
		return nil, err
	}
	if next.ID != id {
		return nil, fmt.Errorf("transform changed artwork id %s to %s", id, next.ID)
	}

	artworks[i] = *next
	if err := l.backend.Save(ctx, artworks); err != nil {
		l.logger.Error("Failed to persist ledger", zap.String("art_id", id), zap.Error(err))
		return nil, err
	}

	return next.Clone(), nil
}

// List returns a snapshot of all records, most recently submitted first
func (l *Ledger) List(ctx context.Context) ([]models.Artwork, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	artworks, err := l.backend.Load(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]models.Artwork, len(artworks))
	for i := range artworks {
		out[i] = *artworks[i].Clone()
	}
	return out, nil
}

// Ping checks that the backend document can be loaded
func (l *Ledger) Ping(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, err := l.backend.Load(ctx)
	return err
}

func indexOf(artworks []models.Artwork, id string) int {
	for i := range artworks {
		if artworks[i].ID == id {
			return i
		}
	}
	return -1
}

func observe(op string, start time.Time) {
	util.LedgerMutationLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
