package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"art-market/internal/blob"
	"art-market/internal/gateway"
	"art-market/internal/models"
	"art-market/internal/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// -------- test fakes --------

type fakeGateway struct {
	mu    sync.Mutex
	err   error
	calls []gateway.PaymentRequest
}

func (f *fakeGateway) CreatePayment(ctx context.Context, req gateway.PaymentRequest) (*models.PaymentSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, f.err
	}
	return &models.PaymentSession{
		PaymentID: gateway.SimulatedPrefix + uuid.New().String(),
		Simulated: true,
		Amount:    req.Amount,
		Memo:      req.Memo,
		Metadata:  req.Metadata,
	}, nil
}

type recordingPublisher struct {
	mu        sync.Mutex
	submitted []*models.ArtworkSubmittedEvent
	requested []*models.PaymentRequestedEvent
	sold      []*models.ArtworkSoldEvent
	resold    []*models.ArtworkResoldEvent
	failed    []*models.PaymentFailedEvent
	err       error
}

func (p *recordingPublisher) PublishArtworkSubmitted(ctx context.Context, e *models.ArtworkSubmittedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.submitted = append(p.submitted, e)
	return p.err
}

func (p *recordingPublisher) PublishPaymentRequested(ctx context.Context, e *models.PaymentRequestedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requested = append(p.requested, e)
	return p.err
}

func (p *recordingPublisher) PublishArtworkSold(ctx context.Context, e *models.ArtworkSoldEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sold = append(p.sold, e)
	return p.err
}

func (p *recordingPublisher) PublishArtworkResold(ctx context.Context, e *models.ArtworkResoldEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resold = append(p.resold, e)
	return p.err
}

func (p *recordingPublisher) PublishPaymentFailed(ctx context.Context, e *models.PaymentFailedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failed = append(p.failed, e)
	return p.err
}

type memoryDedup struct {
	mu   sync.Mutex
	keys map[string]time.Duration
}

func (m *memoryDedup) Delivered(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.keys[key]
	return ok, nil
}

func (m *memoryDedup) MarkDelivered(ctx context.Context, key string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.keys == nil {
		m.keys = map[string]time.Duration{}
	}
	m.keys[key] = ttl
	return nil
}

// -------- helpers --------

// pngDataURL is a 1x1 transparent PNG
const pngDataURL = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII="

type fixture struct {
	backend     *store.MemoryBackend
	ledger      *store.Ledger
	blobs       *blob.DiskStore
	gateway     *fakeGateway
	events      *recordingPublisher
	marketplace *MarketplaceService
	reconciler  *Reconciler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	backend := store.NewMemoryBackend()
	ledger := store.NewLedger(backend)
	blobs, err := blob.NewDiskStore(t.TempDir())
	require.NoError(t, err)

	f := &fixture{
		backend: backend,
		ledger:  ledger,
		blobs:   blobs,
		gateway: &fakeGateway{},
		events:  &recordingPublisher{},
	}
	f.marketplace = NewMarketplaceService(ledger, blobs, f.events)
	f.reconciler = NewReconciler(ledger, f.gateway, f.events)
	return f
}

func (f *fixture) submit(t *testing.T) *models.Artwork {
	t.Helper()
	art, err := f.marketplace.Submit(context.Background(), &SubmitRequest{Artist: "Ada", DataURL: pngDataURL})
	require.NoError(t, err)
	return art
}

// sold submits an artwork and settles it for owner
func (f *fixture) sold(t *testing.T, owner string) (*models.Artwork, string) {
	t.Helper()
	ctx := context.Background()
	art := f.submit(t)
	session, err := f.reconciler.RequestPayment(ctx, art.ID)
	require.NoError(t, err)
	settlement, err := f.reconciler.ConfirmPayment(ctx, Confirmation{PaymentID: session.PaymentID, Payer: owner, TxRef: "tx-1"})
	require.NoError(t, err)
	return settlement.Artwork, session.PaymentID
}
