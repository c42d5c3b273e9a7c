package service

import (
	"context"
	"errors"
	"testing"

	"art-market/internal/models"
	"art-market/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProviderEventCandidatePaths(t *testing.T) {
	tests := []struct {
		name string
		doc  map[string]any
		want ProviderEvent
	}{
		{
			name: "nested data",
			doc: map[string]any{"data": map[string]any{
				"paymentId": "p1", "status": "COMPLETED", "payer": "alice", "txId": "tx-1",
			}},
			want: ProviderEvent{PaymentID: "p1", Status: "COMPLETED", Payer: "alice", TxID: "tx-1"},
		},
		{
			name: "data id and state",
			doc: map[string]any{"data": map[string]any{
				"id": "p2", "state": "confirmed", "buyer": "bob", "transactionId": "tx-2",
			}},
			want: ProviderEvent{PaymentID: "p2", Status: "confirmed", Payer: "bob", TxID: "tx-2"},
		},
		{
			name: "top level",
			doc:  map[string]any{"paymentId": "p3", "type": "success", "data": map[string]any{"from": "carol"}},
			want: ProviderEvent{PaymentID: "p3", Status: "success", Payer: "carol"},
		},
		{
			name: "data status wins over top level",
			doc:  map[string]any{"status": "failed", "data": map[string]any{"paymentId": "p4", "status": "completed"}},
			want: ProviderEvent{PaymentID: "p4", Status: "completed"},
		},
		{
			name: "numeric payment id",
			doc:  map[string]any{"data": map[string]any{"paymentId": float64(42), "status": "completed"}},
			want: ProviderEvent{PaymentID: "42", Status: "completed"},
		},
		{
			name: "empty",
			doc:  map[string]any{},
			want: ProviderEvent{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseProviderEvent(tt.doc))
		})
	}
}

func TestClassifyStatus(t *testing.T) {
	for _, s := range []string{"COMPLETED", "completed", "Confirmed", "SUCCESS", " success "} {
		assert.Equal(t, statusSuccess, classifyStatus(s), s)
	}
	for _, s := range []string{"FAILED", "cancelled", "Canceled"} {
		assert.Equal(t, statusFailure, classifyStatus(s), s)
	}
	for _, s := range []string{"", "pending", "approved", "true", "ok"} {
		assert.Equal(t, statusUnknown, classifyStatus(s), s)
	}
}

func webhookDoc(paymentID, status string) map[string]any {
	return map[string]any{"data": map[string]any{
		"paymentId": paymentID,
		"status":    status,
		"payer":     "alice",
		"txId":      "tx-hook",
	}}
}

func TestHandleWebhookSettlesOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	art := f.submit(t)
	session, err := f.reconciler.RequestPayment(ctx, art.ID)
	require.NoError(t, err)

	outcome, err := f.reconciler.HandleWebhook(ctx, webhookDoc(session.PaymentID, "COMPLETED"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeSettled, outcome)

	outcome, err = f.reconciler.HandleWebhook(ctx, webhookDoc(session.PaymentID, "completed"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, outcome)

	stored, err := f.ledger.FindByID(ctx, art.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSold, stored.Status)
	assert.Equal(t, "alice", *stored.CurrentOwner)
	require.Len(t, stored.History, 1)
	assert.Equal(t, "tx-hook", stored.History[0].Tx)
}

func TestHandleWebhookNormalAnomaliesAreNotErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	art := f.submit(t)
	session, err := f.reconciler.RequestPayment(ctx, art.ID)
	require.NoError(t, err)

	outcome, err := f.reconciler.HandleWebhook(ctx, map[string]any{"data": map[string]any{"status": "COMPLETED"}})
	require.NoError(t, err)
	assert.Equal(t, OutcomeMissingID, outcome)

	outcome, err = f.reconciler.HandleWebhook(ctx, webhookDoc("someone-else", "COMPLETED"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnmatched, outcome)

	outcome, err = f.reconciler.HandleWebhook(ctx, webhookDoc(session.PaymentID, "approved"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnhandledStatus, outcome)

	stored, err := f.ledger.FindByID(ctx, art.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, stored.Status)
	assert.Empty(t, stored.History)
	assert.Equal(t, session.PaymentID, *stored.PaymentID)
}

func TestHandleWebhookNonStringStatusIsNotSkipped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	art := f.submit(t)
	session, err := f.reconciler.RequestPayment(ctx, art.ID)
	require.NoError(t, err)

	doc := map[string]any{
		"type": "completed",
		"data": map[string]any{"paymentId": session.PaymentID, "status": map[string]any{"state": "completed"}},
	}
	assert.Equal(t, statusUnknown, classifyStatus(ParseProviderEvent(doc).Status))

	outcome, err := f.reconciler.HandleWebhook(ctx, doc)
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnhandledStatus, outcome)

	stored, err := f.ledger.FindByID(ctx, art.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, stored.Status)
	assert.Empty(t, stored.History)
}

func TestHandleWebhookFailureReleasesBinding(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	art := f.submit(t)
	session, err := f.reconciler.RequestPayment(ctx, art.ID)
	require.NoError(t, err)

	outcome, err := f.reconciler.HandleWebhook(ctx, webhookDoc(session.PaymentID, "CANCELLED"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeReleased, outcome)

	stored, err := f.ledger.FindByID(ctx, art.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.PaymentID)
	assert.Equal(t, models.StatusPending, stored.Status)

	outcome, err = f.reconciler.HandleWebhook(ctx, webhookDoc(session.PaymentID, "COMPLETED"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnmatched, outcome)
}

func TestHandleWebhookFailureAfterSaleIsIgnored(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	art, paymentID := f.sold(t, "A")

	outcome, err := f.reconciler.HandleWebhook(ctx, webhookDoc(paymentID, "failed"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, outcome)

	stored, err := f.ledger.FindByID(ctx, art.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSold, stored.Status)
	assert.Equal(t, "A", *stored.CurrentOwner)
}

func TestHandleWebhookDeliveryDedup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	dedup := &memoryDedup{}
	f.reconciler.WithDeliveryDedup(dedup, 0)

	art := f.submit(t)
	session, err := f.reconciler.RequestPayment(ctx, art.ID)
	require.NoError(t, err)

	outcome, err := f.reconciler.HandleWebhook(ctx, webhookDoc(session.PaymentID, "COMPLETED"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeSettled, outcome)
	assert.Contains(t, dedup.keys, session.PaymentID+"|completed")

	saves := f.backend.Saves()
	outcome, err = f.reconciler.HandleWebhook(ctx, webhookDoc(session.PaymentID, "Completed"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeRedelivered, outcome)
	assert.Equal(t, saves, f.backend.Saves())
}

func TestHandleWebhookUnmatchedIsNotRemembered(t *testing.T) {
	f := newFixture(t)
	dedup := &memoryDedup{}
	f.reconciler.WithDeliveryDedup(dedup, 0)

	outcome, err := f.reconciler.HandleWebhook(context.Background(), webhookDoc("ghost", "COMPLETED"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnmatched, outcome)
	assert.Empty(t, dedup.keys)
}

type failingBackend struct {
	loadErr error
}

func (b *failingBackend) Load(ctx context.Context) ([]models.Artwork, error) {
	return nil, b.loadErr
}

func (b *failingBackend) Save(ctx context.Context, artworks []models.Artwork) error {
	return nil
}

func TestHandleWebhookSurfacesStorageErrors(t *testing.T) {
	f := newFixture(t)
	storageErr := &models.StorageError{Op: "read ledger", Err: errors.New("disk gone")}
	r := NewReconciler(store.NewLedger(&failingBackend{loadErr: storageErr}), f.gateway, f.events)

	_, err := r.HandleWebhook(context.Background(), webhookDoc("p1", "COMPLETED"))
	var sErr *models.StorageError
	assert.ErrorAs(t, err, &sErr)
}
