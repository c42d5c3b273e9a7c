package broker

import (
	"context"
	"testing"

	"art-market/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	keys   []string
	events []interface{}
}

func (r *recordingWriter) PublishEvent(ctx context.Context, key string, event interface{}) error {
	r.keys = append(r.keys, key)
	r.events = append(r.events, event)
	return nil
}

func TestPublisherKeysByArtwork(t *testing.T) {
	w := &recordingWriter{}
	ep := NewEventPublisher(w)
	ctx := context.Background()

	require.NoError(t, ep.PublishArtworkSubmitted(ctx, &models.ArtworkSubmittedEvent{ArtID: "a1"}))
	require.NoError(t, ep.PublishArtworkSold(ctx, &models.ArtworkSoldEvent{ArtID: "a1", PaymentID: "p1"}))
	require.NoError(t, ep.PublishPaymentFailed(ctx, &models.PaymentFailedEvent{ArtID: "a2"}))

	assert.Equal(t, []string{"art-a1", "art-a1", "art-a2"}, w.keys)
	assert.IsType(t, &models.ArtworkSoldEvent{}, w.events[1])
}

func TestPublisherWithoutWriterIsNoop(t *testing.T) {
	ep := NewEventPublisher(nil)
	assert.NoError(t, ep.PublishArtworkResold(context.Background(), &models.ArtworkResoldEvent{ArtID: "a1"}))
	assert.NoError(t, ep.PublishPaymentRequested(context.Background(), &models.PaymentRequestedEvent{ArtID: "a1"}))
}
