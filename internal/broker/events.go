package broker

import (
	"context"
	"fmt"

	"art-market/internal/models"
)

// EventWriter is the transport behind EventPublisher
type EventWriter interface {
	PublishEvent(ctx context.Context, key string, event interface{}) error
}

// EventPublisher handles publishing sale lifecycle events. Events for one
// artwork share a partition key so consumers see them in order.
type EventPublisher struct {
	writer EventWriter
}

// NewEventPublisher creates a new event publisher. A nil writer makes
// every publish a no-op.
func NewEventPublisher(writer EventWriter) *EventPublisher {
	return &EventPublisher{writer: writer}
}

func (ep *EventPublisher) publish(ctx context.Context, artID string, event interface{}) error {
	if ep.writer == nil {
		return nil
	}
	return ep.writer.PublishEvent(ctx, fmt.Sprintf("art-%s", artID), event)
}

// PublishArtworkSubmitted publishes ArtworkSubmitted event
func (ep *EventPublisher) PublishArtworkSubmitted(ctx context.Context, event *models.ArtworkSubmittedEvent) error {
	return ep.publish(ctx, event.ArtID, event)
}

// PublishPaymentRequested publishes PaymentRequested event
func (ep *EventPublisher) PublishPaymentRequested(ctx context.Context, event *models.PaymentRequestedEvent) error {
	return ep.publish(ctx, event.ArtID, event)
}

// PublishArtworkSold publishes ArtworkSold event
func (ep *EventPublisher) PublishArtworkSold(ctx context.Context, event *models.ArtworkSoldEvent) error {
	return ep.publish(ctx, event.ArtID, event)
}

// PublishArtworkResold publishes ArtworkResold event
func (ep *EventPublisher) PublishArtworkResold(ctx context.Context, event *models.ArtworkResoldEvent) error {
	return ep.publish(ctx, event.ArtID, event)
}

// PublishPaymentFailed publishes PaymentFailed event
func (ep *EventPublisher) PublishPaymentFailed(ctx context.Context, event *models.PaymentFailedEvent) error {
	return ep.publish(ctx, event.ArtID, event)
}
