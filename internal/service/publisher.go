package service

import (
	"context"
	"time"

	"art-market/internal/models"

	"github.com/google/uuid"
)

// EventPublisher receives committed sale lifecycle transitions
type EventPublisher interface {
	PublishArtworkSubmitted(ctx context.Context, event *models.ArtworkSubmittedEvent) error
	PublishPaymentRequested(ctx context.Context, event *models.PaymentRequestedEvent) error
	PublishArtworkSold(ctx context.Context, event *models.ArtworkSoldEvent) error
	PublishArtworkResold(ctx context.Context, event *models.ArtworkResoldEvent) error
	PublishPaymentFailed(ctx context.Context, event *models.PaymentFailedEvent) error
}

func newBaseEvent(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now(),
	}
}
