package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event types
const (
	EventTypeArtworkSubmitted = "ARTWORK_SUBMITTED"
	EventTypePaymentRequested = "PAYMENT_REQUESTED"
	EventTypeArtworkSold      = "ARTWORK_SOLD"
	EventTypeArtworkResold    = "ARTWORK_RESOLD"
	EventTypePaymentFailed    = "PAYMENT_FAILED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// ArtworkSubmittedEvent published when a new artwork enters the ledger
type ArtworkSubmittedEvent struct {
	BaseEvent
	ArtID   string          `json:"art_id"`
	Creator string          `json:"creator"`
	Price   decimal.Decimal `json:"price"`
}

// PaymentRequestedEvent published when a payment session is bound
type PaymentRequestedEvent struct {
	BaseEvent
	ArtID     string          `json:"art_id"`
	PaymentID string          `json:"payment_id"`
	Simulated bool            `json:"simulated"`
	Amount    decimal.Decimal `json:"amount"`
}

// ArtworkSoldEvent published when a confirmation settles a sale
type ArtworkSoldEvent struct {
	BaseEvent
	ArtID     string          `json:"art_id"`
	PaymentID string          `json:"payment_id"`
	Owner     string          `json:"owner"`
	TxID      string          `json:"tx_id"`
	Price     decimal.Decimal `json:"price"`
	Simulated bool            `json:"simulated"`
}

// ArtworkResoldEvent published when an owner relists an artwork
type ArtworkResoldEvent struct {
	BaseEvent
	ArtID string          `json:"art_id"`
	Owner string          `json:"owner"`
	Price decimal.Decimal `json:"price"`
}

// PaymentFailedEvent published when the provider reports a failed or
// cancelled payment and the binding is released
type PaymentFailedEvent struct {
	BaseEvent
	ArtID     string `json:"art_id"`
	PaymentID string `json:"payment_id"`
	Reason    string `json:"reason"`
}
