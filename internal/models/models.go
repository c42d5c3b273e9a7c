package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Prices go over the wire as JSON numbers, as the gallery front end expects
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// ArtworkStatus is the sale lifecycle state of an artwork
type ArtworkStatus string

// Artwork statuses
const (
	StatusPending ArtworkStatus = "pending"
	StatusResale  ArtworkStatus = "resale"
	StatusSold    ArtworkStatus = "sold"
)

// Purchasable reports whether a payment may be requested in this state
func (s ArtworkStatus) Purchasable() bool {
	return s == StatusPending || s == StatusResale
}

// Sale event types
const (
	SaleEventSold   = "sold"
	SaleEventResell = "resell"
)

// Owner sentinels
const (
	UnknownOwner   = "unknown"
	SimulatedOwner = "sim-buyer"
)

// Artwork is one submitted piece and its sale lifecycle
type Artwork struct {
	ID           string          `json:"id"`
	ImageRef     string          `json:"imageRef"`
	ContentHash  string          `json:"contentHash"`
	Status       ArtworkStatus   `json:"status"`
	PaymentID    *string         `json:"paymentId"`
	PaymentMeta  *PaymentMeta    `json:"paymentMeta,omitempty"`
	Price        decimal.Decimal `json:"pricePi"`
	Creator      string          `json:"creator"`
	CurrentOwner *string         `json:"currentOwner"`
	CreatedAt    time.Time       `json:"createdAt"`
	LastEventAt  time.Time       `json:"lastEventAt"`
	History      []SaleEvent     `json:"history"`
}

// SaleEvent is an append-only audit entry
type SaleEvent struct {
	Type  string          `json:"type"`
	At    time.Time       `json:"at"`
	Tx    string          `json:"tx,omitempty"`
	By    string          `json:"by,omitempty"`
	Price decimal.Decimal `json:"price"`
}

// PaymentMeta mirrors the pass-through fields of the bound payment session
type PaymentMeta struct {
	Simulated bool              `json:"simulated"`
	Amount    decimal.Decimal   `json:"amount"`
	Memo      string            `json:"memo"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// PaymentSession is a provider-issued payment handle
type PaymentSession struct {
	PaymentID string            `json:"paymentId"`
	Simulated bool              `json:"simulated"`
	Amount    decimal.Decimal   `json:"amount"`
	Memo      string            `json:"memo"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Provider  map[string]any    `json:"provider,omitempty"`
}

// Meta returns the fields of the session mirrored onto an artwork
func (p *PaymentSession) Meta() *PaymentMeta {
	return &PaymentMeta{
		Simulated: p.Simulated,
		Amount:    p.Amount,
		Memo:      p.Memo,
		Metadata:  cloneStrings(p.Metadata),
	}
}

// BoundTo reports whether paymentID is the artwork's current binding
func (a *Artwork) BoundTo(paymentID string) bool {
	return paymentID != "" && a.PaymentID != nil && *a.PaymentID == paymentID
}

// Clone returns a deep copy so callers never share pointers or slices
// with the ledger's stored value.
func (a *Artwork) Clone() *Artwork {
	c := *a
	if a.PaymentID != nil {
		id := *a.PaymentID
		c.PaymentID = &id
	}
	if a.CurrentOwner != nil {
		owner := *a.CurrentOwner
		c.CurrentOwner = &owner
	}
	if a.PaymentMeta != nil {
		meta := *a.PaymentMeta
		meta.Metadata = cloneStrings(a.PaymentMeta.Metadata)
		c.PaymentMeta = &meta
	}
	c.History = make([]SaleEvent, len(a.History))
	copy(c.History, a.History)
	return &c
}

func cloneStrings(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
