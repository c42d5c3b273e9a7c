package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"art-market/internal/gateway"
	"art-market/internal/models"
	"art-market/internal/store"
	"art-market/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Sale sources
const (
	SourceWebhook   = "webhook"
	SourceSimulated = "simulated"
)

// DeliveryDedup remembers webhook deliveries that were already applied
type DeliveryDedup interface {
	Delivered(ctx context.Context, key string) (bool, error)
	MarkDelivered(ctx context.Context, key string, ttl time.Duration) error
}

// Reconciler applies payment creation, confirmation and resale to the
// ledger. Every transition re-checks its guard inside Ledger.Mutate.
type Reconciler struct {
	ledger   *store.Ledger
	gateway  gateway.Gateway
	events   EventPublisher
	dedup    DeliveryDedup
	dedupTTL time.Duration
	logger   *zap.Logger
}

// NewReconciler creates a new reconciler
func NewReconciler(ledger *store.Ledger, gw gateway.Gateway, events EventPublisher) *Reconciler {
	return &Reconciler{
		ledger:  ledger,
		gateway: gw,
		events:  events,
		logger:  util.Named("reconciler"),
	}
}

// WithDeliveryDedup enables short-circuiting repeated webhook deliveries
func (r *Reconciler) WithDeliveryDedup(dedup DeliveryDedup, ttl time.Duration) *Reconciler {
	r.dedup = dedup
	r.dedupTTL = ttl
	return r
}

// Confirmation describes a payment completion
type Confirmation struct {
	PaymentID string
	Payer     string
	TxRef     string
}

// Settlement is the result of applying a confirmation
type Settlement struct {
	Artwork   *models.Artwork
	Duplicate bool
}

// ResellRequest represents an owner relisting an artwork
type ResellRequest struct {
	ArtID      string           `json:"artId"`
	Owner      string           `json:"owner"`
	NewPricePi *decimal.Decimal `json:"newPricePi"`
}

// RequestPayment opens a payment session and binds its id to the artwork
func (r *Reconciler) RequestPayment(ctx context.Context, artID string) (*models.PaymentSession, error) {
	ctx, span := util.StartSpan(ctx, "Reconciler.RequestPayment", attribute.String("art.id", artID))
	defer span.End()

	art, err := r.ledger.FindByID(ctx, artID)
	if err != nil {
		util.RecordError(span, err)
		return nil, err
	}
	if !art.Status.Purchasable() {
		util.PaymentRequestsFailedTotal.WithLabelValues("not_available").Inc()
		return nil, fmt.Errorf("artwork %s is %s: %w", artID, art.Status, models.ErrNotAvailable)
	}

	session, err := r.gateway.CreatePayment(ctx, gateway.PaymentRequest{
		Amount: art.Price,
		Memo:   fmt.Sprintf("Payment for art %s", artID),
		Metadata: map[string]string{
			"artId":   artID,
			"creator": art.Creator,
		},
	})
	if err != nil {
		util.PaymentRequestsFailedTotal.WithLabelValues("gateway").Inc()
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}

	_, err = r.ledger.Mutate(ctx, artID, func(a *models.Artwork) error {
		if !a.Status.Purchasable() {
			return fmt.Errorf("artwork %s is %s: %w", artID, a.Status, models.ErrNotAvailable)
		}
		pid := session.PaymentID
		a.PaymentID = &pid
		a.PaymentMeta = session.Meta()
		return nil
	})
	if err != nil {
		util.PaymentRequestsFailedTotal.WithLabelValues("bind").Inc()
		return nil, err
	}

	mode := "live"
	if session.Simulated {
		mode = "simulated"
	}
	util.PaymentsRequestedTotal.WithLabelValues(mode).Inc()
	r.logger.Info("Payment bound to artwork",
		zap.String("art_id", artID),
		zap.String("payment_id", session.PaymentID),
		zap.Bool("simulated", session.Simulated))

	event := &models.PaymentRequestedEvent{
		BaseEvent: newBaseEvent(models.EventTypePaymentRequested),
		ArtID:     artID,
		PaymentID: session.PaymentID,
		Simulated: session.Simulated,
		Amount:    session.Amount,
	}
	if err := r.events.PublishPaymentRequested(ctx, event); err != nil {
		r.logger.Error("Failed to publish PaymentRequested event", zap.Error(err))
	}

	return session, nil
}

// ConfirmPayment settles the artwork currently bound to the payment id.
// Re-confirming an already settled payment is a no-op.
func (r *Reconciler) ConfirmPayment(ctx context.Context, c Confirmation) (*Settlement, error) {
	ctx, span := util.StartSpan(ctx, "Reconciler.ConfirmPayment")
	defer span.End()

	if c.Payer == "" {
		c.Payer = models.UnknownOwner
	}
	return r.settle(ctx, c, SourceWebhook)
}

// SimulatePayment settles a payment without the provider. It shares the
// guard and idempotency of ConfirmPayment.
func (r *Reconciler) SimulatePayment(ctx context.Context, paymentID, txRef string) (*Settlement, error) {
	ctx, span := util.StartSpan(ctx, "Reconciler.SimulatePayment")
	defer span.End()

	if txRef == "" {
		txRef = "tx-" + uuid.New().String()
	}
	return r.settle(ctx, Confirmation{
		PaymentID: paymentID,
		Payer:     models.SimulatedOwner,
		TxRef:     txRef,
	}, SourceSimulated)
}

func (r *Reconciler) settle(ctx context.Context, c Confirmation, source string) (*Settlement, error) {
	if c.PaymentID == "" {
		return nil, &models.ValidationError{Field: "paymentId", Reason: "required"}
	}

	bound, err := r.ledger.FindByPaymentID(ctx, c.PaymentID)
	if err != nil {
		return nil, err
	}

	duplicate := false
	art, err := r.ledger.Mutate(ctx, bound.ID, func(a *models.Artwork) error {
		if !a.BoundTo(c.PaymentID) {
			return fmt.Errorf("payment %s: %w", c.PaymentID, models.ErrNotFound)
		}
		if a.Status == models.StatusSold {
			duplicate = true
			return store.ErrUnchanged
		}

		now := time.Now()
		owner := c.Payer
		a.Status = models.StatusSold
		a.CurrentOwner = &owner
		a.LastEventAt = now
		a.History = append(a.History, models.SaleEvent{
			Type:  models.SaleEventSold,
			At:    now,
			Tx:    c.TxRef,
			Price: a.Price,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	if duplicate {
		util.DuplicateConfirmationsTotal.Inc()
		r.logger.Info("Payment already settled",
			zap.String("art_id", art.ID),
			zap.String("payment_id", c.PaymentID))
		return &Settlement{Artwork: art, Duplicate: true}, nil
	}

	util.ArtworksSoldTotal.WithLabelValues(source).Inc()
	r.logger.Info("Artwork sold",
		zap.String("art_id", art.ID),
		zap.String("payment_id", c.PaymentID),
		zap.String("owner", c.Payer),
		zap.String("source", source))

	event := &models.ArtworkSoldEvent{
		BaseEvent: newBaseEvent(models.EventTypeArtworkSold),
		ArtID:     art.ID,
		PaymentID: c.PaymentID,
		Owner:     c.Payer,
		TxID:      c.TxRef,
		Price:     art.Price,
		Simulated: source == SourceSimulated,
	}
	if err := r.events.PublishArtworkSold(ctx, event); err != nil {
		r.logger.Error("Failed to publish ArtworkSold event", zap.Error(err))
	}

	return &Settlement{Artwork: art}, nil
}

// FailPayment releases the binding of a failed or cancelled payment.
// It returns false when the bound artwork was already sold.
func (r *Reconciler) FailPayment(ctx context.Context, paymentID, reason string) (bool, error) {
	ctx, span := util.StartSpan(ctx, "Reconciler.FailPayment")
	defer span.End()

	bound, err := r.ledger.FindByPaymentID(ctx, paymentID)
	if err != nil {
		return false, err
	}

	released := false
	art, err := r.ledger.Mutate(ctx, bound.ID, func(a *models.Artwork) error {
		if !a.BoundTo(paymentID) {
			return fmt.Errorf("payment %s: %w", paymentID, models.ErrNotFound)
		}
		if a.Status == models.StatusSold {
			return store.ErrUnchanged
		}
		released = true
		a.PaymentID = nil
		a.PaymentMeta = nil
		a.LastEventAt = time.Now()
		return nil
	})
	if err != nil {
		return false, err
	}

	if !released {
		r.logger.Warn("Ignoring failure for settled payment",
			zap.String("art_id", art.ID),
			zap.String("payment_id", paymentID))
		return false, nil
	}

	util.PaymentsFailedTotal.Inc()
	r.logger.Warn("Payment failed, binding released",
		zap.String("art_id", art.ID),
		zap.String("payment_id", paymentID),
		zap.String("reason", reason))

	event := &models.PaymentFailedEvent{
		BaseEvent: newBaseEvent(models.EventTypePaymentFailed),
		ArtID:     art.ID,
		PaymentID: paymentID,
		Reason:    reason,
	}
	if err := r.events.PublishPaymentFailed(ctx, event); err != nil {
		r.logger.Error("Failed to publish PaymentFailed event", zap.Error(err))
	}

	return true, nil
}

// Resell relists a sold artwork for its current owner at a new price
func (r *Reconciler) Resell(ctx context.Context, req *ResellRequest) (*models.Artwork, error) {
	ctx, span := util.StartSpan(ctx, "Reconciler.Resell")
	defer span.End()

	if req.NewPricePi == nil || !req.NewPricePi.IsPositive() {
		return nil, &models.ValidationError{Field: "newPricePi", Reason: "must be a positive number"}
	}
	price := *req.NewPricePi

	art, err := r.ledger.Mutate(ctx, req.ArtID, func(a *models.Artwork) error {
		if a.CurrentOwner == nil || *a.CurrentOwner != req.Owner {
			return fmt.Errorf("artwork %s: %w", a.ID, models.ErrNotOwner)
		}
		if a.Status != models.StatusSold {
			return fmt.Errorf("artwork %s is %s: %w", a.ID, a.Status, models.ErrNotAvailable)
		}

		now := time.Now()
		a.Status = models.StatusResale
		a.PaymentID = nil
		a.PaymentMeta = nil
		a.Price = price
		a.LastEventAt = now
		a.History = append(a.History, models.SaleEvent{
			Type:  models.SaleEventResell,
			At:    now,
			By:    req.Owner,
			Price: price,
		})
		return nil
	})
	if err != nil {
		if errors.Is(err, models.ErrNotOwner) {
			r.logger.Warn("Resale rejected", zap.String("art_id", req.ArtID), zap.String("owner", req.Owner))
		}
		return nil, err
	}

	util.ArtworksResoldTotal.Inc()
	r.logger.Info("Artwork relisted",
		zap.String("art_id", art.ID),
		zap.String("owner", req.Owner),
		zap.String("price", price.String()))

	event := &models.ArtworkResoldEvent{
		BaseEvent: newBaseEvent(models.EventTypeArtworkResold),
		ArtID:     art.ID,
		Owner:     req.Owner,
		Price:     price,
	}
	if err := r.events.PublishArtworkResold(ctx, event); err != nil {
		r.logger.Error("Failed to publish ArtworkResold event", zap.Error(err))
	}

	return art, nil
}
