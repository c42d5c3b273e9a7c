package service

import (
	"context"
	"errors"
	"strings"

	"art-market/internal/gateway"
	"art-market/internal/models"
	"art-market/internal/util"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// WebhookOutcome names what a provider delivery did to the ledger
type WebhookOutcome string

const (
	OutcomeSettled         WebhookOutcome = "settled"
	OutcomeDuplicate       WebhookOutcome = "duplicate"
	OutcomeReleased        WebhookOutcome = "released"
	OutcomeIgnored         WebhookOutcome = "ignored"
	OutcomeRedelivered     WebhookOutcome = "redelivered"
	OutcomeMissingID       WebhookOutcome = "missing_payment_id"
	OutcomeUnmatched       WebhookOutcome = "unmatched"
	OutcomeUnhandledStatus WebhookOutcome = "unhandled_status"
)

type statusClass int

const (
	statusUnknown statusClass = iota
	statusSuccess
	statusFailure
)

var (
	successTokens = map[string]bool{"completed": true, "confirmed": true, "success": true}
	failureTokens = map[string]bool{"failed": true, "cancelled": true, "canceled": true}
)

var (
	eventPaymentIDPaths = []gateway.Extractor{
		gateway.Value("data", "paymentId"),
		gateway.Value("data", "id"),
		gateway.Value("paymentId"),
	}
	eventStatusPaths = []gateway.Extractor{
		gateway.Value("data", "status"),
		gateway.Value("data", "state"),
		gateway.Value("status"),
		gateway.Value("type"),
	}
	eventPayerPaths = []gateway.Extractor{
		gateway.Value("data", "payer"),
		gateway.Value("data", "buyer"),
		gateway.Value("data", "from"),
	}
	eventTxPaths = []gateway.Extractor{
		gateway.Value("data", "txId"),
		gateway.Value("data", "transactionId"),
	}
)

// ProviderEvent is the part of a webhook envelope the ledger cares about
type ProviderEvent struct {
	PaymentID string
	Status    string
	Payer     string
	TxID      string
}

// ParseProviderEvent extracts event fields from their candidate locations
func ParseProviderEvent(doc map[string]any) ProviderEvent {
	var evt ProviderEvent
	evt.PaymentID, _ = gateway.FirstOf(doc, eventPaymentIDPaths...)
	evt.Status, _ = gateway.FirstOf(doc, eventStatusPaths...)
	evt.Payer, _ = gateway.FirstOf(doc, eventPayerPaths...)
	evt.TxID, _ = gateway.FirstOf(doc, eventTxPaths...)
	return evt
}

func classifyStatus(status string) statusClass {
	token := strings.ToLower(strings.TrimSpace(status))
	switch {
	case successTokens[token]:
		return statusSuccess
	case failureTokens[token]:
		return statusFailure
	default:
		return statusUnknown
	}
}

// HandleWebhook applies one provider delivery. Conditions that are normal
// for the provider come back as outcomes; only storage failures are errors.
func (r *Reconciler) HandleWebhook(ctx context.Context, doc map[string]any) (WebhookOutcome, error) {
	ctx, span := util.StartSpan(ctx, "Reconciler.HandleWebhook")
	defer span.End()

	evt := ParseProviderEvent(doc)
	span.SetAttributes(attribute.String("payment.id", evt.PaymentID), attribute.String("payment.status", evt.Status))

	outcome, err := r.handleWebhook(ctx, evt)
	if err != nil {
		util.RecordError(span, err)
		util.WebhookEventsTotal.WithLabelValues("error").Inc()
		return outcome, err
	}
	util.WebhookEventsTotal.WithLabelValues(string(outcome)).Inc()
	return outcome, nil
}

func (r *Reconciler) handleWebhook(ctx context.Context, evt ProviderEvent) (WebhookOutcome, error) {
	if evt.PaymentID == "" {
		r.logger.Warn("Webhook missing paymentId")
		return OutcomeMissingID, nil
	}

	class := classifyStatus(evt.Status)
	if class == statusUnknown {
		r.logger.Info("Unhandled payment status",
			zap.String("payment_id", evt.PaymentID),
			zap.String("status", evt.Status))
		return OutcomeUnhandledStatus, nil
	}

	key := evt.PaymentID + "|" + strings.ToLower(strings.TrimSpace(evt.Status))
	if r.seen(ctx, key) {
		r.logger.Info("Webhook already applied", zap.String("payment_id", evt.PaymentID))
		return OutcomeRedelivered, nil
	}

	var outcome WebhookOutcome
	switch class {
	case statusSuccess:
		settlement, err := r.ConfirmPayment(ctx, Confirmation{
			PaymentID: evt.PaymentID,
			Payer:     evt.Payer,
			TxRef:     evt.TxID,
		})
		if err != nil {
			return r.unmatchedOr(evt, err)
		}
		outcome = OutcomeSettled
		if settlement.Duplicate {
			outcome = OutcomeDuplicate
		}

	case statusFailure:
		released, err := r.FailPayment(ctx, evt.PaymentID, strings.ToLower(evt.Status))
		if err != nil {
			return r.unmatchedOr(evt, err)
		}
		outcome = OutcomeIgnored
		if released {
			outcome = OutcomeReleased
		}
	}

	r.markSeen(ctx, key)
	return outcome, nil
}

func (r *Reconciler) unmatchedOr(evt ProviderEvent, err error) (WebhookOutcome, error) {
	if errors.Is(err, models.ErrNotFound) {
		r.logger.Warn("No artwork matching paymentId", zap.String("payment_id", evt.PaymentID))
		return OutcomeUnmatched, nil
	}
	r.logger.Error("Webhook handling failed", zap.String("payment_id", evt.PaymentID), zap.Error(err))
	return "", err
}

func (r *Reconciler) seen(ctx context.Context, key string) bool {
	if r.dedup == nil {
		return false
	}
	seen, err := r.dedup.Delivered(ctx, key)
	if err != nil {
		r.logger.Warn("Delivery dedup lookup failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return seen
}

func (r *Reconciler) markSeen(ctx context.Context, key string) {
	if r.dedup == nil {
		return
	}
	if err := r.dedup.MarkDelivered(ctx, key, r.dedupTTL); err != nil {
		r.logger.Warn("Failed to record webhook delivery", zap.String("key", key), zap.Error(err))
	}
}
