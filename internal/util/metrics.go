package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ArtworksSubmittedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "artworks_submitted_total",
		Help: "Total number of artworks submitted for sale",
	})

	PaymentsRequestedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payments_requested_total",
		Help: "Total number of payment sessions bound to artworks",
	}, []string{"mode"})

	PaymentRequestsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_requests_failed_total",
		Help: "Total number of rejected or failed payment requests",
	}, []string{"reason"})

	ArtworksSoldTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "artworks_sold_total",
		Help: "Total number of completed sales",
	}, []string{"source"})

	DuplicateConfirmationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "duplicate_confirmations_total",
		Help: "Total number of confirmations for an already settled payment",
	})

	ArtworksResoldTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "artworks_resold_total",
		Help: "Total number of artworks relisted by their owner",
	})

	PaymentsFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payments_failed_total",
		Help: "Total number of failed or cancelled payments reported by the provider",
	})

	WebhookEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_total",
		Help: "Total number of provider webhook deliveries by outcome",
	}, []string{"outcome"})

	GatewayRequestLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "payment_gateway_request_latency_seconds",
		Help:    "Latency of payment creation calls to the provider",
		Buckets: prometheus.DefBuckets,
	})

	LedgerMutationLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ledger_mutation_latency_seconds",
		Help:    "Latency of whole-collection ledger read-modify-write cycles",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
