package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WebhooksReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "paygate_webhooks_received_total",
		Help: "Total number of inbound payment notifications received.",
	})

	WebhooksRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "paygate_webhooks_rejected_total",
		Help: "Total number of notifications rejected before any state change, labelled by reason.",
	}, []string{"reason"})

	DeliveriesIgnored = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "paygate_deliveries_ignored_total",
		Help: "Total number of accepted notifications that caused no state change (duplicate or stale).",
	}, []string{"reason"})

	TransitionsApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "paygate_transitions_applied_total",
		Help: "Total number of committed payment status transitions, labelled by resulting status and source.",
	}, []string{"to_status", "source"})

	ConflictsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "paygate_transition_conflicts_total",
		Help: "Total number of transitions rejected because they conflicted with stored state.",
	})

	ReconciliationOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "paygate_reconciliations_total",
		Help: "Total number of authoritative bill lookups on the conflict path, labelled by outcome.",
	}, []string{"outcome"})

	HandlerFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "paygate_handler_failures_total",
		Help: "Total number of dispatch handler failures reported alongside committed transitions.",
	})

	SignatureChecksSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "paygate_signature_checks_skipped_total",
		Help: "Total number of notifications accepted without signature verification (no secret configured).",
	})

	ProcessingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "paygate_webhook_processing_duration_ms",
		Help:    "End-to-end notification processing latency in milliseconds.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
	})
)
