// Package metrics defines and registers all custom Prometheus metrics for the
// canteen API. It is the single source of truth for metric names, labels, and
// help strings.
//
// Metrics are registered with the default registry on package init through
// promauto; importing the package is enough.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "canteen"

// ── Checkout metrics ──────────────────────────────────────────────────────────

// CheckoutsTotal counts checkout attempts.
// Label:
//   - result: "completed", "replayed", "empty_cart", "insufficient_funds",
//     "insufficient_tickets", "failed"
var CheckoutsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkouts_total",
		Help:      "Total number of checkout attempts, by outcome.",
	},
	[]string{"result"},
)

// CheckoutDuration measures a checkout from validation to receipt.
var CheckoutDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "checkout_duration_seconds",
		Help:      "Duration of checkout processing.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"result"},
)

// CheckoutCompensationsTotal counts reversals run after a failed checkout.
// Labels:
//   - step: the undone step ("tickets", "balance", "purchase")
//   - result: "ok" or "failed"
var CheckoutCompensationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkout_compensations_total",
		Help:      "Total number of compensating actions run for partially failed checkouts.",
	},
	[]string{"step", "result"},
)

// ── Wallet metrics ────────────────────────────────────────────────────────────

// WalletDebitsTotal counts debit attempts against wallets.
// Labels:
//   - kind: "balance" or "tickets"
//   - result: "ok", "insufficient", "error"
var WalletDebitsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "wallet_debits_total",
		Help:      "Total number of wallet debit attempts.",
	},
	[]string{"kind", "result"},
)

// TicketAccrualsTotal counts timer-driven ticket accruals.
// Label:
//   - result: "ok", "not_due", "error"
var TicketAccrualsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ticket_accruals_total",
		Help:      "Total number of loyalty ticket accrual attempts.",
	},
	[]string{"result"},
)

// WalletPushesTotal counts realtime wallet snapshots received by sessions.
// Label:
//   - result: "applied", "deferred" (held until a pending accrual settles),
//     "stale" (older or equal version), "dropped" (session closed)
var WalletPushesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "wallet_pushes_total",
		Help:      "Total number of realtime wallet snapshots handled by sessions.",
	},
	[]string{"result"},
)

// ── Session metrics ───────────────────────────────────────────────────────────

// ActiveSessions is the number of open account sessions.
var ActiveSessions = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_sessions",
		Help:      "Current number of open account sessions.",
	},
)

// FeedQueueDepth tracks pending wallet notifications per dispatcher worker.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var FeedQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "wallet_feed_queue_depth",
		Help:      "Current number of wallet notifications pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
