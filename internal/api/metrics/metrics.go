// Package metrics defines and registers the domain Prometheus metrics of the
// library API. HTTP request metrics come from echoprometheus in the router.
//
// All metrics live in the default registry and are registered on package
// initialisation through promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "library"

// Result label values shared by the counters below.
const (
	ResultOK       = "ok"
	ResultRejected = "rejected"
	ResultError    = "error"
)

// ── Credential metrics ────────────────────────────────────────────────────────

// RegistrationsTotal counts register calls.
// Label:
//   - result: "ok", "rejected" (duplicate or invalid input) or "error"
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of registration attempts, by result.",
	},
	[]string{"result"},
)

// LoginsTotal counts token requests.
// Label:
//   - result: "ok", "rejected" (bad credentials) or "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// TokensRevokedTotal counts successful logouts.
var TokensRevokedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tokens_revoked_total",
		Help:      "Total number of bearer tokens revoked through logout.",
	},
)

// ── Catalog metrics ───────────────────────────────────────────────────────────

// BooksAddedTotal counts books added to the catalog.
var BooksAddedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "books_added_total",
		Help:      "Total number of books added to the catalog.",
	},
)

// ── Ledger metrics ────────────────────────────────────────────────────────────

// BorrowsTotal counts borrow attempts.
// Label:
//   - result: "ok", "rejected" (book not available) or "error"
var BorrowsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "borrows_total",
		Help:      "Total number of borrow attempts, by result.",
	},
	[]string{"result"},
)

// ReturnsTotal counts return attempts.
// Label:
//   - result: "ok", "rejected" (no active borrow) or "error"
var ReturnsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "returns_total",
		Help:      "Total number of return attempts, by result.",
	},
	[]string{"result"},
)

// LedgerOperationDuration measures borrow and return latency including the
// storage transaction.
// Label:
//   - operation: "borrow" or "return"
var LedgerOperationDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "ledger_operation_duration_seconds",
		Help:      "Duration of borrow/return operations.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"operation"},
)

// Result classifies err for the result label: nil is "ok", an expected
// domain rejection is "rejected", anything else is "error".
func Result(err error, rejected func(error) bool) string {
	switch {
	case err == nil:
		return ResultOK
	case rejected(err):
		return ResultRejected
	default:
		return ResultError
	}
}
