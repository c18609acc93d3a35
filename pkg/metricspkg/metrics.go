// Package metricspkg declares the prometheus collectors of the service.
package metricspkg

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// TypeInvalid labels operations of an unknown transaction type.
const TypeInvalid = "invalid"

// Outcome labels.
const (
	OutcomeSuccess          = "success"
	OutcomeApprovalRequired = "approval_required"
	OutcomeRejected         = "rejected"
	OutcomeFailed           = "failed"
)

var (
	// TransactionsTotal counts engine operations by transaction type and outcome.
	TransactionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "custody_transactions_total",
		Help: "Engine operations processed, labeled by transaction type and outcome",
	}, []string{"type", "outcome"})

	// TransactionDuration observes the time spent inside the ledger atomic unit.
	TransactionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "custody_transaction_duration_seconds",
		Help:    "Latency distribution of engine operations",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"type"})

	// ApprovalsTotal counts approval workflow transitions.
	ApprovalsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "custody_approvals_total",
		Help: "Approval requests labeled by decision",
	}, []string{"decision"})

	// HTTPRequestsTotal counts HTTP requests by method, route and status code.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "custody_http_requests_total",
		Help: "Total HTTP requests processed, labeled by status code",
	}, []string{"method", "endpoint", "status"})

	// HTTPRequestDuration observes HTTP latency by method and route.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "custody_http_request_duration_seconds",
		Help:    "Latency distribution of HTTP requests",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"method", "endpoint"})

	// LoginLockoutsTotal counts usernames locked after repeated failed logins.
	LoginLockoutsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "custody_login_lockouts_total",
		Help: "Usernames locked after too many failed login attempts",
	})
)
