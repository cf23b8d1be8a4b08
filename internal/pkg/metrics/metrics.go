// Package metrics holds the process-wide prometheus collectors of the service.
// Collectors are registered on the default registry and exposed on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Reconciliation paths.
const (
	PathVendor   = "vendor"
	PathCustomer = "customer"
)

var (
	// reconcileOutcomes counts every handled signal by path and outcome
	// (applied, replayed or a failure kind).
	reconcileOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fulfillment_reconcile_outcomes_total",
		Help: "Reconciled signals by ingress path and outcome",
	}, []string{"path", "outcome"})

	reconcileDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fulfillment_reconcile_duration_seconds",
		Help:    "Duration of signal reconciliation by ingress path",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"path"})

	versionConflicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fulfillment_version_conflicts_total",
		Help: "Optimistic concurrency conflicts detected while storing orders",
	}, []string{"path"})

	ordersOnHold = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fulfillment_orders_on_hold",
		Help: "Orders currently paused in a hold status",
	}, []string{"status"})

	outboxPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fulfillment_outbox_notifications_total",
		Help: "Outbox notifications handled by the relay, by result",
	}, []string{"result"})
)

func label(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// ObserveReconcile records one reconciliation outcome and its duration.
func ObserveReconcile(path, outcome string, elapsed time.Duration) {
	path = label(path, "unknown")
	reconcileOutcomes.WithLabelValues(path, label(outcome, "unknown")).Inc()
	reconcileDuration.WithLabelValues(path).Observe(elapsed.Seconds())
}

// IncVersionConflict counts a compare-and-swap that lost against another writer.
func IncVersionConflict(path string) {
	versionConflicts.WithLabelValues(label(path, "unknown")).Inc()
}

// SetOrdersOnHold replaces the hold gauge. Statuses missing from counts are reset to zero.
func SetOrdersOnHold(statuses []string, counts map[string]int) {
	for _, status := range statuses {
		ordersOnHold.WithLabelValues(status).Set(float64(counts[status]))
	}
}

// IncOutbox counts a relay result: "published" or "failed".
func IncOutbox(result string) {
	outboxPublished.WithLabelValues(label(result, "unknown")).Inc()
}
