package metrics_test

import (
	"testing"
	"time"

	"fulfillment/internal/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gather(t *testing.T, name string) []map[string]string {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	var series []map[string]string
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, m := range family.GetMetric() {
			labels := map[string]string{}
			for _, pair := range m.GetLabel() {
				labels[pair.GetName()] = pair.GetValue()
			}
			series = append(series, labels)
		}
	}
	return series
}

func TestObserveReconcile(t *testing.T) {
	metrics.ObserveReconcile(metrics.PathVendor, "applied", 10*time.Millisecond)
	metrics.ObserveReconcile("", "", time.Millisecond)

	series := gather(t, "fulfillment_reconcile_outcomes_total")

	assert.Contains(t, series, map[string]string{"path": "vendor", "outcome": "applied"})
	assert.Contains(t, series, map[string]string{"path": "unknown", "outcome": "unknown"})
}

func TestSetOrdersOnHold(t *testing.T) {
	metrics.SetOrdersOnHold([]string{"OnHold_BadFiles", "OnHold_MissingFile"}, map[string]int{"OnHold_BadFiles": 3})

	series := gather(t, "fulfillment_orders_on_hold")

	assert.Contains(t, series, map[string]string{"status": "OnHold_BadFiles"})
	assert.Contains(t, series, map[string]string{"status": "OnHold_MissingFile"})
}
