// Package metrics defines the Prometheus collectors exported by the
// server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CascadeDeletionsTotal counts entities removed by cascade deletes,
	// by entity kind.
	CascadeDeletionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "craglog_cascade_deletions_total",
			Help: "Entities removed by cascade deletes",
		},
		[]string{"entity"},
	)

	// CascadeAbortsTotal counts cascade transactions that rolled back.
	CascadeAbortsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "craglog_cascade_aborts_total",
			Help: "Cascade deletes that were rolled back",
		},
		[]string{"operation"},
	)

	// TxRetriesTotal counts transactions rerun after a serialization
	// conflict.
	TxRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "craglog_store_tx_retries_total",
			Help: "Store transactions retried after a serialization conflict",
		},
		[]string{"dialect"},
	)
)

// RecordCascade adds the entities removed by one committed cascade.
func RecordCascade(ascents int, routeDeleted, areaDeleted bool) {
	CascadeDeletionsTotal.WithLabelValues("ascent").Add(float64(ascents))
	if routeDeleted {
		CascadeDeletionsTotal.WithLabelValues("route").Inc()
	}
	if areaDeleted {
		CascadeDeletionsTotal.WithLabelValues("area").Inc()
	}
}
