// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the refresh pipeline.
type Metrics struct {
	// Refresh run metrics
	RunsTotal   *prometheus.CounterVec // chain, status
	RunDuration *prometheus.HistogramVec

	// Warehouse metrics
	QueryDuration  *prometheus.HistogramVec
	SessionRetries prometheus.Counter
	EventsFetched  *prometheus.GaugeVec

	// Snapshot metrics
	RowsStored        *prometheus.GaugeVec
	SnapshotTotalRows *prometheus.GaugeVec

	// Health metrics
	LastSuccessfulRun *prometheus.GaugeVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "smartmoney_lab"
	}

	return &Metrics{
		RunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "refresh",
			Name:      "runs_total",
			Help:      "Total number of refresh runs by chain and status",
		}, []string{"chain", "status"}),
		RunDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "refresh",
			Name:      "duration_seconds",
			Help:      "Refresh run duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600, 900},
		}, []string{"chain"}),

		QueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "warehouse",
			Name:      "query_duration_seconds",
			Help:      "Swap-event fetch duration in seconds, retries included",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600, 900},
		}, []string{"chain"}),
		SessionRetries: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "warehouse",
			Name:      "session_retries_total",
			Help:      "Total number of locked-session reconnect retries",
		}),
		EventsFetched: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "warehouse",
			Name:      "events_fetched",
			Help:      "Swap events fetched in the most recent run",
		}, []string{"chain"}),

		RowsStored: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "rows_stored",
			Help:      "Wallet rows published in the most recent run",
		}, []string{"chain"}),
		SnapshotTotalRows: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "total_rows",
			Help:      "Total published rows per chain after the most recent run",
		}, []string{"chain"}),

		LastSuccessfulRun: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "refresh",
			Name:      "last_successful_run_timestamp_seconds",
			Help:      "Unix timestamp of the last successful refresh per chain",
		}, []string{"chain"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
