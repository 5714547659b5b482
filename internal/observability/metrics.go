// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Evaluation metrics
	EvaluationsTotal   *prometheus.CounterVec
	EvaluationDuration *prometheus.HistogramVec
	PointsPersisted    *prometheus.CounterVec
	PointsDuplicate    *prometheus.CounterVec
	LastPrice          *prometheus.GaugeVec

	// Block metrics
	BlocksProcessed    prometheus.Counter
	LastProcessedBlock prometheus.Gauge
	HeadBlock          prometheus.Gauge

	// Latency metrics
	RPCCallLatency *prometheus.HistogramVec
	RPCCallErrors  *prometheus.CounterVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec
	MirrorErrors    *prometheus.CounterVec

	// Health metrics
	LastSuccessfulBlock prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "twap_indexer"
	}

	return &Metrics{
		EvaluationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orchestrator",
			Name:      "evaluations_total",
			Help:      "Total number of pair evaluations by pair, result and stage reached",
		}, []string{"pair", "result", "stage"}),
		EvaluationDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "orchestrator",
			Name:      "evaluation_duration_seconds",
			Help:      "Pair evaluation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"pair"}),
		PointsPersisted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sink",
			Name:      "points_persisted_total",
			Help:      "Total number of price points newly stored",
		}, []string{"pair"}),
		PointsDuplicate: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sink",
			Name:      "points_duplicate_total",
			Help:      "Total number of price points already present at insert time",
		}, []string{"pair"}),
		LastPrice: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sink",
			Name:      "last_price",
			Help:      "Last computed price per pair (quote per base)",
		}, []string{"pair"}),

		BlocksProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "indexer",
			Name:      "blocks_processed_total",
			Help:      "Total number of triggering blocks processed",
		}),
		LastProcessedBlock: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "indexer",
			Name:      "last_processed_block",
			Help:      "Number of the last block handed to the orchestrator",
		}),
		HeadBlock: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "indexer",
			Name:      "head_block",
			Help:      "Latest chain head seen",
		}),

		RPCCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ethereum",
			Name:      "rpc_call_latency_seconds",
			Help:      "Ethereum RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		RPCCallErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ethereum",
			Name:      "rpc_call_errors_total",
			Help:      "Total number of failed Ethereum RPC calls",
		}, []string{"method"}),

		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),
		MirrorErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sink",
			Name:      "mirror_errors_total",
			Help:      "Total number of failed writes to secondary stores",
		}, []string{"mirror"}),

		LastSuccessfulBlock: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_block_timestamp",
			Help:      "Unix timestamp of the last block where every pair succeeded",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordEvaluation records the outcome of one pair evaluation.
// result is "ok" or "skipped"; stage is the last stage reached.
func RecordEvaluation(pair, result, stage string, seconds float64) {
	DefaultMetrics.EvaluationsTotal.WithLabelValues(pair, result, stage).Inc()
	DefaultMetrics.EvaluationDuration.WithLabelValues(pair).Observe(seconds)
}

// RecordPersisted records a write to the primary store.
func RecordPersisted(pair string, inserted bool, price float64) {
	if inserted {
		DefaultMetrics.PointsPersisted.WithLabelValues(pair).Inc()
	} else {
		DefaultMetrics.PointsDuplicate.WithLabelValues(pair).Inc()
	}
	DefaultMetrics.LastPrice.WithLabelValues(pair).Set(price)
}

// RecordBlock records a processed block.
func RecordBlock(number uint64, timestamp int64, allSucceeded bool) {
	DefaultMetrics.BlocksProcessed.Inc()
	DefaultMetrics.LastProcessedBlock.Set(float64(number))
	if allSucceeded {
		DefaultMetrics.LastSuccessfulBlock.Set(float64(timestamp))
	}
}

// UpdateHeadBlock updates the chain head gauge.
func UpdateHeadBlock(number uint64) {
	DefaultMetrics.HeadBlock.Set(float64(number))
}

// RecordRPCLatency records RPC call latency.
func RecordRPCLatency(method string, seconds float64) {
	DefaultMetrics.RPCCallLatency.WithLabelValues(method).Observe(seconds)
}

// RecordRPCError records a failed RPC call.
func RecordRPCError(method string) {
	DefaultMetrics.RPCCallErrors.WithLabelValues(method).Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// RecordMirrorError records a failed mirror write.
func RecordMirrorError(mirror string) {
	DefaultMetrics.MirrorErrors.WithLabelValues(mirror).Inc()
}
