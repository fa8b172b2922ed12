package metrics

import "github.com/prometheus/client_golang/prometheus"

// Query resolution and dataset metrics.
var (
	QueryResolutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "query_resolutions_total",
			Help:      "Resolved queries by route and outcome",
		},
		[]string{"route", "outcome"},
	)

	QueryResolutionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_resolution_duration_seconds",
			Help:      "End-to-end query resolution time in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"route"},
	)

	ClassifierRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classifier_requests_total",
			Help:      "Intent classification calls by status",
		},
		[]string{"model", "status"},
	)

	DatasetRows = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_rows",
			Help:      "Indexed rows per ready dataset",
		},
		[]string{"dataset"},
	)

	DatasetBuildsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dataset_builds_total",
			Help:      "Dataset index builds and loads by outcome",
		},
		[]string{"dataset", "action", "status"}, // action: build / load
	)
)

var queryMetricsRegistered bool

// RegisterQueryMetrics registers query and dataset metrics. Must be called once from main.
func RegisterQueryMetrics() {
	if queryMetricsRegistered {
		return
	}
	prometheus.MustRegister(QueryResolutionsTotal)
	prometheus.MustRegister(QueryResolutionDuration)
	prometheus.MustRegister(ClassifierRequestsTotal)
	prometheus.MustRegister(DatasetRows)
	prometheus.MustRegister(DatasetBuildsTotal)
	queryMetricsRegistered = true
}
