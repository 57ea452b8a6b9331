package completion

import "github.com/prometheus/client_golang/prometheus"

var (
	connectorInvocations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "completiond",
			Subsystem: "connector",
			Name:      "invocations_total",
			Help:      "Connector functions invoked, per model",
		},
		[]string{"model"},
	)

	connectorFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "completiond",
			Subsystem: "connector",
			Name:      "failures_total",
			Help:      "Connector or inference failures, per model and stage",
		},
		[]string{"model", "stage"},
	)

	completionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "completiond",
			Subsystem: "completion",
			Name:      "duration_seconds",
			Help:      "Time spent loading and running a model for one request",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"model"},
	)

	// Unknown ids are not used as labels to keep cardinality bounded.
	modelNotFoundTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "completiond",
			Subsystem: "completion",
			Name:      "model_not_found_total",
			Help:      "Requests naming a model that is not registered",
		},
	)
)

func init() {
	prometheus.MustRegister(connectorInvocations, connectorFailures, completionDuration, modelNotFoundTotal)
}
