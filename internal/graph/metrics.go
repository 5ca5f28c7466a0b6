package graph

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts executed GraphQL operations.
type Metrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "graphql_operations_total",
				Help: "Total number of GraphQL operations executed.",
			},
			[]string{"operation", "type", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "graphql_operation_duration_seconds",
				Help:    "GraphQL operation latency.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "type"},
		),
	}
	if err := reg.Register(m.operations); err != nil {
		return nil, err
	}
	if err := reg.Register(m.duration); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) observe(operation, opType string, failed bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if failed {
		status = "error"
	}
	m.operations.WithLabelValues(operation, opType, status).Inc()
	m.duration.WithLabelValues(operation, opType).Observe(elapsed.Seconds())
}
