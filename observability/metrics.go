// Package observability holds the Prometheus collectors of the activity store.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// StoreMetrics counts store mutations and tracks the collection size.
type StoreMetrics struct {
	mutations *prometheus.CounterVec
	size      prometheus.Gauge
}

// NewStoreMetrics builds the collectors and registers them with reg when it is not nil.
func NewStoreMetrics(reg prometheus.Registerer) *StoreMetrics {
	m := &StoreMetrics{
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "study_planner",
			Subsystem: "store",
			Name:      "mutations_total",
			Help:      "Activity store mutations by event type.",
		}, []string{"type"}),
		size: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "study_planner",
			Subsystem: "store",
			Name:      "activities",
			Help:      "Number of activities currently held in memory.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.mutations, m.size)
	}
	return m
}

// RecordMutation counts one committed mutation and the resulting collection size.
func (m *StoreMetrics) RecordMutation(eventType string, size int) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(eventType).Inc()
	m.size.Set(float64(size))
}

// SetSize records the collection size without counting a mutation.
func (m *StoreMetrics) SetSize(size int) {
	if m == nil {
		return
	}
	m.size.Set(float64(size))
}
