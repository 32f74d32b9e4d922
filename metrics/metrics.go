// Package metrics exposes list activity as prometheus collectors.
package metrics

import (
	"github.com/lian99/Operating-Systems/concurrentlist"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "ocl"
	subsystem = "list"
)

// Metrics counts list operations and lock acquisitions. It implements
// concurrentlist.Observer.
type Metrics struct {
	operations       *prometheus.CounterVec
	lockAcquisitions prometheus.Counter
	inFlight         prometheus.Gauge
}

var _ concurrentlist.Observer = (*Metrics)(nil)

// New creates the collectors and registers them with reg. A nil reg leaves
// them unregistered.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "operations_total",
				Help:      "Counter of completed list operations.",
			}, []string{"kind"}),
		lockAcquisitions: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "lock_acquisitions_total",
				Help:      "Counter of entrance and node lock acquisitions.",
			}),
		inFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "operations_in_flight",
				Help:      "Number of list operations currently running.",
			}),
	}
	if reg != nil {
		reg.MustRegister(m.operations, m.lockAcquisitions, m.inFlight)
	}
	return m
}

// RegisterLength exposes length() as the list length gauge.
func RegisterLength(reg prometheus.Registerer, length func() int) {
	reg.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "length",
			Help:      "Number of values in the list.",
		}, func() float64 { return float64(length()) }))
}

func (m *Metrics) OpStarted(op concurrentlist.OpID, kind concurrentlist.OpKind) {
	m.inFlight.Inc()
}

func (m *Metrics) LockAcquired(op concurrentlist.OpID, lock concurrentlist.LockID) {
	m.lockAcquisitions.Inc()
}

func (m *Metrics) LockReleasing(op concurrentlist.OpID, lock concurrentlist.LockID) {}

func (m *Metrics) OpFinished(op concurrentlist.OpID, kind concurrentlist.OpKind) {
	m.inFlight.Dec()
	m.operations.WithLabelValues(kind.String()).Inc()
}
