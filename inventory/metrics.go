package inventory

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeOK       = "ok"
	outcomeRejected = "rejected"
	outcomeFailed   = "failed"
)

// Metrics holds the ledger's prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	operations     *prometheus.CounterVec
	animals        *prometheus.GaugeVec
	unresolved     prometheus.Gauge
	persistLatency prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "farmledger_operations_total",
				Help: "Ledger operations by outcome",
			},
			[]string{"operation", "outcome"},
		),
		animals: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "farmledger_animals",
				Help: "Animals currently held per category",
			},
			[]string{"category"},
		),
		unresolved: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "farmledger_unresolved_discrepancies",
			Help: "Categories with an open stock count discrepancy",
		}),
		persistLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "farmledger_persist_seconds",
			Help:    "Time taken to write the ledger document",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.operations, m.animals, m.unresolved, m.persistLatency)
	}
	return m
}

func (m *Metrics) observe(op, outcome string) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(op, outcome).Inc()
}

func (m *Metrics) observePersist(d time.Duration) {
	if m == nil {
		return
	}
	m.persistLatency.Observe(d.Seconds())
}

// snapshot resets the gauges from s. Categories that emptied out disappear.
func (m *Metrics) snapshot(s *State) {
	if m == nil {
		return
	}
	m.animals.Reset()
	for name, rec := range s.Inventory {
		m.animals.WithLabelValues(name).Set(float64(rec.Total))
	}
	open := 0
	for _, d := range s.Discrepancies {
		if d.State == DiscrepancyUnresolved {
			open++
		}
	}
	m.unresolved.Set(float64(open))
}
