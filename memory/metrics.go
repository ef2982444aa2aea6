package memory

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus instruments a Memory reports into. A nil
// *Metrics disables all reporting, so instrumentation stays opt-in and
// the library never registers on the default registry behind the
// caller's back.
type Metrics struct {
	insertsTotal    prometheus.Counter
	evictionsTotal  prometheus.Counter
	queriesTotal    prometheus.Counter
	queryCandidates prometheus.Histogram
	records         prometheus.Gauge
}

// NewMetrics creates the instruments and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		insertsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sparsemem",
			Name:      "inserts_total",
			Help:      "Total records inserted.",
		}),
		evictionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sparsemem",
			Name:      "evictions_total",
			Help:      "Total records evicted by capacity pressure.",
		}),
		queriesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sparsemem",
			Name:      "queries_total",
			Help:      "Total retrieval queries served.",
		}),
		queryCandidates: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "sparsemem",
			Name:      "query_candidates",
			Help:      "Candidate set size per query before ranking.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		records: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "sparsemem",
			Name:      "records",
			Help:      "Current number of live records.",
		}),
	}
	reg.MustRegister(m.insertsTotal, m.evictionsTotal, m.queriesTotal, m.queryCandidates, m.records)
	return m
}

func (m *Metrics) recordInsert(size int) {
	if m == nil {
		return
	}
	m.insertsTotal.Inc()
	m.records.Set(float64(size))
}

func (m *Metrics) recordEviction() {
	if m == nil {
		return
	}
	m.evictionsTotal.Inc()
}

func (m *Metrics) recordQuery(candidates int) {
	if m == nil {
		return
	}
	m.queriesTotal.Inc()
	m.queryCandidates.Observe(float64(candidates))
}

func (m *Metrics) setRecords(size int) {
	if m == nil {
		return
	}
	m.records.Set(float64(size))
}
