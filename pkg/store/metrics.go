package store

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Mutation results reported by Metrics
const (
	ResultApplied = "applied"
	ResultNoop    = "noop"
	ResultError   = "error"
)

// Metrics collects store and dictionary instrumentation. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	mutations *prometheus.CounterVec
	terms     prometheus.Counter
	duration  *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		mutations: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "hexagraph_mutations_total",
			Help: "Number of quad mutations by operation and result",
		}, []string{"op", "result"}),
		terms: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "hexagraph_dictionary_terms_total",
			Help: "Number of identifiers assigned by the dictionary",
		}),
		duration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hexagraph_operation_duration_seconds",
			Help:    "Duration of store operations",
			Buckets: prometheus.ExponentialBuckets(0.00005, 4, 10),
		}, []string{"op"}),
	}
}

// TermAssigned counts one newly assigned identifier
func (m *Metrics) TermAssigned() {
	if m == nil {
		return
	}
	m.terms.Inc()
}

func (m *Metrics) mutation(op, result string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.mutations.WithLabelValues(op, result).Add(float64(n))
}

func (m *Metrics) observe(op string, start time.Time) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
