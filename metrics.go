package jmt

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts proofs built by a Prover. A nil *Metrics records nothing.
type Metrics struct {
	proofs        *prometheus.CounterVec
	inconsistency prometheus.Counter
	pathLength    prometheus.Histogram
}

const (
	proofKindExist    = "exist"
	proofKindNonExist = "nonexist"
)

// NewMetrics creates the prover collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		proofs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "jmt",
			Name:      "proofs_total",
			Help:      "Commitment proofs built, by kind.",
		}, []string{"kind"}),
		inconsistency: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "jmt",
			Name:      "path_inconsistency_total",
			Help:      "Proof requests failed because the node graph disagreed with the leaf index.",
		}),
		pathLength: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "jmt",
			Name:      "existence_path_length",
			Help:      "Inner steps in each existence proof built.",
			Buckets:   prometheus.LinearBuckets(0, 32, 9),
		}),
	}
	for _, c := range []prometheus.Collector{m.proofs, m.inconsistency, m.pathLength} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observeProof(kind string) {
	if m == nil {
		return
	}
	m.proofs.WithLabelValues(kind).Inc()
}

func (m *Metrics) observePath(steps int) {
	if m == nil {
		return
	}
	m.pathLength.Observe(float64(steps))
}

func (m *Metrics) observeInconsistency() {
	if m == nil {
		return
	}
	m.inconsistency.Inc()
}
