package libpepper

import (
	"github.com/2x3systems/peppercorn/pepper"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts enumeration activity. A nil *Metrics is valid and records nothing.
type Metrics struct {
	Complexes prometheus.Counter
	Reactions *prometheus.CounterVec // by reaction label
	Rejected  prometheus.Counter     // candidate moves discarded for structural reasons
	Dropped   prometheus.Counter     // reactions dropped because the rate model failed
	Cutoffs   *prometheus.CounterVec // by cutoff name
	Resting   prometheus.Gauge
	Transient prometheus.Gauge
}

// NewMetrics creates the enumeration collectors and registers them with reg (if non-nil).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Complexes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pepper",
			Name:      "complexes_total",
			Help:      "Complexes discovered.",
		}),
		Reactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pepper",
			Name:      "reactions_total",
			Help:      "Detailed reactions discovered, by kind.",
		}, []string{"kind"}),
		Rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pepper",
			Name:      "moves_rejected_total",
			Help:      "Candidate moves discarded because the product was not a valid complex.",
		}),
		Dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pepper",
			Name:      "reactions_dropped_total",
			Help:      "Reactions dropped because the rate model failed.",
		}),
		Cutoffs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pepper",
			Name:      "cutoffs_total",
			Help:      "Cutoff events, by cutoff.",
		}, []string{"cutoff"}),
		Resting: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pepper",
			Name:      "resting_complexes",
			Help:      "Resting complexes in the last enumeration.",
		}),
		Transient: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pepper",
			Name:      "transient_complexes",
			Help:      "Transient complexes in the last enumeration.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Complexes, m.Reactions, m.Rejected, m.Dropped, m.Cutoffs, m.Resting, m.Transient)
	}
	return m
}

func (m *Metrics) complexAdded() {
	if m != nil {
		m.Complexes.Inc()
	}
}

func (m *Metrics) reactionAdded(rxn *Reaction) {
	if m != nil {
		m.Reactions.WithLabelValues(rxn.Label()).Inc()
	}
}

func (m *Metrics) moveRejected() {
	if m != nil {
		m.Rejected.Inc()
	}
}

func (m *Metrics) reactionDropped() {
	if m != nil {
		m.Dropped.Inc()
	}
}

func (m *Metrics) cutoffHit(c pepper.Cutoff) {
	if m != nil {
		m.Cutoffs.WithLabelValues(c.String()).Inc()
	}
}

func (m *Metrics) setPartition(resting, transient int) {
	if m != nil {
		m.Resting.Set(float64(resting))
		m.Transient.Set(float64(transient))
	}
}
