package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics covers the local provider and the hook dispatcher.
type Metrics struct {
	AttestationsMade prometheus.Counter
	Dispatched       *prometheus.CounterVec
	IngestMalformed  prometheus.Counter
	DispatchDuration prometheus.Histogram
}

func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		AttestationsMade: f.NewCounter(prometheus.CounterOpts{
			Name: "seal_attestations_made_total",
			Help: "Attestations stored by the local provider",
		}),
		Dispatched: f.NewCounterVec(prometheus.CounterOpts{
			Name: "seal_attestations_dispatched_total",
			Help: "External attestation deliveries by outcome (delivered, duplicate, rejected)",
		}, []string{"outcome"}),
		IngestMalformed: f.NewCounter(prometheus.CounterOpts{
			Name: "seal_attestation_ingest_malformed_total",
			Help: "Ingested records that could not be decoded",
		}),
		DispatchDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "seal_attestation_dispatch_duration_seconds",
			Help:    "Duration of hook invocations for external attestations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

func (m *Metrics) IncAttestationsMade() {
	m.AttestationsMade.Inc()
}

func (m *Metrics) IncDispatched(outcome string) {
	m.Dispatched.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncIngestMalformed() {
	m.IngestMalformed.Inc()
}

// ObserveDispatch records a hook invocation started at start.
func (m *Metrics) ObserveDispatch(start time.Time) {
	m.DispatchDuration.Observe(time.Since(start).Seconds())
}
