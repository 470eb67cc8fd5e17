package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks outbox writes and relay throughput.
type Metrics struct {
	Emitted        *prometheus.CounterVec
	Published      prometheus.Counter
	PublishErrors  prometheus.Counter
	RelayBreakerOn prometheus.Gauge
}

func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Emitted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "seal_events_emitted_total",
			Help: "Domain events appended to the outbox, by type",
		}, []string{"type"}),
		Published: f.NewCounter(prometheus.CounterOpts{
			Name: "seal_events_published_total",
			Help: "Outbox events published to Kafka",
		}),
		PublishErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "seal_events_publish_errors_total",
			Help: "Failed outbox publish attempts",
		}),
		RelayBreakerOn: f.NewGauge(prometheus.GaugeOpts{
			Name: "seal_events_relay_circuit_open",
			Help: "1 while the relay circuit breaker is open",
		}),
	}
}

func (m *Metrics) IncEmitted(eventType string) {
	m.Emitted.WithLabelValues(eventType).Inc()
}

func (m *Metrics) AddPublished(n int) {
	m.Published.Add(float64(n))
}

func (m *Metrics) IncPublishErrors() {
	m.PublishErrors.Inc()
}

func (m *Metrics) SetBreakerOpen(open bool) {
	if open {
		m.RelayBreakerOn.Set(1)
		return
	}
	m.RelayBreakerOn.Set(0)
}
