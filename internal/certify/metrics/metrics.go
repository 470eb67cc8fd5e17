package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics for the course strategy host.
type Metrics struct {
	CoursesCreated     prometheus.Counter
	CertificatesMinted prometheus.Counter
	HookRejected       *prometheus.CounterVec
}

func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		CoursesCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "seal_certify_courses_created_total",
			Help: "Courses cloned from templates",
		}),
		CertificatesMinted: f.NewCounter(prometheus.CounterOpts{
			Name: "seal_certify_certificates_minted_total",
			Help: "Certificates minted",
		}),
		HookRejected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "seal_certify_hook_rejected_total",
			Help: "Strategy attestations rejected, by reason",
		}, []string{"reason"}),
	}
}

func (m *Metrics) IncCoursesCreated() {
	m.CoursesCreated.Inc()
}

func (m *Metrics) AddCertificatesMinted(n int) {
	m.CertificatesMinted.Add(float64(n))
}

func (m *Metrics) IncHookRejected(reason string) {
	m.HookRejected.WithLabelValues(reason).Inc()
}
