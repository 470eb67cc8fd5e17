package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics for the activity strategy host.
type Metrics struct {
	ActivitiesCreated prometheus.Counter
	SealsMinted       prometheus.Counter
	CreditsFunded     prometheus.Counter
	HookRejected      *prometheus.CounterVec
}

func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ActivitiesCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "seal_activities_created_total",
			Help: "Activities cloned from the activity template",
		}),
		SealsMinted: f.NewCounter(prometheus.CounterOpts{
			Name: "seal_seals_minted_total",
			Help: "Seals minted",
		}),
		CreditsFunded: f.NewCounter(prometheus.CounterOpts{
			Name: "seal_activity_credits_funded_total",
			Help: "Profile credits moved into activities",
		}),
		HookRejected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "seal_activity_hook_rejected_total",
			Help: "Activity attestations rejected, by reason",
		}, []string{"reason"}),
	}
}

func (m *Metrics) IncActivitiesCreated(credits uint64) {
	m.ActivitiesCreated.Inc()
	m.CreditsFunded.Add(float64(credits))
}

func (m *Metrics) AddSealsMinted(n int) {
	m.SealsMinted.Add(float64(n))
}

func (m *Metrics) IncHookRejected(reason string) {
	m.HookRejected.WithLabelValues(reason).Inc()
}
