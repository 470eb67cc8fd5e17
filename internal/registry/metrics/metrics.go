package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics for the registry ledger.
type Metrics struct {
	ProfilesCreated prometheus.Counter
	CreditsAdded    *prometheus.CounterVec
	CreditsConsumed prometheus.Counter
	HookRejected    *prometheus.CounterVec
}

func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ProfilesCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "seal_registry_profiles_created_total",
			Help: "Profiles created from attestations",
		}),
		CreditsAdded: f.NewCounterVec(prometheus.CounterOpts{
			Name: "seal_registry_credits_added_total",
			Help: "Credits added, by destination (account or profile)",
		}, []string{"destination"}),
		CreditsConsumed: f.NewCounter(prometheus.CounterOpts{
			Name: "seal_registry_credits_consumed_total",
			Help: "Profile credits consumed by strategies",
		}),
		HookRejected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "seal_registry_hook_rejected_total",
			Help: "Profile creation attestations rejected, by reason",
		}, []string{"reason"}),
	}
}

func (m *Metrics) IncProfilesCreated() {
	m.ProfilesCreated.Inc()
}

func (m *Metrics) AddCredits(destination string, credits uint64) {
	m.CreditsAdded.WithLabelValues(destination).Add(float64(credits))
}

func (m *Metrics) AddCreditsConsumed(credits uint64) {
	m.CreditsConsumed.Add(float64(credits))
}

func (m *Metrics) IncHookRejected(reason string) {
	m.HookRejected.WithLabelValues(reason).Inc()
}
