package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	ChallengesIssued prometheus.Counter
	TokensIssued     prometheus.Counter
	LoginFailures    *prometheus.CounterVec
}

func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ChallengesIssued: f.NewCounter(prometheus.CounterOpts{
			Name: "seal_auth_challenges_issued_total",
			Help: "Sign-in challenges issued",
		}),
		TokensIssued: f.NewCounter(prometheus.CounterOpts{
			Name: "seal_auth_tokens_issued_total",
			Help: "Caller tokens issued after a verified signature",
		}),
		LoginFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "seal_auth_login_failures_total",
			Help: "Rejected sign-in attempts, by reason",
		}, []string{"reason"}),
	}
}

func (m *Metrics) IncLoginFailure(reason string) {
	m.LoginFailures.WithLabelValues(reason).Inc()
}
