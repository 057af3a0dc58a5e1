package metrics

import "github.com/prometheus/client_golang/prometheus"

// AuthMetrics counts login, register and logout attempts.
type AuthMetrics struct {
	attempts *prometheus.CounterVec
}

// NewAuthMetrics registers the auth metrics on the provided registerer.
func NewAuthMetrics(reg prometheus.Registerer) *AuthMetrics {
	if reg == nil {
		return &AuthMetrics{}
	}
	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_auth_attempts_total",
		Help: "Auth session operations by name and result.",
	}, []string{"op", "result"})
	reg.MustRegister(attempts)
	return &AuthMetrics{attempts: attempts}
}

func (a *AuthMetrics) IncAttempt(op, result string) {
	if a == nil || a.attempts == nil {
		return
	}
	a.attempts.WithLabelValues(normalizeLabel(op), normalizeLabel(result)).Inc()
}
