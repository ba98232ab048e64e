package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	LoginAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "fintrack", Name: "login_attempts_total", Help: "Login attempts by result."},
		[]string{"result"},
	)
	RefreshAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "fintrack", Name: "token_refresh_total", Help: "Access token refreshes by result."},
		[]string{"result"},
	)
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "fintrack", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "fintrack", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	SessionsSwept = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "fintrack", Name: "sessions_swept_total", Help: "Expired refresh sessions deleted by the sweeper."},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(LoginAttempts)
	reg.MustRegister(RefreshAttempts)
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(SessionsSwept)
}
