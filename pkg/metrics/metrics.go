package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records authentication attempts by result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowline_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"result"},
	)

	// InviteEmails counts invite email dispatches by outcome (sent|failed).
	InviteEmails = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowline_invite_emails_total",
			Help: "Total number of invite email dispatch attempts",
		},
		[]string{"result"},
	)

	// UserDeletions counts completed user deletions by mode (transfer|cascade).
	UserDeletions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowline_user_deletions_total",
			Help: "Total number of completed user deletions",
		},
		[]string{"mode"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "flowline_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
