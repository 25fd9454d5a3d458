package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records login attempts by method (uname|email) and result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carecoord_auth_attempts_total",
			Help: "Total number of login attempts",
		},
		[]string{"method", "result"},
	)

	// InviteCodes counts invite code lifecycle events (generated|used|rejected|revoked|expired).
	InviteCodes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carecoord_invite_codes_total",
			Help: "Invite code lifecycle events",
		},
		[]string{"action"},
	)

	// RecurringTasksGenerated counts tasks materialised from recurring templates.
	RecurringTasksGenerated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "carecoord_recurring_tasks_generated_total",
			Help: "Number of tasks generated from recurring templates",
		},
	)

	// MaintenanceRuns records background job executions by job and result.
	MaintenanceRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carecoord_maintenance_runs_total",
			Help: "Background maintenance job executions",
		},
		[]string{"job", "result"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "carecoord_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
