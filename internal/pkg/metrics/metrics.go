// internal/pkg/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	AssignmentsTotal      *prometheus.CounterVec
	AssignmentDuration    prometheus.Histogram
	AssignmentLockWait    prometheus.Histogram
	OnlineAgents          prometheus.Gauge
	StreamMessagesTotal   *prometheus.CounterVec
	OTPIssuedTotal        *prometheus.CounterVec
	OTPVerificationsTotal *prometheus.CounterVec
	OTPPurgedTotal        prometheus.Counter
	EmailsTotal           *prometheus.CounterVec
	AgentConnections      prometheus.Gauge
}

// NewMetrics registers every collector against reg. Pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		AssignmentsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "support_assignments_total",
			Help: "Ticket assignment attempts by outcome",
		}, []string{"outcome"}),
		AssignmentDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "support_assignment_duration_seconds",
			Help:    "Time taken to pick and persist an agent for a ticket",
			Buckets: prometheus.DefBuckets,
		}),
		AssignmentLockWait: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "support_assignment_lock_wait_seconds",
			Help:    "Time spent waiting for the assignment lock",
			Buckets: prometheus.DefBuckets,
		}),
		OnlineAgents: factory.NewGauge(prometheus.GaugeOpts{
			Name: "support_online_agents",
			Help: "Online agents seen by the most recent assignment",
		}),
		StreamMessagesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "support_stream_messages_total",
			Help: "Ticket-created stream messages handled by status",
		}, []string{"status"}),
		OTPIssuedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "otp_issued_total",
			Help: "One-time passcodes issued by purpose",
		}, []string{"purpose"}),
		OTPVerificationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "otp_verifications_total",
			Help: "One-time passcode verifications by result",
		}, []string{"result"}),
		OTPPurgedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "otp_purged_total",
			Help: "Expired one-time passcodes removed by the janitor",
		}),
		EmailsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "emails_total",
			Help: "Outbound emails by kind and status",
		}, []string{"kind", "status"}),
		AgentConnections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "support_agent_ws_connections",
			Help: "Open agent websocket connections",
		}),
	}
}
