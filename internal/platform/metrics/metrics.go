package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	SubmissionsTotal  *prometheus.CounterVec
	AssistantCalls    *prometheus.CounterVec
	SuspensionDenials prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		SubmissionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "confide_submissions_total",
			Help: "Submissions processed by the moderation gate, by type and outcome",
		}, []string{"type", "outcome"}),
		AssistantCalls: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "confide_assistant_calls_total",
			Help: "Moderation assistant runs, by terminal status",
		}, []string{"status"}),
		SuspensionDenials: promauto.NewCounter(prometheus.CounterOpts{
			Name: "confide_suspension_denials_total",
			Help: "Requests short-circuited because the submitter identity is suspended",
		}),
	}
}

// RecordSubmission counts one gate decision.
func (m *Metrics) RecordSubmission(submissionType, outcome string) {
	m.SubmissionsTotal.WithLabelValues(submissionType, outcome).Inc()
}

// RecordAssistantCall counts one moderation run by its terminal status.
func (m *Metrics) RecordAssistantCall(status string) {
	m.AssistantCalls.WithLabelValues(status).Inc()
}

// RecordSuspensionDenial counts one banned-identity short-circuit.
func (m *Metrics) RecordSuspensionDenial() {
	m.SuspensionDenials.Inc()
}
