package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for request counters.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
)

// Metrics holds the Prometheus collectors for obfuscation requests.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RowsProcessed   *prometheus.CounterVec
	FieldsMasked    prometheus.Counter
	RequestDuration *prometheus.HistogramVec
	AuditFailures   prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "obfuscator_requests_total",
			Help: "Total obfuscation requests by detected format and outcome",
		}, []string{"format", "outcome"}),
		RowsProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "obfuscator_rows_processed_total",
			Help: "Total records decoded and re-encoded",
		}, []string{"format"}),
		FieldsMasked: factory.NewCounter(prometheus.CounterOpts{
			Name: "obfuscator_fields_masked_total",
			Help: "Total requested PII fields that matched a column or key",
		}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "obfuscator_request_duration_seconds",
			Help:    "End-to-end obfuscation latency including store I/O",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"format"}),
		AuditFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "obfuscator_audit_failures_total",
			Help: "Audit events that could not be recorded",
		}),
	}
}

// ObserveRequest records one finished request. format is empty when the
// request failed before detection.
func (m *Metrics) ObserveRequest(format, outcome string, rows, masked int, d time.Duration) {
	if format == "" {
		format = "unknown"
	}
	m.RequestsTotal.WithLabelValues(format, outcome).Inc()
	m.RequestDuration.WithLabelValues(format).Observe(d.Seconds())
	if outcome == OutcomeSucceeded {
		m.RowsProcessed.WithLabelValues(format).Add(float64(rows))
		m.FieldsMasked.Add(float64(masked))
	}
}

func (m *Metrics) IncAuditFailures() {
	m.AuditFailures.Inc()
}
