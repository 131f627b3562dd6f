package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveRequest(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveRequest("csv", OutcomeSucceeded, 10, 2, 50*time.Millisecond)
	m.ObserveRequest("", OutcomeFailed, 0, 0, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("csv", OutcomeSucceeded)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("unknown", OutcomeFailed)))
	assert.Equal(t, 10.0, testutil.ToFloat64(m.RowsProcessed.WithLabelValues("csv")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.FieldsMasked))

	m.IncAuditFailures()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuditFailures))
}
