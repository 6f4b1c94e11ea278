package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()
	m.RunStarted()
	m.RunFinished("succeeded")
	m.ExportFinished("csv", true)
	m.ExportFinished("aws_s3", false)
	m.ExportFinished("aws_s3", false)
	m.ObserveRequest("/v1/profile", 200)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("succeeded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.exports.WithLabelValues("csv", "success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.exports.WithLabelValues("aws_s3", "failure")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.inFlight))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("/v1/profile", "200")))
}

func TestObserveStage(t *testing.T) {
	m := New()
	m.ObserveStage("impute", 20*time.Millisecond)
	m.ObserveStage("impute", 30*time.Millisecond)
	m.ObserveStage("export", time.Millisecond)

	assert.Equal(t, 2, testutil.CollectAndCount(m.stageDuration))
}

func TestNilMetricsIsNoOp(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RunStarted()
		m.RunFinished("failed")
		m.ObserveStage("import", time.Second)
		m.ExportFinished("csv", true)
		m.ObserveRequest("/", 500)
	})
}

func TestHandler(t *testing.T) {
	m := New()
	m.RunStarted()
	m.RunFinished("failed")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `tabprep_runs_total{status="failed"} 1`), body)
	assert.Contains(t, body, "go_goroutines")
}
