package monitoring

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecording(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordSwapApplied()
	m.RecordSwapApplied()
	m.RecordStaleProposal()
	m.RecordCycleRejected()
	m.RecordProposal("provider")
	m.RecordCache("hit")
	m.RecordAnalysis("t-1", 42, 3*time.Millisecond)
	m.RecordHTTPRequest(http.MethodGet, "/api/v1/templates/{templateID}", http.StatusOK, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.swapsAppliedTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.staleProposalsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cycleRejectionsTotal))
	assert.Equal(t, 42.0, testutil.ToFloat64(m.fillPercentage.WithLabelValues("t-1")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "rotation_swaps_applied_total 2")
}

func TestMetricsAreIsolated(t *testing.T) {
	a := NewMetrics(nil)
	b := NewMetrics(nil)
	a.RecordSwapApplied()
	assert.Equal(t, 0.0, testutil.ToFloat64(b.swapsAppliedTotal))
}
