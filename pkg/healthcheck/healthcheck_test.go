package healthcheck

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubChecker struct {
	status  Status
	message string
	calls   atomic.Int32
}

func (s *stubChecker) Check(ctx context.Context) Check {
	s.calls.Add(1)
	return Check{Status: s.status, Message: s.message, LastChecked: time.Now()}
}

type stubPinger struct{ err error }

func (p stubPinger) PingContext(ctx context.Context) error { return p.err }

func TestNew(t *testing.T) {
	hc := New("1.0.0", zap.NewNop())

	assert.NotNil(t, hc)
	assert.Equal(t, "1.0.0", hc.version)
	assert.NotNil(t, hc.checkers)
	assert.Equal(t, 5*time.Second, hc.cacheTTL)
}

func TestHealthCheck_Check_NoCheckers(t *testing.T) {
	response := New("1.0.0", zap.NewNop()).Check(context.Background())

	assert.Equal(t, StatusHealthy, response.Status)
	assert.Equal(t, "1.0.0", response.Version)
	assert.Empty(t, response.Checks)
}

func TestHealthCheck_Check_AggregatesWorstStatus(t *testing.T) {
	tests := []struct {
		name     string
		statuses []Status
		expected Status
	}{
		{"AllHealthy", []Status{StatusHealthy, StatusHealthy}, StatusHealthy},
		{"OneDegraded", []Status{StatusHealthy, StatusDegraded}, StatusDegraded},
		{"OneUnhealthy", []Status{StatusDegraded, StatusUnhealthy}, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hc := New("1.0.0", zap.NewNop())
			for i, status := range tt.statuses {
				hc.Register(string(rune('a'+i)), &stubChecker{status: status})
			}

			response := hc.Check(context.Background())

			assert.Equal(t, tt.expected, response.Status)
			assert.Len(t, response.Checks, len(tt.statuses))
		})
	}
}

func TestHealthCheck_Check_UsesCache(t *testing.T) {
	hc := New("1.0.0", zap.NewNop())
	checker := &stubChecker{status: StatusHealthy}
	hc.Register("db", checker)

	hc.Check(context.Background())
	hc.Check(context.Background())
	assert.Equal(t, int32(1), checker.calls.Load())

	hc.SetCacheTTL(0)
	hc.Check(context.Background())
	assert.Equal(t, int32(2), checker.calls.Load())
}

func TestHandlers(t *testing.T) {
	t.Run("Handler_Unhealthy_Returns503", func(t *testing.T) {
		hc := New("1.0.0", zap.NewNop())
		hc.Register("database", NewDatabaseChecker(stubPinger{err: errors.New("refused")}))

		rec := httptest.NewRecorder()
		hc.Handler()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "unhealthy", body["status"])
	})

	t.Run("Readiness_Degraded_StillReady", func(t *testing.T) {
		hc := New("1.0.0", zap.NewNop())
		hc.Register("database", NewDatabaseChecker(stubPinger{}))
		hc.Register("cache", &stubChecker{status: StatusDegraded})

		rec := httptest.NewRecorder()
		hc.ReadinessHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"ready"`)
	})

	t.Run("Liveness_AlwaysAlive", func(t *testing.T) {
		hc := New("1.0.0", zap.NewNop())
		hc.Register("database", &stubChecker{status: StatusUnhealthy})

		rec := httptest.NewRecorder()
		hc.LivenessHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"alive"`)
	})
}

func TestCustomChecker(t *testing.T) {
	checker := NewCustomChecker("graph", func(ctx context.Context) (Status, string, interface{}) {
		return StatusDegraded, "near node budget", map[string]interface{}{"nodes": 9000}
	})

	check := checker.Check(context.Background())

	assert.Equal(t, StatusDegraded, check.Status)
	assert.Equal(t, "near node budget", check.Message)
}

func TestCheck_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(Check{Name: "db", Status: StatusHealthy, Duration: 1500 * time.Millisecond})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"duration_ms":1500`)
}
