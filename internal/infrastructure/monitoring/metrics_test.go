package monitoring

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/GriffinCanCode/replbridge/internal/console"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserverEvents(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.SessionStarted(3 * time.Second)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionReady))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionStarts))

	m.ExecutionFinished(console.KindNone, time.Second)
	m.ExecutionFinished(console.KindInterpreter, 3*time.Second)
	m.ExecutionFinished(console.KindExecutionTimeout, 30*time.Second)
	m.BufferSize(120)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Executions.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Executions.WithLabelValues("interpreter_error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Executions.WithLabelValues("timeout")))
	assert.Equal(t, 120.0, testutil.ToFloat64(m.BufferChars))

	snap := m.Snapshot()
	assert.True(t, snap.SessionReady)
	assert.Equal(t, int64(3), snap.Executions)
	assert.Equal(t, int64(2), snap.FailedCommands)
	assert.Equal(t, int64(1), snap.TimedOut)
	assert.InDelta(t, 34.0/3.0, snap.AvgExecutionSec, 0.001)

	m.SessionStopped()
	assert.Equal(t, 0.0, testutil.ToFloat64(m.SessionReady))
	assert.False(t, m.Snapshot().SessionReady)
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "success", Outcome(console.KindNone))
	assert.Equal(t, "busy", Outcome(console.KindBusy))
	assert.Equal(t, "not_ready", Outcome(console.KindNotReady))
	assert.Equal(t, "error", Outcome(console.KindSpawn))
}

func TestMiddlewareRecordsRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics(prometheus.NewRegistry())

	router := gin.New()
	router.Use(Middleware(m))
	router.GET("/items/:id", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	for _, path := range []string{"/items/1", "/items/2", "/missing"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/items/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "unmatched", "404")))

	snap := m.Snapshot()
	assert.Equal(t, int64(3), snap.TotalRequests)
	assert.Equal(t, int64(1), snap.TotalErrors)
}

func TestTimer(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	NewTimer(m, "console.execute").Stop("success")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ToolCalls.WithLabelValues("console.execute", "success")))

	var nilTimer *Timer
	nilTimer.Stop("success")

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}
