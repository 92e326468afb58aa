package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/GriffinCanCode/replbridge/internal/console"
	"github.com/GriffinCanCode/replbridge/internal/domain/service"
	"github.com/GriffinCanCode/replbridge/internal/infrastructure/monitoring"
	consoleprovider "github.com/GriffinCanCode/replbridge/internal/providers/console"
	"github.com/GriffinCanCode/replbridge/internal/testutil"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	router  *gin.Engine
	manager *console.Manager
}

func setup(t *testing.T) fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	manager := testutil.NewConsoleManager(t, testutil.NewRailsSpawner())
	registry := service.NewRegistry()
	require.NoError(t, registry.Register(consoleprovider.NewProvider(manager, 3)))
	metrics := monitoring.NewMetrics(prometheus.NewRegistry())

	h := NewHandlers(registry, manager, metrics)
	r := gin.New()
	r.GET("/", h.Root)
	r.GET("/health", h.Health)
	r.GET("/services", h.ListServices)
	r.POST("/services/execute", h.ExecuteService)
	r.POST("/console/execute", h.ConsoleExecute)
	r.GET("/console/status", h.ConsoleStatus)
	r.GET("/metrics/json", h.GetMetrics)

	return fixture{router: r, manager: manager}
}

func (f fixture) do(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return w, out
}

func TestRoot(t *testing.T) {
	f := setup(t)
	w, body := f.do(t, "GET", "/", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "online", body["status"])
	assert.Equal(t, ServiceName, body["service"])
}

func TestHealth(t *testing.T) {
	f := setup(t)

	_, body := f.do(t, "GET", "/health", nil)
	assert.Equal(t, "degraded", body["status"])

	require.NoError(t, f.manager.Start(context.Background()))
	w, body := f.do(t, "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", body["status"])
	consoleStatus := body["console"].(map[string]interface{})
	assert.Equal(t, "ready", consoleStatus["state"])
}

func TestListServices(t *testing.T) {
	f := setup(t)

	w, body := f.do(t, "GET", "/services", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	services := body["services"].([]interface{})
	require.Len(t, services, 1)
	assert.Equal(t, "console", services[0].(map[string]interface{})["id"])

	w, _ = f.do(t, "GET", "/services?category=system", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, body = f.do(t, "GET", "/services?category=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, body["error"], "invalid category")
}

func TestExecuteService(t *testing.T) {
	f := setup(t)

	w, body := f.do(t, "POST", "/services/execute", map[string]interface{}{"tool_id": "console.connect"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])

	w, body = f.do(t, "POST", "/services/execute", map[string]interface{}{
		"tool_id": "console.execute",
		"params":  map[string]interface{}{"command": "1 + 1"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "=> 2", body["data"].(map[string]interface{})["output"])
}

func TestExecuteServiceErrors(t *testing.T) {
	f := setup(t)

	tests := []struct {
		name string
		body interface{}
		want int
	}{
		{"missing tool id", map[string]interface{}{}, http.StatusBadRequest},
		{"malformed tool id", map[string]interface{}{"tool_id": "noprefix"}, http.StatusBadRequest},
		{"unknown service", map[string]interface{}{"tool_id": "db.query"}, http.StatusNotFound},
		{"unknown tool", map[string]interface{}{"tool_id": "console.explode"}, http.StatusNotFound},
		{"missing command", map[string]interface{}{"tool_id": "console.execute"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := f.do(t, "POST", "/services/execute", tt.body)
			assert.Equal(t, tt.want, w.Code)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestExecuteFailureIsOK(t *testing.T) {
	f := setup(t)

	w, body := f.do(t, "POST", "/console/execute", map[string]interface{}{"command": "1 + 1"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "NotReady", body["data"].(map[string]interface{})["kind"])
}

func TestConsoleExecute(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.manager.Start(context.Background()))

	w, body := f.do(t, "POST", "/console/execute", map[string]interface{}{"command": "a", "timeout_ms": 500})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["error"], "NameError")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w, _ = f.do(t, "POST", "/console/execute", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConsoleStatusAndMetrics(t *testing.T) {
	f := setup(t)

	w, body := f.do(t, "GET", "/console/status", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "stopped", body["state"])
	assert.Equal(t, "bundle exec rails console", body["command"])

	w, body = f.do(t, "GET", "/metrics/json", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, body, "backend")
	assert.Contains(t, body, "console")
}
