package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/GriffinCanCode/replbridge/internal/console"
	"github.com/GriffinCanCode/replbridge/internal/domain/service"
	"github.com/GriffinCanCode/replbridge/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/replbridge/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/replbridge/internal/shared/id"
	"github.com/GriffinCanCode/replbridge/internal/shared/types"
	"github.com/gin-gonic/gin"
)

const (
	ServiceName = "replbridge"
	Version     = "0.1.0"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	registry *service.Registry
	console  *console.Manager
	metrics  *monitoring.Metrics
}

// NewHandlers creates a new handler set. metrics may be nil.
func NewHandlers(registry *service.Registry, manager *console.Manager, metrics *monitoring.Metrics) *Handlers {
	return &Handlers{
		registry: registry,
		console:  manager,
		metrics:  metrics,
	}
}

// Root handles the liveness check
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": ServiceName,
		"version": Version,
	})
}

// Health reports the console session and registry state. The server is
// healthy while it runs; a stopped console shows as degraded.
func (h *Handlers) Health(c *gin.Context) {
	status := h.console.Status()
	overall := "healthy"
	if !status.Ready {
		overall = "degraded"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":           overall,
		"console":          status,
		"service_registry": h.registry.Stats(),
	})
}

// ListServices lists all available services
func (h *Handlers) ListServices(c *gin.Context) {
	var category *types.Category
	if raw := c.Query("category"); raw != "" {
		cat := types.Category(raw)
		if cat != types.CategoryConsole && cat != types.CategorySystem {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category: " + raw})
			return
		}
		category = &cat
	}

	c.JSON(http.StatusOK, gin.H{
		"services": h.registry.List(category),
		"stats":    h.registry.Stats(),
	})
}

// ExecuteService executes a service tool
func (h *Handlers) ExecuteService(c *gin.Context) {
	var req types.ExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.execute(c, req.ToolID, req.Params)
}

// ConsoleExecute runs one command through console.execute
func (h *Handlers) ConsoleExecute(c *gin.Context) {
	var req struct {
		Command   string `json:"command" binding:"required"`
		TimeoutMS int    `json:"timeout_ms"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	params := map[string]interface{}{"command": req.Command}
	if req.TimeoutMS > 0 {
		params["timeout_ms"] = float64(req.TimeoutMS)
	}
	h.execute(c, "console.execute", params)
}

// ConsoleStatus returns the session status
func (h *Handlers) ConsoleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.console.Status())
}

func (h *Handlers) execute(c *gin.Context, toolID string, params map[string]interface{}) {
	ctx := c.Request.Context()
	appCtx := &types.Context{
		RequestID: requestID(c),
		TraceID:   string(tracing.GetTraceID(ctx)),
		ClientID:  c.ClientIP(),
	}

	result, err := h.registry.Execute(ctx, toolID, params, appCtx)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error(), "request_id": appCtx.RequestID})
		return
	}
	c.JSON(http.StatusOK, result)
}

// statusFor maps tool dispatch errors onto HTTP status codes
func statusFor(err error) int {
	var perr *types.ParamError
	switch {
	case errors.As(err, &perr), errors.Is(err, service.ErrInvalidToolID):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrServiceNotFound), errors.Is(err, types.ErrUnknownTool):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func requestID(c *gin.Context) string {
	if rid := c.GetHeader(tracing.HeaderRequestID); rid != "" {
		return rid
	}
	rid := id.NewRequestID().String()
	c.Header(tracing.HeaderRequestID, rid)
	return rid
}

// MetricsSnapshot is the JSON metrics view
type MetricsSnapshot struct {
	Timestamp time.Time           `json:"timestamp"`
	Backend   monitoring.Snapshot `json:"backend"`
	Console   console.Status      `json:"console"`
}

// GetMetrics returns a JSON summary of the Prometheus metrics
func (h *Handlers) GetMetrics(c *gin.Context) {
	if h.metrics == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "metrics disabled"})
		return
	}
	c.JSON(http.StatusOK, MetricsSnapshot{
		Timestamp: time.Now(),
		Backend:   h.metrics.Snapshot(),
		Console:   h.console.Status(),
	})
}
