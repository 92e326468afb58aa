package monitoring

import (
	"sync"
	"time"

	"github.com/GriffinCanCode/replbridge/internal/console"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "replbridge"

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Tool metrics
	ToolCalls    *prometheus.CounterVec
	ToolDuration *prometheus.HistogramVec

	// Console metrics
	Executions        *prometheus.CounterVec
	ExecutionDuration prometheus.Histogram
	SessionReady      prometheus.Gauge
	SessionStarts     prometheus.Counter
	SessionStops      prometheus.Counter
	BootDuration      prometheus.Histogram
	BufferChars       prometheus.Gauge

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	startTime time.Time

	snapshot Snapshot
	mu       sync.RWMutex
}

// Snapshot holds current metric values for the JSON API
type Snapshot struct {
	TotalRequests   int64   `json:"total_requests"`
	TotalErrors     int64   `json:"total_errors"`
	Executions      int64   `json:"executions"`
	FailedCommands  int64   `json:"failed_commands"`
	TimedOut        int64   `json:"timed_out"`
	SessionReady    bool    `json:"session_ready"`
	AvgExecutionSec float64 `json:"avg_execution_seconds"`
	UptimeSec       float64 `json:"uptime_seconds"`

	executionSeconds float64
}

// NewMetrics registers the collectors with reg. Pass prometheus.DefaultRegisterer
// in production and a fresh registry in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	m := &Metrics{startTime: time.Now()}

	// HTTP metrics
	m.RequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	m.RequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)
	m.RequestSize = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_size_bytes",
			Help:      "HTTP request size in bytes",
			Buckets:   []float64{100, 1000, 10000, 100000, 1000000},
		},
		[]string{"method", "path"},
	)
	m.ResponseSize = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_response_size_bytes",
			Help:      "HTTP response size in bytes",
			Buckets:   []float64{100, 1000, 10000, 100000, 1000000},
		},
		[]string{"method", "path"},
	)

	// Tool metrics
	m.ToolCalls = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Total number of tool calls",
		},
		[]string{"tool", "status"},
	)
	m.ToolDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tool_duration_seconds",
			Help:      "Tool call duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14),
		},
		[]string{"tool"},
	)

	// Console metrics
	m.Executions = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "console",
			Name:      "executions_total",
			Help:      "Commands executed, by outcome",
		},
		[]string{"outcome"},
	)
	m.ExecutionDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "console",
			Name:      "execution_duration_seconds",
			Help:      "Time from sending a command to detecting its completion",
			Buckets:   []float64{.5, 1, 1.5, 2, 3, 5, 10, 20, 30, 60},
		},
	)
	m.SessionReady = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "console",
			Name:      "session_ready",
			Help:      "1 while the console session accepts commands",
		},
	)
	m.SessionStarts = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "console",
			Name:      "session_starts_total",
			Help:      "Sessions that reached a prompt",
		},
	)
	m.SessionStops = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "console",
			Name:      "session_stops_total",
			Help:      "Sessions stopped or exited",
		},
	)
	m.BootDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "console",
			Name:      "boot_duration_seconds",
			Help:      "Time from spawn to the first prompt",
			Buckets:   []float64{1, 2, 5, 10, 15, 20, 30, 60},
		},
	)
	m.BufferChars = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "console",
			Name:      "buffer_chars",
			Help:      "Characters held in the output buffer",
		},
	)

	// WebSocket metrics
	m.WSConnections = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ws_connections",
			Help:      "Number of active WebSocket connections",
		},
	)
	m.WSMessages = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_messages_total",
			Help:      "Total number of WebSocket messages",
		},
		[]string{"direction", "type"},
	)

	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "uptime_seconds",
			Help:      "Process uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	m.mu.Lock()
	m.snapshot.TotalRequests++
	if status != "" && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordToolCall records a tool invocation
func (m *Metrics) RecordToolCall(tool, status string, duration time.Duration) {
	m.ToolCalls.WithLabelValues(tool, status).Inc()
	m.ToolDuration.WithLabelValues(tool).Observe(duration.Seconds())
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
}

// SessionStarted implements console.Observer.
func (m *Metrics) SessionStarted(boot time.Duration) {
	m.SessionStarts.Inc()
	m.SessionReady.Set(1)
	m.BootDuration.Observe(boot.Seconds())

	m.mu.Lock()
	m.snapshot.SessionReady = true
	m.mu.Unlock()
}

// SessionStopped implements console.Observer.
func (m *Metrics) SessionStopped() {
	m.SessionStops.Inc()
	m.SessionReady.Set(0)

	m.mu.Lock()
	m.snapshot.SessionReady = false
	m.mu.Unlock()
}

// ExecutionFinished implements console.Observer.
func (m *Metrics) ExecutionFinished(kind console.ErrorKind, elapsed time.Duration) {
	m.Executions.WithLabelValues(Outcome(kind)).Inc()
	if elapsed > 0 {
		m.ExecutionDuration.Observe(elapsed.Seconds())
	}

	m.mu.Lock()
	m.snapshot.Executions++
	m.snapshot.executionSeconds += elapsed.Seconds()
	switch kind {
	case console.KindNone:
	case console.KindExecutionTimeout:
		m.snapshot.TimedOut++
		m.snapshot.FailedCommands++
	default:
		m.snapshot.FailedCommands++
	}
	m.mu.Unlock()
}

// BufferSize implements console.Observer.
func (m *Metrics) BufferSize(chars int) {
	m.BufferChars.Set(float64(chars))
}

// Snapshot returns current values for the JSON API
func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := m.snapshot
	if s.Executions > 0 {
		s.AvgExecutionSec = s.executionSeconds / float64(s.Executions)
	}
	s.UptimeSec = time.Since(m.startTime).Seconds()
	return s
}

// Outcome maps an error kind to a metric label.
func Outcome(kind console.ErrorKind) string {
	switch kind {
	case console.KindNone:
		return "success"
	case console.KindInterpreter:
		return "interpreter_error"
	case console.KindExecutionTimeout:
		return "timeout"
	case console.KindBusy:
		return "busy"
	case console.KindNotReady:
		return "not_ready"
	default:
		return "error"
	}
}

var _ console.Observer = (*Metrics)(nil)
