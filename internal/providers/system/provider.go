package system

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/GriffinCanCode/replbridge/internal/domain/service"
	"github.com/GriffinCanCode/replbridge/internal/shared/types"
)

const defaultHistorySize = 1000

// Provider reports process information and the recent tool call history
type Provider struct {
	version   string
	startTime time.Time
	history   *History
}

// History is a thread-safe circular buffer of tool calls
type History struct {
	entries []*service.CallRecord
	head    int
	size    int
	maxSize int
	mu      sync.RWMutex
}

// NewProvider creates a system provider
func NewProvider(version string) *Provider {
	return &Provider{
		version:   version,
		startTime: time.Now(),
		history:   NewHistory(defaultHistorySize),
	}
}

// NewHistory creates a history holding at most maxSize calls
func NewHistory(maxSize int) *History {
	if maxSize <= 0 {
		maxSize = defaultHistorySize
	}
	return &History{
		entries: make([]*service.CallRecord, maxSize),
		maxSize: maxSize,
	}
}

// Record inserts a call, overwriting the oldest when full
func (h *History) Record(call service.CallRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries[h.head] = &call
	h.head = (h.head + 1) % h.maxSize
	if h.size < h.maxSize {
		h.size++
	}
}

// Recent returns up to limit calls, newest first. prefix filters by tool ID
// prefix; failedOnly keeps unsuccessful calls.
func (h *History) Recent(limit int, prefix string, failedOnly bool) []service.CallRecord {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if limit > h.size {
		limit = h.size
	}

	result := make([]service.CallRecord, 0, limit)
	for i := 0; i < h.size && len(result) < limit; i++ {
		idx := (h.head - 1 - i + h.maxSize) % h.maxSize
		entry := h.entries[idx]
		if entry == nil {
			continue
		}
		if prefix != "" && !strings.HasPrefix(entry.ToolID, prefix) {
			continue
		}
		if failedOnly && entry.Success {
			continue
		}
		result = append(result, *entry)
	}
	return result
}

// Recorder returns the history for registry.SetRecorder
func (s *Provider) Recorder() service.Recorder {
	return s.history
}

// Definition returns service metadata
func (s *Provider) Definition() types.Service {
	return types.Service{
		ID:          "system",
		Name:        "System Service",
		Description: "Process information and tool call history",
		Category:    types.CategorySystem,
		Capabilities: []string{
			"info",
			"history",
		},
		Tools: []types.Tool{
			{
				ID:          "system.info",
				Name:        "System Info",
				Description: "Get server process information",
				Parameters:  []types.Parameter{},
				Returns:     "object",
			},
			{
				ID:          "system.time",
				Name:        "Current Time",
				Description: "Get current server time",
				Parameters:  []types.Parameter{},
				Returns:     "object",
			},
			{
				ID:          "system.history",
				Name:        "Call History",
				Description: "Retrieve recent tool calls",
				Parameters: []types.Parameter{
					{Name: "limit", Type: "number", Description: "Number of calls to retrieve", Required: false},
					{Name: "tool", Type: "string", Description: "Filter by tool ID prefix", Required: false},
					{Name: "failed", Type: "boolean", Description: "Only failed calls", Required: false},
				},
				Returns: "array",
			},
			{
				ID:          "system.ping",
				Name:        "Ping",
				Description: "Test service availability",
				Parameters:  []types.Parameter{},
				Returns:     "object",
			},
		},
	}
}

// Execute runs a system operation
func (s *Provider) Execute(ctx context.Context, toolID string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	switch toolID {
	case "system.info":
		return s.info(), nil
	case "system.time":
		return s.currentTime(), nil
	case "system.history":
		return s.recent(params), nil
	case "system.ping":
		return types.Success(map[string]interface{}{
			"pong":      true,
			"timestamp": time.Now().Unix(),
		}), nil
	default:
		return nil, fmt.Errorf("%w: %s", types.ErrUnknownTool, toolID)
	}
}

func (s *Provider) info() *types.Result {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return types.Success(map[string]interface{}{
		"version":        s.version,
		"pid":            os.Getpid(),
		"go_version":     runtime.Version(),
		"os":             runtime.GOOS,
		"arch":           runtime.GOARCH,
		"goroutines":     runtime.NumGoroutine(),
		"memory_alloc":   m.Alloc / 1024 / 1024, // MB
		"memory_sys":     m.Sys / 1024 / 1024,   // MB
		"uptime_seconds": time.Since(s.startTime).Seconds(),
	})
}

func (s *Provider) currentTime() *types.Result {
	now := time.Now()
	return types.Success(map[string]interface{}{
		"timestamp": now.Unix(),
		"iso":       now.Format(time.RFC3339),
		"unix_ms":   now.UnixMilli(),
	})
}

func (s *Provider) recent(params map[string]interface{}) *types.Result {
	limit := 100
	if l, ok := params["limit"].(float64); ok && l > 0 {
		limit = int(l)
	}
	prefix, _ := params["tool"].(string)
	failedOnly, _ := params["failed"].(bool)

	calls := s.history.Recent(limit, prefix, failedOnly)
	return types.Success(map[string]interface{}{
		"calls": calls,
		"count": len(calls),
	})
}
