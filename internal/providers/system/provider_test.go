package system

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/GriffinCanCode/replbridge/internal/domain/service"
	"github.com/GriffinCanCode/replbridge/internal/shared/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemInfo(t *testing.T) {
	sys := NewProvider("1.2.3")

	result, err := sys.Execute(context.Background(), "system.info", nil, nil)
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Equal(t, "1.2.3", result.Data["version"])
	assert.NotNil(t, result.Data["go_version"])
}

func TestSystemTimeAndPing(t *testing.T) {
	sys := NewProvider("dev")

	result, err := sys.Execute(context.Background(), "system.time", nil, nil)
	require.NoError(t, err)
	assert.NotNil(t, result.Data["timestamp"])

	result, err = sys.Execute(context.Background(), "system.ping", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, true, result.Data["pong"])
}

func TestUnknownTool(t *testing.T) {
	_, err := NewProvider("dev").Execute(context.Background(), "system.reboot", nil, nil)
	assert.ErrorIs(t, err, types.ErrUnknownTool)
}

func TestHistoryWraps(t *testing.T) {
	h := NewHistory(3)
	for i := 0; i < 5; i++ {
		h.Record(service.CallRecord{ToolID: fmt.Sprintf("console.t%d", i), Success: i%2 == 0})
	}

	recent := h.Recent(10, "", false)
	require.Len(t, recent, 3)
	assert.Equal(t, "console.t4", recent[0].ToolID)
	assert.Equal(t, "console.t2", recent[2].ToolID)

	failed := h.Recent(10, "", true)
	require.Len(t, failed, 1)
	assert.Equal(t, "console.t3", failed[0].ToolID)

	assert.Len(t, h.Recent(2, "", false), 2)
	assert.Empty(t, h.Recent(10, "system.", false))
}

func TestHistoryThroughRegistry(t *testing.T) {
	sys := NewProvider("dev")
	registry := service.NewRegistry()
	require.NoError(t, registry.Register(sys))
	registry.SetRecorder(sys.Recorder())

	_, err := registry.Execute(context.Background(), "system.ping", nil, &types.Context{RequestID: "req_1"})
	require.NoError(t, err)

	result, err := registry.Execute(context.Background(), "system.history", map[string]interface{}{"limit": 5.0}, nil)
	require.NoError(t, err)
	calls := result.Data["calls"].([]service.CallRecord)
	require.Len(t, calls, 1)
	assert.Equal(t, "system.ping", calls[0].ToolID)
	assert.Equal(t, "req_1", calls[0].RequestID)
	assert.True(t, calls[0].Success)
	assert.Less(t, calls[0].Duration, time.Second)
}
