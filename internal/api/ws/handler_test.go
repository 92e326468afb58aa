package ws

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/GriffinCanCode/replbridge/internal/console"
	"github.com/GriffinCanCode/replbridge/internal/domain/service"
	"github.com/GriffinCanCode/replbridge/internal/infrastructure/monitoring"
	consoleprovider "github.com/GriffinCanCode/replbridge/internal/providers/console"
	"github.com/GriffinCanCode/replbridge/internal/shared/types"
	"github.com/GriffinCanCode/replbridge/internal/testutil"
	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func dial(t *testing.T) (*websocket.Conn, *console.Manager, *monitoring.Metrics) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	manager := testutil.NewConsoleManager(t, testutil.NewRailsSpawner())
	registry := service.NewRegistry()
	require.NoError(t, registry.Register(consoleprovider.NewProvider(manager, 3)))
	metrics := monitoring.NewMetrics(prometheus.NewRegistry())

	router := gin.New()
	router.GET("/stream", NewHandler(registry, manager, metrics, zaptest.NewLogger(t)).HandleConnection)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	greeting := read(t, conn)
	assert.Equal(t, "system", greeting.Type)
	assert.Contains(t, greeting.Message, "bundle exec rails console")
	return conn, manager, metrics
}

func write(t *testing.T, conn *websocket.Conn, msg types.WSMessage) {
	t.Helper()
	frame, err := sonic.Marshal(msg)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, frame))
}

func read(t *testing.T, conn *websocket.Conn) types.WSMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, frame, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg types.WSMessage
	require.NoError(t, sonic.Unmarshal(frame, &msg))
	return msg
}

func TestPingAndStatus(t *testing.T) {
	conn, _, metrics := dial(t)

	write(t, conn, types.WSMessage{Type: "ping", ID: "p1"})
	pong := read(t, conn)
	assert.Equal(t, "pong", pong.Type)
	assert.Equal(t, "p1", pong.ID)
	assert.NotZero(t, pong.Timestamp)

	write(t, conn, types.WSMessage{Type: "status", ID: "s1"})
	status := read(t, conn)
	assert.Equal(t, "status", status.Type)
	inner := status.Data["status"].(map[string]interface{})
	assert.Equal(t, "stopped", inner["state"])

	assert.Equal(t, 1.0, promtest.ToFloat64(metrics.WSConnections))
}

func TestUnknownAndMalformedFrames(t *testing.T) {
	conn, _, _ := dial(t)

	write(t, conn, types.WSMessage{Type: "chat", ID: "x"})
	msg := read(t, conn)
	assert.Equal(t, "error", msg.Type)
	assert.Equal(t, "x", msg.ID)
	assert.Contains(t, msg.Message, "unknown message type")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	msg = read(t, conn)
	assert.Equal(t, "error", msg.Type)
	assert.Contains(t, msg.Message, "malformed frame")

	write(t, conn, types.WSMessage{Type: "execute", ID: "e0"})
	msg = read(t, conn)
	assert.Equal(t, "error", msg.Type)
	assert.Equal(t, "command is required", msg.Message)
}

func TestExecute(t *testing.T) {
	conn, manager, _ := dial(t)

	write(t, conn, types.WSMessage{Type: "execute", ID: "e1", Command: "1 + 1"})
	msg := read(t, conn)
	assert.Equal(t, "result", msg.Type)
	assert.Equal(t, "e1", msg.ID)
	assert.Equal(t, false, msg.Data["success"])
	assert.Equal(t, "NotReady", msg.Data["kind"])

	require.NoError(t, manager.Start(context.Background()))

	write(t, conn, types.WSMessage{Type: "execute", ID: "e2", Command: "1 + 1", TimeoutMS: 500})
	msg = read(t, conn)
	assert.Equal(t, "result", msg.Type)
	assert.Equal(t, "e2", msg.ID)
	assert.Equal(t, true, msg.Data["success"])
	assert.Equal(t, "=> 2", msg.Data["output"])
	assert.Empty(t, msg.Message)
}
