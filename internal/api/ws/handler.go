package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/GriffinCanCode/replbridge/internal/console"
	"github.com/GriffinCanCode/replbridge/internal/domain/service"
	"github.com/GriffinCanCode/replbridge/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/replbridge/internal/shared/id"
	"github.com/GriffinCanCode/replbridge/internal/shared/types"
	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	maxFrameBytes = 1 << 20
	writeWait     = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler manages WebSocket connections
type Handler struct {
	registry *service.Registry
	console  *console.Manager
	metrics  *monitoring.Metrics
	logger   *zap.Logger
}

// NewHandler creates a new WebSocket handler. metrics may be nil.
func NewHandler(registry *service.Registry, manager *console.Manager, metrics *monitoring.Metrics, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		registry: registry,
		console:  manager,
		metrics:  metrics,
		logger:   logger,
	}
}

// client serialises writes; gorilla allows one concurrent writer.
type client struct {
	ws *websocket.Conn
	mu sync.Mutex
}

// HandleConnection handles WebSocket upgrade and messages. Execute frames run
// in the background so status and ping frames are answered while a command
// is in flight.
func (h *Handler) HandleConnection(c *gin.Context) {
	wsConn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer wsConn.Close()
	wsConn.SetReadLimit(maxFrameBytes)

	if h.metrics != nil {
		h.metrics.IncWSConnections()
		defer h.metrics.DecWSConnections()
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	var inflight sync.WaitGroup
	defer func() {
		cancel()
		inflight.Wait()
	}()

	conn := &client{ws: wsConn}
	clientID := c.ClientIP()

	h.send(conn, types.WSMessage{
		Type:    "system",
		Message: "Connected to " + h.console.Config().Command,
	})

	for {
		_, frame, err := wsConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("WebSocket read error", zap.Error(err))
			}
			return
		}

		var msg types.WSMessage
		if err := sonic.Unmarshal(frame, &msg); err != nil {
			h.sendError(conn, "", "malformed frame: "+err.Error())
			continue
		}
		h.record("in", msg.Type)

		switch msg.Type {
		case "execute":
			inflight.Add(1)
			go func(msg types.WSMessage) {
				defer inflight.Done()
				h.handleExecute(ctx, conn, msg, clientID)
			}(msg)
		case "status":
			h.send(conn, types.WSMessage{
				Type: "status",
				ID:   msg.ID,
				Data: map[string]interface{}{"status": h.console.Status()},
			})
		case "ping":
			h.send(conn, types.WSMessage{Type: "pong", ID: msg.ID})
		default:
			h.sendError(conn, msg.ID, "unknown message type: "+msg.Type)
		}
	}
}

func (h *Handler) handleExecute(ctx context.Context, conn *client, msg types.WSMessage, clientID string) {
	if msg.Command == "" {
		h.sendError(conn, msg.ID, "command is required")
		return
	}

	params := map[string]interface{}{"command": msg.Command}
	if msg.TimeoutMS > 0 {
		params["timeout_ms"] = float64(msg.TimeoutMS)
	}
	appCtx := &types.Context{RequestID: id.NewRequestID().String(), ClientID: clientID}

	result, err := h.registry.Execute(ctx, "console.execute", params, appCtx)
	if err != nil {
		h.sendError(conn, msg.ID, err.Error())
		return
	}

	reply := types.WSMessage{
		Type: "result",
		ID:   msg.ID,
		Data: map[string]interface{}{"success": result.Success},
	}
	for k, v := range result.Data {
		reply.Data[k] = v
	}
	if result.Error != nil {
		reply.Message = *result.Error
	}
	h.send(conn, reply)
}

func (h *Handler) send(conn *client, msg types.WSMessage) error {
	if msg.Timestamp == 0 {
		msg.Timestamp = time.Now().Unix()
	}
	frame, err := sonic.Marshal(msg)
	if err != nil {
		return err
	}

	conn.mu.Lock()
	defer conn.mu.Unlock()
	conn.ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
		h.logger.Debug("WebSocket write failed", zap.Error(err))
		return err
	}
	h.record("out", msg.Type)
	return nil
}

func (h *Handler) sendError(conn *client, msgID, message string) error {
	return h.send(conn, types.WSMessage{Type: "error", ID: msgID, Message: message})
}

func (h *Handler) record(direction, msgType string) {
	if h.metrics != nil {
		h.metrics.RecordWSMessage(direction, msgType)
	}
}
