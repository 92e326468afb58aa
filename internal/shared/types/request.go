package types

// ExecuteRequest represents a tool execution request
type ExecuteRequest struct {
	ToolID string                 `json:"tool_id" binding:"required"`
	Params map[string]interface{} `json:"params"`
}

// WSMessage is a frame on the /stream websocket.
//
// Client frames: "execute" (Command, optional TimeoutMS), "status", "ping".
// Server frames: "result", "status", "pong", "error".
type WSMessage struct {
	Type      string                 `json:"type"`
	ID        string                 `json:"id,omitempty"`
	Command   string                 `json:"command,omitempty"`
	TimeoutMS int                    `json:"timeout_ms,omitempty"`
	Message   string                 `json:"message,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp int64                  `json:"timestamp,omitempty"`
}
