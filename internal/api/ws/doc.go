// Package ws provides the /stream WebSocket for console execution.
//
// Frames are JSON encoded with sonic.
//
// Message Types (Client → Server):
//   - execute: run Command, optional TimeoutMS
//   - status: request the session status
//   - ping: keep-alive ping
//
// Message Types (Server → Client):
//   - system: greeting on connect
//   - result: execution outcome, echoing the request ID
//   - status: session status
//   - pong: ping reply
//   - error: malformed or unknown frame, or a dispatch error
//
// Example Usage:
//
//	handler := ws.NewHandler(registry, manager, metrics, logger)
//	router.GET("/stream", handler.HandleConnection)
package ws
