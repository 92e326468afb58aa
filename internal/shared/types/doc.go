// Package types holds the wire types shared by the tool registry, the HTTP
// and websocket handlers, and the client.
//
// Core Types:
//   - Service, Tool, Parameter: tool catalog
//   - Context: caller information passed to a tool call
//   - Result: standard tool result
//
// Request Types:
//   - ExecuteRequest: HTTP tool execution
//   - WSMessage: websocket stream frames
package types
