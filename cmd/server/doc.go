// Package main is the entry point for the replbridge server.
//
// The server keeps one interactive console (a Rails console by default)
// alive behind a pseudo-terminal and exposes it as:
//   - registry tools (console.execute, console.connect, ...)
//   - a JSON HTTP API
//   - a WebSocket stream at /stream
//   - Prometheus metrics at /metrics
//
// Configuration:
//   - Environment variables (CONSOLE_COMMAND, CONSOLE_WORKING_DIR, PORT, ...)
//   - CLI flags (override env vars)
//
// Usage:
//
//	# Serve the Rails console of the current project
//	./server -port 8000 -dir . -autostart
//
//	# Any REPL with a custom pattern file
//	./server -command "irb" -patterns patterns.yaml -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
