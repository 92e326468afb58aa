// Package console exposes an interactive console session as tools.
//
// Tools:
//   - console.execute: evaluate one expression, optional timeout_ms
//   - console.execute_script: evaluate a multi-line script
//   - console.health: readiness, session status and configuration
//   - console.connect: start the console (circuit-breaker guarded)
//   - console.disconnect: stop the console
//   - console.restart: stop and start again
//
// Failed executions return success=false with the formatted interpreter
// error or an actionable hint in the error text, and the error kind in
// Data["kind"].
package console
