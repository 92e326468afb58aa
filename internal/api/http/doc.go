// Package http provides the HTTP handlers of the tool API.
//
// Endpoints:
//   - Health: / and /health
//   - Services: /services, /services/execute
//   - Console: /console/execute, /console/status
//   - Metrics: /metrics/json (Prometheus text is served at /metrics)
//
// Tool dispatch errors map to status codes: bad parameters and malformed tool
// IDs are 400, unknown services and tools are 404. A tool that runs but fails,
// such as a command raising an exception, is a 200 with success=false.
//
// Example Usage:
//
//	handlers := http.NewHandlers(registry, manager, metrics)
//	router.GET("/health", handlers.Health)
//	router.POST("/services/execute", handlers.ExecuteService)
package http
