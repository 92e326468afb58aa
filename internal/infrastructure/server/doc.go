// Package server assembles the replbridge HTTP server.
//
// Components:
//   - console session manager with metrics observer and optional pattern file
//   - service registry with the console and system providers
//   - gin router: recovery, tracing, metrics, CORS and rate limiting
//   - routes for health, services, console, websocket stream and metrics
//
// Example Usage:
//
//	srv, err := server.NewServer(cfg)
//	if err != nil { ... }
//	defer srv.Close()
//	srv.Run()
package server
