/*
Package monitoring provides Prometheus metrics for the service.

# Overview

Metrics covers HTTP traffic, tool calls, WebSocket streams and the console
session itself. It implements console.Observer so the session manager can
report lifecycle and execution events without importing Prometheus.

# Usage

	metrics := monitoring.NewMetrics(prometheus.DefaultRegisterer)
	router.Use(monitoring.Middleware(metrics))

	manager := console.New(cfg, console.WithObserver(metrics))

	timer := monitoring.NewTimer(metrics, "console.execute")
	// ... run the tool ...
	timer.Stop("success")

# Metrics Endpoint

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
*/
package monitoring
