// Package client is the Go client for a replbridge server.
//
// Built on go-resty/resty over a go-retryablehttp pooled transport:
//   - GET requests retry on transport errors and 5xx with retryablehttp backoff
//   - tool calls are sent once
//   - an optional token bucket limits request rate
//   - a circuit breaker stops calling a failing server
//
// Example Usage:
//
//	c := client.New(client.DefaultConfig("http://localhost:8000"))
//	res, err := c.Run(ctx, "User.count", 0)
package client
