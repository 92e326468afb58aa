// Package middleware provides the HTTP middleware stack.
//
//   - CORS: gin-contrib/cors with configurable origins
//   - RateLimit: per-IP token buckets, idle clients forgotten
//   - GlobalRateLimit: one token bucket for all callers
//
// Example Usage:
//
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
package middleware
