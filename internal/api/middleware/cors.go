package middleware

import (
	"net/http"
	"slices"
	"time"

	"github.com/GriffinCanCode/replbridge/internal/infrastructure/tracing"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// correlationHeaders are read from requests and echoed on responses.
var correlationHeaders = []string{
	tracing.HeaderRequestID,
	tracing.HeaderTraceID,
	tracing.HeaderSpanID,
}

// CORSConfig selects which browser origins may call the console API.
type CORSConfig struct {
	Origins []string
	MaxAge  time.Duration
}

// DefaultCORSConfig allows any origin.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		Origins: []string{"*"},
		MaxAge:  12 * time.Hour,
	}
}

// CORS lets browser clients reach the console routes. The API has no
// credentials, only GET and POST routes, and JSON bodies; clients may send
// the correlation headers and read them back.
func CORS(cfg CORSConfig) gin.HandlerFunc {
	c := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  append([]string{"Origin", "Content-Type", "Accept"}, correlationHeaders...),
		ExposeHeaders: correlationHeaders,
		MaxAge:        cfg.MaxAge,
	}
	if len(cfg.Origins) == 0 || slices.Contains(cfg.Origins, "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = cfg.Origins
	}
	return cors.New(c)
}
