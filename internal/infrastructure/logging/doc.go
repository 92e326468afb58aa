// Package logging builds the service's zap logger.
//
// Production logs are JSON; development logs use the colored console
// encoder. Logs go to stderr so stdout stays free for CLI output.
//
// Example Usage:
//
//	logger, err := logging.New(logging.Config{Level: "debug", Development: true})
//	logger.Info("Server starting", zap.String("port", "8000"))
//	logger.WithContext(ctx).Warn("Command timed out")
package logging
