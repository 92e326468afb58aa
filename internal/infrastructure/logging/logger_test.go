package logging

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/GriffinCanCode/replbridge/internal/infrastructure/tracing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		level   zapcore.Level
		wantErr bool
	}{
		{"production", Config{Level: "info"}, zapcore.InfoLevel, false},
		{"development", Config{Level: "debug", Development: true}, zapcore.DebugLevel, false},
		{"warn", Config{Level: "warn"}, zapcore.WarnLevel, false},
		{"invalid level", Config{Level: "loud"}, zapcore.InfoLevel, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			cfg.OutputPaths = []string{filepath.Join(t.TempDir(), "out.log")}

			logger, err := New(cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, logger.Core().Enabled(tt.level))
			if tt.level > zapcore.DebugLevel {
				assert.False(t, logger.Core().Enabled(tt.level-1))
			}
		})
	}
}

func TestNewDefault(t *testing.T) {
	assert.NotNil(t, NewDefault().Logger)
}

func TestWithContext(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := &Logger{Logger: zap.New(core)}

	ctx := tracing.WithTrace(context.Background(), "req_1", "span_1")
	logger.WithContext(ctx).Info("traced")
	logger.WithContext(context.Background()).Info("plain")

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "req_1", logs.All()[0].ContextMap()["trace_id"])
	assert.Equal(t, "span_1", logs.All()[0].ContextMap()["span_id"])
	assert.Empty(t, logs.All()[1].ContextMap())
}

func TestNamed(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := (&Logger{Logger: zap.New(core)}).Named("console")
	logger.Info("hello")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "console", logs.All()[0].LoggerName)
}

func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "replbridge.log")
	logger, err := New(Config{
		Level:       "info",
		OutputPaths: []string{filepath.Join(t.TempDir(), "stderr.log")},
		File:        path,
		MaxSizeMB:   1,
	})
	require.NoError(t, err)

	logger.Info("console ready", zap.Int("pid", 4242))
	logger.Debug("dropped")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"console ready"`)
	assert.Contains(t, string(data), `"pid":4242`)
	assert.NotContains(t, string(data), "dropped")
}
