package config

import (
	"fmt"
	"time"

	"github.com/GriffinCanCode/replbridge/internal/console"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Console   ConsoleConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`

	// CORSOrigins lists browser origins allowed to call the API; "*" allows any.
	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"*"`
}

// ConsoleConfig holds the interactive session configuration.
type ConsoleConfig struct {
	WorkingDir         string `envconfig:"CONSOLE_WORKING_DIR" default:"."`
	Command            string `envconfig:"CONSOLE_COMMAND" default:"bundle exec rails console"`
	TimeoutMS          int    `envconfig:"CONSOLE_TIMEOUT_MS" default:"30000"`
	StartupTimeoutMS   int    `envconfig:"CONSOLE_STARTUP_TIMEOUT_MS" default:"30000"`
	SlowThresholdMS    int    `envconfig:"CONSOLE_SLOW_THRESHOLD_MS" default:"5000"`
	Cols               uint16 `envconfig:"CONSOLE_COLS" default:"80"`
	Rows               uint16 `envconfig:"CONSOLE_ROWS" default:"30"`
	MaxBuffer          int    `envconfig:"CONSOLE_MAX_BUFFER" default:"1000000"`
	RetainBuffer       int    `envconfig:"CONSOLE_RETAIN_BUFFER" default:"500000"`
	PatternsFile       string `envconfig:"CONSOLE_PATTERNS_FILE"`
	Autostart          bool   `envconfig:"CONSOLE_AUTOSTART" default:"false"`
	ConnectMaxFailures uint32 `envconfig:"CONSOLE_CONNECT_MAX_FAILURES" default:"3"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
	File        string `envconfig:"LOG_FILE"`
	MaxSizeMB   int    `envconfig:"LOG_MAX_SIZE_MB" default:"100"`
	MaxBackups  int    `envconfig:"LOG_MAX_BACKUPS" default:"3"`
	MaxAgeDays  int    `envconfig:"LOG_MAX_AGE_DAYS" default:"28"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        "8000",
			Host:        "0.0.0.0",
			CORSOrigins: []string{"*"},
		},
		Console: ConsoleConfig{
			WorkingDir:         ".",
			Command:            "bundle exec rails console",
			TimeoutMS:          30000,
			StartupTimeoutMS:   30000,
			SlowThresholdMS:    5000,
			Cols:               80,
			Rows:               30,
			MaxBuffer:          1_000_000,
			RetainBuffer:       500_000,
			ConnectMaxFailures: 3,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
			MaxSizeMB:   100,
			MaxBackups:  3,
			MaxAgeDays:  28,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}

// Session converts the environment settings to a console configuration.
func (c ConsoleConfig) Session() console.Config {
	return console.Config{
		WorkingDir:     c.WorkingDir,
		Command:        c.Command,
		Timeout:        time.Duration(c.TimeoutMS) * time.Millisecond,
		StartupTimeout: time.Duration(c.StartupTimeoutMS) * time.Millisecond,
		SlowThreshold:  time.Duration(c.SlowThresholdMS) * time.Millisecond,
		Cols:           c.Cols,
		Rows:           c.Rows,
		MaxBuffer:      c.MaxBuffer,
		RetainBuffer:   c.RetainBuffer,
	}
}
