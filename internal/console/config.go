package console

import "time"

const (
	DefaultTimeout        = 30 * time.Second
	DefaultStartupTimeout = 30 * time.Second
	DefaultSlowThreshold  = 5 * time.Second
	DefaultCols           = 80
	DefaultRows           = 30
	DefaultTerm           = "xterm-256color"
	DefaultLineEnding     = "\n"
)

// Config describes the session to run.
type Config struct {
	// WorkingDir is the directory the shell starts in.
	WorkingDir string
	// Command is split on whitespace into argv.
	Command string
	// Timeout bounds each command.
	Timeout time.Duration
	// StartupTimeout bounds the wait for the first prompt.
	StartupTimeout time.Duration
	// SlowThreshold marks finished commands that took longer with an advisory.
	SlowThreshold time.Duration

	Cols       uint16
	Rows       uint16
	Term       string
	LineEnding string
	// Env is appended to the inherited environment.
	Env []string

	MaxBuffer    int
	RetainBuffer int
	Timing       Timing
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.StartupTimeout <= 0 {
		c.StartupTimeout = DefaultStartupTimeout
	}
	if c.SlowThreshold == 0 {
		c.SlowThreshold = DefaultSlowThreshold
	}
	if c.Cols == 0 {
		c.Cols = DefaultCols
	}
	if c.Rows == 0 {
		c.Rows = DefaultRows
	}
	if c.Term == "" {
		c.Term = DefaultTerm
	}
	if c.LineEnding == "" {
		c.LineEnding = DefaultLineEnding
	}
	if c.MaxBuffer <= 0 {
		c.MaxBuffer = DefaultMaxBuffer
	}
	if c.RetainBuffer <= 0 {
		c.RetainBuffer = DefaultRetainBuffer
	}
	c.Timing = c.Timing.withDefaults()
	return c
}
