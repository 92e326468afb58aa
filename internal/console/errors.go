package console

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures reported by the manager.
type ErrorKind string

const (
	KindNone             ErrorKind = ""
	KindSpawn            ErrorKind = "SpawnError"
	KindStartupTimeout   ErrorKind = "StartupTimeout"
	KindNotReady         ErrorKind = "NotReady"
	KindExecutionTimeout ErrorKind = "ExecutionTimeout"
	KindInterpreter      ErrorKind = "InterpreterError"
	KindExecution        ErrorKind = "ExecutionError"
	KindBusy             ErrorKind = "Busy"
)

// Sentinel errors for errors.Is comparisons.
var (
	ErrSpawn          = &Error{Kind: KindSpawn}
	ErrStartupTimeout = &Error{Kind: KindStartupTimeout}
	ErrNotReady       = &Error{Kind: KindNotReady}
	ErrBusy           = &Error{Kind: KindBusy}
)

// Error is a classified manager failure with an actionable hint.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
	Hint string
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of err, or KindNone if err is not an *Error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindNone
}

// HintOf returns the remediation hint attached to err, if any.
func HintOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Hint
	}
	return ""
}

func spawnError(cfg Config, err error) *Error {
	return &Error{
		Kind: KindSpawn,
		Op:   "start",
		Err:  err,
		Hint: fmt.Sprintf(
			"Could not launch %q in %q. Check that the working directory exists, "+
				"that the command is installed and on PATH, and that dependencies are installed "+
				"(e.g. run `bundle install`).",
			cfg.Command, cfg.WorkingDir),
	}
}

func startupTimeoutError(cfg Config) *Error {
	return &Error{
		Kind: KindStartupTimeout,
		Op:   "start",
		Err:  fmt.Errorf("no prompt observed within %s", cfg.StartupTimeout),
		Hint: fmt.Sprintf(
			"%q did not reach a prompt in %q. The application may be slow to boot, "+
				"waiting on a database, or printing an unrecognized prompt. Try increasing "+
				"the startup timeout or adding a readiness pattern.",
			cfg.Command, cfg.WorkingDir),
	}
}

func notReadyError(cfg Config) *Error {
	return &Error{
		Kind: KindNotReady,
		Op:   "execute",
		Err:  errors.New("console session is not running"),
		Hint: fmt.Sprintf("Connect first to start %q in %q.", cfg.Command, cfg.WorkingDir),
	}
}
