package console

import "time"

// State is the session lifecycle state.
type State string

const (
	StateStopped  State = "stopped"
	StateStarting State = "starting"
	StateReady    State = "ready"
	StateFailed   State = "failed"
)

// Result is the outcome of one Execute call.
type Result struct {
	Success  bool          `json:"success"`
	Output   string        `json:"output"`
	Error    string        `json:"error,omitempty"`
	Kind     ErrorKind     `json:"kind,omitempty"`
	Hint     string        `json:"hint,omitempty"`
	Parsed   *ParsedError  `json:"parsed,omitempty"`
	Elapsed  time.Duration `json:"elapsed"`
	TimedOut bool          `json:"timed_out"`
}

// Status is a point-in-time view of the session.
type Status struct {
	SessionID  string        `json:"session_id,omitempty"`
	State      State         `json:"state"`
	Ready      bool          `json:"ready"`
	Pid        int           `json:"pid,omitempty"`
	StartedAt  *time.Time    `json:"started_at,omitempty"`
	Command    string        `json:"command"`
	WorkingDir string        `json:"working_dir"`
	Timeout    time.Duration `json:"timeout"`
	BufferSize int           `json:"buffer_size"`
	Executions int           `json:"executions"`
	LastError  string        `json:"last_error,omitempty"`
}

// Observer receives lifecycle and execution events, typically for metrics.
type Observer interface {
	SessionStarted(bootTime time.Duration)
	SessionStopped()
	ExecutionFinished(kind ErrorKind, elapsed time.Duration)
	BufferSize(chars int)
}

type nopObserver struct{}

func (nopObserver) SessionStarted(time.Duration)               {}
func (nopObserver) SessionStopped()                            {}
func (nopObserver) ExecutionFinished(ErrorKind, time.Duration) {}
func (nopObserver) BufferSize(int)                             {}
