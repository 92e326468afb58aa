package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	startupTailChars = 2000
	drainGrace       = 200 * time.Millisecond
)

var errAbortedByStop = errors.New("startup aborted by stop")

// exitInfo is filled in by watch before done is closed.
type exitInfo struct {
	done chan struct{}
	// unexpected is set when the process exited without Stop being called.
	unexpected bool
	err        error
}

// Manager owns one interactive console session.
type Manager struct {
	cfg        Config
	spawner    Spawner
	clock      Clock
	logger     *zap.Logger
	observer   Observer
	readiness  *ReadinessDetector
	normalizer *Normalizer
	extractor  *ErrorExtractor
	completion *CompletionDetector

	extraReady   []PatternMatcher
	extraPrompts []PatternMatcher
	extraClasses []string

	// lifecycle serializes Start and Restart.
	lifecycle sync.Mutex

	mu         sync.RWMutex
	state      State
	proc       Process
	buffer     *Buffer
	sessionID  string
	startedAt  time.Time
	executions int
	lastErr    string

	busy atomic.Bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithSpawner replaces the PTY spawner.
func WithSpawner(s Spawner) Option {
	return func(m *Manager) { m.spawner = s }
}

// WithClock replaces the wall clock used for polling and deadlines.
func WithClock(c Clock) Option {
	return func(m *Manager) { m.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithObserver registers an event observer.
func WithObserver(o Observer) Option {
	return func(m *Manager) { m.observer = o }
}

// WithReadinessMatchers appends readiness signatures after the built-ins.
func WithReadinessMatchers(ms ...PatternMatcher) Option {
	return func(m *Manager) { m.extraReady = append(m.extraReady, ms...) }
}

// WithPromptMatchers appends prompt shapes to the normalizer.
func WithPromptMatchers(ms ...PatternMatcher) Option {
	return func(m *Manager) { m.extraPrompts = append(m.extraPrompts, ms...) }
}

// WithErrorClasses adds class names to the known error list.
func WithErrorClasses(names ...string) Option {
	return func(m *Manager) { m.extraClasses = append(m.extraClasses, names...) }
}

// New creates a stopped manager.
func New(cfg Config, opts ...Option) *Manager {
	m := &Manager{
		cfg:      cfg.withDefaults(),
		spawner:  PTYSpawner{},
		clock:    realClock{},
		logger:   zap.NewNop(),
		observer: nopObserver{},
		state:    StateStopped,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.readiness = NewReadinessDetector(m.extraReady...)
	m.normalizer = NewNormalizer(m.extraPrompts...)
	m.extractor = NewErrorExtractor(m.extraClasses...)
	m.completion = NewCompletionDetector(m.cfg.Timing, m.clock)
	m.buffer = NewBuffer(m.cfg.MaxBuffer, m.cfg.RetainBuffer)
	return m
}

// Config returns the effective configuration.
func (m *Manager) Config() Config {
	return m.cfg
}

// Start launches the console and blocks until it shows a prompt, the
// startup timeout passes, or ctx is cancelled. Starting a ready session is a
// no-op.
func (m *Manager) Start(ctx context.Context) error {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()

	if m.Ready() {
		return nil
	}

	argv := strings.Fields(m.cfg.Command)
	if len(argv) == 0 {
		return m.startFailed(spawnError(m.cfg, errors.New("no console command configured")))
	}
	if m.cfg.WorkingDir != "" {
		info, err := os.Stat(m.cfg.WorkingDir)
		if err != nil {
			return m.startFailed(spawnError(m.cfg, fmt.Errorf("working directory: %w", err)))
		}
		if !info.IsDir() {
			return m.startFailed(spawnError(m.cfg, fmt.Errorf("working directory %q is not a directory", m.cfg.WorkingDir)))
		}
	}

	m.setState(StateStarting)
	began := m.clock.Now()
	m.logger.Info("Starting console",
		zap.String("command", m.cfg.Command),
		zap.String("working_dir", m.cfg.WorkingDir),
		zap.Duration("startup_timeout", m.cfg.StartupTimeout))

	env := append(os.Environ(), "TERM="+m.cfg.Term)
	env = append(env, m.cfg.Env...)
	proc, err := m.spawner.Spawn(ctx, SpawnSpec{
		Argv: argv,
		Dir:  m.cfg.WorkingDir,
		Env:  env,
		Cols: m.cfg.Cols,
		Rows: m.cfg.Rows,
	})
	if err != nil {
		return m.startFailed(spawnError(m.cfg, err))
	}

	buf := NewBuffer(m.cfg.MaxBuffer, m.cfg.RetainBuffer)
	exit := &exitInfo{done: make(chan struct{})}
	drained := make(chan struct{})

	m.mu.Lock()
	if m.state != StateStarting {
		m.mu.Unlock()
		_ = proc.Kill()
		return m.startFailed(spawnError(m.cfg, errAbortedByStop))
	}
	m.proc = proc
	m.buffer = buf
	m.sessionID = uuid.NewString()
	m.mu.Unlock()

	go m.pump(proc, buf, drained)
	go m.watch(proc, exit)

	deadline := began.Add(m.cfg.StartupTimeout)
	for {
		if signature, ok := m.readiness.Ready(buf.String()); ok {
			buf.Reset()
			m.mu.Lock()
			if m.proc != proc {
				m.mu.Unlock()
				return m.startFailed(spawnError(m.cfg, errAbortedByStop))
			}
			m.state = StateReady
			m.startedAt = m.clock.Now()
			m.lastErr = ""
			m.mu.Unlock()

			boot := m.clock.Now().Sub(began)
			m.observer.SessionStarted(boot)
			m.logger.Info("Console ready",
				zap.String("signature", signature),
				zap.Int("pid", proc.Pid()),
				zap.Duration("boot_time", boot))
			return nil
		}

		select {
		case <-exit.done:
			if !exit.unexpected {
				return m.startFailed(spawnError(m.cfg, errAbortedByStop))
			}
			select {
			case <-drained:
			case <-time.After(drainGrace):
			}
			cause := errors.New("process exited before showing a prompt")
			if tail := Normalize(buf.Tail(startupTailChars)); tail != "" {
				cause = fmt.Errorf("process exited before showing a prompt; last output:\n%s", tail)
			}
			return m.startFailed(spawnError(m.cfg, cause))
		default:
		}

		if !m.clock.Now().Before(deadline) {
			m.setState(StateFailed)
			m.logger.Warn("Console startup timed out",
				zap.Duration("startup_timeout", m.cfg.StartupTimeout),
				zap.String("last_output", Normalize(buf.Tail(startupTailChars))))
			m.Stop()
			return m.startFailed(startupTimeoutError(m.cfg))
		}

		if err := m.clock.Sleep(ctx, m.cfg.Timing.PollInterval); err != nil {
			m.Stop()
			return m.startFailed(&Error{Kind: KindStartupTimeout, Op: "start", Err: err,
				Hint: "Startup was cancelled before the console showed a prompt."})
		}
	}
}

// Stop terminates the session. It is safe to call at any time.
func (m *Manager) Stop() error {
	m.mu.Lock()
	proc := m.proc
	m.proc = nil
	m.state = StateStopped
	m.mu.Unlock()

	if proc == nil {
		return nil
	}

	m.observer.SessionStopped()
	m.logger.Info("Stopping console", zap.Int("pid", proc.Pid()))
	if err := proc.Kill(); err != nil {
		return fmt.Errorf("kill console: %w", err)
	}
	return nil
}

// Restart stops any running session and starts a fresh one.
func (m *Manager) Restart(ctx context.Context) error {
	if err := m.Stop(); err != nil {
		m.logger.Warn("Stop before restart failed", zap.Error(err))
	}
	return m.Start(ctx)
}

// Ready reports whether commands can be executed.
func (m *Manager) Ready() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state == StateReady && m.proc != nil
}

// State returns the lifecycle state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Status returns a snapshot of the session.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st := Status{
		SessionID:  m.sessionID,
		State:      m.state,
		Ready:      m.state == StateReady && m.proc != nil,
		Command:    m.cfg.Command,
		WorkingDir: m.cfg.WorkingDir,
		Timeout:    m.cfg.Timeout,
		BufferSize: m.buffer.Len(),
		Executions: m.executions,
		LastError:  m.lastErr,
	}
	if m.proc != nil {
		st.Pid = m.proc.Pid()
	}
	if !m.startedAt.IsZero() && st.Ready {
		t := m.startedAt
		st.StartedAt = &t
	}
	return st
}

// Execute sends command with the configured timeout.
func (m *Manager) Execute(ctx context.Context, command string) Result {
	return m.ExecuteTimeout(ctx, command, m.cfg.Timeout)
}

// ExecuteTimeout sends command and waits for its output. Only one command
// runs at a time; a concurrent call gets a Busy result.
func (m *Manager) ExecuteTimeout(ctx context.Context, command string, timeout time.Duration) (res Result) {
	if timeout <= 0 {
		timeout = m.cfg.Timeout
	}

	m.mu.RLock()
	proc, buf, ready := m.proc, m.buffer, m.state == StateReady
	m.mu.RUnlock()
	if !ready || proc == nil {
		return failed(notReadyError(m.cfg))
	}

	if !m.busy.CompareAndSwap(false, true) {
		return failed(&Error{
			Kind: KindBusy,
			Op:   "execute",
			Err:  errors.New("another command is still running"),
			Hint: "Wait for the running command to finish, or restart the console to abandon it.",
		})
	}
	defer m.busy.Store(false)

	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("Execute panicked", zap.Any("panic", r))
			res = failed(&Error{Kind: KindExecution, Op: "execute", Err: fmt.Errorf("unexpected fault: %v", r)})
			m.record(res, buf)
		}
	}()

	m.logger.Debug("Executing command",
		zap.String("command", command),
		zap.Duration("timeout", timeout))

	offset := buf.Total()
	if _, err := io.WriteString(proc, command+m.cfg.LineEnding); err != nil {
		res = failed(&Error{
			Kind: KindExecution,
			Op:   "execute",
			Err:  fmt.Errorf("write to console: %w", err),
			Hint: "The console process may have exited. Reconnect to start a new session.",
		})
		m.record(res, buf)
		return res
	}

	comp := m.completion.Wait(ctx, buf.Total, offset, timeout)
	res = m.classify(command, buf.Since(offset), comp, timeout)
	m.record(res, buf)
	return res
}

func (m *Manager) classify(command, raw string, comp Completion, timeout time.Duration) Result {
	out := m.normalizer.Normalize(m.normalizer.StripEcho(raw, command))
	res := Result{Success: true, Output: out, Elapsed: comp.Elapsed}

	if parsed, ok := m.extractor.Extract(out); ok {
		res.Parsed = parsed
	}

	switch {
	case comp.TimedOut:
		res.Success = false
		res.TimedOut = true
		res.Kind = KindExecutionTimeout
		res.Error = fmt.Sprintf("command did not finish within %s", timeout)
		res.Hint = "The console may still be busy. Late output can appear in the next result; restart the console if results look out of step."
		res.Output = annotate(out, fmt.Sprintf("⚠️ Command did not finish within %s; output may be incomplete.", timeout))
	case m.extractor.HasErrorPattern(out):
		res.Success = false
		res.Kind = KindInterpreter
		if res.Parsed != nil {
			res.Error = Format(res.Parsed)
		} else {
			res.Error = out
		}
	}

	if !comp.TimedOut && m.cfg.SlowThreshold > 0 && comp.Elapsed > m.cfg.SlowThreshold {
		res.Output = annotate(res.Output, fmt.Sprintf("⏱️ Slow command: finished in %.1fs.", comp.Elapsed.Seconds()))
	}
	return res
}

func (m *Manager) record(res Result, buf *Buffer) {
	m.mu.Lock()
	m.executions++
	if !res.Success {
		m.lastErr = res.Error
	}
	m.mu.Unlock()

	m.observer.ExecutionFinished(res.Kind, res.Elapsed)
	m.observer.BufferSize(buf.Len())

	fields := []zap.Field{
		zap.Bool("success", res.Success),
		zap.String("kind", string(res.Kind)),
		zap.Duration("elapsed", res.Elapsed),
	}
	if res.Success {
		m.logger.Debug("Command finished", fields...)
	} else {
		m.logger.Warn("Command failed", fields...)
	}
}

// pump copies process output into buf until the terminal closes.
func (m *Manager) pump(proc Process, buf *Buffer, drained chan<- struct{}) {
	defer close(drained)

	chunk := make([]byte, 4096)
	var carry []byte
	for {
		n, err := proc.Read(chunk)
		if n > 0 {
			data := append(carry, chunk[:n]...)
			complete, rest := splitUTF8(data)
			buf.Append(string(complete))
			carry = append([]byte(nil), rest...)
		}
		if err != nil {
			if len(carry) > 0 {
				buf.Append(string(carry))
			}
			return
		}
	}
}

// watch marks the session stopped when its process exits on its own.
func (m *Manager) watch(proc Process, exit *exitInfo) {
	err := proc.Wait()
	m.mu.Lock()
	exit.err = err
	if m.proc == proc {
		exit.unexpected = true
		m.proc = nil
		m.state = StateStopped
		if err != nil {
			m.lastErr = fmt.Sprintf("console exited: %v", err)
		} else {
			m.lastErr = "console exited"
		}
		m.logger.Warn("Console process exited", zap.Int("pid", proc.Pid()), zap.Error(err))
	}
	m.mu.Unlock()
	if exit.unexpected {
		m.observer.SessionStopped()
	}
	close(exit.done)
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

func (m *Manager) startFailed(e *Error) error {
	m.mu.Lock()
	if m.state != StateFailed {
		m.state = StateStopped
	}
	m.lastErr = e.Error()
	m.mu.Unlock()
	m.logger.Error("Console failed to start",
		zap.String("kind", string(e.Kind)),
		zap.Error(e))
	return e
}

func failed(e *Error) Result {
	return Result{Success: false, Error: e.Error(), Kind: e.Kind, Hint: e.Hint}
}

func annotate(out, note string) string {
	if out == "" {
		return note
	}
	return out + "\n\n" + note
}
