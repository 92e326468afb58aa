package testutil

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/GriffinCanCode/replbridge/internal/console"
	"go.uber.org/zap/zaptest"
)

// RailsBoot is the startup output of a Rails console.
const RailsBoot = "Loading development environment (Rails 7.1.2)\r\nirb(main):001:0> "

// FastTiming keeps completion detection in the millisecond range.
var FastTiming = console.Timing{
	PollInterval: 2 * time.Millisecond,
	MinWait:      20 * time.Millisecond,
	QuietPeriod:  40 * time.Millisecond,
}

// IRB answers a handful of known expressions the way irb would.
func IRB(line string) string {
	switch line {
	case "1 + 1":
		return "=> 2\r\nirb(main):002:0> "
	case "User.count":
		return "=> 42\r\nirb(main):002:0> "
	case "a":
		return "(NameError):4:in '<main>': undefined local variable or method 'a' for main\r\nirb(main):002:0> "
	case "sleep":
		return ""
	}
	return "=> nil\r\nirb(main):002:0> "
}

// FakeProcess is a scripted console process. Input lines are echoed and
// answered by Respond.
type FakeProcess struct {
	outR *io.PipeReader
	outW *io.PipeWriter

	Respond func(line string) string

	mu     sync.Mutex
	inputs []string

	done chan struct{}
	once sync.Once
}

// NewFakeProcess creates a process that prints boot immediately.
func NewFakeProcess(boot string, respond func(string) string) *FakeProcess {
	r, w := io.Pipe()
	p := &FakeProcess{outR: r, outW: w, Respond: respond, done: make(chan struct{})}
	if boot != "" {
		go p.Emit(boot)
	}
	return p
}

// Emit writes s to the process output.
func (p *FakeProcess) Emit(s string) {
	_, _ = p.outW.Write([]byte(s))
}

func (p *FakeProcess) Read(b []byte) (int, error) { return p.outR.Read(b) }

func (p *FakeProcess) Write(b []byte) (int, error) {
	select {
	case <-p.done:
		return 0, errors.New("process exited")
	default:
	}

	for _, line := range strings.Split(strings.TrimRight(string(b), "\n"), "\n") {
		p.mu.Lock()
		p.inputs = append(p.inputs, line)
		p.mu.Unlock()

		go func(line string) {
			p.Emit(line + "\r\n")
			if p.Respond != nil {
				if out := p.Respond(line); out != "" {
					p.Emit(out)
				}
			}
		}(line)
	}
	return len(b), nil
}

func (p *FakeProcess) Pid() int { return 4242 }

func (p *FakeProcess) Wait() error {
	<-p.done
	return nil
}

func (p *FakeProcess) Kill() error {
	p.once.Do(func() {
		close(p.done)
		_ = p.outW.Close()
	})
	return nil
}

// Inputs returns the lines written so far.
func (p *FakeProcess) Inputs() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.inputs...)
}

// FakeSpawner hands out FakeProcesses, or fails with Err.
type FakeSpawner struct {
	mu     sync.Mutex
	NewFn  func() *FakeProcess
	Err    error
	spawns int
}

// NewRailsSpawner spawns processes that boot like Rails and answer like IRB.
func NewRailsSpawner() *FakeSpawner {
	return &FakeSpawner{NewFn: func() *FakeProcess { return NewFakeProcess(RailsBoot, IRB) }}
}

func (s *FakeSpawner) Spawn(_ context.Context, _ console.SpawnSpec) (console.Process, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spawns++
	if s.Err != nil {
		return nil, s.Err
	}
	return s.NewFn(), nil
}

// SetErr changes the spawn failure.
func (s *FakeSpawner) SetErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Err = err
}

// Spawns counts Spawn calls.
func (s *FakeSpawner) Spawns() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.spawns
}

// NewConsoleManager builds a manager over spawner with fast timings.
func NewConsoleManager(t *testing.T, spawner console.Spawner, opts ...console.Option) *console.Manager {
	t.Helper()
	cfg := console.Config{
		Command:        "bundle exec rails console",
		WorkingDir:     t.TempDir(),
		Timeout:        time.Second,
		StartupTimeout: time.Second,
		SlowThreshold:  time.Hour,
		Timing:         FastTiming,
	}
	opts = append([]console.Option{console.WithSpawner(spawner), console.WithLogger(zaptest.NewLogger(t))}, opts...)
	m := console.New(cfg, opts...)
	t.Cleanup(func() { _ = m.Stop() })
	return m
}
