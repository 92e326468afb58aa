package console

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"
)

// fakeClock advances virtual time on every Sleep.
type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	onSleep func(now time.Time)
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	c.now = c.now.Add(d)
	now := c.now
	c.mu.Unlock()
	if c.onSleep != nil {
		c.onSleep(now)
	}
	return nil
}

// fakeProcess is a scripted console. Each line written to it is echoed
// (unless echo is off) and answered by respond.
type fakeProcess struct {
	outR *io.PipeReader
	outW *io.PipeWriter

	echo    bool
	respond func(line string) string

	mu     sync.Mutex
	inputs []string

	done chan struct{}
	once sync.Once
}

func newFakeProcess(boot string, respond func(string) string) *fakeProcess {
	r, w := io.Pipe()
	p := &fakeProcess{
		outR:    r,
		outW:    w,
		echo:    true,
		respond: respond,
		done:    make(chan struct{}),
	}
	if boot != "" {
		go p.emit(boot)
	}
	return p
}

func (p *fakeProcess) emit(s string) {
	_, _ = p.outW.Write([]byte(s))
}

func (p *fakeProcess) Read(b []byte) (int, error) { return p.outR.Read(b) }

func (p *fakeProcess) Write(b []byte) (int, error) {
	select {
	case <-p.done:
		return 0, errors.New("process exited")
	default:
	}

	for _, line := range strings.Split(strings.TrimRight(string(b), "\n"), "\n") {
		p.mu.Lock()
		p.inputs = append(p.inputs, line)
		p.mu.Unlock()

		if p.echo {
			p.emit(line + "\r\n")
		}
		if p.respond != nil {
			if out := p.respond(line); out != "" {
				p.emit(out)
			}
		}
	}
	return len(b), nil
}

func (p *fakeProcess) Pid() int { return 4242 }

func (p *fakeProcess) Wait() error {
	<-p.done
	return nil
}

func (p *fakeProcess) Kill() error {
	p.once.Do(func() {
		close(p.done)
		_ = p.outW.Close()
	})
	return nil
}

func (p *fakeProcess) Inputs() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.inputs...)
}

type fakeSpawner struct {
	mu     sync.Mutex
	newFn  func() *fakeProcess
	err    error
	spawns int
	specs  []SpawnSpec
	procs  []*fakeProcess
	// onSpawn runs after a process is created, before Spawn returns.
	onSpawn func()
}

func (s *fakeSpawner) Spawn(_ context.Context, spec SpawnSpec) (Process, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spawns++
	s.specs = append(s.specs, spec)
	if s.err != nil {
		return nil, s.err
	}
	p := s.newFn()
	s.procs = append(s.procs, p)
	if s.onSpawn != nil {
		s.onSpawn()
	}
	return p, nil
}

func (s *fakeSpawner) Spawns() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.spawns
}

func (s *fakeSpawner) Last() *fakeProcess {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.procs) == 0 {
		return nil
	}
	return s.procs[len(s.procs)-1]
}
