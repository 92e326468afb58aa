package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/creack/pty"
)

// SpawnSpec describes the child process to launch.
type SpawnSpec struct {
	Argv []string
	Dir  string
	Env  []string
	Cols uint16
	Rows uint16
}

// Process is a running child attached to a terminal.
type Process interface {
	io.ReadWriter
	Pid() int
	// Wait blocks until the process exits.
	Wait() error
	// Kill terminates the process and releases the terminal.
	Kill() error
}

// Spawner launches child processes.
type Spawner interface {
	Spawn(ctx context.Context, spec SpawnSpec) (Process, error)
}

// PTYSpawner starts processes inside a pseudo-terminal.
type PTYSpawner struct{}

// Spawn starts spec.Argv with a PTY of the requested geometry. The process
// outlives ctx; ctx only bounds the spawn itself.
func (PTYSpawner) Spawn(ctx context.Context, spec SpawnSpec) (Process, error) {
	if len(spec.Argv) == 0 {
		return nil, errors.New("empty command line")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := exec.LookPath(spec.Argv[0])
	if err != nil {
		return nil, fmt.Errorf("command not found: %s: %w", spec.Argv[0], err)
	}

	cmd := exec.Command(path, spec.Argv[1:]...)
	cmd.Dir = spec.Dir
	cmd.Env = spec.Env

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{
		Rows: spec.Rows,
		Cols: spec.Cols,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start PTY: %w", err)
	}

	return &ptyProcess{cmd: cmd, ptmx: ptmx}, nil
}

type ptyProcess struct {
	cmd       *exec.Cmd
	ptmx      *os.File
	closeOnce sync.Once
}

func (p *ptyProcess) Read(b []byte) (int, error)  { return p.ptmx.Read(b) }
func (p *ptyProcess) Write(b []byte) (int, error) { return p.ptmx.Write(b) }
func (p *ptyProcess) Pid() int                    { return p.cmd.Process.Pid }

func (p *ptyProcess) Wait() error {
	err := p.cmd.Wait()
	p.close()
	return err
}

func (p *ptyProcess) Kill() error {
	var err error
	if p.cmd.Process != nil {
		if kerr := p.cmd.Process.Kill(); kerr != nil && !errors.Is(kerr, os.ErrProcessDone) {
			err = kerr
		}
	}
	p.close()
	return err
}

func (p *ptyProcess) close() {
	p.closeOnce.Do(func() {
		p.ptmx.Close()
	})
}
