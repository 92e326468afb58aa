package console

import (
	"context"
	"time"
)

// Timing parameters for the settle-time heuristics.
const (
	DefaultPollInterval = 100 * time.Millisecond
	DefaultMinWait      = 1 * time.Second
	DefaultQuietPeriod  = 500 * time.Millisecond
)

// Timing tunes readiness polling and completion detection.
type Timing struct {
	// PollInterval is the delay between buffer checks.
	PollInterval time.Duration
	// MinWait is how much of the timeout window must elapse before a quiet
	// period can end the command.
	MinWait time.Duration
	// QuietPeriod is how long the buffer must stay unchanged to count as done.
	QuietPeriod time.Duration
}

// DefaultTiming returns the production timing parameters.
func DefaultTiming() Timing {
	return Timing{
		PollInterval: DefaultPollInterval,
		MinWait:      DefaultMinWait,
		QuietPeriod:  DefaultQuietPeriod,
	}
}

func (t Timing) withDefaults() Timing {
	d := DefaultTiming()
	if t.PollInterval <= 0 {
		t.PollInterval = d.PollInterval
	}
	if t.MinWait <= 0 {
		t.MinWait = d.MinWait
	}
	if t.QuietPeriod <= 0 {
		t.QuietPeriod = d.QuietPeriod
	}
	return t
}

// Clock abstracts time so tests can drive the heuristics in virtual time.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// RealClock returns the wall clock.
func RealClock() Clock { return realClock{} }

// Completion describes how waiting for a command ended.
type Completion struct {
	TimedOut bool
	Elapsed  time.Duration
}

// CompletionDetector decides when a command's output has stopped arriving.
// There is no end-of-response marker, so a sustained quiet period after
// output begins is taken as completion. Commands that print nothing, or pause
// longer than the quiet period mid-output, cannot be told apart from finished
// ones.
type CompletionDetector struct {
	timing Timing
	clock  Clock
}

// NewCompletionDetector creates a detector. A nil clock means wall time.
func NewCompletionDetector(timing Timing, clock Clock) *CompletionDetector {
	if clock == nil {
		clock = realClock{}
	}
	return &CompletionDetector{timing: timing.withDefaults(), clock: clock}
}

// Wait polls size until output that began after start has gone quiet, or
// until timeout elapses. Context cancellation is reported as a timeout.
func (d *CompletionDetector) Wait(ctx context.Context, size func() int, start int, timeout time.Duration) Completion {
	begin := d.clock.Now()
	deadline := begin.Add(timeout)
	elapsed := func() time.Duration { return d.clock.Now().Sub(begin) }

	outputStarted := false
	for d.clock.Now().Before(deadline) {
		if err := d.clock.Sleep(ctx, d.timing.PollInterval); err != nil {
			return Completion{TimedOut: true, Elapsed: elapsed()}
		}

		if size() != start {
			outputStarted = true
		}
		if !outputStarted || elapsed() < d.timing.MinWait {
			continue
		}

		snapshot := size()
		if err := d.clock.Sleep(ctx, d.timing.QuietPeriod); err != nil {
			return Completion{TimedOut: true, Elapsed: elapsed()}
		}
		if size() == snapshot {
			return Completion{Elapsed: elapsed()}
		}
	}

	return Completion{TimedOut: true, Elapsed: elapsed()}
}
