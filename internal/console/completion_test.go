package console

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// scriptedOutput returns a clock whose sleeps drive size according to emit.
func scriptedOutput(emit func(elapsed time.Duration, size *atomic.Int64)) (*fakeClock, func() int) {
	clock := newFakeClock()
	begin := clock.Now()
	var size atomic.Int64
	clock.onSleep = func(now time.Time) { emit(now.Sub(begin), &size) }
	return clock, func() int { return int(size.Load()) }
}

func TestCompletionQuietOutputFinishes(t *testing.T) {
	clock, size := scriptedOutput(func(elapsed time.Duration, size *atomic.Int64) {
		if elapsed == 200*time.Millisecond {
			size.Add(10)
		}
	})
	d := NewCompletionDetector(DefaultTiming(), clock)

	got := d.Wait(context.Background(), size, 0, 30*time.Second)

	assert.False(t, got.TimedOut)
	// MinWait reached at 1s, followed by one quiet period.
	assert.Equal(t, 1500*time.Millisecond, got.Elapsed)
}

func TestCompletionLateOutput(t *testing.T) {
	clock, size := scriptedOutput(func(elapsed time.Duration, size *atomic.Int64) {
		if elapsed == 1200*time.Millisecond {
			size.Add(5)
		}
	})
	d := NewCompletionDetector(DefaultTiming(), clock)

	got := d.Wait(context.Background(), size, 0, 30*time.Second)

	assert.False(t, got.TimedOut)
	assert.Equal(t, 1700*time.Millisecond, got.Elapsed)
}

func TestCompletionWaitsOutBurst(t *testing.T) {
	clock, size := scriptedOutput(func(elapsed time.Duration, size *atomic.Int64) {
		if elapsed <= 2*time.Second {
			size.Add(1)
		}
	})
	d := NewCompletionDetector(DefaultTiming(), clock)

	got := d.Wait(context.Background(), size, 0, 30*time.Second)

	assert.False(t, got.TimedOut)
	assert.GreaterOrEqual(t, got.Elapsed, 2*time.Second)
	assert.Less(t, got.Elapsed, 4*time.Second)
}

func TestCompletionContinuousOutputTimesOut(t *testing.T) {
	clock, size := scriptedOutput(func(_ time.Duration, size *atomic.Int64) {
		size.Add(1)
	})
	d := NewCompletionDetector(DefaultTiming(), clock)

	got := d.Wait(context.Background(), size, 0, 3*time.Second)

	assert.True(t, got.TimedOut)
	assert.GreaterOrEqual(t, got.Elapsed, 3*time.Second)
}

func TestCompletionNoOutputRunsToDeadline(t *testing.T) {
	clock, size := scriptedOutput(func(time.Duration, *atomic.Int64) {})
	d := NewCompletionDetector(DefaultTiming(), clock)

	got := d.Wait(context.Background(), size, 0, 3*time.Second)

	assert.True(t, got.TimedOut)
	assert.Equal(t, 3*time.Second, got.Elapsed)
}

func TestCompletionStartOffset(t *testing.T) {
	// Output already present before the command counts as nothing new.
	clock, size := scriptedOutput(func(time.Duration, *atomic.Int64) {})
	d := NewCompletionDetector(DefaultTiming(), clock)

	got := d.Wait(context.Background(), func() int { return size() + 50 }, 50, 2*time.Second)

	assert.True(t, got.TimedOut)
}

func TestCompletionContextCancelled(t *testing.T) {
	clock := newFakeClock()
	d := NewCompletionDetector(DefaultTiming(), clock)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := d.Wait(ctx, func() int { return 1 }, 0, 30*time.Second)

	assert.True(t, got.TimedOut)
	assert.Equal(t, time.Duration(0), got.Elapsed)
}

func TestTimingDefaults(t *testing.T) {
	assert.Equal(t, DefaultTiming(), Timing{}.withDefaults())

	custom := Timing{PollInterval: time.Millisecond, MinWait: 2 * time.Millisecond, QuietPeriod: 3 * time.Millisecond}
	assert.Equal(t, custom, custom.withDefaults())
}

func TestRealClockSleep(t *testing.T) {
	c := RealClock()
	assert.NoError(t, c.Sleep(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, c.Sleep(ctx, time.Hour), context.Canceled)
}
