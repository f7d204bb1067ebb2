package profiler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock advances by the next step on every call after the first.
type fakeClock struct {
	now   time.Time
	steps []time.Duration
}

func (c *fakeClock) Now() time.Time {
	t := c.now
	if len(c.steps) > 0 {
		c.now = c.now.Add(c.steps[0])
		c.steps = c.steps[1:]
	}
	return t
}

func TestProfiler_Tick(t *testing.T) {
	clock := &fakeClock{
		now: time.Unix(0, 0),
		// NewProfiler reads the clock once, then one read per Tick
		steps: []time.Duration{
			10 * time.Millisecond,
			30 * time.Millisecond,
			20 * time.Millisecond,
			40 * time.Millisecond,
		},
	}
	p := NewProfiler(WithClock(clock.Now), WithInterval(100*time.Millisecond), WithAttrs("renderer", "test"))

	assert.False(t, p.Tick())
	assert.False(t, p.Tick())
	assert.False(t, p.Tick())
	assert.Zero(t, p.Last().Frames)
	require.True(t, p.Tick())

	s := p.Last()
	assert.Equal(t, 4, s.Frames)
	assert.InDelta(t, 40, s.FPS, 1e-9)
	assert.Equal(t, 10*time.Millisecond, s.MinFrame)
	assert.Equal(t, 40*time.Millisecond, s.MaxFrame)
	assert.Equal(t, 25*time.Millisecond, s.AvgFrame)
	assert.Positive(t, s.HeapMB)
}

func TestProfiler_IntervalRestarts(t *testing.T) {
	clock := &fakeClock{
		now:   time.Unix(0, 0),
		steps: []time.Duration{time.Second, 50 * time.Millisecond, 950 * time.Millisecond},
	}
	p := NewProfiler(WithClock(clock.Now))

	require.True(t, p.Tick())
	assert.Equal(t, 1, p.Last().Frames)
	assert.Equal(t, time.Second, p.Last().MaxFrame)

	assert.False(t, p.Tick())
	require.True(t, p.Tick())
	s := p.Last()
	assert.Equal(t, 2, s.Frames)
	// counters restart, the long first frame is not carried over
	assert.Equal(t, 50*time.Millisecond, s.MinFrame)
	assert.Equal(t, 950*time.Millisecond, s.MaxFrame)
}

func TestWithInterval_IgnoresNonPositive(t *testing.T) {
	p := NewProfiler(WithInterval(0), WithInterval(-time.Second))
	assert.Equal(t, time.Second, p.updateInterval)
}
