package profiler

import (
	"log/slog"
	"runtime"
	"time"

	"github.com/Carmen-Shannon/oxy-lighting/internal/logging"
)

// Stats summarizes the frames of one reporting interval.
type Stats struct {
	Frames int
	FPS    float64

	// frame time distribution over the interval
	MinFrame, MaxFrame, AvgFrame time.Duration

	HeapMB float64
	NumGC  uint32
}

// Profiler tracks frame times and memory statistics and logs a summary at a fixed interval.
type Profiler struct {
	now            func() time.Time
	updateInterval time.Duration
	attrs          []any

	lastTime  time.Time
	lastFrame time.Time

	frameCount int
	minFrame   time.Duration
	maxFrame   time.Duration
	memStats   runtime.MemStats
	last       Stats
}

// ProfilerOption configures a Profiler.
type ProfilerOption func(p *Profiler)

// WithInterval sets how often statistics are reported. Defaults to one second.
func WithInterval(d time.Duration) ProfilerOption {
	return func(p *Profiler) {
		if d > 0 {
			p.updateInterval = d
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) ProfilerOption {
	return func(p *Profiler) {
		p.now = now
	}
}

// WithAttrs adds key/value pairs to every report, e.g. "renderer", "deferred".
func WithAttrs(args ...any) ProfilerOption {
	return func(p *Profiler) {
		p.attrs = append(p.attrs, args...)
	}
}

// NewProfiler creates a Profiler whose first interval starts now.
//
// Parameters:
//   - options: profiler options
//
// Returns:
//   - *Profiler: the profiler
func NewProfiler(options ...ProfilerOption) *Profiler {
	p := &Profiler{
		now:            time.Now,
		updateInterval: time.Second,
	}
	for _, opt := range options {
		opt(p)
	}
	p.lastTime = p.now()
	p.lastFrame = p.lastTime
	return p
}

// Tick should be called once per frame. When the interval elapsed the statistics of the
// interval are logged at Info and the counters restart.
//
// Returns:
//   - bool: true if stats were reported this tick
func (p *Profiler) Tick() bool {
	current := p.now()
	frame := current.Sub(p.lastFrame)
	p.lastFrame = current

	if p.frameCount == 0 || frame < p.minFrame {
		p.minFrame = frame
	}
	p.maxFrame = max(p.maxFrame, frame)
	p.frameCount++

	elapsed := current.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	runtime.ReadMemStats(&p.memStats)
	p.last = Stats{
		Frames:   p.frameCount,
		FPS:      float64(p.frameCount) / elapsed.Seconds(),
		MinFrame: p.minFrame,
		MaxFrame: p.maxFrame,
		AvgFrame: elapsed / time.Duration(p.frameCount),
		HeapMB:   float64(p.memStats.Alloc) / 1024 / 1024,
		NumGC:    p.memStats.NumGC,
	}

	logging.Logger().Info("frame stats", append([]any{
		slog.Float64("fps", p.last.FPS),
		slog.Duration("avg", p.last.AvgFrame),
		slog.Duration("min", p.last.MinFrame),
		slog.Duration("max", p.last.MaxFrame),
		slog.Float64("heapMB", p.last.HeapMB),
		slog.Uint64("gc", uint64(p.last.NumGC)),
	}, p.attrs...)...)

	p.frameCount = 0
	p.maxFrame = 0
	p.lastTime = current
	return true
}

// Last returns the statistics of the most recently reported interval.
func (p *Profiler) Last() Stats {
	return p.last
}
