package engine

import (
	"time"

	"github.com/Carmen-Shannon/oxy-lighting/engine/profiler"
	"github.com/Carmen-Shannon/oxy-lighting/engine/renderer"
	"github.com/Carmen-Shannon/oxy-lighting/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-lighting/engine/scene"
	"github.com/Carmen-Shannon/oxy-lighting/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
type EngineBuilderOption func(*engine)

// WithBackend sets the GPU backend frames are executed on.
//
// Parameters:
//   - b: the backend
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithBackend(b backend.Backend) EngineBuilderOption {
	return func(e *engine) {
		e.backend = b
	}
}

// WithRenderer sets the renderer, usually the result of renderer.Select.
//
// Parameters:
//   - r: the uninitialized renderer
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderer(r renderer.Renderer) EngineBuilderOption {
	return func(e *engine) {
		e.renderer = r
	}
}

// WithScene sets the scene to draw. Scenes implementing Loader, Updater or Resizer are
// loaded, animated and resized by the engine.
//
// Parameters:
//   - s: the scene
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithScene(s scene.Scene) EngineBuilderOption {
	return func(e *engine) {
		e.scene = s
	}
}

// WithWindow sets the window to poll and follow. Without a window the engine runs headless
// at the size given by WithSize.
//
// Parameters:
//   - w: an open Window instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithSize sets the viewport size of a headless engine.
//
// Parameters:
//   - width, height: the viewport size in pixels
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithSize(width, height int) EngineBuilderOption {
	return func(e *engine) {
		e.width, e.height = width, height
	}
}

// WithProfiling enables or disables periodic frame statistics.
//
// Parameters:
//   - enabled: if true, frame statistics are logged every second
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithProfiler replaces the default profiler.
//
// Parameters:
//   - p: the profiler
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiler(p *profiler.Profiler) EngineBuilderOption {
	return func(e *engine) {
		e.profiler = p
	}
}

// WithTickRate sets the scene update rate in ticks per second.
// Values <= 0 will be treated as the default (60Hz).
//
// Parameters:
//   - fps: target ticks per second (default 60)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickRate(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			fps = 60.0
		}
		e.engineTickRate = time.Second / time.Duration(fps)
	}
}

// WithRenderFrameLimit sets an optional render frame rate cap in frames per second.
// Pass 0 to uncap the render loop (default).
//
// Parameters:
//   - fps: maximum render frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			e.renderFrameLimit = 0
			return
		}
		e.renderFrameLimit = time.Second / time.Duration(fps)
	}
}

// WithMaxFrames stops Run after n frames. 0 renders until the window closes.
//
// Parameters:
//   - n: the number of frames
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithMaxFrames(n int) EngineBuilderOption {
	return func(e *engine) {
		e.maxFrames = n
	}
}
