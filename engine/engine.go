package engine

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-lighting/engine/profiler"
	"github.com/Carmen-Shannon/oxy-lighting/engine/renderer"
	"github.com/Carmen-Shannon/oxy-lighting/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-lighting/engine/scene"
	"github.com/Carmen-Shannon/oxy-lighting/engine/window"
	"github.com/Carmen-Shannon/oxy-lighting/internal/logging"
)

// ErrNotConfigured is returned by Run when the engine has no backend, renderer or scene.
var ErrNotConfigured = errors.New("engine: backend, renderer and scene are required")

// Loader is implemented by scenes that upload GPU resources before the first frame.
type Loader interface {
	Load(b backend.Backend) error
	Unload()
}

// Updater is implemented by scenes that animate. Update runs on the tick goroutine.
type Updater interface {
	Update(deltaTime float32)
}

// Resizer is implemented by scenes that follow the viewport size.
type Resizer interface {
	Resize(width, height int)
}

// engine implements the Engine interface.
// The render loop runs on the goroutine that calls Run; scene updates run on a tick goroutine.
type engine struct {
	mu *sync.Mutex

	tickRateChannel chan time.Duration

	running bool
	paused  bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once

	window   window.Window
	backend  backend.Backend
	renderer renderer.Renderer
	scene    scene.Scene

	width, height int
	pendingResize bool

	profiler         *profiler.Profiler
	profilingEnabled bool

	engineTickRate   time.Duration
	renderFrameLimit time.Duration
	maxFrames        int
	frames           int
}

// Engine drives a renderer: it initializes it, resets it on every resize, renders and
// executes one frame per loop iteration and shuts everything down when the loop ends.
type Engine interface {
	// Window returns the window the engine polls, or nil when running headless.
	//
	// Returns:
	//   - window.Window: the window
	Window() window.Window

	// Renderer returns the renderer the engine drives.
	//
	// Returns:
	//   - renderer.Renderer: the renderer
	Renderer() renderer.Renderer

	// Frames returns the number of frames rendered by Run so far.
	//
	// Returns:
	//   - int: the frame count
	Frames() int

	// SetTickRate sets the scene update rate in ticks per second.
	// If the engine is running, the change takes effect immediately.
	//
	// Parameters:
	//   - fps: target ticks per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetPaused stops or resumes scene updates. Rendering continues while paused.
	//
	// Parameters:
	//   - paused: true to stop updates
	SetPaused(paused bool)

	// Resize schedules a viewport change. It is applied on the render goroutine before the
	// next frame. Safe for concurrent use.
	//
	// Parameters:
	//   - width: the new width in pixels
	//   - height: the new height in pixels
	Resize(width, height int)

	// Run initializes the renderer, loads the scene and renders until the window closes,
	// Quit is called or the frame limit is reached. Everything is shut down before it returns.
	//
	// Returns:
	//   - error: ErrNotConfigured, or the error of loading the scene
	Run() error

	// Quit stops the loops. Safe to call multiple times and from any goroutine.
	Quit()
}

var _ Engine = &engine{}

// NewEngine creates a new Engine instance with the provided options.
//
// Parameters:
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		mu:              &sync.Mutex{},
		tickRateChannel: make(chan time.Duration, 1),
		quitChannel:     make(chan struct{}),
		profiler:        profiler.NewProfiler(),
		engineTickRate:  time.Second / 60,
		width:           1280,
		height:          720,
	}

	for _, opt := range options {
		opt(e)
	}

	if e.window != nil {
		e.width, e.height = e.window.Size()
		e.window.SetResizeCallback(e.Resize)
		e.window.SetKeyDownCallback(e.handleKey)
		e.window.SetScrollCallback(e.handleScroll)
	}
	return e
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Renderer() renderer.Renderer {
	return e.renderer
}

func (e *engine) Frames() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.frames
}

func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	newRate := time.Second / time.Duration(fps)

	e.mu.Lock()
	running := e.running
	if !running {
		e.engineTickRate = newRate
	}
	e.mu.Unlock()
	if !running {
		return
	}

	// replace a pending update that was not consumed yet
	select {
	case e.tickRateChannel <- newRate:
	default:
		select {
		case <-e.tickRateChannel:
		default:
		}
		e.tickRateChannel <- newRate
	}
}

func (e *engine) SetPaused(paused bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.paused = paused
}

func (e *engine) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.width, e.height = width, height
	e.pendingResize = true
}

func (e *engine) Quit() {
	e.quitOnce.Do(func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
		close(e.quitChannel)
	})
}

func (e *engine) Run() error {
	if e.backend == nil || e.renderer == nil || e.scene == nil {
		return ErrNotConfigured
	}

	e.renderer.SetScene(e.scene)
	e.renderer.Initialize(e.backend)
	defer e.renderer.Shutdown()

	if l, ok := e.scene.(Loader); ok {
		if err := l.Load(e.backend); err != nil {
			return fmt.Errorf("failed to load scene %s: %w", e.scene.Name(), err)
		}
		defer l.Unload()
	}

	e.mu.Lock()
	e.running = true
	e.pendingResize = true
	e.mu.Unlock()

	e.wg.Add(1)
	go e.handleTick()
	defer e.wg.Wait()
	defer e.Quit()

	logging.Logger().Info("engine started", "renderer", e.renderer.Name(), "backend", e.backend.Name(), "scene", e.scene.Name())
	e.handleRender()
	logging.Logger().Info("engine stopped", "frames", e.Frames())
	return nil
}

// handleTick runs the fixed-rate scene update loop until the quit channel is closed.
func (e *engine) handleTick() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.engineTickRate)
	defer ticker.Stop()

	updater, _ := e.scene.(Updater)
	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now

			e.mu.Lock()
			paused := e.paused
			e.mu.Unlock()
			if updater != nil && !paused {
				updater.Update(dt)
			}
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.engineTickRate = newRate
		}
	}
}

// handleRender renders frames on the calling goroutine until the engine quits.
// Panics are recovered so the deferred shutdown still runs.
func (e *engine) handleRender() {
	defer func() {
		if r := recover(); r != nil {
			logging.Logger().Error("render loop recovered from panic", "panic", r)
		}
	}()

	lastRender := time.Now()
	for {
		select {
		case <-e.quitChannel:
			return
		default:
		}

		if e.window != nil && !e.window.PollEvents() {
			return
		}
		e.applyResize()

		now := time.Now()
		dt := float32(now.Sub(lastRender).Seconds())
		lastRender = now

		e.renderer.Render(dt)
		e.backend.Frame()

		if e.profilingEnabled {
			e.profiler.Tick()
		}

		e.mu.Lock()
		e.frames++
		done := e.maxFrames > 0 && e.frames >= e.maxFrames
		e.mu.Unlock()
		if done {
			return
		}

		if e.renderFrameLimit > 0 {
			if remaining := e.renderFrameLimit - time.Since(now); remaining > 0 {
				time.Sleep(remaining)
			}
		}
	}
}

// applyResize resets the backend, renderer and scene once per pending size change.
func (e *engine) applyResize() {
	e.mu.Lock()
	pending := e.pendingResize
	width, height := e.width, e.height
	e.pendingResize = false
	e.mu.Unlock()
	if !pending {
		return
	}

	e.backend.Reset(width, height)
	e.renderer.Reset(width, height)
	if r, ok := e.scene.(Resizer); ok {
		r.Resize(width, height)
	}
	logging.Logger().Debug("viewport reset", "width", width, "height", height)
}

// handleKey maps key presses to renderer variables and engine toggles.
func (e *engine) handleKey(keyCode uint32) {
	switch keyCode {
	case window.KeyF1, window.KeyD:
		e.toggleVariable(renderer.VariableDebugVis)
	case window.KeyL:
		e.toggleVariable(renderer.VariableLightCull)
	case window.KeySpace:
		e.mu.Lock()
		e.paused = !e.paused
		e.mu.Unlock()
	}
}

func (e *engine) toggleVariable(name string) {
	value := "true"
	if e.renderer.Variable(name) == "true" {
		value = "false"
	}
	e.renderer.SetVariable(name, value)
	logging.Logger().Info("renderer variable changed", "name", name, "value", value)
}

// handleScroll moves the camera towards or away from its target.
func (e *engine) handleScroll(delta float32) {
	cam := e.scene.Camera()
	if cam == nil {
		return
	}
	o := cam.Orbit()
	o.Radius = min(max(o.Radius*(1-0.1*delta), 2), cam.Far()*0.5)
	cam.SetOrbit(o)
}
