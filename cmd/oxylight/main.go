// Command oxylight renders an animated scene lit by many point lights with the best
// renderer the GPU supports: clustered forward, deferred or plain forward.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Carmen-Shannon/oxy-lighting/engine"
	"github.com/Carmen-Shannon/oxy-lighting/engine/loader"
	"github.com/Carmen-Shannon/oxy-lighting/engine/profiler"
	"github.com/Carmen-Shannon/oxy-lighting/engine/renderer"
	"github.com/Carmen-Shannon/oxy-lighting/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-lighting/engine/scene"
	"github.com/Carmen-Shannon/oxy-lighting/engine/window"
	"github.com/Carmen-Shannon/oxy-lighting/internal/config"
	"github.com/Carmen-Shannon/oxy-lighting/internal/logging"
)

func main() {
	if err := run(); err != nil {
		logging.Logger().Error("oxylight failed", "error", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to a .toml or .yaml configuration file")
	preferred := flag.String("renderer", "", "preferred renderer: auto, clustered, deferred or forward")
	lights := flag.Int("lights", -1, "number of point lights")
	debugVis := flag.Bool("debug-vis", false, "show the cluster light count heat map")
	software := flag.Bool("software", false, "use the fallback software adapter")
	modelPath := flag.String("model", "", "glTF or GLB file replacing the procedural scene")
	frames := flag.Int("frames", 0, "exit after this many frames, 0 runs until the window closes")
	flag.Parse()

	// ── Config ──────────────────────────────────────────────────────────
	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return err
		}
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "renderer":
			cfg.Renderer.Preferred = *preferred
		case "lights":
			cfg.Scene.Lights = *lights
		case "debug-vis":
			cfg.Renderer.DebugVis = *debugVis
		case "software":
			cfg.Renderer.Software = *software
		case "model":
			cfg.Scene.Model = *modelPath
		}
	})
	if err := cfg.Validate(); err != nil {
		return err
	}
	tonemapping, err := renderer.ParseTonemappingMode(cfg.Renderer.Tonemapping)
	if err != nil {
		return err
	}

	logging.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logging.ParseLevel(cfg.LogLevel),
	})))

	// ── Scene ───────────────────────────────────────────────────────────
	demoOpts := []scene.DemoBuilderOption{
		scene.WithLightCount(cfg.Scene.Lights),
		scene.WithLightIntensity(cfg.Scene.LightIntensity),
		scene.WithAnimate(cfg.Scene.Animate),
		scene.WithCameraSpeed(cfg.Scene.CameraSpeed),
		scene.WithSeed(cfg.Scene.Seed),
	}
	if cfg.Scene.Model != "" {
		asset, err := loader.NewLoader(loader.WithMaxTextureSize(cfg.Scene.MaxTextureSize)).Load(cfg.Scene.Model)
		if err != nil {
			return err
		}
		demoOpts = append(demoOpts, scene.WithAsset(asset))
	}
	sc := scene.NewDemo(demoOpts...)
	defer sc.Close()

	// ── Window + Backend ────────────────────────────────────────────────
	win, err := window.NewWindow(
		window.WithTitle(cfg.Window.Title),
		window.WithSize(cfg.Window.Width, cfg.Window.Height),
	)
	if err != nil {
		return err
	}
	defer win.Close()

	width, height := win.Size()
	b := backend.NewWGPU(win.SurfaceDescriptor(), cfg.Renderer.Software, width, height)
	defer b.Shutdown()

	// ── Renderer ────────────────────────────────────────────────────────
	rendererOpts := []renderer.RendererBuilderOption{
		renderer.WithClearColor(cfg.Renderer.ClearColor),
		renderer.WithExposure(cfg.Renderer.Exposure),
		renderer.WithTonemapping(tonemapping),
		renderer.WithVariable(renderer.VariableDebugVis, fmt.Sprint(cfg.Renderer.DebugVis)),
		renderer.WithVariable(renderer.VariableLightCull, fmt.Sprint(cfg.Renderer.LightCull)),
	}
	if cfg.Renderer.ShaderDir != "" {
		rendererOpts = append(rendererOpts, renderer.WithShaderFS(os.DirFS(cfg.Renderer.ShaderDir), "."))
	}

	candidates := make([]renderer.Renderer, 0, 3)
	for _, name := range []string{renderer.NameClustered, renderer.NameDeferred, renderer.NameForward} {
		r, err := renderer.New(name, rendererOpts...)
		if err != nil {
			return err
		}
		candidates = append(candidates, r)
	}
	r, err := renderer.Select(b, cfg.Renderer.Preferred, candidates...)
	if err != nil {
		return err
	}

	// ── Engine ──────────────────────────────────────────────────────────
	interval := time.Duration(cfg.Profiler.IntervalMS) * time.Millisecond
	eng := engine.NewEngine(
		engine.WithWindow(win),
		engine.WithBackend(b),
		engine.WithRenderer(r),
		engine.WithScene(sc),
		engine.WithTickRate(60),
		engine.WithRenderFrameLimit(cfg.Window.FrameLimit),
		engine.WithMaxFrames(*frames),
		engine.WithProfiling(cfg.Profiler.Enabled),
		engine.WithProfiler(profiler.NewProfiler(
			profiler.WithInterval(interval),
			profiler.WithAttrs("renderer", r.Name(), "lights", cfg.Scene.Lights),
		)),
	)
	return eng.Run()
}
