// Package config loads the oxylight configuration file. TOML and YAML are supported; the
// format is chosen by the file extension.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

var (
	// ErrUnknownFormat is returned by Load for extensions other than .toml, .yaml and .yml.
	ErrUnknownFormat = errors.New("config: unknown file format")

	// ErrInvalid is wrapped by Validate for every rejected value.
	ErrInvalid = errors.New("config: invalid value")
)

// Renderer names accepted by RendererConfig.Preferred.
var rendererNames = []string{"auto", "deferred", "clustered", "forward"}

// Config is the whole configuration of the demo binary.
type Config struct {
	Window   WindowConfig   `toml:"window" yaml:"window"`
	Renderer RendererConfig `toml:"renderer" yaml:"renderer"`
	Scene    SceneConfig    `toml:"scene" yaml:"scene"`
	Profiler ProfilerConfig `toml:"profiler" yaml:"profiler"`

	// LogLevel is one of debug, info, warn and error.
	LogLevel string `toml:"log_level" yaml:"log_level"`
}

// WindowConfig sizes the window and the swap chain.
type WindowConfig struct {
	Title  string `toml:"title" yaml:"title"`
	Width  int    `toml:"width" yaml:"width"`
	Height int    `toml:"height" yaml:"height"`
	// FrameLimit caps the render rate in frames per second, 0 is uncapped.
	FrameLimit float64 `toml:"frame_limit" yaml:"frame_limit"`
}

// RendererConfig selects and tunes the renderer.
type RendererConfig struct {
	// Preferred is tried first by renderer selection. "auto" keeps the default order.
	Preferred string `toml:"preferred" yaml:"preferred"`
	// ShaderDir loads shaders from disk instead of the embedded copies when set.
	ShaderDir   string  `toml:"shader_dir" yaml:"shader_dir"`
	DebugVis    bool    `toml:"debug_vis" yaml:"debug_vis"`
	LightCull   bool    `toml:"light_cull" yaml:"light_cull"`
	Exposure    float32 `toml:"exposure" yaml:"exposure"`
	Tonemapping string  `toml:"tonemapping" yaml:"tonemapping"`
	// ClearColor is packed 0xRRGGBBAA.
	ClearColor uint32 `toml:"clear_color" yaml:"clear_color"`
	// Software requests a fallback adapter.
	Software bool `toml:"software" yaml:"software"`
}

// SceneConfig configures the demo scene.
type SceneConfig struct {
	Lights         int     `toml:"lights" yaml:"lights"`
	LightIntensity float32 `toml:"light_intensity" yaml:"light_intensity"`
	Animate        bool    `toml:"animate" yaml:"animate"`
	CameraSpeed    float32 `toml:"camera_speed" yaml:"camera_speed"`
	Seed           uint64  `toml:"seed" yaml:"seed"`
	// Model is a .gltf or .glb file replacing the procedural geometry.
	Model string `toml:"model" yaml:"model"`
	// MaxTextureSize bounds imported textures, 0 keeps their size.
	MaxTextureSize int `toml:"max_texture_size" yaml:"max_texture_size"`
}

// ProfilerConfig enables periodic frame statistics.
type ProfilerConfig struct {
	Enabled bool `toml:"enabled" yaml:"enabled"`
	// IntervalMS is the reporting interval in milliseconds.
	IntervalMS int `toml:"interval_ms" yaml:"interval_ms"`
}

// Default returns the configuration used for every field a file leaves out.
//
// Returns:
//   - Config: the defaults
func Default() Config {
	return Config{
		Window: WindowConfig{
			Title:  "oxylight",
			Width:  1280,
			Height: 720,
		},
		Renderer: RendererConfig{
			Preferred:   "auto",
			Exposure:    1,
			Tonemapping: "aces",
			ClearColor:  0x303030ff,
		},
		Scene: SceneConfig{
			Lights:         64,
			LightIntensity: 150,
			Animate:        true,
			CameraSpeed:    0.1,
			Seed:           1,
			MaxTextureSize: 2048,
		},
		Profiler: ProfilerConfig{
			IntervalMS: 1000,
		},
		LogLevel: "info",
	}
}

// Load reads path over Default and validates the result.
//
// Parameters:
//   - path: a .toml, .yaml or .yml file
//
// Returns:
//   - Config: the configuration
//   - error: ErrUnknownFormat, a read or decode error, or a validation error
func Load(path string) (Config, error) {
	cfg := Default()

	var unmarshal func([]byte, any) error
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		unmarshal = toml.Unmarshal
	case ".yaml", ".yml":
		unmarshal = yaml.Unmarshal
	default:
		return cfg, fmt.Errorf("%w: %q", ErrUnknownFormat, ext)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects values no component can run with. Renderer and tonemapping names are
// lower-cased in place.
//
// Returns:
//   - error: all problems joined, each wrapping ErrInvalid
func (c *Config) Validate() error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		invalid("window size %dx%d", c.Window.Width, c.Window.Height)
	}
	if c.Window.FrameLimit < 0 {
		invalid("window.frame_limit %v", c.Window.FrameLimit)
	}

	c.Renderer.Preferred = strings.ToLower(c.Renderer.Preferred)
	if c.Renderer.Preferred == "" {
		c.Renderer.Preferred = "auto"
	}
	known := false
	for _, n := range rendererNames {
		known = known || n == c.Renderer.Preferred
	}
	if !known {
		invalid("renderer.preferred %q, want one of %s", c.Renderer.Preferred, strings.Join(rendererNames, ", "))
	}
	if c.Renderer.Exposure <= 0 {
		invalid("renderer.exposure %v", c.Renderer.Exposure)
	}
	c.Renderer.Tonemapping = strings.ToLower(c.Renderer.Tonemapping)

	if c.Scene.Lights < 0 {
		invalid("scene.lights %d", c.Scene.Lights)
	}
	if c.Scene.LightIntensity < 0 {
		invalid("scene.light_intensity %v", c.Scene.LightIntensity)
	}
	if c.Scene.MaxTextureSize < 0 {
		invalid("scene.max_texture_size %d", c.Scene.MaxTextureSize)
	}
	if c.Profiler.IntervalMS < 0 {
		invalid("profiler.interval_ms %d", c.Profiler.IntervalMS)
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		invalid("log_level %q", c.LogLevel)
	}
	return errors.Join(errs...)
}
