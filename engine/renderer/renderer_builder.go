package renderer

import (
	"io/fs"

	"github.com/Carmen-Shannon/oxy-lighting/engine/scene"
)

// RendererBuilderOption is a functional option applied to a renderer during construction via
// NewForwardRenderer, NewDeferredRenderer or NewClusteredRenderer.
type RendererBuilderOption func(*base)

// WithScene sets the scene drawn by Render.
//
// Parameters:
//   - s: the scene
//
// Returns:
//   - RendererBuilderOption: a function that applies the scene option to a renderer
func WithScene(s scene.Scene) RendererBuilderOption {
	return func(r *base) {
		r.scene = s
	}
}

// WithShaderFS replaces the embedded shader sources with the .wgsl files in dir of fsys.
// Useful for iterating on shaders from disk with os.DirFS.
//
// Parameters:
//   - fsys: the file system holding the sources
//   - dir: the directory inside fsys, "." for its root
//
// Returns:
//   - RendererBuilderOption: a function that applies the shader source option to a renderer
func WithShaderFS(fsys fs.FS, dir string) RendererBuilderOption {
	return func(r *base) {
		r.fsys = fsys
		r.shaderDir = dir
	}
}

// WithClearColor sets the color the first HDR pass and the backbuffer are cleared to.
//
// Parameters:
//   - rgba: the color packed as 0xRRGGBBAA, see backend.PackRGBA
//
// Returns:
//   - RendererBuilderOption: a function that applies the clear color option to a renderer
func WithClearColor(rgba uint32) RendererBuilderOption {
	return func(r *base) {
		r.clearColor = rgba
	}
}

// WithExposure sets the exposure multiplier applied before tonemapping. Defaults to 1.
//
// Parameters:
//   - exposure: the linear exposure factor
//
// Returns:
//   - RendererBuilderOption: a function that applies the exposure option to a renderer
func WithExposure(exposure float32) RendererBuilderOption {
	return func(r *base) {
		r.exposure = exposure
	}
}

// WithTonemapping sets the tonemapping operator. Defaults to TonemappingACES.
//
// Parameters:
//   - mode: the operator
//
// Returns:
//   - RendererBuilderOption: a function that applies the tonemapping option to a renderer
func WithTonemapping(mode TonemappingMode) RendererBuilderOption {
	return func(r *base) {
		r.tonemapping = mode
	}
}

// WithVariable presets a runtime variable, e.g. WithVariable(VariableDebugVis, "true").
//
// Parameters:
//   - name: the variable name
//   - value: the value
//
// Returns:
//   - RendererBuilderOption: a function that applies the variable option to a renderer
func WithVariable(name, value string) RendererBuilderOption {
	return func(r *base) {
		r.variables[name] = value
	}
}
