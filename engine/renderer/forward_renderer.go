package renderer

import (
	"github.com/Carmen-Shannon/oxy-lighting/engine/material"
	"github.com/Carmen-Shannon/oxy-lighting/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-lighting/engine/scene"
	"github.com/Carmen-Shannon/oxy-lighting/internal/logging"
)

// Views of the forward renderer, in execution order.
const (
	ViewForwardOpaque backend.ViewID = iota
	ViewForwardTransparent
)

// forwardRenderer shades every mesh with every light in a single pass. It needs nothing
// beyond the HDR target and is the fallback when no other renderer is supported.
type forwardRenderer struct {
	base

	program backend.Resource[backend.ProgramHandle]
}

var _ Renderer = &forwardRenderer{}

// NewForwardRenderer creates an uninitialized forward renderer.
//
// Parameters:
//   - options: the renderer options
//
// Returns:
//   - Renderer: the renderer
func NewForwardRenderer(options ...RendererBuilderOption) Renderer {
	return &forwardRenderer{base: newBase(NameForward, options...)}
}

func (r *forwardRenderer) Supported(b backend.Backend) bool {
	return r.supported(b.Caps())
}

func (r *forwardRenderer) Initialize(b backend.Backend) {
	if !r.initialize(b) {
		return
	}
	r.program.Own(r.loadProgram("vs_forward", "fs_forward"), b.DestroyProgram)
	logging.Logger().Info("renderer initialized", "renderer", r.name)
}

func (r *forwardRenderer) Reset(width, height int) {
	r.reset(width, height)
}

func (r *forwardRenderer) Render(deltaTime float32) {
	if r.b == nil {
		return
	}

	r.setupView(ViewForwardOpaque, "Forward", backend.ClearColor|backend.ClearDepth, r.frameBuffer.Handle())
	r.setupView(ViewForwardTransparent, "Transparent", backend.ClearNone, r.frameBuffer.Handle())
	r.setupTonemapView()

	if !r.ready() || !r.program.Valid() || !r.frameBuffer.Valid() {
		return
	}

	r.SetViewProjection(ViewForwardOpaque)
	r.SetViewProjection(ViewForwardTransparent)

	submit := func(view backend.ViewID) func(scene.Mesh, material.Material) {
		return func(mesh scene.Mesh, mat material.Material) {
			r.lights.BindLights(r.scene)
			r.submitMesh(view, r.program.Handle(), mesh, mat, forwardState)
		}
	}
	r.splitMeshes(submit(ViewForwardOpaque), submit(ViewForwardTransparent))
	r.submitTonemap()
}

func (r *forwardRenderer) Shutdown() {
	r.program.Release()
	r.shutdown()
}
