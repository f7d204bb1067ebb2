package renderer

import (
	"io/fs"
	"sync"

	"github.com/Carmen-Shannon/oxy-lighting/common"
	"github.com/Carmen-Shannon/oxy-lighting/engine/light"
	"github.com/Carmen-Shannon/oxy-lighting/engine/material"
	"github.com/Carmen-Shannon/oxy-lighting/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-lighting/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-lighting/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-lighting/engine/renderer/shaders"
	"github.com/Carmen-Shannon/oxy-lighting/engine/scene"
	"github.com/Carmen-Shannon/oxy-lighting/internal/logging"
)

// Renderer names accepted by Select.
const (
	NameForward   = "forward"
	NameDeferred  = "deferred"
	NameClustered = "clustered"
)

// Variables read by the renderers every frame.
const (
	// VariableDebugVis switches the clustered lighting pass to the light count heatmap when "true".
	VariableDebugVis = "DEBUG_VIS"

	// VariableLightCull skips deferred light volumes outside the camera frustum when "true".
	VariableLightCull = "LIGHT_CULL"
)

// ViewTonemap is the last view of every frame. It resolves the HDR target into the backbuffer.
const ViewTonemap backend.ViewID = backend.MaxViews - 1

// SamplerColor is the texture stage the tonemap pass reads the HDR color from.
const SamplerColor uint8 = 0

// Renderer is one rendering strategy. Every renderer draws the scene into an HDR target and
// resolves it into the backbuffer with a tonemapping pass.
//
// All methods run on the render thread. The driver calls Supported before Initialize, Reset
// after Initialize and on every resize, Render once per frame and Shutdown once at exit.
// Render records the frame; executing it with backend.Backend.Frame is left to the driver.
type Renderer interface {
	// Name returns the renderer name, one of NameForward, NameDeferred or NameClustered.
	//
	// Returns:
	//   - string: the name
	Name() string

	// Supported reports whether the backend exposes every capability the renderer needs.
	// It allocates nothing.
	//
	// Parameters:
	//   - b: the backend to query
	//
	// Returns:
	//   - bool: true when the renderer can run on b
	Supported(b backend.Backend) bool

	// Initialize creates the uniforms, programs and static buffers of the renderer.
	// Failures are logged and leave the affected handles invalid; the passes using them are skipped.
	//
	// Parameters:
	//   - b: the backend to create resources on
	Initialize(b backend.Backend)

	// Reset records the viewport size and creates the size dependent render targets when they
	// do not exist yet. Calling it again keeps the existing targets, the backend resizes them.
	//
	// Parameters:
	//   - width: the viewport width in pixels
	//   - height: the viewport height in pixels
	Reset(width, height int)

	// Render records the views of one frame. Views are always set up; draws and dispatches
	// are only recorded once the renderer is initialized and the scene is loaded.
	//
	// Parameters:
	//   - deltaTime: seconds since the previous frame
	Render(deltaTime float32)

	// Shutdown destroys every resource the renderer owns. Calling it twice, or before
	// Initialize, does nothing.
	Shutdown()

	// SetScene replaces the scene drawn by Render. A nil scene is drawn as an unloaded one.
	//
	// Parameters:
	//   - s: the scene
	SetScene(s scene.Scene)

	// Scene returns the scene drawn by Render.
	//
	// Returns:
	//   - scene.Scene: the scene, or nil
	Scene() scene.Scene

	// SetVariable sets a runtime variable, e.g. VariableDebugVis. Renderers read variables
	// every frame, so a change takes effect on the next Render. Safe for concurrent use.
	//
	// Parameters:
	//   - name: the variable name
	//   - value: the new value
	SetVariable(name, value string)

	// Variable returns a runtime variable, or "" when it is unset. Safe for concurrent use.
	//
	// Parameters:
	//   - name: the variable name
	//
	// Returns:
	//   - string: the value
	Variable(name string) string

	// ShaderDir returns the directory of the shader sources inside the shader file system.
	//
	// Returns:
	//   - string: the directory, "." for the root of the embedded sources
	ShaderDir() string

	// FrameBuffer returns the HDR target the renderer draws into, invalid before Reset.
	//
	// Returns:
	//   - backend.FrameBufferHandle: the framebuffer
	FrameBuffer() backend.FrameBufferHandle
}

// base holds the state and passes shared by every renderer: the HDR target, the per-draw
// camera uniforms, the light and material binders and the tonemapping pass.
type base struct {
	mu *sync.RWMutex

	name string
	b    backend.Backend

	scene     scene.Scene
	fsys      fs.FS
	shaderDir string
	loader    shader.Loader
	variables map[string]string

	width, height int
	clearColor    uint32
	exposure      float32
	tonemapping   TonemappingMode

	lights light.Lights
	pbr    material.PBR

	camPosUniform       backend.Resource[backend.UniformHandle]
	normalMatrixUniform backend.Resource[backend.UniformHandle]
	exposureUniform     backend.Resource[backend.UniformHandle]
	tonemappingUniform  backend.Resource[backend.UniformHandle]
	colorSampler        backend.Resource[backend.UniformHandle]

	tonemapProgram backend.Resource[backend.ProgramHandle]
	frameBuffer    backend.Resource[backend.FrameBufferHandle]
}

func newBase(name string, options ...RendererBuilderOption) base {
	r := base{
		mu:          &sync.RWMutex{},
		name:        name,
		fsys:        shaders.FS,
		shaderDir:   ".",
		variables:   make(map[string]string),
		clearColor:  0x303030ff,
		exposure:    1,
		tonemapping: TonemappingACES,
		lights:      light.NewLights(),
		pbr:         material.NewPBR(),
	}
	for _, option := range options {
		option(&r)
	}
	r.loader = shader.NewLoader(r.fsys, r.shaderDir)
	return r
}

func (r *base) Name() string {
	return r.name
}

func (r *base) SetScene(s scene.Scene) {
	r.scene = s
}

func (r *base) Scene() scene.Scene {
	return r.scene
}

func (r *base) SetVariable(name, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.variables[name] = value
}

func (r *base) Variable(name string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.variables[name]
}

func (r *base) ShaderDir() string {
	return r.shaderDir
}

func (r *base) FrameBuffer() backend.FrameBufferHandle {
	return r.frameBuffer.Handle()
}

// supported is the capability gate shared by every renderer: the backbuffer, HDR color and
// depth formats must be renderable.
func (r *base) supported(caps backend.Caps) bool {
	return caps.FormatSupported(backend.TextureFormatBGRA8, backend.FormatSupportFrameBuffer) &&
		caps.FormatSupported(backend.TextureFormatRGBA16F, backend.FormatSupportFrameBuffer|backend.FormatSupportTexture2D) &&
		caps.FormatSupported(backend.TextureFormatD32F, backend.FormatSupportFrameBuffer)
}

// initialize creates the shared uniforms, binders and the tonemap program.
// Uniforms come first: shader sources only see the uniforms that exist when they compile.
func (r *base) initialize(b backend.Backend) bool {
	if r.b != nil {
		logging.Logger().Warn("renderer already initialized", "renderer", r.name)
		return false
	}
	r.b = b

	r.camPosUniform.Own(b.CreateUniform("u_camPos", backend.UniformVec4, 1), b.DestroyUniform)
	r.normalMatrixUniform.Own(b.CreateUniform("u_normalMatrix", backend.UniformMat3, 1), b.DestroyUniform)
	r.exposureUniform.Own(b.CreateUniform("u_exposureVec", backend.UniformVec4, 1), b.DestroyUniform)
	r.tonemappingUniform.Own(b.CreateUniform("u_tonemappingModeVec", backend.UniformVec4, 1), b.DestroyUniform)
	r.colorSampler.Own(b.CreateUniform("s_texColor", backend.UniformSampler, 1), b.DestroyUniform)

	r.lights.Initialize(b)
	r.pbr.Initialize(b)

	r.tonemapProgram.Own(r.loadProgram("vs_tonemap", "fs_tonemap"), b.DestroyProgram)
	return true
}

// reset records the viewport size and creates the HDR target once.
func (r *base) reset(width, height int) {
	r.width, r.height = width, height
	if r.b == nil || r.frameBuffer.Valid() {
		return
	}

	color := r.b.CreateTexture2D(backend.TextureDesc{
		Ratio:  backend.RatioEqual,
		Format: backend.TextureFormatRGBA16F,
		Flags:  backend.TextureRenderTarget | backend.TextureSamplerClamp,
		Name:   "hdr color",
	})
	depth := r.b.CreateTexture2D(backend.TextureDesc{
		Ratio:  backend.RatioEqual,
		Format: backend.TextureFormatD32F,
		Flags:  backend.TextureRenderTarget | backend.TextureSamplerPoint | backend.TextureSamplerClamp,
		Name:   "hdr depth",
	})
	fb := r.b.CreateFrameBuffer([]backend.TextureHandle{color, depth}, true)
	if !fb.Valid() {
		logging.Logger().Error("failed to create HDR framebuffer", "renderer", r.name, "width", width, "height", height)
		if color.Valid() {
			r.b.DestroyTexture(color)
		}
		if depth.Valid() {
			r.b.DestroyTexture(depth)
		}
		return
	}
	r.frameBuffer.Own(fb, r.b.DestroyFrameBuffer)
}

// shutdown releases the shared resources. Renderers release their own resources first.
func (r *base) shutdown() {
	r.tonemapProgram.Release()
	r.frameBuffer.Release()

	r.camPosUniform.Release()
	r.normalMatrixUniform.Release()
	r.exposureUniform.Release()
	r.tonemappingUniform.Release()
	r.colorSampler.Release()

	r.lights.Shutdown()
	r.pbr.Shutdown()

	if r.b != nil {
		logging.Logger().Info("renderer shut down", "renderer", r.name)
	}
	r.b = nil
}

// ready reports whether Render should record draws and dispatches.
func (r *base) ready() bool {
	return r.b != nil && r.scene != nil && r.scene.Loaded()
}

func (r *base) loadProgram(vsName, fsName string) backend.ProgramHandle {
	return shader.LoadProgram(r.b, r.loader, vsName, fsName)
}

func (r *base) loadComputeProgram(csName string) backend.ProgramHandle {
	return shader.LoadComputeProgram(r.b, r.loader, csName)
}

// setupView configures a full viewport view drawing into fb and touches it.
func (r *base) setupView(view backend.ViewID, name string, clear backend.ClearFlags, fb backend.FrameBufferHandle) {
	r.b.SetViewName(view, name)
	r.b.SetViewClear(view, clear, r.clearColor, 1)
	r.b.SetViewRectRatio(view, 0, 0, backend.RatioEqual)
	r.b.SetViewFrameBuffer(view, fb)
	r.b.Touch(view)
}

// SetViewProjection uploads the scene camera's view and projection matrices to a view.
//
// Parameters:
//   - view: the view to update
func (r *base) SetViewProjection(view backend.ViewID) {
	cam := r.scene.Camera()
	r.b.SetViewTransform(view, cam.ViewMatrix(), cam.ProjectionMatrix())
}

// SetNormalMatrix uploads the inverse transpose of a model matrix for the next draw.
//
// Parameters:
//   - model: the model matrix of the draw
func (r *base) SetNormalMatrix(model common.Mat4) {
	n := common.NormalMatrix(model)
	r.b.SetUniform(r.normalMatrixUniform.Handle(), n[:])
}

// setModel sets the transform, normal matrix and camera position of the next draw.
func (r *base) setModel(model common.Mat4) {
	r.b.SetTransform(model)
	r.SetNormalMatrix(model)
	r.setCameraPosition()
}

func (r *base) setCameraPosition() {
	pos := r.scene.Camera().Position()
	r.b.SetUniform(r.camPosUniform.Handle(), []float32{pos[0], pos[1], pos[2], 1})
}

// submitMesh records a mesh draw with its material bound. The pass state is combined with
// the state returned by the material binder.
func (r *base) submitMesh(view backend.ViewID, program backend.ProgramHandle, mesh scene.Mesh, mat material.Material, passState func(pipeline.State) pipeline.State) {
	r.setModel(mesh.Transform)
	r.b.SetVertexBuffer(mesh.VertexBuffer)
	r.b.SetIndexBuffer(mesh.IndexBuffer)
	r.b.SetState(passState(r.pbr.BindMaterial(mat)))
	r.b.Submit(view, program)
}

// forwardState is the state of forward shaded draws: default depth and write state with the
// culling and blending of the material.
func forwardState(materialState pipeline.State) pipeline.State {
	return (pipeline.StateDefault &^ pipeline.StateCullMask) | materialState
}

// setupTonemapView targets the backbuffer with the final view.
func (r *base) setupTonemapView() {
	r.setupView(ViewTonemap, "Tonemap", backend.ClearColor, backend.Invalid[backend.FrameBufferHandle]())
}

// submitTonemap resolves the HDR target into the backbuffer.
func (r *base) submitTonemap() {
	if !r.tonemapProgram.Valid() || !r.frameBuffer.Valid() {
		return
	}
	r.b.SetTexture(SamplerColor, r.colorSampler.Handle(), r.b.FrameBufferTexture(r.frameBuffer.Handle(), 0))
	r.b.SetUniform(r.exposureUniform.Handle(), []float32{r.exposure, 0, 0, 0})
	r.b.SetUniform(r.tonemappingUniform.Handle(), []float32{float32(r.tonemapping), 0, 0, 0})
	r.b.SetState(pipeline.StateWriteRGB | pipeline.StateWriteA)
	r.b.Submit(ViewTonemap, r.tonemapProgram.Handle())
}

// splitMeshes visits the meshes of the scene with a resolvable material, opaque ones to
// opaque and blended ones to blend. Either callback may be nil.
func (r *base) splitMeshes(opaque, blend func(scene.Mesh, material.Material)) {
	for _, mesh := range r.scene.Meshes() {
		mat, ok := scene.MaterialOf(r.scene, mesh)
		if !ok {
			logging.Logger().Debug("mesh material out of range", "mesh", mesh.Name, "material", mesh.Material)
			continue
		}
		switch {
		case mat.Blend() && blend != nil:
			blend(mesh, mat)
		case !mat.Blend() && opaque != nil:
			opaque(mesh, mat)
		}
	}
}
