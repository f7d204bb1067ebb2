package renderer

import (
	"github.com/Carmen-Shannon/oxy-lighting/common"
	"github.com/Carmen-Shannon/oxy-lighting/engine/light"
	"github.com/Carmen-Shannon/oxy-lighting/engine/material"
	"github.com/Carmen-Shannon/oxy-lighting/engine/model"
	"github.com/Carmen-Shannon/oxy-lighting/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-lighting/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-lighting/engine/scene"
	"github.com/Carmen-Shannon/oxy-lighting/internal/logging"
)

// Views of the deferred renderer, in execution order.
const (
	ViewDeferredGeometry backend.ViewID = iota
	ViewDeferredLight
	ViewDeferredTransparent
)

// GBufferAttachment names an attachment of the G-Buffer. The order is the attachment order of
// the framebuffer and the order the light pass binds them in.
type GBufferAttachment uint8

const (
	GBufferDiffuseA GBufferAttachment = iota
	GBufferNormal
	GBufferF0Metallic
	GBufferDepth

	GBufferAttachmentCount = iota
)

// Texture stages the light pass reads the G-Buffer from. They follow the material stages.
const (
	SamplerDeferredDiffuseA   = uint8(material.SamplerCount) + uint8(GBufferDiffuseA)
	SamplerDeferredNormal     = uint8(material.SamplerCount) + uint8(GBufferNormal)
	SamplerDeferredF0Metallic = uint8(material.SamplerCount) + uint8(GBufferF0Metallic)
	SamplerDeferredDepth      = uint8(material.SamplerCount) + uint8(GBufferDepth)
)

var gBufferFormats = [GBufferAttachmentCount]backend.TextureFormat{
	GBufferDiffuseA:   backend.TextureFormatBGRA8,
	GBufferNormal:     backend.TextureFormatRGB10A2,
	GBufferF0Metallic: backend.TextureFormatBGRA8,
	GBufferDepth:      backend.TextureFormatD32F,
}

var gBufferSamplerNames = [GBufferAttachmentCount]string{
	GBufferDiffuseA:   "s_texDiffuseA",
	GBufferNormal:     "s_texNormal",
	GBufferF0Metallic: "s_texF0Metallic",
	GBufferDepth:      "s_texDepth",
}

// Format returns the texture format of the attachment.
func (a GBufferAttachment) Format() backend.TextureFormat {
	return gBufferFormats[a]
}

// SamplerName returns the sampler uniform the light pass reads the attachment through.
func (a GBufferAttachment) SamplerName() string {
	return gBufferSamplerNames[a]
}

// Stage returns the texture stage the light pass binds the attachment to.
func (a GBufferAttachment) Stage() uint8 {
	return uint8(material.SamplerCount) + uint8(a)
}

// lightPassState draws the back faces of a light volume wherever they lie behind the opaque
// surface and adds the result to the accumulation target.
const lightPassState = pipeline.StateWriteRGB | pipeline.StateWriteA | pipeline.StateDepthTestGEqual |
	pipeline.StateCullCCW | pipeline.StateBlendAdd

// deferredRenderer renders opaque meshes into a G-Buffer, accumulates every point light by
// drawing its bounding box over the G-Buffer and forward shades blended meshes on top.
type deferredRenderer struct {
	base

	gBufferSamplers      [GBufferAttachmentCount]backend.Resource[backend.UniformHandle]
	lightIndexVecUniform backend.Resource[backend.UniformHandle]

	boxVertexBuffer backend.Resource[backend.VertexBufferHandle]
	boxIndexBuffer  backend.Resource[backend.IndexBufferHandle]

	geometryProgram    backend.Resource[backend.ProgramHandle]
	pointLightProgram  backend.Resource[backend.ProgramHandle]
	transparentProgram backend.Resource[backend.ProgramHandle]

	gBuffer           backend.Resource[backend.FrameBufferHandle]
	lightDepthTexture backend.Resource[backend.TextureHandle]
	accumFrameBuffer  backend.Resource[backend.FrameBufferHandle]

	visible []int
}

var _ Renderer = &deferredRenderer{}

// NewDeferredRenderer creates an uninitialized deferred renderer.
//
// Parameters:
//   - options: the renderer options
//
// Returns:
//   - Renderer: the renderer
func NewDeferredRenderer(options ...RendererBuilderOption) Renderer {
	return &deferredRenderer{base: newBase(NameDeferred, options...)}
}

func (r *deferredRenderer) Supported(b backend.Backend) bool {
	caps := b.Caps()
	return caps.Has(backend.CapsTextureBlit|backend.CapsFragmentDepth) &&
		caps.FormatSupported(backend.TextureFormatBGRA8, backend.FormatSupportFrameBuffer) &&
		caps.FormatSupported(backend.TextureFormatRGB10A2, backend.FormatSupportFrameBuffer) &&
		caps.MaxFBAttachments >= int(GBufferAttachmentCount) &&
		r.supported(caps)
}

func (r *deferredRenderer) Initialize(b backend.Backend) {
	if !r.initialize(b) {
		return
	}

	for i := range r.gBufferSamplers {
		name := GBufferAttachment(i).SamplerName()
		r.gBufferSamplers[i].Own(b.CreateUniform(name, backend.UniformSampler, 1), b.DestroyUniform)
	}
	r.lightIndexVecUniform.Own(b.CreateUniform("u_lightIndexVec", backend.UniformVec4, 1), b.DestroyUniform)

	positions := model.BoxPositions
	r.boxVertexBuffer.Own(b.CreateVertexBuffer(model.MarshalPositions(positions[:]), model.PositionLayout(), "light box"), b.DestroyVertexBuffer)
	indices, index32 := model.MarshalIndices(model.BoxIndices[:])
	r.boxIndexBuffer.Own(b.CreateIndexBuffer(indices, index32, "light box"), b.DestroyIndexBuffer)
	if !r.boxVertexBuffer.Valid() || !r.boxIndexBuffer.Valid() {
		logging.Logger().Error("failed to create light box buffers", "renderer", r.name)
	}

	r.geometryProgram.Own(r.loadProgram("vs_deferred_geometry", "fs_deferred_geometry"), b.DestroyProgram)
	r.pointLightProgram.Own(r.loadProgram("vs_deferred_light", "fs_deferred_pointlight"), b.DestroyProgram)
	r.transparentProgram.Own(r.loadProgram("vs_forward", "fs_forward"), b.DestroyProgram)

	logging.Logger().Info("renderer initialized", "renderer", r.name)
}

func (r *deferredRenderer) Reset(width, height int) {
	r.reset(width, height)
	if r.b == nil {
		return
	}

	if !r.gBuffer.Valid() {
		r.createGBuffer()
	}

	if !r.lightDepthTexture.Valid() {
		r.lightDepthTexture.Own(r.b.CreateTexture2D(backend.TextureDesc{
			Ratio:  backend.RatioEqual,
			Format: GBufferDepth.Format(),
			Flags: backend.TextureRenderTarget | backend.TextureBlitDst |
				backend.TextureSamplerPoint | backend.TextureSamplerClamp,
			Name: "light depth",
		}), r.b.DestroyTexture)
		if !r.lightDepthTexture.Valid() {
			logging.Logger().Error("failed to create light depth texture", "renderer", r.name, "width", width, "height", height)
		}
	}

	if !r.accumFrameBuffer.Valid() && r.frameBuffer.Valid() && r.lightDepthTexture.Valid() {
		hdr := r.b.FrameBufferTexture(r.frameBuffer.Handle(), 0)
		r.accumFrameBuffer.Own(r.b.CreateFrameBuffer([]backend.TextureHandle{hdr, r.lightDepthTexture.Handle()}, false), r.b.DestroyFrameBuffer)
		if !r.accumFrameBuffer.Valid() {
			logging.Logger().Error("failed to create light accumulation framebuffer", "renderer", r.name)
		}
	}
}

func (r *deferredRenderer) createGBuffer() {
	var textures [GBufferAttachmentCount]backend.TextureHandle
	for i := range textures {
		a := GBufferAttachment(i)
		textures[i] = r.b.CreateTexture2D(backend.TextureDesc{
			Ratio:  backend.RatioEqual,
			Format: a.Format(),
			Flags:  backend.TextureRenderTarget | backend.TextureSamplerPoint | backend.TextureSamplerClamp,
			Name:   a.SamplerName(),
		})
	}

	fb := r.b.CreateFrameBuffer(textures[:], true)
	if !fb.Valid() {
		logging.Logger().Error("failed to create G-Buffer", "renderer", r.name, "width", r.width, "height", r.height)
		for _, t := range textures {
			if t.Valid() {
				r.b.DestroyTexture(t)
			}
		}
		return
	}
	r.gBuffer.Own(fb, r.b.DestroyFrameBuffer)
	logging.Logger().Info("G-Buffer created", "renderer", r.name, "width", r.width, "height", r.height)
}

func (r *deferredRenderer) Render(deltaTime float32) {
	if r.b == nil {
		return
	}

	r.setupView(ViewDeferredGeometry, "Deferred geometry", backend.ClearColor|backend.ClearDepth, r.gBuffer.Handle())
	// empty G-Buffer texels have no albedo
	r.b.SetViewClear(ViewDeferredGeometry, backend.ClearColor|backend.ClearDepth, 0x00000000, 1)
	r.setupView(ViewDeferredLight, "Deferred light", backend.ClearColor, r.accumFrameBuffer.Handle())
	r.setupView(ViewDeferredTransparent, "Transparent", backend.ClearNone, r.accumFrameBuffer.Handle())
	r.setupTonemapView()

	if !r.ready() {
		return
	}

	r.SetViewProjection(ViewDeferredGeometry)
	r.SetViewProjection(ViewDeferredLight)
	r.SetViewProjection(ViewDeferredTransparent)

	r.geometryPass()
	r.copyDepth()
	r.lightPass()
	r.transparentPass()
	r.submitTonemap()
}

func (r *deferredRenderer) geometryPass() {
	if !r.geometryProgram.Valid() || !r.gBuffer.Valid() {
		return
	}
	r.splitMeshes(func(mesh scene.Mesh, mat material.Material) {
		r.submitMesh(ViewDeferredGeometry, r.geometryProgram.Handle(), mesh, mat, forwardState)
	}, nil)
}

// copyDepth fills the depth attachment of the accumulation target with the geometry depth.
// The light and transparent views both test against the copy, so the G-Buffer depth can be
// sampled while the copy is attached. The blit runs at the start of the light view.
func (r *deferredRenderer) copyDepth() {
	if !r.gBuffer.Valid() || !r.lightDepthTexture.Valid() {
		return
	}
	r.b.Blit(ViewDeferredLight, r.lightDepthTexture.Handle(), r.b.FrameBufferTexture(r.gBuffer.Handle(), int(GBufferDepth)))
}

func (r *deferredRenderer) lightPass() {
	if !r.pointLightProgram.Valid() || !r.gBuffer.Valid() || !r.accumFrameBuffer.Valid() {
		return
	}


	lights := r.scene.PointLights().Lights()
	r.visible = r.visible[:0]
	if r.Variable(VariableLightCull) == "true" {
		frustum := common.ExtractFrustum(r.scene.Camera().ViewProjectionMatrix())
		r.visible = light.VisibleLights(r.visible, lights, &frustum)
	} else {
		for i := range lights {
			r.visible = append(r.visible, i)
		}
	}

	for _, i := range r.visible {
		l := lights[i]
		r.b.SetTransform(common.TranslateScale(l.Position, l.Radius()))
		r.b.SetVertexBuffer(r.boxVertexBuffer.Handle())
		r.b.SetIndexBuffer(r.boxIndexBuffer.Handle())
		r.b.SetUniform(r.lightIndexVecUniform.Handle(), []float32{float32(i), 0, 0, 0})
		r.setCameraPosition()
		for a := range r.gBufferSamplers {
			r.b.SetTexture(GBufferAttachment(a).Stage(), r.gBufferSamplers[a].Handle(), r.b.FrameBufferTexture(r.gBuffer.Handle(), a))
		}
		r.lights.BindLights(r.scene)
		r.b.SetState(lightPassState)
		r.b.Submit(ViewDeferredLight, r.pointLightProgram.Handle())
	}
}

func (r *deferredRenderer) transparentPass() {
	if !r.transparentProgram.Valid() || !r.accumFrameBuffer.Valid() {
		return
	}
	r.splitMeshes(nil, func(mesh scene.Mesh, mat material.Material) {
		r.lights.BindLights(r.scene)
		r.submitMesh(ViewDeferredTransparent, r.transparentProgram.Handle(), mesh, mat, forwardState)
	})
}

func (r *deferredRenderer) Shutdown() {
	r.geometryProgram.Release()
	r.pointLightProgram.Release()
	r.transparentProgram.Release()

	r.accumFrameBuffer.Release()
	r.lightDepthTexture.Release()
	r.gBuffer.Release()

	r.boxVertexBuffer.Release()
	r.boxIndexBuffer.Release()

	for i := range r.gBufferSamplers {
		r.gBufferSamplers[i].Release()
	}
	r.lightIndexVecUniform.Release()

	r.shutdown()
}
