package material

import (
	"github.com/Carmen-Shannon/oxy-lighting/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-lighting/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-lighting/internal/logging"
)

// SamplerBaseColor is the texture stage of the base color texture.
const SamplerBaseColor uint8 = 0

// SamplerCount is the number of texture stages the PBR binder occupies. Renderers place
// their own texture stages after it.
const SamplerCount = 1

// pbr is the implementation of the PBR interface.
type pbr struct {
	b backend.Backend

	baseColorUniform         backend.Resource[backend.UniformHandle]
	metallicRoughnessUniform backend.Resource[backend.UniformHandle]
	emissiveUniform          backend.Resource[backend.UniformHandle]
	hasTexturesUniform       backend.Resource[backend.UniformHandle]
	baseColorSampler         backend.Resource[backend.UniformHandle]

	defaultTexture backend.Resource[backend.TextureHandle]
	textures       map[Material]*backend.Resource[backend.TextureHandle]
}

// PBR translates materials into the uniforms and textures the metallic-roughness shading
// code reads, and reports the render state a material needs.
type PBR interface {
	// Initialize creates the material uniforms, the base color sampler and a 1x1 white
	// texture bound whenever a material has no texture of its own.
	// Must be called before any program that includes the PBR declarations is created.
	//
	// Parameters:
	//   - b: the backend to create resources on
	Initialize(b backend.Backend)

	// BindMaterial uploads the factors of m and binds its textures for the next draw.
	//
	// Parameters:
	//   - m: the material to bind
	//
	// Returns:
	//   - pipeline.State: StateBlendAlpha when m is blended, StateCullCW unless m is double sided
	BindMaterial(m Material) pipeline.State

	// BindTextures binds the textures of m without touching the factor uniforms.
	// Textures are created on the first bind of a material.
	//
	// Parameters:
	//   - m: the material whose textures to bind
	BindTextures(m Material)

	// Shutdown destroys every resource, per-material textures included.
	// Calling it twice, or before Initialize, does nothing.
	Shutdown()
}

var _ PBR = &pbr{}

// NewPBR creates an uninitialized PBR binder.
//
// Returns:
//   - PBR: the binder
func NewPBR() PBR {
	return &pbr{}
}

func (p *pbr) Initialize(b backend.Backend) {
	p.b = b
	p.textures = make(map[Material]*backend.Resource[backend.TextureHandle])

	p.baseColorUniform.Own(b.CreateUniform("u_baseColorFactor", backend.UniformVec4, 1), b.DestroyUniform)
	p.metallicRoughnessUniform.Own(b.CreateUniform("u_metallicRoughnessNormalOcclusionFactor", backend.UniformVec4, 1), b.DestroyUniform)
	p.emissiveUniform.Own(b.CreateUniform("u_emissiveFactorVec", backend.UniformVec4, 1), b.DestroyUniform)
	p.hasTexturesUniform.Own(b.CreateUniform("u_hasTextures", backend.UniformVec4, 1), b.DestroyUniform)
	p.baseColorSampler.Own(b.CreateUniform("s_texBaseColor", backend.UniformSampler, 1), b.DestroyUniform)

	p.defaultTexture.Own(b.CreateTexture2D(backend.TextureDesc{
		Width:  1,
		Height: 1,
		Format: backend.TextureFormatRGBA8,
		Data:   []byte{0xff, 0xff, 0xff, 0xff},
		Name:   "pbr default white",
	}), b.DestroyTexture)
	if !p.defaultTexture.Valid() {
		logging.Logger().Error("failed to create default material texture")
	}
}

func (p *pbr) BindMaterial(m Material) pipeline.State {
	if p.b == nil {
		return materialState(m)
	}

	baseColor := m.BaseColor()
	emissive := m.Emissive()
	hasTexture := float32(0)
	if m.BaseColorTexture().Valid() {
		hasTexture = 1
	}

	p.b.SetUniform(p.baseColorUniform.Handle(), baseColor[:])
	p.b.SetUniform(p.metallicRoughnessUniform.Handle(), []float32{m.Metallic(), m.Roughness(), 1, 1})
	p.b.SetUniform(p.emissiveUniform.Handle(), []float32{emissive[0], emissive[1], emissive[2], 0})
	p.b.SetUniform(p.hasTexturesUniform.Handle(), []float32{hasTexture, 0, 0, 0})
	p.BindTextures(m)

	return materialState(m)
}

func (p *pbr) BindTextures(m Material) {
	if p.b == nil {
		return
	}
	p.b.SetTexture(SamplerBaseColor, p.baseColorSampler.Handle(), p.texture(m))
}

// texture returns the base color texture of m, creating it on first use. Materials without
// a texture, or whose texture failed to create, get the default white texture.
func (p *pbr) texture(m Material) backend.TextureHandle {
	tex := m.BaseColorTexture()
	if !tex.Valid() {
		return p.defaultTexture.Handle()
	}
	if r, ok := p.textures[m]; ok {
		if r.Valid() {
			return r.Handle()
		}
		return p.defaultTexture.Handle()
	}

	r := &backend.Resource[backend.TextureHandle]{}
	r.Own(p.b.CreateTexture2D(backend.TextureDesc{
		Width:  int(tex.Width),
		Height: int(tex.Height),
		Format: backend.TextureFormatRGBA8,
		Data:   tex.Pixels,
		Name:   m.Name(),
	}), p.b.DestroyTexture)
	if !r.Valid() {
		logging.Logger().Error("failed to create material texture", "material", m.Name(), "width", tex.Width, "height", tex.Height)
	}
	p.textures[m] = r
	return p.texture(m)
}

func (p *pbr) Shutdown() {
	for _, r := range p.textures {
		r.Release()
	}
	p.textures = nil
	p.defaultTexture.Release()
	p.baseColorUniform.Release()
	p.metallicRoughnessUniform.Release()
	p.emissiveUniform.Release()
	p.hasTexturesUniform.Release()
	p.baseColorSampler.Release()
	p.b = nil
}

func materialState(m Material) pipeline.State {
	var state pipeline.State
	if m.Blend() {
		state |= pipeline.StateBlendAlpha
	}
	if !m.DoubleSided() {
		state |= pipeline.StateCullCW
	}
	return state
}
