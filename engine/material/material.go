package material

import "github.com/Carmen-Shannon/oxy-lighting/common"

// material is the implementation of the Material interface.
type material struct {
	name        string
	baseColor   [4]float32
	metallic    float32
	roughness   float32
	emissive    [3]float32
	blend       bool
	doubleSided bool
	texture     common.TextureStagingData
}

// Material defines the surface of a mesh: metallic-roughness PBR factors, an optional
// base color texture and the flags that route it through the renderers.
//
// A material is immutable after construction. Blended materials are drawn by the
// transparent forward pass, every other material by the opaque pass of the active renderer.
type Material interface {
	// Name retrieves the material identifier.
	//
	// Returns:
	//   - string: the name of the material
	Name() string

	// BaseColor retrieves the linear RGBA base color factor.
	//
	// Returns:
	//   - [4]float32: the base color as RGBA values
	BaseColor() [4]float32

	// Metallic retrieves the metallic factor of the material.
	// A value of 0.0 represents a dielectric surface, 1.0 represents a fully metallic surface.
	//
	// Returns:
	//   - float32: the metallic factor
	Metallic() float32

	// Roughness retrieves the perceptual roughness factor of the material.
	// A value of 0.0 represents a perfectly smooth surface, 1.0 represents a fully rough surface.
	//
	// Returns:
	//   - float32: the roughness factor
	Roughness() float32

	// Emissive retrieves the linear RGB emitted radiance.
	Emissive() [3]float32

	// Blend reports whether the material is alpha blended.
	Blend() bool

	// DoubleSided reports whether back faces are drawn.
	DoubleSided() bool

	// BaseColorTexture retrieves the RGBA8 base color texture. The zero value means none.
	//
	// Returns:
	//   - common.TextureStagingData: the texture pixels and size
	BaseColorTexture() common.TextureStagingData
}

var _ Material = &material{}

// NewMaterial creates a new Material instance configured with the provided options.
//
// Parameters:
//   - options: variadic list of MaterialBuilderOption functions to configure the material
//
// Returns:
//   - Material: a new Material instance
func NewMaterial(options ...MaterialBuilderOption) Material {
	m := &material{
		baseColor: [4]float32{1, 1, 1, 1},
		metallic:  0.0,
		roughness: 1.0,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *material) Name() string {
	return m.name
}

func (m *material) BaseColor() [4]float32 {
	return m.baseColor
}

func (m *material) Metallic() float32 {
	return m.metallic
}

func (m *material) Roughness() float32 {
	return m.roughness
}

func (m *material) Emissive() [3]float32 {
	return m.emissive
}

func (m *material) Blend() bool {
	return m.blend
}

func (m *material) DoubleSided() bool {
	return m.doubleSided
}

func (m *material) BaseColorTexture() common.TextureStagingData {
	return m.texture
}
