package material

import "github.com/Carmen-Shannon/oxy-lighting/common"

// MaterialBuilderOption is a function that configures a material instance during construction.
type MaterialBuilderOption func(*material)

// WithName is an option builder that sets the name of the material.
//
// Parameters:
//   - name: the identifier for the material
//
// Returns:
//   - MaterialBuilderOption: a function that applies the name option to a material
func WithName(name string) MaterialBuilderOption {
	return func(m *material) {
		m.name = name
	}
}

// WithBaseColor is an option builder that sets the linear RGBA base color factor.
//
// Parameters:
//   - color: the base color as RGBA float32 values
//
// Returns:
//   - MaterialBuilderOption: a function that applies the base color option to a material
func WithBaseColor(color [4]float32) MaterialBuilderOption {
	return func(m *material) {
		m.baseColor = color
	}
}

// WithMetallic is an option builder that sets the metallic factor of the material.
//
// Parameters:
//   - metallic: the metallic factor (0.0 = dielectric, 1.0 = metal)
//
// Returns:
//   - MaterialBuilderOption: a function that applies the metallic option to a material
func WithMetallic(metallic float32) MaterialBuilderOption {
	return func(m *material) {
		m.metallic = common.Clamp(metallic, 0, 1)
	}
}

// WithRoughness is an option builder that sets the roughness factor of the material.
//
// Parameters:
//   - roughness: the roughness factor (0.0 = smooth, 1.0 = rough)
//
// Returns:
//   - MaterialBuilderOption: a function that applies the roughness option to a material
func WithRoughness(roughness float32) MaterialBuilderOption {
	return func(m *material) {
		m.roughness = common.Clamp(roughness, 0, 1)
	}
}

// WithEmissive is an option builder that sets the emitted radiance.
//
// Parameters:
//   - r, g, b: linear RGB radiance
//
// Returns:
//   - MaterialBuilderOption: a function that applies the emissive option to a material
func WithEmissive(r, g, b float32) MaterialBuilderOption {
	return func(m *material) {
		m.emissive = [3]float32{r, g, b}
	}
}

// WithBlend marks the material as alpha blended, routing it to the transparent pass.
//
// Parameters:
//   - blend: true for alpha blending
//
// Returns:
//   - MaterialBuilderOption: a function that applies the blend option to a material
func WithBlend(blend bool) MaterialBuilderOption {
	return func(m *material) {
		m.blend = blend
	}
}

// WithDoubleSided disables back face culling for the material.
//
// Parameters:
//   - doubleSided: true to draw back faces
//
// Returns:
//   - MaterialBuilderOption: a function that applies the double sided option to a material
func WithDoubleSided(doubleSided bool) MaterialBuilderOption {
	return func(m *material) {
		m.doubleSided = doubleSided
	}
}

// WithBaseColorTexture is an option builder that sets the RGBA8 base color texture.
// Invalid staging data is ignored.
//
// Parameters:
//   - tex: the texture pixels and size
//
// Returns:
//   - MaterialBuilderOption: a function that applies the texture option to a material
func WithBaseColorTexture(tex common.TextureStagingData) MaterialBuilderOption {
	return func(m *material) {
		if tex.Valid() {
			m.texture = tex
		}
	}
}
