package material

import _ "embed"

// GPUBRDFSource holds the WGSL metallic-roughness BRDF shared by every shading pass.
//
//go:embed assets/brdf.wgsl
var GPUBRDFSource string

// GPUPBRSource holds the WGSL material declarations: the base color texture at stage
// SamplerBaseColor and the accessors for the factor uniforms. It includes GPUBRDFSource.
//
//go:embed assets/pbr.wgsl
var GPUPBRSource string
