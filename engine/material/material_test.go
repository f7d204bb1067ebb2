package material

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-lighting/common"
	"github.com/Carmen-Shannon/oxy-lighting/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-lighting/engine/renderer/backend/backendtest"
	"github.com/Carmen-Shannon/oxy-lighting/engine/renderer/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checker() common.TextureStagingData {
	return common.TextureStagingData{
		Pixels: []byte{
			0, 0, 0, 255, 255, 255, 255, 255,
			255, 255, 255, 255, 0, 0, 0, 255,
		},
		Width:  2,
		Height: 2,
	}
}

func TestNewMaterial(t *testing.T) {
	m := NewMaterial()
	assert.Equal(t, [4]float32{1, 1, 1, 1}, m.BaseColor())
	assert.Zero(t, m.Metallic())
	assert.Equal(t, float32(1), m.Roughness())
	assert.False(t, m.Blend())
	assert.False(t, m.DoubleSided())
	assert.False(t, m.BaseColorTexture().Valid())

	m = NewMaterial(
		WithName("gold"),
		WithMetallic(2),
		WithRoughness(-1),
		WithEmissive(1, 0.5, 0),
		WithBlend(true),
		WithDoubleSided(true),
		WithBaseColorTexture(checker()),
	)
	assert.Equal(t, "gold", m.Name())
	assert.Equal(t, float32(1), m.Metallic())
	assert.Zero(t, m.Roughness())
	assert.Equal(t, [3]float32{1, 0.5, 0}, m.Emissive())
	assert.True(t, m.Blend())
	assert.True(t, m.DoubleSided())
	assert.True(t, m.BaseColorTexture().Valid())
}

func TestWithBaseColorTexture_RejectsShortData(t *testing.T) {
	short := common.TextureStagingData{Pixels: make([]byte, 4), Width: 2, Height: 2}
	m := NewMaterial(WithBaseColorTexture(short))
	assert.False(t, m.BaseColorTexture().Valid())
}

func TestMaterialState(t *testing.T) {
	tests := []struct {
		name string
		opts []MaterialBuilderOption
		want pipeline.State
	}{
		{"opaque", nil, pipeline.StateCullCW},
		{"double sided", []MaterialBuilderOption{WithDoubleSided(true)}, pipeline.StateNone},
		{"blended", []MaterialBuilderOption{WithBlend(true)}, pipeline.StateBlendAlpha | pipeline.StateCullCW},
		{"blended double sided", []MaterialBuilderOption{WithBlend(true), WithDoubleSided(true)}, pipeline.StateBlendAlpha},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// the state does not depend on the binder being initialized
			assert.Equal(t, tt.want, NewPBR().BindMaterial(NewMaterial(tt.opts...)))
		})
	}
}

func newProgram(t *testing.T, rec *backendtest.Recorder) backend.ProgramHandle {
	t.Helper()
	vs := rec.CreateShader("@vertex fn main() {}", backend.ShaderStageVertex, "vs_test")
	fs := rec.CreateShader("@fragment fn main() {}", backend.ShaderStageFragment, "fs_test")
	p := rec.CreateProgram(vs, fs, true)
	require.True(t, p.Valid())
	return p
}

func TestPBR_BindMaterial(t *testing.T) {
	rec := backendtest.NewRecorder()
	p := NewPBR()
	p.Initialize(rec)
	prog := newProgram(t, rec)

	m := NewMaterial(
		WithBaseColor([4]float32{0.5, 0.25, 1, 0.5}),
		WithMetallic(0.3),
		WithRoughness(0.7),
		WithEmissive(2, 0, 0),
	)
	p.BindMaterial(m)
	rec.Submit(0, prog)

	require.Len(t, rec.Draws, 1)
	d := rec.Draws[0]
	assert.Equal(t, []float32{0.5, 0.25, 1, 0.5}, d.Uniform("u_baseColorFactor"))
	assert.Equal(t, []float32{0.3, 0.7, 1, 1}, d.Uniform("u_metallicRoughnessNormalOcclusionFactor"))
	assert.Equal(t, []float32{2, 0, 0, 0}, d.Uniform("u_emissiveFactorVec"))
	assert.Equal(t, []float32{0, 0, 0, 0}, d.Uniform("u_hasTextures"))

	// without a texture the default white texture is bound
	require.Contains(t, d.Textures, SamplerBaseColor)
	desc, ok := rec.TextureDesc(d.Textures[SamplerBaseColor].Texture)
	require.True(t, ok)
	assert.Equal(t, "pbr default white", desc.Name)
	assert.Equal(t, "s_texBaseColor", rec.UniformName(d.Textures[SamplerBaseColor].Sampler))

	rec.DestroyProgram(prog)
	p.Shutdown()
	assert.Zero(t, rec.LiveTotal())
	assert.Empty(t, rec.Errors)
}

func TestPBR_TexturesAreCreatedOncePerMaterial(t *testing.T) {
	rec := backendtest.NewRecorder()
	p := NewPBR()
	p.Initialize(rec)
	prog := newProgram(t, rec)

	m := NewMaterial(WithName("checker"), WithBaseColorTexture(checker()))
	for range 3 {
		p.BindMaterial(m)
		rec.Submit(0, prog)
	}

	// default white plus one texture for the material
	assert.Len(t, rec.Created(backendtest.ResourceTexture), 2)
	require.Len(t, rec.Draws, 3)
	tex := rec.Draws[0].Textures[SamplerBaseColor].Texture
	desc, ok := rec.TextureDesc(tex)
	require.True(t, ok)
	assert.Equal(t, "checker", desc.Name)
	assert.Equal(t, 2, desc.Width)
	for _, d := range rec.Draws {
		assert.Equal(t, tex, d.Textures[SamplerBaseColor].Texture)
		assert.Equal(t, []float32{1, 0, 0, 0}, d.Uniform("u_hasTextures"))
	}

	rec.DestroyProgram(prog)
	p.Shutdown()
	p.Shutdown()
	assert.Zero(t, rec.LiveTotal())
	assert.Empty(t, rec.Errors)
}

func TestPBR_TextureFailureFallsBackToWhite(t *testing.T) {
	rec := backendtest.NewRecorder()
	p := NewPBR()
	p.Initialize(rec)
	prog := newProgram(t, rec)
	white := rec.Created(backendtest.ResourceTexture)[0].Handle

	rec.SetFailure(backendtest.ResourceTexture, true)
	p.BindMaterial(NewMaterial(WithBaseColorTexture(checker())))
	rec.Submit(0, prog)

	require.Len(t, rec.Draws, 1)
	assert.Equal(t, backend.TextureHandle(white), rec.Draws[0].Textures[SamplerBaseColor].Texture)

	rec.DestroyProgram(prog)
	p.Shutdown()
	assert.Zero(t, rec.LiveTotal())
}
