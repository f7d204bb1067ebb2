package shader

import (
	"testing"
	"testing/fstest"

	"github.com/Carmen-Shannon/oxy-lighting/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-lighting/engine/renderer/backend/backendtest"
	"github.com/Carmen-Shannon/oxy-lighting/engine/renderer/shaders"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"src/vs_test.wgsl":    {Data: []byte("//@oxy:include util\n@vertex fn vs_main() {}")},
		"src/fs_test.wgsl":    {Data: []byte("//@oxy:include brdf\n@fragment fn fs_main() {}")},
		"src/fs_depth.wgsl":   {Data: []byte("//@oxy:require fragment_depth\n@fragment fn fs_main() {}")},
		"src/cs_test.wgsl":    {Data: []byte("//@oxy:require compute\n@compute @workgroup_size(64) fn cs_main() {}")},
		"src/fs_broken.wgsl":  {Data: []byte("//@oxy:include nothing")},
		"src/vs_noprefix.txt": {Data: []byte("ignored")},
	}
}

func TestStageOf(t *testing.T) {
	tests := []struct {
		name string
		want backend.ShaderStage
	}{
		{"vs_forward", backend.ShaderStageVertex},
		{"fs_forward", backend.ShaderStageFragment},
		{"cs_clustered_lightculling", backend.ShaderStageCompute},
	}
	for _, tt := range tests {
		got, err := StageOf(tt.name)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.name)
	}

	_, err := StageOf("forward")
	assert.Error(t, err)
}

func TestLoader_Load(t *testing.T) {
	l := NewLoader(testFS(), "src")
	assert.Equal(t, "src/vs_test.wgsl", l.Path("vs_test"))

	s, err := l.Load("vs_test")
	require.NoError(t, err)
	assert.Equal(t, "vs_test", s.Key())
	assert.Equal(t, backend.ShaderStageVertex, s.Stage())
	assert.Contains(t, s.Source(), "@vertex fn vs_main() {}")
	assert.NotContains(t, s.Source(), "@oxy")
	assert.Empty(t, s.Requirements())

	s, err = l.Load("cs_test")
	require.NoError(t, err)
	assert.Equal(t, backend.ShaderStageCompute, s.Stage())
	assert.Equal(t, []AnnotationArg{AnnotationArgCompute}, s.Requirements())
}

func TestLoader_RequirementsAreNotShared(t *testing.T) {
	l := NewLoader(testFS(), "src")
	cs, err := l.Load("cs_test")
	require.NoError(t, err)
	_, err = l.Load("fs_depth")
	require.NoError(t, err)

	assert.Equal(t, []AnnotationArg{AnnotationArgCompute}, cs.Requirements())
}

func TestLoader_Errors(t *testing.T) {
	l := NewLoader(testFS(), "src")

	_, err := l.Load("fs_missing")
	assert.ErrorIs(t, err, ErrProgramNotFound)

	_, err = l.Load("test")
	assert.Error(t, err)

	_, err = l.Load("fs_broken")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fs_broken")

	root := NewLoader(fstest.MapFS{"vs_a.wgsl": {Data: []byte("@vertex fn main() {}")}}, ".")
	assert.Equal(t, "vs_a.wgsl", root.Path("vs_a"))
	_, err = root.Load("vs_a")
	assert.NoError(t, err)
}

func TestSupported(t *testing.T) {
	l := NewLoader(testFS(), "src")
	cs, err := l.Load("cs_test")
	require.NoError(t, err)
	fs, err := l.Load("fs_depth")
	require.NoError(t, err)

	full := backend.FullCaps()
	assert.NoError(t, Supported(cs, full))
	assert.NoError(t, Supported(fs, full))

	noCompute := full
	noCompute.Supported &^= backend.CapsCompute
	assert.ErrorIs(t, Supported(cs, noCompute), ErrUnsupported)
	assert.NoError(t, Supported(fs, noCompute))

	noDepth := full
	noDepth.Supported &^= backend.CapsFragmentDepth
	assert.ErrorIs(t, Supported(fs, noDepth), ErrUnsupported)
}

func TestLoadProgram(t *testing.T) {
	rec := backendtest.NewRecorder()
	l := NewLoader(testFS(), "src")

	p := LoadProgram(rec, l, "vs_test", "fs_test")
	require.True(t, p.Valid())
	assert.False(t, rec.IsCompute(p))
	assert.Equal(t, 2, rec.Live(backendtest.ResourceShader))

	rec.DestroyProgram(p)
	assert.Zero(t, rec.LiveTotal())
	assert.Empty(t, rec.Errors)
}

func TestLoadProgram_Failures(t *testing.T) {
	tests := []struct {
		name   string
		vs, fs string
	}{
		{"missing fragment shader", "vs_test", "fs_missing"},
		{"missing vertex shader", "vs_missing", "fs_test"},
		{"broken annotation", "vs_test", "fs_broken"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := backendtest.NewRecorder()
			p := LoadProgram(rec, NewLoader(testFS(), "src"), tt.vs, tt.fs)
			assert.False(t, p.Valid())
			assert.Zero(t, rec.LiveTotal(), "the vertex shader is released")
			assert.Empty(t, rec.Errors)
		})
	}
}

func TestLoadComputeProgram(t *testing.T) {
	rec := backendtest.NewRecorder()
	p := LoadComputeProgram(rec, NewLoader(testFS(), "src"), "cs_test")
	require.True(t, p.Valid())
	assert.True(t, rec.IsCompute(p))
	rec.DestroyProgram(p)

	caps := backend.FullCaps()
	caps.Supported &^= backend.CapsCompute
	rec = backendtest.NewRecorder(backendtest.WithCaps(caps))
	p = LoadComputeProgram(rec, NewLoader(testFS(), "src"), "cs_test")
	assert.False(t, p.Valid())
	assert.Zero(t, rec.LiveTotal())
}

func TestEmbeddedShaders(t *testing.T) {
	programs := [][2]string{
		{"vs_tonemap", "fs_tonemap"},
		{"vs_forward", "fs_forward"},
		{"vs_deferred_geometry", "fs_deferred_geometry"},
		{"vs_deferred_light", "fs_deferred_pointlight"},
		{"vs_clustered", "fs_clustered"},
		{"vs_clustered", "fs_clustered_debug_vis"},
	}
	rec := backendtest.NewRecorder()
	l := NewLoader(shaders.FS, ".")

	for _, p := range programs {
		h := LoadProgram(rec, l, p[0], p[1])
		assert.True(t, h.Valid(), "%s + %s", p[0], p[1])
		rec.DestroyProgram(h)
	}
	for _, cs := range []string{"cs_clustered_clusterbuilding", "cs_clustered_lightculling"} {
		h := LoadComputeProgram(rec, l, cs)
		assert.True(t, h.Valid(), cs)
		rec.DestroyProgram(h)
	}
	assert.Zero(t, rec.LiveTotal())
	assert.Empty(t, rec.Errors)
}
