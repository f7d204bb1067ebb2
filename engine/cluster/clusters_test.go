package cluster

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-lighting/engine/camera"
	"github.com/Carmen-Shannon/oxy-lighting/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-lighting/engine/renderer/backend/backendtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cameraSource struct {
	cam camera.Camera
}

func (s cameraSource) Camera() camera.Camera { return s.cam }

func computeProgram(t *testing.T, rec *backendtest.Recorder) backend.ProgramHandle {
	t.Helper()
	cs := rec.CreateShader("@compute @workgroup_size(1) fn main() {}", backend.ShaderStageCompute, "cs_test")
	p := rec.CreateComputeProgram(cs, true)
	require.True(t, p.Valid())
	return p
}

func drawProgram(t *testing.T, rec *backendtest.Recorder) backend.ProgramHandle {
	t.Helper()
	vs := rec.CreateShader("@vertex fn main() {}", backend.ShaderStageVertex, "vs_test")
	fs := rec.CreateShader("@fragment fn main() {}", backend.ShaderStageFragment, "fs_test")
	p := rec.CreateProgram(vs, fs, true)
	require.True(t, p.Valid())
	return p
}

func TestClusters_Initialize(t *testing.T) {
	rec := backendtest.NewRecorder()
	c := NewClusters()

	require.NoError(t, c.Initialize(rec))
	assert.True(t, c.Valid())
	assert.Equal(t, 3, rec.Live(backendtest.ResourceUniform))
	assert.Equal(t, 4, rec.Live(backendtest.ResourceDynamicBuffer))

	c.Shutdown()
	c.Shutdown()
	assert.Zero(t, rec.LiveTotal())
	assert.Empty(t, rec.Errors)
	assert.False(t, c.Valid())
}

func TestClusters_BufferFailure(t *testing.T) {
	rec := backendtest.NewRecorder(backendtest.WithFailure(backendtest.ResourceDynamicBuffer))
	c := NewClusters()

	require.NoError(t, c.Initialize(rec))
	assert.False(t, c.Valid())

	c.Shutdown()
	assert.Zero(t, rec.LiveTotal())
	assert.Empty(t, rec.Errors)
}

func TestClusters_ComputeBinding(t *testing.T) {
	rec := backendtest.NewRecorder()
	c := NewClusters()
	require.NoError(t, c.Initialize(rec))
	defer c.Shutdown()
	p := computeProgram(t, rec)
	defer rec.DestroyProgram(p)

	cam := camera.NewCamera(camera.WithNear(0.5), camera.WithFar(200))
	c.SetUniforms(cameraSource{cam}, 1280, 720)
	c.BindBuffers(false)
	rec.Dispatch(0, p, 16, 8, 24)

	require.Len(t, rec.Dispatches, 1)
	d := rec.Dispatches[0]
	for _, stage := range []uint8{SamplerClusters, SamplerLightIndices, SamplerLightGrid, SamplerAtomicIndex} {
		require.Contains(t, d.Buffers, stage)
		assert.Equal(t, backend.AccessReadWrite, d.Buffers[stage].Access, "stage %d", stage)
		assert.True(t, d.Buffers[stage].Buffer.Valid())
	}
	assert.NotContains(t, d.Buffers, uint8(0))

	assert.Equal(t, []float32{80, 90, 0, 0}, d.Uniforms["u_clusterSizesVec"])
	assert.Equal(t, []float32{0.5, 200, 0, 0}, d.Uniforms["u_zNearFarVec"])
	scale, bias := ScaleBias(0.5, 200)
	assert.Equal(t, []float32{scale, bias, 0, 0}, d.Uniforms["u_clusterScaleBiasVec"])
}

func TestClusters_LightingPassBinding(t *testing.T) {
	rec := backendtest.NewRecorder()
	c := NewClusters()
	require.NoError(t, c.Initialize(rec))
	defer c.Shutdown()
	p := drawProgram(t, rec)
	defer rec.DestroyProgram(p)

	c.SetUniforms(cameraSource{camera.NewCamera()}, 1000, 500)
	c.BindBuffers(true)
	rec.Submit(0, p)

	require.Len(t, rec.Draws, 1)
	d := rec.Draws[0]
	for _, stage := range []uint8{SamplerClusters, SamplerLightIndices, SamplerLightGrid} {
		require.Contains(t, d.Buffers, stage)
		assert.Equal(t, backend.AccessRead, d.Buffers[stage].Access, "stage %d", stage)
	}
	assert.NotContains(t, d.Buffers, SamplerAtomicIndex)
	// sizes round up
	assert.Equal(t, []float32{63, 63, 0, 0}, d.Uniform("u_clusterSizesVec"))
}

func TestClusters_BeforeInitialize(t *testing.T) {
	c := NewClusters()
	c.SetUniforms(cameraSource{camera.NewCamera()}, 10, 10)
	c.BindBuffers(true)
	c.Shutdown()
	assert.False(t, c.Valid())
}
