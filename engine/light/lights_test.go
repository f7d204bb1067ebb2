package light

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-lighting/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-lighting/engine/renderer/backend/backendtest"
	"github.com/Carmen-Shannon/oxy-lighting/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testSource struct {
	lights  PointLightList
	ambient [3]float32
}

func (s testSource) PointLights() PointLightList { return s.lights }
func (s testSource) AmbientLight() [3]float32    { return s.ambient }

func newTestProgram(t *testing.T, rec *backendtest.Recorder) backend.ProgramHandle {
	t.Helper()
	vs := rec.CreateShader("@vertex fn main() {}", backend.ShaderStageVertex, "vs_test")
	fs := rec.CreateShader("@fragment fn main() {}", backend.ShaderStageFragment, "fs_test")
	p := rec.CreateProgram(vs, fs, true)
	require.True(t, p.Valid())
	return p
}

func bufferEvents(rec *backendtest.Recorder) int {
	return len(rec.Created(backendtest.ResourceDynamicBuffer))
}

func TestLights_InitializeAndShutdown(t *testing.T) {
	rec := backendtest.NewRecorder()
	l := NewLights()

	l.Initialize(rec)
	assert.Equal(t, minBufferLights, l.Capacity())
	assert.True(t, l.Buffer().Valid())
	assert.Equal(t, 2, rec.Live(backendtest.ResourceUniform))
	assert.Equal(t, 1, rec.Live(backendtest.ResourceDynamicBuffer))

	l.Shutdown()
	l.Shutdown()
	assert.Zero(t, rec.LiveTotal())
	assert.Zero(t, l.Capacity())
	assert.False(t, l.Buffer().Valid())
	assert.Empty(t, rec.Errors)
}

func TestLights_BindLights(t *testing.T) {
	rec := backendtest.NewRecorder()
	l := NewLights()
	l.Initialize(rec)
	defer l.Shutdown()
	p := newTestProgram(t, rec)
	defer rec.DestroyProgram(p)

	src := testSource{
		lights:  NewPointLightList(NewPointLight(), NewPointLight()),
		ambient: [3]float32{0.1, 0.2, 0.3},
	}
	l.BindLights(src)
	rec.Submit(0, p)

	require.Len(t, rec.Draws, 1)
	d := rec.Draws[0]
	assert.Equal(t, []float32{2, 0, 0, 0}, d.Uniform("u_lightCountVec"))
	assert.Equal(t, []float32{0.1, 0.2, 0.3, 0}, d.Uniform("u_ambientLightIrradiance"))
	require.Contains(t, d.Buffers, SamplerLights)
	assert.Equal(t, backendtest.BufferBinding{Buffer: l.Buffer(), Access: backend.AccessRead}, d.Buffers[SamplerLights])
	assert.Empty(t, rec.Errors)
}

func TestLights_GrowsBuffer(t *testing.T) {
	rec := backendtest.NewRecorder()
	l := NewLights()
	l.Initialize(rec)
	defer l.Shutdown()

	list := NewPointLightList(make([]PointLight, minBufferLights)...)
	src := testSource{lights: list}
	l.BindLights(src)
	assert.Equal(t, minBufferLights, l.Capacity())
	assert.Equal(t, 1, bufferEvents(rec))

	list.Add(NewPointLight())
	l.BindLights(src)
	assert.Equal(t, 2*minBufferLights, l.Capacity())
	assert.Equal(t, 2, bufferEvents(rec))
	// the old buffer is released
	assert.Equal(t, 1, rec.Live(backendtest.ResourceDynamicBuffer))

	list.Add(make([]PointLight, 100)...)
	l.BindLights(src)
	assert.Equal(t, minBufferLights+1+100, l.Capacity())

	// shrinking keeps the buffer
	list.Clear()
	l.BindLights(src)
	assert.Equal(t, minBufferLights+1+100, l.Capacity())
	assert.Equal(t, 3, bufferEvents(rec))
	assert.Empty(t, rec.Errors)
}

func TestLights_BufferFailure(t *testing.T) {
	rec := backendtest.NewRecorder(backendtest.WithFailure(backendtest.ResourceDynamicBuffer))
	l := NewLights()
	l.Initialize(rec)

	assert.Zero(t, l.Capacity())
	assert.False(t, l.Buffer().Valid())

	// binding without a buffer still sets the uniforms
	p := newTestProgram(t, rec)
	l.BindLights(testSource{lights: NewPointLightList(NewPointLight())})
	rec.Submit(0, p)
	require.Len(t, rec.Draws, 1)
	assert.Equal(t, []float32{1, 0, 0, 0}, rec.Draws[0].Uniform("u_lightCountVec"))

	rec.DestroyProgram(p)
	l.Shutdown()
	assert.Zero(t, rec.LiveTotal())
}

func TestLights_BufferFailureIsNotRetried(t *testing.T) {
	var logs bytes.Buffer
	logging.SetLogger(slog.New(slog.NewTextHandler(&logs, nil)))
	t.Cleanup(func() { logging.SetLogger(nil) })

	rec := backendtest.NewRecorder(backendtest.WithFailure(backendtest.ResourceDynamicBuffer))
	l := NewLights()
	l.Initialize(rec)

	lights := make([]PointLight, 20)
	for i := range lights {
		lights[i] = NewPointLight()
	}
	src := testSource{lights: NewPointLightList(lights...)}
	p := newTestProgram(t, rec)
	for range 3 {
		for range lights {
			l.BindLights(src)
			rec.Submit(0, p)
		}
		rec.Frame()
	}

	assert.Equal(t, 1, rec.Attempts(backendtest.ResourceDynamicBuffer))
	assert.Equal(t, 1, strings.Count(logs.String(), "failed to create light buffer"))
	assert.False(t, l.Buffer().Valid())

	// a new session tries again
	l.Shutdown()
	rec.SetFailure(backendtest.ResourceDynamicBuffer, false)
	l.Initialize(rec)
	l.BindLights(src)
	assert.True(t, l.Buffer().Valid())
	assert.Equal(t, 2*minBufferLights, l.Capacity())

	rec.DestroyProgram(p)
	l.Shutdown()
	assert.Zero(t, rec.LiveTotal())
}

func TestLights_BindBeforeInitialize(t *testing.T) {
	l := NewLights()
	l.BindLights(testSource{lights: NewPointLightList()})
	l.Shutdown()
	assert.Zero(t, l.Capacity())
}
