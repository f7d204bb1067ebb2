package light

import (
	"encoding/binary"
	"math"
	"sync"
	"testing"

	"github.com/Carmen-Shannon/oxy-lighting/common"
	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPointLight_Defaults(t *testing.T) {
	l := NewPointLight()
	assert.Equal(t, [3]float32{1, 1, 1}, l.Color)
	assert.Equal(t, float32(1), l.Intensity)

	l = NewPointLight(WithPosition(1, 2, 3), WithColor(1, 0.5, 0), WithIntensity(10))
	assert.Equal(t, [3]float32{1, 2, 3}, l.Position)
	assert.Equal(t, [3]float32{10, 5, 0}, l.Flux())
}

func TestPointLight_Radius(t *testing.T) {
	tests := []struct {
		name      string
		color     [3]float32
		intensity float32
		want      float32
	}{
		// below 20 W/sr the cutoff is an absolute 1, so the radius is sqrt(maxIntensity)
		{"dim", [3]float32{1, 1, 1}, 150, math32.Sqrt(150 / (4 * math32.Pi))},
		{"colored uses the brightest channel", [3]float32{0.2, 1, 0.5}, 150, math32.Sqrt(150 / (4 * math32.Pi))},
		// above it the cutoff is 5% of the intensity, so the radius saturates at sqrt(20)
		{"bright", [3]float32{1, 1, 1}, 10000, math32.Sqrt(20)},
		{"black", [3]float32{0, 0, 0}, 150, 0},
		{"off", [3]float32{1, 1, 1}, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := PointLight{Color: tt.color, Intensity: tt.intensity}
			assert.InDelta(t, tt.want, l.Radius(), 1e-4)
		})
	}
}

func TestPointLight_RadiusGrowsWithIntensity(t *testing.T) {
	prev := float32(0)
	for _, intensity := range []float32{1, 10, 50, 100, 200} {
		r := NewPointLight(WithIntensity(intensity)).Radius()
		assert.Greater(t, r, prev)
		prev = r
	}
}

func TestPointLightList_Version(t *testing.T) {
	list := NewPointLightList(NewPointLight(), NewPointLight())
	require.Equal(t, 2, list.Len())
	v := list.Version()

	list.Add(NewPointLight())
	assert.Greater(t, list.Version(), v)
	v = list.Version()

	list.Set(0, NewPointLight(WithPosition(1, 1, 1)))
	assert.Greater(t, list.Version(), v)
	assert.Equal(t, [3]float32{1, 1, 1}, list.At(0).Position)
	v = list.Version()

	list.Update(func(lights []PointLight) {
		for i := range lights {
			lights[i].Intensity = 7
		}
	})
	assert.Greater(t, list.Version(), v)
	assert.Equal(t, float32(7), list.At(2).Intensity)
	v = list.Version()

	list.Clear()
	assert.Zero(t, list.Len())
	assert.Greater(t, list.Version(), v)
}

func TestPointLightList_LightsIsACopy(t *testing.T) {
	list := NewPointLightList(NewPointLight())
	lights := list.Lights()
	lights[0].Intensity = 99
	assert.Equal(t, float32(1), list.At(0).Intensity)
}

func TestPointLightList_ConcurrentUpdate(t *testing.T) {
	list := NewPointLightList(make([]PointLight, 256)...)

	var wg sync.WaitGroup
	for w := range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				list.Update(func(lights []PointLight) {
					lights[w].Intensity++
				})
				_ = list.Lights()
			}
		}()
	}
	wg.Wait()

	for w := range 4 {
		assert.Equal(t, float32(50), list.At(w).Intensity)
	}
	assert.Equal(t, uint64(200), list.Version())
}

func TestMarshalLightBuffer(t *testing.T) {
	lights := []PointLight{
		{Position: [3]float32{1, 2, 3}, Color: [3]float32{1, 0.5, 0.25}, Intensity: 4},
		{Position: [3]float32{-1, 0, 0}, Color: [3]float32{1, 1, 1}, Intensity: 0},
	}
	buf := MarshalLightBuffer(nil, lights)
	require.Len(t, buf, 2*GPUPointLightSize)

	f := func(off int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))
	}
	assert.Equal(t, float32(1), f(0))
	assert.Equal(t, float32(3), f(8))
	assert.Equal(t, lights[0].Radius(), f(12))
	assert.Equal(t, [3]float32{4, 2, 1}, [3]float32{f(16), f(20), f(24)})
	assert.Equal(t, float32(-1), f(32))
	assert.Equal(t, float32(0), f(32+12))

	var g GPUPointLight
	assert.Equal(t, GPUPointLightSize, g.Size())

	// reuse keeps the backing array
	again := MarshalLightBuffer(buf, lights[:1])
	assert.Len(t, again, GPUPointLightSize)
	assert.Same(t, &buf[0], &again[0])
}

func TestVisibleLights(t *testing.T) {
	var proj, view, vp common.Mat4
	common.Perspective(proj[:], math32.Pi/2, 1, 0.1, 100)
	common.LookAt(view[:], [3]float32{0, 0, 0}, [3]float32{0, 0, -1}, [3]float32{0, 1, 0})
	common.Mul4(vp[:], proj[:], view[:])
	frustum := common.ExtractFrustum(vp)

	lights := []PointLight{
		NewPointLight(WithPosition(0, 0, -10), WithIntensity(100)),
		NewPointLight(WithPosition(0, 0, 50), WithIntensity(100)),
		// outside on the left, but its radius reaches in
		NewPointLight(WithPosition(-12, 0, -10), WithIntensity(10000)),
		NewPointLight(WithPosition(0, 500, -10), WithIntensity(100)),
		NewPointLight(WithPosition(3, 3, -20), WithIntensity(100)),
	}

	scratch := make([]int, 0, 8)
	got := VisibleLights(scratch, lights, &frustum)
	assert.Equal(t, []int{0, 2, 4}, got)

	got = VisibleLights(got[:0], nil, &frustum)
	assert.Empty(t, got)
}
