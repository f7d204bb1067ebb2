package camera

import (
	"sync"
	"testing"

	"github.com/Carmen-Shannon/oxy-lighting/common"
	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
)

func assertMatrixInDelta(t *testing.T, want, got [16]float32) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-4, "element %d", i)
	}
}

func TestOrbit_Position(t *testing.T) {
	tests := []struct {
		name  string
		orbit Orbit
		want  [3]float32
	}{
		{"front", Orbit{Target: [3]float32{1, 2, 3}, Radius: 2}, [3]float32{1, 2, 5}},
		{"side", Orbit{Radius: 4, Azimuth: math32.Pi / 2}, [3]float32{4, 0, 0}},
		{"above", Orbit{Radius: 3, Elevation: math32.Pi / 2}, [3]float32{0, 3, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.orbit.Position()
			for i := range 3 {
				assert.InDelta(t, tt.want[i], got[i], 1e-5)
			}
		})
	}
}

func TestNewCamera(t *testing.T) {
	c := NewCamera()
	assert.InDelta(t, math32.Pi/3, c.Fov(), 1e-6)
	assert.InDelta(t, 16.0/9.0, c.Aspect(), 1e-6)
	assert.Equal(t, float32(0.1), c.Near())
	assert.Equal(t, float32(100), c.Far())
	assert.Equal(t, c.Orbit().Position(), c.Position())

	c = NewCamera(WithFov(math32.Pi/2), WithAspect(1), WithNear(1), WithFar(50),
		WithOrbit(Orbit{Target: [3]float32{0, 1, 0}, Radius: 5}))
	assert.Equal(t, float32(1), c.Aspect())
	assert.Equal(t, float32(50), c.Far())
	assert.Equal(t, [3]float32{0, 1, 5}, c.Position())
	// a 90 degree fov with a square aspect has unit focal lengths
	assert.InDelta(t, 1, c.ProjectionMatrix()[0], 1e-6)
	assert.InDelta(t, 1, c.ProjectionMatrix()[5], 1e-6)
}

func TestNewCamera_IgnoresInvalidOptions(t *testing.T) {
	def := NewCamera()
	tests := []struct {
		name string
		opt  CameraBuilderOption
	}{
		{"zero fov", WithFov(0)},
		{"straight angle fov", WithFov(math32.Pi)},
		{"zero aspect", WithAspect(0)},
		{"negative aspect", WithAspect(-2)},
		{"zero near", WithNear(0)},
		{"negative far", WithFar(-1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCamera(tt.opt)
			assert.Equal(t, def.Fov(), c.Fov())
			assert.Equal(t, def.Aspect(), c.Aspect())
			assert.Equal(t, def.Near(), c.Near())
			assert.Equal(t, def.Far(), c.Far())
		})
	}
}

func TestCamera_Matrices(t *testing.T) {
	c := NewCamera()

	var vp, id common.Mat4
	view, proj := c.ViewMatrix(), c.ProjectionMatrix()
	common.Mul4(vp[:], proj[:], view[:])
	assertMatrixInDelta(t, vp, c.ViewProjectionMatrix())

	inv := c.InverseProjectionMatrix()
	common.Mul4(id[:], inv[:], proj[:])
	assertMatrixInDelta(t, common.Identity4(), id)

	// the orbit target sits in the middle of the view
	target := c.Orbit().Target
	vpm := c.ViewProjectionMatrix()
	x := vpm[0]*target[0] + vpm[4]*target[1] + vpm[8]*target[2] + vpm[12]
	y := vpm[1]*target[0] + vpm[5]*target[1] + vpm[9]*target[2] + vpm[13]
	assert.InDelta(t, 0, x, 1e-5)
	assert.InDelta(t, 0, y, 1e-5)
}

func TestCamera_Rotate(t *testing.T) {
	c := NewCamera()
	view := c.ViewMatrix()

	c.Rotate(math32.Pi / 2)
	assert.InDelta(t, math32.Pi/2, c.Orbit().Azimuth, 1e-6)
	assert.NotEqual(t, view, c.ViewMatrix())

	c.Rotate(2 * math32.Pi)
	assert.InDelta(t, math32.Pi/2, c.Orbit().Azimuth, 1e-5, "the azimuth wraps")

	pos := c.Position()
	assert.InDelta(t, 10*math32.Cos(math32.Pi/8), pos[0], 1e-4)
	assert.InDelta(t, 0, pos[2], 1e-4)
}

func TestCamera_SetAspect(t *testing.T) {
	c := NewCamera()
	proj := c.ProjectionMatrix()

	c.SetAspect(0)
	c.SetAspect(-1)
	assert.InDelta(t, 16.0/9.0, c.Aspect(), 1e-6)
	assert.Equal(t, proj, c.ProjectionMatrix())

	c.SetAspect(2)
	assert.Equal(t, float32(2), c.Aspect())
	assert.InDelta(t, proj[5]/2, c.ProjectionMatrix()[0], 1e-6)
}

func TestCamera_SetNearFarAndOrbit(t *testing.T) {
	c := NewCamera()
	c.SetNearFar(0.5, 200)
	assert.Equal(t, float32(0.5), c.Near())
	assert.Equal(t, float32(200), c.Far())

	c.SetOrbit(Orbit{Target: [3]float32{1, 0, 0}, Radius: 1})
	assert.Equal(t, [3]float32{1, 0, 1}, c.Position())
}

func TestCamera_ConcurrentAccess(t *testing.T) {
	c := NewCamera()
	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				c.Rotate(0.01)
				_ = c.ViewProjectionMatrix()
				_ = c.Position()
			}
		}()
	}
	wg.Wait()
	assert.InDelta(t, 4, c.Orbit().Azimuth, 1e-3)
}
