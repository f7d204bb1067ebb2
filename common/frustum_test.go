package common

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
)

func testFrustum() Frustum {
	var proj, view, vp Mat4
	Perspective(proj[:], math32.Pi/2, 1, 1, 100)
	LookAt(view[:], [3]float32{0, 0, 0}, [3]float32{0, 0, -1}, [3]float32{0, 1, 0})
	Mul4(vp[:], proj[:], view[:])
	return ExtractFrustum(vp)
}

func TestExtractFrustum_UnitNormals(t *testing.T) {
	f := testFrustum()
	for i, p := range f.Planes {
		l := math32.Sqrt(dot3(p.Normal, p.Normal))
		assert.InDelta(t, 1, l, 1e-5, "plane %d", i)
	}
}

func TestSphereVisible(t *testing.T) {
	f := testFrustum()

	tests := []struct {
		name    string
		center  [3]float32
		radius  float32
		visible bool
	}{
		{"inside", [3]float32{0, 0, -10}, 1, true},
		{"behind camera", [3]float32{0, 0, 10}, 1, false},
		{"behind camera touching near plane", [3]float32{0, 0, 0}, 1.5, true},
		{"beyond far plane", [3]float32{0, 0, -110}, 5, false},
		{"straddling far plane", [3]float32{0, 0, -102}, 5, true},
		{"left of frustum", [3]float32{-30, 0, -10}, 1, false},
		{"left edge overlap", [3]float32{-11, 0, -10}, 2, true},
		{"above frustum", [3]float32{0, 30, -10}, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.visible, f.SphereVisible(tt.center, tt.radius))
		})
	}
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0, Clamp(-3, 0, 10))
	assert.Equal(t, 10, Clamp(30, 0, 10))
	assert.Equal(t, float32(0.5), Clamp(float32(0.5), 0, 1))
}

func TestCeilDiv(t *testing.T) {
	assert.Equal(t, 1, CeilDiv(1, 64))
	assert.Equal(t, 1, CeilDiv(64, 64))
	assert.Equal(t, 2, CeilDiv(65, 64))
	assert.Equal(t, 6, CeilDiv(24, 4))
}

func TestCoalesce(t *testing.T) {
	assert.Equal(t, "b", Coalesce("", "b", "c"))
	assert.Equal(t, 0, Coalesce(0, 0))
}
