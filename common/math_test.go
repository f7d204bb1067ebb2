package common

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertMatInDelta(t *testing.T, want, got Mat4) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-4, "element %d", i)
	}
}

func TestMul4_Identity(t *testing.T) {
	m := TranslateScale([3]float32{1, 2, 3}, 4)
	var out Mat4
	id := Identity4()
	Mul4(out[:], m[:], id[:])
	assert.Equal(t, m, out)

	Mul4(out[:], id[:], m[:])
	assert.Equal(t, m, out)
}

func TestMul4_Aliasing(t *testing.T) {
	a := Translate(1, 0, 0)
	b := Translate(0, 2, 0)
	Mul4(a[:], a[:], b[:])
	assert.Equal(t, [3]float32{1, 2, 0}, TransformPoint(a, [3]float32{}))
}

func TestTranslateScale_MatchesProduct(t *testing.T) {
	pos := [3]float32{-1, 5, 2}
	var want Mat4
	tr, sc := Translate(pos[0], pos[1], pos[2]), Scale(3, 3, 3)
	Mul4(want[:], tr[:], sc[:])
	assert.Equal(t, want, TranslateScale(pos, 3))
	assert.Equal(t, [3]float32{2, 8, 5}, TransformPoint(want, [3]float32{1, 1, 1}))
}

func TestInvert4(t *testing.T) {
	var m Mat4
	BuildModelMatrix(m[:], [3]float32{1, -2, 3}, [3]float32{0.3, 1.1, -0.4}, [3]float32{2, 1, 0.5})

	var inv, prod Mat4
	require.True(t, Invert4(inv[:], m[:]))
	Mul4(prod[:], m[:], inv[:])
	assertMatInDelta(t, Identity4(), prod)
}

func TestInvert4_Singular(t *testing.T) {
	out := Translate(7, 7, 7)
	flat := Scale(1, 0, 1)
	assert.False(t, Invert4(out[:], flat[:]))
	assert.Equal(t, Translate(7, 7, 7), out, "out is untouched")
}

func TestNormalMatrix(t *testing.T) {
	// pure rotation and translation: the normal matrix is the rotation
	var m Mat4
	BuildModelMatrix(m[:], [3]float32{4, 5, 6}, [3]float32{0, math32.Pi / 2, 0}, [3]float32{1, 1, 1})
	n := NormalMatrix(m)
	want := m
	want[12], want[13], want[14] = 0, 0, 0
	assertMatInDelta(t, want, n)

	// non-uniform scale inverts the scale factors
	n = NormalMatrix(Scale(2, 4, 1))
	assertMatInDelta(t, Scale(0.5, 0.25, 1), n)

	assert.Equal(t, Identity4(), NormalMatrix(Mat4{}))
}

func TestTranspose4(t *testing.T) {
	m := Translate(1, 2, 3)
	tr := Transpose4(m)
	assert.Equal(t, [4]float32{1, 2, 3, 1}, [4]float32{tr[3], tr[7], tr[11], tr[15]})
	assert.Equal(t, m, Transpose4(tr))
}

func TestPerspective_DepthRange(t *testing.T) {
	var p Mat4
	Perspective(p[:], math32.Pi/2, 1, 0.5, 50)

	near := TransformVec4(p, [4]float32{0, 0, -0.5, 1})
	far := TransformVec4(p, [4]float32{0, 0, -50, 1})
	assert.InDelta(t, 0, near[2]/near[3], 1e-5)
	assert.InDelta(t, 1, far[2]/far[3], 1e-5)
}

func TestLookAt(t *testing.T) {
	var v Mat4
	LookAt(v[:], [3]float32{0, 0, 5}, [3]float32{}, [3]float32{0, 1, 0})

	p := TransformPoint(v, [3]float32{})
	assert.InDeltaSlice(t, []float32{0, 0, -5}, p[:], 1e-5)

	p = TransformPoint(v, [3]float32{0, 0, 5})
	assert.InDeltaSlice(t, []float32{0, 0, 0}, p[:], 1e-5)
}

func TestSliceToBytes(t *testing.T) {
	assert.Nil(t, SliceToBytes([]float32(nil)))
	assert.Len(t, SliceToBytes([]float32{1, 2, 3}), 12)
	assert.Len(t, SliceToBytes([]Mat4{Identity4()}), 64)
}
