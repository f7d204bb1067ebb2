package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPackRGBA(t *testing.T) {
	assert.Equal(t, uint32(0xff0000ff), PackRGBA(1, 0, 0, 1))
	assert.Equal(t, uint32(0x000000ff), PackRGBA(-1, 0, 0, 2), "components are clamped")
	assert.Equal(t, uint32(0x303030ff), PackRGBA(0.188, 0.188, 0.188, 1))

	for _, c := range []uint32{0x00000000, 0x12345678, 0xffffffff, 0x303030ff} {
		v := UnpackRGBA(c)
		assert.Equal(t, c, PackRGBA(v[0], v[1], v[2], v[3]))
	}
}

func TestBackbufferRatio_Apply(t *testing.T) {
	assert.Equal(t, 1280, RatioNone.Apply(1280))
	assert.Equal(t, 1280, RatioEqual.Apply(1280))
	assert.Equal(t, 640, RatioHalf.Apply(1280))
	assert.Equal(t, 320, RatioQuarter.Apply(1280))
	assert.Equal(t, 1, RatioQuarter.Apply(3))
	assert.Equal(t, 1, RatioEqual.Apply(0))
}

func TestVertexLayout(t *testing.T) {
	l := NewVertexLayout(
		VertexAttrib{Attrib: AttribPosition, Num: 3},
		VertexAttrib{Attrib: AttribNormal, Num: 3},
		VertexAttrib{Attrib: AttribTexCoord0, Num: 2},
	)
	assert.Equal(t, uint32(32), l.Stride())
	assert.Equal(t, uint32(12), l.Offset(1))
	assert.Equal(t, uint32(24), l.Offset(2))
	assert.True(t, l.Has(AttribNormal))
	assert.False(t, l.Has(AttribColor0))
	assert.Equal(t, "pos3nrm3uv02", l.Key())

	other := NewVertexLayout(
		VertexAttrib{Attrib: AttribPosition, Num: 3},
		VertexAttrib{Attrib: AttribTexCoord0, Num: 2},
	)
	assert.NotEqual(t, l.Key(), other.Key())
}
