package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandle_Valid(t *testing.T) {
	assert.False(t, Invalid[TextureHandle]().Valid())
	assert.False(t, Invalid[ProgramHandle]().Valid())
	assert.True(t, TextureHandle(0).Valid())
	assert.Equal(t, ProgramHandle(InvalidHandle), Invalid[ProgramHandle]())
}

func TestResource_OwnAndRelease(t *testing.T) {
	var destroyed []TextureHandle
	destroy := func(h TextureHandle) { destroyed = append(destroyed, h) }

	var r Resource[TextureHandle]
	assert.False(t, r.Valid())
	assert.Equal(t, Invalid[TextureHandle](), r.Handle())
	r.Release()
	assert.Empty(t, destroyed)

	r.Own(3, destroy)
	assert.True(t, r.Valid())
	assert.Equal(t, TextureHandle(3), r.Handle())

	r.Release()
	r.Release()
	assert.Equal(t, []TextureHandle{3}, destroyed)
	assert.False(t, r.Valid())
}

func TestResource_OwnReplacesPrevious(t *testing.T) {
	var destroyed []testHandle
	var r Resource[testHandle]
	destroy := func(h testHandle) { destroyed = append(destroyed, h) }

	r.Own(1, destroy)
	r.Own(2, destroy)
	assert.Equal(t, []testHandle{1}, destroyed)
	assert.Equal(t, testHandle(2), r.Handle())

	// an invalid handle empties the resource
	r.Own(Invalid[testHandle](), destroy)
	assert.Equal(t, []testHandle{1, 2}, destroyed)
	assert.False(t, r.Valid())
	r.Release()
	assert.Len(t, destroyed, 2)
}

// testHandle is a handle type defined outside the package set.
type testHandle uint16

func (h testHandle) Valid() bool { return h != InvalidHandle }

func TestHandleAllocator(t *testing.T) {
	var a HandleAllocator
	for want := range uint16(3) {
		h, ok := a.Alloc()
		require.True(t, ok)
		assert.Equal(t, want, h)
	}

	a.Free(1)
	a.Free(0)
	h, _ := a.Alloc()
	assert.Equal(t, uint16(0), h, "last freed is reused first")
	h, _ = a.Alloc()
	assert.Equal(t, uint16(1), h)
	h, _ = a.Alloc()
	assert.Equal(t, uint16(3), h)
}

func TestHandleAllocator_Exhausted(t *testing.T) {
	a := HandleAllocator{next: InvalidHandle - 1}
	h, ok := a.Alloc()
	require.True(t, ok)
	assert.Equal(t, uint16(InvalidHandle-1), h)

	h, ok = a.Alloc()
	assert.False(t, ok)
	assert.Equal(t, uint16(InvalidHandle), h)

	a.Free(7)
	h, ok = a.Alloc()
	assert.True(t, ok)
	assert.Equal(t, uint16(7), h)
}
