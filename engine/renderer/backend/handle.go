package backend

import "math"

// InvalidHandle is the sentinel value shared by every handle type.
const InvalidHandle = math.MaxUint16

// Handle is the constraint satisfied by every typed GPU handle.
type Handle interface {
	~uint16
	Valid() bool
}

type (
	// ShaderHandle identifies a compiled shader module.
	ShaderHandle uint16
	// ProgramHandle identifies a linked render or compute program.
	ProgramHandle uint16
	// UniformHandle identifies a named uniform or texture sampler slot.
	UniformHandle uint16
	// TextureHandle identifies a 2D texture.
	TextureHandle uint16
	// FrameBufferHandle identifies a set of render target attachments.
	FrameBufferHandle uint16
	// VertexBufferHandle identifies an immutable vertex buffer.
	VertexBufferHandle uint16
	// IndexBufferHandle identifies an immutable index buffer.
	IndexBufferHandle uint16
	// DynamicBufferHandle identifies a storage buffer that compute and draw programs can bind.
	DynamicBufferHandle uint16
)

func (h ShaderHandle) Valid() bool        { return h != InvalidHandle }
func (h ProgramHandle) Valid() bool       { return h != InvalidHandle }
func (h UniformHandle) Valid() bool       { return h != InvalidHandle }
func (h TextureHandle) Valid() bool       { return h != InvalidHandle }
func (h FrameBufferHandle) Valid() bool   { return h != InvalidHandle }
func (h VertexBufferHandle) Valid() bool  { return h != InvalidHandle }
func (h IndexBufferHandle) Valid() bool   { return h != InvalidHandle }
func (h DynamicBufferHandle) Valid() bool { return h != InvalidHandle }

// Invalid returns the invalid sentinel for the handle type H.
func Invalid[H Handle]() H {
	return H(InvalidHandle)
}

// Resource owns a single GPU handle together with the function that destroys it.
// The zero value owns nothing and reports Valid() == false, so a Resource field
// needs no explicit initialization before Release is safe to call.
type Resource[H Handle] struct {
	h       H
	owned   bool
	destroy func(H)
}

// Own takes ownership of h. Any handle previously owned is released first.
// An invalid h leaves the resource empty.
//
// Parameters:
//   - h: the handle returned by a Create call
//   - destroy: the matching Destroy call, invoked once by Release
func (r *Resource[H]) Own(h H, destroy func(H)) {
	r.Release()
	if !h.Valid() {
		return
	}
	r.h = h
	r.owned = true
	r.destroy = destroy
}

// Valid reports whether the resource currently owns a valid handle.
func (r *Resource[H]) Valid() bool {
	return r.owned && r.h.Valid()
}

// Handle returns the owned handle, or the invalid sentinel when nothing is owned.
func (r *Resource[H]) Handle() H {
	if !r.owned {
		return Invalid[H]()
	}
	return r.h
}

// Release destroys the owned handle exactly once and resets the resource to invalid.
// Calling Release on an empty resource does nothing.
func (r *Resource[H]) Release() {
	if !r.owned {
		return
	}
	destroy := r.destroy
	h := r.h
	r.owned = false
	r.destroy = nil
	r.h = Invalid[H]()
	if destroy != nil {
		destroy(h)
	}
}

// HandleAllocator hands out dense handle indices and recycles freed ones.
// The zero value is ready to use.
type HandleAllocator struct {
	next uint16
	free []uint16
}

// Alloc returns the next free index, or false once every index is in use.
func (a *HandleAllocator) Alloc() (uint16, bool) {
	if n := len(a.free); n > 0 {
		h := a.free[n-1]
		a.free = a.free[:n-1]
		return h, true
	}
	if a.next == InvalidHandle {
		return InvalidHandle, false
	}
	h := a.next
	a.next++
	return h, true
}

// Free returns h to the pool.
func (a *HandleAllocator) Free(h uint16) {
	a.free = append(a.free, h)
}
