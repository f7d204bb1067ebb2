// Package backend defines the view-based GPU abstraction the renderers are written against.
//
// A frame is described as a set of views. Each view has a clear policy, a viewport, a
// target framebuffer and an optional view/projection transform. Draws and compute
// dispatches are recorded into views by id, and Frame executes the views in ascending
// id order. Within one view, blits run first, then compute dispatches, then draws.
// That ordering is the only synchronization the renderers rely on.
//
// Per-draw state (transform, uniforms, textures, buffers, vertex/index buffers, render
// state) accumulates through the Set* calls and is consumed and reset by Submit or Dispatch.
//
// Every Create call returns a typed handle. Failure is reported by returning the invalid
// handle and logging the cause, never by panicking.
package backend

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-lighting/engine/renderer/pipeline"
)

// ViewID identifies a view. Views execute in ascending order.
type ViewID uint16

// MaxViews is the number of available views. The last one is reserved for presentation.
const MaxViews = 256

// MaxColorAttachments is the number of color attachments every WebGPU device supports.
const MaxColorAttachments = 8

// MaxTextureStages is the number of texture stages bindable per draw.
const MaxTextureStages = 8

// MaxBufferStages is the number of storage buffer stages bindable per draw or dispatch.
const MaxBufferStages = 6

// MaxUniformSlots is the number of vec4 slots available to named uniforms per draw.
const MaxUniformSlots = 32

// DefaultMaxDrawCalls is the default per-frame draw and dispatch capacity.
const DefaultMaxDrawCalls = 4096

// ClearFlags selects which attachments a view clears before its first draw.
type ClearFlags uint8

const (
	ClearNone  ClearFlags = 0
	ClearColor ClearFlags = 1 << (iota - 1)
	ClearDepth
	ClearStencil
)

// Access describes how a compute or draw program accesses a storage buffer.
type Access uint8

const (
	AccessRead Access = iota
	AccessWrite
	AccessReadWrite
)

func (a Access) String() string {
	switch a {
	case AccessRead:
		return "read"
	case AccessWrite:
		return "write"
	default:
		return "read_write"
	}
}

// ShaderStage identifies the pipeline stage a shader module is compiled for.
type ShaderStage uint8

const (
	ShaderStageVertex ShaderStage = iota
	ShaderStageFragment
	ShaderStageCompute
)

// UniformType selects the size of a named uniform.
type UniformType uint8

const (
	// UniformSampler names a texture stage. It occupies no uniform slots.
	UniformSampler UniformType = iota
	// UniformVec4 is one vec4<f32> per element.
	UniformVec4
	// UniformMat3 is a 3x3 matrix padded to a mat4, four slots per element.
	UniformMat3
	// UniformMat4 is one mat4x4<f32>, four slots per element.
	UniformMat4
)

// Slots returns the number of vec4 slots one element of the type occupies.
func (t UniformType) Slots() int {
	switch t {
	case UniformVec4:
		return 1
	case UniformMat3, UniformMat4:
		return 4
	default:
		return 0
	}
}

// BackbufferRatio sizes a texture relative to the backbuffer. RatioNone means an absolute size.
type BackbufferRatio uint8

const (
	RatioNone BackbufferRatio = iota
	RatioEqual
	RatioHalf
	RatioQuarter
)

// Apply scales a backbuffer dimension by the ratio, never returning less than one.
func (r BackbufferRatio) Apply(v int) int {
	switch r {
	case RatioHalf:
		v /= 2
	case RatioQuarter:
		v /= 4
	}
	return max(v, 1)
}

// TextureFlags controls texture usage and sampling.
type TextureFlags uint32

const (
	TextureNone TextureFlags = 0
	// TextureRenderTarget allows the texture to be a framebuffer attachment.
	TextureRenderTarget TextureFlags = 1 << (iota - 1)
	// TextureBlitDst allows the texture to be the destination of Blit.
	TextureBlitDst
	// TextureBlitSrc allows the texture to be the source of Blit. Render targets always are.
	TextureBlitSrc
	// TextureSamplerPoint selects nearest filtering.
	TextureSamplerPoint
	// TextureSamplerClamp selects clamp-to-edge addressing.
	TextureSamplerClamp
)

// TextureDesc describes a 2D texture.
type TextureDesc struct {
	// Width and Height are used when Ratio is RatioNone.
	Width, Height int
	// Ratio ties the size to the backbuffer. Ratio textures are resized on Reset and keep their handle.
	Ratio  BackbufferRatio
	Format TextureFormat
	Flags  TextureFlags
	// Data optionally holds initial tightly packed texel data.
	Data []byte
	// Name is a debug label.
	Name string
}

// BufferFlags controls dynamic buffer usage.
type BufferFlags uint8

const (
	BufferNone BufferFlags = 0
	// BufferComputeRead allows compute programs to read the buffer.
	BufferComputeRead BufferFlags = 1 << (iota - 1)
	// BufferComputeWrite allows compute programs to write the buffer.
	BufferComputeWrite
	// BufferComputeReadWrite is read and write access from compute programs.
	BufferComputeReadWrite = BufferComputeRead | BufferComputeWrite
)

// Attrib identifies a vertex attribute. Its value is the shader location.
type Attrib uint8

const (
	AttribPosition Attrib = iota
	AttribNormal
	AttribTexCoord0
	AttribColor0
)

func (a Attrib) String() string {
	switch a {
	case AttribPosition:
		return "pos"
	case AttribNormal:
		return "nrm"
	case AttribTexCoord0:
		return "uv0"
	case AttribColor0:
		return "col0"
	default:
		return "attr"
	}
}

// VertexAttrib is one float attribute with Num components.
type VertexAttrib struct {
	Attrib Attrib
	Num    uint8
}

// VertexLayout describes an interleaved float32 vertex stream.
type VertexLayout struct {
	attribs []VertexAttrib
	offsets []uint32
	stride  uint32
}

// NewVertexLayout builds an interleaved layout in the given attribute order.
//
// Parameters:
//   - attribs: attributes in memory order, each with 1 to 4 float32 components
//
// Returns:
//   - VertexLayout: the layout with computed offsets and stride
func NewVertexLayout(attribs ...VertexAttrib) VertexLayout {
	l := VertexLayout{
		attribs: append([]VertexAttrib(nil), attribs...),
		offsets: make([]uint32, len(attribs)),
	}
	for i, a := range attribs {
		l.offsets[i] = l.stride
		l.stride += uint32(a.Num) * 4
	}
	return l
}

// Attribs returns the attributes in memory order.
func (l VertexLayout) Attribs() []VertexAttrib { return l.attribs }

// Offset returns the byte offset of attribute i.
func (l VertexLayout) Offset(i int) uint32 { return l.offsets[i] }

// Stride returns the size of one vertex in bytes.
func (l VertexLayout) Stride() uint32 { return l.stride }

// Has reports whether the layout contains attribute a.
func (l VertexLayout) Has(a Attrib) bool {
	for _, va := range l.attribs {
		if va.Attrib == a {
			return true
		}
	}
	return false
}

// Key returns a string that is equal for equal layouts.
func (l VertexLayout) Key() string {
	var sb strings.Builder
	for _, a := range l.attribs {
		fmt.Fprintf(&sb, "%s%d", a.Attrib, a.Num)
	}
	return sb.String()
}

// Backend is the GPU abstraction consumed by the renderers.
// All methods are called from the render thread only.
type Backend interface {
	// Name returns a human readable backend name.
	Name() string

	// Caps returns the capabilities of the active device.
	Caps() Caps

	// Reset resizes the backbuffer and every ratio-sized texture. Handles stay valid.
	//
	// Parameters:
	//   - width: backbuffer width in pixels
	//   - height: backbuffer height in pixels
	Reset(width, height int)

	// Frame executes every view in ascending id order, presents the backbuffer and
	// clears all recorded view commands. View configuration persists across frames.
	//
	// Returns:
	//   - uint32: the number of frames executed so far
	Frame() uint32

	// Shutdown releases every remaining resource and the device.
	Shutdown()

	// CreateShader compiles a shader module. Named uniforms created before this call are
	// visible to the source as constants (see the shader package pre-processor).
	//
	// Parameters:
	//   - source: WGSL source
	//   - stage: the stage the module's entry point is written for
	//   - name: debug label
	//
	// Returns:
	//   - ShaderHandle: the shader, or invalid if compilation failed
	CreateShader(source string, stage ShaderStage, name string) ShaderHandle
	DestroyShader(h ShaderHandle)

	// CreateProgram links a vertex and fragment shader into a render program.
	//
	// Parameters:
	//   - vs: the vertex shader
	//   - fs: the fragment shader
	//   - destroyShaders: destroy both shaders when the program is destroyed
	//
	// Returns:
	//   - ProgramHandle: the program, or invalid if either shader is invalid
	CreateProgram(vs, fs ShaderHandle, destroyShaders bool) ProgramHandle

	// CreateComputeProgram wraps a compute shader into a program.
	//
	// Parameters:
	//   - cs: the compute shader
	//   - destroyShader: destroy the shader when the program is destroyed
	//
	// Returns:
	//   - ProgramHandle: the program, or invalid if the shader is invalid
	CreateComputeProgram(cs ShaderHandle, destroyShader bool) ProgramHandle
	DestroyProgram(h ProgramHandle)

	// CreateUniform registers a named uniform. Creating an existing name returns the same
	// handle and increments its reference count.
	//
	// Parameters:
	//   - name: the uniform name, e.g. "u_lightIndexVec"
	//   - typ: the element type
	//   - num: number of elements, at least 1
	//
	// Returns:
	//   - UniformHandle: the uniform, or invalid when slots are exhausted
	CreateUniform(name string, typ UniformType, num int) UniformHandle
	DestroyUniform(h UniformHandle)

	CreateVertexBuffer(data []byte, layout VertexLayout, name string) VertexBufferHandle
	DestroyVertexBuffer(h VertexBufferHandle)

	// CreateIndexBuffer uploads indices. index32 selects uint32 indices over uint16.
	CreateIndexBuffer(data []byte, index32 bool, name string) IndexBufferHandle
	DestroyIndexBuffer(h IndexBufferHandle)

	// CreateDynamicBuffer creates a storage buffer of size bytes.
	CreateDynamicBuffer(size int, flags BufferFlags, name string) DynamicBufferHandle
	// UpdateDynamicBuffer writes data at byte offset. Writes past the end are dropped and logged.
	UpdateDynamicBuffer(h DynamicBufferHandle, offset int, data []byte)
	DestroyDynamicBuffer(h DynamicBufferHandle)

	CreateTexture2D(desc TextureDesc) TextureHandle
	DestroyTexture(h TextureHandle)

	// CreateFrameBuffer groups render target textures. Depth attachments may appear anywhere.
	//
	// Parameters:
	//   - attachments: render target textures
	//   - destroyTextures: destroy the textures when the framebuffer is destroyed
	//
	// Returns:
	//   - FrameBufferHandle: the framebuffer, or invalid when an attachment is invalid,
	//     not a render target, or the attachment count exceeds Caps().MaxFBAttachments
	CreateFrameBuffer(attachments []TextureHandle, destroyTextures bool) FrameBufferHandle
	DestroyFrameBuffer(h FrameBufferHandle)

	// FrameBufferTexture returns the texture at attachment index i, or invalid.
	FrameBufferTexture(h FrameBufferHandle, i int) TextureHandle

	SetViewName(view ViewID, name string)
	SetViewClear(view ViewID, flags ClearFlags, rgba uint32, depth float32)
	SetViewRect(view ViewID, x, y, width, height int)
	// SetViewRectRatio sizes the view rect relative to the backbuffer and keeps it in sync on Reset.
	SetViewRectRatio(view ViewID, x, y int, ratio BackbufferRatio)
	// SetViewFrameBuffer selects the view target. The invalid handle selects the backbuffer.
	SetViewFrameBuffer(view ViewID, fb FrameBufferHandle)
	SetViewTransform(view ViewID, viewMtx, projMtx [16]float32)
	// Touch makes the view execute this frame even without draws, so its clear happens.
	Touch(view ViewID)
	// Blit copies src into dst at the start of the view, before any dispatch or draw.
	Blit(view ViewID, dst, src TextureHandle)

	SetTransform(mtx [16]float32)
	// SetUniform sets uniform values for the next draw. len(values) must cover num*slots*4 floats.
	SetUniform(h UniformHandle, values []float32)
	// SetTexture binds tex at stage for the next draw. sampler names the stage.
	SetTexture(stage uint8, sampler UniformHandle, tex TextureHandle)
	// SetBuffer binds a dynamic buffer at stage for the next draw or dispatch.
	SetBuffer(stage uint8, buf DynamicBufferHandle, access Access)
	SetVertexBuffer(h VertexBufferHandle)
	SetIndexBuffer(h IndexBufferHandle)
	SetState(state pipeline.State)

	// Submit records a draw of the current per-draw state into view.
	// Without a vertex buffer a single full screen triangle is drawn.
	Submit(view ViewID, program ProgramHandle)

	// Dispatch records a compute dispatch into view.
	Dispatch(view ViewID, program ProgramHandle, x, y, z uint32)
}

// PackRGBA packs normalized color components into the 0xRRGGBBAA form taken by SetViewClear.
func PackRGBA(r, g, b, a float32) uint32 {
	c := func(v float32) uint32 {
		return uint32(min(max(v, 0), 1)*255 + 0.5)
	}
	return c(r)<<24 | c(g)<<16 | c(b)<<8 | c(a)
}

// UnpackRGBA is the inverse of PackRGBA.
func UnpackRGBA(rgba uint32) [4]float32 {
	return [4]float32{
		float32(rgba>>24&0xff) / 255,
		float32(rgba>>16&0xff) / 255,
		float32(rgba>>8&0xff) / 255,
		float32(rgba&0xff) / 255,
	}
}
