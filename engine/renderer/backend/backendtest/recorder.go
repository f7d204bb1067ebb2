// Package backendtest provides a CPU-only backend.Backend that records every call, for
// testing renderers without a GPU.
package backendtest

import (
	"fmt"
	"maps"
	"slices"

	"github.com/Carmen-Shannon/oxy-lighting/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-lighting/engine/renderer/pipeline"
)

// Resource names a kind of backend resource.
type Resource string

const (
	ResourceShader        Resource = "shader"
	ResourceProgram       Resource = "program"
	ResourceUniform       Resource = "uniform"
	ResourceTexture       Resource = "texture"
	ResourceFrameBuffer   Resource = "framebuffer"
	ResourceVertexBuffer  Resource = "vertexbuffer"
	ResourceIndexBuffer   Resource = "indexbuffer"
	ResourceDynamicBuffer Resource = "dynamicbuffer"
)

// BufferBinding is a storage buffer bound to a stage.
type BufferBinding struct {
	Buffer backend.DynamicBufferHandle
	Access backend.Access
}

// TextureBinding is a texture bound to a stage.
type TextureBinding struct {
	Sampler backend.UniformHandle
	Texture backend.TextureHandle
}

// DrawCall is one recorded Submit.
type DrawCall struct {
	View         backend.ViewID
	Program      backend.ProgramHandle
	State        pipeline.State
	Transform    [16]float32
	HasTransform bool
	VertexBuffer backend.VertexBufferHandle
	IndexBuffer  backend.IndexBufferHandle
	Textures     map[uint8]TextureBinding
	Buffers      map[uint8]BufferBinding
	Uniforms     map[string][]float32
}

// Uniform returns the values set for the named uniform, or nil.
func (d DrawCall) Uniform(name string) []float32 {
	return d.Uniforms[name]
}

// DispatchCall is one recorded Dispatch.
type DispatchCall struct {
	View     backend.ViewID
	Program  backend.ProgramHandle
	X, Y, Z  uint32
	Buffers  map[uint8]BufferBinding
	Uniforms map[string][]float32
}

// BlitCall is one recorded Blit.
type BlitCall struct {
	View     backend.ViewID
	Dst, Src backend.TextureHandle
}

// ViewState is the persistent configuration of a view.
type ViewState struct {
	Name        string
	Clear       backend.ClearFlags
	ClearRGBA   uint32
	ClearDepth  float32
	Rect        [4]int
	Ratio       backend.BackbufferRatio
	FrameBuffer backend.FrameBufferHandle
	ViewMtx     [16]float32
	ProjMtx     [16]float32
}

// Event is one resource creation or destruction.
type Event struct {
	Destroy  bool
	Resource Resource
	Handle   uint16
	Name     string
}

type liveEntry struct {
	name string
	refs int
}

type uniformInfo struct {
	name string
	typ  backend.UniformType
	num  int
}

type programInfo struct {
	compute        bool
	shaders        []backend.ShaderHandle
	destroyShaders bool
}

type frameBufferInfo struct {
	attachments     []backend.TextureHandle
	destroyTextures bool
}

type pendingDraw struct {
	transform    [16]float32
	hasTransform bool
	state        pipeline.State
	vb           backend.VertexBufferHandle
	ib           backend.IndexBufferHandle
	textures     map[uint8]TextureBinding
	buffers      map[uint8]BufferBinding
	uniforms     map[string][]float32
}

// Recorder is a backend.Backend that executes nothing and records everything.
// The exported call slices hold the commands recorded since the last Frame.
// Like the real backend, draws and dispatches with the invalid program handle are discarded.
type Recorder struct {
	caps          backend.Caps
	width, height int
	frames        uint32
	resets        int

	views   [backend.MaxViews]ViewState
	touched map[backend.ViewID]bool

	Draws      []DrawCall
	Dispatches []DispatchCall
	Blits      []BlitCall
	Events     []Event
	// Errors collects misuse: double destroys, invalid handles passed to Set*, and so on.
	Errors []string

	alloc        map[Resource]*backend.HandleAllocator
	live         map[Resource]map[uint16]*liveEntry
	fail         map[Resource]bool
	attempts     map[Resource]int
	uniforms     map[uint16]uniformInfo
	uniformNames map[string]uint16
	programs     map[uint16]programInfo
	textures     map[uint16]backend.TextureDesc
	frameBuffers map[uint16]frameBufferInfo

	pending pendingDraw
}

var _ backend.Backend = &Recorder{}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithCaps replaces the default full capability set.
func WithCaps(c backend.Caps) RecorderOption {
	return func(r *Recorder) {
		r.caps = c
	}
}

// WithFailure makes every Create call for resource return the invalid handle.
func WithFailure(resource Resource) RecorderOption {
	return func(r *Recorder) {
		r.fail[resource] = true
	}
}

// NewRecorder creates a Recorder with full caps and a 1280x720 backbuffer.
func NewRecorder(opts ...RecorderOption) *Recorder {
	r := &Recorder{
		caps:         backend.FullCaps(),
		width:        1280,
		height:       720,
		touched:      make(map[backend.ViewID]bool),
		alloc:        make(map[Resource]*backend.HandleAllocator),
		live:         make(map[Resource]map[uint16]*liveEntry),
		fail:         make(map[Resource]bool),
		attempts:     make(map[Resource]int),
		uniforms:     make(map[uint16]uniformInfo),
		uniformNames: make(map[string]uint16),
		programs:     make(map[uint16]programInfo),
		textures:     make(map[uint16]backend.TextureDesc),
		frameBuffers: make(map[uint16]frameBufferInfo),
	}
	for i := range r.views {
		r.views[i].FrameBuffer = backend.Invalid[backend.FrameBufferHandle]()
	}
	for _, opt := range opts {
		opt(r)
	}
	r.resetPending()
	return r
}

// SetFailure toggles creation failure for resource after construction.
func (r *Recorder) SetFailure(resource Resource, fail bool) {
	r.fail[resource] = fail
}

// Live returns the number of live resources of a kind.
func (r *Recorder) Live(resource Resource) int {
	return len(r.live[resource])
}

// LiveTotal returns the number of live resources of every kind.
func (r *Recorder) LiveTotal() int {
	n := 0
	for _, m := range r.live {
		n += len(m)
	}
	return n
}

// IsLive reports whether handle h of the given kind has been created and not destroyed.
func (r *Recorder) IsLive(resource Resource, h uint16) bool {
	_, ok := r.live[resource][h]
	return ok
}

// Attempts returns how many times a resource of a kind was requested, failed requests included.
func (r *Recorder) Attempts(resource Resource) int {
	return r.attempts[resource]
}

// Created returns the creation events of a kind, in order.
func (r *Recorder) Created(resource Resource) []Event {
	var out []Event
	for _, e := range r.Events {
		if !e.Destroy && e.Resource == resource {
			out = append(out, e)
		}
	}
	return out
}

// View returns the persistent configuration of a view.
func (r *Recorder) View(v backend.ViewID) ViewState {
	return r.views[v]
}

// Touched reports whether the view was touched since the last Frame.
func (r *Recorder) Touched(v backend.ViewID) bool {
	return r.touched[v]
}

// DrawsIn returns the draws recorded into a view since the last Frame.
func (r *Recorder) DrawsIn(v backend.ViewID) []DrawCall {
	var out []DrawCall
	for _, d := range r.Draws {
		if d.View == v {
			out = append(out, d)
		}
	}
	return out
}

// DispatchesIn returns the dispatches recorded into a view since the last Frame.
func (r *Recorder) DispatchesIn(v backend.ViewID) []DispatchCall {
	var out []DispatchCall
	for _, d := range r.Dispatches {
		if d.View == v {
			out = append(out, d)
		}
	}
	return out
}

// TextureDesc returns the descriptor a texture was created with.
func (r *Recorder) TextureDesc(h backend.TextureHandle) (backend.TextureDesc, bool) {
	d, ok := r.textures[uint16(h)]
	return d, ok
}

// UniformName returns the name a uniform was created with.
func (r *Recorder) UniformName(h backend.UniformHandle) string {
	return r.uniforms[uint16(h)].name
}

// Size returns the backbuffer size set by the last Reset.
func (r *Recorder) Size() (int, int) {
	return r.width, r.height
}

// Resets returns how many times Reset was called.
func (r *Recorder) Resets() int {
	return r.resets
}

func (r *Recorder) Name() string { return "Recorder" }

func (r *Recorder) Caps() backend.Caps { return r.caps }

func (r *Recorder) Reset(width, height int) {
	r.width, r.height = width, height
	r.resets++
}

func (r *Recorder) Frame() uint32 {
	r.Draws = nil
	r.Dispatches = nil
	r.Blits = nil
	clear(r.touched)
	r.resetPending()
	r.frames++
	return r.frames
}

func (r *Recorder) Shutdown() {
	for kind, m := range r.live {
		for h := range m {
			r.errorf("leaked %s %d at shutdown", kind, h)
		}
	}
}

func (r *Recorder) create(kind Resource, name string) (uint16, bool) {
	r.attempts[kind]++
	if r.fail[kind] {
		return backend.InvalidHandle, false
	}
	a, ok := r.alloc[kind]
	if !ok {
		a = &backend.HandleAllocator{}
		r.alloc[kind] = a
	}
	h, ok := a.Alloc()
	if !ok {
		return backend.InvalidHandle, false
	}
	if r.live[kind] == nil {
		r.live[kind] = make(map[uint16]*liveEntry)
	}
	r.live[kind][h] = &liveEntry{name: name, refs: 1}
	r.Events = append(r.Events, Event{Resource: kind, Handle: h, Name: name})
	return h, true
}

func (r *Recorder) destroy(kind Resource, h uint16) bool {
	e, ok := r.live[kind][h]
	if !ok {
		r.errorf("destroy of dead or invalid %s %d", kind, h)
		return false
	}
	e.refs--
	if e.refs > 0 {
		return false
	}
	delete(r.live[kind], h)
	r.alloc[kind].Free(h)
	r.Events = append(r.Events, Event{Destroy: true, Resource: kind, Handle: h, Name: e.name})
	return true
}

func (r *Recorder) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Recorder) CreateShader(source string, stage backend.ShaderStage, name string) backend.ShaderHandle {
	if source == "" {
		return backend.Invalid[backend.ShaderHandle]()
	}
	h, _ := r.create(ResourceShader, name)
	return backend.ShaderHandle(h)
}

func (r *Recorder) DestroyShader(h backend.ShaderHandle) {
	r.destroy(ResourceShader, uint16(h))
}

func (r *Recorder) CreateProgram(vs, fs backend.ShaderHandle, destroyShaders bool) backend.ProgramHandle {
	if !r.IsLive(ResourceShader, uint16(vs)) || !r.IsLive(ResourceShader, uint16(fs)) {
		return backend.Invalid[backend.ProgramHandle]()
	}
	h, ok := r.create(ResourceProgram, "")
	if ok {
		r.programs[h] = programInfo{shaders: []backend.ShaderHandle{vs, fs}, destroyShaders: destroyShaders}
	}
	return backend.ProgramHandle(h)
}

func (r *Recorder) CreateComputeProgram(cs backend.ShaderHandle, destroyShader bool) backend.ProgramHandle {
	if !r.IsLive(ResourceShader, uint16(cs)) {
		return backend.Invalid[backend.ProgramHandle]()
	}
	h, ok := r.create(ResourceProgram, "")
	if ok {
		r.programs[h] = programInfo{compute: true, shaders: []backend.ShaderHandle{cs}, destroyShaders: destroyShader}
	}
	return backend.ProgramHandle(h)
}

// IsCompute reports whether p was created by CreateComputeProgram.
func (r *Recorder) IsCompute(p backend.ProgramHandle) bool {
	return r.programs[uint16(p)].compute
}

func (r *Recorder) DestroyProgram(h backend.ProgramHandle) {
	info := r.programs[uint16(h)]
	if !r.destroy(ResourceProgram, uint16(h)) {
		return
	}
	delete(r.programs, uint16(h))
	if info.destroyShaders {
		for _, s := range info.shaders {
			r.DestroyShader(s)
		}
	}
}

func (r *Recorder) CreateUniform(name string, typ backend.UniformType, num int) backend.UniformHandle {
	if h, ok := r.uniformNames[name]; ok {
		r.live[ResourceUniform][h].refs++
		return backend.UniformHandle(h)
	}
	h, ok := r.create(ResourceUniform, name)
	if ok {
		r.uniforms[h] = uniformInfo{name: name, typ: typ, num: max(num, 1)}
		r.uniformNames[name] = h
	}
	return backend.UniformHandle(h)
}

func (r *Recorder) DestroyUniform(h backend.UniformHandle) {
	info := r.uniforms[uint16(h)]
	if r.destroy(ResourceUniform, uint16(h)) {
		delete(r.uniforms, uint16(h))
		delete(r.uniformNames, info.name)
	}
}

func (r *Recorder) CreateVertexBuffer(data []byte, layout backend.VertexLayout, name string) backend.VertexBufferHandle {
	if len(data) == 0 || layout.Stride() == 0 {
		return backend.Invalid[backend.VertexBufferHandle]()
	}
	h, _ := r.create(ResourceVertexBuffer, name)
	return backend.VertexBufferHandle(h)
}

func (r *Recorder) DestroyVertexBuffer(h backend.VertexBufferHandle) {
	r.destroy(ResourceVertexBuffer, uint16(h))
}

func (r *Recorder) CreateIndexBuffer(data []byte, index32 bool, name string) backend.IndexBufferHandle {
	if len(data) == 0 || (index32 && !r.caps.Has(backend.CapsIndex32)) {
		return backend.Invalid[backend.IndexBufferHandle]()
	}
	h, _ := r.create(ResourceIndexBuffer, name)
	return backend.IndexBufferHandle(h)
}

func (r *Recorder) DestroyIndexBuffer(h backend.IndexBufferHandle) {
	r.destroy(ResourceIndexBuffer, uint16(h))
}

func (r *Recorder) CreateDynamicBuffer(size int, flags backend.BufferFlags, name string) backend.DynamicBufferHandle {
	if size <= 0 {
		return backend.Invalid[backend.DynamicBufferHandle]()
	}
	h, _ := r.create(ResourceDynamicBuffer, name)
	return backend.DynamicBufferHandle(h)
}

func (r *Recorder) UpdateDynamicBuffer(h backend.DynamicBufferHandle, offset int, data []byte) {
	if !r.IsLive(ResourceDynamicBuffer, uint16(h)) {
		r.errorf("update of dead dynamic buffer %d", h)
	}
}

func (r *Recorder) DestroyDynamicBuffer(h backend.DynamicBufferHandle) {
	r.destroy(ResourceDynamicBuffer, uint16(h))
}

func (r *Recorder) CreateTexture2D(desc backend.TextureDesc) backend.TextureHandle {
	if desc.Ratio == backend.RatioNone && (desc.Width <= 0 || desc.Height <= 0) {
		return backend.Invalid[backend.TextureHandle]()
	}
	if desc.Flags&backend.TextureRenderTarget != 0 &&
		!r.caps.FormatSupported(desc.Format, backend.FormatSupportFrameBuffer) {
		return backend.Invalid[backend.TextureHandle]()
	}
	h, ok := r.create(ResourceTexture, desc.Name)
	if ok {
		r.textures[h] = desc
	}
	return backend.TextureHandle(h)
}

func (r *Recorder) DestroyTexture(h backend.TextureHandle) {
	if r.destroy(ResourceTexture, uint16(h)) {
		delete(r.textures, uint16(h))
	}
}

func (r *Recorder) CreateFrameBuffer(attachments []backend.TextureHandle, destroyTextures bool) backend.FrameBufferHandle {
	if len(attachments) == 0 || len(attachments) > r.caps.MaxFBAttachments {
		return backend.Invalid[backend.FrameBufferHandle]()
	}
	for _, t := range attachments {
		desc, ok := r.textures[uint16(t)]
		if !ok || desc.Flags&backend.TextureRenderTarget == 0 {
			return backend.Invalid[backend.FrameBufferHandle]()
		}
	}
	h, ok := r.create(ResourceFrameBuffer, "")
	if ok {
		r.frameBuffers[h] = frameBufferInfo{attachments: slices.Clone(attachments), destroyTextures: destroyTextures}
	}
	return backend.FrameBufferHandle(h)
}

func (r *Recorder) DestroyFrameBuffer(h backend.FrameBufferHandle) {
	info := r.frameBuffers[uint16(h)]
	if !r.destroy(ResourceFrameBuffer, uint16(h)) {
		return
	}
	delete(r.frameBuffers, uint16(h))
	if info.destroyTextures {
		for _, t := range info.attachments {
			r.DestroyTexture(t)
		}
	}
}

func (r *Recorder) FrameBufferTexture(h backend.FrameBufferHandle, i int) backend.TextureHandle {
	info, ok := r.frameBuffers[uint16(h)]
	if !ok || i < 0 || i >= len(info.attachments) {
		return backend.Invalid[backend.TextureHandle]()
	}
	return info.attachments[i]
}

func (r *Recorder) SetViewName(view backend.ViewID, name string) {
	r.views[view].Name = name
}

func (r *Recorder) SetViewClear(view backend.ViewID, flags backend.ClearFlags, rgba uint32, depth float32) {
	r.views[view].Clear = flags
	r.views[view].ClearRGBA = rgba
	r.views[view].ClearDepth = depth
}

func (r *Recorder) SetViewRect(view backend.ViewID, x, y, width, height int) {
	r.views[view].Rect = [4]int{x, y, width, height}
	r.views[view].Ratio = backend.RatioNone
}

func (r *Recorder) SetViewRectRatio(view backend.ViewID, x, y int, ratio backend.BackbufferRatio) {
	r.views[view].Rect = [4]int{x, y, ratio.Apply(r.width), ratio.Apply(r.height)}
	r.views[view].Ratio = ratio
}

func (r *Recorder) SetViewFrameBuffer(view backend.ViewID, fb backend.FrameBufferHandle) {
	r.views[view].FrameBuffer = fb
}

func (r *Recorder) SetViewTransform(view backend.ViewID, viewMtx, projMtx [16]float32) {
	r.views[view].ViewMtx = viewMtx
	r.views[view].ProjMtx = projMtx
}

func (r *Recorder) Touch(view backend.ViewID) {
	r.touched[view] = true
}

func (r *Recorder) Blit(view backend.ViewID, dst, src backend.TextureHandle) {
	if !r.IsLive(ResourceTexture, uint16(dst)) || !r.IsLive(ResourceTexture, uint16(src)) {
		r.errorf("blit with invalid texture in view %d", view)
		return
	}
	if !r.caps.Has(backend.CapsTextureBlit) {
		r.errorf("blit without texture blit support in view %d", view)
		return
	}
	r.Blits = append(r.Blits, BlitCall{View: view, Dst: dst, Src: src})
}

func (r *Recorder) SetTransform(mtx [16]float32) {
	r.pending.transform = mtx
	r.pending.hasTransform = true
}

func (r *Recorder) SetUniform(h backend.UniformHandle, values []float32) {
	info, ok := r.uniforms[uint16(h)]
	if !ok {
		r.errorf("set of unknown uniform %d", h)
		return
	}
	r.pending.uniforms[info.name] = slices.Clone(values)
}

func (r *Recorder) SetTexture(stage uint8, sampler backend.UniformHandle, tex backend.TextureHandle) {
	if stage >= backend.MaxTextureStages {
		r.errorf("texture stage %d out of range", stage)
		return
	}
	r.pending.textures[stage] = TextureBinding{Sampler: sampler, Texture: tex}
}

func (r *Recorder) SetBuffer(stage uint8, buf backend.DynamicBufferHandle, access backend.Access) {
	if stage >= backend.MaxBufferStages {
		r.errorf("buffer stage %d out of range", stage)
		return
	}
	r.pending.buffers[stage] = BufferBinding{Buffer: buf, Access: access}
}

func (r *Recorder) SetVertexBuffer(h backend.VertexBufferHandle) {
	r.pending.vb = h
}

func (r *Recorder) SetIndexBuffer(h backend.IndexBufferHandle) {
	r.pending.ib = h
}

func (r *Recorder) SetState(state pipeline.State) {
	r.pending.state = state
}

func (r *Recorder) Submit(view backend.ViewID, program backend.ProgramHandle) {
	defer r.resetPending()
	if !program.Valid() {
		return
	}
	if !r.IsLive(ResourceProgram, uint16(program)) || r.IsCompute(program) {
		r.errorf("submit with invalid program %d in view %d", program, view)
		return
	}
	p := r.pending
	r.Draws = append(r.Draws, DrawCall{
		View:         view,
		Program:      program,
		State:        p.state,
		Transform:    p.transform,
		HasTransform: p.hasTransform,
		VertexBuffer: p.vb,
		IndexBuffer:  p.ib,
		Textures:     p.textures,
		Buffers:      p.buffers,
		Uniforms:     p.uniforms,
	})
}

func (r *Recorder) Dispatch(view backend.ViewID, program backend.ProgramHandle, x, y, z uint32) {
	defer r.resetPending()
	if !program.Valid() {
		return
	}
	if !r.IsLive(ResourceProgram, uint16(program)) || !r.IsCompute(program) {
		r.errorf("dispatch with invalid program %d in view %d", program, view)
		return
	}
	if !r.caps.Has(backend.CapsCompute) {
		r.errorf("dispatch without compute support in view %d", view)
		return
	}
	r.Dispatches = append(r.Dispatches, DispatchCall{
		View:     view,
		Program:  program,
		X:        x,
		Y:        y,
		Z:        z,
		Buffers:  maps.Clone(r.pending.buffers),
		Uniforms: maps.Clone(r.pending.uniforms),
	})
}

func (r *Recorder) resetPending() {
	r.pending = pendingDraw{
		state:    pipeline.StateDefault,
		vb:       backend.Invalid[backend.VertexBufferHandle](),
		ib:       backend.Invalid[backend.IndexBufferHandle](),
		textures: make(map[uint8]TextureBinding),
		buffers:  make(map[uint8]BufferBinding),
		uniforms: make(map[string][]float32),
	}
}
