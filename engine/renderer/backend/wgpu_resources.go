package backend

import (
	"fmt"
	"sort"

	"github.com/Carmen-Shannon/oxy-lighting/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-lighting/internal/logging"
	"github.com/cogentcore/webgpu/wgpu"
)

// pool maps handle values to backend objects.
type pool[T any] struct {
	alloc HandleAllocator
	items map[uint16]*T
}

func (p *pool[T]) add(v *T) uint16 {
	h, ok := p.alloc.Alloc()
	if !ok {
		return InvalidHandle
	}
	if p.items == nil {
		p.items = make(map[uint16]*T)
	}
	p.items[h] = v
	return h
}

func (p *pool[T]) get(h uint16) *T {
	return p.items[h]
}

func (p *pool[T]) remove(h uint16) *T {
	v, ok := p.items[h]
	if !ok {
		return nil
	}
	delete(p.items, h)
	p.alloc.Free(h)
	return v
}

type wgpuShader struct {
	name      string
	stage     ShaderStage
	module    *wgpu.ShaderModule
	entry     string
	bindings  []reflectedBinding
	workgroup [3]uint32
}

// textureStage is a texture stage a program samples.
type textureStage struct {
	stage uint8
	depth bool
}

type wgpuProgram struct {
	vs, fs, cs     ShaderHandle
	compute        bool
	destroyShaders bool

	groupLayouts [groupCount]*wgpu.BindGroupLayout
	layout       *wgpu.PipelineLayout
	emptyGroups  [groupCount]*wgpu.BindGroup

	textures  []textureStage
	buffers   []reflectedBinding
	pipelines map[pipeline.Key]pipeline.Pipeline
}

type wgpuUniform struct {
	name string
	typ  UniformType
	num  int
	slot int
	refs int
}

type wgpuTexture struct {
	desc    TextureDesc
	width   int
	height  int
	texture *wgpu.Texture
	view    *wgpu.TextureView
}

func (t *wgpuTexture) release() {
	if t == nil || t.texture == nil {
		return
	}
	t.view.Release()
	t.texture.Release()
	t.view = nil
	t.texture = nil
}

type wgpuFrameBuffer struct {
	attachments     []TextureHandle
	destroyTextures bool
}

type wgpuVertexBuffer struct {
	buffer *wgpu.Buffer
	layout VertexLayout
	count  uint32
}

type wgpuIndexBuffer struct {
	buffer  *wgpu.Buffer
	index32 bool
	count   uint32
}

type wgpuDynamicBuffer struct {
	buffer *wgpu.Buffer
	size   int
	flags  BufferFlags
}

// textureFormats maps backend formats to WebGPU formats.
var textureFormats = [textureFormatCount]wgpu.TextureFormat{
	TextureFormatUnknown: wgpu.TextureFormatUndefined,
	TextureFormatRGBA8:   wgpu.TextureFormatRGBA8Unorm,
	TextureFormatBGRA8:   wgpu.TextureFormatBGRA8Unorm,
	TextureFormatRGB10A2: wgpu.TextureFormatRGB10A2Unorm,
	TextureFormatRGBA16F: wgpu.TextureFormatRGBA16Float,
	TextureFormatRGBA32F: wgpu.TextureFormatRGBA32Float,
	TextureFormatR32F:    wgpu.TextureFormatR32Float,
	TextureFormatD24S8:   wgpu.TextureFormatDepth24PlusStencil8,
	TextureFormatD32F:    wgpu.TextureFormatDepth32Float,
}

// texelSize is the size in bytes of one texel, 0 for formats without CPU uploads.
var texelSize = [textureFormatCount]int{
	TextureFormatRGBA8:   4,
	TextureFormatBGRA8:   4,
	TextureFormatRGB10A2: 4,
	TextureFormatRGBA16F: 8,
	TextureFormatRGBA32F: 16,
	TextureFormatR32F:    4,
	TextureFormatD32F:    4,
}

// vertexFormats maps a float attribute component count to its vertex format.
var vertexFormats = [5]wgpu.VertexFormat{
	1: wgpu.VertexFormatFloat32,
	2: wgpu.VertexFormatFloat32x2,
	3: wgpu.VertexFormatFloat32x3,
	4: wgpu.VertexFormatFloat32x4,
}

// align4 pads data to a multiple of four bytes, as buffer writes require.
func align4(data []byte) []byte {
	if rem := len(data) % 4; rem != 0 {
		return append(append([]byte(nil), data...), make([]byte, 4-rem)...)
	}
	return data
}

func (w *wgpuBackend) CreateShader(source string, stage ShaderStage, name string) ShaderHandle {
	w.mu.Lock()
	defer w.mu.Unlock()

	entry := reflectEntryPoint(source, stage)
	if entry == "" {
		logging.Logger().Error("shader has no entry point", "name", name, "stage", stage)
		return Invalid[ShaderHandle]()
	}

	slots := make([]uniformSlot, 0, len(w.uniforms.items))
	for _, u := range w.uniforms.items {
		if u.typ != UniformSampler {
			slots = append(slots, uniformSlot{name: u.name, slot: u.slot})
		}
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].slot < slots[j].slot })

	module, err := w.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: name,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: buildPrelude(slots) + source,
		},
	})
	if err != nil {
		logging.Logger().Error("failed to compile shader", "name", name, "error", err)
		return Invalid[ShaderHandle]()
	}

	s := &wgpuShader{
		name:     name,
		stage:    stage,
		module:   module,
		entry:    entry,
		bindings: reflectBindings(source),
	}
	if stage == ShaderStageCompute {
		s.workgroup = reflectWorkgroupSize(source)
	}
	h := w.shaders.add(s)
	if h == InvalidHandle {
		module.Release()
		logging.Logger().Error("shader handles exhausted", "name", name)
	}
	return ShaderHandle(h)
}

func (w *wgpuBackend) DestroyShader(h ShaderHandle) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.destroyShader(h)
}

func (w *wgpuBackend) destroyShader(h ShaderHandle) {
	if s := w.shaders.remove(uint16(h)); s != nil {
		s.module.Release()
	}
}

func (w *wgpuBackend) CreateProgram(vs, fs ShaderHandle, destroyShaders bool) ProgramHandle {
	w.mu.Lock()
	defer w.mu.Unlock()

	v, f := w.shaders.get(uint16(vs)), w.shaders.get(uint16(fs))
	if v == nil || f == nil || v.stage != ShaderStageVertex || f.stage != ShaderStageFragment {
		logging.Logger().Error("invalid shaders for render program", "vs", vs, "fs", fs)
		return Invalid[ProgramHandle]()
	}

	p := &wgpuProgram{vs: vs, fs: fs, cs: Invalid[ShaderHandle](), destroyShaders: destroyShaders}
	stages := []struct {
		shader     *wgpuShader
		visibility wgpu.ShaderStage
	}{
		{v, wgpu.ShaderStageVertex},
		{f, wgpu.ShaderStageFragment},
	}
	bindings := make(map[[2]int]reflectedBinding)
	visibility := make(map[[2]int]wgpu.ShaderStage)
	for _, st := range stages {
		for _, b := range st.shader.bindings {
			k := [2]int{b.group, b.binding}
			bindings[k] = b
			visibility[k] |= st.visibility
		}
	}
	if err := w.buildProgramLayout(p, bindings, visibility, v.name+"+"+f.name); err != nil {
		logging.Logger().Error("failed to create program layout", "vs", v.name, "fs", f.name, "error", err)
		return Invalid[ProgramHandle]()
	}
	return w.addProgram(p)
}

func (w *wgpuBackend) CreateComputeProgram(cs ShaderHandle, destroyShader bool) ProgramHandle {
	w.mu.Lock()
	defer w.mu.Unlock()

	c := w.shaders.get(uint16(cs))
	if c == nil || c.stage != ShaderStageCompute {
		logging.Logger().Error("invalid shader for compute program", "cs", cs)
		return Invalid[ProgramHandle]()
	}

	p := &wgpuProgram{vs: Invalid[ShaderHandle](), fs: Invalid[ShaderHandle](), cs: cs, compute: true, destroyShaders: destroyShader}
	bindings := make(map[[2]int]reflectedBinding)
	visibility := make(map[[2]int]wgpu.ShaderStage)
	for _, b := range c.bindings {
		k := [2]int{b.group, b.binding}
		bindings[k] = b
		visibility[k] = wgpu.ShaderStageCompute
	}
	if err := w.buildProgramLayout(p, bindings, visibility, c.name); err != nil {
		logging.Logger().Error("failed to create program layout", "cs", c.name, "error", err)
		return Invalid[ProgramHandle]()
	}
	return w.addProgram(p)
}

func (w *wgpuBackend) addProgram(p *wgpuProgram) ProgramHandle {
	p.pipelines = make(map[pipeline.Key]pipeline.Pipeline)
	h := w.programs.add(p)
	if h == InvalidHandle {
		w.releaseProgram(p)
		logging.Logger().Error("program handles exhausted")
	}
	return ProgramHandle(h)
}

// buildProgramLayout creates the group 1 and 2 layouts of a program from its reflected
// bindings, and an empty bind group for every group the program declares nothing in.
func (w *wgpuBackend) buildProgramLayout(p *wgpuProgram, bindings map[[2]int]reflectedBinding, visibility map[[2]int]wgpu.ShaderStage, label string) error {
	keys := make([][2]int, 0, len(bindings))
	for k := range bindings {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i][0] != keys[j][0] {
			return keys[i][0] < keys[j][0]
		}
		return keys[i][1] < keys[j][1]
	})

	var entries [groupCount][]wgpu.BindGroupLayoutEntry
	depthStages := make(map[int]bool)
	for _, k := range keys {
		b := bindings[k]
		if b.group >= groupCount {
			return fmt.Errorf("binding %s uses group %d, only groups 1 and 2 are available", b.name, b.group)
		}
		entry, err := b.layoutEntry(visibility[k])
		if err != nil {
			return err
		}
		switch b.group {
		case groupTextures:
			stage := b.binding / 2
			if stage >= MaxTextureStages {
				return fmt.Errorf("texture binding %s exceeds %d stages", b.name, MaxTextureStages)
			}
			if b.binding%2 == 0 {
				p.textures = append(p.textures, textureStage{stage: uint8(stage), depth: b.depth()})
				depthStages[stage] = b.depth()
			} else if depthStages[stage] {
				entry.Sampler.Type = wgpu.SamplerBindingTypeNonFiltering
			}
		case groupBuffers:
			if b.binding >= MaxBufferStages {
				return fmt.Errorf("buffer binding %s exceeds %d stages", b.name, MaxBufferStages)
			}
			p.buffers = append(p.buffers, b)
		}
		entries[b.group] = append(entries[b.group], entry)
	}

	frame := 0
	if p.compute {
		frame = 1
	}
	p.groupLayouts[groupFrame] = w.frameLayouts[frame]
	for g := groupTextures; g < groupCount; g++ {
		layout, err := w.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
			Label:   fmt.Sprintf("%s group %d", label, g),
			Entries: entries[g],
		})
		if err != nil {
			return fmt.Errorf("failed to create bind group layout for group %d: %w", g, err)
		}
		p.groupLayouts[g] = layout
		if len(entries[g]) == 0 {
			bg, err := w.device.CreateBindGroup(&wgpu.BindGroupDescriptor{Label: "empty", Layout: layout})
			if err != nil {
				return err
			}
			p.emptyGroups[g] = bg
		}
	}

	layout, err := w.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            label,
		BindGroupLayouts: p.groupLayouts[:],
	})
	if err != nil {
		return err
	}
	p.layout = layout
	return nil
}

func (w *wgpuBackend) DestroyProgram(h ProgramHandle) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.destroyProgram(h)
}

func (w *wgpuBackend) destroyProgram(h ProgramHandle) {
	p := w.programs.remove(uint16(h))
	if p == nil {
		return
	}
	w.releaseProgram(p)
	if p.destroyShaders {
		w.destroyShader(p.vs)
		w.destroyShader(p.fs)
		w.destroyShader(p.cs)
	}
}

func (w *wgpuBackend) releaseProgram(p *wgpuProgram) {
	for _, pl := range p.pipelines {
		pl.Release()
	}
	clear(p.pipelines)
	for g := groupTextures; g < groupCount; g++ {
		if p.emptyGroups[g] != nil {
			p.emptyGroups[g].Release()
		}
		if p.groupLayouts[g] != nil {
			p.groupLayouts[g].Release()
		}
	}
	if p.layout != nil {
		p.layout.Release()
	}
}

func (w *wgpuBackend) CreateUniform(name string, typ UniformType, num int) UniformHandle {
	w.mu.Lock()
	defer w.mu.Unlock()

	num = max(num, 1)
	if h, ok := w.uniformNames[name]; ok {
		u := w.uniforms.get(h)
		if u.typ != typ || u.num != num {
			logging.Logger().Warn("uniform redeclared with a different shape", "name", name)
		}
		u.refs++
		return UniformHandle(h)
	}

	slots := typ.Slots() * num
	if w.nextSlot+slots > MaxUniformSlots {
		logging.Logger().Error("uniform slots exhausted", "name", name, "used", w.nextSlot)
		return Invalid[UniformHandle]()
	}
	u := &wgpuUniform{name: name, typ: typ, num: num, slot: w.nextSlot, refs: 1}
	h := w.uniforms.add(u)
	if h == InvalidHandle {
		return Invalid[UniformHandle]()
	}
	w.nextSlot += slots
	w.uniformNames[name] = h
	return UniformHandle(h)
}

func (w *wgpuBackend) DestroyUniform(h UniformHandle) {
	w.mu.Lock()
	defer w.mu.Unlock()

	u := w.uniforms.get(uint16(h))
	if u == nil {
		return
	}
	u.refs--
	if u.refs > 0 {
		return
	}
	w.uniforms.remove(uint16(h))
	delete(w.uniformNames, u.name)
	// Slots are bump allocated and only recycled once every uniform is gone.
	if len(w.uniforms.items) == 0 {
		w.nextSlot = 0
	}
}

func (w *wgpuBackend) CreateVertexBuffer(data []byte, layout VertexLayout, name string) VertexBufferHandle {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(data) == 0 || layout.Stride() == 0 {
		logging.Logger().Error("empty vertex buffer", "name", name)
		return Invalid[VertexBufferHandle]()
	}
	buf, err := w.createBuffer(name, align4(data), wgpu.BufferUsageVertex)
	if err != nil {
		logging.Logger().Error("failed to create vertex buffer", "name", name, "error", err)
		return Invalid[VertexBufferHandle]()
	}
	h := w.vertexBuffers.add(&wgpuVertexBuffer{buffer: buf, layout: layout, count: uint32(len(data)) / layout.Stride()})
	if h == InvalidHandle {
		buf.Release()
	}
	return VertexBufferHandle(h)
}

func (w *wgpuBackend) DestroyVertexBuffer(h VertexBufferHandle) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if vb := w.vertexBuffers.remove(uint16(h)); vb != nil {
		vb.buffer.Release()
	}
}

func (w *wgpuBackend) CreateIndexBuffer(data []byte, index32 bool, name string) IndexBufferHandle {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(data) == 0 {
		logging.Logger().Error("empty index buffer", "name", name)
		return Invalid[IndexBufferHandle]()
	}
	size := 2
	if index32 {
		size = 4
	}
	buf, err := w.createBuffer(name, align4(data), wgpu.BufferUsageIndex)
	if err != nil {
		logging.Logger().Error("failed to create index buffer", "name", name, "error", err)
		return Invalid[IndexBufferHandle]()
	}
	h := w.indexBuffers.add(&wgpuIndexBuffer{buffer: buf, index32: index32, count: uint32(len(data) / size)})
	if h == InvalidHandle {
		buf.Release()
	}
	return IndexBufferHandle(h)
}

func (w *wgpuBackend) DestroyIndexBuffer(h IndexBufferHandle) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if ib := w.indexBuffers.remove(uint16(h)); ib != nil {
		ib.buffer.Release()
	}
}

// createBuffer creates a buffer holding data.
func (w *wgpuBackend) createBuffer(label string, data []byte, usage wgpu.BufferUsage) (*wgpu.Buffer, error) {
	buf, err := w.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)),
		Usage: usage | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}
	w.queue.WriteBuffer(buf, 0, data)
	return buf, nil
}

func (w *wgpuBackend) CreateDynamicBuffer(size int, flags BufferFlags, name string) DynamicBufferHandle {
	w.mu.Lock()
	defer w.mu.Unlock()

	if size <= 0 {
		logging.Logger().Error("empty dynamic buffer", "name", name)
		return Invalid[DynamicBufferHandle]()
	}
	size = (size + 3) &^ 3
	buf, err := w.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: name,
		Size:  uint64(size),
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst | wgpu.BufferUsageCopySrc,
	})
	if err != nil {
		logging.Logger().Error("failed to create dynamic buffer", "name", name, "size", size, "error", err)
		return Invalid[DynamicBufferHandle]()
	}
	h := w.dynamicBuffers.add(&wgpuDynamicBuffer{buffer: buf, size: size, flags: flags})
	if h == InvalidHandle {
		buf.Release()
	}
	return DynamicBufferHandle(h)
}

func (w *wgpuBackend) UpdateDynamicBuffer(h DynamicBufferHandle, offset int, data []byte) {
	w.mu.Lock()
	defer w.mu.Unlock()

	db := w.dynamicBuffers.get(uint16(h))
	if db == nil || len(data) == 0 {
		return
	}
	data = align4(data)
	if offset < 0 || offset%4 != 0 || offset+len(data) > db.size {
		logging.Logger().Error("dynamic buffer update out of range", "offset", offset, "len", len(data), "size", db.size)
		return
	}
	w.queue.WriteBuffer(db.buffer, uint64(offset), data)
}

func (w *wgpuBackend) DestroyDynamicBuffer(h DynamicBufferHandle) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if db := w.dynamicBuffers.remove(uint16(h)); db != nil {
		db.buffer.Release()
	}
}

func (w *wgpuBackend) CreateTexture2D(desc TextureDesc) TextureHandle {
	w.mu.Lock()
	defer w.mu.Unlock()

	if desc.Format == TextureFormatUnknown || desc.Format >= textureFormatCount {
		logging.Logger().Error("unknown texture format", "name", desc.Name)
		return Invalid[TextureHandle]()
	}
	if desc.Flags&TextureRenderTarget != 0 && !w.caps.FormatSupported(desc.Format, FormatSupportFrameBuffer) {
		logging.Logger().Error("format cannot be a render target", "name", desc.Name, "format", desc.Format)
		return Invalid[TextureHandle]()
	}
	data := desc.Data
	desc.Data = nil

	t := &wgpuTexture{desc: desc}
	if err := w.createGPUTexture(t, data); err != nil {
		logging.Logger().Error("failed to create texture", "name", desc.Name, "error", err)
		return Invalid[TextureHandle]()
	}
	h := w.textures.add(t)
	if h == InvalidHandle {
		t.release()
	}
	return TextureHandle(h)
}

// createGPUTexture creates the GPU texture of t at its current size and uploads data.
func (w *wgpuBackend) createGPUTexture(t *wgpuTexture, data []byte) error {
	t.width, t.height = t.desc.Width, t.desc.Height
	if t.desc.Ratio != RatioNone {
		t.width, t.height = t.desc.Ratio.Apply(w.width), t.desc.Ratio.Apply(w.height)
	}
	if t.width <= 0 || t.height <= 0 {
		return fmt.Errorf("invalid texture size %dx%d", t.width, t.height)
	}

	usage := wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst
	if t.desc.Flags&TextureRenderTarget != 0 {
		usage |= wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageCopySrc
	}
	if t.desc.Flags&TextureBlitSrc != 0 {
		usage |= wgpu.TextureUsageCopySrc
	}

	tex, err := w.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: t.desc.Name,
		Size: wgpu.Extent3D{
			Width:              uint32(t.width),
			Height:             uint32(t.height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        textureFormats[t.desc.Format],
		Usage:         usage,
	})
	if err != nil {
		return err
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return err
	}
	t.texture, t.view = tex, view

	if texel := texelSize[t.desc.Format]; len(data) > 0 && texel > 0 {
		if len(data) < t.width*t.height*texel {
			return fmt.Errorf("texture data holds %d bytes, need %d", len(data), t.width*t.height*texel)
		}
		w.queue.WriteTexture(
			&wgpu.ImageCopyTexture{
				Texture:  tex,
				MipLevel: 0,
				Origin:   wgpu.Origin3D{},
				Aspect:   wgpu.TextureAspectAll,
			},
			data,
			&wgpu.TextureDataLayout{
				Offset:       0,
				BytesPerRow:  uint32(t.width * texel),
				RowsPerImage: uint32(t.height),
			},
			&wgpu.Extent3D{
				Width:              uint32(t.width),
				Height:             uint32(t.height),
				DepthOrArrayLayers: 1,
			},
		)
	}
	return nil
}

func (w *wgpuBackend) DestroyTexture(h TextureHandle) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.textures.remove(uint16(h)).release()
}

func (w *wgpuBackend) CreateFrameBuffer(attachments []TextureHandle, destroyTextures bool) FrameBufferHandle {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(attachments) == 0 || len(attachments) > w.caps.MaxFBAttachments {
		logging.Logger().Error("invalid framebuffer attachment count", "count", len(attachments))
		return Invalid[FrameBufferHandle]()
	}
	depth := 0
	for _, a := range attachments {
		t := w.textures.get(uint16(a))
		if t == nil || t.desc.Flags&TextureRenderTarget == 0 {
			logging.Logger().Error("framebuffer attachment is not a render target", "texture", a)
			return Invalid[FrameBufferHandle]()
		}
		if t.desc.Format.IsDepth() {
			depth++
		}
	}
	if depth > 1 {
		logging.Logger().Error("framebuffer has more than one depth attachment")
		return Invalid[FrameBufferHandle]()
	}
	h := w.frameBuffers.add(&wgpuFrameBuffer{
		attachments:     append([]TextureHandle(nil), attachments...),
		destroyTextures: destroyTextures,
	})
	return FrameBufferHandle(h)
}

func (w *wgpuBackend) DestroyFrameBuffer(h FrameBufferHandle) {
	w.mu.Lock()
	defer w.mu.Unlock()

	fb := w.frameBuffers.remove(uint16(h))
	if fb == nil || !fb.destroyTextures {
		return
	}
	for _, a := range fb.attachments {
		w.textures.remove(uint16(a)).release()
	}
}

func (w *wgpuBackend) FrameBufferTexture(h FrameBufferHandle, i int) TextureHandle {
	w.mu.Lock()
	defer w.mu.Unlock()

	fb := w.frameBuffers.get(uint16(h))
	if fb == nil || i < 0 || i >= len(fb.attachments) {
		return Invalid[TextureHandle]()
	}
	return fb.attachments[i]
}

// sampler returns the sampler for the addressing and filtering flags of a texture.
func (w *wgpuBackend) sampler(flags TextureFlags) *wgpu.Sampler {
	flags &= TextureSamplerPoint | TextureSamplerClamp
	if s, ok := w.samplers[flags]; ok {
		return s
	}

	address := wgpu.AddressModeRepeat
	if flags&TextureSamplerClamp != 0 {
		address = wgpu.AddressModeClampToEdge
	}
	filter := wgpu.FilterModeLinear
	if flags&TextureSamplerPoint != 0 {
		filter = wgpu.FilterModeNearest
	}
	s, err := w.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "sampler",
		AddressModeU:  address,
		AddressModeV:  address,
		AddressModeW:  address,
		MagFilter:     filter,
		MinFilter:     filter,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		LodMinClamp:   0,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	})
	if err != nil {
		logging.Logger().Error("failed to create sampler", "error", err)
		return nil
	}
	w.samplers[flags] = s
	return s
}
