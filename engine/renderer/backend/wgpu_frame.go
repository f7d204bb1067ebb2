package backend

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/Carmen-Shannon/oxy-lighting/common"
	"github.com/Carmen-Shannon/oxy-lighting/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-lighting/internal/logging"
	"github.com/cogentcore/webgpu/wgpu"
)

// viewState is the persistent configuration of a view plus the commands recorded into it
// this frame.
type viewState struct {
	name       string
	clear      ClearFlags
	clearRGBA  uint32
	clearDepth float32
	rect       [4]int
	ratio      BackbufferRatio
	fb         FrameBufferHandle
	view       common.Mat4
	proj       common.Mat4

	touched    bool
	blits      [][2]TextureHandle
	dispatches []int
	draws      []int
}

func newViewState() viewState {
	return viewState{
		clearDepth: 1,
		fb:         Invalid[FrameBufferHandle](),
		view:       common.Identity4(),
		proj:       common.Identity4(),
	}
}

func (v *viewState) active() bool {
	return v.touched || len(v.blits) > 0 || len(v.dispatches) > 0 || len(v.draws) > 0
}

func (v *viewState) endFrame() {
	v.touched = false
	v.blits = v.blits[:0]
	v.dispatches = v.dispatches[:0]
	v.draws = v.draws[:0]
}

type textureBinding struct {
	tex TextureHandle
	set bool
}

type bufferBinding struct {
	buf    DynamicBufferHandle
	access Access
	set    bool
}

// pendingState accumulates the Set* calls until Submit or Dispatch consumes it.
type pendingState struct {
	transform common.Mat4
	uniforms  [MaxUniformSlots * 4]float32
	textures  [MaxTextureStages]textureBinding
	buffers   [MaxBufferStages]bufferBinding
	vb        VertexBufferHandle
	ib        IndexBufferHandle
	state     pipeline.State
}

func (p *pendingState) reset() {
	*p = pendingState{
		transform: common.Identity4(),
		vb:        Invalid[VertexBufferHandle](),
		ib:        Invalid[IndexBufferHandle](),
		state:     pipeline.StateDefault,
	}
}

// command is one recorded draw or dispatch. Its uniforms live at index*drawUniformStride
// in the draw uniform buffer.
type command struct {
	program  ProgramHandle
	state    pipeline.State
	vb       VertexBufferHandle
	ib       IndexBufferHandle
	textures [MaxTextureStages]textureBinding
	buffers  [MaxBufferStages]bufferBinding
	groups   [3]uint32
}

func (w *wgpuBackend) SetViewName(view ViewID, name string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.views[view].name = name
}

func (w *wgpuBackend) SetViewClear(view ViewID, flags ClearFlags, rgba uint32, depth float32) {
	w.mu.Lock()
	defer w.mu.Unlock()
	v := &w.views[view]
	v.clear, v.clearRGBA, v.clearDepth = flags, rgba, depth
}

func (w *wgpuBackend) SetViewRect(view ViewID, x, y, width, height int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	v := &w.views[view]
	v.rect = [4]int{x, y, width, height}
	v.ratio = RatioNone
}

func (w *wgpuBackend) SetViewRectRatio(view ViewID, x, y int, ratio BackbufferRatio) {
	w.mu.Lock()
	defer w.mu.Unlock()
	v := &w.views[view]
	v.rect = [4]int{x, y, ratio.Apply(w.width), ratio.Apply(w.height)}
	v.ratio = ratio
}

func (w *wgpuBackend) SetViewFrameBuffer(view ViewID, fb FrameBufferHandle) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.views[view].fb = fb
}

func (w *wgpuBackend) SetViewTransform(view ViewID, viewMtx, projMtx [16]float32) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.views[view].view = viewMtx
	w.views[view].proj = projMtx
}

func (w *wgpuBackend) Touch(view ViewID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.views[view].touched = true
}

func (w *wgpuBackend) Blit(view ViewID, dst, src TextureHandle) {
	w.mu.Lock()
	defer w.mu.Unlock()

	d, s := w.textures.get(uint16(dst)), w.textures.get(uint16(src))
	if d == nil || s == nil {
		logging.Logger().Error("blit with invalid texture", "view", view, "dst", dst, "src", src)
		return
	}
	if d.desc.Format != s.desc.Format || !w.caps.FormatSupported(d.desc.Format, FormatSupportBlit) {
		logging.Logger().Error("blit between incompatible formats", "dst", d.desc.Format, "src", s.desc.Format)
		return
	}
	w.views[view].blits = append(w.views[view].blits, [2]TextureHandle{dst, src})
}

func (w *wgpuBackend) SetTransform(mtx [16]float32) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending.transform = mtx
}

func (w *wgpuBackend) SetUniform(h UniformHandle, values []float32) {
	w.mu.Lock()
	defer w.mu.Unlock()

	u := w.uniforms.get(uint16(h))
	if u == nil || u.typ == UniformSampler {
		return
	}
	n := min(len(values), u.typ.Slots()*u.num*4)
	copy(w.pending.uniforms[u.slot*4:u.slot*4+n], values[:n])
}

func (w *wgpuBackend) SetTexture(stage uint8, sampler UniformHandle, tex TextureHandle) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if stage >= MaxTextureStages {
		logging.Logger().Warn("texture stage out of range", "stage", stage)
		return
	}
	w.pending.textures[stage] = textureBinding{tex: tex, set: true}
}

func (w *wgpuBackend) SetBuffer(stage uint8, buf DynamicBufferHandle, access Access) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if stage >= MaxBufferStages {
		logging.Logger().Warn("buffer stage out of range", "stage", stage)
		return
	}
	w.pending.buffers[stage] = bufferBinding{buf: buf, access: access, set: true}
}

func (w *wgpuBackend) SetVertexBuffer(h VertexBufferHandle) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending.vb = h
}

func (w *wgpuBackend) SetIndexBuffer(h IndexBufferHandle) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending.ib = h
}

func (w *wgpuBackend) SetState(state pipeline.State) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending.state = state
}

func (w *wgpuBackend) Submit(view ViewID, program ProgramHandle) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if p := w.programs.get(uint16(program)); p != nil && !p.compute {
		if i, ok := w.record(program, [3]uint32{}); ok {
			w.views[view].draws = append(w.views[view].draws, i)
		}
	}
	w.pending.reset()
}

func (w *wgpuBackend) Dispatch(view ViewID, program ProgramHandle, x, y, z uint32) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if p := w.programs.get(uint16(program)); p != nil && p.compute && x > 0 && y > 0 && z > 0 {
		if i, ok := w.record(program, [3]uint32{x, y, z}); ok {
			w.views[view].dispatches = append(w.views[view].dispatches, i)
		}
	}
	w.pending.reset()
}

// record stores the pending state as a command and stages its Draw uniform block.
func (w *wgpuBackend) record(program ProgramHandle, groups [3]uint32) (int, bool) {
	if len(w.commands) >= w.caps.MaxDrawCalls {
		if !w.overflowed {
			logging.Logger().Warn("draw call capacity exceeded, dropping draws", "max", w.caps.MaxDrawCalls)
			w.overflowed = true
		}
		return 0, false
	}
	w.commands = append(w.commands, command{
		program:  program,
		state:    w.pending.state,
		vb:       w.pending.vb,
		ib:       w.pending.ib,
		textures: w.pending.textures,
		buffers:  w.pending.buffers,
		groups:   groups,
	})

	block := make([]byte, drawUniformStride)
	putFloats(block, w.pending.transform[:])
	putFloats(block[64:], w.pending.uniforms[:])
	w.drawData = append(w.drawData, block...)
	return len(w.commands) - 1, true
}

func putFloats(dst []byte, values []float32) {
	for i, v := range values {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(v))
	}
}

// renderTarget is the resolved attachment set of a view.
type renderTarget struct {
	colors       []*wgpu.TextureView
	colorFormats []wgpu.TextureFormat
	depth        *wgpu.TextureView
	depthFormat  wgpu.TextureFormat
	width        int
	height       int
	key          string
}

func (w *wgpuBackend) Frame() uint32 {
	w.mu.Lock()
	defer w.mu.Unlock()
	defer w.endFrame()

	surfaceTexture, err := w.surface.GetCurrentTexture()
	if err != nil {
		logging.Logger().Warn("failed to acquire surface texture", "error", err)
		return w.frameCount
	}
	defer surfaceTexture.Release()
	surfaceView, err := surfaceTexture.CreateView(nil)
	if err != nil {
		logging.Logger().Error("failed to create surface view", "error", err)
		return w.frameCount
	}
	defer surfaceView.Release()

	if len(w.drawData) > 0 {
		w.queue.WriteBuffer(w.drawUniforms, 0, w.drawData)
	}
	w.frameData = w.frameData[:0]
	last := -1
	for id := range w.views {
		if w.views[id].active() {
			last = id
		}
	}
	if last >= 0 {
		w.frameData = append(w.frameData, make([]byte, (last+1)*frameUniformStride)...)
		for id := 0; id <= last; id++ {
			if v := &w.views[id]; v.active() {
				m := frameMatrices(v)
				putFloats(w.frameData[id*frameUniformStride:], m[:])
			}
		}
		w.queue.WriteBuffer(w.frameUniforms, 0, w.frameData)
	}

	encoder, err := w.device.CreateCommandEncoder(nil)
	if err != nil {
		logging.Logger().Error("failed to create command encoder", "error", err)
		return w.frameCount
	}
	defer encoder.Release()

	var transient []*wgpu.BindGroup
	defer func() {
		for _, bg := range transient {
			bg.Release()
		}
	}()

	for id := range w.views {
		v := &w.views[id]
		if !v.active() {
			continue
		}
		w.encodeView(encoder, ViewID(id), v, surfaceView, &transient)
	}

	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		logging.Logger().Error("failed to finish command encoder", "error", err)
		return w.frameCount
	}
	w.queue.Submit(commandBuffer)
	commandBuffer.Release()
	w.surface.Present()

	w.frameCount++
	return w.frameCount
}

// endFrame drops every recorded command. View configuration persists.
func (w *wgpuBackend) endFrame() {
	for i := range w.views {
		w.views[i].endFrame()
	}
	w.commands = w.commands[:0]
	w.drawData = w.drawData[:0]
	w.overflowed = false
	w.pending.reset()
}

// encodeView records the blits, then the compute pass, then the render pass of one view.
func (w *wgpuBackend) encodeView(encoder *wgpu.CommandEncoder, id ViewID, v *viewState, surfaceView *wgpu.TextureView, transient *[]*wgpu.BindGroup) {
	for _, b := range v.blits {
		dst, src := w.textures.get(uint16(b[0])), w.textures.get(uint16(b[1]))
		if dst == nil || src == nil || dst.width != src.width || dst.height != src.height {
			logging.Logger().Warn("skipping blit", "view", v.name)
			continue
		}
		encoder.CopyTextureToTexture(
			&wgpu.ImageCopyTexture{Texture: src.texture, Aspect: wgpu.TextureAspectAll},
			&wgpu.ImageCopyTexture{Texture: dst.texture, Aspect: wgpu.TextureAspectAll},
			&wgpu.Extent3D{Width: uint32(src.width), Height: uint32(src.height), DepthOrArrayLayers: 1},
		)
	}

	frameOffset := uint32(id) * frameUniformStride

	if len(v.dispatches) > 0 {
		pass := encoder.BeginComputePass(nil)
		for _, i := range v.dispatches {
			cmd := &w.commands[i]
			p := w.programs.get(uint16(cmd.program))
			if p == nil {
				continue
			}
			cp := w.computePipeline(p, cmd.program)
			if cp == nil {
				continue
			}
			groups, ok := w.bindGroups(p, cmd, transient)
			if !ok {
				continue
			}
			pass.SetPipeline(cp)
			pass.SetBindGroup(groupFrame, w.frameBindGroups[1], []uint32{frameOffset, uint32(i * drawUniformStride)})
			pass.SetBindGroup(groupTextures, groups[groupTextures], nil)
			pass.SetBindGroup(groupBuffers, groups[groupBuffers], nil)
			pass.DispatchWorkgroups(cmd.groups[0], cmd.groups[1], cmd.groups[2])
		}
		pass.End()
		pass.Release()
	}

	if len(v.draws) == 0 && !(v.touched && v.clear != ClearNone) {
		return
	}

	target, ok := w.resolveTarget(v, surfaceView)
	if !ok {
		logging.Logger().Warn("view has no valid target", "view", v.name)
		return
	}

	clearColor := UnpackRGBA(v.clearRGBA)
	desc := &wgpu.RenderPassDescriptor{Label: v.name}
	for _, c := range target.colors {
		att := wgpu.RenderPassColorAttachment{
			View:    c,
			LoadOp:  wgpu.LoadOpLoad,
			StoreOp: wgpu.StoreOpStore,
		}
		if v.clear&ClearColor != 0 {
			att.LoadOp = wgpu.LoadOpClear
			att.ClearValue = wgpu.Color{
				R: float64(clearColor[0]),
				G: float64(clearColor[1]),
				B: float64(clearColor[2]),
				A: float64(clearColor[3]),
			}
		}
		desc.ColorAttachments = append(desc.ColorAttachments, att)
	}
	if target.depth != nil {
		att := &wgpu.RenderPassDepthStencilAttachment{
			View:            target.depth,
			DepthLoadOp:     wgpu.LoadOpLoad,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: v.clearDepth,
		}
		if v.clear&ClearDepth != 0 {
			att.DepthLoadOp = wgpu.LoadOpClear
		}
		if target.depthFormat == wgpu.TextureFormatDepth24PlusStencil8 {
			att.StencilLoadOp = wgpu.LoadOpLoad
			att.StencilStoreOp = wgpu.StoreOpStore
			if v.clear&ClearStencil != 0 {
				att.StencilLoadOp = wgpu.LoadOpClear
			}
		}
		desc.DepthStencilAttachment = att
	}

	pass := encoder.BeginRenderPass(desc)
	x, y := min(max(v.rect[0], 0), target.width-1), min(max(v.rect[1], 0), target.height-1)
	width, height := v.rect[2], v.rect[3]
	if width <= 0 || height <= 0 {
		width, height = target.width, target.height
	}
	width, height = min(width, target.width-x), min(height, target.height-y)
	pass.SetViewport(float32(x), float32(y), float32(width), float32(height), 0, 1)
	pass.SetScissorRect(uint32(x), uint32(y), uint32(width), uint32(height))

	for _, i := range v.draws {
		cmd := &w.commands[i]
		p := w.programs.get(uint16(cmd.program))
		if p == nil {
			continue
		}
		vb := w.vertexBuffers.get(uint16(cmd.vb))
		rp := w.renderPipeline(p, cmd.program, cmd.state, &target, vb)
		if rp == nil {
			continue
		}
		groups, ok := w.bindGroups(p, cmd, transient)
		if !ok {
			continue
		}
		pass.SetPipeline(rp)
		pass.SetBindGroup(groupFrame, w.frameBindGroups[0], []uint32{frameOffset, uint32(i * drawUniformStride)})
		pass.SetBindGroup(groupTextures, groups[groupTextures], nil)
		pass.SetBindGroup(groupBuffers, groups[groupBuffers], nil)

		if vb == nil {
			pass.Draw(3, 1, 0, 0)
			continue
		}
		pass.SetVertexBuffer(0, vb.buffer, 0, wgpu.WholeSize)
		if ib := w.indexBuffers.get(uint16(cmd.ib)); ib != nil {
			format := wgpu.IndexFormatUint16
			if ib.index32 {
				format = wgpu.IndexFormatUint32
			}
			pass.SetIndexBuffer(ib.buffer, format, 0, wgpu.WholeSize)
			pass.DrawIndexed(ib.count, 1, 0, 0, 0)
		} else {
			pass.Draw(vb.count, 1, 0, 0)
		}
	}
	pass.End()
	pass.Release()
}

// resolveTarget collects the attachments of the view's framebuffer, or the backbuffer.
func (w *wgpuBackend) resolveTarget(v *viewState, surfaceView *wgpu.TextureView) (renderTarget, bool) {
	fb := w.frameBuffers.get(uint16(v.fb))
	if fb == nil {
		return renderTarget{
			colors:       []*wgpu.TextureView{surfaceView},
			colorFormats: []wgpu.TextureFormat{w.surfaceFormat},
			depth:        w.backbufferDepthView,
			depthFormat:  wgpu.TextureFormatDepth32Float,
			width:        w.width,
			height:       w.height,
			key:          fmt.Sprint(w.surfaceFormat, wgpu.TextureFormatDepth32Float),
		}, true
	}

	t := renderTarget{depthFormat: wgpu.TextureFormatUndefined}
	for _, a := range fb.attachments {
		tex := w.textures.get(uint16(a))
		if tex == nil || tex.view == nil {
			return t, false
		}
		format := textureFormats[tex.desc.Format]
		if tex.desc.Format.IsDepth() {
			t.depth, t.depthFormat = tex.view, format
		} else {
			t.colors = append(t.colors, tex.view)
			t.colorFormats = append(t.colorFormats, format)
		}
		t.width, t.height = tex.width, tex.height
	}
	t.key = fmt.Sprint(t.colorFormats, t.depthFormat)
	return t, true
}

// renderPipeline returns the cached pipeline for a draw, building it on first use.
// A pipeline that failed to build stays cached as nil so the error is logged once.
func (w *wgpuBackend) renderPipeline(p *wgpuProgram, h ProgramHandle, state pipeline.State, target *renderTarget, vb *wgpuVertexBuffer) *wgpu.RenderPipeline {
	key := pipeline.Key{Program: uint16(h), State: state, Targets: target.key}
	var buffers []wgpu.VertexBufferLayout
	if vb != nil {
		key.Layout = vb.layout.Key()
		buffers = vertexBufferLayouts(vb.layout)
	}
	if pl, ok := p.pipelines[key]; ok {
		return pl.Pipeline().(*wgpu.RenderPipeline)
	}

	vs, fs := w.shaders.get(uint16(p.vs)), w.shaders.get(uint16(p.fs))
	if vs == nil || fs == nil {
		return nil
	}
	pl := pipeline.NewPipeline(key, pipeline.PipelineTypeRender,
		pipeline.WithLabel(vs.name+"+"+fs.name),
		pipeline.WithVertexModule(vs.module, vs.entry),
		pipeline.WithFragmentModule(fs.module, fs.entry),
		pipeline.WithLayout(p.layout),
		pipeline.WithVertexBuffers(buffers),
		pipeline.WithTargets(target.colorFormats, target.depthFormat),
	)
	p.pipelines[key] = pl

	desc, err := pl.RenderDescriptor()
	if err == nil {
		var rp *wgpu.RenderPipeline
		if rp, err = w.device.CreateRenderPipeline(desc); err == nil {
			pl.SetRenderPipeline(rp)
			logging.Logger().Debug("render pipeline created", "key", key.String())
			return rp
		}
	}
	logging.Logger().Error("failed to create render pipeline", "key", key.String(), "error", err)
	return nil
}

// computePipeline returns the pipeline of a compute program, building it on first use.
func (w *wgpuBackend) computePipeline(p *wgpuProgram, h ProgramHandle) *wgpu.ComputePipeline {
	key := pipeline.Key{Program: uint16(h)}
	if pl, ok := p.pipelines[key]; ok {
		return pl.Pipeline().(*wgpu.ComputePipeline)
	}

	cs := w.shaders.get(uint16(p.cs))
	if cs == nil {
		return nil
	}
	pl := pipeline.NewPipeline(key, pipeline.PipelineTypeCompute,
		pipeline.WithLabel(cs.name),
		pipeline.WithComputeModule(cs.module, cs.entry),
		pipeline.WithLayout(p.layout),
	)
	p.pipelines[key] = pl

	desc, err := pl.ComputeDescriptor()
	if err == nil {
		var cp *wgpu.ComputePipeline
		if cp, err = w.device.CreateComputePipeline(desc); err == nil {
			pl.SetComputePipeline(cp)
			logging.Logger().Debug("compute pipeline created", "key", key.String(), "workgroup", cs.workgroup)
			return cp
		}
	}
	logging.Logger().Error("failed to create compute pipeline", "key", key.String(), "error", err)
	return nil
}

// vertexBufferLayouts converts a vertex layout into the single interleaved buffer layout
// of a pipeline. Attribute locations are the Attrib values.
func vertexBufferLayouts(l VertexLayout) []wgpu.VertexBufferLayout {
	attrs := make([]wgpu.VertexAttribute, 0, len(l.Attribs()))
	for i, a := range l.Attribs() {
		attrs = append(attrs, wgpu.VertexAttribute{
			Format:         vertexFormats[min(a.Num, 4)],
			Offset:         uint64(l.Offset(i)),
			ShaderLocation: uint32(a.Attrib),
		})
	}
	return []wgpu.VertexBufferLayout{{
		ArrayStride: uint64(l.Stride()),
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes:  attrs,
	}}
}

// bindGroups creates the texture and buffer bind groups of one command. Stages the program
// declares but the command left unbound get the default resources.
func (w *wgpuBackend) bindGroups(p *wgpuProgram, cmd *command, transient *[]*wgpu.BindGroup) ([groupCount]*wgpu.BindGroup, bool) {
	var out [groupCount]*wgpu.BindGroup

	if len(p.textures) == 0 {
		out[groupTextures] = p.emptyGroups[groupTextures]
	} else {
		entries := make([]wgpu.BindGroupEntry, 0, len(p.textures)*2)
		for _, ts := range p.textures {
			tex := w.boundTexture(cmd.textures[ts.stage], ts.depth)
			flags := tex.desc.Flags
			if ts.depth {
				flags = TextureSamplerPoint | TextureSamplerClamp
			}
			s := w.sampler(flags)
			if s == nil {
				return out, false
			}
			entries = append(entries,
				wgpu.BindGroupEntry{Binding: uint32(ts.stage) * 2, TextureView: tex.view},
				wgpu.BindGroupEntry{Binding: uint32(ts.stage)*2 + 1, Sampler: s},
			)
		}
		bg, err := w.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:   "textures",
			Layout:  p.groupLayouts[groupTextures],
			Entries: entries,
		})
		if err != nil {
			logging.Logger().Error("failed to create texture bind group", "error", err)
			return out, false
		}
		*transient = append(*transient, bg)
		out[groupTextures] = bg
	}

	if len(p.buffers) == 0 {
		out[groupBuffers] = p.emptyGroups[groupBuffers]
	} else {
		entries := make([]wgpu.BindGroupEntry, 0, len(p.buffers))
		for _, b := range p.buffers {
			buf := w.defaultBuffer
			if bb := cmd.buffers[b.binding]; bb.set {
				if db := w.dynamicBuffers.get(uint16(bb.buf)); db != nil {
					buf = db.buffer
				}
			}
			entries = append(entries, wgpu.BindGroupEntry{
				Binding: uint32(b.binding),
				Buffer:  buf,
				Offset:  0,
				Size:    wgpu.WholeSize,
			})
		}
		bg, err := w.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:   "buffers",
			Layout:  p.groupLayouts[groupBuffers],
			Entries: entries,
		})
		if err != nil {
			logging.Logger().Error("failed to create buffer bind group", "error", err)
			return out, false
		}
		*transient = append(*transient, bg)
		out[groupBuffers] = bg
	}
	return out, true
}

// boundTexture returns the texture bound at a stage, or the default texture of the kind
// the shader declares.
func (w *wgpuBackend) boundTexture(b textureBinding, depth bool) *wgpuTexture {
	if b.set {
		if t := w.textures.get(uint16(b.tex)); t != nil && t.view != nil && t.desc.Format.IsDepth() == depth {
			return t
		}
	}
	if depth {
		return w.defaultDepth
	}
	return w.defaultColor
}
