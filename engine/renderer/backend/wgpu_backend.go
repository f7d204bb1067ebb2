package backend

import (
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-lighting/common"
	"github.com/Carmen-Shannon/oxy-lighting/internal/logging"
	"github.com/cogentcore/webgpu/wgpu"
)

// Device limits the renderers need beyond the WebGPU defaults. Adapters that cannot
// raise them run without compute support.
const (
	requiredComputeInvocations = 512
	requiredStorageBuffers     = MaxBufferStages
)

// wgpuBackend is the WebGPU implementation of the Backend interface.
type wgpuBackend struct {
	mu *sync.Mutex

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	surface  *wgpu.Surface

	surfaceFormat wgpu.TextureFormat
	alphaMode     wgpu.CompositeAlphaMode
	presentMode   wgpu.PresentMode

	caps       Caps
	width      int
	height     int
	frameCount uint32

	backbufferDepth     *wgpu.Texture
	backbufferDepthView *wgpu.TextureView

	shaders        pool[wgpuShader]
	programs       pool[wgpuProgram]
	uniforms       pool[wgpuUniform]
	uniformNames   map[string]uint16
	nextSlot       int
	textures       pool[wgpuTexture]
	frameBuffers   pool[wgpuFrameBuffer]
	vertexBuffers  pool[wgpuVertexBuffer]
	indexBuffers   pool[wgpuIndexBuffer]
	dynamicBuffers pool[wgpuDynamicBuffer]

	frameLayouts    [2]*wgpu.BindGroupLayout
	frameBindGroups [2]*wgpu.BindGroup
	frameUniforms   *wgpu.Buffer
	drawUniforms    *wgpu.Buffer
	samplers        map[TextureFlags]*wgpu.Sampler
	defaultColor    *wgpuTexture
	defaultDepth    *wgpuTexture
	defaultBuffer   *wgpu.Buffer

	views      [MaxViews]viewState
	pending    pendingState
	commands   []command
	drawData   []byte
	frameData  []byte
	overflowed bool
}

var _ Backend = &wgpuBackend{}

// NewWGPU creates a WebGPU backend rendering into the surface described by surfaceDesc.
// The calling goroutine becomes the render thread. Failing to acquire an adapter or
// device is unrecoverable and panics; every later failure is logged and reported
// through invalid handles.
//
// Parameters:
//   - surfaceDesc: the window surface, see window.Window.SurfaceDescriptor
//   - forceFallbackAdapter: request the software adapter
//   - width: initial backbuffer width in pixels
//   - height: initial backbuffer height in pixels
//
// Returns:
//   - Backend: the ready backend
func NewWGPU(surfaceDesc *wgpu.SurfaceDescriptor, forceFallbackAdapter bool, width, height int) Backend {
	runtime.LockOSThread()
	w := &wgpuBackend{
		mu:           &sync.Mutex{},
		instance:     wgpu.CreateInstance(nil),
		presentMode:  wgpu.PresentModeFifo,
		uniformNames: make(map[string]uint16),
		samplers:     make(map[TextureFlags]*wgpu.Sampler),
	}
	w.surface = w.instance.CreateSurface(surfaceDesc)

	a, err := w.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
		CompatibleSurface:    w.surface,
	})
	if err != nil {
		panic(err)
	}
	w.adapter = a

	limits := wgpu.DefaultLimits()
	supported := a.GetLimits().Limits
	compute := supported.MaxComputeInvocationsPerWorkgroup >= requiredComputeInvocations &&
		supported.MaxStorageBuffersPerShaderStage >= requiredStorageBuffers
	if compute {
		limits.MaxComputeInvocationsPerWorkgroup = requiredComputeInvocations
		limits.MaxStorageBuffersPerShaderStage = max(limits.MaxStorageBuffersPerShaderStage, requiredStorageBuffers)
	}

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: limits,
		},
	})
	if err != nil {
		panic(err)
	}
	w.device = d
	w.queue = d.GetQueue()

	w.caps = w.queryCaps(compute)
	for i := range w.views {
		w.views[i] = newViewState()
	}
	w.pending.reset()

	if err := w.createFrameResources(); err != nil {
		panic(err)
	}
	w.configureSurface(width, height)

	logging.Logger().Info("webgpu backend ready",
		"fallback", forceFallbackAdapter,
		"compute", compute,
		"format", w.surfaceFormat.String())
	return w
}

// queryCaps builds the capability set of the device.
func (w *wgpuBackend) queryCaps(compute bool) Caps {
	c := Caps{
		Supported:        CapsIndex32 | CapsFragmentDepth | CapsTextureBlit,
		MaxFBAttachments: MaxColorAttachments + 1,
		MaxDrawCalls:     DefaultMaxDrawCalls,
	}
	if compute {
		c.Supported |= CapsCompute
	}

	all := FormatSupportTexture2D | FormatSupportFrameBuffer | FormatSupportBlit
	c = c.WithFormat(TextureFormatRGBA8, all).
		WithFormat(TextureFormatBGRA8, all).
		WithFormat(TextureFormatRGB10A2, all).
		WithFormat(TextureFormatRGBA16F, all).
		// 32-bit float formats are not filterable, so they cannot back a filtering binding.
		WithFormat(TextureFormatRGBA32F, FormatSupportFrameBuffer|FormatSupportBlit).
		WithFormat(TextureFormatR32F, FormatSupportFrameBuffer|FormatSupportBlit).
		WithFormat(TextureFormatD24S8, FormatSupportFrameBuffer).
		WithFormat(TextureFormatD32F, all)
	return c
}

// createFrameResources creates the group 0 uniform buffers and layouts and the default
// resources bound to stages a draw leaves empty.
func (w *wgpuBackend) createFrameResources() error {
	var err error
	w.frameUniforms, err = w.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "frame uniforms",
		Size:  uint64(MaxViews * frameUniformStride),
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return err
	}
	w.drawUniforms, err = w.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "draw uniforms",
		Size:  uint64(w.caps.MaxDrawCalls * drawUniformStride),
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return err
	}

	visibility := [2]wgpu.ShaderStage{
		wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
		wgpu.ShaderStageCompute,
	}
	for i, vis := range visibility {
		entries := []wgpu.BindGroupLayoutEntry{
			{Binding: 0, Visibility: vis},
			{Binding: 1, Visibility: vis},
		}
		entries[0].Buffer.Type = wgpu.BufferBindingTypeUniform
		entries[0].Buffer.HasDynamicOffset = true
		entries[0].Buffer.MinBindingSize = frameUniformSize
		entries[1].Buffer.Type = wgpu.BufferBindingTypeUniform
		entries[1].Buffer.HasDynamicOffset = true
		entries[1].Buffer.MinBindingSize = drawUniformSize

		w.frameLayouts[i], err = w.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
			Label:   "frame layout",
			Entries: entries,
		})
		if err != nil {
			return err
		}
		w.frameBindGroups[i], err = w.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:  "frame bind group",
			Layout: w.frameLayouts[i],
			Entries: []wgpu.BindGroupEntry{
				{Binding: 0, Buffer: w.frameUniforms, Offset: 0, Size: frameUniformSize},
				{Binding: 1, Buffer: w.drawUniforms, Offset: 0, Size: drawUniformSize},
			},
		})
		if err != nil {
			return err
		}
	}

	w.defaultColor = &wgpuTexture{desc: TextureDesc{Width: 1, Height: 1, Format: TextureFormatRGBA8, Name: "default color"}}
	if err := w.createGPUTexture(w.defaultColor, []byte{255, 255, 255, 255}); err != nil {
		return err
	}
	w.defaultDepth = &wgpuTexture{desc: TextureDesc{Width: 1, Height: 1, Format: TextureFormatD32F, Flags: TextureRenderTarget, Name: "default depth"}}
	if err := w.createGPUTexture(w.defaultDepth, nil); err != nil {
		return err
	}
	w.defaultBuffer, err = w.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "default storage",
		Size:  256,
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
	})
	return err
}

// configureSurface picks the surface format and (re)creates the backbuffer depth texture.
// A non-sRGB format is preferred: the tonemap pass writes gamma encoded values.
func (w *wgpuBackend) configureSurface(width, height int) {
	w.width = max(width, 1)
	w.height = max(height, 1)

	capabilities := w.surface.GetCapabilities(w.adapter)
	if w.surfaceFormat == wgpu.TextureFormatUndefined {
		w.surfaceFormat = capabilities.Formats[0]
		for _, f := range capabilities.Formats {
			if f == wgpu.TextureFormatBGRA8Unorm || f == wgpu.TextureFormatRGBA8Unorm {
				w.surfaceFormat = f
				break
			}
		}
		w.alphaMode = capabilities.AlphaModes[0]
	}

	w.surface.Configure(w.adapter, w.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      w.surfaceFormat,
		Width:       uint32(w.width),
		Height:      uint32(w.height),
		PresentMode: w.presentMode,
		AlphaMode:   w.alphaMode,
	})

	if w.backbufferDepthView != nil {
		w.backbufferDepthView.Release()
		w.backbufferDepth.Release()
	}
	depth, err := w.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "backbuffer depth",
		Size: wgpu.Extent3D{
			Width:              uint32(w.width),
			Height:             uint32(w.height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatDepth32Float,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		panic(err)
	}
	w.backbufferDepth = depth
	w.backbufferDepthView, err = depth.CreateView(nil)
	if err != nil {
		panic(err)
	}
}

func (w *wgpuBackend) Name() string {
	return "WebGPU"
}

func (w *wgpuBackend) Caps() Caps {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.caps
}

func (w *wgpuBackend) Reset(width, height int) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if width <= 0 || height <= 0 {
		return
	}
	w.configureSurface(width, height)

	for _, t := range w.textures.items {
		if t.desc.Ratio == RatioNone {
			continue
		}
		t.release()
		if err := w.createGPUTexture(t, nil); err != nil {
			logging.Logger().Error("failed to resize texture", "name", t.desc.Name, "error", err)
		}
	}
	for i := range w.views {
		v := &w.views[i]
		if v.ratio != RatioNone {
			v.rect[2] = v.ratio.Apply(w.width)
			v.rect[3] = v.ratio.Apply(w.height)
		}
	}
	logging.Logger().Debug("backbuffer reset", "width", w.width, "height", w.height)
}

func (w *wgpuBackend) Shutdown() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.device == nil {
		return
	}
	for h := range w.programs.items {
		w.destroyProgram(ProgramHandle(h))
	}
	for h := range w.shaders.items {
		w.destroyShader(ShaderHandle(h))
	}
	for h := range w.frameBuffers.items {
		w.frameBuffers.remove(h)
	}
	for h, t := range w.textures.items {
		t.release()
		w.textures.remove(h)
	}
	for h, vb := range w.vertexBuffers.items {
		vb.buffer.Release()
		w.vertexBuffers.remove(h)
	}
	for h, ib := range w.indexBuffers.items {
		ib.buffer.Release()
		w.indexBuffers.remove(h)
	}
	for h, db := range w.dynamicBuffers.items {
		db.buffer.Release()
		w.dynamicBuffers.remove(h)
	}
	for _, s := range w.samplers {
		s.Release()
	}
	clear(w.samplers)

	w.defaultColor.release()
	w.defaultDepth.release()
	w.defaultBuffer.Release()
	for i := range w.frameBindGroups {
		w.frameBindGroups[i].Release()
		w.frameLayouts[i].Release()
	}
	w.frameUniforms.Release()
	w.drawUniforms.Release()
	w.backbufferDepthView.Release()
	w.backbufferDepth.Release()

	w.device.Release()
	w.adapter.Release()
	w.surface.Release()
	w.instance.Release()
	w.device = nil
	logging.Logger().Info("webgpu backend shut down", "frames", w.frameCount)
}

// frameMatrices computes the Frame block of a view.
func frameMatrices(v *viewState) [frameUniformSize / 4]float32 {
	var out [frameUniformSize / 4]float32
	var viewProj, invProj, invView common.Mat4
	common.Mul4(viewProj[:], v.proj[:], v.view[:])
	if !common.Invert4(invProj[:], v.proj[:]) {
		invProj = common.Identity4()
	}
	if !common.Invert4(invView[:], v.view[:]) {
		invView = common.Identity4()
	}
	copy(out[0:], v.view[:])
	copy(out[16:], v.proj[:])
	copy(out[32:], viewProj[:])
	copy(out[48:], invProj[:])
	copy(out[64:], invView[:])
	out[80] = float32(v.rect[0])
	out[81] = float32(v.rect[1])
	out[82] = float32(v.rect[2])
	out[83] = float32(v.rect[3])
	return out
}
