package light

import (
	"github.com/Carmen-Shannon/oxy-lighting/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-lighting/internal/logging"
)

// SamplerLights is the storage buffer stage the light buffer is bound to.
const SamplerLights uint8 = 0

// minBufferLights is the light capacity of a freshly created buffer. A storage buffer
// holding a runtime-sized array must contain at least one element.
const minBufferLights = 16

// Source is the part of a scene the Lights binder reads.
type Source interface {
	// PointLights returns the scene's point lights.
	PointLights() PointLightList

	// AmbientLight returns the ambient irradiance in linear RGB.
	AmbientLight() [3]float32
}

// lights is the implementation of the Lights interface.
type lights struct {
	b backend.Backend

	countUniform   backend.Resource[backend.UniformHandle]
	ambientUniform backend.Resource[backend.UniformHandle]
	buffer         backend.Resource[backend.DynamicBufferHandle]

	capacity int
	// failed is set once the buffer could not be created; no further attempt is made
	// until Shutdown.
	failed   bool
	uploaded PointLightList
	version  uint64
	scratch  []byte
}

// Lights uploads the scene's point lights into a storage buffer and binds it, together
// with the light count and ambient irradiance uniforms, for the next draw or dispatch.
type Lights interface {
	// Initialize creates the uniforms and an initial light buffer.
	// Must be called before any program that includes the light declarations is created.
	//
	// Parameters:
	//   - b: the backend to create resources on
	Initialize(b backend.Backend)

	// BindLights binds the light buffer and uniforms of src for the next Submit or Dispatch.
	// The buffer is only re-uploaded when the light list changed since the last upload.
	// Reading src has no side effects, so it can be called once per pass that shades.
	//
	// Parameters:
	//   - src: the scene providing the lights
	BindLights(src Source)

	// Buffer returns the light storage buffer, invalid before Initialize.
	Buffer() backend.DynamicBufferHandle

	// Capacity returns the number of lights the current buffer can hold.
	Capacity() int

	// Shutdown destroys every resource. Calling it twice, or before Initialize, does nothing.
	Shutdown()
}

var _ Lights = &lights{}

// NewLights creates an uninitialized Lights binder.
//
// Returns:
//   - Lights: the binder
func NewLights() Lights {
	return &lights{}
}

func (l *lights) Initialize(b backend.Backend) {
	l.b = b
	l.countUniform.Own(b.CreateUniform("u_lightCountVec", backend.UniformVec4, 1), b.DestroyUniform)
	l.ambientUniform.Own(b.CreateUniform("u_ambientLightIrradiance", backend.UniformVec4, 1), b.DestroyUniform)
	l.grow(minBufferLights)
}

func (l *lights) BindLights(src Source) {
	if l.b == nil {
		return
	}
	list := src.PointLights()
	all := list.Lights()

	if len(all) > l.capacity && !l.failed {
		l.grow(max(l.capacity*2, len(all)))
	}
	if l.buffer.Valid() && (l.uploaded != list || l.version != list.Version()) {
		if len(all) > 0 {
			l.scratch = MarshalLightBuffer(l.scratch, all)
			l.b.UpdateDynamicBuffer(l.buffer.Handle(), 0, l.scratch)
		}
		l.uploaded = list
		l.version = list.Version()
	}

	ambient := src.AmbientLight()
	l.b.SetUniform(l.countUniform.Handle(), []float32{float32(len(all)), 0, 0, 0})
	l.b.SetUniform(l.ambientUniform.Handle(), []float32{ambient[0], ambient[1], ambient[2], 0})
	l.b.SetBuffer(SamplerLights, l.buffer.Handle(), backend.AccessRead)
}

// grow replaces the light buffer with one holding n lights and forces a re-upload.
func (l *lights) grow(n int) {
	h := l.b.CreateDynamicBuffer(n*GPUPointLightSize, backend.BufferComputeRead, "point lights")
	if !h.Valid() {
		logging.Logger().Error("failed to create light buffer", "lights", n)
		l.buffer.Release()
		l.capacity = 0
		l.failed = true
		return
	}
	logging.Logger().Debug("light buffer resized", "from", l.capacity, "to", n)
	l.buffer.Own(h, l.b.DestroyDynamicBuffer)
	l.capacity = n
	l.uploaded = nil
}

func (l *lights) Buffer() backend.DynamicBufferHandle {
	return l.buffer.Handle()
}

func (l *lights) Capacity() int {
	return l.capacity
}

func (l *lights) Shutdown() {
	l.buffer.Release()
	l.countUniform.Release()
	l.ambientUniform.Release()
	l.capacity = 0
	l.failed = false
	l.uploaded = nil
	l.version = 0
	l.b = nil
}
