package light

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUPointLightSource is the canonical WGSL definition of the PointLight struct, the
// light storage buffer binding and the shared attenuation helpers.
// Matches GPUPointLight layout exactly (32 bytes, std430 aligned).
//
//go:embed assets/point_light.wgsl
var GPUPointLightSource string

// GPUPointLight is the GPU-aligned representation of a single point light.
// Matches the WGSL PointLight struct layout exactly (see GPUPointLightSource).
// Size: 32 bytes (std430 / WGSL aligned).
type GPUPointLight struct {
	Position [3]float32 // offset  0: position in world space
	Radius   float32    // offset 12: influence radius
	Flux     [3]float32 // offset 16: radiant flux, color * intensity
	_pad     float32    // offset 28: padding to 32-byte alignment
}

// Size returns the size of the GPUPointLight struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (32)
func (g *GPUPointLight) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUPointLight into buf, which must hold at least 32 bytes.
//
// Parameters:
//   - buf: the destination slice
func (g *GPUPointLight) Marshal(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(g.Position[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(g.Position[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(g.Position[2]))
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(g.Radius))
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(g.Flux[0]))
	binary.LittleEndian.PutUint32(buf[20:24], math.Float32bits(g.Flux[1]))
	binary.LittleEndian.PutUint32(buf[24:28], math.Float32bits(g.Flux[2]))
	binary.LittleEndian.PutUint32(buf[28:32], 0) // padding
}

// GPUPointLightSize is the stride of one light in the storage buffer.
const GPUPointLightSize = 32

// ToGPUPointLight converts a PointLight into its GPU representation, deriving the
// radius and flux.
//
// Parameters:
//   - l: the light to convert
//
// Returns:
//   - GPUPointLight: the GPU-aligned light
func ToGPUPointLight(l PointLight) GPUPointLight {
	return GPUPointLight{
		Position: l.Position,
		Radius:   l.Radius(),
		Flux:     l.Flux(),
	}
}

// MarshalLightBuffer serializes lights back to back into a byte slice ready for upload.
// dst is reused when it has enough capacity.
//
// Parameters:
//   - dst: an optional scratch slice to reuse
//   - lights: the lights to serialize
//
// Returns:
//   - []byte: len(lights) * GPUPointLightSize bytes
func MarshalLightBuffer(dst []byte, lights []PointLight) []byte {
	n := len(lights) * GPUPointLightSize
	if cap(dst) < n {
		dst = make([]byte, n)
	}
	dst = dst[:n]
	for i, l := range lights {
		g := ToGPUPointLight(l)
		g.Marshal(dst[i*GPUPointLightSize:])
	}
	return dst
}
