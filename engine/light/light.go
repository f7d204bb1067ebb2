package light

import (
	"sync"

	"github.com/chewxy/math32"
)

// PointLight is an omnidirectional light source with inverse square falloff.
//
// Color is linear RGB and Intensity is the luminous power in lumen, so the radiant
// flux reaching the shader is Color * Intensity.
type PointLight struct {
	Position  [3]float32
	Color     [3]float32
	Intensity float32
}

// Flux returns the radiant flux of the light, Color scaled by Intensity.
//
// Returns:
//   - [3]float32: the flux per color channel
func (l PointLight) Flux() [3]float32 {
	return [3]float32{l.Color[0] * l.Intensity, l.Color[1] * l.Intensity, l.Color[2] * l.Intensity}
}

// Radius returns the distance at which the light's influence is treated as zero.
// It bounds the light volume used for culling and for the deferred light boxes.
//
// The radius comes from the falloff alone: the attenuation at which the brightest
// channel's intensity drops to a fixed fraction is inverted through 1/d². It is an
// approximation and does not take a visual cutoff threshold into account.
//
// Returns:
//   - float32: the influence radius, 0 for a light without flux
func (l PointLight) Radius() float32 {
	flux := l.Flux()
	maxIntensity := max(flux[0], flux[1], flux[2]) / (4 * math32.Pi)
	if maxIntensity <= 0 {
		return 0
	}
	attenuation := max(radiusCutoff, radiusCutoffFraction*maxIntensity) / maxIntensity
	return 1 / math32.Sqrt(attenuation)
}

const (
	radiusCutoff         float32 = 1.0
	radiusCutoffFraction float32 = 0.05
)

// pointLightList is the implementation of the PointLightList interface.
type pointLightList struct {
	mu      *sync.RWMutex
	lights  []PointLight
	version uint64
}

// PointLightList is the scene's set of point lights. Every mutation bumps Version so
// binders can skip uploads when nothing changed.
// All methods are safe for concurrent use.
type PointLightList interface {
	// Len returns the number of lights.
	Len() int

	// At returns the light at index i.
	//
	// Parameters:
	//   - i: the light index, 0 <= i < Len()
	//
	// Returns:
	//   - PointLight: a copy of the light
	At(i int) PointLight

	// Lights returns a copy of every light, in index order.
	Lights() []PointLight

	// Version returns the mutation counter. It increases by at least one on every change.
	Version() uint64

	// Add appends lights to the list.
	//
	// Parameters:
	//   - lights: the lights to append
	Add(lights ...PointLight)

	// Set replaces the light at index i.
	//
	// Parameters:
	//   - i: the light index
	//   - l: the new light
	Set(i int, l PointLight)

	// Update hands the backing slice to fn under the write lock and bumps Version once
	// fn returns. fn may fan the slice out to other goroutines as long as it waits for
	// them before returning.
	//
	// Parameters:
	//   - fn: the mutation applied to the lights in place
	Update(fn func(lights []PointLight))

	// Clear removes every light.
	Clear()
}

var _ PointLightList = &pointLightList{}

// NewPointLightList creates a PointLightList holding lights.
//
// Parameters:
//   - lights: the initial lights, copied
//
// Returns:
//   - PointLightList: the new list
func NewPointLightList(lights ...PointLight) PointLightList {
	return &pointLightList{
		mu:     &sync.RWMutex{},
		lights: append([]PointLight(nil), lights...),
	}
}

func (p *pointLightList) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.lights)
}

func (p *pointLightList) At(i int) PointLight {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lights[i]
}

func (p *pointLightList) Lights() []PointLight {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]PointLight(nil), p.lights...)
}

func (p *pointLightList) Version() uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.version
}

func (p *pointLightList) Add(lights ...PointLight) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lights = append(p.lights, lights...)
	p.version++
}

func (p *pointLightList) Set(i int, l PointLight) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lights[i] = l
	p.version++
}

func (p *pointLightList) Update(fn func(lights []PointLight)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(p.lights)
	p.version++
}

func (p *pointLightList) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lights = p.lights[:0]
	p.version++
}
