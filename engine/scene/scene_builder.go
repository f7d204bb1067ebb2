package scene

import (
	"github.com/Carmen-Shannon/oxy-lighting/engine/camera"
	"github.com/Carmen-Shannon/oxy-lighting/engine/light"
	"github.com/Carmen-Shannon/oxy-lighting/engine/loader"
	"github.com/Carmen-Shannon/oxy-lighting/engine/material"
)

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithCamera replaces the default camera.
//
// Parameters:
//   - cam: the camera
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithCamera(cam camera.Camera) SceneBuilderOption {
	return func(s *scene) {
		if cam != nil {
			s.cam = cam
		}
	}
}

// WithMeshes appends meshes to the scene.
//
// Parameters:
//   - meshes: the meshes
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithMeshes(meshes ...Mesh) SceneBuilderOption {
	return func(s *scene) {
		s.meshes = append(s.meshes, meshes...)
	}
}

// WithMaterials appends materials to the material table.
//
// Parameters:
//   - materials: the materials
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithMaterials(materials ...material.Material) SceneBuilderOption {
	return func(s *scene) {
		s.materials = append(s.materials, materials...)
	}
}

// WithPointLights adds point lights.
//
// Parameters:
//   - lights: the lights
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithPointLights(lights ...light.PointLight) SceneBuilderOption {
	return func(s *scene) {
		s.lights.Add(lights...)
	}
}

// WithAmbientLight sets the ambient irradiance.
//
// Parameters:
//   - r, g, b: the irradiance in linear RGB
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithAmbientLight(r, g, b float32) SceneBuilderOption {
	return func(s *scene) {
		s.ambient = [3]float32{r, g, b}
	}
}

// WithLoaded sets the readiness flag.
//
// Parameters:
//   - loaded: whether the scene is ready to draw
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithLoaded(loaded bool) SceneBuilderOption {
	return func(s *scene) {
		s.loaded = loaded
	}
}

// DemoBuilderOption is a functional option for configuring the demo scene.
type DemoBuilderOption func(d *demo)

// WithLightCount sets the number of point lights. Defaults to DefaultLightCount.
//
// Parameters:
//   - n: the number of lights, at least 0
//
// Returns:
//   - DemoBuilderOption: option function to apply
func WithLightCount(n int) DemoBuilderOption {
	return func(d *demo) {
		d.lightCount = max(n, 0)
	}
}

// WithLightIntensity sets the luminous power of every light in lumen.
//
// Parameters:
//   - intensity: the light intensity
//
// Returns:
//   - DemoBuilderOption: option function to apply
func WithLightIntensity(intensity float32) DemoBuilderOption {
	return func(d *demo) {
		d.lightIntensity = intensity
	}
}

// WithAnimate enables or disables the light animation. Enabled by default.
//
// Parameters:
//   - animate: whether lights move
//
// Returns:
//   - DemoBuilderOption: option function to apply
func WithAnimate(animate bool) DemoBuilderOption {
	return func(d *demo) {
		d.animate = animate
	}
}

// WithCameraSpeed sets the camera orbit speed in radians per second. 0 stops the camera.
//
// Parameters:
//   - speed: the angular speed
//
// Returns:
//   - DemoBuilderOption: option function to apply
func WithCameraSpeed(speed float32) DemoBuilderOption {
	return func(d *demo) {
		d.cameraSpeed = speed
	}
}

// WithSeed sets the seed of the light placement.
//
// Parameters:
//   - seed: the random seed
//
// Returns:
//   - DemoBuilderOption: option function to apply
func WithSeed(seed uint64) DemoBuilderOption {
	return func(d *demo) {
		d.seed = seed
	}
}

// WithWorkers sets the number of worker goroutines moving lights. Defaults to
// runtime.NumCPU()-1.
//
// Parameters:
//   - n: the number of workers (minimum 1)
//
// Returns:
//   - DemoBuilderOption: option function to apply
func WithWorkers(n int) DemoBuilderOption {
	return func(d *demo) {
		d.workers = max(n, 1)
	}
}

// WithAsset replaces the procedural floor and grid with an imported asset. The camera
// orbits the asset's bounds and the lights circle inside them.
//
// Parameters:
//   - a: the imported asset, nil keeps the procedural geometry
//
// Returns:
//   - DemoBuilderOption: option function to apply
func WithAsset(a *loader.Asset) DemoBuilderOption {
	return func(d *demo) {
		d.asset = a
	}
}
