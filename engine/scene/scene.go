// Package scene provides the data the renderers draw: meshes with their material index
// and transform, the material table, the point lights, the ambient light, the camera and
// a readiness flag.
package scene

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-lighting/common"
	"github.com/Carmen-Shannon/oxy-lighting/engine/camera"
	"github.com/Carmen-Shannon/oxy-lighting/engine/light"
	"github.com/Carmen-Shannon/oxy-lighting/engine/material"
	"github.com/Carmen-Shannon/oxy-lighting/engine/renderer/backend"
)

// Mesh is one drawable: GPU buffers, an index into the scene's material table and a model
// transform. Renderers reference meshes, they never own their buffers.
type Mesh struct {
	Name         string
	VertexBuffer backend.VertexBufferHandle
	IndexBuffer  backend.IndexBufferHandle
	// Material indexes Scene.Materials.
	Material int
	// Transform is the model matrix, column-major.
	Transform common.Mat4
}

// Scene is the read-only view of a scene consumed by the renderers.
// All methods are safe for concurrent use.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// Meshes returns the drawables. The slice must not be modified.
	//
	// Returns:
	//   - []Mesh: the meshes, empty until the scene is loaded
	Meshes() []Mesh

	// Materials returns the material table every Mesh.Material indexes.
	//
	// Returns:
	//   - []material.Material: the materials
	Materials() []material.Material

	// PointLights returns the scene's point lights.
	//
	// Returns:
	//   - light.PointLightList: the light list
	PointLights() light.PointLightList

	// AmbientLight returns the ambient irradiance in linear RGB.
	//
	// Returns:
	//   - [3]float32: the ambient irradiance
	AmbientLight() [3]float32

	// Camera returns the scene's camera.
	//
	// Returns:
	//   - camera.Camera: the camera
	Camera() camera.Camera

	// Loaded reports whether the scene's GPU data is ready to draw.
	//
	// Returns:
	//   - bool: true once loading finished
	Loaded() bool
}

// MaterialOf resolves the material of a mesh.
//
// Parameters:
//   - s: the scene owning the material table
//   - m: the mesh
//
// Returns:
//   - material.Material: the material, nil when the index does not resolve
//   - bool: whether the index resolved
func MaterialOf(s Scene, m Mesh) (material.Material, bool) {
	mats := s.Materials()
	if m.Material < 0 || m.Material >= len(mats) {
		return nil, false
	}
	return mats[m.Material], true
}

// scene is the implementation of the Scene interface.
type scene struct {
	mu *sync.RWMutex

	name      string
	cam       camera.Camera
	meshes    []Mesh
	materials []material.Material
	lights    light.PointLightList
	ambient   [3]float32
	loaded    bool
}

var _ Scene = &scene{}

// NewScene creates a scene from already uploaded meshes. The scene is loaded unless
// WithLoaded(false) is given.
//
// Parameters:
//   - name: the name of the scene
//   - options: functional options to configure the scene
//
// Returns:
//   - Scene: the newly created scene
func NewScene(name string, options ...SceneBuilderOption) Scene {
	s := newScene(name)
	s.loaded = true
	for _, option := range options {
		option(s)
	}
	return s
}

func newScene(name string) *scene {
	return &scene{
		mu:     &sync.RWMutex{},
		name:   name,
		cam:    camera.NewCamera(),
		lights: light.NewPointLightList(),
	}
}

func (s *scene) Name() string {
	return s.name
}

func (s *scene) Meshes() []Mesh {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.meshes
}

func (s *scene) Materials() []material.Material {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.materials
}

func (s *scene) PointLights() light.PointLightList {
	return s.lights
}

func (s *scene) AmbientLight() [3]float32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ambient
}

func (s *scene) Camera() camera.Camera {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cam
}

func (s *scene) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}
