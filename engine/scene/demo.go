package scene

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-lighting/common"
	"github.com/Carmen-Shannon/oxy-lighting/engine/camera"
	"github.com/Carmen-Shannon/oxy-lighting/engine/light"
	"github.com/Carmen-Shannon/oxy-lighting/engine/loader"
	"github.com/Carmen-Shannon/oxy-lighting/engine/material"
	"github.com/Carmen-Shannon/oxy-lighting/engine/model"
	"github.com/Carmen-Shannon/oxy-lighting/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-lighting/internal/logging"
	"github.com/chewxy/math32"
)

// ErrLoadFailed is returned by Demo.Load when a GPU buffer could not be created.
var ErrLoadFailed = errors.New("scene: load failed")

// Defaults of the demo scene.
const (
	DefaultLightCount     = 64
	DefaultLightIntensity = 150
	// gridSize is the number of objects along each side of the object grid.
	gridSize = 5
	// gridSpacing is the distance between neighbouring grid objects.
	gridSpacing = 3
	// floorSize is the edge length of the ground plane.
	floorSize = 40
	// lightsPerTask is the smallest number of lights one animation task moves.
	lightsPerTask = 64
)

// lightOrbit is the circular path of one animated light around center.
type lightOrbit struct {
	center [3]float32
	radius float32
	height float32
	speed  float32
	phase  float32
}

// position returns the point of the orbit at time t.
func (o lightOrbit) position(t float32) [3]float32 {
	sin, cos := math32.Sincos(o.phase + o.speed*t)
	return [3]float32{o.center[0] + o.radius*cos, o.center[1] + o.height, o.center[2] + o.radius*sin}
}

// demo is the implementation of the Demo interface.
type demo struct {
	*scene

	lightCount     int
	lightIntensity float32
	animate        bool
	cameraSpeed    float32
	seed           uint64
	workers        int

	// asset replaces the procedural geometry when set
	asset *loader.Asset
	// center and extent place the light orbits
	center [3]float32
	extent float32

	pool    worker.DynamicWorkerPool
	orbits  []lightOrbit
	elapsed float32

	vertexBuffers []*backend.Resource[backend.VertexBufferHandle]
	indexBuffers  []*backend.Resource[backend.IndexBufferHandle]
}

// Demo is a procedural scene: a floor, a grid of cubes and spheres sweeping through
// metallic and roughness values, a row of transparent spheres, and point lights moving
// on circular paths around the grid.
type Demo interface {
	Scene

	// Load uploads the scene geometry to b and marks the scene loaded. Loading an already
	// loaded scene unloads it first.
	//
	// Parameters:
	//   - b: the backend to create the buffers on
	//
	// Returns:
	//   - error: ErrLoadFailed when a buffer could not be created; the scene stays unloaded
	Load(b backend.Backend) error

	// Unload destroys the scene's GPU buffers and marks the scene not loaded.
	// Calling it twice, or before Load, does nothing.
	Unload()

	// Update advances the light animation and the camera orbit. Lights move in parallel
	// batches on the scene's worker pool.
	//
	// Parameters:
	//   - deltaTime: elapsed time since the last update in seconds
	Update(deltaTime float32)

	// Resize adapts the camera aspect ratio to a new viewport.
	//
	// Parameters:
	//   - width: viewport width in pixels
	//   - height: viewport height in pixels
	Resize(width, height int)

	// Close drains the animation queue and stops the workers. The scene must be unloaded
	// first and must not be updated afterwards.
	Close()
}

var _ Demo = &demo{}

// NewDemo creates the demo scene with its lights and materials. Geometry is uploaded by Load.
//
// Parameters:
//   - options: functional options to configure the scene
//
// Returns:
//   - Demo: the unloaded demo scene
func NewDemo(options ...DemoBuilderOption) Demo {
	d := &demo{
		scene:          newScene("demo"),
		lightCount:     DefaultLightCount,
		lightIntensity: DefaultLightIntensity,
		animate:        true,
		cameraSpeed:    0.1,
		seed:           1,
		workers:        max(runtime.NumCPU()-1, 1),
	}
	d.cam = camera.NewCamera(
		camera.WithNear(0.1),
		camera.WithFar(100),
		camera.WithOrbit(camera.Orbit{Radius: 22, Elevation: math32.Pi / 6}),
	)
	d.ambient = [3]float32{0.02, 0.02, 0.025}

	for _, option := range options {
		option(d)
	}

	// Queue size of 256 holds every light batch of a frame with headroom.
	d.pool = worker.NewDynamicWorkerPool(d.workers, 256, 1*time.Second)
	d.extent = 1
	d.materials = demoMaterials()
	if d.asset != nil {
		d.name = d.asset.Name
		d.materials = d.asset.Materials
		d.frameAsset()
	}
	d.createLights()
	return d
}

// demoMaterials returns the floor material, one material per grid cell and the
// transparent material, in that order.
func demoMaterials() []material.Material {
	mats := []material.Material{
		material.NewMaterial(
			material.WithName("floor"),
			material.WithBaseColor([4]float32{0.5, 0.5, 0.5, 1}),
			material.WithRoughness(0.8),
		),
	}
	for z := range gridSize {
		for x := range gridSize {
			mats = append(mats, material.NewMaterial(
				material.WithName(fmt.Sprintf("grid %d,%d", x, z)),
				material.WithBaseColor([4]float32{0.9, 0.6, 0.3, 1}),
				material.WithMetallic(float32(x)/(gridSize-1)),
				material.WithRoughness(common.Clamp(float32(z)/(gridSize-1), 0.05, 1)),
			))
		}
	}
	mats = append(mats, material.NewMaterial(
		material.WithName("glass"),
		material.WithBaseColor([4]float32{0.6, 0.8, 1.0, 0.35}),
		material.WithRoughness(0.1),
		material.WithBlend(true),
		material.WithDoubleSided(true),
	))
	return mats
}

func (d *demo) createLights() {
	rng := rand.New(rand.NewPCG(d.seed, d.seed^0x9e3779b97f4a7c15))
	d.orbits = make([]lightOrbit, d.lightCount)
	lights := make([]light.PointLight, d.lightCount)
	for i := range d.lightCount {
		d.orbits[i] = lightOrbit{
			center: d.center,
			radius: (2 + rng.Float32()*16) * d.extent,
			height: (0.3 + rng.Float32()*2.5) * d.extent,
			speed:  (0.1 + rng.Float32()*0.4) * float32(1-2*(i%2)),
			phase:  rng.Float32() * 2 * math32.Pi,
		}
		r, g, b := hueToRGB(rng.Float32())
		lights[i] = light.NewPointLight(
			light.WithColor(r, g, b),
			light.WithIntensity(d.lightIntensity),
		)
		lights[i].Position = d.orbits[i].position(0)
	}
	d.lights.Clear()
	d.lights.Add(lights...)
}

// hueToRGB returns a fully saturated color of hue h in [0, 1).
func hueToRGB(h float32) (r, g, b float32) {
	channel := func(offset float32) float32 {
		k := math32.Mod(offset+h*6, 6)
		return common.Clamp(math32.Abs(k-3)-1, 0, 1)
	}
	return channel(0), channel(4), channel(2)
}

func (d *demo) Load(b backend.Backend) error {
	d.Unload()

	upload := func(geo model.Geometry) (backend.VertexBufferHandle, backend.IndexBufferHandle, error) {
		vb := &backend.Resource[backend.VertexBufferHandle]{}
		vb.Own(b.CreateVertexBuffer(model.MarshalVertices(geo.Vertices), model.VertexLayout(), geo.Name), b.DestroyVertexBuffer)
		d.vertexBuffers = append(d.vertexBuffers, vb)

		data, index32 := model.MarshalIndices(geo.Indices)
		ib := &backend.Resource[backend.IndexBufferHandle]{}
		ib.Own(b.CreateIndexBuffer(data, index32, geo.Name), b.DestroyIndexBuffer)
		d.indexBuffers = append(d.indexBuffers, ib)

		if !vb.Valid() || !ib.Valid() {
			return vb.Handle(), ib.Handle(), fmt.Errorf("%w: buffers of %s", ErrLoadFailed, geo.Name)
		}
		return vb.Handle(), ib.Handle(), nil
	}

	if d.asset != nil {
		var meshes []Mesh
		vbs := make([]backend.VertexBufferHandle, len(d.asset.Geometries))
		ibs := make([]backend.IndexBufferHandle, len(d.asset.Geometries))
		for i, geo := range d.asset.Geometries {
			var err error
			if vbs[i], ibs[i], err = upload(geo); err != nil {
				d.Unload()
				return err
			}
		}
		for _, inst := range d.asset.Instances {
			meshes = append(meshes, Mesh{
				Name:         inst.Name,
				VertexBuffer: vbs[inst.Geometry],
				IndexBuffer:  ibs[inst.Geometry],
				Material:     inst.Material,
				Transform:    inst.Transform,
			})
		}
		d.setLoaded(meshes)
		return nil
	}

	floorVB, floorIB, err := upload(model.Plane(floorSize))
	if err != nil {
		d.Unload()
		return err
	}
	cubeVB, cubeIB, err := upload(model.Cube(1.2))
	if err != nil {
		d.Unload()
		return err
	}
	sphereVB, sphereIB, err := upload(model.Sphere(0.7, 16, 32))
	if err != nil {
		d.Unload()
		return err
	}

	meshes := []Mesh{{
		Name:         "floor",
		VertexBuffer: floorVB,
		IndexBuffer:  floorIB,
		Material:     0,
		Transform:    common.Identity4(),
	}}
	offset := float32(gridSize-1) * gridSpacing / 2
	for z := range gridSize {
		for x := range gridSize {
			vb, ib, name := cubeVB, cubeIB, "cube"
			if (x+z)%2 == 1 {
				vb, ib, name = sphereVB, sphereIB, "sphere"
			}
			meshes = append(meshes, Mesh{
				Name:         fmt.Sprintf("%s %d,%d", name, x, z),
				VertexBuffer: vb,
				IndexBuffer:  ib,
				Material:     1 + z*gridSize + x,
				Transform:    common.Translate(float32(x)*gridSpacing-offset, 0.8, float32(z)*gridSpacing-offset),
			})
		}
	}
	glass := len(d.materials) - 1
	for i := range gridSize - 1 {
		meshes = append(meshes, Mesh{
			Name:         fmt.Sprintf("glass %d", i),
			VertexBuffer: sphereVB,
			IndexBuffer:  sphereIB,
			Material:     glass,
			Transform:    common.TranslateScale([3]float32{float32(i)*gridSpacing - offset + gridSpacing/2, 1.5, offset + gridSpacing}, 1.4),
		})
	}

	d.setLoaded(meshes)
	return nil
}

func (d *demo) setLoaded(meshes []Mesh) {
	d.mu.Lock()
	d.meshes = meshes
	d.loaded = true
	d.mu.Unlock()
	logging.Logger().Info("scene loaded", "scene", d.name, "meshes", len(meshes), "materials", len(d.materials), "lights", d.lights.Len())
}

// frameAsset points the camera at the asset and scales the light orbits to its bounds.
// The procedural grid spans roughly 20 units, which is extent 1.
func (d *demo) frameAsset() {
	center, radius := d.asset.Bounds()
	if radius <= 0 {
		return
	}
	d.center = center
	d.extent = radius / 20
	d.cam = camera.NewCamera(
		camera.WithNear(max(radius*0.005, 0.01)),
		camera.WithFar(radius*10),
		camera.WithOrbit(camera.Orbit{Target: center, Radius: radius * 2.2, Elevation: math32.Pi / 6}),
	)
}

func (d *demo) Unload() {
	d.mu.Lock()
	d.meshes = nil
	d.loaded = false
	d.mu.Unlock()

	for _, r := range d.vertexBuffers {
		r.Release()
	}
	for _, r := range d.indexBuffers {
		r.Release()
	}
	d.vertexBuffers = nil
	d.indexBuffers = nil
}

func (d *demo) Update(deltaTime float32) {
	if d.cameraSpeed != 0 {
		d.Camera().Rotate(deltaTime * d.cameraSpeed)
	}
	if !d.animate || len(d.orbits) == 0 {
		return
	}
	d.elapsed += deltaTime
	t := d.elapsed

	// A WaitGroup is the per-frame barrier. pool.Wait only watches the queue, not running tasks.
	d.lights.Update(func(lights []light.PointLight) {
		n := min(len(lights), len(d.orbits))
		batch := max(common.CeilDiv(n, d.workers), lightsPerTask)
		var wg sync.WaitGroup
		for first := 0; first < n; first += batch {
			last := min(first+batch, n)
			wg.Add(1)
			lo, hi := first, last
			d.pool.SubmitTask(worker.Task{
				ID: lo / batch,
				Do: func() (any, error) {
					defer wg.Done()
					for i := lo; i < hi; i++ {
						lights[i].Position = d.orbits[i].position(t)
					}
					return nil, nil
				},
			})
		}
		wg.Wait()
	})
}

func (d *demo) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	d.Camera().SetAspect(float32(width) / float32(height))
}

func (d *demo) Close() {
	d.pool.Wait()
	d.pool.Stop()
}
