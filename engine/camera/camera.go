package camera

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-lighting/common"
	"github.com/chewxy/math32"
)

type cameraImpl struct {
	mu *sync.Mutex

	up [3]float32

	fov    float32
	aspect float32
	near   float32
	far    float32

	orbit Orbit

	viewMatrix              common.Mat4
	projectionMatrix        common.Mat4
	viewProjectionMatrix    common.Mat4
	inverseProjectionMatrix common.Mat4
}

// Camera is a right-handed perspective camera orbiting a target point.
// It produces the view and projection matrices the renderers upload per view, and the
// near/far distances the cluster grid is sliced with.
// All methods are safe for concurrent use.
type Camera interface {
	// Position returns the world-space eye position.
	//
	// Returns:
	//   - [3]float32: the eye position
	Position() [3]float32

	// Fov returns the vertical field of view in radians.
	Fov() float32

	// Aspect returns the aspect ratio (width / height).
	Aspect() float32

	// Near returns the near clipping plane distance.
	Near() float32

	// Far returns the far clipping plane distance.
	Far() float32

	// ViewMatrix returns the current view matrix (column-major).
	//
	// Returns:
	//   - [16]float32: the view matrix
	ViewMatrix() [16]float32

	// ProjectionMatrix returns the current projection matrix with WebGPU [0, 1] depth.
	//
	// Returns:
	//   - [16]float32: the projection matrix
	ProjectionMatrix() [16]float32

	// ViewProjectionMatrix returns projection * view.
	//
	// Returns:
	//   - [16]float32: the combined view-projection matrix
	ViewProjectionMatrix() [16]float32

	// InverseProjectionMatrix returns the inverse of the projection matrix. The cluster
	// building pass uses it to unproject tile corners into view space.
	//
	// Returns:
	//   - [16]float32: the inverse projection matrix
	InverseProjectionMatrix() [16]float32

	// Orbit returns the orbit placing the eye.
	Orbit() Orbit

	// SetOrbit moves the eye and recomputes the matrices.
	//
	// Parameters:
	//   - o: the new orbit
	SetOrbit(o Orbit)

	// Rotate advances the orbit azimuth by delta radians and recomputes the matrices.
	//
	// Parameters:
	//   - delta: the azimuth change in radians
	Rotate(delta float32)

	// SetAspect sets the aspect ratio and recomputes the matrices.
	//
	// Parameters:
	//   - aspect: width / height
	SetAspect(aspect float32)

	// SetNearFar sets the clipping plane distances and recomputes the matrices.
	//
	// Parameters:
	//   - near: near plane distance, > 0
	//   - far: far plane distance, > near
	SetNearFar(near, far float32)
}

var _ Camera = &cameraImpl{}

// NewCamera creates a Camera with a 60 degree field of view looking at the origin.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:     &sync.Mutex{},
		up:     [3]float32{0, 1, 0},
		fov:    60.0 * (math32.Pi / 180.0),
		aspect: 16.0 / 9.0,
		near:   0.1,
		far:    100.0,
		orbit:  Orbit{Radius: 10, Elevation: math32.Pi / 8},
	}
	for _, option := range options {
		option(c)
	}
	c.updateMatrices()
	return c
}

func (c *cameraImpl) Position() [3]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.orbit.Position()
}

func (c *cameraImpl) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *cameraImpl) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

func (c *cameraImpl) ViewMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewMatrix
}

func (c *cameraImpl) ProjectionMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectionMatrix
}

func (c *cameraImpl) ViewProjectionMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewProjectionMatrix
}

func (c *cameraImpl) InverseProjectionMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inverseProjectionMatrix
}

func (c *cameraImpl) Orbit() Orbit {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.orbit
}

func (c *cameraImpl) SetOrbit(o Orbit) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.orbit = o
	c.updateMatrices()
}

func (c *cameraImpl) Rotate(delta float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.orbit.Azimuth = math32.Mod(c.orbit.Azimuth+delta, 2*math32.Pi)
	c.updateMatrices()
}

func (c *cameraImpl) SetAspect(aspect float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if aspect <= 0 {
		return
	}
	c.aspect = aspect
	c.updateMatrices()
}

func (c *cameraImpl) SetNearFar(near, far float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.near = near
	c.far = far
	c.updateMatrices()
}

// updateMatrices recalculates the view, projection, view-projection and inverse projection
// matrices. Caller must hold the mutex.
func (c *cameraImpl) updateMatrices() {
	common.LookAt(c.viewMatrix[:], c.orbit.Position(), c.orbit.Target, c.up)
	common.Perspective(c.projectionMatrix[:], c.fov, c.aspect, c.near, c.far)
	common.Mul4(c.viewProjectionMatrix[:], c.projectionMatrix[:], c.viewMatrix[:])
	common.Invert4(c.inverseProjectionMatrix[:], c.projectionMatrix[:])
}
