package camera

import "github.com/chewxy/math32"

// CameraBuilderOption configures a camera created by NewCamera.
type CameraBuilderOption func(*cameraImpl)

// WithFov sets the vertical field of view. Values outside (0, π) keep the 60° default.
//
// Parameters:
//   - fov: field of view in radians
//
// Returns:
//   - CameraBuilderOption: option function to apply
func WithFov(fov float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		if fov > 0 && fov < math32.Pi {
			c.fov = fov
		}
	}
}

// WithAspect sets the initial width / height ratio. The engine replaces it on every resize.
// Non-positive values are ignored, as in SetAspect.
func WithAspect(aspect float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		if aspect > 0 {
			c.aspect = aspect
		}
	}
}

// WithNear sets the near plane. The clustered renderer slices depth logarithmically
// between near and far, so near must stay positive; other values are ignored.
//
// Parameters:
//   - near: distance of the near plane
//
// Returns:
//   - CameraBuilderOption: option function to apply
func WithNear(near float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		if near > 0 {
			c.near = near
		}
	}
}

// WithFar sets the far plane. Non-positive values are ignored.
func WithFar(far float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		if far > 0 {
			c.far = far
		}
	}
}

// WithOrbit places the eye on o instead of the default orbit around the origin.
//
// Parameters:
//   - o: target, radius and angles of the eye
//
// Returns:
//   - CameraBuilderOption: option function to apply
func WithOrbit(o Orbit) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.orbit = o
	}
}
