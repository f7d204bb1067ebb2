package camera

import "github.com/chewxy/math32"

// Orbit places an eye on a sphere around Target using spherical coordinates.
type Orbit struct {
	Target [3]float32
	// Radius is the distance from Target.
	Radius float32
	// Azimuth is the horizontal angle around the Y axis in radians.
	Azimuth float32
	// Elevation is the vertical angle from the horizontal plane in radians.
	Elevation float32
}

// Position returns the eye position of the orbit.
func (o Orbit) Position() [3]float32 {
	sinElev, cosElev := math32.Sincos(o.Elevation)
	sinAzim, cosAzim := math32.Sincos(o.Azimuth)
	return [3]float32{
		o.Target[0] + o.Radius*cosElev*sinAzim,
		o.Target[1] + o.Radius*sinElev,
		o.Target[2] + o.Radius*cosElev*cosAzim,
	}
}
