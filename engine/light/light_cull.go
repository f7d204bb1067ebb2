package light

import "github.com/Carmen-Shannon/oxy-lighting/common"

// VisibleLights appends to dst the indices of the lights whose bounding sphere
// intersects the frustum, in ascending order.
//
// Parameters:
//   - dst: the slice to append to, usually a reused scratch slice truncated to zero
//   - lights: the lights to test
//   - frustum: the camera frustum in the same space as the light positions
//
// Returns:
//   - []int: dst with the visible light indices appended
func VisibleLights(dst []int, lights []PointLight, frustum *common.Frustum) []int {
	for i, l := range lights {
		if frustum.SphereVisible(l.Position, l.Radius()) {
			dst = append(dst, i)
		}
	}
	return dst
}
