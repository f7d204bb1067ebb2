package cluster

import (
	"sync"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-lighting/common"
	"github.com/Carmen-Shannon/oxy-lighting/engine/light"
)

// AABB is an axis-aligned box in view space.
type AABB struct {
	Min [3]float32
	Max [3]float32
}

// Intersects reports whether a sphere touches the box.
//
// Parameters:
//   - center: the sphere center in view space
//   - radius: the sphere radius
//
// Returns:
//   - bool: true if the closest point of the box lies within radius of center
func (b AABB) Intersects(center [3]float32, radius float32) bool {
	var d2 float32
	for i := range 3 {
		c := min(max(center[i], b.Min[i]), b.Max[i]) - center[i]
		d2 += c * c
	}
	return d2 <= radius*radius
}

// GridCell is the light list of one cluster: Count indices starting at Offset in the
// compacted light index list.
type GridCell struct {
	Offset uint32
	Count  uint32
}

// LightGrid is the result of light culling.
type LightGrid struct {
	// Cells holds one entry per cluster, indexed by Index(x, y, z).
	Cells []GridCell
	// Indices is the compacted light index list referenced by Cells.
	Indices []uint32
}

// Lights returns the light indices affecting cluster i.
func (g *LightGrid) Lights(i int) []uint32 {
	c := g.Cells[i]
	return g.Indices[c.Offset : c.Offset+c.Count]
}

// BuildGridCPU computes the view-space bounds of every cluster, the same way the cluster
// building compute pass does.
//
// Parameters:
//   - invProj: the inverse of the camera projection
//   - width: the viewport width in pixels
//   - height: the viewport height in pixels
//   - near: the camera near plane distance
//   - far: the camera far plane distance
//
// Returns:
//   - []AABB: ClusterCount boxes indexed by Index(x, y, z)
func BuildGridCPU(invProj common.Mat4, width, height int, near, far float32) []AABB {
	sizeX := float32(common.CeilDiv(width, ClustersX))
	sizeY := float32(common.CeilDiv(height, ClustersY))

	screenToView := func(sx, sy float32) [3]float32 {
		ndc := [4]float32{sx/float32(width)*2 - 1, 1 - sy/float32(height)*2, 0, 1}
		v := common.TransformVec4(invProj, ndc)
		return [3]float32{v[0] / v[3], v[1] / v[3], v[2] / v[3]}
	}
	atDepth := func(p [3]float32, d float32) [3]float32 {
		t := d / -p[2]
		return [3]float32{p[0] * t, p[1] * t, p[2] * t}
	}

	out := make([]AABB, ClusterCount)
	for z := range ClustersZ {
		dNear := SliceDepth(z, near, far)
		dFar := SliceDepth(z+1, near, far)
		for y := range ClustersY {
			for x := range ClustersX {
				// tile corners; screen y grows downwards
				lo := screenToView(float32(x)*sizeX, float32(y+1)*sizeY)
				hi := screenToView(float32(x+1)*sizeX, float32(y)*sizeY)

				corners := [4][3]float32{atDepth(lo, dNear), atDepth(lo, dFar), atDepth(hi, dNear), atDepth(hi, dFar)}
				box := AABB{Min: corners[0], Max: corners[0]}
				for _, c := range corners[1:] {
					for i := range 3 {
						box.Min[i] = min(box.Min[i], c[i])
						box.Max[i] = max(box.Max[i], c[i])
					}
				}
				out[Index(x, y, z)] = box
			}
		}
	}
	return out
}

// CullLightsCPU assigns lights to clusters, the same way the light culling compute pass
// does. Every slab of ClustersZThreads depth slices is culled by its own pool task, matching
// the (1, 1, ClustersZ / ClustersZThreads) dispatch. Offsets are assigned in cluster order,
// so unlike the GPU result the index list is deterministic.
//
// Parameters:
//   - pool: the worker pool to cull on, or nil to cull on the calling goroutine
//   - clusters: the cluster bounds from BuildGridCPU
//   - lights: the scene lights in world space
//   - view: the camera view matrix
//
// Returns:
//   - LightGrid: the per-cluster light lists, at most MaxLightsPerCluster per cluster
func CullLightsCPU(pool worker.DynamicWorkerPool, clusters []AABB, lights []light.PointLight, view common.Mat4) LightGrid {
	type viewLight struct {
		center [3]float32
		radius float32
	}
	vls := make([]viewLight, len(lights))
	for i, l := range lights {
		vls[i] = viewLight{center: common.TransformPoint(view, l.Position), radius: l.Radius()}
	}

	perCluster := make([][]uint32, len(clusters))
	cullSlab := func(slab int) {
		first := Index(0, 0, slab*ClustersZThreads)
		last := min(Index(0, 0, (slab+1)*ClustersZThreads), len(clusters))
		for c := first; c < last; c++ {
			var hits []uint32
			for i, vl := range vls {
				if len(hits) == MaxLightsPerCluster {
					break
				}
				if clusters[c].Intersects(vl.center, vl.radius) {
					hits = append(hits, uint32(i))
				}
			}
			perCluster[c] = hits
		}
	}

	_, _, slabs := CullDispatch()
	if pool == nil {
		for s := range int(slabs) {
			cullSlab(s)
		}
	} else {
		var wg sync.WaitGroup
		for s := range int(slabs) {
			wg.Add(1)
			slab := s
			pool.SubmitTask(worker.Task{
				ID: slab,
				Do: func() (any, error) {
					defer wg.Done()
					cullSlab(slab)
					return nil, nil
				},
			})
		}
		wg.Wait()
	}

	grid := LightGrid{Cells: make([]GridCell, len(clusters))}
	for c, hits := range perCluster {
		grid.Cells[c] = GridCell{Offset: uint32(len(grid.Indices)), Count: uint32(len(hits))}
		grid.Indices = append(grid.Indices, hits...)
	}
	return grid
}
