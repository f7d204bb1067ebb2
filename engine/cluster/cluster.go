// Package cluster owns the clustered shading grid: the view-space partition of the camera
// frustum into ClustersX * ClustersY * ClustersZ cells, the GPU buffers the cluster building
// and light culling compute passes write, and CPU versions of both passes.
//
// Screen space is split into ClustersX * ClustersY tiles. Depth is split into ClustersZ
// slices that grow logarithmically between the camera near and far planes, so the slice of
// a view-space depth d is floor(log(d) * scale + bias).
package cluster

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/chewxy/math32"
)

const (
	// ClustersX is the number of screen-space tiles along the viewport width.
	ClustersX = 16
	// ClustersY is the number of screen-space tiles along the viewport height.
	ClustersY = 8
	// ClustersZ is the number of depth slices.
	ClustersZ = 24
	// ClustersZThreads is the number of depth slices one light culling workgroup covers.
	// The light culling dispatch is (1, 1, ClustersZ / ClustersZThreads).
	ClustersZThreads = 4
	// MaxLightsPerCluster bounds the light list of a single cluster. Further hits are dropped.
	MaxLightsPerCluster = 100
	// ClusterCount is the total number of clusters.
	ClusterCount = ClustersX * ClustersY * ClustersZ
)

// ErrInvalidGrid is returned by ValidateGrid when the light culling dispatch cannot cover
// every depth slice.
var ErrInvalidGrid = errors.New("cluster: invalid grid")

// ValidateGrid checks that the depth slices divide evenly between light culling workgroups.
//
// Returns:
//   - error: ErrInvalidGrid wrapped with the offending values, or nil
func ValidateGrid() error {
	return validateGrid(ClustersZ, ClustersZThreads)
}

func validateGrid(z, zThreads int) error {
	if zThreads <= 0 || z <= 0 || z%zThreads != 0 {
		return fmt.Errorf("%w: %d depth slices are not divisible by %d threads", ErrInvalidGrid, z, zThreads)
	}
	return nil
}

// BuildDispatch returns the workgroup counts of the cluster building dispatch, one
// invocation per cluster.
func BuildDispatch() (x, y, z uint32) {
	return ClustersX, ClustersY, ClustersZ
}

// CullDispatch returns the workgroup counts of the light culling dispatch. Each workgroup
// covers ClustersX * ClustersY * ClustersZThreads clusters.
func CullDispatch() (x, y, z uint32) {
	return 1, 1, ClustersZ / ClustersZThreads
}

// ScaleBias returns the factors mapping log(view depth) to a depth slice index.
//
// Parameters:
//   - near: the camera near plane distance, > 0
//   - far: the camera far plane distance, > near
//
// Returns:
//   - scale: ClustersZ / log(far / near)
//   - bias: -ClustersZ * log(near) / log(far / near)
func ScaleBias(near, far float32) (scale, bias float32) {
	logRatio := math32.Log(far / near)
	scale = ClustersZ / logRatio
	bias = -ClustersZ * math32.Log(near) / logRatio
	return scale, bias
}

// SliceDepth returns the view-space distance of the near boundary of depth slice k.
// Slice ClustersZ returns far.
func SliceDepth(k int, near, far float32) float32 {
	return near * math32.Pow(far/near, float32(k)/ClustersZ)
}

// SliceIndex returns the depth slice containing the positive view-space distance d,
// clamped to the grid.
func SliceIndex(d, scale, bias float32) int {
	if d <= 0 {
		return 0
	}
	k := int(math32.Floor(math32.Log(d)*scale + bias))
	return min(max(k, 0), ClustersZ-1)
}

// Index flattens cluster coordinates, X fastest.
func Index(x, y, z int) int {
	return x + ClustersX*(y+ClustersY*z)
}

//go:embed assets/cluster.wgsl
var gpuClusterBody string

// GPUClusterSource returns the WGSL shared by the cluster shaders: the grid constants
// generated from the Go constants, the buffer element structs and the cluster lookup helpers.
// Buffer bindings are declared by each shader with the access mode it needs.
//
// Returns:
//   - string: the WGSL source
func GPUClusterSource() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "const CLUSTERS_X: u32 = %du;\n", ClustersX)
	fmt.Fprintf(&sb, "const CLUSTERS_Y: u32 = %du;\n", ClustersY)
	fmt.Fprintf(&sb, "const CLUSTERS_Z: u32 = %du;\n", ClustersZ)
	fmt.Fprintf(&sb, "const CLUSTERS_Z_THREADS: u32 = %du;\n", ClustersZThreads)
	fmt.Fprintf(&sb, "const MAX_LIGHTS_PER_CLUSTER: u32 = %du;\n", MaxLightsPerCluster)
	fmt.Fprintf(&sb, "const CLUSTER_COUNT: u32 = %du;\n", ClusterCount)
	sb.WriteString(gpuClusterBody)
	return sb.String()
}
