// Package loader imports static glTF 2.0 and GLB assets into CPU-side geometry,
// materials and placed instances. Skins, animations, cameras and KHR extensions are
// ignored. Uploading is left to the scene that owns the asset.
package loader

import (
	"io/fs"
	"math"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-lighting/common"
	"github.com/Carmen-Shannon/oxy-lighting/engine/material"
	"github.com/Carmen-Shannon/oxy-lighting/engine/model"
	"github.com/Carmen-Shannon/oxy-lighting/internal/logging"
	"github.com/chewxy/math32"
)

// Instance places one geometry with one material in the world.
type Instance struct {
	Name string

	// Geometry and Material index Asset.Geometries and Asset.Materials.
	Geometry int
	Material int

	// Transform is the world matrix accumulated over the node hierarchy.
	Transform common.Mat4
}

// Asset is an imported file. Geometries are in local space and shared between instances.
type Asset struct {
	Name       string
	Geometries []model.Geometry
	Materials  []material.Material
	Instances  []Instance
}

// Bounds returns a sphere enclosing every instance in world space.
//
// Returns:
//   - [3]float32: the center of the sphere
//   - float32: the radius, 0 for an empty asset
func (a *Asset) Bounds() ([3]float32, float32) {
	lo := [3]float32{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32}
	hi := [3]float32{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32}
	var found bool
	for _, inst := range a.Instances {
		for _, v := range a.Geometries[inst.Geometry].Vertices {
			p := common.TransformPoint(inst.Transform, v.Position)
			for k := range 3 {
				lo[k] = min(lo[k], p[k])
				hi[k] = max(hi[k], p[k])
			}
			found = true
		}
	}
	if !found {
		return [3]float32{}, 0
	}
	center := [3]float32{(lo[0] + hi[0]) / 2, (lo[1] + hi[1]) / 2, (lo[2] + hi[2]) / 2}
	d := [3]float32{hi[0] - center[0], hi[1] - center[1], hi[2] - center[2]}
	return center, math32.Sqrt(d[0]*d[0] + d[1]*d[1] + d[2]*d[2])
}

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	fsys           fs.FS
	maxTextureSize int

	cache map[string]*Asset
}

// Loader imports assets and caches them by name.
type Loader interface {
	// Load imports a .gltf or .glb file. A cached asset is returned without reading the
	// file again.
	//
	// Parameters:
	//   - name: slash separated path inside the loader's file system
	//
	// Returns:
	//   - *Asset: the imported asset
	//   - error: ErrInvalidAsset, ErrUnsupported or a read error
	Load(name string) (*Asset, error)

	// Get returns a cached asset.
	//
	// Parameters:
	//   - name: the name the asset was loaded or registered under
	//
	// Returns:
	//   - *Asset: the asset
	//   - bool: false if nothing is cached under name
	Get(name string) (*Asset, bool)

	// Forget drops an asset from the cache.
	//
	// Parameters:
	//   - name: the asset name
	Forget(name string)
}

var _ Loader = &loader{}

// NewLoader creates a Loader reading from the working directory unless WithFS is given.
//
// Parameters:
//   - options: functional options to configure the loader
//
// Returns:
//   - Loader: the new loader
func NewLoader(options ...LoaderBuilderOption) Loader {
	l := &loader{
		fsys:           os.DirFS("."),
		maxTextureSize: DefaultMaxTextureSize,
		cache:          make(map[string]*Asset),
	}
	for _, opt := range options {
		opt(l)
	}
	return l
}

func (l *loader) Load(name string) (*Asset, error) {
	name = path.Clean(strings.TrimPrefix(name, "./"))
	if a, ok := l.Get(name); ok {
		return a, nil
	}

	p, err := parse(l.fsys, name)
	if err != nil {
		return nil, err
	}
	a, err := importAsset(p, strings.TrimSuffix(path.Base(name), path.Ext(name)), l.maxTextureSize)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.cache[name] = a
	l.mu.Unlock()
	logging.Logger().Info("asset loaded", "asset", name, "geometries", len(a.Geometries), "materials", len(a.Materials), "instances", len(a.Instances))
	return a, nil
}

func (l *loader) Get(name string) (*Asset, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	a, ok := l.cache[name]
	return a, ok
}

func (l *loader) Forget(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.cache, name)
}
