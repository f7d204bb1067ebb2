package loader

import "io/fs"

// DefaultMaxTextureSize is the largest texture edge kept by default. Larger images are
// scaled down on import.
const DefaultMaxTextureSize = 2048

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithFS sets the file system assets and their external buffers are read from.
//
// Parameters:
//   - fsys: the file system
//
// Returns:
//   - LoaderBuilderOption: a function that applies the option to a loader
func WithFS(fsys fs.FS) LoaderBuilderOption {
	return func(l *loader) {
		if fsys != nil {
			l.fsys = fsys
		}
	}
}

// WithMaxTextureSize sets the largest texture edge. 0 keeps images at their source size.
//
// Parameters:
//   - size: the edge length in texels
//
// Returns:
//   - LoaderBuilderOption: a function that applies the option to a loader
func WithMaxTextureSize(size int) LoaderBuilderOption {
	return func(l *loader) {
		l.maxTextureSize = max(size, 0)
	}
}

// WithAsset pre-populates the cache, for procedurally built assets.
//
// Parameters:
//   - name: the cache key
//   - a: the asset
//
// Returns:
//   - LoaderBuilderOption: a function that applies the option to a loader
func WithAsset(name string, a *Asset) LoaderBuilderOption {
	return func(l *loader) {
		l.cache[name] = a
	}
}
