// Package shaders embeds the WGSL sources of every renderer program.
//
// File names follow the loader convention: a stage prefix (vs_, fs_ or cs_), the
// pipeline, then the pass.
package shaders

import "embed"

// FS holds every *.wgsl file of the package at its root.
//
//go:embed *.wgsl
var FS embed.FS
