package shader

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/Carmen-Shannon/oxy-lighting/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-lighting/internal/logging"
)

// Extension is the file extension of every shader source.
const Extension = ".wgsl"

// ErrProgramNotFound is returned when a shader source file does not exist.
var ErrProgramNotFound = errors.New("shader: program not found")

// ErrUnsupported is returned when a shader requires a capability the backend lacks.
var ErrUnsupported = errors.New("shader: required capability not supported")

// shader is the implementation of the Shader interface.
type shader struct {
	key          string
	source       string
	stage        backend.ShaderStage
	requirements []AnnotationArg
}

// Shader is a pre-processed WGSL source ready to be handed to the backend.
type Shader interface {
	// Key returns the file name of the shader without directory or extension,
	// e.g. "fs_deferred_pointlight".
	//
	// Returns:
	//   - string: the shader's unique key
	Key() string

	// Source returns the WGSL source with every @oxy: annotation resolved.
	//
	// Returns:
	//   - string: the processed WGSL source
	Source() string

	// Stage returns the pipeline stage the shader's entry point is written for.
	//
	// Returns:
	//   - backend.ShaderStage: the stage
	Stage() backend.ShaderStage

	// Requirements returns the capabilities named by @oxy:require annotations.
	//
	// Returns:
	//   - []AnnotationArg: the required capabilities
	Requirements() []AnnotationArg
}

var _ Shader = &shader{}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) Stage() backend.ShaderStage {
	return s.stage
}

func (s *shader) Requirements() []AnnotationArg {
	return s.requirements
}

// loader is the implementation of the Loader interface.
type loader struct {
	fsys fs.FS
	dir  string
	pp   PreProcessor
}

// Loader resolves shader names to files of a file system and pre-processes them.
// Names follow a fixed convention: a stage prefix (vs_, fs_ or cs_), then the pipeline and
// pass, e.g. cs_clustered_lightculling.
type Loader interface {
	// Path returns the file path of a shader name inside the loader's file system.
	//
	// Parameters:
	//   - name: the shader name without extension
	//
	// Returns:
	//   - string: dir/name.wgsl
	Path(name string) string

	// Load reads and pre-processes a shader. The stage is taken from the name prefix.
	//
	// Parameters:
	//   - name: the shader name without extension
	//
	// Returns:
	//   - Shader: the processed shader
	//   - error: ErrProgramNotFound when the file is missing, or a pre-processing error
	Load(name string) (Shader, error)
}

var _ Loader = &loader{}

// NewLoader creates a Loader reading from dir inside fsys.
//
// Parameters:
//   - fsys: the file system holding the sources, e.g. shaders.FS or os.DirFS
//   - dir: the directory prefix inside fsys, "" or "." for its root
//
// Returns:
//   - Loader: the loader
func NewLoader(fsys fs.FS, dir string) Loader {
	return &loader{
		fsys: fsys,
		dir:  dir,
		pp:   NewPreProcessor(),
	}
}

func (l *loader) Path(name string) string {
	return path.Join(l.dir, name+Extension)
}

func (l *loader) Load(name string) (Shader, error) {
	stage, err := StageOf(name)
	if err != nil {
		return nil, err
	}

	data, err := fs.ReadFile(l.fsys, l.Path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrProgramNotFound, l.Path(name))
		}
		return nil, fmt.Errorf("failed to read shader %s: %w", name, err)
	}

	source, err := l.pp.Process(string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to pre-process shader %s: %w", name, err)
	}
	return &shader{
		key:          name,
		source:       source,
		stage:        stage,
		requirements: append([]AnnotationArg(nil), l.pp.Requirements()...),
	}, nil
}

// StageOf returns the stage encoded in the prefix of a shader name.
//
// Parameters:
//   - name: the shader name, starting with vs_, fs_ or cs_
//
// Returns:
//   - backend.ShaderStage: the stage
//   - error: an error when the prefix is unknown
func StageOf(name string) (backend.ShaderStage, error) {
	switch {
	case strings.HasPrefix(name, "vs_"):
		return backend.ShaderStageVertex, nil
	case strings.HasPrefix(name, "fs_"):
		return backend.ShaderStageFragment, nil
	case strings.HasPrefix(name, "cs_"):
		return backend.ShaderStageCompute, nil
	default:
		return 0, fmt.Errorf("shader %q has no stage prefix", name)
	}
}

// Supported checks the requirements of s against the backend capabilities.
//
// Parameters:
//   - s: the shader
//   - caps: the backend capabilities
//
// Returns:
//   - error: ErrUnsupported naming the first missing capability, or nil
func Supported(s Shader, caps backend.Caps) error {
	for _, r := range s.Requirements() {
		var flag backend.CapsFlags
		switch r {
		case AnnotationArgCompute:
			flag = backend.CapsCompute
		case AnnotationArgFragmentDepth:
			flag = backend.CapsFragmentDepth
		}
		if !caps.Has(flag) {
			return fmt.Errorf("%w: %s needs %s", ErrUnsupported, s.Key(), r)
		}
	}
	return nil
}

// LoadProgram loads, checks and compiles a vertex and a fragment shader and links them.
// Failures are logged and reported through the invalid handle.
//
// Parameters:
//   - b: the backend to compile on
//   - l: the loader resolving shader names
//   - vsName: the vertex shader name, e.g. "vs_deferred_light"
//   - fsName: the fragment shader name, e.g. "fs_deferred_pointlight"
//
// Returns:
//   - backend.ProgramHandle: the program, or invalid
func LoadProgram(b backend.Backend, l Loader, vsName, fsName string) backend.ProgramHandle {
	vs := loadShader(b, l, vsName)
	if !vs.Valid() {
		return backend.Invalid[backend.ProgramHandle]()
	}
	fs := loadShader(b, l, fsName)
	if !fs.Valid() {
		b.DestroyShader(vs)
		return backend.Invalid[backend.ProgramHandle]()
	}

	h := b.CreateProgram(vs, fs, true)
	if !h.Valid() {
		logging.Logger().Error("failed to link program", "vs", vsName, "fs", fsName)
	}
	return h
}

// LoadComputeProgram loads, checks and compiles a compute shader into a program.
// Failures are logged and reported through the invalid handle.
//
// Parameters:
//   - b: the backend to compile on
//   - l: the loader resolving shader names
//   - csName: the compute shader name, e.g. "cs_clustered_clusterbuilding"
//
// Returns:
//   - backend.ProgramHandle: the program, or invalid
func LoadComputeProgram(b backend.Backend, l Loader, csName string) backend.ProgramHandle {
	cs := loadShader(b, l, csName)
	if !cs.Valid() {
		return backend.Invalid[backend.ProgramHandle]()
	}
	h := b.CreateComputeProgram(cs, true)
	if !h.Valid() {
		logging.Logger().Error("failed to create compute program", "cs", csName)
	}
	return h
}

func loadShader(b backend.Backend, l Loader, name string) backend.ShaderHandle {
	s, err := l.Load(name)
	if err == nil {
		err = Supported(s, b.Caps())
	}
	if err != nil {
		logging.Logger().Error("failed to load shader", "shader", name, "path", l.Path(name), "error", err)
		return backend.Invalid[backend.ShaderHandle]()
	}

	h := b.CreateShader(s.Source(), s.Stage(), s.Key())
	if !h.Valid() {
		logging.Logger().Error("failed to compile shader", "shader", name)
	}
	return h
}
