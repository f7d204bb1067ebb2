package shader

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry() map[AnnotationArg]string {
	return map[AnnotationArg]string{
		AnnotationArgBRDF: "fn brdf() {}",
		AnnotationArgPBR:  "//@oxy:include brdf\nfn pbr() {}",
		AnnotationArgPointLight: strings.Join([]string{
			"//@oxy:require fragment_depth",
			"struct PointLight {}",
		}, "\n"),
	}
}

func TestParseAnnotation(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    *Annotation
		wantErr string
	}{
		{"plain code", "let x = 1;", nil, ""},
		{"plain comment", "// just a comment", nil, ""},
		{"include", "//@oxy:include brdf", &Annotation{Type: AnnotationTypeInclude, Args: []AnnotationArg{AnnotationArgBRDF}, Line: 3}, ""},
		{"indented with spaces", "    // @oxy:require compute", &Annotation{Type: AnnotationTypeRequire, Args: []AnnotationArg{AnnotationArgCompute}, Line: 3}, ""},
		{"empty", "//@oxy:", nil, "empty @oxy annotation"},
		{"missing module", "//@oxy:include", nil, "exactly one argument"},
		{"too many modules", "//@oxy:include brdf pbr", nil, "exactly one argument"},
		{"unknown module", "//@oxy:include shadows", nil, `unknown module "shadows"`},
		{"unknown capability", "//@oxy:require raytracing", nil, `unknown capability "raytracing"`},
		{"unknown type", "//@oxy:define FOO", nil, `unknown @oxy annotation type "define"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseAnnotation(tt.line, 3)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Contains(t, err.Error(), "line 3")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProcess_IncludesOnce(t *testing.T) {
	pp := newPreProcessor(testRegistry())

	out, err := pp.Process("//@oxy:include pbr\n//@oxy:include brdf\n@fragment fn main() {}")
	require.NoError(t, err)
	assert.Equal(t, "fn brdf() {}\nfn pbr() {}\n@fragment fn main() {}\n", out)
	assert.Empty(t, pp.Requirements())
}

func TestProcess_Requirements(t *testing.T) {
	pp := newPreProcessor(testRegistry())

	out, err := pp.Process("//@oxy:require compute\n//@oxy:include point_light\n//@oxy:require compute")
	require.NoError(t, err)
	assert.NotContains(t, out, "@oxy")
	assert.Equal(t, []AnnotationArg{AnnotationArgCompute, AnnotationArgFragmentDepth}, pp.Requirements())

	// state does not leak into the next call
	_, err = pp.Process("fn f() {}")
	require.NoError(t, err)
	assert.Empty(t, pp.Requirements())
	out, err = pp.Process("//@oxy:include brdf")
	require.NoError(t, err)
	assert.Equal(t, "fn brdf() {}\n", out)
}

func TestProcess_Cycle(t *testing.T) {
	pp := newPreProcessor(map[AnnotationArg]string{
		AnnotationArgBRDF: "//@oxy:include pbr",
		AnnotationArgPBR:  "//@oxy:include brdf",
	})

	_, err := pp.Process("//@oxy:include brdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "include cycle: brdf -> pbr -> brdf")
}

func TestProcess_Errors(t *testing.T) {
	pp := newPreProcessor(testRegistry())

	_, err := pp.Process("//@oxy:include tonemap")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `module "tonemap" is not registered`)

	pp = newPreProcessor(map[AnnotationArg]string{
		AnnotationArgBRDF: "fn a() {}\n//@oxy:include nope",
	})
	_, err = pp.Process("//@oxy:include brdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "in module brdf")
	assert.Contains(t, err.Error(), "line 2")
}

func TestNewPreProcessor_RegistersEveryModule(t *testing.T) {
	pp := NewPreProcessor()
	for _, m := range validModules {
		out, err := pp.Process("//@oxy:include " + string(m))
		require.NoError(t, err, "module %s", m)
		assert.NotEmpty(t, strings.TrimSpace(out), "module %s", m)
	}
}
